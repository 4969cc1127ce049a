package db

import (
	"testing"
	"time"

	"github.com/edjs-platform/edjs/internal/models"
)

func TestOpenSQLiteCreatesCaseInsensitiveUserEmailUniqueIndex(t *testing.T) {
	database := openTestDatabase(t)

	firstUser := models.User{
		Email:        "Enseignant@Ecole.ma",
		PasswordHash: "hash-1",
		CreatedAt:    time.Now().UTC(),
	}
	if err := database.Create(&firstUser).Error; err != nil {
		t.Fatalf("create first user: %v", err)
	}

	secondUser := models.User{
		Email:        "enseignant@ecole.ma",
		PasswordHash: "hash-2",
		CreatedAt:    time.Now().UTC(),
	}
	if err := database.Create(&secondUser).Error; err == nil {
		t.Fatalf("expected duplicate normalized email insert to fail")
	}
}
