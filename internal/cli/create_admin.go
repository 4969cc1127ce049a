package cli

import (
	"fmt"
	"io"

	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/services"
)

// RunCreateAdminCommand is the local counterpart of the create-admin
// function. Shell access to the database stands in for the setup token.
func RunCreateAdminCommand(dbPath string, input services.AdministratorInput, out io.Writer) (models.User, error) {
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return models.User{}, fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		_ = db.Close(database)
	}()

	setup := services.NewSetupService(db.NewUserRepository(database), "")
	user, err := setup.CreateAdministrator(input)
	if err != nil {
		return models.User{}, fmt.Errorf("create administrator: %w", err)
	}

	fmt.Fprintf(out, "Administrator %s ready (user id %d, role %s)\n", user.Email, user.ID, models.RoleAdminFull)
	return user, nil
}
