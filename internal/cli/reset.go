package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/security"
	"github.com/edjs-platform/edjs/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunResetPasswordCommand sets a password for an existing account. An empty
// password generates a temporary one that must be changed on next login.
func RunResetPasswordCommand(dbPath string, email string, password string, out io.Writer) error {
	normalizedEmail := services.NormalizeAuthEmail(email)
	if normalizedEmail == "" {
		return errors.New("a valid email is required")
	}

	temporary := password == ""
	if temporary {
		generated, err := generateTemporaryPassword(12)
		if err != nil {
			return fmt.Errorf("generate temporary password: %w", err)
		}
		password = generated
	}
	if err := services.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("password rejected: %w", err)
	}

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		_ = db.Close(database)
	}()

	users := db.NewUserRepository(database)
	user, err := users.FindByNormalizedEmail(normalizedEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s not found", normalizedEmail)
		}
		return fmt.Errorf("load user: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := users.UpdatePassword(user.ID, string(passwordHash), temporary); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	fmt.Fprintf(out, "Password reset for %s\n", normalizedEmail)
	if temporary {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
		fmt.Fprintln(out, "The user must change it on next login.")
	}
	return nil
}

// generateTemporaryPassword draws until the result satisfies the password
// policy.
func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	for {
		candidate, err := security.RandomString(length, security.ReadableAlphabet)
		if err != nil {
			return "", err
		}
		if services.ValidatePasswordStrength(candidate) == nil {
			return candidate, nil
		}
	}
}
