package cli

import (
	"errors"
	"os"

	"github.com/edjs-platform/edjs/internal/config"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/spf13/cobra"
)

// NewRootCommand wires the edjs binary: serve (default), create-admin and
// reset-password.
func NewRootCommand(version string) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "edjs",
		Short:         "EDJS ticketing platform",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serve := newServeCommand(version)
	root.AddCommand(serve, newCreateAdminCommand(), newResetPasswordCommand())
	root.RunE = serve.RunE
	return root
}

func newCreateAdminCommand() *cobra.Command {
	input := services.AdministratorInput{}

	command := &cobra.Command{
		Use:   "create-admin",
		Short: "Create or promote an admin_full account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Password == "" {
				password, err := readNewPassword(os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				input.Password = password
			}
			_, err := RunCreateAdminCommand(config.DatabasePath(), input, cmd.OutOrStdout())
			return err
		},
	}
	command.Flags().StringVar(&input.Email, "email", "", "administrator email")
	command.Flags().StringVar(&input.FullName, "name", "", "administrator full name")
	command.Flags().StringVar(&input.Password, "password", "", "password (prompted when omitted)")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("name")
	return command
}

func newResetPasswordCommand() *cobra.Command {
	var prompt bool

	command := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Reset an account password",
		Long:  "Reset an account password. Without --prompt a temporary password is generated and printed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if prompt {
				entered, err := readNewPassword(os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if entered == "" {
					return errors.New("empty password")
				}
				password = entered
			}
			return RunResetPasswordCommand(config.DatabasePath(), args[0], password, cmd.OutOrStdout())
		},
	}
	command.Flags().BoolVar(&prompt, "prompt", false, "prompt for the new password instead of generating one")
	return command
}
