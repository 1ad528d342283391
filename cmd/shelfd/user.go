package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd"
	"github.com/shelfd/shelfd/config"
	"github.com/shelfd/shelfd/database"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage catalog users",
	Long: `Manage the users that can authenticate against protected routes.

Users are provisioned out-of-band; there is no self-registration
endpoint. Passwords are stored as bcrypt hashes.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Long: `Add a new user interactively.

You will be prompted for the password twice. The username must not
already exist.

Examples:
  # Add a user to the configured database
  shelfd user add alice

  # Add a user to a specific database
  shelfd --db-type postgres --db-dsn postgres://localhost/shelfd user add alice`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

func init() {
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	confirmPrompt := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
	}
	confirm, err := confirmPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	if password != confirm {
		return errors.New("passwords do not match")
	}

	repos, closeDB, err := database.Connect(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	user, err := shelfd.ProvisionUser(cmd.Context(), repos.Users, username, password)
	if err != nil {
		if errors.Is(err, shelfd.ErrConflict) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Printf("User '%s' added (id %d).\n", user.Username, user.ID)
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
