package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/db"
)

func init() { //nolint: gochecknoinits
	userCreateCmd.Flags().StringVar(&username, "username", "", "name of the new user")
	userCreateCmd.Flags().StringVar(&password, "password", "", "password of the new user")
	userCreateCmd.Flags().BoolVar(&superuser, "superuser", false, "grant superuser rights")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userPasswordCmd.Flags().StringVar(&username, "username", "", "name of the user")
	userPasswordCmd.Flags().StringVar(&password, "password", "", "new password")
	_ = userPasswordCmd.MarkFlagRequired("username")
	_ = userPasswordCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd, userPasswordCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	username  string
	password  string
	superuser bool

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage staff users",
	}

	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a staff user",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			authService, err := openAuth()
			if err != nil {
				return err
			}

			user, err := authService.CreateUser(username, password, superuser)
			if err != nil {
				return err //nolint:wrapcheck
			}

			cmd.Printf("created user %s (id %d)\n", user.Username, user.ID)

			return nil
		},
	}

	userPasswordCmd = &cobra.Command{
		Use:   "password",
		Short: "Set the password of a user",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			authService, err := openAuth()
			if err != nil {
				return err
			}

			if err = authService.SetPassword(username, password); err != nil {
				return err //nolint:wrapcheck
			}

			cmd.Printf("password of %s updated\n", username)

			return nil
		},
	}
)

func openAuth() (*auth.Service, error) {
	database, err := db.Open(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Seed(database); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return auth.NewService(database), nil
}
