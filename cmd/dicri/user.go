package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var email, name, role, password string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}

			generated := password == ""
			if generated {
				if password, err = auth.GeneratePassword(generatedLength); err != nil {
					return err
				}
			} else if err := model.ValidatePassword(password); err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			if name == "" {
				name = args[0]
			}
			if email == "" {
				email = args[0] + "@dicri.local"
			}

			database, err := openDB(cmd.Context(), appFrom(cmd).cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			u, err := store.CreateUser(cmd.Context(), database, args[0], email, hash, name, r)
			if err != nil {
				return fmt.Errorf("creating user %s: %w", args[0], err)
			}

			successColor.Printf("Created %s %s (id %d)\n", r.DisplayName(), u.Username, u.ID)
			if generated {
				fmt.Printf("  Password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (default: <username>@dicri.local)")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: username)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleTechnician), "role: tecnico or coordinador")
	cmd.Flags().StringVar(&password, "password", "", "password (default: generated)")
	return cmd
}
