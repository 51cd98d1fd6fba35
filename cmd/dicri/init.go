package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

const (
	defaultCoordinator = "coordinador"
	generatedLength    = 16
)

func newInitCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and the first coordinator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := appFrom(cmd).cfg.DB
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("database %s already exists", path)
			}
			return initDatabase(cmd.Context(), path, username)
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", defaultCoordinator, "coordinator username")
	return cmd
}

// initDatabase creates a new database and its first coordinator with a
// random password, which is printed once. A half-initialised file is
// removed on failure.
func initDatabase(ctx context.Context, path, username string) (err error) {
	database, err := openDB(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		database.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	password, err := auth.GeneratePassword(generatedLength)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	email := username + "@dicri.local"
	if _, err := store.CreateUser(ctx, database, username, email, hash, "Coordinador", model.RoleCoordinator); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("user %s already exists", username)
		}
		return fmt.Errorf("creating coordinator: %w", err)
	}

	headerColor.Printf("Database created: %s\n", path)
	fmt.Println()
	fmt.Println("Coordinator account:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", successColor.Sprint(password))
	fmt.Println()
	warningColor.Println("Save this password, it cannot be recovered.")
	return nil
}
