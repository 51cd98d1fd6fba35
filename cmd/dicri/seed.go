package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

// seedFile is the layout of a users seed file:
//
//	users:
//	  - username: jperez
//	    name: Juan Pérez
//	    email: jperez@example.org
//	    role: tecnico
//	    password: secreto123
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create user accounts from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := parseSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			database, err := openDB(cmd.Context(), appFrom(cmd).cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			created, skipped, err := seedUsers(cmd.Context(), database, seed)
			if err != nil {
				return err
			}
			successColor.Printf("Created %d users", created)
			if skipped > 0 {
				warningColor.Printf(", skipped %d existing", skipped)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "users.yaml", "seed file")
	return cmd
}

// parseSeed decodes and checks a seed file. Every entry needs a username,
// a known role and a password that meets the length policy.
func parseSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}

	for i, u := range seed.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("users[%d]: username is required", i)
		}
		if _, err := model.ParseRole(u.Role); err != nil {
			return nil, fmt.Errorf("users[%d] %s: %w", i, u.Username, err)
		}
		if err := model.ValidatePassword(u.Password); err != nil {
			return nil, fmt.Errorf("users[%d] %s: %w", i, u.Username, err)
		}
	}
	return &seed, nil
}

// seedUsers creates the users of a parsed seed file. Existing usernames or
// emails are skipped so a seed can be re-applied.
func seedUsers(ctx context.Context, db store.DBTX, seed *seedFile) (created, skipped int, err error) {
	for _, u := range seed.Users {
		role, _ := model.ParseRole(u.Role)
		name := u.Name
		if name == "" {
			name = u.Username
		}
		email := u.Email
		if email == "" {
			email = u.Username + "@dicri.local"
		}

		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return created, skipped, err
		}

		_, err = store.CreateUser(ctx, db, u.Username, email, hash, name, role)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			skipped++
		case err != nil:
			return created, skipped, fmt.Errorf("creating %s: %w", u.Username, err)
		default:
			created++
		}
	}
	return created, skipped, nil
}
