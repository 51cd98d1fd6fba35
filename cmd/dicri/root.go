package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/erazemk/dicri/internal/config"
	"github.com/erazemk/dicri/internal/db"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

type contextKey struct{}

// app is the state shared by all subcommands once the root has run.
type app struct {
	cfg      *config.Config
	closeLog func()
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	a := &app{}

	root := &cobra.Command{
		Use:           "dicri",
		Short:         "Forensic case and evidence management",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			closeLog, err := setupLogger(cfg.Log, cfg.Debug)
			if err != nil {
				return err
			}
			a.cfg, a.closeLog = cfg, closeLog
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, a))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./dicri.yaml or /etc/dicri/dicri.yaml)")
	flags.StringP("db", "d", "dicri.db", "SQLite database path")
	flags.StringP("log", "l", "", "also write logs to this file")
	flags.Bool("debug", false, "enable debug logging")

	root.AddCommand(newServeCmd(), newInitCmd(), newUserCmd(), newSeedCmd())
	return root
}

// appFrom returns the state prepared by the root command.
func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(contextKey{}).(*app)
}

// openDB opens and migrates the configured database.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return database, nil
}
