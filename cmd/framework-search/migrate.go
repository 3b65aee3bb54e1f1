package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"framework-search/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or list the PostgreSQL schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	zapLog, log := newLogger(cfg)
	defer zapLog.Sync()

	ctx := cmd.Context()
	pg, err := connectPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pg.Close()

	var run func(context.Context, *sql.DB) error
	switch args[0] {
	case "up":
		run = store.MigrateUp
	case "down":
		run = store.MigrateDown
	case "status":
		run = store.MigrationStatus
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}

	if err := run(ctx, pg.DB); err != nil {
		return err
	}
	log.Info("Migrations finished", map[string]interface{}{"action": args[0]})
	return nil
}
