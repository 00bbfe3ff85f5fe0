package main

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jacksonlee411/contact-directory/modules/directory/infrastructure/persistence"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
	"github.com/spf13/cobra"
)

func openMigrationDB(cfg *configuration.Configuration) (*sql.DB, persistence.Dialect, error) {
	switch cfg.StoreDriver {
	case configuration.StorePostgres:
		db, err := sql.Open("pgx", cfg.Database.DSN())
		return db, persistence.DialectPostgres, err
	case configuration.StoreSQLite:
		db, err := persistence.OpenSQLite(cfg.SQLitePath)
		return db, persistence.DialectSQLite, err
	}
	return nil, "", errors.New("migrate: store driver " + cfg.StoreDriver + " has no schema")
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the directory schema",
	}

	run := func(fn func(cmd *cobra.Command, db *sql.DB, dialect persistence.Dialect) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, dialect, err := openMigrationDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(cmd, db, dialect)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: run(func(cmd *cobra.Command, db *sql.DB, dialect persistence.Dialect) error {
			applied, err := persistence.MigrateUp(cmd.Context(), db, dialect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: run(func(cmd *cobra.Command, db *sql.DB, dialect persistence.Dialect) error {
			if err := persistence.MigrateDown(cmd.Context(), db, dialect); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back 1 migration")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: run(func(cmd *cobra.Command, db *sql.DB, dialect persistence.Dialect) error {
			v, err := persistence.MigrationVersion(cmd.Context(), db, dialect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
			return nil
		}),
	})
	return cmd
}
