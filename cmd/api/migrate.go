package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflex/internal/models"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(fn func(*models.Migrator) error) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			db, err := models.NewDB(a.cfg.DBString, a.dbOptions())
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			m, err := models.NewMigrator(db)
			if err != nil {
				return err
			}
			return fn(m)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *models.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				a.log.Info().Msg("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *models.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				a.log.Info().Msg("rolled back one migration")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *models.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				a.log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
				return nil
			}),
		},
	)
	return cmd
}
