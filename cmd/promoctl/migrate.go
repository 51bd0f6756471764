package main

import (
	"errors"
	"fmt"

	"github.com/eldoah/promo-hub/internal/infrastructure/persistence"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence/postgres"
	"github.com/urfave/cli/v2"
)

var errNotPostgres = errors.New("migrations need STORAGE_DRIVER=postgres")

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "apply all pending migrations",
				Action: withMigrator(migrateUp),
			},
			{
				Name:   "down",
				Usage:  "roll back the latest applied migration",
				Action: withMigrator(migrateDown),
			},
			{
				Name:   "status",
				Usage:  "list migrations and whether they are applied",
				Action: withMigrator(migrateStatus),
			},
		},
	}
}

func withMigrator(fn func(c *cli.Context, e *env, m *postgres.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		return withStores(c, persistence.Options{}, func(e *env, st *persistence.Stores) error {
			if st.Postgres == nil {
				return errNotPostgres
			}
			return fn(c, e, postgres.NewMigrator(st.Postgres))
		})
	}
}

func migrateUp(c *cli.Context, e *env, m *postgres.Migrator) error {
	applied, err := m.Migrate(c.Context)
	if err != nil {
		return err
	}
	if applied == 0 {
		fmt.Fprintln(e.out, "no new migrations to apply")
		return nil
	}
	okText.Fprintf(e.out, "applied %d migration(s)\n", applied)
	return nil
}

func migrateDown(c *cli.Context, e *env, m *postgres.Migrator) error {
	version, err := m.Rollback(c.Context)
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(e.out, "nothing to roll back")
		return nil
	}
	warnText.Fprintf(e.out, "rolled back migration %03d\n", version)
	return nil
}

func migrateStatus(c *cli.Context, e *env, m *postgres.Migrator) error {
	status, err := m.Status(c.Context)
	if err != nil {
		return err
	}
	for _, mg := range status {
		if mg.IsApplied {
			okText.Fprintf(e.out, "  [x] %03d %s", mg.Version, mg.Name)
			dimText.Fprintf(e.out, "  %s\n", mg.AppliedAt.Format("2006-01-02 15:04:05"))
		} else {
			warnText.Fprintf(e.out, "  [ ] %03d %s\n", mg.Version, mg.Name)
		}
	}
	return nil
}
