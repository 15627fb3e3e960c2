package system

import (
	"fmt"

	"github.com/julianstephens/checkin/internal/cli"
)

// Migrator is a store with a versioned schema.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(Migrator)
	if !ok {
		return fmt.Errorf("migrate only applies to SQLite and PostgreSQL storage")
	}

	count, err := m.Migrate(func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
