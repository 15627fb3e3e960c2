package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing local database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := resetLocal(ctx.Store); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized checkin storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

// resetLocal removes a file-backed store. Remote stores are never deleted.
func resetLocal(store storage.Provider) error {
	path := store.GetConfigPath()
	if path == "postgresql" || path == "memory" {
		return fmt.Errorf("--force only applies to local storage files")
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}
