package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/constants"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(ctx *cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{"Storage reachable", checkStorage},
		{"Lock directory writable", checkLockDir},
		{"Clock/timezone", checkClockTimezone},
	}

	failed := 0
	for _, c := range checks {
		if err := c.run(ctx); err != nil {
			ctx.Printf("%s %s: FAIL\n", cli.ErrorStyle.Render("❌"), c.name)
			ctx.Printf("   Error: %v\n", err)
			failed++
			continue
		}
		ctx.Printf("%s %s: OK\n", cli.OKStyle.Render("✓"), c.name)
	}

	ctx.Println()
	if failed > 0 {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

// checkStorage loads the store, which also validates the schema version.
func checkStorage(ctx *cli.Context) error {
	return ctx.Store.Load()
}

func checkLockDir(ctx *cli.Context) error {
	if ctx.ConfigDir == "" {
		return errors.New("no config directory")
	}
	dir := filepath.Join(ctx.ConfigDir, constants.LockDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "doctor-*")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Now()
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if ctx.Location() == nil {
		return errors.New("no timezone configured")
	}
	return nil
}
