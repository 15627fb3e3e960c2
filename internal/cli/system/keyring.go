package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/keyring"
	"github.com/julianstephens/checkin/internal/storage/postgres"
)

// KeyringSetCmd stores a PostgreSQL connection string in the OS keyring.
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
	Profile          string `help:"Keyring profile; select it later with --config keyring:PROFILE."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if !postgres.IsConnString(cmd.ConnectionString) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so an embedded password is acceptable here.
		ctx.Println(cli.WarnStyle.Render("⚠ Connection string contains embedded credentials; storing it in the encrypted OS keyring."))
	}

	if err := keyring.SetConnectionString(cmd.Profile, cmd.ConnectionString); err != nil {
		return err
	}

	target := cli.KeyringTarget
	if cmd.Profile != "" {
		target += ":" + cmd.Profile
	}
	ctx.Println(cli.OKStyle.Render("✓ Connection string stored in OS keyring"))
	ctx.Printf("  Use it with: checkin --config %s\n", target)
	return nil
}

// KeyringDeleteCmd removes a stored connection string.
type KeyringDeleteCmd struct {
	Profile string `help:"Keyring profile."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(cmd.Profile); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	ctx.Println(cli.OKStyle.Render("✓ Connection string deleted from OS keyring"))
	return nil
}

// KeyringStatusCmd reports keyring availability and the stored connection string.
type KeyringStatusCmd struct {
	Profile string `help:"Keyring profile."`
}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println(cli.ErrorStyle.Render("❌ OS keyring is not available on this system"))
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println(cli.OKStyle.Render("✓ OS keyring is available"))

	connStr, err := keyring.GetConnectionString(cmd.Profile)
	switch {
	case err == nil:
		ctx.Printf("✓ Connection string stored: %s\n", keyring.MaskPassword(connStr))
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Println("ℹ No connection string stored in keyring")
	default:
		return err
	}
	return nil
}
