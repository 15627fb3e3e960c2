package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/checkin/internal/keyring"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/storage/postgres"
	"github.com/julianstephens/checkin/internal/storage/sqlite"
)

// KeyringTarget selects the connection string stored in the OS keyring,
// optionally followed by ":profile".
const KeyringTarget = "keyring"

// StoreOptions selects a storage backend.
type StoreOptions struct {
	// Config is a file path (.json for the JSON store, anything else for SQLite), a
	// PostgreSQL connection string without a password, or "keyring[:profile]".
	Config string
	// DBConnection comes from the environment and may carry credentials.
	DBConnection string
}

// NewStore returns the provider selected by opts. The store is neither initialized nor loaded.
func NewStore(opts StoreOptions) (storage.Provider, error) {
	if conn := strings.TrimSpace(opts.DBConnection); conn != "" {
		if _, err := postgres.ValidateConnString(conn); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(conn), nil
	}

	target := strings.TrimSpace(opts.Config)
	if target == KeyringTarget || strings.HasPrefix(target, KeyringTarget+":") {
		profile := strings.TrimPrefix(strings.TrimPrefix(target, KeyringTarget), ":")
		conn, err := keyring.GetConnectionString(profile)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string found in keyring, use 'checkin keyring set' to store one")
			}
			return nil, err
		}
		return postgres.New(conn), nil
	}

	if postgres.IsConnString(target) {
		if postgres.HasEmbeddedCredentials(target) {
			return nil, fmt.Errorf("%w: use 'checkin keyring set', CHECKIN_DB_CONNECTION or ~/.pgpass instead", postgres.ErrEmbeddedCredentials)
		}
		return postgres.New(target), nil
	}

	path := ExpandHome(target)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return storage.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ConfigDir returns the directory for logs and locks belonging to opts.
func ConfigDir(opts StoreOptions, fallback string) string {
	target := strings.TrimSpace(opts.Config)
	if strings.TrimSpace(opts.DBConnection) != "" || target == "" || postgres.IsConnString(target) ||
		target == KeyringTarget || strings.HasPrefix(target, KeyringTarget+":") {
		return ExpandHome(fallback)
	}
	return filepath.Dir(ExpandHome(target))
}
