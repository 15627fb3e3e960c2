package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/migration"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/migrations"
)

var _ storage.Provider = (*Store)(nil)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		db, err := s.open()
		if err != nil {
			return err
		}
		s.db = db
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage not initialized, run 'checkin init' first")
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	s.db = db

	return s.validateSchemaVersion()
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the autosave timer and the main goroutine.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	_, err = runner.Apply(func(msg string) {
		logger.Info(msg)
	})
	return err
}

// Migrate applies pending migrations to an existing database, reporting each step to logFn.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("storage not initialized, run 'checkin init' first")
	}
	if s.db == nil {
		db, err := s.open()
		if err != nil {
			return 0, err
		}
		s.db = db
	}

	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return 0, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS).Apply(logFn)
}

func (s *Store) validateSchemaVersion() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	return runner.Check()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) GetDraft(ownerKey string) (models.Draft, error) {
	if s.db == nil {
		return models.Draft{}, storage.ErrNotLoaded
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM drafts WHERE key = ?", storage.DraftKey(ownerKey)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Draft{}, fmt.Errorf("draft %s: %w", ownerKey, storage.ErrNotFound)
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("failed to read draft %s: %w", ownerKey, err)
	}
	return storage.DecodeDraft(ownerKey, []byte(value))
}

func (s *Store) SaveDraft(d models.Draft) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	value, err := storage.EncodeDraft(d)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO drafts (key, value, updated_at) VALUES (?, ?, ?)",
		storage.DraftKey(d.OwnerKey), string(value), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write draft %s: %w", d.OwnerKey, err)
	}
	return nil
}

func (s *Store) DeleteDraft(ownerKey string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if _, err := s.db.Exec("DELETE FROM drafts WHERE key = ?", storage.DraftKey(ownerKey)); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", ownerKey, err)
	}
	return nil
}
