// Package migration applies the versioned SQL files of a storage backend. Each file is
// named NNN_name.sql; the highest applied version is kept in a one-row schema_version table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/julianstephens/checkin/internal/logger"
)

var (
	// ErrSchemaNewer means the database was migrated by a newer release.
	ErrSchemaNewer = errors.New("database schema is newer than this release")
	// ErrSchemaBehind means migrations are pending.
	ErrSchemaBehind = errors.New("database schema is behind this release")
)

var fileName = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_-]+)\.sql$`)

type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Dialect selects the bind-parameter syntax of the target database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) bind(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

type Runner struct {
	db      *sql.DB
	files   fs.FS
	dialect Dialect
}

// NewRunner returns a SQLite runner over the migration files at the root of files.
func NewRunner(db *sql.DB, files fs.FS) *Runner {
	return NewRunnerWithDialect(db, files, SQLite)
}

func NewRunnerWithDialect(db *sql.DB, files fs.FS, dialect Dialect) *Runner {
	return &Runner{db: db, files: files, dialect: dialect}
}

// Migrations returns the migration files sorted by version. Other files are ignored, but a
// .sql file that does not follow the naming scheme is an error.
func (r *Runner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[int]Migration)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		m := fileName.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("migration %s: expected NNN_name.sql", name)
		}
		version, _ := strconv.Atoi(m[1])
		if version == 0 {
			return nil, fmt.Errorf("migration %s: versions start at 1", name)
		}
		if prev, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("migration %s: version %d already used by %s", name, version, prev.Name)
		}
		body, err := fs.ReadFile(r.files, name)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		byVersion[version] = Migration{Version: version, Name: m[2], SQL: string(body)}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Latest returns the highest available version, 0 when there are no files.
func (r *Runner) Latest() (int, error) {
	ms, err := r.Migrations()
	if err != nil || len(ms) == 0 {
		return 0, err
	}
	return ms[len(ms)-1].Version, nil
}

// Version returns the applied version, 0 for a fresh database.
func (r *Runner) Version() (int, error) {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var v int
	if err := r.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// SetVersion records v as the applied version.
func (r *Runner) SetVersion(v int) error {
	if _, err := r.Version(); err != nil {
		return err
	}
	return r.inTx(func(tx *sql.Tx) error { return r.record(tx, v) })
}

func (r *Runner) record(tx *sql.Tx, v int) error {
	if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (`+r.dialect.bind(1)+`)`, v); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func (r *Runner) inTx(fn func(*sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Apply runs every pending migration, each in its own transaction together with the version
// bump, and returns how many ran. report receives one line per migration; it may be nil.
func (r *Runner) Apply(report func(string)) (int, error) {
	if report == nil {
		report = func(string) {}
	}
	current, err := r.Version()
	if err != nil {
		return 0, err
	}
	ms, err := r.Migrations()
	if err != nil {
		return 0, err
	}
	if n := len(ms); n > 0 && current > ms[n-1].Version {
		return 0, fmt.Errorf("%w (database %d, latest %d), upgrade checkin", ErrSchemaNewer, current, ms[n-1].Version)
	}

	applied := 0
	for _, m := range ms {
		if m.Version <= current {
			continue
		}
		err := r.inTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return err
			}
			return r.record(tx, m.Version)
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		applied++
		logger.Debug("Applied migration", "version", m.Version, "name", m.Name)
		report(fmt.Sprintf("Applied migration %d: %s", m.Version, m.Name))
	}
	return applied, nil
}

// Check returns ErrSchemaNewer or ErrSchemaBehind unless the database is at the latest version.
func (r *Runner) Check() error {
	current, err := r.Version()
	if err != nil {
		return err
	}
	latest, err := r.Latest()
	if err != nil {
		return err
	}
	switch {
	case current > latest:
		return fmt.Errorf("%w (database %d, latest %d), upgrade checkin", ErrSchemaNewer, current, latest)
	case current < latest:
		return fmt.Errorf("%w (database %d, latest %d), run 'checkin migrate'", ErrSchemaBehind, current, latest)
	}
	return nil
}
