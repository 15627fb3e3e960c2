package constants

import "time"

const (
	AppName            = "checkin"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/checkin/checkin.db"
	DefaultConfigFile  = "~/.config/checkin/config.json"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DraftKeyPrefix prefixes the logical storage key of a persisted draft.
	DraftKeyPrefix = "draft:"

	// Debounce quiet periods
	DefaultAutosaveDelay   = 1000 * time.Millisecond
	DefaultValidationDelay = 300 * time.Millisecond

	// MaxTextLength caps every free-text entry of a check-in payload (in characters).
	MaxTextLength = 500

	// LastDayOfMonth marks an nth-day open window that falls on the month's final day.
	LastDayOfMonth = -1

	// Lock constants
	LockDirName    = "locks"
	LockFileSuffix = ".lock"
)
