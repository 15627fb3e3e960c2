package models

import (
	"time"

	"github.com/julianstephens/checkin/internal/constants"
)

// OpenWindow locates the instant a cycle opens.
type OpenWindow struct {
	Kind   constants.WindowKind `json:"kind,omitempty"`
	Day    string               `json:"day,omitempty"`     // weekday name, for specific_day
	NthDay int                  `json:"nth_day,omitempty"` // 1..31, or -1 for the last day of the month
	Time   string               `json:"time,omitempty"`    // HH:MM format
}

// CloseWindow locates the instant a cycle closes.
type CloseWindow struct {
	Kind           constants.WindowKind `json:"kind,omitempty"`
	Day            string               `json:"day,omitempty"`  // weekday name, for specific_day
	Time           string               `json:"time,omitempty"` // HH:MM format
	HoursAfterOpen int                  `json:"hours_after_open,omitempty"`
}

// CustomConfig describes a custom cadence: every Value Units, aligned to StartDay for weeks.
type CustomConfig struct {
	Value    int                  `json:"value"`
	Unit     constants.CustomUnit `json:"unit"`
	StartDay string               `json:"start_day,omitempty"`
}

// ScheduleConfig is a coach-authored recurrence spec for a check-in template.
type ScheduleConfig struct {
	Frequency   constants.Frequency `json:"frequency"`
	OpenWindow  OpenWindow          `json:"open_window"`
	CloseWindow CloseWindow         `json:"close_window"`
	Custom      *CustomConfig       `json:"custom,omitempty"`
	Timezone    string              `json:"timezone,omitempty"`   // IANA name; empty or "Local" uses the calculator default
	StartDate   string              `json:"start_date,omitempty"` // YYYY-MM-DD anchor of the first cycle
}

// ScheduleWindow is the open→close span of one cycle. It is computed on demand and never stored.
type ScheduleWindow struct {
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// Contains reports whether t falls in the half-open interval [Open, Close).
func (w ScheduleWindow) Contains(t time.Time) bool {
	return !t.Before(w.Open) && t.Before(w.Close)
}

// Duration returns the length of the window.
func (w ScheduleWindow) Duration() time.Duration {
	return w.Close.Sub(w.Open)
}
