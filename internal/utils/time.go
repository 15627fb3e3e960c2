package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
)

// Clock is a wall-clock time of day (HH:MM).
type Clock struct {
	Hour   int
	Minute int
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ParseClock parses a time string in the standard format (HH:MM).
func ParseClock(timeStr string) (Clock, error) {
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(timeStr))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q (expected HH:MM): %w", timeStr, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// At returns the instant at the given clock time on the calendar date of day,
// shifted by the given number of calendar days. Day arithmetic goes through
// time.Date so a DST transition yields a 23 or 25 hour day, not a fixed 24h.
func At(day time.Time, offsetDays int, c Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+offsetDays, c.Hour, c.Minute, 0, 0, day.Location())
}

// StartOfDay returns local midnight of t's calendar date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameLocalDay reports whether a and b fall on the same calendar date in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysBetween returns the number of calendar days from a's date to b's date.
// Both are read in their own location; the count ignores time of day and DST.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// MonthsBetween returns the number of calendar months from a's month to b's month.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a weekday name ("monday", "mon") or number (0=Sunday, 6=Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	part := strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[part]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(part)
	if err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return time.Sunday, fmt.Errorf("invalid weekday: %s", s)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
