package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/scheduler"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/tracker"
)

type Context struct {
	Store      storage.Provider
	Calculator *scheduler.Calculator
	Tracker    *tracker.Tracker
	// ConfigDir holds logs and lock files.
	ConfigDir string
	Clock     debounce.Clock
	Out       io.Writer
}

// Now returns the current time in the calculator's timezone.
func (c *Context) Now() time.Time {
	clock := c.Clock
	if clock == nil {
		clock = debounce.RealClock{}
	}
	return clock.Now().In(c.Location())
}

// Location is the default timezone for schedules and draft staleness.
func (c *Context) Location() *time.Location {
	if c.Calculator != nil && c.Calculator.Location != nil {
		return c.Calculator.Location
	}
	return time.Local
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// LoadTemplate reads a JSON check-in template and validates its schedule.
func LoadTemplate(path string) (models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Template{}, fmt.Errorf("failed to read template: %w", err)
	}

	var tmpl models.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return models.Template{}, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	if strings.TrimSpace(tmpl.ID) == "" {
		return models.Template{}, fmt.Errorf("template %s has no id", path)
	}
	if err := scheduler.ValidateConfig(tmpl.Schedule); err != nil {
		return models.Template{}, err
	}
	return tmpl, nil
}

// InitialPayload is the form a client starts from: the template's seed plus its questions.
func InitialPayload(tmpl models.Template) models.Payload {
	p := models.Payload{}
	if tmpl.Seed != nil {
		p = tmpl.Seed.Clone()
	}
	if len(p.Questions) == 0 && len(tmpl.Questions) > 0 {
		p.Questions = models.Payload{Questions: tmpl.Questions}.Clone().Questions
	}
	p.Normalize()
	return p
}

// CurrentInstance builds the instance of tmpl for clientID at now and attaches its
// submission and review records from storage. Between cycles, a missed instance still
// within the late grace period and not yet submitted wins over the upcoming one.
func (c *Context) CurrentInstance(tmpl models.Template, clientID string, now time.Time) (models.Instance, error) {
	inst, err := c.Tracker.NewInstance(tmpl, clientID, now)
	if err != nil {
		return models.Instance{}, err
	}

	if c.Tracker.LateGrace > 0 && now.Before(inst.Window.Open) {
		prev, err := c.Tracker.NewInstance(tmpl, clientID, now.Add(-c.Tracker.LateGrace))
		if err == nil && prev.ID != inst.ID {
			if err := c.attachRecords(&prev); err != nil {
				return models.Instance{}, err
			}
			if prev.Submission == nil && c.Tracker.AcceptsSubmission(prev, now) {
				return prev, nil
			}
		}
	}

	if err := c.attachRecords(&inst); err != nil {
		return models.Instance{}, err
	}
	return inst, nil
}

func (c *Context) attachRecords(inst *models.Instance) error {
	sub, err := c.Store.GetSubmission(inst.ID)
	switch {
	case err == nil:
		inst.Submission = &sub
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to read submission: %w", err)
	}

	review, err := c.Store.GetReview(inst.ID)
	switch {
	case err == nil:
		inst.Review = &review
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to read review: %w", err)
	}
	return nil
}

// ParseAt parses an RFC 3339 instant or a "YYYY-MM-DD HH:MM" wall time in loc.
// The empty string means now.
func (c *Context) ParseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return c.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(c.Location()), nil
	}
	layouts := []string{
		constants.DateFormat + " " + constants.TimeFormat,
		constants.DateFormat + "T" + constants.TimeFormat,
		constants.DateFormat,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, c.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC 3339 or YYYY-MM-DD HH:MM)", s)
}

// FormatWindow renders a window in its own timezone.
func FormatWindow(w models.ScheduleWindow) string {
	const layout = "Mon 2006-01-02 15:04 MST"
	return fmt.Sprintf("%s → %s", w.Open.Format(layout), w.Close.Format(layout))
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
