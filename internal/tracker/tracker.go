package tracker

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/scheduler"
)

// instanceNamespace scopes the name-based UUIDs of check-in instances.
var instanceNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("checkin.instance"))

// View is the derived, read-only state of an instance at a given instant.
type View struct {
	Status      constants.InstanceStatus
	Late        bool
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
}

// Derive computes an instance's status from its window, its records and now.
// Holding the records fixed, the result depends only on now.
func Derive(inst models.Instance, now time.Time) View {
	if inst.Submission != nil {
		submittedAt := inst.Submission.SubmittedAt
		view := View{
			Status:      constants.StatusSubmitted,
			Late:        submittedAt.After(inst.Window.Close),
			SubmittedAt: &submittedAt,
		}
		if inst.Review != nil {
			reviewedAt := inst.Review.ReviewedAt
			view.Status = constants.StatusReviewed
			view.ReviewedAt = &reviewedAt
		}
		return view
	}

	if inst.Review != nil {
		logger.Debug("Ignoring review without a submission", "instance", inst.ID)
	}

	switch {
	case now.Before(inst.Window.Open):
		return View{Status: constants.StatusUpcoming}
	case now.Before(inst.Window.Close):
		return View{Status: constants.StatusOpen}
	default:
		return View{Status: constants.StatusMissed}
	}
}

// Tracker builds instances from templates and decides whether they accept a submission.
type Tracker struct {
	calc *scheduler.Calculator
	// LateGrace lets a missed instance accept a (late) submission for this long after close.
	LateGrace time.Duration
}

// New creates a Tracker over the given calculator.
func New(calc *scheduler.Calculator, lateGrace time.Duration) *Tracker {
	return &Tracker{calc: calc, LateGrace: lateGrace}
}

// NewInstance returns the instance of tmpl for clientID whose window contains now, or the
// next one. The id is derived from template, client and open instant, so the same cycle
// always gets the same id.
func (t *Tracker) NewInstance(tmpl models.Template, clientID string, now time.Time) (models.Instance, error) {
	window, err := t.calc.ComputeWindow(tmpl.Schedule, now)
	if err != nil {
		return models.Instance{}, err
	}
	return models.Instance{
		ID:         InstanceID(tmpl.ID, clientID, window),
		TemplateID: tmpl.ID,
		ClientID:   clientID,
		Window:     window,
	}, nil
}

// InstanceID is the stable id of the cycle of template/client opening at window.Open.
func InstanceID(templateID, clientID string, window models.ScheduleWindow) string {
	name := templateID + "|" + clientID + "|" + window.Open.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

// AcceptsSubmission reports whether the form of inst may be opened and submitted at now.
// Open instances accept; missed ones accept only within the late grace period.
func (t *Tracker) AcceptsSubmission(inst models.Instance, now time.Time) bool {
	view := Derive(inst, now)
	switch view.Status {
	case constants.StatusOpen:
		return true
	case constants.StatusMissed:
		return t.LateGrace > 0 && now.Before(inst.Window.Close.Add(t.LateGrace))
	default:
		return false
	}
}
