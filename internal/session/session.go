// Package session runs the client side of one check-in: it gates opening on the instance
// status, restores the draft, applies edits, autosaves, validates as the client types and
// hands the final payload to a Submitter.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/checkin/internal/collection"
	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/draft"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/tracker"
	"github.com/julianstephens/checkin/internal/validation"
)

// Deps are the collaborators of a Session.
type Deps struct {
	Tracker         *tracker.Tracker
	Drafts          *draft.Store
	Engine          *validation.Engine
	Submitter       Submitter
	Clock           debounce.Clock
	ValidationDelay time.Duration
}

// Session is the editable state of one instance's form. It is safe for concurrent use.
type Session struct {
	deps      Deps
	inst      models.Instance
	ownerKey  string
	restored  bool
	validator *validation.Incremental

	submitMu sync.Mutex // one Submit at a time

	mu      sync.Mutex
	payload models.Payload
	closed  bool
}

// Open starts a session for inst. It fails with ErrNotOpen unless the tracker accepts a
// submission now. The payload is the same-day draft if there is one, else initial.
func Open(deps Deps, inst models.Instance, initial models.Payload) (*Session, error) {
	if deps.Clock == nil {
		deps.Clock = debounce.RealClock{}
	}
	if deps.Engine == nil {
		deps.Engine = validation.New()
	}
	if deps.ValidationDelay <= 0 {
		deps.ValidationDelay = constants.DefaultValidationDelay
	}
	if deps.Tracker == nil || deps.Drafts == nil || deps.Submitter == nil {
		return nil, errors.New("session: tracker, drafts and submitter are required")
	}

	now := deps.Clock.Now()
	if !deps.Tracker.AcceptsSubmission(inst, now) {
		view := tracker.Derive(inst, now)
		return nil, fmt.Errorf("%w: instance is %s", ErrNotOpen, view.Status)
	}

	ownerKey := models.OwnerKey(inst.ClientID, inst.TemplateID)
	payload, restored := deps.Drafts.Load(ownerKey, initial)

	s := &Session{
		deps:     deps,
		inst:     inst,
		ownerKey: ownerKey,
		restored: restored,
		payload:  payload,
	}
	s.validator = validation.NewIncremental(deps.Engine, deps.Clock, deps.ValidationDelay, s.Payload)

	logger.Info("Opened check-in session", "instance", inst.ID, "owner", ownerKey, "restored", restored)
	return s, nil
}

// Instance returns the instance being filled.
func (s *Session) Instance() models.Instance { return s.inst }

// OwnerKey returns the draft owner key.
func (s *Session) OwnerKey() string { return s.ownerKey }

// Restored reports whether the session resumed a same-day draft.
func (s *Session) Restored() bool { return s.restored }

// Payload returns a copy of the current form state.
func (s *Session) Payload() models.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload.Clone()
}

// Errors returns the current validation errors by group.
func (s *Session) Errors() validation.Result {
	return s.validator.Result()
}

// ItemErrors returns the validation errors of one goal, achievement, challenge or question.
func (s *Session) ItemErrors(id string) []validation.FieldError {
	return s.validator.Result().ErrorsFor(id)
}

// OnErrors registers fn to receive the validation result after every incremental run.
func (s *Session) OnErrors(fn func(validation.Result)) {
	s.validator.OnChange(fn)
}

// SaveStatus returns the autosave status of the draft.
func (s *Session) SaveStatus() constants.SaveStatus {
	return s.deps.Drafts.Status(s.ownerKey)
}

// edit applies fn to the payload under the session lock, then re-arms autosave and
// validation for group.
func (s *Session) edit(group validation.Group, fn func(p *models.Payload) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := fn(&s.payload); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.payload.Clone()
	s.mu.Unlock()

	s.deps.Drafts.Save(s.ownerKey, snapshot)
	s.validator.Touch(group)
	return nil
}

// SetMetric sets a numeric metric such as sleep_hours or mood.
func (s *Session) SetMetric(key string, value float64) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("metric name is required")
	}
	return s.edit(validation.GroupMetrics, func(p *models.Payload) error {
		p.Metrics[key] = value
		return nil
	})
}

// ClearMetric removes a metric.
func (s *Session) ClearMetric(key string) error {
	return s.edit(validation.GroupMetrics, func(p *models.Payload) error {
		delete(p.Metrics, key)
		return nil
	})
}

// SetNotes sets the free-text notes of the check-in.
func (s *Session) SetNotes(text string) error {
	return s.edit(validation.GroupNotes, func(p *models.Payload) error {
		p.Notes = text
		return nil
	})
}

func newItemID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// AddGoal appends g and returns its id, generating one when g.ID is empty.
func (s *Session) AddGoal(g models.Goal) (string, error) {
	g.ID = newItemID(g.ID)
	return g.ID, s.edit(validation.GroupGoals, func(p *models.Payload) (err error) {
		p.Goals, err = keep(p.Goals)(collection.Append(p.Goals, g))
		return err
	})
}

// UpdateGoal replaces the goal with the given id by fn(goal).
func (s *Session) UpdateGoal(id string, fn func(models.Goal) models.Goal) error {
	return s.edit(validation.GroupGoals, func(p *models.Payload) (err error) {
		p.Goals, err = keep(p.Goals)(collection.UpdateByID(p.Goals, id, fn))
		return err
	})
}

// RemoveGoal deletes the goal with the given id.
func (s *Session) RemoveGoal(id string) error {
	return s.edit(validation.GroupGoals, func(p *models.Payload) (err error) {
		p.Goals, err = keep(p.Goals)(collection.RemoveByID(p.Goals, id))
		return err
	})
}

// MoveGoal moves the goal with the given id to newIndex.
func (s *Session) MoveGoal(id string, newIndex int) error {
	return s.edit(validation.GroupGoals, func(p *models.Payload) (err error) {
		p.Goals, err = keep(p.Goals)(collection.MoveTo(p.Goals, id, newIndex))
		return err
	})
}

// AddAchievement appends a and returns its id, generating one when a.ID is empty.
func (s *Session) AddAchievement(a models.Achievement) (string, error) {
	a.ID = newItemID(a.ID)
	return a.ID, s.edit(validation.GroupAchievements, func(p *models.Payload) (err error) {
		p.Achievements, err = keep(p.Achievements)(collection.Append(p.Achievements, a))
		return err
	})
}

func (s *Session) UpdateAchievement(id string, fn func(models.Achievement) models.Achievement) error {
	return s.edit(validation.GroupAchievements, func(p *models.Payload) (err error) {
		p.Achievements, err = keep(p.Achievements)(collection.UpdateByID(p.Achievements, id, fn))
		return err
	})
}

func (s *Session) RemoveAchievement(id string) error {
	return s.edit(validation.GroupAchievements, func(p *models.Payload) (err error) {
		p.Achievements, err = keep(p.Achievements)(collection.RemoveByID(p.Achievements, id))
		return err
	})
}

func (s *Session) MoveAchievement(id string, newIndex int) error {
	return s.edit(validation.GroupAchievements, func(p *models.Payload) (err error) {
		p.Achievements, err = keep(p.Achievements)(collection.MoveTo(p.Achievements, id, newIndex))
		return err
	})
}

// AddChallenge appends c and returns its id, generating one when c.ID is empty.
func (s *Session) AddChallenge(c models.Challenge) (string, error) {
	c.ID = newItemID(c.ID)
	return c.ID, s.edit(validation.GroupChallenges, func(p *models.Payload) (err error) {
		p.Challenges, err = keep(p.Challenges)(collection.Append(p.Challenges, c))
		return err
	})
}

func (s *Session) UpdateChallenge(id string, fn func(models.Challenge) models.Challenge) error {
	return s.edit(validation.GroupChallenges, func(p *models.Payload) (err error) {
		p.Challenges, err = keep(p.Challenges)(collection.UpdateByID(p.Challenges, id, fn))
		return err
	})
}

func (s *Session) RemoveChallenge(id string) error {
	return s.edit(validation.GroupChallenges, func(p *models.Payload) (err error) {
		p.Challenges, err = keep(p.Challenges)(collection.RemoveByID(p.Challenges, id))
		return err
	})
}

func (s *Session) MoveChallenge(id string, newIndex int) error {
	return s.edit(validation.GroupChallenges, func(p *models.Payload) (err error) {
		p.Challenges, err = keep(p.Challenges)(collection.MoveTo(p.Challenges, id, newIndex))
		return err
	})
}

// AnswerQuestion records the answer to the question with the given id.
func (s *Session) AnswerQuestion(id string, answer models.Answer) error {
	return s.edit(validation.GroupQuestions, func(p *models.Payload) (err error) {
		p.Questions, err = keep(p.Questions)(collection.UpdateByID(p.Questions, id, func(q models.Question) models.Question {
			q.Answer = answer
			return q
		}))
		return err
	})
}

// keep returns a function that yields old instead of a failed operation's nil slice, so a
// rejected edit leaves the list unchanged.
func keep[T any](old []T) func([]T, error) ([]T, error) {
	return func(list []T, err error) ([]T, error) {
		if err != nil {
			return old, err
		}
		return list, nil
	}
}

// Flush runs pending validation and writes the pending draft now.
func (s *Session) Flush() error {
	s.validator.Flush()
	return s.deps.Drafts.Flush(s.ownerKey)
}

// Submit validates the whole payload and hands it to the Submitter. It returns a
// *ValidationFailedError when any group has errors and a *SubmissionError when delivery
// fails; in both cases the draft is kept. On success the draft is cleared and the session
// closes.
func (s *Session) Submit(ctx context.Context) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	snapshot := s.payload.Clone()
	s.mu.Unlock()

	s.validator.Cancel()
	result := s.deps.Engine.ValidateAll(snapshot)
	s.validator.Replace(result)
	if result.HasErrors() {
		logger.Debug("Submit blocked by validation", "instance", s.inst.ID, "errors", result.Count())
		return &ValidationFailedError{Result: result}
	}

	if err := s.deps.Submitter.Submit(ctx, s.inst, snapshot); err != nil {
		logger.Error("Submission failed", "instance", s.inst.ID, "error", err)
		s.deps.Drafts.Save(s.ownerKey, snapshot)
		if ferr := s.deps.Drafts.Flush(s.ownerKey); ferr != nil {
			logger.Warn("Draft kept in memory only", "owner", s.ownerKey, "error", ferr)
		}
		return &SubmissionError{Err: err, Retryable: retryable(err)}
	}

	if err := s.deps.Drafts.Clear(s.ownerKey); err != nil {
		logger.Warn("Submitted, but the draft could not be cleared", "owner", s.ownerKey, "error", err)
	}
	s.Close()

	logger.Info("Submitted check-in", "instance", s.inst.ID)
	return nil
}

// retryable is false once the instance already has a submission.
func retryable(err error) bool {
	return !errors.Is(err, storage.ErrAlreadyExists)
}

// Close ends the session and cancels its validation and autosave timers without writing.
// The unsaved payload stays with the draft store.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.validator.Cancel()
	s.deps.Drafts.Cancel(s.ownerKey)
}
