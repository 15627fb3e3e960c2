package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/checkin/internal/collection"
	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/draft"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/scheduler"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/tracker"
	"github.com/julianstephens/checkin/internal/validation"
)

var (
	windowOpen  = time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	windowClose = time.Date(2024, 3, 19, 17, 0, 0, 0, time.UTC)
	instance    = models.Instance{
		ID:         "inst-1",
		TemplateID: "weekly",
		ClientID:   "client-1",
		Window:     models.ScheduleWindow{Open: windowOpen, Close: windowClose},
	}
)

type failingSubmitter struct {
	err   error
	calls int
}

func (f *failingSubmitter) Submit(ctx context.Context, inst models.Instance, p models.Payload) error {
	f.calls++
	return f.err
}

type fixture struct {
	clock  *debounce.FakeClock
	store  *storage.MemoryStore
	drafts *draft.Store
	deps   Deps
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	clock := debounce.NewFakeClock(now)
	store := storage.NewMemoryStore()
	drafts := draft.New(store, draft.Options{Clock: clock, Location: time.UTC})
	t.Cleanup(drafts.Close)
	return &fixture{
		clock:  clock,
		store:  store,
		drafts: drafts,
		deps: Deps{
			Tracker:   tracker.New(scheduler.NewInLocation(time.UTC), 0),
			Drafts:    drafts,
			Submitter: &StoreSubmitter{Store: store, Clock: clock},
			Clock:     clock,
		},
	}
}

func (f *fixture) open(t *testing.T, initial models.Payload) *Session {
	t.Helper()
	s, err := Open(f.deps, instance, initial)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestOpenRefusesWhenNotOpen(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{name: "upcoming", now: windowOpen.Add(-time.Minute)},
		{name: "missed", now: windowClose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now)
			if _, err := Open(f.deps, instance, models.Payload{}); !errors.Is(err, ErrNotOpen) {
				t.Errorf("Expected ErrNotOpen, got %v", err)
			}
		})
	}
}

func TestOpenAllowsLateSubmissionWithinGrace(t *testing.T) {
	f := newFixture(t, windowClose.Add(30*time.Minute))
	f.deps.Tracker = tracker.New(scheduler.NewInLocation(time.UTC), time.Hour)
	if _, err := Open(f.deps, instance, models.Payload{}); err != nil {
		t.Errorf("Expected late submission within grace, got %v", err)
	}
}

func TestOpenRestoresSameDayDraft(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))

	first := f.open(t, models.Payload{})
	if first.Restored() {
		t.Error("Expected a fresh payload on first open")
	}
	if err := first.SetNotes("halfway"); err != nil {
		t.Fatalf("SetNotes failed: %v", err)
	}
	f.clock.Advance(time.Second)
	first.Close()

	second := f.open(t, models.Payload{Notes: "seed"})
	if !second.Restored() || second.Payload().Notes != "halfway" {
		t.Errorf("Expected restored draft, got restored=%v notes=%q", second.Restored(), second.Payload().Notes)
	}
}

func TestEditsAutosaveAndValidate(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{})

	if _, err := s.AddGoal(models.Goal{ID: "g1", Name: "Run", Status: constants.GoalInProgress}); err != nil {
		t.Fatalf("AddGoal failed: %v", err)
	}
	if s.SaveStatus() != constants.SaveStatusPending {
		t.Errorf("Expected pending save, got %s", s.SaveStatus())
	}

	f.clock.Advance(constants.DefaultValidationDelay)
	errs := s.ItemErrors("g1")
	if len(errs) != 1 || errs[0].Message != "needs progress notes" {
		t.Fatalf("Expected progress notes error, got %v", errs)
	}

	err := s.UpdateGoal("g1", func(g models.Goal) models.Goal {
		g.Notes = "two runs"
		return g
	})
	if err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}
	f.clock.Advance(time.Second)

	if s.Errors().HasErrors() {
		t.Errorf("Expected errors cleared, got %v", s.Errors())
	}
	if s.SaveStatus() != constants.SaveStatusSaved {
		t.Errorf("Expected saved status, got %s", s.SaveStatus())
	}
	d, err := f.store.GetDraft(s.OwnerKey())
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if d.Payload.Goals[0].Notes != "two runs" {
		t.Errorf("Expected latest edit persisted, got %+v", d.Payload.Goals)
	}
}

func TestItemErrorsSurviveReorder(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{Goals: []models.Goal{
		{ID: "g1", Name: "ok"},
		{ID: "g2"},
		{ID: "g3", Name: "ok"},
	}})

	if err := s.SetNotes("touch"); err != nil {
		t.Fatalf("SetNotes failed: %v", err)
	}
	if err := s.MoveGoal("g2", 0); err != nil {
		t.Fatalf("MoveGoal failed: %v", err)
	}
	f.clock.Advance(time.Second)

	if got := collection.IDs(s.Payload().Goals); got[0] != "g2" || got[1] != "g1" || got[2] != "g3" {
		t.Errorf("Expected [g2 g1 g3], got %v", got)
	}
	if errs := s.ItemErrors("g2"); len(errs) != 1 || errs[0].Field != "name" {
		t.Errorf("Expected name error to stay on g2, got %v", errs)
	}
	if errs := s.ItemErrors("g1"); len(errs) != 0 {
		t.Errorf("Expected no errors on g1, got %v", errs)
	}
}

func TestRejectedEditLeavesPayloadUnchanged(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{Goals: []models.Goal{{ID: "g1", Name: "a"}, {ID: "g2", Name: "b"}}})

	if err := s.MoveGoal("g1", 5); !errors.Is(err, collection.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := s.AddGoal(models.Goal{ID: "g2", Name: "dup"}); !errors.Is(err, collection.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
	if err := s.RemoveAchievement("nope"); !errors.Is(err, collection.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if got := collection.IDs(s.Payload().Goals); len(got) != 2 || got[0] != "g1" || got[1] != "g2" {
		t.Errorf("Expected goals unchanged, got %v", got)
	}
	if s.SaveStatus() != constants.SaveStatusSaved {
		t.Errorf("Expected rejected edits not to schedule a save, got %s", s.SaveStatus())
	}
}

func TestAddGeneratesIDs(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{})

	ids := make([]string, 0, 3)
	id, err := s.AddGoal(models.Goal{Name: "a"})
	ids = append(ids, id)
	if err != nil {
		t.Fatalf("AddGoal failed: %v", err)
	}
	id, err = s.AddAchievement(models.Achievement{Title: "b"})
	ids = append(ids, id)
	if err != nil {
		t.Fatalf("AddAchievement failed: %v", err)
	}
	id, err = s.AddChallenge(models.Challenge{Title: "c"})
	ids = append(ids, id)
	if err != nil {
		t.Fatalf("AddChallenge failed: %v", err)
	}

	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("Expected a UUID, got %q", id)
		}
	}
	p := s.Payload()
	if p.Goals[0].ID != ids[0] || p.Achievements[0].ID != ids[1] || p.Challenges[0].ID != ids[2] {
		t.Errorf("Expected payload ids to match returned ids, got %+v", p)
	}
}

func TestCollectionEditsAcrossGroups(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{
		Achievements: []models.Achievement{{ID: "a1", Title: "one"}, {ID: "a2", Title: "two"}},
		Challenges:   []models.Challenge{{ID: "c1", Title: "one"}},
		Questions:    []models.Question{{ID: "q1", Type: constants.QuestionYesNo, Required: true}},
	})

	if err := s.MoveAchievement("a2", 0); err != nil {
		t.Fatalf("MoveAchievement failed: %v", err)
	}
	if err := s.UpdateChallenge("c1", func(c models.Challenge) models.Challenge {
		c.Description = "travel"
		return c
	}); err != nil {
		t.Fatalf("UpdateChallenge failed: %v", err)
	}
	if err := s.RemoveChallenge("c1"); err != nil {
		t.Fatalf("RemoveChallenge failed: %v", err)
	}
	yes := true
	if err := s.AnswerQuestion("q1", models.Answer{Bool: &yes}); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if err := s.SetMetric("mood", 4); err != nil {
		t.Fatalf("SetMetric failed: %v", err)
	}
	if err := s.ClearMetric("mood"); err != nil {
		t.Fatalf("ClearMetric failed: %v", err)
	}

	p := s.Payload()
	if got := collection.IDs(p.Achievements); got[0] != "a2" || got[1] != "a1" {
		t.Errorf("Expected [a2 a1], got %v", got)
	}
	if len(p.Challenges) != 0 {
		t.Errorf("Expected challenges empty, got %v", p.Challenges)
	}
	if p.Questions[0].Answer.Bool == nil || !*p.Questions[0].Answer.Bool {
		t.Errorf("Expected answered question, got %+v", p.Questions[0])
	}
	if _, ok := p.Metrics["mood"]; ok {
		t.Error("Expected mood cleared")
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	sub := &failingSubmitter{}
	f.deps.Submitter = sub
	s := f.open(t, models.Payload{
		Metrics:   map[string]float64{"energy": 9},
		Goals:     []models.Goal{{ID: "g1", Name: "Run", Status: constants.GoalInProgress}},
		Questions: []models.Question{{ID: "q1", Type: constants.QuestionText, Required: true}},
	})

	err := s.Submit(context.Background())
	var vErr *ValidationFailedError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected *ValidationFailedError, got %v", err)
	}
	for _, g := range []validation.Group{validation.GroupMetrics, validation.GroupGoals, validation.GroupQuestions} {
		if len(vErr.Result[g]) == 0 {
			t.Errorf("Expected errors reported for %s", g)
		}
	}
	if sub.calls != 0 {
		t.Errorf("Expected submitter not to be called, got %d calls", sub.calls)
	}
	if !s.Errors().HasErrors() {
		t.Error("Expected the aggregate result to be visible through Errors")
	}
	if err := s.SetNotes("still editable"); err != nil {
		t.Errorf("Expected session to stay open, got %v", err)
	}
}

func TestSubmitFailureRetainsDraft(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	sub := &failingSubmitter{err: errors.New("network down")}
	f.deps.Submitter = sub
	s := f.open(t, models.Payload{})

	if err := s.SetNotes("important"); err != nil {
		t.Fatalf("SetNotes failed: %v", err)
	}

	err := s.Submit(context.Background())
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("Expected *SubmissionError, got %v", err)
	}
	if !subErr.Retryable {
		t.Error("Expected a network failure to be retryable")
	}

	d, err := f.store.GetDraft(s.OwnerKey())
	if err != nil {
		t.Fatalf("Expected draft retained, got %v", err)
	}
	if d.Payload.Notes != "important" {
		t.Errorf("Expected retained notes, got %q", d.Payload.Notes)
	}

	sub.err = nil
	if err := s.Submit(context.Background()); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
	if sub.calls != 2 {
		t.Errorf("Expected two submit attempts, got %d", sub.calls)
	}
}

func TestSubmitSuccess(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{})

	if err := s.SetMetric("sleep_hours", 7); err != nil {
		t.Fatalf("SetMetric failed: %v", err)
	}
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got, err := f.store.GetSubmission(instance.ID)
	if err != nil {
		t.Fatalf("Expected submission stored, got %v", err)
	}
	if got.Payload.Metrics["sleep_hours"] != 7 || !got.SubmittedAt.Equal(f.clock.Now()) {
		t.Errorf("Unexpected submission: %+v", got)
	}
	if _, err := f.store.GetDraft(s.OwnerKey()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected draft cleared, got %v", err)
	}

	f.clock.Advance(5 * time.Second)
	if _, err := f.store.GetDraft(s.OwnerKey()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no autosave after submit, got %v", err)
	}
	if err := s.SetNotes("late edit"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after submit, got %v", err)
	}
	if err := s.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed on second submit, got %v", err)
	}
}

func TestResubmitIsNotRetryable(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	if err := f.store.AddSubmission(models.Submission{InstanceID: instance.ID, SubmittedAt: f.clock.Now()}); err != nil {
		t.Fatalf("AddSubmission failed: %v", err)
	}

	// the tracker only sees records attached to the instance, so opening still succeeds
	s := f.open(t, models.Payload{})
	err := s.Submit(context.Background())
	var subErr *SubmissionError
	if !errors.As(err, &subErr) || subErr.Retryable {
		t.Errorf("Expected non-retryable SubmissionError, got %v", err)
	}
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("Expected the cause to be ErrAlreadyExists, got %v", err)
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{})

	if err := s.SetNotes("pending"); err != nil {
		t.Fatalf("SetNotes failed: %v", err)
	}
	if f.clock.PendingTimers() == 0 {
		t.Fatal("Expected armed timers after an edit")
	}

	s.Close()
	if f.clock.PendingTimers() != 0 {
		t.Errorf("Expected no timers after close, got %d", f.clock.PendingTimers())
	}
	if err := s.SetNotes("after"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestFlush(t *testing.T) {
	f := newFixture(t, windowOpen.Add(time.Hour))
	s := f.open(t, models.Payload{})

	if err := s.SetNotes("now"); err != nil {
		t.Fatalf("SetNotes failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if _, err := f.store.GetDraft(s.OwnerKey()); err != nil {
		t.Errorf("Expected draft written by flush, got %v", err)
	}
	if f.clock.PendingTimers() != 0 {
		t.Errorf("Expected no timers after flush, got %d", f.clock.PendingTimers())
	}
}
