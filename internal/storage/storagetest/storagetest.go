// Package storagetest holds the behavior every storage.Provider must share.
package storagetest

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
)

// RunProviderTests exercises drafts, submissions and reviews against fresh stores built by
// newStore. The store must already be initialized.
func RunProviderTests(t *testing.T, newStore func(t *testing.T) storage.Provider) {
	t.Helper()

	t.Run("DraftRoundTrip", func(t *testing.T) { testDraftRoundTrip(t, newStore(t)) })
	t.Run("DraftOverwrite", func(t *testing.T) { testDraftOverwrite(t, newStore(t)) })
	t.Run("DraftDelete", func(t *testing.T) { testDraftDelete(t, newStore(t)) })
	t.Run("DraftsAreScopedByOwner", func(t *testing.T) { testDraftsScoped(t, newStore(t)) })
	t.Run("Submissions", func(t *testing.T) { testSubmissions(t, newStore(t)) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, newStore(t)) })
}

// SamplePayload returns a payload touching every collection.
func SamplePayload() models.Payload {
	rating := 4.0
	return models.Payload{
		Metrics: map[string]float64{"sleep_hours": 7.5, "energy": 4},
		Goals: []models.Goal{
			{ID: "g1", Name: "Run 3x per week", Status: constants.GoalInProgress, Notes: "two runs so far"},
			{ID: "g2", Name: "Stretch daily"},
		},
		Achievements: []models.Achievement{{ID: "a1", Title: "First 10k"}},
		Challenges:   []models.Challenge{{ID: "c1", Title: "Travel week", Description: "hotel gym only"}},
		Questions: []models.Question{
			{ID: "q1", Type: constants.QuestionRating, Prompt: "How was your week?", Required: true, Answer: models.Answer{Number: &rating}},
		},
		Notes: "feeling good",
	}
}

func testDraftRoundTrip(t *testing.T, s storage.Provider) {
	savedAt := time.Date(2024, 3, 18, 23, 59, 59, 0, time.FixedZone("EST", -5*3600))
	want := models.Draft{OwnerKey: "client-1:weekly", Payload: SamplePayload(), LastSavedAt: savedAt}

	if err := s.SaveDraft(want); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	got, err := s.GetDraft("client-1:weekly")
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if got.OwnerKey != want.OwnerKey {
		t.Errorf("Expected owner %q, got %q", want.OwnerKey, got.OwnerKey)
	}
	if !got.LastSavedAt.Equal(savedAt) {
		t.Errorf("Expected last saved %v, got %v", savedAt, got.LastSavedAt)
	}
	if len(got.Payload.Goals) != 2 || got.Payload.Goals[0].ID != "g1" || got.Payload.Goals[1].ID != "g2" {
		t.Errorf("Expected goals in order [g1 g2], got %+v", got.Payload.Goals)
	}
	if got.Payload.Metrics["sleep_hours"] != 7.5 {
		t.Errorf("Expected sleep_hours 7.5, got %v", got.Payload.Metrics["sleep_hours"])
	}
	if got.Payload.Questions[0].Answer.Number == nil || *got.Payload.Questions[0].Answer.Number != 4 {
		t.Errorf("Expected question answer 4, got %+v", got.Payload.Questions[0].Answer)
	}
	if got.Payload.Notes != "feeling good" {
		t.Errorf("Expected notes to round-trip, got %q", got.Payload.Notes)
	}
}

func testDraftOverwrite(t *testing.T, s storage.Provider) {
	now := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)
	first := models.Draft{OwnerKey: "o", Payload: models.Payload{Notes: "first"}, LastSavedAt: now}
	second := models.Draft{OwnerKey: "o", Payload: models.Payload{Notes: "second"}, LastSavedAt: now.Add(time.Minute)}

	if err := s.SaveDraft(first); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if err := s.SaveDraft(second); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	got, err := s.GetDraft("o")
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if got.Payload.Notes != "second" || !got.LastSavedAt.Equal(second.LastSavedAt) {
		t.Errorf("Expected latest draft, got %+v", got)
	}
	if got.Payload.Goals == nil || got.Payload.Metrics == nil {
		t.Error("Expected absent collections to load as empty")
	}
}

func testDraftDelete(t *testing.T, s storage.Provider) {
	if _, err := s.GetDraft("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing draft, got %v", err)
	}
	if err := s.DeleteDraft("missing"); err != nil {
		t.Errorf("Expected deleting a missing draft to succeed, got %v", err)
	}

	d := models.Draft{OwnerKey: "o", Payload: SamplePayload(), LastSavedAt: time.Now()}
	if err := s.SaveDraft(d); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if err := s.DeleteDraft("o"); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	if _, err := s.GetDraft("o"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func testDraftsScoped(t *testing.T, s storage.Provider) {
	now := time.Now()
	if err := s.SaveDraft(models.Draft{OwnerKey: "a:t", Payload: models.Payload{Notes: "a"}, LastSavedAt: now}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if err := s.SaveDraft(models.Draft{OwnerKey: "b:t", Payload: models.Payload{Notes: "b"}, LastSavedAt: now}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if err := s.DeleteDraft("a:t"); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}

	got, err := s.GetDraft("b:t")
	if err != nil {
		t.Fatalf("Expected other owner's draft to survive, got %v", err)
	}
	if got.Payload.Notes != "b" {
		t.Errorf("Expected notes b, got %q", got.Payload.Notes)
	}
}

func testSubmissions(t *testing.T, s storage.Provider) {
	at := time.Date(2024, 3, 19, 12, 30, 0, 0, time.UTC)
	sub := models.Submission{InstanceID: "inst-1", OwnerKey: "client-1:weekly", Payload: SamplePayload(), SubmittedAt: at}

	if _, err := s.GetSubmission("inst-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound before submit, got %v", err)
	}
	if err := s.AddSubmission(sub); err != nil {
		t.Fatalf("AddSubmission failed: %v", err)
	}
	if err := s.AddSubmission(sub); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists on resubmit, got %v", err)
	}

	got, err := s.GetSubmission("inst-1")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}
	if got.OwnerKey != sub.OwnerKey || !got.SubmittedAt.Equal(at) {
		t.Errorf("Unexpected submission: %+v", got)
	}
	if len(got.Payload.Goals) != 2 || got.Payload.Notes != "feeling good" {
		t.Errorf("Expected payload to round-trip, got %+v", got.Payload)
	}
}

func testReviews(t *testing.T, s storage.Provider) {
	at := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	review := models.Review{InstanceID: "inst-1", Reviewer: "coach", Notes: "great week", ReviewedAt: at}

	if err := s.AddReview(review); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected review without submission to fail with ErrNotFound, got %v", err)
	}

	sub := models.Submission{InstanceID: "inst-1", OwnerKey: "o", Payload: SamplePayload(), SubmittedAt: at.Add(-time.Hour)}
	if err := s.AddSubmission(sub); err != nil {
		t.Fatalf("AddSubmission failed: %v", err)
	}
	if err := s.AddReview(review); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}
	if err := s.AddReview(review); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists on second review, got %v", err)
	}

	got, err := s.GetReview("inst-1")
	if err != nil {
		t.Fatalf("GetReview failed: %v", err)
	}
	if got.Reviewer != "coach" || got.Notes != "great week" || !got.ReviewedAt.Equal(at) {
		t.Errorf("Unexpected review: %+v", got)
	}
	if _, err := s.GetReview("other"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
