package checkins

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/scheduler"
	"github.com/julianstephens/checkin/internal/session"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/tracker"
	"github.com/julianstephens/checkin/internal/tui"
)

const weeklyTemplate = `{
  "id": "weekly",
  "schedule": {
    "frequency": "weekly",
    "open_window": {"kind": "specific_day", "day": "monday", "time": "09:00"},
    "close_window": {"kind": "specific_day", "day": "tuesday", "time": "17:00"},
    "timezone": "UTC"
  },
  "seed": {"goals": [{"id": "g1", "name": "Run 3x"}]}
}`

func setup(t *testing.T, now time.Time) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weekly.json")
	if err := os.WriteFile(path, []byte(weeklyTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	calc := scheduler.NewInLocation(time.UTC)
	out := &bytes.Buffer{}
	return &cli.Context{
		Store:      storage.NewMemoryStore(),
		Calculator: calc,
		Tracker:    tracker.New(calc, 0),
		ConfigDir:  t.TempDir(),
		Clock:      debounce.NewFakeClock(now),
		Out:        out,
	}, out, path
}

func stubForm(t *testing.T, fn func(*session.Session) (tui.Outcome, error)) {
	t.Helper()
	old := runForm
	runForm = fn
	t.Cleanup(func() { runForm = old })
}

func TestFillCmd_Submit(t *testing.T) {
	ctx, out, path := setup(t, time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC))
	var instanceID string
	stubForm(t, func(s *session.Session) (tui.Outcome, error) {
		instanceID = s.Instance().ID
		if len(s.Payload().Goals) != 1 {
			t.Errorf("Expected the template seed, got %+v", s.Payload())
		}
		if err := s.SetMetric("mood", 4); err != nil {
			return tui.OutcomeSaved, err
		}
		if err := s.Submit(context.Background()); err != nil {
			return tui.OutcomeSaved, err
		}
		return tui.OutcomeSubmitted, nil
	})

	if err := (&FillCmd{File: path, Client: "client-1"}).Run(ctx); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	if !strings.Contains(out.String(), "submitted") {
		t.Errorf("unexpected output %q", out.String())
	}

	sub, err := ctx.Store.GetSubmission(instanceID)
	if err != nil {
		t.Fatalf("Expected submission stored, got %v", err)
	}
	if sub.OwnerKey != "client-1:weekly" || sub.Payload.Metrics["mood"] != 4 {
		t.Errorf("unexpected submission %+v", sub)
	}
	if _, err := os.Stat(filepath.Join(ctx.ConfigDir, "locks", "client-1_weekly.lock")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected the lock released, got %v", err)
	}
}

func TestFillCmd_LeaveKeepsDraft(t *testing.T) {
	ctx, _, path := setup(t, time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC))
	stubForm(t, func(s *session.Session) (tui.Outcome, error) {
		if err := s.SetNotes("later"); err != nil {
			return tui.OutcomeSaved, err
		}
		return tui.OutcomeSaved, s.Flush()
	})

	if err := (&FillCmd{File: path, Client: "client-1"}).Run(ctx); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	d, err := ctx.Store.GetDraft("client-1:weekly")
	if err != nil {
		t.Fatalf("Expected draft kept, got %v", err)
	}
	if d.Payload.Notes != "later" {
		t.Errorf("notes = %q", d.Payload.Notes)
	}
}

func TestFillCmd_NotOpen(t *testing.T) {
	ctx, _, path := setup(t, time.Date(2024, 3, 18, 8, 0, 0, 0, time.UTC))
	stubForm(t, func(*session.Session) (tui.Outcome, error) {
		t.Error("form must not open for an upcoming instance")
		return tui.OutcomeSaved, nil
	})

	err := (&FillCmd{File: path, Client: "client-1"}).Run(ctx)
	if !errors.Is(err, session.ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen, got %v", err)
	}
}

func TestDraftCommands(t *testing.T) {
	ctx, out, _ := setup(t, time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC))

	if err := (&DraftShowCmd{Owner: "c:t"}).Run(ctx); err == nil {
		t.Error("Expected missing draft to be reported")
	}

	d := models.Draft{
		OwnerKey:    "c:t",
		Payload:     models.Payload{Metrics: map[string]float64{"energy": 9}},
		LastSavedAt: ctx.Now(),
	}
	if err := ctx.Store.SaveDraft(d); err != nil {
		t.Fatal(err)
	}
	if err := (&DraftShowCmd{Owner: "c:t"}).Run(ctx); err != nil {
		t.Fatalf("draft show failed: %v", err)
	}
	if !strings.Contains(out.String(), "energy must be between 1 and 5") {
		t.Errorf("Expected validation report, got %q", out.String())
	}

	out.Reset()
	if err := (&DraftShowCmd{Owner: "c:t", JSON: true}).Run(ctx); err != nil {
		t.Fatalf("draft show --json failed: %v", err)
	}
	if !strings.Contains(out.String(), `"energy": 9`) {
		t.Errorf("Expected JSON payload, got %q", out.String())
	}

	if err := (&DraftClearCmd{Owner: "c:t"}).Run(ctx); err != nil {
		t.Fatalf("draft clear failed: %v", err)
	}
	if _, err := ctx.Store.GetDraft("c:t"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected draft cleared, got %v", err)
	}
}

func TestReviewAddCmd(t *testing.T) {
	ctx, _, _ := setup(t, time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC))

	if err := (&ReviewAddCmd{Instance: "inst-1", Reviewer: "coach"}).Run(ctx); err == nil {
		t.Error("Expected review without submission to fail")
	}

	if err := ctx.Store.AddSubmission(models.Submission{InstanceID: "inst-1", SubmittedAt: ctx.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := (&ReviewAddCmd{Instance: "inst-1", Reviewer: "coach", Notes: "great week"}).Run(ctx); err != nil {
		t.Fatalf("review add failed: %v", err)
	}
	r, err := ctx.Store.GetReview("inst-1")
	if err != nil || r.Notes != "great week" || !r.ReviewedAt.Equal(ctx.Now()) {
		t.Errorf("unexpected review %+v, %v", r, err)
	}

	if err := (&ReviewAddCmd{Instance: "inst-1", Reviewer: "coach"}).Run(ctx); err == nil {
		t.Error("Expected a second review to fail")
	}
}
