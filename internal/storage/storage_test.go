package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.RunProviderTests(t, func(t *testing.T) storage.Provider {
		return storage.NewMemoryStore()
	})
}

func TestJSONStore(t *testing.T) {
	storagetest.RunProviderTests(t, func(t *testing.T) storage.Provider {
		s := storage.NewJSONStore(filepath.Join(t.TempDir(), "checkin.json"))
		if err := s.Init(); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		return s
	})
}

func TestJSONStore_PersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkin.json")
	s := storage.NewJSONStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := s.Init(); err == nil {
		t.Error("Expected second Init to refuse an existing file")
	}

	savedAt := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	if err := s.SaveDraft(models.Draft{OwnerKey: "c:t", Payload: storagetest.SamplePayload(), LastSavedAt: savedAt}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), `"draft:c:t"`) || !strings.Contains(string(raw), `"last_saved_at"`) {
		t.Errorf("Expected draft stored under its key, got:\n%s", raw)
	}

	reloaded := storage.NewJSONStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d, err := reloaded.GetDraft("c:t")
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if !d.LastSavedAt.Equal(savedAt) {
		t.Errorf("Expected %v, got %v", savedAt, d.LastSavedAt)
	}
}

func TestJSONStore_NotLoaded(t *testing.T) {
	s := storage.NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	if err := s.Load(); err == nil || !strings.Contains(err.Error(), "checkin init") {
		t.Errorf("Expected init hint, got %v", err)
	}
	if err := s.SaveDraft(models.Draft{OwnerKey: "x"}); err != storage.ErrNotLoaded {
		t.Errorf("Expected ErrNotLoaded, got %v", err)
	}
}

func TestDraftRecordFormat(t *testing.T) {
	savedAt := time.Date(2024, 3, 18, 23, 59, 59, 0, time.UTC)
	data, err := storage.EncodeDraft(models.Draft{OwnerKey: "o", Payload: models.Payload{Notes: "n"}, LastSavedAt: savedAt})
	if err != nil {
		t.Fatalf("EncodeDraft failed: %v", err)
	}
	if !strings.Contains(string(data), `"last_saved_at":"2024-03-18T23:59:59Z"`) {
		t.Errorf("Expected RFC 3339 timestamp, got %s", data)
	}

	if _, err := storage.DecodeDraft("o", []byte(`{"payload":{},"last_saved_at":"yesterday"}`)); err == nil {
		t.Error("Expected invalid timestamp to fail")
	}

	d, err := storage.DecodeDraft("o", []byte(`{"payload":null,"last_saved_at":"2024-03-18T10:00:00+01:00"}`))
	if err != nil {
		t.Fatalf("DecodeDraft failed: %v", err)
	}
	if d.Payload.Goals == nil || d.Payload.Metrics == nil {
		t.Error("Expected null payload to decode as empty collections")
	}
	if storage.DraftKey("o") != "draft:o" {
		t.Errorf("Unexpected key %q", storage.DraftKey("o"))
	}
}
