package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/checkin/internal/models"
)

type fileState struct {
	Version     int                          `json:"version"`
	Drafts      map[string]json.RawMessage   `json:"drafts"`
	Submissions map[string]models.Submission `json:"submissions"`
	Reviews     map[string]models.Review     `json:"reviews"`
}

var _ Provider = (*JSONStore)(nil)

// JSONStore keeps all state in a single JSON file, rewritten on every change.
type JSONStore struct {
	mu    sync.Mutex
	path  string
	state *fileState
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.state = &fileState{Version: 1}
	s.state.ensureMaps()

	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage not initialized, run 'checkin init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	state := &fileState{}
	if err := json.Unmarshal(data, state); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	state.ensureMaps()
	s.state = state

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (f *fileState) ensureMaps() {
	if f.Drafts == nil {
		f.Drafts = make(map[string]json.RawMessage)
	}
	if f.Submissions == nil {
		f.Submissions = make(map[string]models.Submission)
	}
	if f.Reviews == nil {
		f.Reviews = make(map[string]models.Review)
	}
}

// save writes to a temp file and renames it over the old one.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

func (s *JSONStore) GetDraft(ownerKey string) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return models.Draft{}, ErrNotLoaded
	}
	data, ok := s.state.Drafts[DraftKey(ownerKey)]
	if !ok {
		return models.Draft{}, fmt.Errorf("draft %s: %w", ownerKey, ErrNotFound)
	}
	return DecodeDraft(ownerKey, data)
}

func (s *JSONStore) SaveDraft(d models.Draft) error {
	data, err := EncodeDraft(d)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return ErrNotLoaded
	}
	s.state.Drafts[DraftKey(d.OwnerKey)] = data
	return s.save()
}

func (s *JSONStore) DeleteDraft(ownerKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return ErrNotLoaded
	}
	key := DraftKey(ownerKey)
	if _, ok := s.state.Drafts[key]; !ok {
		return nil
	}
	delete(s.state.Drafts, key)
	return s.save()
}

func (s *JSONStore) AddSubmission(sub models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return ErrNotLoaded
	}
	if _, ok := s.state.Submissions[sub.InstanceID]; ok {
		return fmt.Errorf("submission for instance %s: %w", sub.InstanceID, ErrAlreadyExists)
	}
	sub.Payload = sub.Payload.Clone()
	s.state.Submissions[sub.InstanceID] = sub
	return s.save()
}

func (s *JSONStore) GetSubmission(instanceID string) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return models.Submission{}, ErrNotLoaded
	}
	sub, ok := s.state.Submissions[instanceID]
	if !ok {
		return models.Submission{}, fmt.Errorf("submission for instance %s: %w", instanceID, ErrNotFound)
	}
	sub.Payload = sub.Payload.Clone()
	return sub, nil
}

func (s *JSONStore) AddReview(r models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return ErrNotLoaded
	}
	if _, ok := s.state.Submissions[r.InstanceID]; !ok {
		return fmt.Errorf("submission for instance %s: %w", r.InstanceID, ErrNotFound)
	}
	if _, ok := s.state.Reviews[r.InstanceID]; ok {
		return fmt.Errorf("review for instance %s: %w", r.InstanceID, ErrAlreadyExists)
	}
	s.state.Reviews[r.InstanceID] = r
	return s.save()
}

func (s *JSONStore) GetReview(instanceID string) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return models.Review{}, ErrNotLoaded
	}
	r, ok := s.state.Reviews[instanceID]
	if !ok {
		return models.Review{}, fmt.Errorf("review for instance %s: %w", instanceID, ErrNotFound)
	}
	return r, nil
}

// GetConfigPath returns the path to the underlying storage file.
//
// Running multiple checkin processes that share the same file at the same time is not
// supported and may lose writes.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
