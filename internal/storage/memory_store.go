package storage

import (
	"fmt"
	"sync"

	"github.com/julianstephens/checkin/internal/models"
)

var _ Provider = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Values are stored encoded so callers
// never share state with the store.
type MemoryStore struct {
	mu          sync.Mutex
	drafts      map[string][]byte
	submissions map[string]models.Submission
	reviews     map[string]models.Review
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.drafts = make(map[string][]byte)
	s.submissions = make(map[string]models.Submission)
	s.reviews = make(map[string]models.Review)
}

func (s *MemoryStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetDraft(ownerKey string) (models.Draft, error) {
	s.mu.Lock()
	data, ok := s.drafts[DraftKey(ownerKey)]
	s.mu.Unlock()
	if !ok {
		return models.Draft{}, fmt.Errorf("draft %s: %w", ownerKey, ErrNotFound)
	}
	return DecodeDraft(ownerKey, data)
}

func (s *MemoryStore) SaveDraft(d models.Draft) error {
	data, err := EncodeDraft(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[DraftKey(d.OwnerKey)] = data
	return nil
}

func (s *MemoryStore) DeleteDraft(ownerKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, DraftKey(ownerKey))
	return nil
}

// Keys returns the storage keys of all drafts.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.drafts))
	for k := range s.drafts {
		keys = append(keys, k)
	}
	return keys
}

func (s *MemoryStore) AddSubmission(sub models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.InstanceID]; ok {
		return fmt.Errorf("submission for instance %s: %w", sub.InstanceID, ErrAlreadyExists)
	}
	sub.Payload = sub.Payload.Clone()
	s.submissions[sub.InstanceID] = sub
	return nil
}

func (s *MemoryStore) GetSubmission(instanceID string) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[instanceID]
	if !ok {
		return models.Submission{}, fmt.Errorf("submission for instance %s: %w", instanceID, ErrNotFound)
	}
	sub.Payload = sub.Payload.Clone()
	return sub, nil
}

func (s *MemoryStore) AddReview(r models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[r.InstanceID]; !ok {
		return fmt.Errorf("submission for instance %s: %w", r.InstanceID, ErrNotFound)
	}
	if _, ok := s.reviews[r.InstanceID]; ok {
		return fmt.Errorf("review for instance %s: %w", r.InstanceID, ErrAlreadyExists)
	}
	s.reviews[r.InstanceID] = r
	return nil
}

func (s *MemoryStore) GetReview(instanceID string) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[instanceID]
	if !ok {
		return models.Review{}, fmt.Errorf("review for instance %s: %w", instanceID, ErrNotFound)
	}
	return r, nil
}

func (s *MemoryStore) GetConfigPath() string {
	return "memory"
}
