package storage

import (
	"errors"

	"github.com/julianstephens/checkin/internal/models"
)

var (
	// ErrNotFound is returned when a draft, submission or review does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an instance already has a submission or review.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotLoaded is returned when a store is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// DraftStorage persists in-progress drafts under their owner key.
type DraftStorage interface {
	// GetDraft returns the draft of ownerKey, or ErrNotFound.
	GetDraft(ownerKey string) (models.Draft, error)
	SaveDraft(models.Draft) error
	// DeleteDraft removes the draft of ownerKey. Deleting a missing draft is not an error.
	DeleteDraft(ownerKey string) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Drafts
	DraftStorage

	// Submissions
	AddSubmission(models.Submission) error
	GetSubmission(instanceID string) (models.Submission, error)

	// Reviews
	AddReview(models.Review) error
	GetReview(instanceID string) (models.Review, error)

	// Utils
	GetConfigPath() string
}
