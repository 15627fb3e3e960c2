package session

import (
	"context"

	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/models"
)

// Submitter delivers a validated payload for an instance.
type Submitter interface {
	Submit(ctx context.Context, inst models.Instance, payload models.Payload) error
}

// SubmissionWriter is the part of storage.Provider the StoreSubmitter needs.
type SubmissionWriter interface {
	AddSubmission(models.Submission) error
}

// StoreSubmitter records submissions in local storage.
type StoreSubmitter struct {
	Store SubmissionWriter
	Clock debounce.Clock
}

func (s *StoreSubmitter) Submit(ctx context.Context, inst models.Instance, payload models.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clock := s.Clock
	if clock == nil {
		clock = debounce.RealClock{}
	}
	return s.Store.AddSubmission(models.Submission{
		InstanceID:  inst.ID,
		OwnerKey:    models.OwnerKey(inst.ClientID, inst.TemplateID),
		Payload:     payload.Clone(),
		SubmittedAt: clock.Now(),
	})
}
