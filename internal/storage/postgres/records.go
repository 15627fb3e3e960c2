package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
)

func (s *Store) GetDraft(ownerKey string) (models.Draft, error) {
	if s.db == nil {
		return models.Draft{}, storage.ErrNotLoaded
	}

	var value []byte
	err := s.db.QueryRow("SELECT value FROM drafts WHERE key = $1", storage.DraftKey(ownerKey)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Draft{}, fmt.Errorf("draft %s: %w", ownerKey, storage.ErrNotFound)
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("failed to read draft %s: %w", ownerKey, err)
	}
	return storage.DecodeDraft(ownerKey, value)
}

func (s *Store) SaveDraft(d models.Draft) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	value, err := storage.EncodeDraft(d)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO drafts (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		storage.DraftKey(d.OwnerKey), string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write draft %s: %w", d.OwnerKey, err)
	}
	return nil
}

func (s *Store) DeleteDraft(ownerKey string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if _, err := s.db.Exec("DELETE FROM drafts WHERE key = $1", storage.DraftKey(ownerKey)); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", ownerKey, err)
	}
	return nil
}

func (s *Store) AddSubmission(sub models.Submission) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	payload, err := models.MarshalPayload(sub.Payload)
	if err != nil {
		return fmt.Errorf("failed to serialize submission payload: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO submissions (instance_id, owner_key, payload, submitted_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id) DO NOTHING`,
		sub.InstanceID, sub.OwnerKey, string(payload), sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("submission for instance %s: %w", sub.InstanceID, storage.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) GetSubmission(instanceID string) (models.Submission, error) {
	if s.db == nil {
		return models.Submission{}, storage.ErrNotLoaded
	}

	var (
		sub     models.Submission
		payload []byte
	)
	err := s.db.QueryRow(
		"SELECT instance_id, owner_key, payload, submitted_at FROM submissions WHERE instance_id = $1",
		instanceID,
	).Scan(&sub.InstanceID, &sub.OwnerKey, &payload, &sub.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, fmt.Errorf("submission for instance %s: %w", instanceID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("failed to read submission: %w", err)
	}

	if sub.Payload, err = models.UnmarshalPayload(payload); err != nil {
		return models.Submission{}, fmt.Errorf("failed to parse submission payload: %w", err)
	}
	return sub, nil
}

func (s *Store) AddReview(r models.Review) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow("SELECT EXISTS (SELECT 1 FROM submissions WHERE instance_id = $1)", r.InstanceID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check submission: %w", err)
	}
	if !exists {
		return fmt.Errorf("submission for instance %s: %w", r.InstanceID, storage.ErrNotFound)
	}

	res, err := tx.Exec(`
		INSERT INTO reviews (instance_id, reviewer, notes, reviewed_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id) DO NOTHING`,
		r.InstanceID, r.Reviewer, r.Notes, r.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("review for instance %s: %w", r.InstanceID, storage.ErrAlreadyExists)
	}

	return tx.Commit()
}

func (s *Store) GetReview(instanceID string) (models.Review, error) {
	if s.db == nil {
		return models.Review{}, storage.ErrNotLoaded
	}

	var r models.Review
	err := s.db.QueryRow(
		"SELECT instance_id, reviewer, notes, reviewed_at FROM reviews WHERE instance_id = $1",
		instanceID,
	).Scan(&r.InstanceID, &r.Reviewer, &r.Notes, &r.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Review{}, fmt.Errorf("review for instance %s: %w", instanceID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to read review: %w", err)
	}
	return r, nil
}
