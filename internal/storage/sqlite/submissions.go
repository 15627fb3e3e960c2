package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
)

func (s *Store) AddSubmission(sub models.Submission) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	payload, err := models.MarshalPayload(sub.Payload)
	if err != nil {
		return fmt.Errorf("failed to serialize submission payload: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO submissions (instance_id, owner_key, payload, submitted_at) VALUES (?, ?, ?, ?)",
		sub.InstanceID, sub.OwnerKey, string(payload), sub.SubmittedAt.Format(time.RFC3339Nano),
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
		sub         models.Submission
		payload     string
		submittedAt string
	)
	err := s.db.QueryRow(
		"SELECT instance_id, owner_key, payload, submitted_at FROM submissions WHERE instance_id = ?",
		instanceID,
	).Scan(&sub.InstanceID, &sub.OwnerKey, &payload, &submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, fmt.Errorf("submission for instance %s: %w", instanceID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("failed to read submission: %w", err)
	}

	if sub.Payload, err = models.UnmarshalPayload([]byte(payload)); err != nil {
		return models.Submission{}, fmt.Errorf("failed to parse submission payload: %w", err)
	}
	if sub.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return models.Submission{}, fmt.Errorf("invalid submitted_at: %w", err)
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

	var exists int
	if err := tx.QueryRow("SELECT count(*) FROM submissions WHERE instance_id = ?", r.InstanceID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check submission: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("submission for instance %s: %w", r.InstanceID, storage.ErrNotFound)
	}

	res, err := tx.Exec(
		"INSERT OR IGNORE INTO reviews (instance_id, reviewer, notes, reviewed_at) VALUES (?, ?, ?, ?)",
		r.InstanceID, r.Reviewer, r.Notes, r.ReviewedAt.Format(time.RFC3339Nano),
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

	var (
		r          models.Review
		reviewedAt string
	)
	err := s.db.QueryRow(
		"SELECT instance_id, reviewer, notes, reviewed_at FROM reviews WHERE instance_id = ?",
		instanceID,
	).Scan(&r.InstanceID, &r.Reviewer, &r.Notes, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Review{}, fmt.Errorf("review for instance %s: %w", instanceID, storage.ErrNotFound)
	}
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to read review: %w", err)
	}

	if r.ReviewedAt, err = time.Parse(time.RFC3339Nano, reviewedAt); err != nil {
		return models.Review{}, fmt.Errorf("invalid reviewed_at: %w", err)
	}
	return r, nil
}
