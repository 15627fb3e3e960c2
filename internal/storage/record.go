package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
)

// DraftRecord is the stored value of a draft: {"payload": ..., "last_saved_at": RFC 3339}.
type DraftRecord struct {
	Payload     json.RawMessage `json:"payload"`
	LastSavedAt string          `json:"last_saved_at"`
}

// DraftKey returns the logical storage key of a draft.
func DraftKey(ownerKey string) string {
	return constants.DraftKeyPrefix + ownerKey
}

// EncodeDraft serializes a draft into its stored value.
func EncodeDraft(d models.Draft) ([]byte, error) {
	payload, err := models.MarshalPayload(d.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize draft payload: %w", err)
	}
	return json.Marshal(DraftRecord{
		Payload:     payload,
		LastSavedAt: d.LastSavedAt.Format(time.RFC3339Nano),
	})
}

// DecodeDraft parses a stored value back into the draft of ownerKey.
func DecodeDraft(ownerKey string, data []byte) (models.Draft, error) {
	var rec DraftRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Draft{}, fmt.Errorf("failed to parse draft %s: %w", ownerKey, err)
	}

	savedAt, err := time.Parse(time.RFC3339Nano, rec.LastSavedAt)
	if err != nil {
		return models.Draft{}, fmt.Errorf("invalid last_saved_at in draft %s: %w", ownerKey, err)
	}

	var payload models.Payload
	if len(rec.Payload) > 0 && string(rec.Payload) != "null" {
		payload, err = models.UnmarshalPayload(rec.Payload)
		if err != nil {
			return models.Draft{}, fmt.Errorf("failed to parse draft payload %s: %w", ownerKey, err)
		}
	} else {
		payload.Normalize()
	}

	return models.Draft{OwnerKey: ownerKey, Payload: payload, LastSavedAt: savedAt}, nil
}
