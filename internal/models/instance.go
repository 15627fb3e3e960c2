package models

import "time"

// Submission is the record written when a client submits a cycle's check-in.
type Submission struct {
	InstanceID  string    `json:"instance_id"`
	OwnerKey    string    `json:"owner_key"`
	Payload     Payload   `json:"payload"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Review is written by the coach once a submission has been read.
type Review struct {
	InstanceID string    `json:"instance_id"`
	Reviewer   string    `json:"reviewer"`
	Notes      string    `json:"notes,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Instance is one concrete check-in occurrence. Its status is derived, never stored.
type Instance struct {
	ID         string         `json:"id"`
	TemplateID string         `json:"template_id"`
	ClientID   string         `json:"client_id"`
	Window     ScheduleWindow `json:"window"`
	Submission *Submission    `json:"submission,omitempty"`
	Review     *Review        `json:"review,omitempty"`
}

// Draft is a locally persisted, not yet submitted payload.
type Draft struct {
	OwnerKey    string    `json:"owner_key"`
	Payload     Payload   `json:"payload"`
	LastSavedAt time.Time `json:"last_saved_at"`
}
