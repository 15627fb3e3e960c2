package models

// Template is a coach-authored check-in definition: a schedule plus the questions asked each cycle.
type Template struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Schedule  ScheduleConfig `json:"schedule"`
	Questions []Question     `json:"questions,omitempty"`
	// Seed pre-fills the form of every cycle (e.g. the client's standing goals).
	Seed *Payload `json:"seed,omitempty"`
}

// OwnerKey scopes a draft to a client and template pairing.
func OwnerKey(clientID, templateID string) string {
	return clientID + ":" + templateID
}
