package models

import (
	"encoding/json"

	"github.com/julianstephens/checkin/internal/constants"
)

// Goal is a client goal carried through each check-in.
type Goal struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Status constants.GoalStatus `json:"status,omitempty"`
	Notes  string               `json:"notes,omitempty"`
}

// Achievement is a win the client reports for the cycle.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Challenge is an obstacle the client reports for the cycle.
type Challenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Answer holds the response to a question. Which field is meaningful depends on the question type.
type Answer struct {
	Number *float64 `json:"number,omitempty"` // number, rating, scale
	Bool   *bool    `json:"bool,omitempty"`   // yes_no
	Choice string   `json:"choice,omitempty"` // multiple_choice
	Text   string   `json:"text,omitempty"`   // text
}

// IsEmpty reports whether no response has been given.
func (a Answer) IsEmpty() bool {
	return a.Number == nil && a.Bool == nil && a.Choice == "" && a.Text == ""
}

// Question is a coach-defined dynamic question, tagged by Type.
type Question struct {
	ID       string                 `json:"id"`
	Type     constants.QuestionType `json:"type"`
	Prompt   string                 `json:"prompt"`
	Required bool                   `json:"required,omitempty"`
	Options  []string               `json:"options,omitempty"` // multiple_choice
	Min      *float64               `json:"min,omitempty"`     // number, scale
	Max      *float64               `json:"max,omitempty"`     // number, scale
	Answer   Answer                 `json:"answer"`
}

// Payload is the editable state of a check-in form.
type Payload struct {
	Metrics      map[string]float64 `json:"metrics"`
	Goals        []Goal             `json:"goals"`
	Achievements []Achievement      `json:"achievements"`
	Challenges   []Challenge        `json:"challenges"`
	Questions    []Question         `json:"questions"`
	Notes        string             `json:"notes,omitempty"`
}

func (g Goal) ItemID() string        { return g.ID }
func (a Achievement) ItemID() string { return a.ID }
func (c Challenge) ItemID() string   { return c.ID }
func (q Question) ItemID() string    { return q.ID }

// Normalize replaces absent collections with empty ones.
func (p *Payload) Normalize() {
	if p.Metrics == nil {
		p.Metrics = map[string]float64{}
	}
	if p.Goals == nil {
		p.Goals = []Goal{}
	}
	if p.Achievements == nil {
		p.Achievements = []Achievement{}
	}
	if p.Challenges == nil {
		p.Challenges = []Challenge{}
	}
	if p.Questions == nil {
		p.Questions = []Question{}
	}
}

// Clone returns a deep copy of the payload, normalized.
func (p Payload) Clone() Payload {
	out := Payload{Notes: p.Notes}
	if p.Metrics != nil {
		out.Metrics = make(map[string]float64, len(p.Metrics))
		for k, v := range p.Metrics {
			out.Metrics[k] = v
		}
	}
	out.Goals = append([]Goal(nil), p.Goals...)
	out.Achievements = append([]Achievement(nil), p.Achievements...)
	out.Challenges = append([]Challenge(nil), p.Challenges...)
	if p.Questions != nil {
		out.Questions = make([]Question, len(p.Questions))
		for i, q := range p.Questions {
			out.Questions[i] = q.clone()
		}
	}
	out.Normalize()
	return out
}

func (q Question) clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append(make([]string, 0, len(q.Options)), q.Options...)
	}
	out.Min = copyFloat(q.Min)
	out.Max = copyFloat(q.Max)
	out.Answer.Number = copyFloat(q.Answer.Number)
	if q.Answer.Bool != nil {
		b := *q.Answer.Bool
		out.Answer.Bool = &b
	}
	return out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// MarshalPayload encodes a payload for storage.
func MarshalPayload(p Payload) ([]byte, error) {
	p.Normalize()
	return json.Marshal(p)
}

// UnmarshalPayload decodes a stored payload and normalizes it.
func UnmarshalPayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	p.Normalize()
	return p, nil
}
