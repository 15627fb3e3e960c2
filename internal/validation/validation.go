// Package validation checks a check-in payload group by group. The same rules back the
// debounced per-group validation that runs while editing and the aggregate validation
// that gates submission, so both always agree.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
)

// MetricRule bounds a numeric metric.
type MetricRule struct {
	Min     float64
	Max     float64
	Integer bool
}

// DefaultMetricRules are the bounds of the built-in metrics. Metrics without a rule only
// need to be finite.
var DefaultMetricRules = map[string]MetricRule{
	"sleep_hours": {Min: 0, Max: 24},
	"energy":      {Min: 1, Max: 5, Integer: true},
	"mood":        {Min: 1, Max: 5, Integer: true},
	"stress":      {Min: 1, Max: 5, Integer: true},
	"weight_kg":   {Min: 0, Max: 500},
	"steps":       {Min: 0, Max: 100000, Integer: true},
}

// Engine validates payloads
type Engine struct {
	metricRules   map[string]MetricRule
	questionRules map[constants.QuestionType]questionValidator
	maxText       int
}

// New creates an Engine with the default rules
func New() *Engine {
	return NewWithRules(DefaultMetricRules, constants.MaxTextLength)
}

// NewWithRules creates an Engine with custom metric bounds and text cap.
func NewWithRules(metricRules map[string]MetricRule, maxText int) *Engine {
	rules := make(map[string]MetricRule, len(metricRules))
	for k, v := range metricRules {
		rules[k] = v
	}
	if maxText <= 0 {
		maxText = constants.MaxTextLength
	}
	return &Engine{
		metricRules:   rules,
		questionRules: defaultQuestionValidators(),
		maxText:       maxText,
	}
}

// MaxTextLength returns the free-text cap in characters.
func (e *Engine) MaxTextLength() int {
	return e.maxText
}

// Remaining returns how many more characters text may hold. It is negative once text is
// over the cap.
func (e *Engine) Remaining(text string) int {
	return e.maxText - utf8.RuneCountInString(text)
}

// Remaining reports the remaining characters under the default cap.
func Remaining(text string) int {
	return constants.MaxTextLength - utf8.RuneCountInString(text)
}

// ValidateGroup validates one field group of p. The returned errors are in canonical order.
func (e *Engine) ValidateGroup(group Group, p models.Payload) []FieldError {
	var errs []FieldError
	switch group {
	case GroupMetrics:
		errs = e.validateMetrics(p.Metrics)
	case GroupGoals:
		errs = e.validateGoals(p.Goals)
	case GroupAchievements:
		errs = e.validateEntries(GroupAchievements, achievementEntries(p.Achievements))
	case GroupChallenges:
		errs = e.validateEntries(GroupChallenges, challengeEntries(p.Challenges))
	case GroupQuestions:
		errs = e.validateQuestions(p.Questions)
	case GroupNotes:
		errs = e.checkText(nil, GroupNotes, "", "notes", p.Notes)
	default:
		errs = []FieldError{{Group: group, Field: "group", Message: fmt.Sprintf("unknown field group %q", group)}}
	}
	sortErrors(errs)
	return errs
}

// ValidateAll validates every group of p and reports all errors.
func (e *Engine) ValidateAll(p models.Payload) Result {
	result := Result{}
	for _, g := range Groups {
		result.Set(g, e.ValidateGroup(g, p))
	}
	return result
}

func (e *Engine) validateMetrics(metrics map[string]float64) []FieldError {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []FieldError
	for _, key := range keys {
		v := metrics[key]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, metricError(key, "must be a finite number"))
			continue
		}
		rule, ok := e.metricRules[key]
		if !ok {
			continue
		}
		if v < rule.Min || v > rule.Max {
			errs = append(errs, metricError(key, fmt.Sprintf("must be between %s and %s", formatNumber(rule.Min), formatNumber(rule.Max))))
		}
		if rule.Integer && v != math.Trunc(v) {
			errs = append(errs, metricError(key, "must be a whole number"))
		}
	}
	return errs
}

func metricError(key, msg string) FieldError {
	return FieldError{Group: GroupMetrics, Field: key, Message: fmt.Sprintf("%s %s", key, msg)}
}

func (e *Engine) validateGoals(goals []models.Goal) []FieldError {
	var errs []FieldError
	errs = checkIDs(errs, GroupGoals, goalIDs(goals))
	for _, g := range goals {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, FieldError{Group: GroupGoals, ItemID: g.ID, Field: "name", Message: "name is required"})
		}
		switch g.Status {
		case "", constants.GoalNotStarted, constants.GoalCompleted:
		case constants.GoalInProgress:
			if strings.TrimSpace(g.Notes) == "" {
				errs = append(errs, FieldError{Group: GroupGoals, ItemID: g.ID, Field: "notes", Message: "needs progress notes"})
			}
		default:
			errs = append(errs, FieldError{Group: GroupGoals, ItemID: g.ID, Field: "status", Message: fmt.Sprintf("unknown status %q", g.Status)})
		}
		errs = e.checkText(errs, GroupGoals, g.ID, "notes", g.Notes)
	}
	return errs
}

// entry is the common shape of achievements and challenges.
type entry struct {
	id, title, description string
}

func achievementEntries(items []models.Achievement) []entry {
	out := make([]entry, len(items))
	for i, a := range items {
		out[i] = entry{a.ID, a.Title, a.Description}
	}
	return out
}

func challengeEntries(items []models.Challenge) []entry {
	out := make([]entry, len(items))
	for i, c := range items {
		out[i] = entry{c.ID, c.Title, c.Description}
	}
	return out
}

func (e *Engine) validateEntries(group Group, entries []entry) []FieldError {
	ids := make([]string, len(entries))
	for i, en := range entries {
		ids[i] = en.id
	}

	var errs []FieldError
	errs = checkIDs(errs, group, ids)
	for _, en := range entries {
		if strings.TrimSpace(en.title) == "" {
			errs = append(errs, FieldError{Group: group, ItemID: en.id, Field: "title", Message: "title is required"})
		}
		errs = e.checkText(errs, group, en.id, "title", en.title)
		errs = e.checkText(errs, group, en.id, "description", en.description)
	}
	return errs
}

func (e *Engine) validateQuestions(questions []models.Question) []FieldError {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	var errs []FieldError
	errs = checkIDs(errs, GroupQuestions, ids)
	for _, q := range questions {
		validate, ok := e.questionRules[q.Type]
		if !ok {
			errs = append(errs, questionError(q, "type", fmt.Sprintf("unknown question type %q", q.Type)))
			continue
		}
		if isBlank(q.Answer) {
			if q.Required {
				errs = append(errs, questionError(q, "answer", "an answer is required"))
			}
			continue
		}
		errs = append(errs, validate(e, q)...)
	}
	return errs
}

// isBlank treats whitespace-only text and choices as unanswered.
func isBlank(a models.Answer) bool {
	return a.Number == nil && a.Bool == nil && strings.TrimSpace(a.Choice) == "" && strings.TrimSpace(a.Text) == ""
}

func (e *Engine) checkText(errs []FieldError, group Group, itemID, field, text string) []FieldError {
	if n := utf8.RuneCountInString(text); n > e.maxText {
		errs = append(errs, FieldError{
			Group:   group,
			ItemID:  itemID,
			Field:   field,
			Message: fmt.Sprintf("%s is %d characters over the %d character limit", field, n-e.maxText, e.maxText),
		})
	}
	return errs
}

func checkIDs(errs []FieldError, group Group, ids []string) []FieldError {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			errs = append(errs, FieldError{Group: group, Field: "id", Message: "id is required"})
			continue
		}
		if seen[id] {
			errs = append(errs, FieldError{Group: group, ItemID: id, Field: "id", Message: "duplicate id"})
		}
		seen[id] = true
	}
	return errs
}

func goalIDs(goals []models.Goal) []string {
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
