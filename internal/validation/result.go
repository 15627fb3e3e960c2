package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Group is a field group of the check-in form, validated as a unit.
type Group string

const (
	GroupMetrics      Group = "metrics"
	GroupGoals        Group = "goals"
	GroupAchievements Group = "achievements"
	GroupChallenges   Group = "challenges"
	GroupQuestions    Group = "questions"
	GroupNotes        Group = "notes"
)

// Groups lists every field group in display order.
var Groups = []Group{GroupMetrics, GroupGoals, GroupAchievements, GroupChallenges, GroupQuestions, GroupNotes}

// FieldError is a single validation failure. Item errors are keyed by the item's id, never
// by its position, so they follow the item through reorders.
type FieldError struct {
	Group   Group
	ItemID  string // empty for errors not tied to a list item
	Field   string // field name, or the metric key for metrics
	Message string
}

func (e FieldError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%s[%s].%s: %s", e.Group, e.ItemID, e.Field, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Group, e.Field, e.Message)
}

// Result holds validation errors keyed by group. Groups without errors are absent.
type Result map[Group][]FieldError

// Set replaces the errors of one group.
func (r Result) Set(group Group, errs []FieldError) {
	if len(errs) == 0 {
		delete(r, group)
		return
	}
	r[group] = errs
}

// HasErrors returns true if any group has errors
func (r Result) HasErrors() bool {
	for _, errs := range r {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}

// Count returns the total number of errors.
func (r Result) Count() int {
	n := 0
	for _, errs := range r {
		n += len(errs)
	}
	return n
}

// All returns every error, groups in display order.
func (r Result) All() []FieldError {
	var out []FieldError
	for _, g := range r.groups() {
		out = append(out, r[g]...)
	}
	return out
}

// Messages returns the human-readable messages of each group.
func (r Result) Messages() map[Group][]string {
	out := make(map[Group][]string, len(r))
	for g, errs := range r {
		for _, e := range errs {
			out[g] = append(out[g], e.Message)
		}
	}
	return out
}

// ErrorsFor returns the errors attached to the item with the given id.
func (r Result) ErrorsFor(itemID string) []FieldError {
	var out []FieldError
	for _, g := range r.groups() {
		for _, e := range r[g] {
			if e.ItemID == itemID {
				out = append(out, e)
			}
		}
	}
	return out
}

// Clone returns an independent copy.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for g, errs := range r {
		out[g] = append([]FieldError(nil), errs...)
	}
	return out
}

// FormatReport returns a human-readable report of all errors
func (r Result) FormatReport() string {
	if !r.HasErrors() {
		return "No validation errors."
	}

	var b strings.Builder
	b.WriteString("Validation errors:\n")
	for _, g := range r.groups() {
		fmt.Fprintf(&b, "%s:\n", g)
		for _, e := range r[g] {
			if e.ItemID != "" {
				fmt.Fprintf(&b, "  - [%s] %s: %s\n", e.ItemID, e.Field, e.Message)
			} else {
				fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
			}
		}
	}
	return b.String()
}

// groups returns the groups present in r: known groups in display order, then any others
// sorted by name.
func (r Result) groups() []Group {
	out := make([]Group, 0, len(r))
	known := make(map[Group]bool, len(Groups))
	for _, g := range Groups {
		known[g] = true
		if len(r[g]) > 0 {
			out = append(out, g)
		}
	}
	var extra []Group
	for g, errs := range r {
		if !known[g] && len(errs) > 0 {
			extra = append(extra, g)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// sortErrors puts errors in canonical order so results do not depend on evaluation order.
func sortErrors(errs []FieldError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Message < b.Message
	})
}
