package tui

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/session"
	"github.com/julianstephens/checkin/internal/validation"
)

const (
	answerYes = "yes"
	answerNo  = "no"
)

// answerValue is the editable text of one question's answer.
type answerValue struct {
	Text   string // number, rating, scale, text
	Choice string // yes_no, multiple_choice
}

// FormValues are the field values bound to the form. Synced into the session after
// every message.
type FormValues struct {
	metricKeys []string
	Metrics    map[string]*string

	goalIDs    []string
	goalNames  []string
	GoalStatus []constants.GoalStatus
	GoalNotes  []string

	Achievements string
	Challenges   string

	questions []models.Question
	Answers   []answerValue

	Notes  string
	Submit bool
}

// NewFormValues fills the values from p. Built-in metrics are always offered.
func NewFormValues(p models.Payload) *FormValues {
	v := &FormValues{Metrics: map[string]*string{}}

	keys := make([]string, 0, len(validation.DefaultMetricRules)+len(p.Metrics))
	for k := range validation.DefaultMetricRules {
		keys = append(keys, k)
	}
	for k := range p.Metrics {
		if _, ok := validation.DefaultMetricRules[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	v.metricKeys = keys
	for _, k := range keys {
		text := ""
		if n, ok := p.Metrics[k]; ok {
			text = strconv.FormatFloat(n, 'f', -1, 64)
		}
		v.Metrics[k] = &text
	}

	for _, g := range p.Goals {
		v.goalIDs = append(v.goalIDs, g.ID)
		v.goalNames = append(v.goalNames, g.Name)
		v.GoalStatus = append(v.GoalStatus, g.Status)
		v.GoalNotes = append(v.GoalNotes, g.Notes)
	}

	titles := make([]string, 0, len(p.Achievements))
	for _, a := range p.Achievements {
		titles = append(titles, a.Title)
	}
	v.Achievements = strings.Join(titles, "\n")
	titles = titles[:0]
	for _, c := range p.Challenges {
		titles = append(titles, c.Title)
	}
	v.Challenges = strings.Join(titles, "\n")

	for _, q := range p.Questions {
		v.questions = append(v.questions, q)
		v.Answers = append(v.Answers, answerText(q))
	}

	v.Notes = p.Notes
	return v
}

func answerText(q models.Question) answerValue {
	a := q.Answer
	switch q.Type {
	case constants.QuestionYesNo:
		if a.Bool == nil {
			return answerValue{}
		}
		if *a.Bool {
			return answerValue{Choice: answerYes}
		}
		return answerValue{Choice: answerNo}
	case constants.QuestionMultipleChoice:
		return answerValue{Choice: a.Choice}
	case constants.QuestionText:
		return answerValue{Text: a.Text}
	default:
		if a.Number == nil {
			return answerValue{}
		}
		return answerValue{Text: strconv.FormatFloat(*a.Number, 'f', -1, 64)}
	}
}

// toAnswer converts the edited text back into an answer. ok is false while numeric text
// does not parse yet.
func (av answerValue) toAnswer(q models.Question) (models.Answer, bool) {
	switch q.Type {
	case constants.QuestionYesNo:
		switch av.Choice {
		case answerYes:
			b := true
			return models.Answer{Bool: &b}, true
		case answerNo:
			b := false
			return models.Answer{Bool: &b}, true
		}
		return models.Answer{}, true
	case constants.QuestionMultipleChoice:
		return models.Answer{Choice: av.Choice}, true
	case constants.QuestionText:
		return models.Answer{Text: av.Text}, true
	default:
		text := strings.TrimSpace(av.Text)
		if text == "" {
			return models.Answer{}, true
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return models.Answer{}, false
		}
		return models.Answer{Number: &n}, true
	}
}

func sameAnswer(a, b models.Answer) bool {
	if a.Choice != b.Choice || a.Text != b.Text {
		return false
	}
	if (a.Number == nil) != (b.Number == nil) || (a.Number != nil && *a.Number != *b.Number) {
		return false
	}
	if (a.Bool == nil) != (b.Bool == nil) || (a.Bool != nil && *a.Bool != *b.Bool) {
		return false
	}
	return true
}

// Apply turns every value that differs from the session payload into a session edit.
// Numeric text that does not parse yet is skipped.
func (v *FormValues) Apply(s *session.Session) error {
	p := s.Payload()
	var errs []error

	for _, k := range v.metricKeys {
		text := strings.TrimSpace(*v.Metrics[k])
		cur, has := p.Metrics[k]
		if text == "" {
			if has {
				errs = append(errs, s.ClearMetric(k))
			}
			continue
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(n) {
			continue
		}
		if !has || cur != n {
			errs = append(errs, s.SetMetric(k, n))
		}
	}

	for i, id := range v.goalIDs {
		idx := slices.IndexFunc(p.Goals, func(g models.Goal) bool { return g.ID == id })
		if idx == -1 {
			continue
		}
		status, notes := v.GoalStatus[i], v.GoalNotes[i]
		if p.Goals[idx].Status == status && p.Goals[idx].Notes == notes {
			continue
		}
		errs = append(errs, s.UpdateGoal(id, func(g models.Goal) models.Goal {
			g.Status = status
			g.Notes = notes
			return g
		}))
	}

	achievementIDs := make([]string, len(p.Achievements))
	achievementTitles := make([]string, len(p.Achievements))
	for i, a := range p.Achievements {
		achievementIDs[i], achievementTitles[i] = a.ID, a.Title
	}
	errs = append(errs, syncLines(achievementIDs, achievementTitles, lines(v.Achievements),
		func(title string) error {
			_, err := s.AddAchievement(models.Achievement{Title: title})
			return err
		},
		func(id, title string) error {
			return s.UpdateAchievement(id, func(a models.Achievement) models.Achievement {
				a.Title = title
				return a
			})
		},
		s.RemoveAchievement,
	)...)

	challengeIDs := make([]string, len(p.Challenges))
	challengeTitles := make([]string, len(p.Challenges))
	for i, c := range p.Challenges {
		challengeIDs[i], challengeTitles[i] = c.ID, c.Title
	}
	errs = append(errs, syncLines(challengeIDs, challengeTitles, lines(v.Challenges),
		func(title string) error {
			_, err := s.AddChallenge(models.Challenge{Title: title})
			return err
		},
		func(id, title string) error {
			return s.UpdateChallenge(id, func(c models.Challenge) models.Challenge {
				c.Title = title
				return c
			})
		},
		s.RemoveChallenge,
	)...)

	for i, q := range v.questions {
		answer, ok := v.Answers[i].toAnswer(q)
		if !ok {
			continue
		}
		idx := slices.IndexFunc(p.Questions, func(pq models.Question) bool { return pq.ID == q.ID })
		if idx == -1 || sameAnswer(p.Questions[idx].Answer, answer) {
			continue
		}
		errs = append(errs, s.AnswerQuestion(q.ID, answer))
	}

	if v.Notes != p.Notes {
		errs = append(errs, s.SetNotes(v.Notes))
	}
	return errors.Join(errs...)
}

// lines splits text into its non-blank lines.
func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// syncLines maps edited lines onto a list by position: changed titles are updated, extra
// lines appended and missing lines removed from the end.
func syncLines(ids, titles, want []string, add func(string) error, update func(id, title string) error, remove func(string) error) []error {
	var errs []error
	for i := 0; i < len(ids) && i < len(want); i++ {
		if titles[i] != want[i] {
			errs = append(errs, update(ids[i], want[i]))
		}
	}
	for i := len(ids); i < len(want); i++ {
		errs = append(errs, add(want[i]))
	}
	for i := len(want); i < len(ids); i++ {
		errs = append(errs, remove(ids[i]))
	}
	return errs
}

func numberField(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func metricHint(key string) string {
	rule, ok := validation.DefaultMetricRules[key]
	if !ok {
		return ""
	}
	hint := fmt.Sprintf("%s to %s", strconv.FormatFloat(rule.Min, 'f', -1, 64), strconv.FormatFloat(rule.Max, 'f', -1, 64))
	if rule.Integer {
		hint += ", whole number"
	}
	return hint
}

// NewForm builds the check-in form over v.
func NewForm(v *FormValues) *huh.Form {
	var groups []*huh.Group

	metricFields := make([]huh.Field, 0, len(v.metricKeys))
	for _, k := range v.metricKeys {
		metricFields = append(metricFields, huh.NewInput().
			Title(k).
			Description(metricHint(k)).
			Value(v.Metrics[k]).
			Validate(numberField))
	}
	groups = append(groups, huh.NewGroup(metricFields...).Title("Metrics"))

	if len(v.goalIDs) > 0 {
		goalFields := make([]huh.Field, 0, 2*len(v.goalIDs))
		for i := range v.goalIDs {
			goalFields = append(goalFields,
				huh.NewSelect[constants.GoalStatus]().
					Title(v.goalNames[i]).
					Options(
						huh.NewOption("Not started", constants.GoalNotStarted),
						huh.NewOption("In progress", constants.GoalInProgress),
						huh.NewOption("Completed", constants.GoalCompleted),
					).
					Value(&v.GoalStatus[i]),
				huh.NewInput().
					Title("Progress notes").
					CharLimit(constants.MaxTextLength).
					Value(&v.GoalNotes[i]),
			)
		}
		groups = append(groups, huh.NewGroup(goalFields...).Title("Goals"))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewText().
			Title("Achievements").
			Description("One per line").
			Value(&v.Achievements),
		huh.NewText().
			Title("Challenges").
			Description("One per line").
			Value(&v.Challenges),
	).Title("This cycle"))

	if len(v.questions) > 0 {
		questionFields := make([]huh.Field, 0, len(v.questions))
		for i, q := range v.questions {
			questionFields = append(questionFields, questionField(q, &v.Answers[i]))
		}
		groups = append(groups, huh.NewGroup(questionFields...).Title("Questions"))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewText().
			Title("Notes").
			CharLimit(constants.MaxTextLength).
			Value(&v.Notes),
		huh.NewConfirm().
			Title("Submit check-in now?").
			Description("Choose No to keep the draft and finish later.").
			Affirmative("Submit").
			Negative("Later").
			Value(&v.Submit),
	))

	return huh.NewForm(groups...)
}

func questionField(q models.Question, av *answerValue) huh.Field {
	title := q.Prompt
	if q.Required {
		title += " *"
	}

	switch q.Type {
	case constants.QuestionYesNo:
		return huh.NewSelect[string]().
			Title(title).
			Options(
				huh.NewOption("(no answer)", ""),
				huh.NewOption("Yes", answerYes),
				huh.NewOption("No", answerNo),
			).
			Value(&av.Choice)
	case constants.QuestionMultipleChoice:
		opts := []huh.Option[string]{huh.NewOption("(no answer)", "")}
		for _, o := range q.Options {
			opts = append(opts, huh.NewOption(o, o))
		}
		return huh.NewSelect[string]().Title(title).Options(opts...).Value(&av.Choice)
	case constants.QuestionText:
		return huh.NewText().Title(title).CharLimit(constants.MaxTextLength).Value(&av.Text)
	case constants.QuestionRating:
		return huh.NewInput().Title(title).Description("1 to 5").Value(&av.Text).Validate(numberField)
	default:
		return huh.NewInput().Title(title).Value(&av.Text).Validate(numberField)
	}
}
