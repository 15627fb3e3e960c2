package validation

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
)

// questionValidator checks a non-empty answer against its question.
type questionValidator func(e *Engine, q models.Question) []FieldError

func defaultQuestionValidators() map[constants.QuestionType]questionValidator {
	return map[constants.QuestionType]questionValidator{
		constants.QuestionNumber:         validateNumber,
		constants.QuestionRating:         validateRating,
		constants.QuestionYesNo:          validateYesNo,
		constants.QuestionMultipleChoice: validateMultipleChoice,
		constants.QuestionText:           validateText,
		constants.QuestionScale:          validateScale,
	}
}

func questionError(q models.Question, field, msg string) FieldError {
	return FieldError{Group: GroupQuestions, ItemID: q.ID, Field: field, Message: msg}
}

func validateNumber(_ *Engine, q models.Question) []FieldError {
	n := q.Answer.Number
	if n == nil {
		return []FieldError{questionError(q, "answer", "expects a number")}
	}
	if math.IsNaN(*n) || math.IsInf(*n, 0) {
		return []FieldError{questionError(q, "answer", "must be a finite number")}
	}
	if q.Min != nil && *n < *q.Min {
		return []FieldError{questionError(q, "answer", fmt.Sprintf("must be at least %s", formatNumber(*q.Min)))}
	}
	if q.Max != nil && *n > *q.Max {
		return []FieldError{questionError(q, "answer", fmt.Sprintf("must be at most %s", formatNumber(*q.Max)))}
	}
	return nil
}

func validateRating(_ *Engine, q models.Question) []FieldError {
	return checkWholeInRange(q, constants.RatingMin, constants.RatingMax)
}

func validateScale(_ *Engine, q models.Question) []FieldError {
	lo, hi := float64(constants.DefaultScaleMin), float64(constants.DefaultScaleMax)
	if q.Min != nil {
		lo = *q.Min
	}
	if q.Max != nil {
		hi = *q.Max
	}
	if lo > hi {
		return []FieldError{questionError(q, "max", fmt.Sprintf("scale max %s is below min %s", formatNumber(hi), formatNumber(lo)))}
	}
	return checkWholeInRange(q, lo, hi)
}

func checkWholeInRange(q models.Question, lo, hi float64) []FieldError {
	n := q.Answer.Number
	if n == nil {
		return []FieldError{questionError(q, "answer", "expects a number")}
	}
	var errs []FieldError
	if *n < lo || *n > hi {
		errs = append(errs, questionError(q, "answer", fmt.Sprintf("must be between %s and %s", formatNumber(lo), formatNumber(hi))))
	}
	if *n != math.Trunc(*n) {
		errs = append(errs, questionError(q, "answer", "must be a whole number"))
	}
	return errs
}

func validateYesNo(_ *Engine, q models.Question) []FieldError {
	if q.Answer.Bool == nil {
		return []FieldError{questionError(q, "answer", "expects yes or no")}
	}
	return nil
}

func validateMultipleChoice(_ *Engine, q models.Question) []FieldError {
	choice := q.Answer.Choice
	if choice == "" {
		return []FieldError{questionError(q, "answer", "expects one of the options")}
	}
	if len(q.Options) == 0 {
		return []FieldError{questionError(q, "options", "question has no options")}
	}
	if !slices.Contains(q.Options, choice) {
		return []FieldError{questionError(q, "answer", fmt.Sprintf("%q is not one of %s", choice, strings.Join(q.Options, ", ")))}
	}
	return nil
}

func validateText(e *Engine, q models.Question) []FieldError {
	if q.Answer.Text == "" {
		return []FieldError{questionError(q, "answer", "expects text")}
	}
	if n := utf8.RuneCountInString(q.Answer.Text); n > e.maxText {
		return []FieldError{questionError(q, "answer", fmt.Sprintf("answer is %d characters over the %d character limit", n-e.maxText, e.maxText))}
	}
	return nil
}
