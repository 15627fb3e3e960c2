package constants

// InstanceStatus is the derived lifecycle status of a check-in instance.
type InstanceStatus string

// GoalStatus tracks a client's progress on a goal.
type GoalStatus string

// QuestionType tags the shape of a dynamic question.
type QuestionType string

// SaveStatus reports the persistence state of a draft.
type SaveStatus string

const (
	StatusUpcoming  InstanceStatus = "upcoming"
	StatusOpen      InstanceStatus = "open"
	StatusSubmitted InstanceStatus = "submitted"
	StatusMissed    InstanceStatus = "missed"
	StatusReviewed  InstanceStatus = "reviewed"

	GoalNotStarted GoalStatus = "not-started"
	GoalInProgress GoalStatus = "in-progress"
	GoalCompleted  GoalStatus = "completed"

	QuestionNumber         QuestionType = "number"
	QuestionRating         QuestionType = "rating"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
	QuestionScale          QuestionType = "scale"

	SaveStatusSaved   SaveStatus = "saved"
	SaveStatusPending SaveStatus = "pending"
	SaveStatusUnsaved SaveStatus = "unsaved"

	// Rating and scale bounds
	RatingMin       = 1
	RatingMax       = 5
	DefaultScaleMin = 1
	DefaultScaleMax = 10
)
