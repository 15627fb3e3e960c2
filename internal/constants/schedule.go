package constants

// Frequency is the recurrence cadence of a check-in template.
type Frequency string

// WindowKind selects how an open or close boundary is located.
type WindowKind string

// CustomUnit is the step unit of a custom frequency.
type CustomUnit string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyFortnightly Frequency = "fortnightly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyCustom      Frequency = "custom"

	WindowSpecificDay    WindowKind = "specific_day"
	WindowNthDay         WindowKind = "nth_day"
	WindowHoursAfterOpen WindowKind = "hours_after_open"

	UnitDays   CustomUnit = "days"
	UnitWeeks  CustomUnit = "weeks"
	UnitMonths CustomUnit = "months"
)
