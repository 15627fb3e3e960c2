package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/utils"
)

// ErrInvalidScheduleConfig is matched (via errors.Is) by every structural schedule problem.
var ErrInvalidScheduleConfig = errors.New("invalid schedule config")

// ConfigError lists every structural problem found in a ScheduleConfig.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidScheduleConfig, strings.Join(e.Problems, "; "))
}

// Is makes errors.Is(err, ErrInvalidScheduleConfig) hold.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidScheduleConfig
}

// Unwrap exposes each problem as its own error so callers can list them.
func (e *ConfigError) Unwrap() []error {
	errs := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		errs[i] = errors.New(p)
	}
	return errs
}

// compiled is a ScheduleConfig with every field parsed and resolved.
type compiled struct {
	freq   constants.Frequency
	loc    *time.Location
	anchor time.Time // local midnight of the first possible cycle

	openClock utils.Clock
	openDay   time.Weekday
	nthDay    int

	closeKind     constants.WindowKind
	closeDay      time.Weekday
	closeClock    utils.Clock
	hasCloseClock bool
	hoursAfter    int

	customValue int
	customUnit  constants.CustomUnit
	customDay   time.Weekday
}

// referenceEpoch anchors schedules without a start date. It is a Monday so
// fortnightly parity is stable no matter when the window is computed.
var referenceEpoch = [3]int{1970, 1, 5}

// ValidateConfig checks a ScheduleConfig's structure without doing any date math.
// The returned error is a *ConfigError listing every problem, or nil.
func ValidateConfig(cfg models.ScheduleConfig) error {
	_, err := compile(cfg, time.Local)
	return err
}

func compile(cfg models.ScheduleConfig, defaultLoc *time.Location) (*compiled, error) {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	c := &compiled{freq: cfg.Frequency, loc: defaultLoc}

	switch cfg.Frequency {
	case "":
		addf("frequency is required")
	case constants.FrequencyDaily, constants.FrequencyWeekly, constants.FrequencyFortnightly,
		constants.FrequencyMonthly, constants.FrequencyCustom:
	default:
		addf("unknown frequency %q", cfg.Frequency)
	}

	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		loc, err := utils.LoadLocation(cfg.Timezone)
		if err != nil {
			addf("invalid timezone %q", cfg.Timezone)
		} else {
			c.loc = loc
		}
	}

	if cfg.StartDate != "" {
		anchor, err := utils.ParseDateInLocation(cfg.StartDate, c.loc)
		if err != nil {
			addf("start_date %q must use YYYY-MM-DD", cfg.StartDate)
		} else {
			c.anchor = anchor
		}
	}
	if c.anchor.IsZero() {
		c.anchor = time.Date(referenceEpoch[0], time.Month(referenceEpoch[1]), referenceEpoch[2], 0, 0, 0, 0, c.loc)
	}

	// Open window
	open := cfg.OpenWindow
	if open.Time == "" {
		if cfg.Frequency != constants.FrequencyDaily && cfg.Frequency != "" {
			addf("open_window.time is required for %s schedules", cfg.Frequency)
		}
	} else if clock, err := utils.ParseClock(open.Time); err != nil {
		addf("open_window.time %q must use HH:MM", open.Time)
	} else {
		c.openClock = clock
	}

	switch cfg.Frequency {
	case constants.FrequencyWeekly, constants.FrequencyFortnightly:
		if open.Kind != constants.WindowSpecificDay {
			addf("open_window.kind must be %q for %s schedules", constants.WindowSpecificDay, cfg.Frequency)
		}
	case constants.FrequencyMonthly:
		if open.Kind != constants.WindowNthDay {
			addf("open_window.kind must be %q for monthly schedules", constants.WindowNthDay)
		}
	}

	switch open.Kind {
	case "":
	case constants.WindowSpecificDay:
		if open.Day == "" {
			addf("open_window.day is required when kind is %s", constants.WindowSpecificDay)
		} else if wd, err := utils.ParseWeekday(open.Day); err != nil {
			addf("open_window.day %q is not a weekday", open.Day)
		} else {
			c.openDay = wd
		}
	case constants.WindowNthDay:
		if open.NthDay == constants.LastDayOfMonth || (open.NthDay >= 1 && open.NthDay <= 31) {
			c.nthDay = open.NthDay
		} else if open.NthDay == 0 {
			addf("open_window.nth_day is required when kind is %s", constants.WindowNthDay)
		} else {
			addf("open_window.nth_day must be 1-31 or %d (last day), got %d", constants.LastDayOfMonth, open.NthDay)
		}
	default:
		addf("unknown open_window.kind %q", open.Kind)
	}

	// Close window
	closeWin := cfg.CloseWindow
	c.closeKind = closeWin.Kind
	switch closeWin.Kind {
	case "":
		if closeWin.Time != "" {
			if clock, err := utils.ParseClock(closeWin.Time); err != nil {
				addf("close_window.time %q must use HH:MM", closeWin.Time)
			} else {
				c.closeClock, c.hasCloseClock = clock, true
			}
		}
	case constants.WindowSpecificDay:
		if closeWin.Time == "" {
			addf("close_window.time is required when kind is %s", constants.WindowSpecificDay)
		} else if clock, err := utils.ParseClock(closeWin.Time); err != nil {
			addf("close_window.time %q must use HH:MM", closeWin.Time)
		} else {
			c.closeClock, c.hasCloseClock = clock, true
		}
		if closeWin.Day == "" {
			addf("close_window.day is required when kind is %s", constants.WindowSpecificDay)
		} else if wd, err := utils.ParseWeekday(closeWin.Day); err != nil {
			addf("close_window.day %q is not a weekday", closeWin.Day)
		} else {
			c.closeDay = wd
		}
	case constants.WindowHoursAfterOpen:
		if closeWin.HoursAfterOpen <= 0 {
			addf("close_window.hours_after_open must be greater than zero when kind is %s", constants.WindowHoursAfterOpen)
		}
		c.hoursAfter = closeWin.HoursAfterOpen
	default:
		addf("unknown close_window.kind %q", closeWin.Kind)
	}

	// Custom cadence
	if cfg.Frequency == constants.FrequencyCustom {
		custom := cfg.Custom
		if custom == nil {
			addf("custom is required for custom schedules")
		} else {
			if custom.Value < 1 {
				addf("custom.value must be at least 1, got %d", custom.Value)
			}
			c.customValue = custom.Value
			c.customUnit = custom.Unit
			switch custom.Unit {
			case constants.UnitDays, constants.UnitMonths:
			case constants.UnitWeeks:
				if custom.StartDay == "" {
					addf("custom.start_day is required when unit is weeks")
				} else if wd, err := utils.ParseWeekday(custom.StartDay); err != nil {
					addf("custom.start_day %q is not a weekday", custom.StartDay)
				} else {
					c.customDay = wd
				}
			case "":
				addf("custom.unit is required")
			default:
				addf("unknown custom.unit %q", custom.Unit)
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return c, nil
}
