package scheduler

import (
	"fmt"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/utils"
)

// Calculator turns schedule configs into concrete windows.
type Calculator struct {
	// Location is used for configs that carry no timezone of their own.
	Location *time.Location
}

// New creates a Calculator that resolves untimezoned configs in the system local timezone.
func New() *Calculator {
	return &Calculator{Location: time.Local}
}

// NewInLocation creates a Calculator with an explicit default timezone.
func NewInLocation(loc *time.Location) *Calculator {
	return &Calculator{Location: loc}
}

func (c *Calculator) compile(cfg models.ScheduleConfig) (*compiled, error) {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return compile(cfg, loc)
}

// ComputeWindow returns the window of the cycle containing now or, when no cycle contains
// now, the next one to open.
func (c *Calculator) ComputeWindow(cfg models.ScheduleConfig, now time.Time) (models.ScheduleWindow, error) {
	plan, err := c.compile(cfg)
	if err != nil {
		return models.ScheduleWindow{}, err
	}
	k := plan.currentCycle(now)
	w := plan.window(k)
	logger.Debug("Computed schedule window", "frequency", cfg.Frequency, "cycle", k, "open", w.Open, "close", w.Close)
	return w, nil
}

// Windows returns count consecutive windows starting at the one ComputeWindow would return.
func (c *Calculator) Windows(cfg models.ScheduleConfig, now time.Time, count int) ([]models.ScheduleWindow, error) {
	plan, err := c.compile(cfg)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", count)
	}
	k := plan.currentCycle(now)
	windows := make([]models.ScheduleWindow, 0, count)
	for i := 0; i < count; i++ {
		windows = append(windows, plan.window(k+i))
	}
	return windows, nil
}

// CycleWindow returns the window of cycle k, counted from the schedule's anchor.
func (c *Calculator) CycleWindow(cfg models.ScheduleConfig, k int) (models.ScheduleWindow, error) {
	plan, err := c.compile(cfg)
	if err != nil {
		return models.ScheduleWindow{}, err
	}
	if k < 0 {
		return models.ScheduleWindow{}, fmt.Errorf("cycle must not be negative, got %d", k)
	}
	return plan.window(k), nil
}

// currentCycle finds the cycle whose window contains now, or the next one.
func (p *compiled) currentCycle(now time.Time) int {
	now = now.In(p.loc)

	k := p.estimateCycle(now)
	if k < 0 {
		k = 0
	}
	// The estimate is within one cycle; settle on the last open at or before now.
	for k > 0 && p.openAt(k).After(now) {
		k--
	}
	for !p.openAt(k + 1).After(now) {
		k++
	}
	if now.Before(p.openAt(k)) {
		return k // before the first cycle
	}
	if now.Before(p.window(k).Close) {
		return k
	}
	return k + 1
}

func (p *compiled) estimateCycle(now time.Time) int {
	days := utils.DaysBetween(p.anchor, now)
	switch p.freq {
	case constants.FrequencyDaily:
		return days
	case constants.FrequencyWeekly:
		return floorDiv(days-weekdayOffset(p.anchor, p.openDay), 7)
	case constants.FrequencyFortnightly:
		return floorDiv(days-weekdayOffset(p.anchor, p.openDay), 14)
	case constants.FrequencyMonthly:
		return utils.MonthsBetween(p.anchor, now) - p.monthShift()
	case constants.FrequencyCustom:
		switch p.customUnit {
		case constants.UnitWeeks:
			return floorDiv(days-weekdayOffset(p.anchor, p.customDay), 7*p.customValue)
		case constants.UnitMonths:
			return floorDiv(utils.MonthsBetween(p.anchor, now), p.customValue)
		default:
			return floorDiv(days, p.customValue)
		}
	}
	return 0
}

// openAt returns the open instant of cycle k.
func (p *compiled) openAt(k int) time.Time {
	switch p.freq {
	case constants.FrequencyDaily:
		return utils.At(p.anchor, k, p.openClock)
	case constants.FrequencyWeekly:
		return utils.At(p.anchor, weekdayOffset(p.anchor, p.openDay)+7*k, p.openClock)
	case constants.FrequencyFortnightly:
		return utils.At(p.anchor, weekdayOffset(p.anchor, p.openDay)+14*k, p.openClock)
	case constants.FrequencyMonthly:
		return p.monthlyOpen(k + p.monthShift())
	case constants.FrequencyCustom:
		switch p.customUnit {
		case constants.UnitWeeks:
			return utils.At(p.anchor, weekdayOffset(p.anchor, p.customDay)+7*p.customValue*k, p.openClock)
		case constants.UnitMonths:
			return addMonthsClamped(p.anchor, p.customValue*k, p.anchor.Day(), p.openClock)
		default:
			return utils.At(p.anchor, p.customValue*k, p.openClock)
		}
	}
	return p.anchor
}

// monthlyOpen returns the nth-day open of the month i months after the anchor month.
func (p *compiled) monthlyOpen(i int) time.Time {
	return addMonthsClamped(p.anchor, i, p.nthDay, p.openClock)
}

// monthShift is 1 when the anchor month's open falls before the anchor itself.
func (p *compiled) monthShift() int {
	if p.monthlyOpen(0).Before(p.anchor) {
		return 1
	}
	return 0
}

// window builds the full window of cycle k.
func (p *compiled) window(k int) models.ScheduleWindow {
	open := p.openAt(k)
	return models.ScheduleWindow{Open: open, Close: correctClose(open, p.closeFor(open, k), p.advance)}
}

// closeFor applies the close policy to an open instant.
func (p *compiled) closeFor(open time.Time, k int) time.Time {
	switch p.closeKind {
	case constants.WindowHoursAfterOpen:
		return open.Add(time.Duration(p.hoursAfter) * time.Hour)
	case constants.WindowSpecificDay:
		// May land in the following calendar week, which keeps the window positive.
		for i := 0; i <= 7; i++ {
			candidate := utils.At(open, i, p.closeClock)
			if candidate.Weekday() == p.closeDay && candidate.After(open) {
				return candidate
			}
		}
		return open
	}

	if p.hasCloseClock {
		candidate := utils.At(open, 0, p.closeClock)
		if !candidate.After(open) {
			candidate = utils.At(open, 1, p.closeClock)
		}
		return candidate
	}

	switch p.freq {
	case constants.FrequencyDaily:
		return utils.At(open, 1, utils.Clock{})
	case constants.FrequencyCustom:
		return p.nominalUnit(open)
	default:
		return p.openAt(k + 1)
	}
}

// nominalUnit is the default custom close: one unit after open.
func (p *compiled) nominalUnit(open time.Time) time.Time {
	switch p.customUnit {
	case constants.UnitWeeks:
		return utils.At(open, 7, utils.Clock{Hour: open.Hour(), Minute: open.Minute()})
	case constants.UnitMonths:
		return addMonthsClamped(open, 1, open.Day(), utils.Clock{Hour: open.Hour(), Minute: open.Minute()})
	default:
		return utils.At(open, 1, utils.Clock{Hour: open.Hour(), Minute: open.Minute()})
	}
}

// advance moves t forward by one full period of the schedule.
func (p *compiled) advance(t time.Time) time.Time {
	clock := utils.Clock{Hour: t.Hour(), Minute: t.Minute()}
	switch p.freq {
	case constants.FrequencyWeekly:
		return utils.At(t, 7, clock)
	case constants.FrequencyFortnightly:
		return utils.At(t, 14, clock)
	case constants.FrequencyMonthly:
		return addMonthsClamped(t, 1, t.Day(), clock)
	case constants.FrequencyCustom:
		switch p.customUnit {
		case constants.UnitWeeks:
			return utils.At(t, 7*p.customValue, clock)
		case constants.UnitMonths:
			return addMonthsClamped(t, p.customValue, t.Day(), clock)
		default:
			return utils.At(t, p.customValue, clock)
		}
	default:
		return utils.At(t, 1, clock)
	}
}

// correctClose shifts a close that does not come after open forward by whole periods.
// Correct day-search logic never needs it.
func correctClose(open, closeAt time.Time, advance func(time.Time) time.Time) time.Time {
	if closeAt.After(open) {
		return closeAt
	}
	logger.Warn("Corrected non-positive schedule window", "open", open, "close", closeAt)
	for !closeAt.After(open) {
		next := advance(closeAt)
		if !next.After(closeAt) {
			// A period that does not move time forward cannot recover; fall back to a day.
			return utils.At(open, 1, utils.Clock{Hour: open.Hour(), Minute: open.Minute()})
		}
		closeAt = next
	}
	return closeAt
}

// addMonthsClamped returns day `day` (or the month's last day for -1 or overflow) of the month
// `months` after t's month, at clock.
func addMonthsClamped(t time.Time, months, day int, clock utils.Clock) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := utils.DaysIn(first.Year(), first.Month())
	if day == constants.LastDayOfMonth || day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, clock.Hour, clock.Minute, 0, 0, t.Location())
}

// weekdayOffset is the number of days from t's date to the next wd (0 if t is a wd).
func weekdayOffset(t time.Time, wd time.Weekday) int {
	return (int(wd) - int(t.Weekday()) + 7) % 7
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
