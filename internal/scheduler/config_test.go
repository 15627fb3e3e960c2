package scheduler

import (
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/models"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      models.ScheduleConfig
		problems []string // substrings expected among the problems
	}{
		{
			name: "valid weekly",
			cfg:  weeklyConfig(),
		},
		{
			name: "valid daily without times",
			cfg:  models.ScheduleConfig{Frequency: constants.FrequencyDaily},
		},
		{
			name:     "missing frequency",
			cfg:      models.ScheduleConfig{},
			problems: []string{"frequency is required"},
		},
		{
			name:     "unknown frequency",
			cfg:      models.ScheduleConfig{Frequency: "hourly"},
			problems: []string{`unknown frequency "hourly"`},
		},
		{
			name: "weekly without open time or day",
			cfg: models.ScheduleConfig{
				Frequency:  constants.FrequencyWeekly,
				OpenWindow: models.OpenWindow{Kind: constants.WindowSpecificDay},
			},
			problems: []string{"open_window.time is required", "open_window.day is required"},
		},
		{
			name: "monthly with specific day open",
			cfg: models.ScheduleConfig{
				Frequency:  constants.FrequencyMonthly,
				OpenWindow: models.OpenWindow{Kind: constants.WindowSpecificDay, Day: "monday", Time: "09:00"},
			},
			problems: []string{`open_window.kind must be "nth_day"`},
		},
		{
			name: "monthly without nth day",
			cfg: models.ScheduleConfig{
				Frequency:  constants.FrequencyMonthly,
				OpenWindow: models.OpenWindow{Kind: constants.WindowNthDay, Time: "09:00"},
			},
			problems: []string{"open_window.nth_day is required"},
		},
		{
			name: "monthly nth day out of range",
			cfg: models.ScheduleConfig{
				Frequency:  constants.FrequencyMonthly,
				OpenWindow: models.OpenWindow{Kind: constants.WindowNthDay, NthDay: 32, Time: "09:00"},
			},
			problems: []string{"open_window.nth_day must be 1-31"},
		},
		{
			name: "close specific day missing time and day",
			cfg: models.ScheduleConfig{
				Frequency:   constants.FrequencyWeekly,
				OpenWindow:  models.OpenWindow{Kind: constants.WindowSpecificDay, Day: "monday", Time: "09:00"},
				CloseWindow: models.CloseWindow{Kind: constants.WindowSpecificDay},
			},
			problems: []string{"close_window.time is required", "close_window.day is required"},
		},
		{
			name: "hours after open missing",
			cfg: models.ScheduleConfig{
				Frequency:   constants.FrequencyWeekly,
				OpenWindow:  models.OpenWindow{Kind: constants.WindowSpecificDay, Day: "monday", Time: "09:00"},
				CloseWindow: models.CloseWindow{Kind: constants.WindowHoursAfterOpen},
			},
			problems: []string{"close_window.hours_after_open must be greater than zero"},
		},
		{
			name: "bad time formats and weekday",
			cfg: models.ScheduleConfig{
				Frequency:   constants.FrequencyWeekly,
				OpenWindow:  models.OpenWindow{Kind: constants.WindowSpecificDay, Day: "someday", Time: "9am"},
				CloseWindow: models.CloseWindow{Kind: constants.WindowSpecificDay, Day: "tuesday", Time: "17"},
			},
			problems: []string{`open_window.time "9am"`, `open_window.day "someday"`, `close_window.time "17"`},
		},
		{
			name:     "custom without custom block",
			cfg:      models.ScheduleConfig{Frequency: constants.FrequencyCustom, OpenWindow: models.OpenWindow{Time: "08:00"}},
			problems: []string{"custom is required"},
		},
		{
			name: "custom weeks without start day",
			cfg: models.ScheduleConfig{
				Frequency:  constants.FrequencyCustom,
				OpenWindow: models.OpenWindow{Time: "08:00"},
				Custom:     &models.CustomConfig{Value: 0, Unit: constants.UnitWeeks},
			},
			problems: []string{"custom.value must be at least 1", "custom.start_day is required"},
		},
		{
			name: "bad timezone and start date",
			cfg: models.ScheduleConfig{
				Frequency: constants.FrequencyDaily,
				Timezone:  "Mars/Olympus",
				StartDate: "03/18/2024",
			},
			problems: []string{`invalid timezone "Mars/Olympus"`, "start_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if len(tt.problems) == 0 {
				if err != nil {
					t.Fatalf("ValidateConfig() unexpected error = %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidScheduleConfig) {
				t.Fatalf("ValidateConfig() error = %v, want ErrInvalidScheduleConfig", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ValidateConfig() error is %T, want *ConfigError", err)
			}
			for _, want := range tt.problems {
				found := false
				for _, p := range cfgErr.Problems {
					if strings.Contains(p, want) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("problems %q do not mention %q", cfgErr.Problems, want)
				}
			}
		})
	}
}

func TestConfigErrorUnwrapListsProblems(t *testing.T) {
	err := &ConfigError{Problems: []string{"a", "b"}}
	if got := len(err.Unwrap()); got != 2 {
		t.Errorf("Unwrap() returned %d errors, want 2", got)
	}
	if !strings.Contains(err.Error(), "a; b") {
		t.Errorf("Error() = %q", err.Error())
	}
}
