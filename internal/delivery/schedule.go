package delivery

import (
	"fmt"
	"time"

	"github.com/golang-module/carbon/v2"
	"github.com/snapbrief/snapbrief/internal/domain"
)

// IsDueAt reports whether a schedule fires within [now-window, now] in its
// own timezone: today must be one of the schedule's days and the scheduled
// wall-clock time must have passed no more than window ago. The window
// matches the scheduler tick so a firing is seen by exactly one tick.
func IsDueAt(s domain.Schedule, now time.Time, window time.Duration) (bool, error) {
	if !s.Enabled {
		return false, nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return false, fmt.Errorf("load timezone %q: %w", s.Timezone, err)
	}
	local := now.In(loc)

	if !containsDay(s.DaysOfWeek, int(local.Weekday())) {
		return false, nil
	}

	hhmm, err := time.Parse("15:04", s.Time)
	if err != nil {
		return false, fmt.Errorf("parse schedule time %q: %w", s.Time, err)
	}

	scheduled := time.Date(local.Year(), local.Month(), local.Day(), hhmm.Hour(), hhmm.Minute(), 0, 0, loc)
	elapsed := local.Sub(scheduled)
	return elapsed >= 0 && elapsed < window, nil
}

// NextRun returns the next instant the schedule fires strictly after the
// given time, or the zero time when the schedule can never fire (disabled
// or no days selected).
func NextRun(s domain.Schedule, after time.Time) (time.Time, error) {
	if !s.Enabled || len(s.DaysOfWeek) == 0 {
		return time.Time{}, nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", s.Timezone, err)
	}
	hhmm, err := time.Parse("15:04", s.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule time %q: %w", s.Time, err)
	}

	day := carbon.Time2Carbon(after.In(loc)).StartOfDay()
	offset := time.Duration(hhmm.Hour())*time.Hour + time.Duration(hhmm.Minute())*time.Minute

	// Eight days covers today plus a full week of day-of-week candidates.
	for i := 0; i < 8; i++ {
		candidate := day.AddDays(i).Carbon2Time().Add(offset)
		if candidate.After(after) && containsDay(s.DaysOfWeek, int(candidate.Weekday())) {
			return candidate, nil
		}
	}

	return time.Time{}, nil
}

// LocalDate returns the schedule-local calendar date for the given instant,
// used as the deduplication key component.
func LocalDate(s domain.Schedule, now time.Time) (string, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return "", fmt.Errorf("load timezone %q: %w", s.Timezone, err)
	}
	return now.In(loc).Format("2006-01-02"), nil
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
