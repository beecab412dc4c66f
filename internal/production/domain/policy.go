package domain

import "time"

// The reporting habit this portal inherited: weekdays are always part
// of the average, weekend days only when something actually shipped.
// Kept as an explicit policy so the rule stays visible and replaceable.
type weekdayAlwaysWeekendIfActive struct{}

func WeekdayAlwaysWeekendIfActive() DayCountPolicy { return weekdayAlwaysWeekendIfActive{} }

func (weekdayAlwaysWeekendIfActive) Name() string { return "weekday_always_weekend_if_active" }

func (weekdayAlwaysWeekendIfActive) Counts(day time.Time, weight float64) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return weight > 0
	default:
		return true
	}
}

// CountActiveDaysOnly counts a day only when it produced output,
// regardless of weekday.
type countActiveDaysOnly struct{}

func CountActiveDaysOnly() DayCountPolicy { return countActiveDaysOnly{} }

func (countActiveDaysOnly) Name() string { return "count_active_days_only" }

func (countActiveDaysOnly) Counts(_ time.Time, weight float64) bool { return weight > 0 }
