// Package shop decides whether the shop accepts orders.
//
// The decision combines an administrator override with a weekly schedule of
// opening intervals. Intervals are half-open ranges of minutes since local
// midnight: [Start, End).
package shop

import (
	"fmt"
	"slices"
	"time"

	"github.com/xenking/orderdesk/internal/domain/validate"
)

// MinutesPerDay bounds interval values.
const MinutesPerDay = 24 * 60

// Interval is an opening window within one day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether minute falls inside the interval.
func (iv Interval) Contains(minute int) bool {
	return minute >= iv.Start && minute < iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", iv.Start/60, iv.Start%60, iv.End/60, iv.End%60)
}

// Schedule maps a weekday (0=Sunday) to its opening intervals.
type Schedule map[time.Weekday][]Interval

// Validate checks ranges and that the intervals of a day do not overlap.
func (s Schedule) Validate() error {
	var es validate.Errors
	for day, ivs := range s {
		if day < time.Sunday || day > time.Saturday {
			es.Add("weekday", fmt.Sprintf("%d is out of range", day))
			continue
		}
		sorted := slices.Clone(ivs)
		slices.SortFunc(sorted, func(a, b Interval) int { return a.Start - b.Start })
		for i, iv := range sorted {
			if iv.Start < 0 || iv.End > MinutesPerDay || iv.Start >= iv.End {
				es.Add(day.String(), fmt.Sprintf("interval %d-%d is invalid", iv.Start, iv.End))
				continue
			}
			if i > 0 && sorted[i-1].End > iv.Start {
				es.Add(day.String(), fmt.Sprintf("interval %s overlaps %s", iv, sorted[i-1]))
			}
		}
	}
	return es.Err()
}

// Normalize sorts every day's intervals by start and drops empty days.
func (s Schedule) Normalize() {
	for day, ivs := range s {
		if len(ivs) == 0 {
			delete(s, day)
			continue
		}
		slices.SortFunc(ivs, func(a, b Interval) int { return a.Start - b.Start })
	}
}

// OpenAt reports whether t falls inside one of the day's intervals. t is
// evaluated in its own location.
func (s Schedule) OpenAt(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	for _, iv := range s[t.Weekday()] {
		if iv.Contains(minute) {
			return true
		}
	}
	return false
}

// NextOpening returns the start of the next interval strictly after t,
// searching one week ahead. ok is false for an empty schedule.
func (s Schedule) NextOpening(t time.Time) (next time.Time, ok bool) {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	minute := t.Hour()*60 + t.Minute()
	for offset := range 8 {
		day := midnight.AddDate(0, 0, offset)
		start := -1
		for _, iv := range s[day.Weekday()] {
			if offset == 0 && iv.Start <= minute {
				continue
			}
			if start < 0 || iv.Start < start {
				start = iv.Start
			}
		}
		if start >= 0 {
			return time.Date(day.Year(), day.Month(), day.Day(), start/60, start%60, 0, 0, t.Location()), true
		}
	}
	return time.Time{}, false
}

// IsOpen is the opening-hours decision: a forced override wins, otherwise
// the schedule is consulted in loc.
func IsOpen(now time.Time, o Override, s Schedule, loc *time.Location) bool {
	switch o {
	case OverrideOpen:
		return true
	case OverrideClosed:
		return false
	default:
		return s.OpenAt(now.In(loc))
	}
}
