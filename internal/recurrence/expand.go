// Package recurrence materializes concrete occurrences of recurring
// calendar events over a query range, honoring per-instance overrides and
// exception-date deletions. All event instants are stored in UTC;
// conversion to the caller's timezone happens once, on the returned
// occurrences.
package recurrence

import (
	"sort"
	"time"

	"github.com/mholloway/daybreak/internal/model"
)

// Fixed recurrence periods in seconds. MONTHLY has no fixed period and is
// expanded by a calendar walk instead.
const (
	dailyPeriod  int64 = 24 * 3600
	weeklyPeriod int64 = 7 * dailyPeriod
	yearlyPeriod int64 = 365 * dailyPeriod
)

// Safety bound on the monthly walk; ~800 years of occurrences.
const maxMonthlySteps = 10000

// Occurrence is one concrete instantiation of an event within a range.
// RecurrenceID is the start instant the occurrence has under the generic
// pattern, which keys overrides and exceptions even when an override moves
// the occurrence itself.
type Occurrence struct {
	EventID      int64
	Summary      string
	StartTime    time.Time
	EndTime      time.Time
	Description  string
	Location     string
	RecurrenceID time.Time
	Overridden   bool
}

type instanceKey struct {
	eventID int64
	start   int64
}

// Expand returns every occurrence of the given events intersecting
// [rangeStart, rangeEnd), with overrides substituted and exception-dated
// occurrences dropped, sorted by start time and converted to loc.
func Expand(events []model.Event, overrides []model.InstanceOverride, exceptions []model.ExceptionDate, rangeStart, rangeEnd time.Time, loc *time.Location) []Occurrence {
	ovr := make(map[instanceKey]model.InstanceOverride, len(overrides))
	for _, o := range overrides {
		ovr[instanceKey{o.EventID, o.RecurrenceID.Unix()}] = o
	}
	exc := make(map[instanceKey]bool, len(exceptions))
	for _, x := range exceptions {
		exc[instanceKey{x.EventID, x.StartTime.Unix()}] = true
	}

	var out []Occurrence
	for _, ev := range events {
		for _, sp := range expandEvent(ev, rangeStart, rangeEnd) {
			key := instanceKey{ev.ID, sp.start.Unix()}
			if exc[key] {
				continue
			}
			if o, ok := ovr[key]; ok {
				out = append(out, Occurrence{
					EventID:      ev.ID,
					Summary:      o.Summary,
					StartTime:    o.StartTime.In(loc),
					EndTime:      o.EndTime.In(loc),
					Description:  o.Description,
					Location:     o.Location,
					RecurrenceID: sp.start,
					Overridden:   true,
				})
				continue
			}
			out = append(out, Occurrence{
				EventID:      ev.ID,
				Summary:      ev.Summary,
				StartTime:    sp.start.In(loc),
				EndTime:      sp.end.In(loc),
				Description:  ev.Description,
				Location:     ev.Location,
				RecurrenceID: sp.start,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

type span struct {
	start time.Time
	end   time.Time
}

func expandEvent(ev model.Event, rangeStart, rangeEnd time.Time) []span {
	switch ev.RepeatRule {
	case model.RepeatDaily:
		return expandFixedPeriod(ev, dailyPeriod, rangeStart, rangeEnd)
	case model.RepeatWeekly:
		return expandFixedPeriod(ev, weeklyPeriod, rangeStart, rangeEnd)
	case model.RepeatYearly:
		return expandFixedPeriod(ev, yearlyPeriod, rangeStart, rangeEnd)
	case model.RepeatMonthly:
		return expandMonthly(ev, rangeStart, rangeEnd)
	default:
		if ev.StartTime.Before(rangeEnd) && ev.EndTime.After(rangeStart) {
			return []span{{start: ev.StartTime, end: ev.EndTime}}
		}
		return nil
	}
}

// expandFixedPeriod solves for the integer multipliers m >= 0 whose
// occurrence [t1+m*tau, t2+m*tau) intersects [rangeStart, rangeEnd),
// directly from the interval bounds rather than by iterating from the
// base occurrence.
func expandFixedPeriod(ev model.Event, tau int64, rangeStart, rangeEnd time.Time) []span {
	t1, t2 := ev.StartTime.Unix(), ev.EndTime.Unix()
	rs, re := rangeStart.Unix(), rangeEnd.Unix()

	mLow := ceilDiv(rs-t2, tau)
	if mLow < 0 {
		mLow = 0
	}
	mHigh := ceilDiv(re-t1, tau)
	if ev.Until != nil {
		// The last occurrence may start no later than the until bound.
		maxM := floorDiv(ev.Until.Unix()-t1, tau)
		if mHigh > maxM+1 {
			mHigh = maxM + 1
		}
	}

	var out []span
	for m := mLow; m < mHigh; m++ {
		s, e := t1+m*tau, t2+m*tau
		if s < re && e > rs {
			out = append(out, span{
				start: time.Unix(s, 0).UTC(),
				end:   time.Unix(e, 0).UTC(),
			})
		}
	}
	return out
}

// expandMonthly walks month by month from the base occurrence, keeping the
// base start's day-of-month and skipping months that lack it (a Jan 31
// event recurs Mar 31, May 31, ...).
func expandMonthly(ev model.Event, rangeStart, rangeEnd time.Time) []span {
	duration := ev.EndTime.Sub(ev.StartTime)
	day := ev.StartTime.Day()

	start := ev.StartTime
	var out []span
	for i := 0; i < maxMonthlySteps; i++ {
		if !start.Before(rangeEnd) {
			break
		}
		if ev.Until != nil && start.After(*ev.Until) {
			break
		}
		end := start.Add(duration)
		if end.After(rangeStart) {
			out = append(out, span{start: start, end: end})
		}
		start = nextMonthWithDay(start, day)
	}
	return out
}

// nextMonthWithDay returns the same clock time on the base day-of-month in
// the next month that has that day.
func nextMonthWithDay(t time.Time, day int) time.Time {
	year, month := t.Year(), t.Month()
	for {
		month++
		if month > time.December {
			month = time.January
			year++
		}
		if day <= daysInMonth(year, month) {
			return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		}
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a > 0) != (b > 0) {
		q--
	}
	return q
}
