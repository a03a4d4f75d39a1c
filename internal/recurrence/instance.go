package recurrence

import (
	"time"

	"github.com/mholloway/daybreak/internal/model"
)

// InstanceKind classifies how an instant relates to a recurring event's
// occurrence set. The classification drives single-occurrence edits: a
// generic instance gets a new override materialized, an overridden one has
// its existing override mutated, and none rejects the edit.
type InstanceKind int

const (
	InstanceNone InstanceKind = iota
	InstanceGeneric
	InstanceOverridden
)

// CheckInstance reports whether instant identifies an occurrence of ev,
// given the event's overrides and exception dates. Instants are compared
// in UTC.
func CheckInstance(ev model.Event, overrides []model.InstanceOverride, exceptions []model.ExceptionDate, instant time.Time) InstanceKind {
	instant = instant.UTC()
	if instant.Before(ev.StartTime) {
		return InstanceNone
	}
	if ev.Until != nil && instant.After(*ev.Until) {
		return InstanceNone
	}
	for _, x := range exceptions {
		if x.EventID == ev.ID && x.StartTime.Equal(instant) {
			return InstanceNone
		}
	}
	for _, o := range overrides {
		if o.EventID == ev.ID && o.RecurrenceID.Equal(instant) {
			return InstanceOverridden
		}
	}
	if matchesPattern(ev, instant) {
		return InstanceGeneric
	}
	return InstanceNone
}

// matchesPattern reports whether instant falls on the event's generic
// periodic pattern. Every rule requires the base occurrence's clock time;
// the coarser rules additionally pin the weekday, day-of-month, or
// month+day.
func matchesPattern(ev model.Event, instant time.Time) bool {
	base := ev.StartTime.UTC()
	if instant.Hour() != base.Hour() || instant.Minute() != base.Minute() || instant.Second() != base.Second() {
		return false
	}
	switch ev.RepeatRule {
	case model.RepeatDaily:
		return true
	case model.RepeatWeekly:
		return instant.Weekday() == base.Weekday()
	case model.RepeatMonthly:
		return instant.Day() == base.Day()
	case model.RepeatYearly:
		return instant.Month() == base.Month() && instant.Day() == base.Day()
	default:
		return instant.Equal(base)
	}
}
