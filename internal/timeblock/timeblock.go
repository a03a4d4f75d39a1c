// Package timeblock provides wall-clock time-of-day values and the
// second-offset arithmetic the schedule planner is built on. All functions
// are pure; a TimeOfDay carries no date or timezone.
package timeblock

import (
	"fmt"
	"time"
)

// SecondsPerDay is the length of the planner's day in seconds.
const SecondsPerDay = 24 * 3600

// TimeOfDay is a time of day with second precision and no date component.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// New returns a TimeOfDay for the given clock reading.
func New(hour, minute, second int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}
}

// Parse parses a "15:04:05" formatted string.
func Parse(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// FromSeconds converts a second offset from the start of the day back to a
// TimeOfDay. Offsets at or past the end of the day clamp to 23:59:59, so a
// block ending exactly at midnight stays within the same calendar day.
func FromSeconds(sec int) TimeOfDay {
	if sec >= SecondsPerDay {
		return TimeOfDay{Hour: 23, Minute: 59, Second: 59}
	}
	if sec < 0 {
		sec = 0
	}
	return TimeOfDay{
		Hour:   sec / 3600,
		Minute: sec % 3600 / 60,
		Second: sec % 60,
	}
}

// Seconds returns the offset from the start of the day, in [0, 86400).
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// Before reports whether t reads earlier on the clock than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Seconds() < u.Seconds()
}

// IsZero reports whether t is exactly midnight.
func (t TimeOfDay) IsZero() bool {
	return t.Hour == 0 && t.Minute == 0 && t.Second == 0
}

// String formats the value as "15:04:05".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// MarshalJSON encodes the value as a "15:04:05" JSON string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a "15:04:05" JSON string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("time of day must be a %q string", "15:04:05")
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Block is a linear range of second offsets within a single day,
// half-open as [Start, End) with End at most 86400.
type Block struct {
	Start int
	End   int
}

// Duration returns the block length in seconds.
func (b Block) Duration() int {
	return b.End - b.Start
}

// Overlaps reports whether two blocks share any instant.
func (b Block) Overlaps(o Block) bool {
	return b.Start < o.End && o.Start < b.End
}

// Split converts a time-of-day interval into 1 or 2 linear blocks. An
// interval whose end reads earlier than its start wraps past midnight and
// becomes [start, 86400) plus, when the end is not midnight itself,
// [0, end). "Sleep 23:00-07:00" therefore yields two blocks.
func Split(start, end TimeOfDay) []Block {
	s, e := start.Seconds(), end.Seconds()
	if s > e {
		blocks := []Block{{Start: s, End: SecondsPerDay}}
		if e != 0 {
			blocks = append(blocks, Block{Start: 0, End: e})
		}
		return blocks
	}
	return []Block{{Start: s, End: e}}
}

// Duration returns the number of seconds from start to end, treating an
// end that reads earlier than the start as crossing midnight.
func Duration(start, end TimeOfDay) int {
	d := end.Seconds() - start.Seconds()
	if d < 0 {
		d += SecondsPerDay
	}
	return d
}
