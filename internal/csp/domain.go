package csp

import "github.com/mholloway/daybreak/internal/timeblock"

// WidthFor converts a duration in seconds to a slot count, rounding up.
func WidthFor(seconds int) int {
	return (seconds + SlotSeconds - 1) / SlotSeconds
}

// BlockSpan converts a second-offset block to the span of slots it covers,
// shifted to the given day of a multi-day timeline. Partial slots count as
// covered.
func BlockSpan(b timeblock.Block, day int) Span {
	offset := day * SlotsPerDay
	return Span{
		Start: offset + b.Start/SlotSeconds,
		End:   offset + (b.End+SlotSeconds-1)/SlotSeconds,
	}
}

// FreeSlots returns, in increasing order, every start slot in [0, horizon)
// where an item of the given width fits without overlapping any occupied
// span. This folds together the full-range construction and the
// per-variable trailing-window subtraction: a start is excluded both when
// it is covered and when its occupied range would run into a later block.
func FreeSlots(horizon, width int, occupied []Span) []int {
	if width <= 0 || width > horizon {
		return nil
	}
	taken := make([]bool, horizon)
	for _, sp := range occupied {
		for i := max(sp.Start, 0); i < min(sp.End, horizon); i++ {
			taken[i] = true
		}
	}

	var out []int
	free := 0
	// Scan backwards counting the free run to the right of each slot.
	starts := make([]bool, horizon)
	for i := horizon - 1; i >= 0; i-- {
		if taken[i] {
			free = 0
			continue
		}
		free++
		if free >= width {
			starts[i] = true
		}
	}
	for i := 0; i < horizon; i++ {
		if starts[i] {
			out = append(out, i)
		}
	}
	return out
}

// WithinDay filters a weekly domain down to starts whose occupied range
// stays inside a single calendar day. Weekly placements never span a day
// boundary; excluding the crossing starts here keeps that invariant out of
// the search entirely.
func WithinDay(domain []int, width int) []int {
	var out []int
	for _, d := range domain {
		if d%SlotsPerDay+width <= SlotsPerDay {
			out = append(out, d)
		}
	}
	return out
}

// PreferFront stable-partitions the domain so slots inside any preferred
// span come first, and returns the reordered domain together with the
// number of preferred slots that survived. The count feeds variable
// ordering: variables with fewer surviving preferred slots are more
// constrained.
func PreferFront(domain []int, preferred []Span) ([]int, int) {
	if len(preferred) == 0 {
		return domain, 0
	}
	var front, back []int
	for _, d := range domain {
		pref := false
		for _, sp := range preferred {
			if sp.Contains(d) {
				pref = true
				break
			}
		}
		if pref {
			front = append(front, d)
		} else {
			back = append(back, d)
		}
	}
	return append(front, back...), len(front)
}
