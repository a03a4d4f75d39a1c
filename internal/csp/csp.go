// Package csp places fixed-duration items into a discretized timeline via
// backtracking search with forward checking. The timeline is quantized
// into 15-minute slots: 96 per day, 672 per week. The solver returns the
// first feasible complete assignment; preference is expressed only through
// value ordering (preferred slots first, spacing-adjacent slots last) and
// variable ordering (longest duration first), not through a cost function.
package csp

import "sort"

const (
	// SlotSeconds is the width of one timeline slot.
	SlotSeconds = 15 * 60
	// SlotsPerDay is the day horizon.
	SlotsPerDay = 24 * 3600 / SlotSeconds
	// SlotsPerWeek is the week horizon.
	SlotsPerWeek = 7 * SlotsPerDay
)

// Span is a half-open range [Start, End) of slot indices.
type Span struct {
	Start int
	End   int
}

// Contains reports whether slot i lies inside the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

// Variable is one flexible item to place. Width is its duration in slots.
// PreferredSlots is the number of preferred start slots that survived
// domain construction; it is used purely for variable ordering.
type Variable struct {
	Name           string
	Width          int
	PreferredSlots int
}

// Assignment maps each variable to its chosen start slot; a variable's
// occupied range is [slot, slot+Width).
type Assignment map[*Variable]int

// Problem is a constraint problem over one timeline. Spacing is the soft
// minimum gap, in slots, encouraged between freshly placed items.
type Problem struct {
	horizon int
	spacing int
	vars    []*Variable
	domains [][]int
}

// NewProblem creates an empty problem over [0, horizon) slots.
func NewProblem(horizon, spacing int) *Problem {
	return &Problem{horizon: horizon, spacing: spacing}
}

// AddVariable registers a variable with its legal start slots. The domain
// is owned by the problem afterwards.
func (p *Problem) AddVariable(v *Variable, domain []int) {
	p.vars = append(p.vars, v)
	p.domains = append(p.domains, domain)
}

// Solve runs backtracking search and returns the first complete
// assignment found. ok is false when no feasible placement exists; the
// caller decides whether that is an error.
func (p *Problem) Solve() (Assignment, bool) {
	if len(p.vars) == 0 {
		return Assignment{}, true
	}

	// Static order: longest first, then most surviving preferred slots.
	// Stable so equal variables keep insertion order and reruns with the
	// same inputs reproduce the same placements.
	order := make([]int, len(p.vars))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := p.vars[order[a]], p.vars[order[b]]
		if va.Width != vb.Width {
			return va.Width > vb.Width
		}
		return va.PreferredSlots > vb.PreferredSlots
	})

	assignment := make([]int, len(p.vars))
	domains := copyDomains(p.domains)
	if !p.backtrack(order, 0, assignment, domains) {
		return nil, false
	}

	result := make(Assignment, len(p.vars))
	for i, v := range p.vars {
		result[v] = assignment[i]
	}
	return result, true
}

func (p *Problem) backtrack(order []int, depth int, assignment []int, domains [][]int) bool {
	if depth == len(order) {
		return true
	}

	vi := order[depth]
	v := p.vars[vi]
	// Iterate a private copy: forward checking mutates domains in place.
	candidates := append([]int(nil), domains[vi]...)

	for _, slot := range candidates {
		snapshot := copyDomains(domains)
		assignment[vi] = slot

		if p.forwardCheck(order, depth, v, slot, domains) {
			p.spaceOut(order, depth, v, slot, domains)
			if p.backtrack(order, depth+1, assignment, domains) {
				return true
			}
		}

		// Dead end: restore the pre-assignment domains and try the next
		// candidate.
		copy(domains, snapshot)
	}
	return false
}

// forwardCheck removes from every still-unassigned domain the start slots
// that now conflict with placing v at slot: the occupied range itself plus
// the trailing window of each variable's own width before it. Returns
// false if any domain empties.
func (p *Problem) forwardCheck(order []int, depth int, v *Variable, slot int, domains [][]int) bool {
	for _, ui := range order[depth+1:] {
		u := p.vars[ui]
		var kept []int
		for _, d := range domains[ui] {
			if d > slot-u.Width && d < slot+v.Width {
				continue
			}
			kept = append(kept, d)
		}
		if len(kept) == 0 {
			return false
		}
		domains[ui] = kept
	}
	return true
}

// spaceOut soft-deprioritizes, in every unassigned domain, the start slots
// whose occupied range would fall within the spacing halo around the new
// placement. They are moved to the back rather than removed, so back-to-
// back placement remains possible when nothing else fits.
func (p *Problem) spaceOut(order []int, depth int, v *Variable, slot int, domains [][]int) {
	if p.spacing == 0 {
		return
	}
	halo := Span{Start: slot - p.spacing, End: slot + v.Width + p.spacing}
	for _, ui := range order[depth+1:] {
		u := p.vars[ui]
		var front, back []int
		for _, d := range domains[ui] {
			if d < halo.End && d+u.Width > halo.Start {
				back = append(back, d)
			} else {
				front = append(front, d)
			}
		}
		domains[ui] = append(front, back...)
	}
}

func copyDomains(domains [][]int) [][]int {
	out := make([][]int, len(domains))
	for i, d := range domains {
		out[i] = append([]int(nil), d...)
	}
	return out
}
