package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mholloway/daybreak/internal/csp"
	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/timeblock"
)

const (
	// minFocusSessions is the floor on focus sessions planned per day.
	minFocusSessions = 4
	// focusSessionSeconds is the duration of a generated focus session.
	focusSessionSeconds = 3600
)

// Habit time-of-day preference windows, in slots. Night wraps midnight and
// contributes two spans.
var (
	morningSpan    = csp.Span{Start: 6 * 4, End: 12 * 4}
	afternoonSpan  = csp.Span{Start: 12 * 4, End: 18 * 4}
	eveningSpan    = csp.Span{Start: 18 * 4, End: 22 * 4}
	nightSpanLate  = csp.Span{Start: 22 * 4, End: 24 * 4}
	nightSpanEarly = csp.Span{Start: 0, End: 6 * 4}
)

// refreshDay runs the stage pipeline for one schedule in the fixed order
// sleep, events, habits, work. Each completed stage is persisted before
// the next starts, so a later failure leaves earlier categories committed
// and the failed category's flag still set.
func (p *Planner) refreshDay(ctx context.Context, userID int64, sched *model.Schedule, tz string, loc *time.Location) error {
	markTimezoneChange(sched, tz)

	pref, err := p.prefs.GetPreference(ctx, userID)
	if err != nil {
		return fmt.Errorf("get preference: %w", err)
	}

	if sched.NeedsSleepRefresh {
		rebuildSleep(sched, pref)
		if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
			return fmt.Errorf("persist sleep stage: %w", err)
		}
	}

	if sched.NeedsEventRefresh {
		if err := p.rebuildEvents(ctx, userID, sched, tz, loc); err != nil {
			return err
		}
		if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
			return fmt.Errorf("persist event stage: %w", err)
		}
	}

	if sched.NeedsHabitRefresh {
		daily, err := p.habits.ListHabits(ctx, userID, model.IntervalDaily)
		if err != nil {
			return fmt.Errorf("list daily habits: %w", err)
		}
		weekly, err := p.habits.ListHabits(ctx, userID, model.IntervalWeekly)
		if err != nil {
			return fmt.Errorf("list weekly habits: %w", err)
		}
		if err := rebuildDailyHabits(sched, daily, pref); err != nil {
			return err
		}
		// Weekly-frequency habits need the full 7-day horizon, which only
		// the weekly director has. The flag stays set until it runs, so a
		// cleared flag always means the category is complete.
		sched.NeedsHabitRefresh = len(weekly) > 0
		if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
			return fmt.Errorf("persist habit stage: %w", err)
		}
	}

	if sched.NeedsWorkRefresh {
		if err := rebuildWork(sched, pref); err != nil {
			return err
		}
		if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
			return fmt.Errorf("persist work stage: %w", err)
		}
	}

	return nil
}

// refreshWeek runs the pipeline over seven consecutive schedules. Daily
// categories go per day in the usual order; weekly-frequency habits are
// solved once over the concatenated 7-day timeline after daily habits,
// then work sessions close out each day.
func (p *Planner) refreshWeek(ctx context.Context, userID int64, scheds []*model.Schedule, tz string, loc *time.Location) error {
	pref, err := p.prefs.GetPreference(ctx, userID)
	if err != nil {
		return fmt.Errorf("get preference: %w", err)
	}
	for _, s := range scheds {
		markTimezoneChange(s, tz)
	}

	for _, s := range scheds {
		if s.NeedsSleepRefresh {
			rebuildSleep(s, pref)
			if err := p.schedules.PersistSchedule(ctx, s); err != nil {
				return fmt.Errorf("persist sleep stage: %w", err)
			}
		}
		if s.NeedsEventRefresh {
			if err := p.rebuildEvents(ctx, userID, s, tz, loc); err != nil {
				return err
			}
			if err := p.schedules.PersistSchedule(ctx, s); err != nil {
				return fmt.Errorf("persist event stage: %w", err)
			}
		}
	}

	anyHabit := false
	for _, s := range scheds {
		if s.NeedsHabitRefresh {
			anyHabit = true
			break
		}
	}
	if anyHabit {
		daily, err := p.habits.ListHabits(ctx, userID, model.IntervalDaily)
		if err != nil {
			return fmt.Errorf("list daily habits: %w", err)
		}
		weekly, err := p.habits.ListHabits(ctx, userID, model.IntervalWeekly)
		if err != nil {
			return fmt.Errorf("list weekly habits: %w", err)
		}

		// Daily habits per dirty day first; weekly sticky slots are kept
		// for the cross-week solve below.
		weeklyNames := habitNames(weekly)
		removedWeekly := make([][]model.ScheduleItem, len(scheds))
		for i, s := range scheds {
			if !s.NeedsHabitRefresh {
				continue
			}
			removedWeekly[i] = removeHabitItems(s, weeklyNames)
			if err := rebuildDailyHabits(s, daily, pref); err != nil {
				return err
			}
		}

		if err := placeWeeklyHabits(scheds, weekly, pref, removedWeekly); err != nil {
			return err
		}

		for _, s := range scheds {
			if s.NeedsHabitRefresh {
				s.NeedsHabitRefresh = false
				if err := p.schedules.PersistSchedule(ctx, s); err != nil {
					return fmt.Errorf("persist habit stage: %w", err)
				}
			}
		}
	}

	for _, s := range scheds {
		if s.NeedsWorkRefresh {
			if err := rebuildWork(s, pref); err != nil {
				return err
			}
			if err := p.schedules.PersistSchedule(ctx, s); err != nil {
				return fmt.Errorf("persist work stage: %w", err)
			}
		}
	}

	return nil
}

// markTimezoneChange re-dirties the timezone-relative categories when the
// requested zone differs from the one the schedule was generated under.
func markTimezoneChange(s *model.Schedule, tz string) {
	if s.Timezone == "" || s.Timezone == tz {
		return
	}
	if len(s.ItemsOf(model.CategoryEvent)) == 0 {
		return
	}
	s.NeedsEventRefresh = true
	s.NeedsHabitRefresh = true
	s.NeedsWorkRefresh = true
}

// rebuildSleep replaces the schedule's sleep items from the preference's
// sleep window. The window wraps midnight into two items when needed.
func rebuildSleep(s *model.Schedule, pref *model.Preference) {
	s.RemoveItems(model.CategorySleep, false)
	if pref != nil && pref.SleepTime != nil && pref.WakeTime != nil {
		for _, b := range timeblock.Split(*pref.SleepTime, *pref.WakeTime) {
			s.Items = append(s.Items, model.ScheduleItem{
				Name:      "Sleep",
				StartTime: timeblock.FromSeconds(b.Start),
				EndTime:   timeblock.FromSeconds(b.End),
				Category:  model.CategorySleep,
			})
		}
	}
	s.NeedsSleepRefresh = false
}

// rebuildEvents replaces the schedule's event items with the occurrences
// intersecting the schedule's local day, clipped to the day boundary, and
// records the timezone the day bounds were computed in.
func (p *Planner) rebuildEvents(ctx context.Context, userID int64, s *model.Schedule, tz string, loc *time.Location) error {
	dayStart, err := time.ParseInLocation("2006-01-02", s.Date, loc)
	if err != nil {
		return fmt.Errorf("parse schedule date %q: %w", s.Date, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	occs, err := p.events.EventsInRange(ctx, userID, dayStart, dayEnd, loc)
	if err != nil {
		return fmt.Errorf("events in range: %w", err)
	}

	s.RemoveItems(model.CategoryEvent, false)
	for _, occ := range occs {
		start, end := occ.StartTime, occ.EndTime
		if !start.Before(dayEnd) || !end.After(dayStart) {
			continue
		}
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}

		startTod := timeblock.New(start.In(loc).Clock())
		var endTod timeblock.TimeOfDay
		if end.Equal(dayEnd) {
			endTod = timeblock.FromSeconds(timeblock.SecondsPerDay)
		} else {
			endTod = timeblock.New(end.In(loc).Clock())
		}

		s.Items = append(s.Items, model.ScheduleItem{
			Name:      occ.Summary,
			StartTime: startTod,
			EndTime:   endTod,
			Category:  model.CategoryEvent,
		})
	}

	s.Timezone = tz
	s.NeedsEventRefresh = false
	return nil
}

// rebuildDailyHabits re-places the schedule's daily-habit items. Locked
// items stay put as occupied blocks; non-locked items are discarded and
// re-solved, with their previous start slots front-loaded so placements
// stay sticky when nothing material changed. Weekly-habit items are not
// touched here; only the weekly director regenerates them.
func rebuildDailyHabits(s *model.Schedule, daily []model.Habit, pref *model.Preference) error {
	if len(daily) == 0 {
		return nil
	}

	original := s.Items
	removed := removeHabitItems(s, habitNames(daily))

	problem := csp.NewProblem(csp.SlotsPerDay, breakSlots(pref))
	occupied := occupiedSpans(s.Items, 0)
	for _, h := range daily {
		width := csp.WidthFor(h.Duration * 60)
		preferred := habitPreferredSpans(h, 0)
		prev := itemStartSlots(removed, h.Name, 0)
		for i := 0; i < h.Frequency; i++ {
			domain := csp.FreeSlots(csp.SlotsPerDay, width, occupied)
			domain, count := csp.PreferFront(domain, preferred)
			domain = frontLoad(domain, prev)
			problem.AddVariable(&csp.Variable{Name: h.Name, Width: width, PreferredSlots: count}, domain)
		}
	}

	assignment, ok := problem.Solve()
	if !ok {
		s.Items = original
		return &ConflictError{Reason: "could not find time slots for daily habit sessions"}
	}
	s.Items = append(s.Items, placementItems(assignment, model.CategoryHabit)...)
	return nil
}

// placeWeeklyHabits solves every weekly-frequency habit once over the
// concatenated 7-day timeline and distributes the placements back to the
// per-day schedules. Only days whose habit flag is dirty receive new
// placements; surviving items on clean or locked slots count toward each
// habit's weekly frequency. A placement never spans a day boundary.
func placeWeeklyHabits(scheds []*model.Schedule, weekly []model.Habit, pref *model.Preference, removedByDay [][]model.ScheduleItem) error {
	if len(weekly) == 0 {
		return nil
	}

	horizon := len(scheds) * csp.SlotsPerDay
	var occupied []csp.Span
	var dirtyDays []csp.Span
	for i, s := range scheds {
		occupied = append(occupied, occupiedSpans(s.Items, i)...)
		if s.NeedsHabitRefresh {
			dirtyDays = append(dirtyDays, csp.Span{Start: i * csp.SlotsPerDay, End: (i + 1) * csp.SlotsPerDay})
		}
	}
	if len(dirtyDays) == 0 {
		return nil
	}

	problem := csp.NewProblem(horizon, breakSlots(pref))
	for _, h := range weekly {
		width := csp.WidthFor(h.Duration * 60)

		existing := 0
		for _, s := range scheds {
			for _, it := range s.ItemsOf(model.CategoryHabit) {
				if it.Name == h.Name {
					existing++
				}
			}
		}
		need := h.Frequency - existing
		if need <= 0 {
			continue
		}

		var preferred []csp.Span
		var prev []int
		for i := range scheds {
			if !scheds[i].NeedsHabitRefresh {
				continue
			}
			preferred = append(preferred, habitPreferredSpans(h, i)...)
			prev = append(prev, itemStartSlots(removedByDay[i], h.Name, i)...)
		}

		for i := 0; i < need; i++ {
			domain := csp.FreeSlots(horizon, width, occupied)
			domain = csp.WithinDay(domain, width)
			domain = restrictTo(domain, dirtyDays)
			domain, count := csp.PreferFront(domain, preferred)
			domain = frontLoad(domain, prev)
			problem.AddVariable(&csp.Variable{Name: h.Name, Width: width, PreferredSlots: count}, domain)
		}
	}

	assignment, ok := problem.Solve()
	if !ok {
		return &ConflictError{Reason: "could not find time slots for weekly habit sessions"}
	}

	for _, pl := range sortedPlacements(assignment) {
		day := pl.slot / csp.SlotsPerDay
		start := pl.slot % csp.SlotsPerDay
		scheds[day].Items = append(scheds[day].Items, model.ScheduleItem{
			Name:      pl.name,
			StartTime: timeblock.FromSeconds(start * csp.SlotSeconds),
			EndTime:   timeblock.FromSeconds((start + pl.width) * csp.SlotSeconds),
			Category:  model.CategoryHabit,
		})
	}
	return nil
}

// rebuildWork re-places the day's focus sessions. The session inventory
// is the carried-over session count with a floor of minFocusSessions;
// locked sessions stay put and reduce the number of fresh variables.
// Hours outside the preference's workday are treated as occupied.
func rebuildWork(s *model.Schedule, pref *model.Preference) error {
	original := s.Items
	removed := s.RemoveItems(model.CategoryFocusSession, true)
	lockedCount := len(s.ItemsOf(model.CategoryFocusSession))

	total := lockedCount + len(removed)
	if total < minFocusSessions {
		total = minFocusSessions
	}
	need := total - lockedCount
	if need <= 0 {
		s.NeedsWorkRefresh = false
		return nil
	}

	occupied := occupiedSpans(s.Items, 0)
	if pref != nil && pref.WorkdayStart != nil && pref.WorkdayEnd != nil {
		for _, b := range timeblock.Split(*pref.WorkdayEnd, *pref.WorkdayStart) {
			occupied = append(occupied, csp.BlockSpan(b, 0))
		}
	}

	var preferred []csp.Span
	if pref != nil {
		for _, ft := range pref.BestFocusTimes {
			for _, b := range timeblock.Split(ft.StartTime, ft.EndTime) {
				preferred = append(preferred, csp.BlockSpan(b, 0))
			}
		}
	}
	prev := itemStartSlots(removed, "", 0)

	problem := csp.NewProblem(csp.SlotsPerDay, breakSlots(pref))
	width := csp.WidthFor(focusSessionSeconds)
	for i := 0; i < need; i++ {
		domain := csp.FreeSlots(csp.SlotsPerDay, width, occupied)
		domain, count := csp.PreferFront(domain, preferred)
		domain = frontLoad(domain, prev)
		problem.AddVariable(&csp.Variable{Name: "Work session", Width: width, PreferredSlots: count}, domain)
	}

	assignment, ok := problem.Solve()
	if !ok {
		s.Items = original
		return &ConflictError{Reason: "could not find time slots for work sessions"}
	}
	s.Items = append(s.Items, placementItems(assignment, model.CategoryFocusSession)...)
	s.NeedsWorkRefresh = false
	return nil
}

type placement struct {
	name  string
	slot  int
	width int
}

func sortedPlacements(a csp.Assignment) []placement {
	out := make([]placement, 0, len(a))
	for v, slot := range a {
		out = append(out, placement{name: v.Name, slot: slot, width: v.Width})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].slot < out[j].slot })
	return out
}

func placementItems(a csp.Assignment, cat model.ItemCategory) []model.ScheduleItem {
	var items []model.ScheduleItem
	for _, pl := range sortedPlacements(a) {
		start := pl.slot % csp.SlotsPerDay
		items = append(items, model.ScheduleItem{
			Name:      pl.name,
			StartTime: timeblock.FromSeconds(start * csp.SlotSeconds),
			EndTime:   timeblock.FromSeconds((start + pl.width) * csp.SlotSeconds),
			Category:  cat,
		})
	}
	return items
}

func habitNames(habits []model.Habit) map[string]bool {
	names := make(map[string]bool, len(habits))
	for _, h := range habits {
		names[h.Name] = true
	}
	return names
}

// removeHabitItems pulls the schedule's non-locked habit items whose name
// is in the set, returning them for sticky re-placement.
func removeHabitItems(s *model.Schedule, names map[string]bool) []model.ScheduleItem {
	var kept, removed []model.ScheduleItem
	for _, it := range s.Items {
		if it.Category == model.CategoryHabit && !it.Locked && names[it.Name] {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	s.Items = kept
	return removed
}

func habitPreferredSpans(h model.Habit, day int) []csp.Span {
	offset := day * csp.SlotsPerDay
	var spans []csp.Span
	add := func(sp csp.Span) {
		spans = append(spans, csp.Span{Start: sp.Start + offset, End: sp.End + offset})
	}
	if h.Morning {
		add(morningSpan)
	}
	if h.Afternoon {
		add(afternoonSpan)
	}
	if h.Evening {
		add(eveningSpan)
	}
	if h.Night {
		add(nightSpanLate)
		add(nightSpanEarly)
	}
	return spans
}

// itemStartSlots returns the start slots of the given items (optionally
// filtered by name), shifted to the given day offset.
func itemStartSlots(items []model.ScheduleItem, name string, day int) []int {
	var slots []int
	for _, it := range items {
		if name != "" && it.Name != name {
			continue
		}
		slots = append(slots, day*csp.SlotsPerDay+it.StartTime.Seconds()/csp.SlotSeconds)
	}
	return slots
}

func occupiedSpans(items []model.ScheduleItem, day int) []csp.Span {
	spans := make([]csp.Span, 0, len(items))
	for _, it := range items {
		b := timeblock.Block{Start: it.StartTime.Seconds(), End: it.EndTime.Seconds()}
		spans = append(spans, csp.BlockSpan(b, day))
	}
	return spans
}

// frontLoad moves the given slots, in order, to the front of the domain.
// Slots not present in the domain are ignored.
func frontLoad(domain []int, slots []int) []int {
	if len(slots) == 0 {
		return domain
	}
	present := make(map[int]bool, len(domain))
	for _, d := range domain {
		present[d] = true
	}

	var front []int
	seen := make(map[int]bool, len(slots))
	for _, s := range slots {
		if present[s] && !seen[s] {
			front = append(front, s)
			seen[s] = true
		}
	}
	if len(front) == 0 {
		return domain
	}
	for _, d := range domain {
		if !seen[d] {
			front = append(front, d)
		}
	}
	return front
}

// restrictTo filters the domain down to slots inside any of the spans.
func restrictTo(domain []int, spans []csp.Span) []int {
	var out []int
	for _, d := range domain {
		for _, sp := range spans {
			if sp.Contains(d) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func breakSlots(pref *model.Preference) int {
	if pref == nil || pref.BreakMinutes <= 0 {
		return 0
	}
	return csp.WidthFor(pref.BreakMinutes * 60)
}
