package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/store"
	"github.com/mholloway/daybreak/internal/timeblock"
	ws "github.com/mholloway/daybreak/internal/websocket"
)

type PreferenceHandler struct {
	prefs     *store.PreferenceStore
	schedules *store.ScheduleStore
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewPreferenceHandler(ps *store.PreferenceStore, ss *store.ScheduleStore, hub *ws.Hub, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefs: ps, schedules: ss, hub: hub, logger: logger}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	pref, err := h.prefs.GetPreference(r.Context(), middleware.UserID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get preferences"})
		return
	}
	if pref == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "preferences not set"})
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

type preferenceRequest struct {
	WakeTime       *timeblock.TimeOfDay  `json:"wake_up_time"`
	SleepTime      *timeblock.TimeOfDay  `json:"sleep_time"`
	WorkdayStart   *timeblock.TimeOfDay  `json:"start_of_work_day"`
	WorkdayEnd     *timeblock.TimeOfDay  `json:"end_of_work_day"`
	BreakMinutes   int                   `json:"break_length"`
	BestFocusTimes []focusSessionRequest `json:"best_focus_times"`
}

// Put replaces the user's preferences and marks the schedule categories
// the change invalidates: sleep window changes re-plan sleep, habits and
// work; workday, break and focus-time changes re-plan habits and work.
func (h *PreferenceHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if (req.WakeTime == nil) != (req.SleepTime == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "wake_up_time and sleep_time must be set together"})
		return
	}
	if (req.WorkdayStart == nil) != (req.WorkdayEnd == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_of_work_day and end_of_work_day must be set together"})
		return
	}
	if req.BreakMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "break_length must not be negative"})
		return
	}
	for _, ft := range req.BestFocusTimes {
		if !ft.StartTime.Before(ft.EndTime) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "focus time start must be before end"})
			return
		}
	}

	old, err := h.prefs.GetPreference(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get preferences"})
		return
	}

	pref := &model.Preference{
		UserID:       userID,
		WakeTime:     req.WakeTime,
		SleepTime:    req.SleepTime,
		WorkdayStart: req.WorkdayStart,
		WorkdayEnd:   req.WorkdayEnd,
		BreakMinutes: req.BreakMinutes,
	}
	for _, ft := range req.BestFocusTimes {
		pref.BestFocusTimes = append(pref.BestFocusTimes, model.FocusTime{
			StartTime: ft.StartTime,
			EndTime:   ft.EndTime,
		})
	}

	saved, err := h.prefs.Save(r.Context(), pref)
	if err != nil {
		h.logger.Error("save preferences", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save preferences"})
		return
	}

	dirty := dirtyCategories(old, saved)
	if len(dirty) > 0 {
		if err := h.schedules.MarkDirty(r.Context(), userID, dirty...); err != nil {
			h.logger.Error("mark schedules dirty", "error", err)
		}
		h.hub.BroadcastTo(userID, ws.NewMessage("preferences", "updated", saved.ID, nil))
	}
	writeJSON(w, http.StatusOK, saved)
}

// dirtyCategories compares old and new preferences and returns the item
// categories whose planning input changed. Sleep window changes cascade
// to habits and work because the free space moves.
func dirtyCategories(prev, next *model.Preference) []model.ItemCategory {
	if prev == nil {
		return []model.ItemCategory{model.CategorySleep, model.CategoryHabit, model.CategoryFocusSession}
	}

	set := map[model.ItemCategory]bool{}
	if !todEqual(prev.WakeTime, next.WakeTime) || !todEqual(prev.SleepTime, next.SleepTime) {
		set[model.CategorySleep] = true
		set[model.CategoryHabit] = true
		set[model.CategoryFocusSession] = true
	}
	if !todEqual(prev.WorkdayStart, next.WorkdayStart) || !todEqual(prev.WorkdayEnd, next.WorkdayEnd) {
		set[model.CategoryFocusSession] = true
	}
	if prev.BreakMinutes != next.BreakMinutes {
		set[model.CategoryHabit] = true
		set[model.CategoryFocusSession] = true
	}
	if !focusTimesEqual(prev.BestFocusTimes, next.BestFocusTimes) {
		set[model.CategoryFocusSession] = true
	}

	var out []model.ItemCategory
	for _, c := range []model.ItemCategory{model.CategorySleep, model.CategoryHabit, model.CategoryFocusSession} {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

func todEqual(a, b *timeblock.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func focusTimesEqual(a, b []model.FocusTime) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].StartTime != b[i].StartTime || a[i].EndTime != b[i].EndTime {
			return false
		}
	}
	return true
}
