package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/store"
	ws "github.com/mholloway/daybreak/internal/websocket"
)

type HabitHandler struct {
	habits    *store.HabitStore
	schedules *store.ScheduleStore
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewHabitHandler(hs *store.HabitStore, ss *store.ScheduleStore, hub *ws.Hub, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: hs, schedules: ss, hub: hub, logger: logger}
}

type habitRequest struct {
	Name           string `json:"name"`
	Frequency      int    `json:"frequency"`
	Duration       int    `json:"duration"`
	RepeatInterval string `json:"repeat_interval"`
	Morning        bool   `json:"morning"`
	Afternoon      bool   `json:"afternoon"`
	Evening        bool   `json:"evening"`
	Night          bool   `json:"night"`
}

// normalizeHabitName lowercases the name and replaces spaces with dashes,
// so "Morning Run" and "morning run" are the same habit.
func normalizeHabitName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "-")
}

func (h *HabitHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Habit, bool) {
	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}

	name := normalizeHabitName(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return nil, false
	}
	if req.Frequency < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frequency must be at least 1"})
		return nil, false
	}
	if req.Duration < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration must be at least 1 minute"})
		return nil, false
	}
	if req.RepeatInterval == "" {
		req.RepeatInterval = string(model.IntervalDaily)
	}
	if !model.ValidRepeatInterval(req.RepeatInterval) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown repeat_interval"})
		return nil, false
	}

	return &model.Habit{
		UserID:         middleware.UserID(r),
		Name:           name,
		Frequency:      req.Frequency,
		Duration:       req.Duration,
		RepeatInterval: model.RepeatInterval(req.RepeatInterval),
		Morning:        req.Morning,
		Afternoon:      req.Afternoon,
		Evening:        req.Evening,
		Night:          req.Night,
	}, true
}

func (h *HabitHandler) markHabitSchedulesDirty(r *http.Request, habitID int64, action string) {
	userID := middleware.UserID(r)
	if err := h.schedules.MarkDirty(r.Context(), userID, model.CategoryHabit); err != nil {
		h.logger.Error("mark schedules dirty", "error", err)
	}
	h.hub.BroadcastTo(userID, ws.NewMessage("habit", action, habitID, nil))
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	habit, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	created, err := h.habits.Create(r.Context(), habit)
	if err != nil {
		h.logger.Error("create habit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create habit"})
		return
	}

	h.markHabitSchedulesDirty(r, created.ID, "created")
	writeJSON(w, http.StatusCreated, created)
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("repeat_interval")
	if interval != "" && !model.ValidRepeatInterval(interval) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown repeat_interval"})
		return
	}

	habits, err := h.habits.ListHabits(r.Context(), middleware.UserID(r), model.RepeatInterval(interval))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list habits"})
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	habit, err := h.habits.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if habit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.habits.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}

	habit, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}
	habit.ID = id

	updated, err := h.habits.Update(r.Context(), habit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update habit"})
		return
	}

	h.markHabitSchedulesDirty(r, id, "updated")
	writeJSON(w, http.StatusOK, updated)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.habits.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}

	if err := h.habits.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete habit"})
		return
	}

	h.markHabitSchedulesDirty(r, id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

type completionRequest struct {
	Date string `json:"date"`
}

// Complete records one completed occurrence of the habit on a date.
func (h *HabitHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	habit, err := h.habits.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if habit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !validDate(req.Date) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD format"})
		return
	}

	completion, err := h.habits.RecordCompletion(r.Context(), id, req.Date)
	if err != nil {
		h.logger.Error("record completion", "habit_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record completion"})
		return
	}

	h.hub.BroadcastTo(middleware.UserID(r), ws.NewMessage("habit", "completed", id, map[string]any{"date": req.Date}))
	writeJSON(w, http.StatusCreated, completion)
}

// Completions lists the habit's completions in the from/to date range.
func (h *HabitHandler) Completions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	habit, err := h.habits.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get habit"})
		return
	}
	if habit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if !validDate(from) || !validDate(to) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to must be YYYY-MM-DD format"})
		return
	}

	completions, err := h.habits.ListCompletions(r.Context(), id, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list completions"})
		return
	}
	if completions == nil {
		completions = []model.HabitCompletion{}
	}
	writeJSON(w, http.StatusOK, completions)
}
