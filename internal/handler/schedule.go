package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/planner"
	"github.com/mholloway/daybreak/internal/timeblock"
	ws "github.com/mholloway/daybreak/internal/websocket"
)

type ScheduleHandler struct {
	planner *planner.Planner
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewScheduleHandler(p *planner.Planner, hub *ws.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{planner: p, hub: hub, logger: logger}
}

// requestScope pulls the date path segment and the timezone query
// parameter every schedule route needs.
func requestScope(r *http.Request) (userID int64, date, tz string) {
	return middleware.UserID(r), r.PathValue("date"), r.URL.Query().Get("timezone")
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, date, tz := requestScope(r)

	sched, err := h.planner.GetOrRefresh(r.Context(), userID, date, tz)
	if err != nil {
		h.logger.Error("get schedule", "date", date, "error", err)
		writePlannerError(w, err, "failed to get schedule")
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	userID, date, tz := requestScope(r)

	week, err := h.planner.Week(r.Context(), userID, date, tz)
	if err != nil {
		h.logger.Error("get week", "date", date, "error", err)
		writePlannerError(w, err, "failed to get week")
		return
	}
	writeJSON(w, http.StatusOK, week)
}

type focusSessionRequest struct {
	StartTime timeblock.TimeOfDay `json:"start_time"`
	EndTime   timeblock.TimeOfDay `json:"end_time"`
}

func (h *ScheduleHandler) CreateFocusSession(w http.ResponseWriter, r *http.Request) {
	userID, date, tz := requestScope(r)

	var req focusSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	sched, err := h.planner.CreateFocusSession(r.Context(), userID, date, tz, req.StartTime, req.EndTime)
	if err != nil {
		writePlannerError(w, err, "failed to create focus session")
		return
	}

	h.hub.BroadcastTo(userID, ws.NewMessage("schedule", "updated", sched.ID, map[string]any{"date": sched.Date}))
	writeJSON(w, http.StatusCreated, sched)
}

type itemUpdateRequest struct {
	Name      *string              `json:"name"`
	StartTime *timeblock.TimeOfDay `json:"start_time"`
	EndTime   *timeblock.TimeOfDay `json:"end_time"`
}

func (h *ScheduleHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, date, tz := requestScope(r)

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req itemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	sched, err := h.planner.UpdateItem(r.Context(), userID, date, tz, id, planner.ItemUpdate{
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writePlannerError(w, err, "failed to update schedule item")
		return
	}

	h.hub.BroadcastTo(userID, ws.NewMessage("schedule", "updated", sched.ID, map[string]any{"date": sched.Date}))
	writeJSON(w, http.StatusOK, sched)
}

func (h *ScheduleHandler) RemoveFocusSession(w http.ResponseWriter, r *http.Request) {
	userID, date, tz := requestScope(r)

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	sched, err := h.planner.RemoveFocusSession(r.Context(), userID, date, tz, id)
	if err != nil {
		writePlannerError(w, err, "failed to remove focus session")
		return
	}

	h.hub.BroadcastTo(userID, ws.NewMessage("schedule", "updated", sched.ID, map[string]any{"date": sched.Date}))
	writeJSON(w, http.StatusOK, sched)
}
