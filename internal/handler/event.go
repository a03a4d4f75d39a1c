package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/recurrence"
	"github.com/mholloway/daybreak/internal/store"
	ws "github.com/mholloway/daybreak/internal/websocket"
)

type EventHandler struct {
	events    *store.EventStore
	schedules *store.ScheduleStore
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewEventHandler(es *store.EventStore, ss *store.ScheduleStore, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: es, schedules: ss, hub: hub, logger: logger}
}

type eventRequest struct {
	Summary     string `json:"summary"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	RepeatRule  string `json:"repeat_rule"`
	Until       string `json:"until"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (h *EventHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}

	req.Summary = strings.TrimSpace(req.Summary)
	if req.Summary == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "summary is required"})
		return nil, false
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be RFC3339 format"})
		return nil, false
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be RFC3339 format"})
		return nil, false
	}
	if endTime.Before(startTime) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must not be after end_time"})
		return nil, false
	}

	if req.RepeatRule == "" {
		req.RepeatRule = string(model.RepeatNever)
	}
	if !model.ValidRepeatRule(req.RepeatRule) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown repeat_rule"})
		return nil, false
	}

	ev := &model.Event{
		UserID:      middleware.UserID(r),
		Summary:     req.Summary,
		StartTime:   startTime,
		EndTime:     endTime,
		RepeatRule:  model.RepeatRule(req.RepeatRule),
		Description: req.Description,
		Location:    req.Location,
	}
	if req.Until != "" {
		until, err := time.Parse(time.RFC3339, req.Until)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "until must be RFC3339 format"})
			return nil, false
		}
		if until.Before(startTime) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "until must not be before start_time"})
			return nil, false
		}
		ev.Until = &until
	}
	return ev, true
}

// markEventSchedulesDirty flags the user's schedules for an event refresh
// and notifies their clients.
func (h *EventHandler) markEventSchedulesDirty(r *http.Request, eventID int64, action string) {
	userID := middleware.UserID(r)
	if err := h.schedules.MarkDirty(r.Context(), userID, model.CategoryEvent); err != nil {
		h.logger.Error("mark schedules dirty", "error", err)
	}
	h.hub.BroadcastTo(userID, ws.NewMessage("event", action, eventID, nil))
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	event, err := h.events.Create(r.Context(), ev)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create event"})
		return
	}

	h.markEventSchedulesDirty(r, event.ID, "created")
	writeJSON(w, http.StatusCreated, event)
}

// List returns the user's event records, or — when start and end query
// parameters are given — the expanded occurrences in that range.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" && endStr == "" {
		events, err := h.events.ListByUser(r.Context(), userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list events"})
			return
		}
		if events == nil {
			events = []model.Event{}
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be RFC3339 or YYYY-MM-DD format"})
		return
	}
	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be RFC3339 or YYYY-MM-DD format"})
		return
	}

	occs, err := h.events.EventsInRange(r.Context(), userID, start, end, time.UTC)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to expand events"})
		return
	}
	if occs == nil {
		occs = []recurrence.Occurrence{}
	}
	writeJSON(w, http.StatusOK, occs)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	event, err := h.events.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if event == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// instanceParam parses the optional instance query parameter naming one
// occurrence of a recurring event by its generic start instant.
func instanceParam(r *http.Request) (time.Time, bool, error) {
	raw := r.URL.Query().Get("instance")
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, true, err
}

// Update rewrites the whole series, or — with an instance parameter —
// stores an override for that single occurrence and leaves the series
// untouched.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.events.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	instant, single, err := instanceParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "instance must be RFC3339 format"})
		return
	}

	ev, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	if single {
		overrides, exceptions, err := h.events.Extras(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load event extras"})
			return
		}
		if recurrence.CheckInstance(*existing, overrides, exceptions, instant) == recurrence.InstanceNone {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no occurrence at that instant"})
			return
		}

		err = h.events.SaveOverride(r.Context(), &model.InstanceOverride{
			EventID:      id,
			RecurrenceID: instant,
			Summary:      ev.Summary,
			StartTime:    ev.StartTime,
			EndTime:      ev.EndTime,
			Description:  ev.Description,
			Location:     ev.Location,
		})
		if err != nil {
			h.logger.Error("save override", "event_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update occurrence"})
			return
		}

		h.markEventSchedulesDirty(r, id, "updated")
		writeJSON(w, http.StatusOK, existing)
		return
	}

	ev.ID = id
	event, err := h.events.Update(r.Context(), ev)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update event"})
		return
	}

	h.markEventSchedulesDirty(r, id, "updated")
	writeJSON(w, http.StatusOK, event)
}

// Delete removes the whole series, or — with an instance parameter —
// records an exception for that single occurrence.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.events.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	instant, single, err := instanceParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "instance must be RFC3339 format"})
		return
	}

	if single {
		overrides, exceptions, err := h.events.Extras(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load event extras"})
			return
		}
		if recurrence.CheckInstance(*existing, overrides, exceptions, instant) == recurrence.InstanceNone {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no occurrence at that instant"})
			return
		}
		if err := h.events.AddException(r.Context(), id, instant); err != nil {
			h.logger.Error("add exception", "event_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete occurrence"})
			return
		}

		h.markEventSchedulesDirty(r, id, "updated")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.events.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete event"})
		return
	}

	h.markEventSchedulesDirty(r, id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
