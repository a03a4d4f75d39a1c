package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/store"
	ws "github.com/mholloway/daybreak/internal/websocket"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	tags   *store.TagStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, tgs *store.TagStore, hub *ws.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, tags: tgs, hub: hub, logger: logger}
}

type taskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Done        bool   `json:"done"`
	TagID       *int64 `json:"tag_id"`
}

func (h *TaskHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return nil, false
	}

	task := &model.Task{
		UserID:      middleware.UserID(r),
		Name:        req.Name,
		Description: req.Description,
		Done:        req.Done,
		TagID:       req.TagID,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deadline must be RFC3339 format"})
			return nil, false
		}
		task.Deadline = &deadline
	}

	if req.TagID != nil {
		tag, err := h.tags.GetByID(r.Context(), task.UserID, *req.TagID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check tag"})
			return nil, false
		}
		if tag == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tag not found"})
			return nil, false
		}
	}
	return task, true
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	task, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	created, err := h.tasks.Create(r.Context(), task)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.hub.BroadcastTo(created.UserID, ws.NewMessage("task", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListByUser(r.Context(), middleware.UserID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.tasks.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	task, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}
	task.ID = id

	updated, err := h.tasks.Update(r.Context(), task)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.hub.BroadcastTo(updated.UserID, ws.NewMessage("task", "updated", id, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.tasks.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	if err := h.tasks.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	h.hub.BroadcastTo(middleware.UserID(r), ws.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Name   string `json:"name"`
	Colour string `json:"colour"`
}

func (h *TaskHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !model.ValidTagColour(req.Colour) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown colour"})
		return
	}

	tag, err := h.tags.Create(r.Context(), middleware.UserID(r), req.Name, model.TagColour(req.Colour))
	if err != nil {
		h.logger.Error("create tag", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create tag"})
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *TaskHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListByUser(r.Context(), middleware.UserID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tags"})
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *TaskHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.tags.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tag"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tag not found"})
		return
	}

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !model.ValidTagColour(req.Colour) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown colour"})
		return
	}

	tag, err := h.tags.Update(r.Context(), middleware.UserID(r), id, req.Name, model.TagColour(req.Colour))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update tag"})
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *TaskHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.tags.GetByID(r.Context(), middleware.UserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tag"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tag not found"})
		return
	}

	if err := h.tags.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete tag"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
