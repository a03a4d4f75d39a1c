package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mholloway/daybreak/internal/planner"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// writePlannerError maps the planner's error types onto HTTP statuses:
// bad input 400, missing entity 404, infeasible or overlapping 409.
func writePlannerError(w http.ResponseWriter, err error, fallback string) {
	var verr *planner.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Reason})
		return
	}
	var nerr *planner.NotFoundError
	if errors.As(err, &nerr) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": nerr.Error()})
		return
	}
	var cerr *planner.ConflictError
	if errors.As(err, &cerr) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": cerr.Reason})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fallback})
}
