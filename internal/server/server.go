package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mholloway/daybreak/internal/handler"
	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/planner"
	"github.com/mholloway/daybreak/internal/store"
	ws "github.com/mholloway/daybreak/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	scheduleH     *handler.ScheduleHandler
	eventH        *handler.EventHandler
	habitH        *handler.HabitHandler
	preferenceH   *handler.PreferenceHandler
	taskH         *handler.TaskHandler
	scheduleStore *store.ScheduleStore
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	eventStore := store.NewEventStore(db)
	habitStore := store.NewHabitStore(db)
	preferenceStore := store.NewPreferenceStore(db)
	scheduleStore := store.NewScheduleStore(db)
	taskStore := store.NewTaskStore(db)
	tagStore := store.NewTagStore(db)

	p := planner.New(preferenceStore, habitStore, eventStore, scheduleStore, logger.With("component", "planner"))

	return &Server{
		db:            db,
		hub:           hub,
		scheduleH:     handler.NewScheduleHandler(p, hub, logger.With("component", "schedule")),
		eventH:        handler.NewEventHandler(eventStore, scheduleStore, hub, logger.With("component", "event")),
		habitH:        handler.NewHabitHandler(habitStore, scheduleStore, hub, logger.With("component", "habit")),
		preferenceH:   handler.NewPreferenceHandler(preferenceStore, scheduleStore, hub, logger.With("component", "preference")),
		taskH:         handler.NewTaskHandler(taskStore, tagStore, hub, logger.With("component", "task")),
		scheduleStore: scheduleStore,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// ScheduleStore returns the schedule store for cleanup tasks.
func (s *Server) ScheduleStore() *store.ScheduleStore {
	return s.scheduleStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no user header required)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// API routes — wrapped with RequireUser middleware
	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)

	userMiddleware := middleware.RequireUser()
	outerMux.Handle("/", userMiddleware(apiMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Schedule API routes
	mux.HandleFunc("GET /api/schedules/{date}", s.scheduleH.Get)
	mux.HandleFunc("GET /api/schedules/{date}/week", s.scheduleH.Week)
	mux.HandleFunc("POST /api/schedules/{date}/items", s.rateLimitedHandler(s.scheduleH.CreateFocusSession))
	mux.HandleFunc("PUT /api/schedules/{date}/items/{id}", s.rateLimitedHandler(s.scheduleH.UpdateItem))
	mux.HandleFunc("DELETE /api/schedules/{date}/items/{id}", s.rateLimitedHandler(s.scheduleH.RemoveFocusSession))

	// Event API routes
	mux.HandleFunc("POST /api/events", s.rateLimitedHandler(s.eventH.Create))
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.rateLimitedHandler(s.eventH.Update))
	mux.HandleFunc("DELETE /api/events/{id}", s.rateLimitedHandler(s.eventH.Delete))

	// Habit API routes
	mux.HandleFunc("POST /api/habits", s.rateLimitedHandler(s.habitH.Create))
	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)
	mux.HandleFunc("PUT /api/habits/{id}", s.rateLimitedHandler(s.habitH.Update))
	mux.HandleFunc("DELETE /api/habits/{id}", s.rateLimitedHandler(s.habitH.Delete))
	mux.HandleFunc("POST /api/habits/{id}/complete", s.rateLimitedHandler(s.habitH.Complete))
	mux.HandleFunc("GET /api/habits/{id}/completions", s.habitH.Completions)

	// Preference API routes
	mux.HandleFunc("GET /api/preferences", s.preferenceH.Get)
	mux.HandleFunc("PUT /api/preferences", s.rateLimitedHandler(s.preferenceH.Put))

	// Task API routes
	mux.HandleFunc("POST /api/tasks", s.rateLimitedHandler(s.taskH.Create))
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/{id}", s.rateLimitedHandler(s.taskH.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.rateLimitedHandler(s.taskH.Delete))

	// Tag API routes
	mux.HandleFunc("POST /api/tags", s.rateLimitedHandler(s.taskH.CreateTag))
	mux.HandleFunc("GET /api/tags", s.taskH.ListTags)
	mux.HandleFunc("PUT /api/tags/{id}", s.rateLimitedHandler(s.taskH.UpdateTag))
	mux.HandleFunc("DELETE /api/tags/{id}", s.rateLimitedHandler(s.taskH.DeleteTag))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, middleware.UserID))
}
