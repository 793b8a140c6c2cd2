package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"plancal/internal/config"
	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/planner"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Scheduler is the planner surface served over HTTP.
type Scheduler interface {
	Add(in planner.AddInput) (int, error)
	Get(id int) (model.Task, bool)
	List() []model.Task
	Delete(id int, mode model.DeleteMode) bool
	ChangeDuration(id int, hours float64) (bool, error)
	Optimize() planner.Report
	AgendaFor(day time.Time) []model.ScheduledBlock
	AgendaAll() []model.ScheduledBlock
	Today() time.Time
	Options() planner.Options
}

// Server provides the JSON API over a Scheduler.
type Server struct {
	cfg   *config.Config
	sched Scheduler
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, sched Scheduler) *Server {
	s := &Server{
		cfg:   cfg,
		sched: sched,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler wrapped with request ids and access
// logging.
func (s *Server) Handler() http.Handler {
	return requestID(accessLog(s.mux))
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

type ctxKey struct{}

// requestID tags every request with an X-Request-ID, reusing the caller's
// value when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the id assigned by the request-id middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks", s.handleAddTask)
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/duration", s.handleChangeDuration)

	s.mux.HandleFunc("POST /api/optimize", s.handleOptimize)

	s.mux.HandleFunc("GET /api/agenda", s.handleAgenda)
	s.mux.HandleFunc("GET /api/agenda/today", s.handleAgendaToday)
	s.mux.HandleFunc("GET /api/agenda/{date}", s.handleAgendaDay)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// addTaskRequest is the JSON body of POST /api/tasks.
type addTaskRequest struct {
	Title      string  `json:"title"`
	Deadline   string  `json:"deadline"`
	Duration   float64 `json:"duration"`
	Priority   int     `json:"priority"`
	Repeat     string  `json:"repeat"`
	FixedStart string  `json:"fixed_start"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, taskFields(s.sched.List()))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := s.sched.Add(planner.AddInput{
		Title:      req.Title,
		Deadline:   req.Deadline,
		Duration:   req.Duration,
		Priority:   req.Priority,
		Repeat:     req.Repeat,
		FixedStart: req.FixedStart,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	t, ok := s.sched.Get(id)
	if !ok {
		writeErr(w, r, fmt.Errorf("task %d vanished after add", id))
		return
	}
	appLog.Info("task added", "request_id", RequestIDFrom(r.Context()), "task_id", id, "title", t.Title)
	w.Header().Set("Location", "/api/tasks/"+strconv.Itoa(id))
	writeJSON(w, http.StatusCreated, t.Fields())
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, found := s.sched.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, t.Fields())
}

// handleDeleteTask removes a task.
//
// DELETE /api/tasks/{id}?mode=single|all
//   - mode: single (default) removes one task; all removes the whole
//     recurrence series the task belongs to.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	mode, err := model.ParseDeleteMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeErr(w, r, fmt.Errorf("%w: %v", planner.ErrInvalidDeleteMode, err))
		return
	}
	if !s.sched.Delete(id, mode) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}
	appLog.Info("task deleted", "request_id", RequestIDFrom(r.Context()), "task_id", id, "mode", string(mode))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id, "mode": string(mode)})
}

type durationRequest struct {
	Duration float64 `json:"duration"`
}

func (s *Server) handleChangeDuration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req durationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	found, err := s.sched.ChangeDuration(id, req.Duration)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}
	t, found := s.sched.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, t.Fields())
}

// reportResponse is the JSON shape of POST /api/optimize.
type reportResponse struct {
	Blocks     int              `json:"blocks"`
	Shortfalls []map[string]any `json:"shortfalls"`
	Conflicts  []map[string]any `json:"conflicts"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	rep := s.sched.Optimize()
	appLog.Info("optimize requested", "request_id", RequestIDFrom(r.Context()), "blocks", rep.Blocks)

	resp := reportResponse{
		Blocks:     rep.Blocks,
		Shortfalls: make([]map[string]any, 0, len(rep.Shortfalls)),
		Conflicts:  make([]map[string]any, 0, len(rep.Conflicts)),
	}
	for _, sf := range rep.Shortfalls {
		resp.Shortfalls = append(resp.Shortfalls, map[string]any{
			"task_id":       sf.TaskID,
			"title":         sf.Title,
			"deadline":      sf.Deadline.Format(model.DateLayout),
			"missing_hours": sf.Missing.Hours(),
		})
	}
	for _, c := range rep.Conflicts {
		m := map[string]any{
			"task_id": c.TaskID,
			"title":   c.Title,
			"kind":    string(c.Kind),
		}
		if c.Kind == planner.ConflictOverlap {
			m["other_id"] = c.OtherID
		}
		resp.Conflicts = append(resp.Conflicts, m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgenda(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, blockFields(s.sched.AgendaAll()))
}

func (s *Server) handleAgendaToday(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, blockFields(s.sched.AgendaFor(s.sched.Today())))
}

func (s *Server) handleAgendaDay(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("date")
	day, err := time.ParseInLocation(model.DateLayout, raw, s.sched.Options().Location)
	if err != nil {
		writeErr(w, r, fmt.Errorf("%w %q (want YYYY-MM-DD)", planner.ErrInvalidDate, raw))
		return
	}
	writeJSON(w, http.StatusOK, blockFields(s.sched.AgendaFor(day)))
}

func taskFields(tasks []model.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Fields())
	}
	return out
}

func blockFields(blocks []model.ScheduledBlock) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Fields())
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid task id %q", raw))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeErr maps planner validation errors to 400 and anything else to 500.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if planner.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("request failed", err, "request_id", RequestIDFrom(r.Context()), "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: strings.TrimSpace(msg)})
}
