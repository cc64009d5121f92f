package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/studiobridge"
	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/submission"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dispatcher relays commands into the GUI.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.DispatchResult, error)
}

// Submissions records and reports learner submissions.
type Submissions interface {
	Submit(ctx context.Context, payload map[string]any) error
	Status(ctx context.Context, studentID string) (domain.StatusReport, error)
	Get(ctx context.Context, studentID string) (*domain.Submission, error)
	List(ctx context.Context) (map[string]*domain.Submission, error)
}

// GUIState reports whether the GUI window is bound.
type GUIState interface {
	Bound() bool
}

// SubmitAck is the message returned for an accepted submission.
const SubmitAck = "Answers submitted successfully"

// CommandRequest is the body of POST /api/commands.
type CommandRequest struct {
	Command *string        `json:"command"`
	Payload map[string]any `json:"payload"`
}

// CommandResponse is returned for every command that reached the GUI,
// whether or not the GUI managed to evaluate it.
type CommandResponse struct {
	Status  string `json:"status"`
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// ErrorResponse carries the reason of a failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Server serves the bridge API.
type Server struct {
	Dispatcher  Dispatcher
	Submissions Submissions
	GUI         GUIState

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithGUIState lets /health report whether the GUI is bound.
func WithGUIState(g GUIState) Option {
	return func(s *Server) {
		s.GUI = g
	}
}

// NewHandler creates a new HTTP handler for the bridge.
func NewHandler(dispatcher Dispatcher, submissions Submissions, opts ...Option) http.Handler {
	server := &Server{
		Dispatcher:  dispatcher,
		Submissions: submissions,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(server.accessLog)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			server.writeError(w, http.StatusInternalServerError, "Failed to load spec")
			server.logger.Error("Failed to load OpenAPI spec", "error", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/commands", server.PostCommand)
		r.Post("/submit_answers", server.SubmitAnswers)
		r.Get("/student/status/{studentId}", server.GetStudentStatus)
		r.Get("/admin/submissions", server.ListSubmissions)
		r.Get("/admin/review", server.ReviewSubmission)
	})

	return r
}

// enableCORS opens the API to every origin. The server only listens on loopback.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		} else {
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		headers := r.Header.Get("Access-Control-Request-Headers")
		if headers == "" {
			headers = "*"
		}
		w.Header().Set("Access-Control-Allow-Headers", headers)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// PostCommand handles the POST /api/commands request.
func (s *Server) PostCommand(w http.ResponseWriter, r *http.Request) {
	var body CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("PostCommand: Invalid request body", "error", err)
		return
	}
	if body.Command == nil {
		s.writeError(w, http.StatusBadRequest, "command is required")
		return
	}
	if body.Payload == nil {
		body.Payload = map[string]any{}
	}

	res, err := s.Dispatcher.Dispatch(r.Context(), domain.Command{Command: *body.Command, Payload: body.Payload})
	if err != nil {
		if errors.Is(err, domain.ErrServiceUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, "GUI window not available.")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("PostCommand failed", "error", err)
		return
	}

	s.writeJSON(w, http.StatusOK, CommandResponse{
		Status:  "ok",
		Command: res.Command,
		Result:  res.Value,
	})
}

// SubmitAnswers handles the POST /api/submit_answers request.
func (s *Server) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("SubmitAnswers: Invalid request body", "error", err)
		return
	}

	if err := s.Submissions.Submit(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, domain.ErrStudentIDRequired):
			s.writeError(w, http.StatusBadRequest, "studentId is required")
		case errors.Is(err, submission.ErrInvalidSubmission):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, "Failed to save submission")
			s.logger.Error("SubmitAnswers failed", "error", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": SubmitAck})
}

// GetStudentStatus handles the GET /api/student/status/{studentId} request.
func (s *Server) GetStudentStatus(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	if r.URL.RawPath != "" {
		// chi routed on the escaped path, so the parameter is still escaped
		if v, err := url.PathUnescape(studentID); err == nil {
			studentID = v
		}
	}

	report, err := s.Submissions.Status(r.Context(), studentID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load submission")
		s.logger.Error("GetStudentStatus failed", "student_id", studentID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// ListSubmissions handles the GET /api/admin/submissions request.
func (s *Server) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	all, err := s.Submissions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list submissions")
		s.logger.Error("ListSubmissions failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, all)
}

// ReviewSubmission handles the GET /api/admin/review request.
func (s *Server) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("student_id")

	sub, err := s.Submissions.Get(r.Context(), studentID)
	switch {
	case errors.Is(err, domain.ErrStudentIDRequired):
		s.writeError(w, http.StatusBadRequest, "student_id is required")
	case errors.Is(err, domain.ErrSubmissionNotFound):
		s.writeError(w, http.StatusNotFound, "Submission not found")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "Failed to load submission")
		s.logger.Error("ReviewSubmission failed", "student_id", studentID, "error", err)
	default:
		s.writeJSON(w, http.StatusOK, sub)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	gui := "unbound"
	if s.GUI != nil && s.GUI.Bound() {
		gui = "bound"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "gui": gui})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "studiobridge",
		"version":     strings.TrimSpace(studiobridge.Version),
		"api_version": APIVersion(),
	})
}

// -- Helpers --

// writeJSON encodes v before touching w, so an unencodable value becomes a 500
// instead of a truncated success.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "status", status, "error", err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Detail: "Failed to encode response"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("Response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, ErrorResponse{Detail: detail})
}
