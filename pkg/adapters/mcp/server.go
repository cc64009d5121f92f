package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/studiobridge"
	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/client"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Bridge is the part of the bridge API exposed to agents.
// *client.Client satisfies it.
type Bridge interface {
	ExecuteCommand(ctx context.Context, command string, payload map[string]any) (*client.CommandResponse, error)
	SubmitAnswers(ctx context.Context, sub client.Submission) (string, error)
	Status(ctx context.Context, studentID string) (*domain.StatusReport, error)
	Submissions(ctx context.Context) (map[string]*domain.Submission, error)
}

// Server exposes a running bridge as an MCP server so agents can drive the GUI.
type Server struct {
	bridge    Bridge
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures tool call logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(bridge Bridge, opts ...Option) *Server {
	s := &Server{
		bridge:    bridge,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("studiobridge-mcp", strings.TrimSpace(studiobridge.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("execute_command",
		mcp.WithDescription("Run a named command in the 3D Studio window (e.g. getSceneSummary, resetScene, takeScreenshot, loadModel)."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command name understood by the front end")),
		mcp.WithString("payload", mcp.Description("JSON object passed to the command (optional)")),
	), s.handleExecuteCommand)

	s.mcpServer.AddTool(mcp.NewTool("submit_answers",
		mcp.WithDescription("Record the answers of a student, replacing any earlier submission."),
		mcp.WithString("student_id", mcp.Required(), mcp.Description("Student identity")),
		mcp.WithString("ticket_id", mcp.Description("Ticket the answers belong to, as a JSON value such as 3 or \"t-3\" (optional)")),
		mcp.WithString("answers", mcp.Required(), mcp.Description("JSON value holding the answers")),
	), s.handleSubmitAnswers)

	s.mcpServer.AddTool(mcp.NewTool("get_student_status",
		mcp.WithDescription("Report whether a student has a submission being processed."),
		mcp.WithString("student_id", mcp.Required(), mcp.Description("Student identity")),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool("list_submissions",
		mcp.WithDescription("List every current submission keyed by student identity."),
	), s.handleListSubmissions)
}

func (s *Server) handleExecuteCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := map[string]any{}
	if raw := request.GetString("payload", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("payload must be a JSON object: %v", err)), nil
		}
	}

	s.logger.Debug("MCP execute_command", "command", command)
	resp, err := s.bridge.ExecuteCommand(ctx, command, payload)
	if err != nil {
		if client.IsUnavailable(err) {
			return mcp.NewToolResultError("the 3D Studio window is not running yet; try again later"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("command failed: %v", err)), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleSubmitAnswers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, err := request.RequireString("student_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawAnswers, err := request.RequireString("answers")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var answers any
	if err := json.Unmarshal([]byte(rawAnswers), &answers); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answers must be JSON: %v", err)), nil
	}

	sub := client.Submission{StudentID: studentID, Answers: answers}
	if raw := request.GetString("ticket_id", ""); raw != "" {
		var ticket any
		if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
			ticket = raw
		}
		sub.TicketID = ticket
	}

	msg, err := s.bridge.SubmitAnswers(ctx, sub)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submit failed: %v", err)), nil
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, err := request.RequireString("student_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.bridge.Status(ctx, studentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (s *Server) handleListSubmissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.bridge.Submissions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return jsonResult(all)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
