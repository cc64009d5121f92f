package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/studiobridge/pkg/domain"
)

// DefaultBaseURL is where a locally started bridge listens.
const DefaultBaseURL = "http://127.0.0.1:5000"

// APIError is a non-2xx answer from the bridge.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bridge returned %d: %s", e.StatusCode, e.Detail)
}

// CommandResponse mirrors the body of a successful POST /api/commands.
type CommandResponse struct {
	Status  string `json:"status"`
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// Submission is the body of POST /api/submit_answers.
type Submission struct {
	StudentID string `json:"studentId"`
	TicketID  any    `json:"ticketId,omitempty"`
	Answers   any    `json:"answers"`
}

// Client talks to a running bridge over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the bridge at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Commands wait on the GUI without a server-side timeout; keep ours generous.
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecuteCommand relays a command to the GUI and returns the echoed envelope.
// A GUI that never started surfaces as an *APIError with status 503.
func (c *Client) ExecuteCommand(ctx context.Context, command string, payload map[string]any) (*CommandResponse, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	var resp CommandResponse
	err := c.do(ctx, http.MethodPost, "/api/commands", domain.Command{Command: command, Payload: payload}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitAnswers records the answers of one student.
func (c *Client) SubmitAnswers(ctx context.Context, sub Submission) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/submit_answers", sub, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Status queries the submission status of a student.
func (c *Client) Status(ctx context.Context, studentID string) (*domain.StatusReport, error) {
	var report domain.StatusReport
	if err := c.do(ctx, http.MethodGet, "/api/student/status/"+url.PathEscape(studentID), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Submissions lists every current submission.
func (c *Client) Submissions(ctx context.Context) (map[string]*domain.Submission, error) {
	all := make(map[string]*domain.Submission)
	if err := c.do(ctx, http.MethodGet, "/api/admin/submissions", nil, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// Review fetches the full submission of one student.
func (c *Client) Review(ctx context.Context, studentID string) (*domain.Submission, error) {
	var sub domain.Submission
	path := "/api/admin/review?" + url.Values{"student_id": {studentID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Health reports whether the bridge is up and whether its GUI is bound.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var health map[string]string
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return health, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &detail) == nil && detail.Detail != "" {
			apiErr.Detail = detail.Detail
		} else {
			apiErr.Detail = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err means the bridge has no GUI bound.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable
}
