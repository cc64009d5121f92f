package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/adapters/memory"
	"github.com/aretw0/studiobridge/pkg/dispatch"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/gui"
	"github.com/aretw0/studiobridge/pkg/metrics"
	"github.com/aretw0/studiobridge/pkg/ports"
	"github.com/aretw0/studiobridge/pkg/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handle  *gui.Handle
	store   *memory.Store
	handler http.Handler
}

func newFixture(opts ...Option) *fixture {
	handle := gui.NewHandle()
	store := memory.NewStore()
	opts = append([]Option{WithGUIState(handle)}, opts...)
	return &fixture{
		handle:  handle,
		store:   store,
		handler: NewHandler(dispatch.New(handle), submission.NewService(store), opts...),
	}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "body: %s", rr.Body.String())
	return resp
}

func TestPostCommand_Unavailable(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/api/commands", map[string]any{
		"command": "rotateCamera",
		"payload": map[string]any{"angle": 90},
	})

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "GUI window not available.", decodeBody(t, rr)["detail"])

	all, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "a failed dispatch must not change any state")
}

func TestPostCommand_Success(t *testing.T) {
	f := newFixture()
	var got string
	require.NoError(t, f.handle.Bind(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
		got = script
		return map[string]any{"loading": false}, nil
	})))

	rr := f.do(http.MethodPost, "/api/commands", map[string]any{"command": "getLoadingState"})

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "getLoadingState", resp["command"])
	assert.Equal(t, map[string]any{"loading": false}, resp["result"])
	assert.Equal(t, `window.localApi.executeCommand("getLoadingState", {})`, got)
}

func TestPostCommand_EvaluationFailureStillOK(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handle.Bind(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
		return nil, errors.New("window crashed")
	})))

	rr := f.do(http.MethodPost, "/api/commands", map[string]any{"command": "takeScreenshot", "payload": map[string]any{}})

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "takeScreenshot", resp["command"])
	require.Contains(t, resp, "result")
	assert.Nil(t, resp["result"])
}

func TestPostCommand_EmptyCommandIsForwarded(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handle.Bind(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
		return map[string]any{"error": "Unknown command: ''"}, nil
	})))

	rr := f.do(http.MethodPost, "/api/commands", map[string]any{"command": ""})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "", decodeBody(t, rr)["command"])
}

func TestPostCommand_BadBody(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/api/commands", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPost, "/api/commands", map[string]any{"payload": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "command is required", decodeBody(t, rr)["detail"])

	rr = f.do(http.MethodPost, "/api/commands", `{"command":"x","payload":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitAndStatus_Scenario(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/api/submit_answers", map[string]any{
		"studentId": "s1",
		"ticketId":  "t1",
		"answers":   map[string]any{"q1": "42"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, SubmitAck, decodeBody(t, rr)["message"])

	rr = f.do(http.MethodGet, "/api/student/status/s1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "processing", resp["status"])
	assert.Equal(t, "AI is analyzing your answers...", resp["message"])

	rr = f.do(http.MethodGet, "/api/student/status/unknown", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"status": "no_submission"}, decodeBody(t, rr))
}

func TestSubmit_MissingStudentID(t *testing.T) {
	f := newFixture()

	for _, body := range []string{
		`{"ticketId":"t1","answers":{}}`,
		`{"studentId":"","answers":{}}`,
		`{"studentId":null}`,
		`{}`,
	} {
		rr := f.do(http.MethodPost, "/api/submit_answers", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "studentId is required", decodeBody(t, rr)["detail"])
	}

	all, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmit_InvalidBody(t *testing.T) {
	f := newFixture()

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/submit_answers", "[]").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/submit_answers", `{"studentId":{"nested":true}}`).Code)
}

func TestAdminEndpoints(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/api/admin/submissions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody(t, rr))

	f.do(http.MethodPost, "/api/submit_answers", map[string]any{"studentId": "s1", "ticketId": "t1", "answers": map[string]any{"q1": "a"}})
	f.do(http.MethodPost, "/api/submit_answers", map[string]any{"studentId": "s1", "ticketId": "t2", "answers": map[string]any{"q1": "b"}})
	f.do(http.MethodPost, "/api/submit_answers", map[string]any{"studentId": "s2", "answers": []any{"x"}})

	rr = f.do(http.MethodGet, "/api/admin/submissions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	all := decodeBody(t, rr)
	require.Len(t, all, 2)
	s1 := all["s1"].(map[string]any)
	assert.Equal(t, "t2", s1["ticketId"])
	assert.Equal(t, "submitted_to_ai", s1["status"])
	assert.Nil(t, all["s2"].(map[string]any)["ticketId"])

	rr = f.do(http.MethodGet, "/api/admin/review?student_id=s1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	review := decodeBody(t, rr)
	assert.Equal(t, "s1", review["studentId"])
	assert.Equal(t, map[string]any{"q1": "b"}, review["answers"])
	assert.NotEmpty(t, review["timestamp"])

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/admin/review?student_id=nobody", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/admin/review", nil).Code)
}

func TestCORS(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodOptions, "/api/commands", nil)
	req.Header.Set("Origin", "null")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-custom")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "content-type,x-custom", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")

	rr = f.do(http.MethodGet, "/api/student/status/s1", nil)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetHealth(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"status": "ok", "gui": "unbound"}, decodeBody(t, rr))

	require.NoError(t, f.handle.Bind(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
		return nil, nil
	})))
	rr = f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, "bound", decodeBody(t, rr)["gui"])
}

func TestGetInfo(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decodeBody(t, rr)
	assert.Equal(t, "studiobridge", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, "0.2.0", resp["api_version"])
}

func TestOpenAPIDocument(t *testing.T) {
	swagger, err := GetSwagger()
	require.NoError(t, err)
	for _, path := range []string{"/api/commands", "/api/submit_answers", "/api/student/status/{studentId}", "/api/admin/review"} {
		assert.NotNil(t, swagger.Paths.Find(path), path)
	}

	f := newFixture()
	rr := f.do(http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "openapi: 3.0.3"))
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	handle := gui.NewHandle()
	handler := NewHandler(
		dispatch.New(handle, dispatch.WithMetrics(m)),
		submission.NewService(memory.NewStore(), submission.WithMetrics(m)),
		WithMetricsHandler(m.Handler()),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(`{"command":"resetScene"}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `studiobridge_dispatches_total{outcome="unavailable"} 1`)

	// Without the option the route does not exist.
	f := newFixture()
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/metrics", nil).Code)
}

func TestSubmitResponseTypes(t *testing.T) {
	// A numeric identity becomes its decimal string; the ticket id keeps its JSON type.
	f := newFixture()
	rr := f.do(http.MethodPost, "/api/submit_answers", `{"studentId":1001,"ticketId":7,"answers":{"q1":"x"}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	sub, err := f.store.Load(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, 7.0, sub.TicketID)
	assert.Equal(t, domain.StatusSubmittedToAI, sub.Status)

	review := f.do(http.MethodGet, "/api/admin/review?student_id=1001", nil)
	require.Equal(t, http.StatusOK, review.Code)
	assert.JSONEq(t, `7`, string(mustField(t, review, "ticketId")))
}

func TestSubmitFalsyIdentity(t *testing.T) {
	f := newFixture()

	for _, body := range []string{
		`{"studentId":false,"answers":{}}`,
		`{"studentId":0,"answers":{}}`,
	} {
		rr := f.do(http.MethodPost, "/api/submit_answers", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "studentId is required", decodeBody(t, rr)["detail"])
	}

	rr := f.do(http.MethodPost, "/api/submit_answers", `{"studentId":true,"answers":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	all, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func mustField(t *testing.T, rr *httptest.ResponseRecorder, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fields))
	require.Contains(t, fields, key)
	return fields[key]
}

func TestPostCommand_UnencodableResult(t *testing.T) {
	var logs bytes.Buffer
	f := newFixture(WithLogger(logging.NewWithWriter(&logs, slog.LevelDebug, "text")))
	require.NoError(t, f.handle.Bind(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
		return map[string]any{"ratio": math.Inf(1)}, nil
	})))

	rr := f.do(http.MethodPost, "/api/commands", map[string]any{"command": "getLoadingState"})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Failed to encode response", decodeBody(t, rr)["detail"])
	assert.Contains(t, logs.String(), "Response encode failed")
}
