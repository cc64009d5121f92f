package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/studiobridge/pkg/adapters/memory"
	httpAdapter "github.com/aretw0/studiobridge/pkg/adapters/http"
	"github.com/aretw0/studiobridge/pkg/client"
	"github.com/aretw0/studiobridge/pkg/dispatch"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/gui"
	"github.com/aretw0/studiobridge/pkg/ports"
	"github.com/aretw0/studiobridge/pkg/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBridge(t *testing.T) (*client.Client, *gui.Handle) {
	t.Helper()
	handle := gui.NewHandle()
	handler := httpAdapter.NewHandler(
		dispatch.New(handle),
		submission.NewService(memory.NewStore()),
		httpAdapter.WithGUIState(handle),
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", client.WithHTTPClient(srv.Client())), handle
}

func TestClient_ExecuteCommand(t *testing.T) {
	c, handle := newBridge(t)
	ctx := context.Background()

	_, err := c.ExecuteCommand(ctx, "getSceneSummary", nil)
	require.Error(t, err)
	assert.True(t, client.IsUnavailable(err))
	assert.Contains(t, err.Error(), "GUI window not available.")

	require.NoError(t, handle.Bind(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
		return map[string]any{"modelName": "none"}, nil
	})))

	resp, err := c.ExecuteCommand(ctx, "getSceneSummary", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "getSceneSummary", resp.Command)
	assert.Equal(t, map[string]any{"modelName": "none"}, resp.Result)
}

func TestClient_Submissions(t *testing.T) {
	c, _ := newBridge(t)
	ctx := context.Background()

	report, err := c.Status(ctx, "student 1/a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportNoSubmission, report.Status)

	msg, err := c.SubmitAnswers(ctx, client.Submission{StudentID: "student 1/a", TicketID: 3, Answers: map[string]any{"q1": "42"}})
	require.NoError(t, err)
	assert.Equal(t, "Answers submitted successfully", msg)

	report, err = c.Status(ctx, "student 1/a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportProcessing, report.Status)
	assert.Equal(t, domain.ProcessingMessage, report.Message)

	all, err := c.Submissions(ctx)
	require.NoError(t, err)
	require.Contains(t, all, "student 1/a")
	assert.Equal(t, domain.StatusSubmittedToAI, all["student 1/a"].Status)

	sub, err := c.Review(ctx, "student 1/a")
	require.NoError(t, err)
	assert.Equal(t, 3.0, sub.TicketID, "numeric ticket ids come back as numbers")

	_, err = c.Review(ctx, "ghost")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_SubmitRequiresStudent(t *testing.T) {
	c, _ := newBridge(t)

	_, err := c.SubmitAnswers(context.Background(), client.Submission{Answers: map[string]any{}})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "studentId is required", apiErr.Detail)
	assert.False(t, client.IsUnavailable(err))
}

func TestClient_Health(t *testing.T) {
	c, _ := newBridge(t)
	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "unbound", health["gui"])
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url).Health(context.Background())
	assert.Error(t, err)
	assert.False(t, client.IsUnavailable(err))
}
