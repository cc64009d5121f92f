package studiobridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/adapters/memory"
	"github.com/aretw0/studiobridge/pkg/dispatch"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/gui"
	"github.com/aretw0/studiobridge/pkg/metrics"
	"github.com/aretw0/studiobridge/pkg/ports"
	"github.com/aretw0/studiobridge/pkg/submission"
)

// Bridge is the high-level entry point of the library.
// It wires the GUI handle, the command dispatcher and the submission service together.
type Bridge struct {
	handle      *gui.Handle
	dispatcher  *dispatch.Dispatcher
	submissions *submission.Service
	store       ports.SubmissionStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
	clock       func() time.Time
	evaluator   ports.ScriptEvaluator
}

// Option defines a functional option for configuring the Bridge.
type Option func(*Bridge)

// WithStore injects a submission backend. Defaults to an in-memory store.
func WithStore(store ports.SubmissionStore) Option {
	return func(b *Bridge) {
		b.store = store
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithMetrics records dispatch and submission metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.clock = now
	}
}

// WithEvaluator binds the GUI at construction time, for hosts whose window
// already exists when the bridge is created.
func WithEvaluator(ev ports.ScriptEvaluator) Option {
	return func(b *Bridge) {
		b.evaluator = ev
	}
}

// New initializes a Bridge. The GUI starts unbound unless WithEvaluator is given.
func New(opts ...Option) (*Bridge, error) {
	b := &Bridge{
		handle: gui.NewHandle(),
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}

	b.dispatcher = dispatch.New(b.handle,
		dispatch.WithLogger(b.logger),
		dispatch.WithMetrics(b.metrics),
	)
	b.submissions = submission.NewService(b.store,
		submission.WithLogger(b.logger),
		submission.WithMetrics(b.metrics),
		submission.WithClock(b.clock),
	)

	if b.evaluator != nil {
		if err := b.BindGUI(b.evaluator); err != nil {
			return nil, fmt.Errorf("failed to bind GUI: %w", err)
		}
	}
	return b, nil
}

// BindGUI publishes the GUI execution context. It succeeds only once.
func (b *Bridge) BindGUI(ev ports.ScriptEvaluator) error {
	if err := b.handle.Bind(ev); err != nil {
		return err
	}
	b.logger.Info("GUI execution context bound")
	return nil
}

// Handle returns the GUI handle.
func (b *Bridge) Handle() *gui.Handle {
	return b.handle
}

// Dispatcher returns the command dispatcher.
func (b *Bridge) Dispatcher() *dispatch.Dispatcher {
	return b.dispatcher
}

// Submissions returns the submission service.
func (b *Bridge) Submissions() *submission.Service {
	return b.submissions
}

// Metrics returns the configured metrics, or nil.
func (b *Bridge) Metrics() *metrics.Metrics {
	return b.metrics
}

// Dispatch relays a command into the GUI. See dispatch.Dispatcher.Dispatch.
func (b *Bridge) Dispatch(ctx context.Context, command string, payload map[string]any) (domain.DispatchResult, error) {
	return b.dispatcher.Dispatch(ctx, domain.Command{Command: command, Payload: payload})
}

// Submit records a submission. See submission.Service.Submit.
func (b *Bridge) Submit(ctx context.Context, payload map[string]any) error {
	return b.submissions.Submit(ctx, payload)
}

// Status reports the submission status of a student.
func (b *Bridge) Status(ctx context.Context, studentID string) (domain.StatusReport, error) {
	return b.submissions.Status(ctx, studentID)
}
