package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/gui"
	"github.com/aretw0/studiobridge/pkg/metrics"
	"github.com/google/uuid"
)

// Dispatcher relays commands into the GUI execution context.
//
// A failed evaluation never escapes as an error: it is logged and reported through
// DispatchResult.Err.
type Dispatcher struct {
	handle  *gui.Handle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures a logger for evaluation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records dispatch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a Dispatcher reading the GUI through handle.
func New(handle *gui.Handle, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handle: handle,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch forwards cmd to the GUI and waits for its answer.
// The only error returned is domain.ErrServiceUnavailable, when no GUI has been bound yet.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd domain.Command) (domain.DispatchResult, error) {
	ev, ok := d.handle.Evaluator()
	if !ok {
		d.metrics.ObserveDispatch(metrics.OutcomeUnavailable, 0)
		return domain.DispatchResult{}, domain.ErrServiceUnavailable
	}

	res := domain.DispatchResult{Command: cmd.Command}
	id := uuid.NewString()
	start := time.Now()

	script, err := gui.BuildInvocation(cmd.Command, cmd.Payload)
	if err == nil {
		res.Value, err = ev.Evaluate(ctx, script)
	}
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Error("GUI evaluation failed",
			"dispatch_id", id,
			"command", cmd.Command,
			"duration", elapsed,
			"error", err,
		)
		d.metrics.ObserveDispatch(metrics.OutcomeFailed, elapsed)
		res.Value = nil
		res.Err = err
		return res, nil
	}

	d.logger.Debug("Command dispatched", "dispatch_id", id, "command", cmd.Command, "duration", elapsed)
	d.metrics.ObserveDispatch(metrics.OutcomeOK, elapsed)
	return res, nil
}
