package gui

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/ports"
)

// Handle is the process-wide reference to the GUI execution context.
//
// It starts unbound and is bound exactly once by whoever owns the window.
// Readers never block: they observe either the bound evaluator or nothing.
type Handle struct {
	evaluator atomic.Pointer[binding]
	ready     chan struct{}
	once      sync.Once
}

type binding struct {
	ports.ScriptEvaluator
}

// NewHandle creates an unbound handle.
func NewHandle() *Handle {
	return &Handle{ready: make(chan struct{})}
}

// Bind publishes the evaluator. Only the first call succeeds;
// later calls return domain.ErrAlreadyBound and leave the binding untouched.
func (h *Handle) Bind(ev ports.ScriptEvaluator) error {
	if ev == nil {
		return ErrNilEvaluator
	}
	if !h.evaluator.CompareAndSwap(nil, &binding{ev}) {
		return domain.ErrAlreadyBound
	}
	h.once.Do(func() { close(h.ready) })
	return nil
}

// Evaluator returns the bound evaluator, or false while the handle is unbound.
func (h *Handle) Evaluator() (ports.ScriptEvaluator, bool) {
	b := h.evaluator.Load()
	if b == nil {
		return nil, false
	}
	return b.ScriptEvaluator, true
}

// Bound reports whether the GUI has been bound.
func (h *Handle) Bound() bool {
	return h.evaluator.Load() != nil
}

// Ready is closed once the handle is bound.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}
