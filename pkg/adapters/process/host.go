package process

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/ports"
	"github.com/google/uuid"
)

var (
	// ErrHostExited is returned by Evaluate once the GUI host process is gone.
	ErrHostExited = errors.New("GUI host exited")
	// ErrHostNotStarted is returned by Evaluate before Start.
	ErrHostNotStarted = errors.New("GUI host not started")
)

// EventReady is emitted by the host once its window can evaluate scripts.
const EventReady = "ready"

// request is written to the host's stdin, one per line.
type request struct {
	ID     string `json:"id"`
	Script string `json:"script"`
}

// message is read from the host's stdout, one per line.
// It is either an event or the reply to a request.
type message struct {
	ID     string `json:"id,omitempty"`
	Event  string `json:"event,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type reply struct {
	result any
	err    error
}

// Host runs the desktop GUI shell as a child process and evaluates scripts in it.
// It implements ports.ScriptEvaluator.
type Host struct {
	command string
	args    []string
	env     []string
	dir     string
	logger  *slog.Logger

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan reply
	started bool

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	exitErr   error
}

// HostOption configures the host.
type HostOption func(*Host)

// WithArgs sets the host arguments.
func WithArgs(args ...string) HostOption {
	return func(h *Host) {
		h.args = args
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) HostOption {
	return func(h *Host) {
		h.env = append(h.env, env...)
	}
}

// WithDir sets the working directory of the host.
func WithDir(dir string) HostOption {
	return func(h *Host) {
		h.dir = dir
	}
}

// WithLogger configures a logger for host output and lifecycle.
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost prepares a host for the given command. Nothing runs until Start.
func NewHost(command string, opts ...HostOption) *Host {
	h := &Host{
		command: command,
		logger:  logging.NewNop(),
		pending: make(map[string]chan reply),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start launches the host process. The process is killed when ctx is cancelled.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return errors.New("GUI host already started")
	}

	cmd := exec.CommandContext(ctx, h.command, h.args...)
	cmd.Dir = h.dir
	cmd.Env = append(cmd.Environ(), h.env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open host stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open host stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open host stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start GUI host %q: %w", h.command, err)
	}

	h.cmd = cmd
	h.stdin = stdin
	h.started = true
	h.logger.Info("GUI host started", "command", h.command, "pid", cmd.Process.Pid)

	tail := newTailBuffer(stderrTailSize)
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		h.drainStderr(stderr, tail)
	}()
	go h.readLoop(stdout, stderrDone, tail)
	return nil
}

// drainStderr logs host diagnostics line by line and keeps the latest bytes in tail.
func (h *Host) drainStderr(stderr io.Reader, tail *tailBuffer) {
	reader := bufio.NewReaderSize(stderr, stderrTailSize)
	for {
		line, isPrefix, err := reader.ReadLine()
		if len(line) > 0 {
			h.logger.Debug("GUI host stderr", "line", string(line))
			tail.Write(line)
			if !isPrefix {
				tail.Write([]byte{'\n'})
			}
		}
		if err != nil {
			return
		}
	}
}

func (h *Host) readLoop(stdout io.Reader, stderrDone <-chan struct{}, tail *tailBuffer) {
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			h.handleLine(line)
		}
		if err != nil {
			break
		}
	}

	// Wait closes the pipes, so stderr must be fully read first.
	<-stderrDone
	waitErr := h.cmd.Wait()
	if waitErr != nil {
		waitErr = fmt.Errorf("%w: %v. Stderr: %s", ErrHostExited, waitErr, bytes.TrimSpace(tail.Bytes()))
	} else {
		waitErr = ErrHostExited
	}
	h.logger.Info("GUI host exited", "command", h.command, "error", waitErr)

	h.mu.Lock()
	h.exitErr = waitErr
	for id, ch := range h.pending {
		ch <- reply{err: waitErr}
		delete(h.pending, id)
	}
	h.mu.Unlock()
	close(h.done)
}

func (h *Host) handleLine(line []byte) {
	var msg message
	if err := json.Unmarshal(line, &msg); err != nil {
		// Hosts may print diagnostics; only JSON lines belong to the protocol.
		h.logger.Debug("GUI host output", "line", string(bytes.TrimSpace(line)))
		return
	}

	if msg.Event != "" {
		if msg.Event == EventReady {
			h.readyOnce.Do(func() { close(h.ready) })
			h.logger.Info("GUI host ready")
		} else {
			h.logger.Debug("GUI host event", "event", msg.Event)
		}
		return
	}

	h.mu.Lock()
	ch, ok := h.pending[msg.ID]
	delete(h.pending, msg.ID)
	h.mu.Unlock()
	if !ok {
		h.logger.Warn("GUI host replied to unknown request", "id", msg.ID)
		return
	}

	if msg.Error != "" {
		ch <- reply{err: errors.New(msg.Error)}
		return
	}
	ch <- reply{result: msg.Result}
}

// Evaluate sends the script to the host and blocks until it replies,
// the host exits or ctx is done. No timeout is imposed here.
func (h *Host) Evaluate(ctx context.Context, script string) (any, error) {
	id := uuid.NewString()
	ch := make(chan reply, 1)

	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return nil, ErrHostNotStarted
	}
	if h.exitErr != nil {
		err := h.exitErr
		h.mu.Unlock()
		return nil, err
	}
	h.pending[id] = ch
	h.mu.Unlock()

	line, err := json.Marshal(request{ID: id, Script: script})
	if err != nil {
		h.forget(id)
		return nil, fmt.Errorf("failed to encode script request: %w", err)
	}

	h.writeMu.Lock()
	_, err = h.stdin.Write(append(line, '\n'))
	h.writeMu.Unlock()
	if err != nil {
		h.forget(id)
		return nil, fmt.Errorf("failed to send script to GUI host: %w", err)
	}

	select {
	case r := <-ch:
		return r.result, r.err
	case <-ctx.Done():
		h.forget(id)
		return nil, ctx.Err()
	}
}

func (h *Host) forget(id string) {
	h.mu.Lock()
	delete(h.pending, id)
	h.mu.Unlock()
}

// Ready is closed when the host announces its window is up.
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Done is closed after the host process has exited.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Err returns why the host exited, or nil while it runs.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

// Stop closes the host's stdin and waits for it to exit.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	started := h.started
	h.mu.Unlock()
	if !started {
		return nil
	}

	h.writeMu.Lock()
	_ = h.stdin.Close()
	h.writeMu.Unlock()

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		_ = h.cmd.Process.Kill()
		<-h.done
		return ctx.Err()
	}
}

// BindWhenReady hands the host to bind once it reports ready.
// It returns early if the host exits first or ctx is done.
func BindWhenReady(ctx context.Context, host *Host, bind func(ports.ScriptEvaluator) error) error {
	select {
	case <-host.Ready():
		return bind(host)
	case <-host.Done():
		return host.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
