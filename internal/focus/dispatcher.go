package focus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/walletbroker/internal/queue"
)

// DefaultTimeout bounds each coordinator call.
const DefaultTimeout = 2 * time.Second

type commandKind int

const (
	cmdCheck commandKind = iota + 1
	cmdRequest
	cmdRelinquish
	cmdBarrier
)

func (k commandKind) String() string {
	switch k {
	case cmdCheck:
		return "is_focused"
	case cmdRequest:
		return "request_focus"
	case cmdRelinquish:
		return "relinquish_focus"
	case cmdBarrier:
		return "barrier"
	default:
		return "unknown"
	}
}

type command struct {
	kind    commandKind
	scope   string
	checked func(focused bool)
	barrier chan struct{}
}

// Dispatcher runs coordinator calls on one worker goroutine in submission
// order. A relinquish therefore never overtakes the request it pairs with,
// and brokers never block on the host.
//
// Errors are logged at warn and absorbed. A failed IsFocused is reported to
// the caller as not focused.
//
// Thread-safety: all methods are safe for concurrent use.
type Dispatcher struct {
	coord   Coordinator
	timeout time.Duration
	logger  *slog.Logger

	cmds      *queue.Queue[command]
	submitted atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout sets the per-call timeout. Zero disables the timeout.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.timeout = d
	}
}

// WithLogger sets the logger for absorbed failures.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.logger = l
	}
}

// NewDispatcher starts a dispatcher over coord.
// Call Close to stop the worker.
func NewDispatcher(coord Coordinator, opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		coord:   coord,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		cmds:    queue.New[command](),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Check submits an IsFocused call. checked runs on the worker goroutine
// with the result and must not block.
func (d *Dispatcher) Check(scope string, checked func(focused bool)) {
	d.submit(command{kind: cmdCheck, scope: scope, checked: checked})
}

// Request submits a RequestFocus call.
func (d *Dispatcher) Request(scope string) {
	d.submit(command{kind: cmdRequest, scope: scope})
}

// Relinquish submits a RelinquishFocus call.
func (d *Dispatcher) Relinquish(scope string) {
	d.submit(command{kind: cmdRelinquish, scope: scope})
}

// Drain blocks until every call submitted before it has completed,
// including its checked callback.
func (d *Dispatcher) Drain(ctx context.Context) error {
	barrier := make(chan struct{})
	if _, ok := d.cmds.Enqueue(command{kind: cmdBarrier, barrier: barrier}); !ok {
		// Closed: the worker finishes the backlog before done closes.
		select {
		case <-d.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submitted returns the number of coordinator calls submitted so far.
// Barriers are not counted.
func (d *Dispatcher) Submitted() int64 {
	return d.submitted.Load()
}

// Close stops accepting calls, waits for the backlog to finish and stops
// the worker. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.cmds.Close()
		<-d.done
		d.cancel()
	})
}

func (d *Dispatcher) submit(cmd command) {
	if _, ok := d.cmds.Enqueue(cmd); !ok {
		d.logger.Warn("focus call dropped: dispatcher closed",
			"op", cmd.kind.String(),
			"scope", cmd.scope,
		)
		return
	}
	d.submitted.Add(1)
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		if cmd, ok := d.cmds.Dequeue(); ok {
			d.execute(cmd)
			continue
		}
		<-d.cmds.Wait()
		if d.cmds.Closed() && d.cmds.Len() == 0 {
			return
		}
	}
}

func (d *Dispatcher) execute(cmd command) {
	if cmd.kind == cmdBarrier {
		close(cmd.barrier)
		return
	}

	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(d.ctx, d.timeout)
		defer cancel()
	}

	var err error
	switch cmd.kind {
	case cmdCheck:
		var focused bool
		focused, err = d.coord.IsFocused(ctx)
		if err != nil {
			focused = false
		}
		if cmd.checked != nil {
			cmd.checked(focused)
		}
	case cmdRequest:
		err = d.coord.RequestFocus(ctx)
	case cmdRelinquish:
		err = d.coord.RelinquishFocus(ctx)
	}

	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		d.logger.Log(context.Background(), level, "focus call failed",
			"op", cmd.kind.String(),
			"scope", cmd.scope,
			"error", err,
		)
	}
}
