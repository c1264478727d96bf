package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom/htmldom"
	"github.com/vango-dev/domsync/pkg/events"
	"github.com/vango-dev/domsync/pkg/patch"
)

// Target is one headless render target: a document and the patcher that
// owns its identity map.
type Target struct {
	Doc     *htmldom.Document
	Patcher *patch.Patcher
}

// Status describes the current target.
type Status struct {
	// Seq counts transactions applied since the last reset.
	Seq uint64 `json:"seq"`

	// Stale holds the error that made the target stale, or "".
	Stale string `json:"stale,omitempty"`

	// Registered is the number of ids in the identity map.
	Registered int `json:"registered"`

	// Listening lists event names with a native listener attached.
	Listening []string `json:"listening"`
}

type job struct {
	fn   func(*Target) error
	done chan error
}

// Runner serializes every access to the render target through one
// goroutine. Transactions, DOM reads and dispatched native events are jobs
// on the same queue, so a transaction is never observed half-applied.
type Runner struct {
	manager events.Manager
	opts    []patch.Option
	logger  *slog.Logger
	jobs    chan job

	// Owned by the Run goroutine.
	target *Target
	stale  error
	seq    uint64
}

// NewRunner creates a Runner with a freshly mounted target. Delegated
// events are routed to manager; opts configure every Patcher the runner
// creates.
func NewRunner(manager events.Manager, logger *slog.Logger, opts ...patch.Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		manager: manager,
		opts:    append([]patch.Option{patch.WithLogger(logger)}, opts...),
		logger:  logger,
		jobs:    make(chan job),
	}
	r.target = r.newTarget()
	return r
}

func (r *Runner) newTarget() *Target {
	doc := htmldom.New()
	return &Target{
		Doc:     doc,
		Patcher: patch.New(doc.Root(), doc, r.manager, r.opts...),
	}
}

// Run executes jobs until ctx is done, then detaches the target's native
// listeners.
func (r *Runner) Run(ctx context.Context) error {
	// r.target changes on Reset; close whichever is live at exit.
	defer func() { r.target.Patcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-r.jobs:
			j.done <- r.exec(j.fn)
		}
	}
}

func (r *Runner) exec(fn func(*Target) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("runner job panicked", "panic", rec, "stack", string(debug.Stack()))
			r.stale = fmt.Errorf("panic: %v", rec)
			err = errors.New("DS203").WithDetailf("job panicked: %v", rec)
		}
	}()
	return fn(r.target)
}

// Do runs fn on the runner goroutine and returns its error. It returns
// ctx.Err() if ctx ends before fn is scheduled or finishes.
func (r *Runner) Do(ctx context.Context, fn func(*Target) error) error {
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case r.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply applies tx to the target and returns its sequence number. After a
// failed transaction the target is stale and Apply returns DS106 until
// Reset.
func (r *Runner) Apply(ctx context.Context, tx *patch.Transaction) (uint64, error) {
	var seq uint64
	err := r.Do(ctx, func(t *Target) error {
		if r.stale != nil {
			return errors.New("DS106").WithDetail("previous failure: " + r.stale.Error())
		}
		r.seq++
		seq = r.seq
		if err := t.Patcher.Patch(ctx, tx); err != nil {
			r.stale = err
			return err
		}
		return nil
	})
	return seq, err
}

// Reset discards the target and mounts a fresh document.
func (r *Runner) Reset(ctx context.Context) error {
	return r.Do(ctx, func(t *Target) error {
		t.Patcher.Close()
		r.target = r.newTarget()
		r.stale = nil
		r.seq = 0
		r.logger.Info("render target reset")
		return nil
	})
}

// Status reports the target's sequence, staleness and registrations.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	var st Status
	err := r.Do(ctx, func(t *Target) error {
		st = Status{
			Seq:        r.seq,
			Registered: t.Patcher.Identity().Len(),
			Listening:  t.Patcher.Events().Listening(),
		}
		if r.stale != nil {
			st.Stale = r.stale.Error()
		}
		return nil
	})
	return st, err
}
