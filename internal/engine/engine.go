// Package engine owns the working queue, the history store and the category
// list. Every operation runs on the single goroutine started by Run, so none
// of the owned components needs locking.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.klb.dev/clipq/internal/category"
	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/queue"
)

// ErrStopped is returned by operations submitted after Run has returned.
var ErrStopped = errors.New("engine: stopped")

// Settings are the user preferences read at call time.
type Settings struct {
	MaxQueueSize         int  `json:"max_queue_size"`
	HistoryRetentionDays int  `json:"history_retention_days"`
	SkipDuplicates       bool `json:"skip_duplicates"`
	HistoryEnabled       bool `json:"history_enabled"`
}

// DefaultSettings mirrors the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		MaxQueueSize:         queue.DefaultMaxSize,
		HistoryRetentionDays: 30,
		HistoryEnabled:       true,
	}
}

// Config wires an Engine to its persistence adapters.
type Config struct {
	Snapshot   queue.Snapshotter
	Records    history.Records
	Categories category.Repository
	Settings   Settings

	// History tunes the history store. Retention and Dispatch are set by
	// the engine.
	History history.Options
}

type op struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// Engine serializes all access to the queue and history.
type Engine struct {
	queue      *queue.Queue
	history    *history.Store
	categories *category.Store
	settings   atomic.Pointer[Settings]

	ops     chan op
	stopped chan struct{}
	later   []func(ctx context.Context)
}

// New restores the queue snapshot and prepares the stores. Nothing else
// touches persistence until Run starts.
func New(cfg Config) *Engine {
	e := &Engine{
		ops:     make(chan op),
		stopped: make(chan struct{}),
	}
	s := cfg.Settings
	e.settings.Store(&s)

	e.queue = queue.New(cfg.Snapshot, func() queue.Policy {
		s := e.Settings()
		return queue.Policy{MaxSize: s.MaxQueueSize, SkipDuplicates: s.SkipDuplicates}
	})

	hopts := cfg.History
	hopts.Retention = func() int { return e.Settings().HistoryRetentionDays }
	hopts.Dispatch = e.Post
	e.history = history.New(cfg.Records, hopts)
	e.categories = category.New(cfg.Categories)
	return e
}

// Settings returns the current preference snapshot.
func (e *Engine) Settings() Settings { return *e.settings.Load() }

// UpdateSettings replaces the preference snapshot. The next operation that
// consults a preference sees the new value.
func (e *Engine) UpdateSettings(s Settings) {
	old := e.settings.Swap(&s)
	slog.Info("settings updated",
		"max_queue_size", s.MaxQueueSize,
		"history_retention_days", s.HistoryRetentionDays,
		"skip_duplicates", s.SkipDuplicates,
		"history_enabled", s.HistoryEnabled,
		"previous_max_queue_size", old.MaxQueueSize,
	)
}

// Run loads the history windows and categories, then executes submitted
// operations one at a time until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	defer e.history.Close()

	e.start(ctx)
	slog.Info("engine started", "queue", e.queue.Len(), "history", len(e.history.Items()))

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return ctx.Err()
		case o := <-e.ops:
			o.fn(ctx)
			if o.done != nil {
				close(o.done)
			}
			e.drain(ctx)
		}
	}
}

func (e *Engine) start(ctx context.Context) {
	if err := e.history.Bootstrap(ctx, e.queue.Items()); err != nil {
		slog.Warn("history bootstrap failed", "err", err)
	}
	e.history.LoadInitial(ctx)
	e.history.LoadPinned(ctx)
	e.history.LoadFavorites(ctx)
	_ = e.categories.Load(ctx)
}

// drain runs the work deferred by the operation that just completed. Its
// caller has already been released.
func (e *Engine) drain(ctx context.Context) {
	for len(e.later) > 0 {
		pending := e.later
		e.later = nil
		for _, fn := range pending {
			fn(ctx)
		}
	}
}

// deferToOwner queues fn to run on the engine goroutine after the current
// operation returns to its caller. Only valid inside an operation.
func (e *Engine) deferToOwner(fn func(ctx context.Context)) {
	e.later = append(e.later, fn)
}

// do runs fn on the engine goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func(ctx context.Context)) error {
	o := op{fn: fn, done: make(chan struct{})}
	select {
	case e.ops <- o:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-o.done:
		return nil
	case <-e.stopped:
		return ErrStopped
	}
}

// Post schedules fn on the engine goroutine without waiting. It is safe to
// call from any goroutine.
func (e *Engine) Post(fn func()) {
	select {
	case e.ops <- op{fn: func(context.Context) { fn() }}:
	case <-e.stopped:
	}
}
