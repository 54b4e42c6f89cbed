package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event carries either a progress update or the final result of one poll
// loop, tagged with the generation that produced it.
type Event struct {
	Gen    uint64
	Update *Update
	Result *Result
}

// Runner owns at most one active poll loop. Starting a new loop cancels the
// previous one; events from older generations are stale.
type Runner struct {
	backend  Backend
	interval time.Duration
	logger   *slog.Logger
	events   chan Event

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(backend Backend, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		backend:  backend,
		interval: interval,
		logger:   logger,
		events:   make(chan Event, 64),
	}
}

func (r *Runner) Events() <-chan Event { return r.events }

// Generation returns the id of the most recently started (or stopped) loop.
func (r *Runner) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Current reports whether gen is still the live generation.
func (r *Runner) Current(gen uint64) bool {
	return gen == r.Generation()
}

// Start cancels any running loop and polls jobID in a new goroutine.
func (r *Runner) Start(parent context.Context, jobID string, mode Mode) uint64 {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	p := &Poller{
		Backend:  r.backend,
		Mode:     mode,
		Interval: r.interval,
		Logger:   r.logger,
		Sink: func(u Update) {
			r.emit(ctx, Event{Gen: gen, Update: &u})
		},
	}
	go func() {
		defer r.wg.Done()
		defer cancel()
		res := p.Run(ctx, jobID)
		r.emit(ctx, Event{Gen: gen, Result: &res})
	}()
	return gen
}

// Stop cancels the running loop, if any, and invalidates its generation.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
}

// Wait blocks until every started loop has returned.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) emit(ctx context.Context, ev Event) {
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}
