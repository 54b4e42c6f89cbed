// Package poller follows a backend job from submission to a terminal status.
package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"rio-cli/internal/model"
)

const DefaultInterval = 500 * time.Millisecond

// Mode selects what happens when a job finishes.
type Mode int

const (
	// ModeScan fetches the discovered items once the job is done.
	ModeScan Mode = iota
	// ModeDirect only tracks status.
	ModeDirect
)

func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "scan"
}

type State int

const (
	StateIdle State = iota
	StatePolling
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateTerminal:
		return "terminal"
	default:
		return "idle"
	}
}

// Backend is the subset of the API client the poller needs.
type Backend interface {
	Status(ctx context.Context, jobID string) (model.Job, error)
	Items(ctx context.Context, jobID string) ([]model.Item, error)
}

// Update is emitted once per status fetch.
type Update struct {
	JobID      string
	Job        model.Job
	Percent    float64
	HasPercent bool
}

// Result describes how a poll loop ended.
type Result struct {
	JobID string
	Mode  Mode
	Final model.Job
	// Items is set only for a scan that reached done and whose item fetch
	// succeeded.
	Items        []model.Item
	ItemsFetched bool
	Err          error
	Cancelled    bool
}

// Poller runs one status loop. A Poller is not reusable across jobs.
type Poller struct {
	Backend  Backend
	Mode     Mode
	Interval time.Duration
	Sink     func(Update)
	Logger   *slog.Logger

	state State
}

func (p *Poller) State() State { return p.state }

func (p *Poller) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run polls jobID until it reaches a terminal status, a request fails, or
// ctx is cancelled. Status fetches never overlap and no request is retried.
func (p *Poller) Run(ctx context.Context, jobID string) Result {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := p.logger().With("job_id", jobID, "mode", p.Mode.String())
	res := Result{JobID: jobID, Mode: p.Mode}

	p.state = StatePolling
	defer func() { p.state = StateTerminal }()

	for {
		job, err := p.Backend.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				res.Cancelled = true
				log.Debug("poll cancelled")
				return res
			}
			res.Err = err
			log.Warn("status poll failed", "error", err)
			return res
		}
		res.Final = job

		u := Update{JobID: jobID, Job: job}
		u.Percent, u.HasPercent = job.Percent()
		if p.Sink != nil {
			p.Sink(u)
		}

		if job.Status.IsTerminal() {
			log.Info("job finished", "status", string(job.Status))
			if job.Status == model.JobDone && p.Mode == ModeScan {
				items, err := p.Backend.Items(ctx, jobID)
				switch {
				case err == nil:
					res.Items = items
					res.ItemsFetched = true
				case errors.Is(err, context.Canceled) || ctx.Err() != nil:
					res.Cancelled = true
				default:
					res.Err = err
					log.Warn("item fetch failed", "error", err)
				}
			}
			return res
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			res.Cancelled = true
			log.Debug("poll cancelled")
			return res
		case <-t.C:
		}
	}
}
