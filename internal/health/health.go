// Package health reports process liveness: how many items are tracked and how
// long the monitor has been running.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/core"
)

type Sizer interface {
	Size() int
}

// Status is a point-in-time snapshot. UptimeSeconds mirrors Uptime for
// machine consumers.
type Status struct {
	TrackedItems  int       `json:"tracked_items"`
	StartedAt     time.Time `json:"started_at"`
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

type Option func(*Reporter)

func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

type Reporter struct {
	sizer     Sizer
	logger    *slog.Logger
	now       func() time.Time
	startedAt time.Time
}

func NewReporter(sizer Sizer, logger *slog.Logger, opts ...Option) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reporter{
		sizer:  sizer,
		logger: logger.With("component", "health"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.startedAt = r.now()
	return r
}

// Status reads the tracked count and uptime. It never mutates state.
func (r *Reporter) Status() Status {
	tracked := 0
	if r.sizer != nil {
		tracked = r.sizer.Size()
	}
	uptime := r.now().Sub(r.startedAt).Truncate(time.Second)
	return Status{
		TrackedItems:  tracked,
		StartedAt:     r.startedAt,
		Uptime:        uptime.String(),
		UptimeSeconds: int64(uptime / time.Second),
	}
}

// Report emits one status line.
func (r *Reporter) Report(ctx context.Context) {
	status := r.Status()
	logger := r.logger
	if id := core.CycleIDFromContext(ctx); id != "" {
		logger = logger.With("cycle_id", id)
	}
	logger.Info("health check", "tracked_items", status.TrackedItems, "uptime", status.Uptime)
}
