// Package runner drives poll cycles: fetch every source, classify its items,
// deduplicate them against the tracked-item store and notify new free items.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/classify"
	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/bakkerme/freegame-alerts/internal/filter"
	"github.com/bakkerme/freegame-alerts/internal/sources"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Source pairs an adapter with its static platform metadata.
type Source struct {
	Adapter sources.Adapter
	Config  core.PlatformConfig
	// Filter drops matching free items before deduplication. Nil keeps all.
	Filter *filter.Filter
}

type Store interface {
	TryInsert(key core.ItemKey) bool
	DiscoveredAt(key core.ItemKey) (time.Time, bool)
	Size() int
}

type Gateway interface {
	Notify(ctx context.Context, item core.ItemDescriptor, platform core.PlatformConfig) error
}

type HealthReporter interface {
	Report(ctx context.Context)
}

type Schedule struct {
	PollInterval   time.Duration
	HealthInterval time.Duration
	SourceSpacing  time.Duration
}

// Deps is everything a Runner needs. It is assembled once at startup.
type Deps struct {
	Sources  []Source
	Store    Store
	Gateway  Gateway
	Health   HealthReporter
	Logger   *slog.Logger
	Schedule Schedule
	Backoff  BackoffPolicy
}

// CycleReport summarizes one pass over all sources.
type CycleReport struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Skipped      bool
	Sources      int
	BackedOff    int
	Fetched      int
	Free         int
	Filtered     int
	New          int
	Notified     int
	FetchErrors  int
	NotifyErrors int
	Panics       int
}

func (r *CycleReport) add(s sourceReport) {
	r.Fetched += s.fetched
	r.Free += s.free
	r.Filtered += s.filtered
	r.New += s.new
	r.Notified += s.notified
	r.NotifyErrors += s.notifyErrors
	if s.fetchErr {
		r.FetchErrors++
	}
	if s.backedOff {
		r.BackedOff++
	}
	if s.panicked {
		r.Panics++
	}
}

type sourceReport struct {
	fetched      int
	free         int
	filtered     int
	new          int
	notified     int
	notifyErrors int
	fetchErr     bool
	backedOff    bool
	panicked     bool
}

type Runner struct {
	deps     Deps
	logger   *slog.Logger
	classify func([]byte) bool
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
	backoff  *backoffTracker

	cycleMu  sync.Mutex
	cycleSeq atomic.Uint64

	lastMu sync.RWMutex
	last   *CycleReport

	startMu  sync.Mutex
	cron     *cron.Cron
	stopped  chan struct{}
	inflight sync.WaitGroup
}

func New(deps Deps) (*Runner, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	for i, src := range deps.Sources {
		if src.Adapter == nil {
			return nil, fmt.Errorf("source %d: adapter is required", i)
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := func() time.Time { return time.Now().UTC() }
	return &Runner{
		deps:     deps,
		logger:   logger.With("component", "runner"),
		classify: classify.IsFree,
		now:      now,
		wait:     sleepContext,
		backoff:  newBackoffTracker(deps.Backoff, now),
	}, nil
}

// RunCycle polls every source once, in order. It never returns an error:
// per-source failures are logged and counted in the report. A call made while
// another cycle is in flight returns immediately with Skipped set.
func (r *Runner) RunCycle(ctx context.Context) CycleReport {
	if !r.cycleMu.TryLock() {
		r.logger.Warn("poll cycle skipped, previous cycle still running")
		return CycleReport{Skipped: true}
	}
	defer r.cycleMu.Unlock()

	report := CycleReport{
		ID:        fmt.Sprintf("cycle-%d", r.cycleSeq.Add(1)),
		StartedAt: r.now(),
	}
	logger := r.logger.With("cycle_id", report.ID)
	ctx = core.WithCycleID(ctx, report.ID)
	ctx = core.WithLogger(ctx, logger)

	ctx, span := otel.Tracer("freegame-alerts/runner").Start(ctx, "poll.cycle")
	span.SetAttributes(
		attribute.String("cycle.id", report.ID),
		attribute.Int("cycle.sources", len(r.deps.Sources)),
	)
	defer span.End()

	logger.Info("poll cycle started", "sources", len(r.deps.Sources))
	for i, src := range r.deps.Sources {
		if ctx.Err() != nil {
			logger.Info("poll cycle interrupted", "error", ctx.Err())
			break
		}
		report.Sources++
		rep := r.pollSource(ctx, src)
		report.add(rep)

		// backed-off sources made no request
		if !rep.backedOff && i < len(r.deps.Sources)-1 && r.deps.Schedule.SourceSpacing > 0 {
			if err := r.wait(ctx, r.deps.Schedule.SourceSpacing); err != nil {
				logger.Info("poll cycle interrupted", "error", err)
				break
			}
		}
	}
	report.FinishedAt = r.now()

	span.SetAttributes(
		attribute.Int("cycle.new", report.New),
		attribute.Int("cycle.fetch_errors", report.FetchErrors),
		attribute.Int("cycle.notify_errors", report.NotifyErrors),
	)
	if report.FetchErrors > 0 || report.NotifyErrors > 0 || report.Panics > 0 {
		span.SetStatus(codes.Error, "cycle completed with errors")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	logger.Info("poll cycle finished",
		"fetched", report.Fetched,
		"free", report.Free,
		"filtered", report.Filtered,
		"new", report.New,
		"notified", report.Notified,
		"fetch_errors", report.FetchErrors,
		"notify_errors", report.NotifyErrors,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	r.lastMu.Lock()
	r.last = &report
	r.lastMu.Unlock()
	return report
}

// LastReport returns the most recent completed cycle, if any.
func (r *Runner) LastReport() (CycleReport, bool) {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	if r.last == nil {
		return CycleReport{}, false
	}
	return *r.last, true
}

func (r *Runner) pollSource(ctx context.Context, src Source) (rep sourceReport) {
	platform := src.Adapter.Platform()
	logger := core.LoggerFromContext(ctx).With("platform", platform)

	ctx, span := otel.Tracer("freegame-alerts/runner").Start(ctx, "poll.source")
	span.SetAttributes(attribute.String("platform", string(platform)))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			rep.panicked = true
			err := fmt.Errorf("source panic: %v", rec)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("source panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	if ok, until := r.backoff.ready(platform); !ok {
		rep.backedOff = true
		logger.Info("source in backoff, skipping", "until", until)
		return rep
	}

	items, err := src.Adapter.Fetch(ctx)
	if err != nil {
		rep.fetchErr = true
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		attrs := []any{"error", err}
		if next := r.backoff.failure(platform); next > 0 {
			attrs = append(attrs, "backoff", next)
		}
		if errors.Is(err, core.ErrMalformedResponse) {
			logger.Warn("malformed upstream response", attrs...)
		} else {
			logger.Warn("fetch failed", attrs...)
		}
		return rep
	}
	r.backoff.success(platform)
	rep.fetched = len(items)

	for _, item := range items {
		item.IsFreePromotion = r.classify(item.RawPromotions)
		if !item.IsFreePromotion {
			continue
		}
		rep.free++

		if src.Filter != nil {
			drop, err := src.Filter.Drop(item)
			if err != nil {
				logger.Warn("filter evaluation failed, keeping item", "item_id", item.ID, "filter", src.Filter.String(), "error", err)
			} else if drop {
				rep.filtered++
				logger.Debug("item dropped by filter", "item_id", item.ID, "title", item.Title)
				continue
			}
		}

		key := item.Key()
		if !r.deps.Store.TryInsert(key) {
			continue
		}
		rep.new++
		if at, ok := r.deps.Store.DiscoveredAt(key); ok {
			item.DiscoveredAt = at
		}
		logger.Info("new free item", "item_id", item.ID, "title", item.Title)

		if err := r.deps.Gateway.Notify(ctx, item, src.Config); err != nil {
			rep.notifyErrors++
			span.RecordError(err)
			logger.Error("notification failed", "item_id", item.ID, "error", err)
			continue
		}
		rep.notified++
	}

	span.SetAttributes(
		attribute.Int("items.fetched", rep.fetched),
		attribute.Int("items.new", rep.new),
	)
	if rep.notifyErrors > 0 {
		span.SetStatus(codes.Error, "notification failures")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return rep
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
