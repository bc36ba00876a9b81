package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/metrics"
)

const minJitter = time.Second

// Flusher forces committed store writes to durable storage.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Poller runs discovery cycles on a cron schedule and hands the competitions
// that need processing to the Supervisor.
type Poller struct {
	source     Source
	processed  database.ProcessedRepository
	venues     database.VenueRepository
	store      Flusher
	processor  *Processor
	supervisor *Supervisor
	schedule   cron.Schedule
	jitterMax  time.Duration
	trigger    chan struct{}
	now        func() time.Time
	jitter     func(max time.Duration) time.Duration

	mu       sync.RWMutex
	snapshot []competition.Competition
	lastRun  time.Time
}

func NewPoller(source Source, processed database.ProcessedRepository, venues database.VenueRepository,
	store Flusher, processor *Processor, supervisor *Supervisor, spec string, jitterMax time.Duration) (*Poller, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid discovery schedule %q: %w", spec, err)
	}
	if jitterMax < minJitter {
		jitterMax = minJitter
	}

	return &Poller{
		source:     source,
		processed:  processed,
		venues:     venues,
		store:      store,
		processor:  processor,
		supervisor: supervisor,
		schedule:   schedule,
		jitterMax:  jitterMax,
		trigger:    make(chan struct{}, 1),
		now:        time.Now,
		jitter:     randomJitter,
	}, nil
}

// Run executes a cycle immediately and then on every schedule tick until
// ctx is cancelled. Running tasks are cancelled and the store is flushed
// before Run returns.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("Poller started")

	for {
		p.runCycle(ctx)

		next := p.schedule.Next(p.now())
		slog.Debug("Next discovery cycle scheduled", "at", next)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			p.shutdown()
			slog.Info("Poller stopped")
			return
		case <-p.trigger:
			timer.Stop()
			slog.Info("Discovery cycle triggered")
		case <-timer.C:
		}
	}
}

// Trigger requests an extra cycle. It never blocks; requests made while one
// is pending are merged.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Snapshot returns the competitions seen by the last successful fetch and
// when it happened.
func (p *Poller) Snapshot() ([]competition.Competition, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, p.lastRun
}

func (p *Poller) shutdown() {
	p.supervisor.CancelAll()
	if err := p.store.Flush(context.Background()); err != nil {
		slog.Error("Failed to flush store", "error", err)
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Discovery cycle panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			metrics.Cycles.WithLabelValues("panic").Inc()
			p.shutdown()
		}
	}()

	scheduled, err := p.cycle(ctx)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Error("Discovery cycle failed", "error", err)
		metrics.Cycles.WithLabelValues("error").Inc()
		p.shutdown()
		return
	}

	metrics.Cycles.WithLabelValues("ok").Inc()
	metrics.Scheduled.Set(float64(scheduled))
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	slog.Info("Discovery cycle completed", "scheduled", scheduled, "duration", time.Since(start))
}

func (p *Poller) cycle(ctx context.Context) (int, error) {
	competitions, err := p.source.FetchCompetitions(ctx)
	if err != nil {
		return 0, err
	}

	p.upsertVenues(ctx, competitions)

	// Tasks of the previous cycle are joined before orphans are repaired so
	// that none of them is between its enqueue and its dedup write.
	p.supervisor.CancelAll()
	if _, err := RepairOrphans(ctx, p.processor.notifications, p.processed); err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.snapshot = competitions
	p.lastRun = p.now()
	p.mu.Unlock()
	metrics.Discovered.Set(float64(len(competitions)))

	now := p.now()
	var tasks []TaskInterface
	for _, comp := range competitions {
		startAt, ok := p.needsProcessing(ctx, comp, now)
		if !ok {
			continue
		}
		tasks = append(tasks, p.processor.NewTask(comp, startAt, competitions))
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.supervisor.ReplaceAll(ctx, tasks)
	return len(tasks), nil
}

// needsProcessing decides whether comp gets a task in this cycle and when
// that task may start.
func (p *Poller) needsProcessing(ctx context.Context, comp competition.Competition, now time.Time) (time.Time, bool) {
	if comp.Test {
		return time.Time{}, false
	}

	has, err := p.processed.Has(ctx, comp.ID)
	if err != nil {
		slog.Warn("Dedup lookup failed, skipping competition", "competition", comp.ID, "error", err)
		return time.Time{}, false
	}
	if has {
		return time.Time{}, false
	}

	settings := comp.Settings
	if settings.Closes.Before(now) {
		return time.Time{}, false
	}

	if !settings.IsClosed {
		return now.Add(p.jitter(p.jitterMax)), true
	}
	if settings.Opens.After(now) {
		return settings.Opens.Time, true
	}
	return time.Time{}, false
}

func (p *Poller) upsertVenues(ctx context.Context, competitions []competition.Competition) {
	for _, comp := range competitions {
		if comp.Venue == nil || comp.Venue.Code == "" {
			continue
		}
		v := comp.Venue
		err := p.venues.Upsert(ctx, database.Venue{
			Code:            v.Code,
			CountryCode:     v.Address.CountryCode,
			Name:            v.Name,
			City:            v.Address.City,
			Line1:           v.Address.Line1,
			Line2:           v.Address.Line2,
			PostalCode:      v.Address.PostalCode,
			StateOrProvince: v.Address.StateOrProvince,
		})
		if err != nil {
			slog.Warn("Failed to upsert venue", "venue", v.Code, "error", err)
		}
	}
}

// randomJitter is uniform in [1s, max].
func randomJitter(max time.Duration) time.Duration {
	if max <= minJitter {
		return minJitter
	}
	return minJitter + rand.N(max-minJitter+1)
}
