package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/metrics"
	"github.com/smartyg/competitionnotify/app/notify"
	"github.com/smartyg/competitionnotify/app/registry"
)

// maxWaitStep bounds a single sleep so long waits re-check the clock.
const maxWaitStep = time.Hour

// Processor holds what every competition task shares.
type Processor struct {
	source        Source
	recipients    RecipientFilter
	renderer      Renderer
	processed     database.ProcessedRepository
	notifications database.NotificationRepository
	venues        database.VenueRepository
	siteBaseURL   string
	now           func() time.Time
}

func NewProcessor(source Source, recipients RecipientFilter, renderer Renderer,
	processed database.ProcessedRepository, notifications database.NotificationRepository,
	venues database.VenueRepository, siteBaseURL string) *Processor {
	return &Processor{
		source:        source,
		recipients:    recipients,
		renderer:      renderer,
		processed:     processed,
		notifications: notifications,
		venues:        venues,
		siteBaseURL:   siteBaseURL,
		now:           time.Now,
	}
}

// ProcessCompetitionTask turns one newly opened competition into exactly one
// queued notification.
type ProcessCompetitionTask struct {
	Task
	Competition competition.Competition
	StartAt     time.Time
	snapshot    []competition.Competition
	p           *Processor
	outcome     Outcome
}

func (p *Processor) NewTask(comp competition.Competition, startAt time.Time, snapshot []competition.Competition) *ProcessCompetitionTask {
	return &ProcessCompetitionTask{
		Task:        NewTask(TaskTypeProcessCompetition, comp.ID),
		Competition: comp,
		StartAt:     startAt,
		snapshot:    snapshot,
		p:           p,
	}
}

// Outcome is valid once Execute has returned.
func (t *ProcessCompetitionTask) Outcome() Outcome {
	return t.outcome
}

func (t *ProcessCompetitionTask) Execute(ctx context.Context) error {
	outcome, err := t.run(ctx)
	t.outcome = outcome
	metrics.TaskOutcomes.WithLabelValues(outcome.String()).Inc()

	if err != nil {
		return fmt.Errorf("competition %s ended in %s: %w", t.ID, outcome, err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"competition", t.ID,
		"outcome", outcome.String(),
		"duration", t.GetDuration())
	return nil
}

func (t *ProcessCompetitionTask) run(ctx context.Context) (Outcome, error) {
	select {
	case <-ctx.Done():
		return OutcomeCancelledEarly, nil
	default:
	}

	if err := t.wait(ctx); err != nil {
		return OutcomeCancelledEarly, nil
	}

	detail, err := t.p.source.FetchDetail(ctx, t.ID)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCancelledMid, nil
		}
		return OutcomeFailedFetch, err
	}
	if ctx.Err() != nil {
		return OutcomeCancelledMid, nil
	}

	if detail.Competition.Settings.IsClosed {
		slog.Debug("Competition still closed after wait", "competition", t.ID)
		return OutcomeNotYetOpen, nil
	}

	// From here on the task always reaches a terminal state so a
	// notification is never left half written.
	ctx = context.WithoutCancel(ctx)

	combinations, pairs, err := detail.Summarise()
	if err != nil {
		return OutcomeFailedCompute, err
	}

	comp := detail.Competition
	recipients := t.p.selectRecipients(comp, pairs)

	body, err := t.p.renderer.Render(notify.Input{
		Competition:  comp,
		Links:        competition.NewLinks(t.p.siteBaseURL, comp.ID),
		Combinations: combinations,
		Venue:        t.p.lookupVenue(ctx, comp.Venue),
		Serie:        comp.Serie,
		SerieMembers: t.p.serieEntries(t.snapshot, comp),
	})
	if err != nil {
		return OutcomeFailedRender, err
	}

	notificationID, err := t.p.notifications.Enqueue(ctx, comp.ID, recipients, body)
	if err != nil {
		return OutcomeFailedStore, fmt.Errorf("%w: %w", competition.ErrStore, err)
	}
	metrics.NotificationsEnqueued.Inc()

	recorded, err := t.p.processed.Record(ctx, comp.ID, notificationID)
	if err == nil && !recorded {
		err = errors.New("competition already has a dedup record")
	}
	if err != nil {
		if discardErr := t.p.notifications.Discard(ctx, notificationID); discardErr != nil {
			slog.Error("Failed to discard notification", "competition", comp.ID, "notification", notificationID, "error", discardErr)
		}
		return OutcomeFailedStore, fmt.Errorf("%w: %w", competition.ErrStore, err)
	}

	slog.Info("Notification enqueued", "competition", comp.ID, "notification", notificationID, "recipients", len(recipients))
	return OutcomeDone, nil
}

// wait sleeps until StartAt. The deadline is re-checked after every step
// so a long wait survives clock adjustments.
func (t *ProcessCompetitionTask) wait(ctx context.Context) error {
	for {
		remaining := t.StartAt.Sub(t.p.now())
		if remaining <= 0 {
			return nil
		}

		timer := time.NewTimer(min(remaining, maxWaitStep))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Processor) selectRecipients(comp competition.Competition, pairs []competition.Pair) []uuid.UUID {
	var venue string
	if comp.Venue != nil {
		venue = comp.Venue.Code
	}
	var disciplines []string
	if comp.Discipline != "" {
		disciplines = []string{comp.Discipline}
	}

	selected := make(map[uuid.UUID]struct{})
	for _, pair := range pairs {
		ids := p.recipients.Filter(registry.Criteria{
			Venue:       venue,
			HomeVenues:  pair.Setting.HomeVenueFilter.Strings(),
			Categories:  pair.Combination.CategoryFilter.Strings(),
			ClubCodes:   pair.Setting.ClubCodeFilter.Strings(),
			Disciplines: disciplines,
			Invitees:    pair.Setting.Invitees.Strings(),
		})
		for _, id := range ids {
			selected[id] = struct{}{}
		}
	}

	out := make([]uuid.UUID, 0, len(selected))
	for id := range selected {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

func (p *Processor) lookupVenue(ctx context.Context, venue *competition.Venue) *database.Venue {
	if venue == nil || venue.Code == "" {
		return nil
	}
	v, err := p.venues.Get(ctx, venue.Code)
	if err != nil {
		slog.Warn("Venue lookup failed", "venue", venue.Code, "error", err)
		return nil
	}
	return v
}

func (p *Processor) serieEntries(snapshot []competition.Competition, comp competition.Competition) []notify.SerieEntry {
	members := competition.SerieMembers(snapshot, comp.Serie, comp.ID)
	if len(members) == 0 {
		return nil
	}
	entries := make([]notify.SerieEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, notify.SerieEntry{
			Name: m.Name,
			Link: competition.NewLinks(p.siteBaseURL, m.ID).Information,
		})
	}
	return entries
}
