package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/notify"
	"github.com/smartyg/competitionnotify/app/registry"
)

type fakeSource struct {
	mu           sync.Mutex
	competitions []competition.Competition
	listErr      error
	details      map[uuid.UUID]*competition.Detail
	detailErr    error
	// blockDetail makes FetchDetail wait for cancellation.
	blockDetail bool

	listCalls   atomic.Int32
	detailCalls atomic.Int32
}

func (s *fakeSource) FetchCompetitions(ctx context.Context) ([]competition.Competition, error) {
	s.listCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]competition.Competition(nil), s.competitions...), nil
}

func (s *fakeSource) FetchDetail(ctx context.Context, id uuid.UUID) (*competition.Detail, error) {
	s.detailCalls.Add(1)
	if s.blockDetail {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	detail, ok := s.details[id]
	if !ok {
		return nil, errors.New("unknown competition")
	}
	copied := *detail
	return &copied, nil
}

type fakeFilter struct {
	ids []uuid.UUID

	mu       sync.Mutex
	criteria []registry.Criteria
}

func (f *fakeFilter) Filter(c registry.Criteria) []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criteria = append(f.criteria, c)
	return f.ids
}

type fakeRenderer struct {
	err error
	// onRender runs before the body is produced.
	onRender func()

	mu    sync.Mutex
	input notify.Input
}

func (r *fakeRenderer) Render(in notify.Input) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = in
	if r.onRender != nil {
		r.onRender()
	}
	if r.err != nil {
		return "", r.err
	}
	return "<p>" + in.Competition.Name + "</p>", nil
}

// failingProcessed fails every Record call.
type failingProcessed struct {
	database.ProcessedRepository
}

func (f failingProcessed) Record(ctx context.Context, competitionID, notificationID uuid.UUID) (bool, error) {
	return false, errors.New("disk full")
}

// failingDiscard fails every Discard call.
type failingDiscard struct {
	database.NotificationRepository
}

func (f failingDiscard) Discard(ctx context.Context, id uuid.UUID) error {
	return errors.New("disk full")
}

type countingFlusher struct {
	flushes atomic.Int32
}

func (f *countingFlusher) Flush(ctx context.Context) error {
	f.flushes.Add(1)
	return nil
}

type testEnv struct {
	db            *database.DB
	source        *fakeSource
	filter        *fakeFilter
	renderer      *fakeRenderer
	processed     *database.ProcessedRepo
	notifications *database.NotificationRepo
	venues        *database.VenueRepo
	processor     *Processor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:            db,
		source:        &fakeSource{details: make(map[uuid.UUID]*competition.Detail)},
		filter:        &fakeFilter{},
		renderer:      &fakeRenderer{},
		processed:     database.NewProcessedRepository(db),
		notifications: database.NewNotificationRepository(db, 0),
		venues:        database.NewVenueRepository(db),
	}
	env.processor = NewProcessor(env.source, env.filter, env.renderer,
		env.processed, env.notifications, env.venues, "https://inschrijven.schaatsen.nl")
	return env
}

func (e *testEnv) notificationCount(t *testing.T) int {
	t.Helper()
	count, err := e.notifications.Count(context.Background())
	require.NoError(t, err)
	return count
}

func (e *testEnv) processedCount(t *testing.T) int {
	t.Helper()
	count, err := e.processed.Count(context.Background())
	require.NoError(t, err)
	return count
}

func openCompetition(name string) competition.Competition {
	return competition.Competition{
		ID:         uuid.New(),
		Name:       name,
		Discipline: competition.DisciplineLongTrack,
		Settings: competition.Settings{
			Closes: competition.Timestamp{Time: time.Now().Add(7 * 24 * time.Hour)},
		},
		Venue: &competition.Venue{Code: "ALK", Name: "De Meent"},
	}
}

func detailFor(comp competition.Competition) *competition.Detail {
	combinationID := uuid.New()
	return &competition.Detail{
		Competition: comp,
		Combinations: []competition.DistanceCombination{{
			ID:             combinationID,
			Name:           "Sprint",
			CategoryFilter: competition.StringList{"H*"},
			Distances:      []competition.Distance{{Value: 500}, {Value: 1000}},
		}},
		Settings: []competition.DistanceCombinationSetting{{
			DistanceCombinationID: combinationID,
			ClubCodeFilter:        competition.StringList{"IJSCLUB-A"},
		}},
	}
}
