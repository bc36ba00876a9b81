package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
)

var (
	recipientA = uuid.MustParse("00000000-0000-4000-8000-00000000000a")
	recipientB = uuid.MustParse("00000000-0000-4000-8000-00000000000b")
)

func TestProcessCompetitionEnqueuesNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	comp := openCompetition("Alkmaar Open")
	comp.Serie = &competition.Serie{ID: uuid.New(), Name: "Cup"}
	sibling := openCompetition("Haarlem Open")
	sibling.Serie = comp.Serie
	env.source.details[comp.ID] = detailFor(comp)
	env.filter.ids = []uuid.UUID{recipientB, recipientA}
	require.NoError(t, env.venues.Upsert(ctx, database.Venue{Code: "ALK", City: "Alkmaar"}))

	task := env.processor.NewTask(comp, time.Now(), []competition.Competition{comp, sibling})
	require.NoError(t, task.Execute(ctx))
	assert.Equal(t, OutcomeDone, task.Outcome())

	has, err := env.processed.Has(ctx, comp.ID)
	require.NoError(t, err)
	assert.True(t, has)

	records, err := env.processed.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	n, err := env.notifications.Get(ctx, records[0].NotificationID)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "<p>Alkmaar Open</p>", n.Body)
	assert.Equal(t, []uuid.UUID{recipientA, recipientB}, n.Recipients)

	require.Len(t, env.filter.criteria, 1)
	criteria := env.filter.criteria[0]
	assert.Equal(t, "ALK", criteria.Venue)
	assert.Equal(t, []string{"H*"}, criteria.Categories)
	assert.Equal(t, []string{"IJSCLUB-A"}, criteria.ClubCodes)
	assert.Equal(t, []string{competition.DisciplineLongTrack}, criteria.Disciplines)
	assert.Nil(t, criteria.Invitees)

	in := env.renderer.input
	require.NotNil(t, in.Venue)
	assert.Equal(t, "Alkmaar", in.Venue.City)
	require.Len(t, in.Combinations, 1)
	assert.Equal(t, []int{500, 1000}, in.Combinations[0].Distances)
	require.Len(t, in.SerieMembers, 1)
	assert.Equal(t, "Haarlem Open", in.SerieMembers[0].Name)
	assert.Contains(t, in.Links.Subscription, comp.ID.String())
}

func TestProcessCompetitionUnknownVenue(t *testing.T) {
	env := newTestEnv(t)

	comp := openCompetition("Alkmaar Open")
	env.source.details[comp.ID] = detailFor(comp)

	task := env.processor.NewTask(comp, time.Now(), nil)
	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, OutcomeDone, task.Outcome())
	assert.Nil(t, env.renderer.input.Venue)
}

func TestProcessCompetitionCancelledWhileWaiting(t *testing.T) {
	env := newTestEnv(t)
	comp := openCompetition("Alkmaar Open")
	env.source.details[comp.ID] = detailFor(comp)

	ctx, cancel := context.WithCancel(context.Background())
	task := env.processor.NewTask(comp, time.Now().Add(time.Hour), nil)

	done := make(chan error, 1)
	go func() { done <- task.Execute(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("task did not stop after cancellation")
	}

	assert.Equal(t, OutcomeCancelledEarly, task.Outcome())
	assert.Zero(t, env.source.detailCalls.Load())
	assert.Zero(t, env.notificationCount(t))
	assert.Zero(t, env.processedCount(t))
}

func TestProcessCompetitionCancelledDuringFetch(t *testing.T) {
	env := newTestEnv(t)
	env.source.blockDetail = true
	comp := openCompetition("Alkmaar Open")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	task := env.processor.NewTask(comp, time.Now(), nil)
	require.NoError(t, task.Execute(ctx))

	assert.Equal(t, OutcomeCancelledMid, task.Outcome())
	assert.Zero(t, env.notificationCount(t))
	assert.Zero(t, env.processedCount(t))
}

func TestProcessCompetitionFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(env *testEnv, comp competition.Competition)
		outcome Outcome
		wantErr error
	}{
		{
			name: "fetch error",
			setup: func(env *testEnv, comp competition.Competition) {
				env.source.detailErr = competition.ErrFetch
			},
			outcome: OutcomeFailedFetch,
			wantErr: competition.ErrFetch,
		},
		{
			name: "still closed",
			setup: func(env *testEnv, comp competition.Competition) {
				detail := detailFor(comp)
				detail.Competition.Settings.IsClosed = true
				env.source.details[comp.ID] = detail
			},
			outcome: OutcomeNotYetOpen,
		},
		{
			name: "setting without combination",
			setup: func(env *testEnv, comp competition.Competition) {
				detail := detailFor(comp)
				detail.Settings[0].DistanceCombinationID = uuid.New()
				env.source.details[comp.ID] = detail
			},
			outcome: OutcomeFailedCompute,
			wantErr: competition.ErrMissingCombination,
		},
		{
			name: "render error",
			setup: func(env *testEnv, comp competition.Competition) {
				env.source.details[comp.ID] = detailFor(comp)
				env.renderer.err = competition.ErrRender
			},
			outcome: OutcomeFailedRender,
			wantErr: competition.ErrRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			comp := openCompetition("Alkmaar Open")
			tt.setup(env, comp)

			task := env.processor.NewTask(comp, time.Now(), nil)
			err := task.Execute(context.Background())

			assert.Equal(t, tt.outcome, task.Outcome())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Zero(t, env.notificationCount(t))
			assert.Zero(t, env.processedCount(t))
		})
	}
}

func TestProcessCompetitionDiscardsWhenRecordFails(t *testing.T) {
	env := newTestEnv(t)
	comp := openCompetition("Alkmaar Open")
	env.source.details[comp.ID] = detailFor(comp)
	env.processor.processed = failingProcessed{env.processed}

	task := env.processor.NewTask(comp, time.Now(), nil)
	err := task.Execute(context.Background())

	assert.ErrorIs(t, err, competition.ErrStore)
	assert.Equal(t, OutcomeFailedStore, task.Outcome())
	assert.Zero(t, env.notificationCount(t))
}

func TestProcessCompetitionFinishesWhenCancelledDuringRender(t *testing.T) {
	env := newTestEnv(t)
	comp := openCompetition("Alkmaar Open")
	env.source.details[comp.ID] = detailFor(comp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.renderer.onRender = cancel

	task := env.processor.NewTask(comp, time.Now(), nil)
	require.NoError(t, task.Execute(ctx))

	assert.Error(t, ctx.Err())
	assert.Equal(t, OutcomeDone, task.Outcome())
	assert.Equal(t, 1, env.notificationCount(t))
	assert.Equal(t, 1, env.processedCount(t))
}

func TestProcessCompetitionAtMostOnce(t *testing.T) {
	env := newTestEnv(t)
	comp := openCompetition("Alkmaar Open")
	env.source.details[comp.ID] = detailFor(comp)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 4)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := env.processor.NewTask(comp, time.Now(), nil)
			_ = task.Execute(context.Background())
			outcomes[i] = task.Outcome()
		}()
	}
	wg.Wait()

	done := 0
	for _, o := range outcomes {
		if o == OutcomeDone {
			done++
		} else {
			assert.Equal(t, OutcomeFailedStore, o)
		}
	}
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, env.notificationCount(t))
	assert.Equal(t, 1, env.processedCount(t))
}

func TestProcessCompetitionWaitsForStart(t *testing.T) {
	env := newTestEnv(t)
	comp := openCompetition("Alkmaar Open")
	env.source.details[comp.ID] = detailFor(comp)

	start := time.Now()
	task := env.processor.NewTask(comp, start.Add(50*time.Millisecond), nil)
	require.NoError(t, task.Execute(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, OutcomeDone, task.Outcome())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "failed_store", OutcomeFailedStore.String())
	assert.Equal(t, "unknown", Outcome(99).String())
	assert.True(t, OutcomeCancelledMid.Cancelled())
	assert.False(t, OutcomeDone.Cancelled())
}
