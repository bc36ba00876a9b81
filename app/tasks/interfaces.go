package tasks

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/notify"
	"github.com/smartyg/competitionnotify/app/registry"
)

// Source is the registration API as seen by the poller and the tasks.
type Source interface {
	FetchCompetitions(ctx context.Context) ([]competition.Competition, error)
	FetchDetail(ctx context.Context, id uuid.UUID) (*competition.Detail, error)
}

type RecipientFilter interface {
	Filter(c registry.Criteria) []uuid.UUID
}

type Renderer interface {
	Render(in notify.Input) (string, error)
}
