package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/console"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/notify"
)

type GeneratorInterface interface {
	Run(notifications []database.Notification, now time.Time) (string, error)
}

var _ GeneratorInterface = (*notify.FeedGenerator)(nil)

type DispatcherInterface interface {
	Dispatch(ctx context.Context, module, command string, data json.RawMessage) (any, error)
}

var _ DispatcherInterface = (*console.Console)(nil)

// StatusInterface exposes the live state of discovery and tasks.
type StatusInterface interface {
	Snapshot() ([]competition.Competition, time.Time)
	Running() int
}

type Handler struct {
	processedRepo    database.ProcessedRepository
	notificationRepo database.NotificationRepository
	generator        GeneratorInterface
	dispatcher       DispatcherInterface
	status           StatusInterface
	feedLimit        int
	version          string
}
