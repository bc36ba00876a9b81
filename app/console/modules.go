package console

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/registry"
)

const defaultLimit = 50

type limitArgs struct {
	Limit int `json:"limit"`
}

func (a limitArgs) value() int {
	if a.Limit <= 0 {
		return defaultLimit
	}
	return a.Limit
}

type idArgs struct {
	ID uuid.UUID `json:"id"`
}

// Discovery is the part of the poller the console can see.
type Discovery interface {
	Snapshot() ([]competition.Competition, time.Time)
	Trigger()
}

type TaskSet interface {
	RunningIDs() []uuid.UUID
}

func CompetitionsModule(discovery Discovery, tasks TaskSet, processed database.ProcessedRepository) Module {
	return Module{
		Name:     "competitions",
		Commands: []string{"count", "processed", "trigger", "running"},
		Handler: func(ctx context.Context, command string, data json.RawMessage) (any, error) {
			switch command {
			case "count":
				snapshot, at := discovery.Snapshot()
				count, err := processed.Count(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"discovered":    len(snapshot),
					"processed":     count,
					"discovered_at": at,
				}, nil
			case "processed":
				var args limitArgs
				if err := decode(data, &args); err != nil {
					return nil, err
				}
				return processed.List(ctx, args.value())
			case "trigger":
				discovery.Trigger()
				return true, nil
			case "running":
				return tasks.RunningIDs(), nil
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
		},
	}
}

func VenuesModule(venues database.VenueRepository) Module {
	return Module{
		Name:     "venues",
		Commands: []string{"get", "list"},
		Handler: func(ctx context.Context, command string, data json.RawMessage) (any, error) {
			switch command {
			case "get":
				var args struct {
					Code string `json:"code"`
				}
				if err := decode(data, &args); err != nil {
					return nil, err
				}
				if args.Code == "" {
					return nil, fmt.Errorf("%w: code is required", ErrWrongDataType)
				}
				return venues.Get(ctx, args.Code)
			case "list":
				return venues.List(ctx)
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
		},
	}
}

func RecipientsModule(reg *registry.Registry) Module {
	return Module{
		Name:     "recipients",
		Commands: []string{"count", "get", "search"},
		Handler: func(ctx context.Context, command string, data json.RawMessage) (any, error) {
			switch command {
			case "count":
				return reg.Count(), nil
			case "get":
				var args idArgs
				if err := decode(data, &args); err != nil {
					return nil, err
				}
				r, ok := reg.Get(args.ID)
				if !ok {
					return nil, nil
				}
				return r, nil
			case "search":
				var args struct {
					Query string `json:"query"`
				}
				if err := decode(data, &args); err != nil {
					return nil, err
				}
				return reg.Search(args.Query), nil
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
		},
	}
}

func NotificationsModule(notifications database.NotificationRepository) Module {
	return Module{
		Name:     "notifications",
		Commands: []string{"count", "get", "pending"},
		Handler: func(ctx context.Context, command string, data json.RawMessage) (any, error) {
			switch command {
			case "count":
				return notifications.Count(ctx)
			case "get":
				var args idArgs
				if err := decode(data, &args); err != nil {
					return nil, err
				}
				return notifications.Get(ctx, args.ID)
			case "pending":
				var args limitArgs
				if err := decode(data, &args); err != nil {
					return nil, err
				}
				return notifications.ListPending(ctx, args.value())
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
		},
	}
}
