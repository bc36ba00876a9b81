package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProcessedRepository interface {
	Has(ctx context.Context, competitionID uuid.UUID) (bool, error)
	// Record returns false without error when the competition already has a
	// record.
	Record(ctx context.Context, competitionID, notificationID uuid.UUID) (bool, error)
	List(ctx context.Context, limit int) ([]ProcessedCompetition, error)
	Count(ctx context.Context) (int, error)
}

type NotificationRepository interface {
	// Enqueue stores the notification and its recipients in one committed
	// transaction before returning the new id.
	Enqueue(ctx context.Context, competitionID uuid.UUID, recipients []uuid.UUID, body string) (uuid.UUID, error)
	// Discard removes an unsent notification that has no dedup record.
	Discard(ctx context.Context, id uuid.UUID) error
	MarkSent(ctx context.Context, id uuid.UUID, group *uuid.UUID, at time.Time) error

	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListPending(ctx context.Context, limit int) ([]Notification, error)
	ListOrphans(ctx context.Context) ([]Notification, error)
	Count(ctx context.Context) (int, error)
}

type VenueRepository interface {
	Get(ctx context.Context, code string) (*Venue, error)
	// Upsert fills empty fields of an existing venue and never overwrites
	// a field that already has a value.
	Upsert(ctx context.Context, venue Venue) error
	List(ctx context.Context) ([]Venue, error)
}
