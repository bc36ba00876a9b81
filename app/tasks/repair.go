package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smartyg/competitionnotify/app/database"
)

// RepairOrphans finishes the dedup record of every unsent notification
// that lost it because the process stopped between the two writes. When a
// record for the competition already points at another notification the
// orphan is discarded. It returns the number of orphans handled.
func RepairOrphans(ctx context.Context, notifications database.NotificationRepository, processed database.ProcessedRepository) (int, error) {
	orphans, err := notifications.ListOrphans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list orphaned notifications: %w", err)
	}

	for _, n := range orphans {
		recorded, err := processed.Record(ctx, n.CompetitionID, n.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to record orphaned notification %s: %w", n.ID, err)
		}
		if recorded {
			slog.Info("Recorded orphaned notification", "competition", n.CompetitionID, "notification", n.ID)
			continue
		}

		if err := notifications.Discard(ctx, n.ID); err != nil && !errors.Is(err, database.ErrAlreadyRecorded) {
			return 0, fmt.Errorf("failed to discard duplicate notification %s: %w", n.ID, err)
		}
		slog.Info("Discarded duplicate notification", "competition", n.CompetitionID, "notification", n.ID)
	}

	return len(orphans), nil
}
