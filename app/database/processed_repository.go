package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ProcessedRepository = (*ProcessedRepo)(nil)

// ProcessedRepo is the durable dedup ledger of processed competitions.
type ProcessedRepo struct {
	db *DB
}

func NewProcessedRepository(db *DB) *ProcessedRepo {
	return &ProcessedRepo{db: db}
}

func (r *ProcessedRepo) Has(ctx context.Context, competitionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_competitions WHERE competition_id = ?)`,
		blob(competitionID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed competition: %w", err)
	}
	return exists, nil
}

func (r *ProcessedRepo) Record(ctx context.Context, competitionID, notificationID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_competitions (competition_id, notification_id, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (competition_id) DO NOTHING
	`, blob(competitionID), blob(notificationID), time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to record processed competition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func (r *ProcessedRepo) List(ctx context.Context, limit int) ([]ProcessedCompetition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT competition_id, notification_id, processed_at
		FROM processed_competitions
		ORDER BY processed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed competitions: %w", err)
	}
	defer rows.Close()

	var records []ProcessedCompetition
	for rows.Next() {
		var record ProcessedCompetition
		var processedAt int64
		if err := rows.Scan(&record.CompetitionID, &record.NotificationID, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processed competition: %w", err)
		}
		record.ProcessedAt = time.UnixMilli(processedAt)
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *ProcessedRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_competitions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count processed competitions: %w", err)
	}
	return count, nil
}
