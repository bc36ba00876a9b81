package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ NotificationRepository = (*NotificationRepo)(nil)

type NotificationRepo struct {
	db          *DB
	maxBodySize int
}

func NewNotificationRepository(db *DB, maxBodySize int) *NotificationRepo {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodyBytes
	}
	return &NotificationRepo{db: db, maxBodySize: maxBodySize}
}

func (r *NotificationRepo) Enqueue(ctx context.Context, competitionID uuid.UUID, recipients []uuid.UUID, body string) (uuid.UUID, error) {
	if len(body) > r.maxBodySize {
		return uuid.Nil, fmt.Errorf("%w: body is %d bytes, limit is %d", ErrFieldTooLong, len(body), r.maxBodySize)
	}

	id := uuid.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifications (id, competition_id, body, sent, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, blob(id), blob(competitionID), body, time.Now().UnixMilli())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notification_recipients (notification_id, recipient_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare recipient insert: %w", err)
	}
	defer stmt.Close()

	for _, recipient := range recipients {
		if _, err := stmt.ExecContext(ctx, blob(id), blob(recipient)); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert recipient %s: %w", recipient, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit notification: %w", err)
	}

	return id, nil
}

func (r *NotificationRepo) Discard(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var recorded bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_competitions WHERE notification_id = ?)`,
		blob(id)).Scan(&recorded)
	if err != nil {
		return fmt.Errorf("failed to check dedup record: %w", err)
	}
	if recorded {
		return fmt.Errorf("%w: %s", ErrAlreadyRecorded, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notification_recipients WHERE notification_id = ?`, blob(id)); err != nil {
		return fmt.Errorf("failed to delete recipients: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id = ? AND sent = 0`, blob(id)); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	return tx.Commit()
}

func (r *NotificationRepo) MarkSent(ctx context.Context, id uuid.UUID, group *uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET sent = 1, recipient_group = ?, sent_at = ?
		WHERE id = ?
	`, nullableBlob(group), at.UnixMilli(), blob(id))
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (r *NotificationRepo) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, competition_id, body, sent, recipient_group, sent_at, created_at
		FROM notifications WHERE id = ?
	`, blob(id))

	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT recipient_id FROM notification_recipients
		WHERE notification_id = ? ORDER BY recipient_id
	`, blob(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipient uuid.UUID
		if err := rows.Scan(&recipient); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		n.Recipients = append(n.Recipients, recipient)
	}

	return n, rows.Err()
}

func (r *NotificationRepo) ListPending(ctx context.Context, limit int) ([]Notification, error) {
	return r.list(ctx, `
		SELECT id, competition_id, body, sent, recipient_group, sent_at, created_at
		FROM notifications WHERE sent = 0
		ORDER BY created_at DESC LIMIT ?
	`, limit)
}

// ListOrphans returns unsent notifications without a dedup record, oldest
// first. They only exist when the process stopped between the two writes.
func (r *NotificationRepo) ListOrphans(ctx context.Context) ([]Notification, error) {
	return r.list(ctx, `
		SELECT n.id, n.competition_id, n.body, n.sent, n.recipient_group, n.sent_at, n.created_at
		FROM notifications n
		LEFT JOIN processed_competitions p ON p.notification_id = n.id
		WHERE p.notification_id IS NULL AND n.sent = 0
		ORDER BY n.created_at
	`)
}

func (r *NotificationRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) list(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}

	return notifications, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (*Notification, error) {
	var n Notification
	var group []byte
	var sentAt sql.NullInt64
	var createdAt int64

	if err := s.Scan(&n.ID, &n.CompetitionID, &n.Body, &n.Sent, &group, &sentAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	if len(group) == 16 {
		id, err := uuid.FromBytes(group)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient group: %w", err)
		}
		n.RecipientGroup = &id
	}
	if sentAt.Valid {
		t := time.UnixMilli(sentAt.Int64)
		n.SentAt = &t
	}
	n.CreatedAt = time.UnixMilli(createdAt)

	return &n, nil
}
