package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ VenueRepository = (*VenueRepo)(nil)

type VenueRepo struct {
	db *DB
}

func NewVenueRepository(db *DB) *VenueRepo {
	return &VenueRepo{db: db}
}

func (r *VenueRepo) Get(ctx context.Context, code string) (*Venue, error) {
	code = normalizeVenueCode(code)
	if code == "" {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT code, country_code, name, city, line1, line2, postal_code, state_or_province, updated_at
		FROM venues WHERE code = ?
	`, code)

	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *VenueRepo) Upsert(ctx context.Context, v Venue) error {
	code := normalizeVenueCode(v.Code)
	if code == "" {
		return fmt.Errorf("venue without code")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO venues (code, country_code, name, city, line1, line2, postal_code, state_or_province, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			country_code      = COALESCE(NULLIF(venues.country_code, ''), excluded.country_code),
			name              = COALESCE(NULLIF(venues.name, ''), excluded.name),
			city              = COALESCE(NULLIF(venues.city, ''), excluded.city),
			line1             = COALESCE(NULLIF(venues.line1, ''), excluded.line1),
			line2             = COALESCE(NULLIF(venues.line2, ''), excluded.line2),
			postal_code       = COALESCE(NULLIF(venues.postal_code, ''), excluded.postal_code),
			state_or_province = COALESCE(NULLIF(venues.state_or_province, ''), excluded.state_or_province),
			updated_at        = excluded.updated_at
	`,
		code,
		truncate(v.CountryCode, maxCodeBytes),
		truncate(v.Name, maxTextBytes),
		truncate(v.City, maxTextBytes),
		truncate(v.Line1, maxTextBytes),
		truncate(v.Line2, maxTextBytes),
		truncate(v.PostalCode, maxPostalCodeBytes),
		truncate(v.StateOrProvince, maxTextBytes),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert venue %s: %w", code, err)
	}
	return nil
}

func (r *VenueRepo) List(ctx context.Context) ([]Venue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, country_code, name, city, line1, line2, postal_code, state_or_province, updated_at
		FROM venues ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

func scanVenue(s scanner) (*Venue, error) {
	var v Venue
	var updatedAt int64
	err := s.Scan(&v.Code, &v.CountryCode, &v.Name, &v.City, &v.Line1, &v.Line2, &v.PostalCode, &v.StateOrProvince, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan venue: %w", err)
	}
	v.UpdatedAt = time.UnixMilli(updatedAt)
	return &v, nil
}
