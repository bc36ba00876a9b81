package database

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedCompetition is the dedup record proving that a competition
// produced its notification.
type ProcessedCompetition struct {
	CompetitionID  uuid.UUID `json:"competition_id"`
	NotificationID uuid.UUID `json:"notification_id"`
	ProcessedAt    time.Time `json:"processed_at"`
}

type Notification struct {
	ID             uuid.UUID   `json:"id"`
	CompetitionID  uuid.UUID   `json:"competition_id"`
	Body           string      `json:"body"`
	Sent           bool        `json:"sent"`
	RecipientGroup *uuid.UUID  `json:"recipient_group,omitempty"`
	SentAt         *time.Time  `json:"sent_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	Recipients     []uuid.UUID `json:"recipients,omitempty"` // only filled by Get
}

// Venue is an address book entry keyed by venue code.
type Venue struct {
	Code            string    `json:"code"`
	CountryCode     string    `json:"country_code,omitempty"`
	Name            string    `json:"name,omitempty"`
	City            string    `json:"city,omitempty"`
	Line1           string    `json:"line1,omitempty"`
	Line2           string    `json:"line2,omitempty"`
	PostalCode      string    `json:"postal_code,omitempty"`
	StateOrProvince string    `json:"state_or_province,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}
