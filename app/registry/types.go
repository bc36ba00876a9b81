package registry

import (
	"github.com/google/uuid"
)

// Recipient is a registry member. Recipients are loaded once and never
// modified afterwards.
type Recipient struct {
	ID          uuid.UUID `json:"id"`
	LicenseKey  string    `json:"license_key,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	HomeVenue   string    `json:"home_venue,omitempty"`
	ClubCode    string    `json:"club_code,omitempty"`
	Category    string    `json:"category,omitempty"`
	Disciplines []string  `json:"disciplines,omitempty"`
	// Venues limits notifications to competitions at these venues. Empty
	// means every venue.
	Venues []string `json:"venues,omitempty"`
}

func (r Recipient) Name() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	default:
		return r.FirstName + " " + r.LastName
	}
}

// Criteria selects recipients. A nil or empty list places no constraint;
// values within one list are alternatives and all lists must match.
type Criteria struct {
	Venue       string
	HomeVenues  []string
	Categories  []string
	ClubCodes   []string
	Disciplines []string
	// Invitees, when non-empty, is the complete answer: it matches recipient
	// ids or license keys and every other field is ignored.
	Invitees []string
}

type fileFormat struct {
	Recipients []rawRecipient `yaml:"recipients"`
}

type rawRecipient struct {
	ID          string   `yaml:"id"`
	LicenseKey  string   `yaml:"license_key"`
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	Email       string   `yaml:"email"`
	Phone       string   `yaml:"phone"`
	HomeVenue   string   `yaml:"home_venue"`
	ClubCode    string   `yaml:"club_code"`
	Category    string   `yaml:"category"`
	BirthDate   string   `yaml:"birth_date"`
	Gender      string   `yaml:"gender"`
	Disciplines []string `yaml:"disciplines"`
	Venues      []string `yaml:"venues"`
}
