package competition

import (
	"github.com/google/uuid"
)

// Competition is a single registration event as published by the
// registration API. A value is an immutable snapshot of one discovery cycle.
type Competition struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Discipline string    `json:"discipline"`
	Test       bool      `json:"test"`
	Starts     Timestamp `json:"starts"`
	Ends       Timestamp `json:"ends"`
	Location   string    `json:"location"`
	Extra      string    `json:"extra"`
	Settings   Settings  `json:"settings"`
	Venue      *Venue    `json:"venue"`
	Serie      *Serie    `json:"serie"`
}

type Settings struct {
	Opens          Timestamp `json:"opens"`
	Closes         Timestamp `json:"closes"`
	WithdrawUntil  Timestamp `json:"withdrawUntil"`
	IsClosed       bool      `json:"isClosed"`
	IsRegularOpen  bool      `json:"isRegularOpen"`
	IsLateOpen     bool      `json:"isLateOpen"`
	MaxCompetitors int       `json:"maxCompetitors"`
	Extra          string    `json:"extra"`
	Currency       string    `json:"currency"`
	Contact        Contact   `json:"contact"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	URL   string `json:"url"`
}

type Venue struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Discipline string  `json:"discipline"`
	Address    Address `json:"address"`
}

type Address struct {
	City            string `json:"city"`
	CountryCode     string `json:"countryCode"`
	Line1           string `json:"line1"`
	Line2           string `json:"line2"`
	PostalCode      string `json:"postalCode"`
	StateOrProvince string `json:"stateOrProvince"`
}

type Serie struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Distance struct {
	Value      int    `json:"value"`
	Discipline string `json:"discipline"`
	Number     int    `json:"number"`
}

// DistanceCombination groups distances that are skated together and carries
// the category filter of the group.
type DistanceCombination struct {
	ID               uuid.UUID  `json:"id"`
	Number           int        `json:"number"`
	Name             string     `json:"name"`
	CategoryFilter   StringList `json:"categoryFilter"`
	Distances        []Distance `json:"distances"`
	CompetitorsTotal int        `json:"competitorsTotal"`
}

// DistanceCombinationSetting holds the registration rules of one distance
// combination. It references its combination through DistanceCombinationID.
type DistanceCombinationSetting struct {
	DistanceCombinationID       uuid.UUID   `json:"distanceCombinationId"`
	IsClosed                    bool        `json:"isClosed"`
	AllowedRegistrations        int         `json:"allowedRegistrations"`
	Invitees                    InviteeList `json:"invitees"`
	HomeVenueFilter             StringList  `json:"homeVenueFilter"`
	ClubCodeFilter              StringList  `json:"clubCodeFilter"`
	LimitTimeDistanceDiscipline string      `json:"limitTimeDistanceDiscipline"`
	LimitTimeDistanceValue      int         `json:"limitTimeDistanceValue"`
	LimitTime                   string      `json:"limitTime"`
	CompetitionPaymentOption    Money       `json:"competitionPaymentOption"`
	SeriePaymentOption          Money       `json:"seriePaymentOption"`
	MaxCompetitors              int         `json:"maxCompetitors"`
}

// Detail bundles the three documents fetched for a single competition.
type Detail struct {
	Competition  Competition
	Combinations []DistanceCombination
	Settings     []DistanceCombinationSetting
}

// Limit is the qualification requirement of a combination.
type Limit struct {
	Discipline string
	Distance   int
	Time       string
}

type Cost struct {
	Competition Money
	Serie       Money
}

// Combination is the summary of a distance combination used in notifications.
type Combination struct {
	ID        uuid.UUID
	Name      string
	Limit     Limit
	Cost      Cost
	Distances []int
}

// SerieMember is a short reference to another competition in the same series.
type SerieMember struct {
	ID   uuid.UUID
	Name string
}
