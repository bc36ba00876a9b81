package competition

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Links struct {
	General      string
	Subscription string
	Information  string
	Participants string
}

func NewLinks(siteBase string, id uuid.UUID) Links {
	base := strings.TrimRight(siteBase, "/")
	return Links{
		General:      base + "/",
		Subscription: fmt.Sprintf("%s/#/wedstrijd/%s/inschrijven", base, id),
		Information:  fmt.Sprintf("%s/#/wedstrijd/%s/informatie", base, id),
		Participants: fmt.Sprintf("%s/#/wedstrijd/%s/deelnemers", base, id),
	}
}

// SerieMembers returns the other competitions of the given series found in
// the snapshot, in snapshot order.
func SerieMembers(snapshot []Competition, serie *Serie, exclude uuid.UUID) []SerieMember {
	if serie == nil || serie.ID == uuid.Nil {
		return nil
	}
	var members []SerieMember
	for _, c := range snapshot {
		if c.ID == exclude || c.Serie == nil || c.Serie.ID != serie.ID {
			continue
		}
		members = append(members, SerieMember{ID: c.ID, Name: c.Name})
	}
	return members
}
