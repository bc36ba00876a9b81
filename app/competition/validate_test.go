package competition

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetail() Detail {
	combinationID := uuid.MustParse("9b0c61d2-0a5a-4f3f-8f43-3a8c2b1b0001")
	return Detail{
		Competition: Competition{
			ID:   uuid.MustParse("0b4e0c4c-8d0e-4f6b-9b62-5a2d7a1f4e11"),
			Name: "Alkmaar Open",
			Settings: Settings{
				Closes: Timestamp{time.Date(2026, 11, 7, 23, 59, 0, 0, time.UTC)},
			},
		},
		Combinations: []DistanceCombination{{
			ID:             combinationID,
			Name:           "500m + 1000m",
			CategoryFilter: StringList{"H*"},
			Distances:      []Distance{{Value: 500}, {Value: 1000}},
		}},
		Settings: []DistanceCombinationSetting{{
			DistanceCombinationID:       combinationID,
			LimitTimeDistanceDiscipline: DisciplineLongTrack,
			LimitTimeDistanceValue:      500,
			LimitTime:                   "45.00",
			CompetitionPaymentOption:    Money{Amount: 12.5, Valid: true},
		}},
	}
}

func TestDetailValidate(t *testing.T) {
	d := validDetail()
	assert.NoError(t, d.Validate())

	d.Competition.ID = uuid.Nil
	assert.True(t, errors.Is(d.Validate(), ErrInvalid))

	d = validDetail()
	d.Competition.Settings.Closes = Timestamp{}
	assert.ErrorIs(t, d.Validate(), ErrInvalid)

	d = validDetail()
	d.Combinations[0].Distances = append(d.Combinations[0].Distances, Distance{Value: 0})
	assert.ErrorIs(t, d.Validate(), ErrInvalid)

	d = validDetail()
	d.Settings[0].DistanceCombinationID = uuid.Nil
	assert.ErrorIs(t, d.Validate(), ErrInvalid)
}

func TestSummarise(t *testing.T) {
	d := validDetail()

	combinations, pairs, err := d.Summarise()
	require.NoError(t, err)
	require.Len(t, combinations, 1)
	require.Len(t, pairs, 1)

	c := combinations[0]
	assert.Equal(t, "500m + 1000m", c.Name)
	assert.Equal(t, []int{500, 1000}, c.Distances)
	assert.Equal(t, Limit{Discipline: DisciplineLongTrack, Distance: 500, Time: "45.00"}, c.Limit)
	assert.Equal(t, "12.50", c.Cost.Competition.String())
	assert.Same(t, &d.Combinations[0], pairs[0].Combination)
}

func TestSummariseMissingCombination(t *testing.T) {
	d := validDetail()
	d.Settings = append(d.Settings, DistanceCombinationSetting{DistanceCombinationID: uuid.New()})

	_, _, err := d.Summarise()
	assert.ErrorIs(t, err, ErrMissingCombination)
}

func TestNormalizeDiscipline(t *testing.T) {
	assert.Equal(t, DisciplineLongTrack, NormalizeDiscipline("longtrack"))
	assert.Equal(t, DisciplineShortTrack, NormalizeDiscipline(" SpeedSkating.ShortTrack "))
	assert.Equal(t, "Curling", NormalizeDiscipline("Curling"))
	assert.Equal(t, "", NormalizeDiscipline(""))
}

func TestLinksAndSerieMembers(t *testing.T) {
	id := uuid.MustParse("0b4e0c4c-8d0e-4f6b-9b62-5a2d7a1f4e11")
	links := NewLinks("https://inschrijven.schaatsen.nl/", id)
	assert.Equal(t, "https://inschrijven.schaatsen.nl/", links.General)
	assert.Equal(t, "https://inschrijven.schaatsen.nl/#/wedstrijd/"+id.String()+"/inschrijven", links.Subscription)

	serie := &Serie{ID: uuid.New(), Name: "Cup"}
	sibling := Competition{ID: uuid.New(), Name: "Round 2", Serie: serie}
	snapshot := []Competition{
		{ID: id, Name: "Round 1", Serie: serie},
		sibling,
		{ID: uuid.New(), Name: "Other"},
	}

	members := SerieMembers(snapshot, serie, id)
	assert.Equal(t, []SerieMember{{ID: sibling.ID, Name: "Round 2"}}, members)
	assert.Nil(t, SerieMembers(snapshot, nil, id))
}
