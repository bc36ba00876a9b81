package competition

import (
	"fmt"

	"github.com/google/uuid"
)

func (c *Competition) Validate() error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: competition without id", ErrInvalid)
	}
	if c.Settings.Closes.IsZero() {
		return fmt.Errorf("%w: competition %s has no closing time", ErrInvalid, c.ID)
	}
	if !c.Starts.IsZero() && !c.Ends.IsZero() && c.Ends.Before(c.Starts.Time) {
		return fmt.Errorf("%w: competition %s ends before it starts", ErrInvalid, c.ID)
	}
	if c.Venue != nil && c.Venue.Code == "" {
		return fmt.Errorf("%w: competition %s has a venue without code", ErrInvalid, c.ID)
	}
	return nil
}

func (d *DistanceCombination) Validate() error {
	if d.ID == uuid.Nil {
		return fmt.Errorf("%w: distance combination without id", ErrInvalid)
	}
	for _, distance := range d.Distances {
		if distance.Value <= 0 {
			return fmt.Errorf("%w: distance combination %s has distance %d", ErrInvalid, d.ID, distance.Value)
		}
	}
	return nil
}

func (s *DistanceCombinationSetting) Validate() error {
	if s.DistanceCombinationID == uuid.Nil {
		return fmt.Errorf("%w: setting without distance combination id", ErrInvalid)
	}
	return nil
}

func (d *Detail) Validate() error {
	if err := d.Competition.Validate(); err != nil {
		return err
	}
	for i := range d.Combinations {
		if err := d.Combinations[i].Validate(); err != nil {
			return err
		}
	}
	for i := range d.Settings {
		if err := d.Settings[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Summarise joins every setting to its distance combination. A setting that
// references an unknown combination fails the whole detail.
func (d *Detail) Summarise() ([]Combination, []Pair, error) {
	byID := make(map[uuid.UUID]*DistanceCombination, len(d.Combinations))
	for i := range d.Combinations {
		byID[d.Combinations[i].ID] = &d.Combinations[i]
	}

	combinations := make([]Combination, 0, len(d.Settings))
	pairs := make([]Pair, 0, len(d.Settings))
	for i := range d.Settings {
		setting := &d.Settings[i]
		combination, ok := byID[setting.DistanceCombinationID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingCombination, setting.DistanceCombinationID)
		}

		distances := make([]int, 0, len(combination.Distances))
		for _, distance := range combination.Distances {
			distances = append(distances, distance.Value)
		}

		combinations = append(combinations, Combination{
			ID:   combination.ID,
			Name: combination.Name,
			Limit: Limit{
				Discipline: setting.LimitTimeDistanceDiscipline,
				Distance:   setting.LimitTimeDistanceValue,
				Time:       setting.LimitTime,
			},
			Cost: Cost{
				Competition: setting.CompetitionPaymentOption,
				Serie:       setting.SeriePaymentOption,
			},
			Distances: distances,
		})
		pairs = append(pairs, Pair{Combination: combination, Setting: setting})
	}
	return combinations, pairs, nil
}

// Pair is a setting together with the combination it belongs to.
type Pair struct {
	Combination *DistanceCombination
	Setting     *DistanceCombinationSetting
}
