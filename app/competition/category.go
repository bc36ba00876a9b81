package competition

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Category codes are three characters: gender, age group and age sub group.
// Two notations are in use; the new one (H55) and the old one (HMD).
var (
	genderCodes = []string{"D", "H"}
	ageCodes    = []string{"P", "C", "B", "A", "N", "3", "4", "5", "6", "7", "8"}
	ageOldCodes = []string{"P", "C", "B", "A", "N", "S", "M", "M", "M", "M", "M"}
	subCodes    = [][]string{
		{"F", "E", "D", "C", "B", "A"}, // pupils
		{"1", "2"},                     // junior C
		{"1", "2"},                     // junior B
		{"1", "2"},                     // junior A
		{"1", "2", "3", "4"},           // neo senior
		{"0", "5"},                     // senior
		{"0", "5"},                     // master 40
		{"0", "5"},                     // master 50
		{"0", "5"},                     // master 60
		{"0", "5"},                     // master 70
		{"0", "5"},                     // master 80
	}
	subOldCodes = [][]string{
		{"F", "E", "D", "C", "B", "A"},
		{"1", "2"},
		{"1", "2"},
		{"1", "2"},
		{"1", "2", "3", "4"},
		{"A", "B"},
		{"A", "B"},
		{"C", "D"},
		{"E", "F"},
		{"G", "H"},
		nil, // master 80 has no old style code
	}
)

type Category struct {
	Gender int
	Age    int
	Sub    int
}

// ParseCategory accepts both notations and is case insensitive.
func ParseCategory(code string) (Category, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return Category{}, fmt.Errorf("category %q must have three characters", code)
	}

	gender := slices.Index(genderCodes, code[0:1])
	if gender < 0 {
		return Category{}, fmt.Errorf("category %q has unknown gender", code)
	}

	for _, candidate := range ageCandidates(code[1:2]) {
		if sub := slices.Index(candidate.subs, code[2:3]); sub >= 0 {
			return Category{Gender: gender, Age: candidate.age, Sub: sub}, nil
		}
	}
	return Category{}, fmt.Errorf("category %q has unknown age group", code)
}

// CategoryForBirthDate derives the category for the season starting in
// the given year. Ages are taken on June 30 of that year.
func CategoryForBirthDate(male bool, birth time.Time, season int) (Category, error) {
	reference := time.Date(season, time.June, 30, 0, 0, 0, 0, time.UTC)
	years := reference.Year() - birth.Year()
	if reference.Month() < birth.Month() ||
		(reference.Month() == birth.Month() && reference.Day() < birth.Day()) {
		years--
	}

	c := Category{}
	if male {
		c.Gender = 1
	}

	switch {
	case years < 13:
		c.Age, c.Sub = 0, max(years-7, 0)
	case years < 15:
		c.Age, c.Sub = 1, years-13
	case years < 17:
		c.Age, c.Sub = 2, years-15
	case years < 19:
		c.Age, c.Sub = 3, years-17
	case years < 23:
		c.Age, c.Sub = 4, years-19
	case years < 30:
		c.Age, c.Sub = 5, 0
	case years < 39:
		c.Age, c.Sub = 5, 1
	default:
		c.Age, c.Sub = (years+1)/10+2, ((years+1)%10)/5
	}

	if c.Age >= len(ageCodes) {
		return Category{}, fmt.Errorf("no category for age %d", years)
	}
	return c, nil
}

func (c Category) String() string {
	return genderCodes[c.Gender] + ageCodes[c.Age] + subCodes[c.Age][c.Sub]
}

// OldStyle returns the old notation, or false when the category has none.
func (c Category) OldStyle() (string, bool) {
	subs := subOldCodes[c.Age]
	if len(subs) == 0 {
		return "", false
	}
	return genderCodes[c.Gender] + ageOldCodes[c.Age] + subs[c.Sub], true
}

type ageCandidate struct {
	age  int
	subs []string
}

func ageCandidates(code string) []ageCandidate {
	var out []ageCandidate
	for age := range ageCodes {
		if ageCodes[age] == code {
			out = append(out, ageCandidate{age: age, subs: subCodes[age]})
		} else if ageOldCodes[age] == code {
			out = append(out, ageCandidate{age: age, subs: subOldCodes[age]})
		}
	}
	return out
}

// CategoryFilter is the set of categories selected by a filter expression.
type CategoryFilter map[Category]struct{}

// ParseCategoryFilter expands entries like "H**", "D*", "*", "HN2" or "HMD"
// into the categories they select. Entries may themselves be comma lists.
func ParseCategoryFilter(entries []string) (CategoryFilter, error) {
	filter := make(CategoryFilter)
	for _, entry := range entries {
		for _, part := range splitList(entry) {
			if err := filter.add(strings.ToUpper(part)); err != nil {
				return nil, err
			}
		}
	}
	return filter, nil
}

func (f CategoryFilter) Match(c Category) bool {
	_, ok := f[c]
	return ok
}

// Codes returns the selected categories in new notation, sorted.
func (f CategoryFilter) Codes() []string {
	codes := make([]string, 0, len(f))
	for c := range f {
		codes = append(codes, c.String())
	}
	slices.Sort(codes)
	return codes
}

func (f CategoryFilter) add(entry string) error {
	var gender, age, sub string
	switch {
	case len(entry) == 1 && isWildcard(entry[0]):
		gender, age, sub = "*", "*", "*"
	case len(entry) == 2 && isWildcard(entry[1]):
		gender, age, sub = entry[0:1], "*", "*"
	case len(entry) == 3:
		gender, age, sub = entry[0:1], entry[1:2], entry[2:3]
	default:
		return fmt.Errorf("%q is not a valid category filter", entry)
	}

	var genders []int
	if isWildcard(gender[0]) {
		genders = []int{0, 1}
	} else if g := slices.Index(genderCodes, gender); g >= 0 {
		genders = []int{g}
	} else {
		return fmt.Errorf("%q has unknown gender", entry)
	}

	added := 0
	for _, g := range genders {
		if isWildcard(age[0]) {
			for a := range ageCodes {
				for s := range subCodes[a] {
					f[Category{Gender: g, Age: a, Sub: s}] = struct{}{}
					added++
				}
			}
			continue
		}

		for _, candidate := range ageCandidates(age) {
			for s := range subCodes[candidate.age] {
				if isWildcard(sub[0]) || (s < len(candidate.subs) && candidate.subs[s] == sub) {
					f[Category{Gender: g, Age: candidate.age, Sub: s}] = struct{}{}
					added++
				}
			}
		}
	}

	if added == 0 {
		return fmt.Errorf("%q does not select any category", entry)
	}
	return nil
}

func isWildcard(b byte) bool {
	return b == '*' || b == '?'
}
