package registry

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/smartyg/competitionnotify/app/competition"
)

// licenseNamespace derives stable recipient ids from license keys when the
// registry file does not carry an explicit id.
var licenseNamespace = uuid.MustParse("8f1e8f3c-5b8a-4c43-9d0e-2f5b6c1a7d90")

type Registry struct {
	recipients []Recipient
	byID       map[uuid.UUID]int
	byLicense  map[string]int
}

func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	r, err := Parse(data, time.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}

	slog.Debug("Recipient registry loaded", "file", path, "recipients", r.Count())
	return r, nil
}

// Parse decodes a registry document. now selects the season used for
// recipients that only carry a birth date.
func Parse(data []byte, now time.Time) (*Registry, error) {
	var file fileFormat
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	recipients := make([]Recipient, 0, len(file.Recipients))
	for i, raw := range file.Recipients {
		recipient, err := raw.toRecipient(now)
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i+1, err)
		}
		recipients = append(recipients, recipient)
	}

	return New(recipients)
}

// New builds a registry from already decoded recipients, canonicalising
// codes and rejecting duplicates.
func New(recipients []Recipient) (*Registry, error) {
	r := &Registry{
		recipients: make([]Recipient, 0, len(recipients)),
		byID:       make(map[uuid.UUID]int, len(recipients)),
		byLicense:  make(map[string]int, len(recipients)),
	}

	for _, recipient := range recipients {
		if err := validate(&recipient); err != nil {
			return nil, err
		}
		if _, ok := r.byID[recipient.ID]; ok {
			return nil, fmt.Errorf("duplicate recipient id %s", recipient.ID)
		}
		key := normalizeCode(recipient.LicenseKey)
		if key != "" {
			if _, ok := r.byLicense[key]; ok {
				return nil, fmt.Errorf("duplicate license key %s", recipient.LicenseKey)
			}
			r.byLicense[key] = len(r.recipients)
		}
		r.byID[recipient.ID] = len(r.recipients)
		r.recipients = append(r.recipients, recipient)
	}

	return r, nil
}

func (r *Registry) Count() int {
	return len(r.recipients)
}

func (r *Registry) Get(id uuid.UUID) (Recipient, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Recipient{}, false
	}
	return r.recipients[i], true
}

func (r *Registry) All() []Recipient {
	return slices.Clone(r.recipients)
}

// Search matches the query against names, email, license key and club code.
func (r *Registry) Search(query string) []Recipient {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var out []Recipient
	for _, recipient := range r.recipients {
		fields := []string{recipient.Name(), recipient.Email, recipient.LicenseKey, recipient.ClubCode}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), query) {
				out = append(out, recipient)
				break
			}
		}
	}
	return out
}

// Filter returns the ids of the recipients selected by c, sorted and
// without duplicates. Equal criteria always give equal results.
func (r *Registry) Filter(c Criteria) []uuid.UUID {
	selected := make(map[uuid.UUID]struct{})

	if invitees := nonEmpty(c.Invitees); len(invitees) > 0 {
		for _, invitee := range invitees {
			if id, err := uuid.Parse(invitee); err == nil {
				if _, ok := r.byID[id]; ok {
					selected[id] = struct{}{}
					continue
				}
			}
			if i, ok := r.byLicense[normalizeCode(invitee)]; ok {
				selected[r.recipients[i].ID] = struct{}{}
			}
		}
		return sortedIDs(selected)
	}

	m := newMatcher(c)
	for i := range r.recipients {
		if m.match(&r.recipients[i]) {
			selected[r.recipients[i].ID] = struct{}{}
		}
	}
	return sortedIDs(selected)
}

type matcher struct {
	venue       string
	homeVenues  map[string]struct{}
	clubCodes   map[string]struct{}
	disciplines map[string]struct{}
	categories  competition.CategoryFilter
	// literal category codes used when the filter expression does not parse
	literals map[string]struct{}
}

func newMatcher(c Criteria) *matcher {
	m := &matcher{
		venue:       normalizeCode(c.Venue),
		homeVenues:  codeSet(c.HomeVenues, normalizeCode),
		clubCodes:   codeSet(c.ClubCodes, normalizeCode),
		disciplines: codeSet(c.Disciplines, competition.NormalizeDiscipline),
	}

	if categories := nonEmpty(c.Categories); len(categories) > 0 {
		filter, err := competition.ParseCategoryFilter(categories)
		if err != nil {
			slog.Warn("Unparseable category filter, comparing literally", "filter", categories, "error", err)
			m.literals = codeSet(categories, normalizeCode)
		} else {
			m.categories = filter
		}
	}

	return m
}

func (m *matcher) match(r *Recipient) bool {
	if m.venue != "" && len(r.Venues) > 0 && !slices.Contains(r.Venues, m.venue) {
		return false
	}
	if m.homeVenues != nil && !contains(m.homeVenues, r.HomeVenue) {
		return false
	}
	if m.clubCodes != nil && !contains(m.clubCodes, r.ClubCode) {
		return false
	}
	if m.disciplines != nil && len(r.Disciplines) > 0 && !slices.ContainsFunc(r.Disciplines, func(d string) bool {
		return contains(m.disciplines, d)
	}) {
		return false
	}
	if m.categories != nil || m.literals != nil {
		if r.Category == "" {
			return false
		}
		if m.literals != nil {
			return contains(m.literals, r.Category)
		}
		category, err := competition.ParseCategory(r.Category)
		if err != nil || !m.categories.Match(category) {
			return false
		}
	}
	return true
}

func validate(r *Recipient) error {
	if r.ID == uuid.Nil {
		if r.LicenseKey == "" {
			return fmt.Errorf("recipient %q needs an id or a license key", r.Name())
		}
		r.ID = uuid.NewSHA1(licenseNamespace, []byte(normalizeCode(r.LicenseKey)))
	}

	r.HomeVenue = normalizeCode(r.HomeVenue)
	r.ClubCode = normalizeCode(r.ClubCode)
	r.Venues = normalizeList(r.Venues, normalizeCode)
	r.Disciplines = normalizeList(r.Disciplines, competition.NormalizeDiscipline)

	if r.Category != "" {
		category, err := competition.ParseCategory(r.Category)
		if err != nil {
			return fmt.Errorf("recipient %s: %w", r.ID, err)
		}
		r.Category = category.String()
	}
	return nil
}

func (raw rawRecipient) toRecipient(now time.Time) (Recipient, error) {
	r := Recipient{
		LicenseKey:  strings.TrimSpace(raw.LicenseKey),
		FirstName:   strings.TrimSpace(raw.FirstName),
		LastName:    strings.TrimSpace(raw.LastName),
		Email:       strings.TrimSpace(raw.Email),
		Phone:       strings.TrimSpace(raw.Phone),
		HomeVenue:   raw.HomeVenue,
		ClubCode:    raw.ClubCode,
		Category:    strings.TrimSpace(raw.Category),
		Disciplines: raw.Disciplines,
		Venues:      raw.Venues,
	}

	if raw.ID != "" {
		id, err := uuid.Parse(raw.ID)
		if err != nil {
			return Recipient{}, fmt.Errorf("invalid id %q: %w", raw.ID, err)
		}
		r.ID = id
	}

	if r.Category == "" && raw.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", raw.BirthDate)
		if err != nil {
			return Recipient{}, fmt.Errorf("invalid birth_date %q: %w", raw.BirthDate, err)
		}
		season := now.Year()
		if now.Month() <= time.June {
			season--
		}
		category, err := competition.CategoryForBirthDate(strings.EqualFold(raw.Gender, "H") || strings.EqualFold(raw.Gender, "M"), birth, season)
		if err != nil {
			return Recipient{}, err
		}
		r.Category = category.String()
	}

	return r, nil
}

func normalizeCode(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

func normalizeList(values []string, normalize func(string) string) []string {
	var out []string
	for _, v := range values {
		if v = normalize(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func codeSet(values []string, normalize func(string) string) map[string]struct{} {
	var set map[string]struct{}
	for _, v := range values {
		if v = normalize(v); v == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{})
		}
		set[v] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}
