package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
)

func sampleInput() Input {
	id := uuid.MustParse("0b4e0c4c-8d0e-4f6b-9b62-5a2d7a1f4e11")
	comp := competition.Competition{
		ID:         id,
		Name:       "Alkmaar Open",
		Discipline: competition.DisciplineLongTrack,
		Starts:     competition.Timestamp{Time: time.Date(2026, 11, 14, 9, 0, 0, 0, time.Local)},
		Ends:       competition.Timestamp{Time: time.Date(2026, 11, 15, 17, 0, 0, 0, time.Local)},
		Location:   "IJsbaan De Meent",
		Settings: competition.Settings{
			Closes:  competition.Timestamp{Time: time.Date(2026, 11, 7, 23, 59, 0, 0, time.Local)},
			Extra:   "Lunch inbegrepen",
			Contact: competition.Contact{Email: "wedstrijd@example.org"},
		},
	}
	return Input{
		Competition: comp,
		Links:       competition.NewLinks("https://inschrijven.schaatsen.nl", id),
		Combinations: []competition.Combination{{
			Name:      "Sprint",
			Distances: []int{500, 1000},
			Limit:     competition.Limit{Distance: 500, Time: "45.00"},
			Cost:      competition.Cost{Competition: competition.Money{Amount: 12.5, Valid: true}},
		}},
		Venue:        &database.Venue{Code: "ALK", Name: "De Meent", City: "Alkmaar", PostalCode: "1816 MN"},
		Serie:        &competition.Serie{Name: "Noord-Holland Cup"},
		SerieMembers: []SerieEntry{{Name: "Haarlem Open", Link: "https://inschrijven.schaatsen.nl/#/wedstrijd/x/informatie"}},
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	r, err := NewRenderer("", false)
	require.NoError(t, err)

	body, err := r.Render(sampleInput())
	require.NoError(t, err)

	for _, want := range []string{
		"<h1>Alkmaar Open</h1>",
		"14-11-2026 t/m 15-11-2026",
		"Langebaan",
		"De Meent, 1816 MN Alkmaar",
		"07-11-2026 23:59",
		"Lunch inbegrepen",
		"Sprint (500m, 1000m)",
		"500m 45.00",
		"€ 12,50",
		"Noord-Holland Cup",
		"Haarlem Open",
		"/inschrijven",
		"mailto:wedstrijd@example.org",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "IJsbaan De Meent", "venue takes precedence over the location text")
	assert.LessOrEqual(t, len(body), database.DefaultMaxBodyBytes)
}

func TestRenderFallsBackToLocation(t *testing.T) {
	r, err := NewRenderer("", false)
	require.NoError(t, err)

	in := sampleInput()
	in.Venue = nil
	body, err := r.Render(in)
	require.NoError(t, err)
	assert.Contains(t, body, "<p>IJsbaan De Meent</p>")
}

func TestRenderEscapesContent(t *testing.T) {
	r, err := NewRenderer("", false)
	require.NoError(t, err)

	in := sampleInput()
	in.Competition.Name = `<script>alert("x")</script>`
	body, err := r.Render(in)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRenderMinified(t *testing.T) {
	plain, err := NewRenderer("", false)
	require.NoError(t, err)
	minified, err := NewRenderer("", true)
	require.NoError(t, err)

	a, err := plain.Render(sampleInput())
	require.NoError(t, err)
	b, err := minified.Render(sampleInput())
	require.NoError(t, err)

	assert.Less(t, len(b), len(a))
	assert.NotContains(t, b, "\n<p>")
	assert.Contains(t, b, "Alkmaar Open")
}

func TestRenderCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.html")
	require.NoError(t, os.WriteFile(path, []byte(`<b>{{.Competition.Name}}</b> {{money (index .Combinations 0).Cost.Competition}}`), 0o644))

	r, err := NewRenderer(path, false)
	require.NoError(t, err)

	body, err := r.Render(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "<b>Alkmaar Open</b> € 12,50", strings.TrimSpace(body))
}

func TestRenderFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.html")
	require.NoError(t, os.WriteFile(path, []byte(`{{.Competition.Missing}}`), 0o644))

	r, err := NewRenderer(path, false)
	require.NoError(t, err)

	_, err = r.Render(sampleInput())
	assert.ErrorIs(t, err, competition.ErrRender)
}

func TestNewRendererMissingFile(t *testing.T) {
	_, err := NewRenderer(filepath.Join(t.TempDir(), "nope.html"), false)
	assert.Error(t, err)
}
