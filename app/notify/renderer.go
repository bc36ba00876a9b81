package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
)

//go:embed templates/notification.html
var templateFS embed.FS

const defaultTemplate = "templates/notification.html"

// SerieEntry is another competition of the same series, with its
// information link.
type SerieEntry struct {
	Name string
	Link string
}

// Input is everything the notification template can refer to.
type Input struct {
	Competition  competition.Competition
	Links        competition.Links
	Combinations []competition.Combination
	Venue        *database.Venue
	Serie        *competition.Serie
	SerieMembers []SerieEntry
}

type Renderer struct {
	tmpl     *template.Template
	minifier *minify.M
}

// NewRenderer parses the notification template. An empty templateFile
// selects the built-in template.
func NewRenderer(templateFile string, minifyHTML bool) (*Renderer, error) {
	var tmpl *template.Template
	var err error
	if templateFile == "" {
		tmpl, err = template.New(filepath.Base(defaultTemplate)).Funcs(funcs).ParseFS(templateFS, defaultTemplate)
	} else {
		var data []byte
		data, err = os.ReadFile(templateFile)
		if err == nil {
			tmpl, err = template.New(filepath.Base(templateFile)).Funcs(funcs).Parse(string(data))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification template: %w", err)
	}

	r := &Renderer{tmpl: tmpl}
	if minifyHTML {
		r.minifier = minify.New()
		r.minifier.Add("text/html", &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	}
	return r, nil
}

func (r *Renderer) Render(in Input) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("%w: %w", competition.ErrRender, err)
	}

	if r.minifier == nil {
		return buf.String(), nil
	}

	out, err := r.minifier.String("text/html", buf.String())
	if err != nil {
		return "", fmt.Errorf("%w: failed to minify: %w", competition.ErrRender, err)
	}
	return out, nil
}

var funcs = template.FuncMap{
	"date":       formatDate("02-01-2006"),
	"datetime":   formatDate("02-01-2006 15:04"),
	"discipline": disciplineLabel,
	"distances":  joinDistances,
	"money":      formatMoney,
}

func formatDate(layout string) func(competition.Timestamp) string {
	return func(ts competition.Timestamp) string {
		if ts.IsZero() {
			return ""
		}
		return ts.Local().Format(layout)
	}
}

var disciplineLabels = map[string]string{
	competition.DisciplineInline:     "Inline",
	competition.DisciplineLongTrack:  "Langebaan",
	competition.DisciplineMarathon:   "Marathon",
	competition.DisciplineShortTrack: "Shorttrack",
}

func disciplineLabel(s string) string {
	d := competition.NormalizeDiscipline(s)
	if label, ok := disciplineLabels[d]; ok {
		return label
	}
	return d
}

func joinDistances(distances []int) string {
	parts := make([]string, len(distances))
	for i, d := range distances {
		parts[i] = strconv.Itoa(d) + "m"
	}
	return strings.Join(parts, ", ")
}

func formatMoney(m competition.Money) string {
	if !m.Valid {
		return ""
	}
	return "€ " + strings.Replace(m.String(), ".", ",", 1)
}
