package competition

import "strings"

const disciplinePrefix = "SpeedSkating."

const (
	DisciplineInline     = "SpeedSkating.Inline"
	DisciplineLongTrack  = "SpeedSkating.LongTrack"
	DisciplineMarathon   = "SpeedSkating.Marathon"
	DisciplineShortTrack = "SpeedSkating.ShortTrack"
)

var disciplines = []string{DisciplineInline, DisciplineLongTrack, DisciplineMarathon, DisciplineShortTrack}

// NormalizeDiscipline maps "longtrack", "LongTrack" and
// "SpeedSkating.LongTrack" to the same code. Unknown values are returned
// trimmed but otherwise unchanged.
func NormalizeDiscipline(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	short := strings.TrimPrefix(s, disciplinePrefix)
	for _, d := range disciplines {
		if strings.EqualFold(strings.TrimPrefix(d, disciplinePrefix), short) {
			return d
		}
	}
	return s
}
