// package shared defines shared helpers
package shared

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// NormalizeTrackKey builds a comparison key for a song from its title and
// artist: lowercased, trimmed, with interior whitespace collapsed to single
// spaces. Formatting drift in the source ("Thunderstruck " vs "thunderstruck")
// must never register as a song change, so every title/artist comparison in
// the pipeline goes through this key.
func NormalizeTrackKey(title, artist string) string {
	return normalizeText(title) + "|" + normalizeText(artist)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// PlayerKey identifies a player across the pipeline. Player names are only
// unique within a team roster, so the team is part of the key.
func PlayerKey(team, player string) string {
	return team + "|" + strings.Join(strings.Fields(player), " ")
}

// ObservationDate returns the current calendar date in the US/Eastern zone,
// truncated to midnight. Game days follow the Eastern schedule; a run kicked
// off late UTC must not attribute observations to the next day.
func ObservationDate(now time.Time) time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
