// Package formatter renders run summaries and exports walk-up song data
// (CSV, plain text) for terminal output and downstream playlist tooling.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/tasks"
	"github.com/charmbracelet/lipgloss"
)

// Palette holds the named [lipgloss.Style] fields used for summary output.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

var styles = Palette{
	title: lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
	ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
	err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
	dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
}

const dateLayout = "2006-01-02"

// Summary renders a run summary for the terminal.
func Summary(s *tasks.RunSummary) string {
	var b strings.Builder

	header := fmt.Sprintf("Run complete (%s)", s.ObservedOn.Format(dateLayout))
	if s.DryRun {
		header += " [dry run]"
	}
	b.WriteString(styles.title.Render(header))
	b.WriteString("\n")

	fmt.Fprintf(&b, "  teams scraped:   %d/%d\n", s.TeamsFound-len(s.TeamsFailed), s.TeamsFound)
	fmt.Fprintf(&b, "  players seen:    %d\n", s.Players)
	fmt.Fprintf(&b, "  %s  %d\n", styles.ok.Render("new songs:     "), s.Inserted)
	fmt.Fprintf(&b, "  %s  %d\n", styles.ok.Render("song changes:  "), s.Changed)
	fmt.Fprintf(&b, "  unchanged:       %d\n", s.Unchanged)
	fmt.Fprintf(&b, "  unresolved:      %d\n", s.Unresolved)

	if s.Skipped > 0 {
		fmt.Fprintf(&b, "  %s  %d\n", styles.err.Render("skipped:       "), s.Skipped)
	}
	if len(s.TeamsFailed) > 0 {
		fmt.Fprintf(&b, "  %s  %s\n", styles.warn.Render("failed teams:  "), strings.Join(s.TeamsFailed, ", "))
	}
	if s.Degraded {
		b.WriteString("  " + styles.warn.Render("catalog lookups degraded to unresolved") + "\n")
	}
	b.WriteString("  " + styles.dim.Render(fmt.Sprintf("took %s", s.Duration.Round(10*time.Millisecond))) + "\n")

	return b.String()
}

// SongsCSV exports current entries as CSV with columns:
// Team, Player, Title, Artist, CatalogURI, Explicit, FirstSeen, LastUpdated
func SongsCSV(entries []*models.SongEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Team", "Player", "Title", "Artist", "CatalogURI", "Explicit", "FirstSeen", "LastUpdated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		uri := ""
		if entry.CatalogURI != nil {
			uri = *entry.CatalogURI
		}
		explicit := ""
		if entry.Explicit != nil {
			explicit = fmt.Sprintf("%t", *entry.Explicit)
		}
		record := []string{
			entry.Team,
			entry.Player,
			entry.SongTitle,
			entry.SongArtist,
			uri,
			explicit,
			entry.FirstSeen.Format(dateLayout),
			entry.LastUpdated.Format(dateLayout),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsText renders current entries as plain lines grouped by team.
func SongsText(entries []*models.SongEntry) string {
	var b strings.Builder
	team := ""
	for _, entry := range entries {
		if entry.Team != team {
			team = entry.Team
			b.WriteString(styles.title.Render(team) + "\n")
		}
		fmt.Fprintf(&b, "  %s: %s", entry.Player, entry.SongTitle)
		if entry.SongArtist != "" {
			fmt.Fprintf(&b, " by %s", entry.SongArtist)
		}
		if entry.CatalogURI != nil {
			b.WriteString("  " + styles.dim.Render(*entry.CatalogURI))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ChangesText renders change events as plain lines, newest first.
func ChangesText(events []*models.ChangeEvent) string {
	var b strings.Builder
	for _, event := range events {
		previous := "(first observation)"
		if event.PreviousTitle != nil {
			previous = *event.PreviousTitle
			if event.PreviousArtist != nil && *event.PreviousArtist != "" {
				previous += " by " + *event.PreviousArtist
			}
		}
		next := event.NewTitle
		if event.NewArtist != "" {
			next += " by " + event.NewArtist
		}
		fmt.Fprintf(&b, "%s  %s/%s: %s -> %s\n",
			event.ChangeDate.Format(dateLayout),
			event.Team,
			event.Player,
			styles.dim.Render(previous),
			styles.ok.Render(next),
		)
	}
	return b.String()
}
