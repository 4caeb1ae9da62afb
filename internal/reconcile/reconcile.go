// Package reconcile decides what a freshly observed walk-up song means for a
// player's stored state.
//
// Decisions are pure: the package never touches the database. The persistence
// layer applies each [models.Decision] in its own transaction.
package reconcile

import (
	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/shared"
)

// Decide compares a resolved record against the player's current entry (nil
// when the player has never been seen) and returns the decision to apply.
//
// Titles and artists are compared through their normalized track keys, so
// casing or whitespace drift in the source never registers as a change.
func Decide(resolved models.ResolvedSong, current *models.SongEntry) models.Decision {
	entry := newEntry(resolved)

	if current == nil {
		return models.Decision{
			Action: models.ActionInsert,
			Entry:  entry,
			Event:  newEvent(resolved, nil),
		}
	}

	if current.TrackKey() == resolved.TrackKey() {
		refreshed := *current
		refreshed.LastUpdated = resolved.ObservedOn
		return models.Decision{Action: models.ActionNoOp, Entry: refreshed}
	}

	retired := *current
	retired.IsCurrent = false
	retired.LastUpdated = resolved.ObservedOn

	return models.Decision{
		Action:   models.ActionSupersede,
		Entry:    entry,
		Previous: &retired,
		Event:    newEvent(resolved, current),
	}
}

// FirstListed drops all but the first record per player, preserving source
// order. Team pages can list multiple songs for one player (walk-up plus
// at-bat); the first-listed song is taken as the current one.
func FirstListed(records []models.WalkupRecord) []models.WalkupRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		key := r.PlayerKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func newEntry(resolved models.ResolvedSong) models.SongEntry {
	entry := models.SongEntry{
		ID:          shared.GenerateID(),
		Team:        resolved.Team,
		Player:      resolved.Player,
		SongTitle:   resolved.SongTitle,
		SongArtist:  resolved.SongArtist,
		FirstSeen:   resolved.ObservedOn,
		LastUpdated: resolved.ObservedOn,
		IsCurrent:   true,
	}
	if resolved.Match.Found {
		uri := resolved.Match.URI
		explicit := resolved.Match.Explicit
		entry.CatalogURI = &uri
		entry.Explicit = &explicit
	}
	return entry
}

func newEvent(resolved models.ResolvedSong, previous *models.SongEntry) *models.ChangeEvent {
	event := models.ChangeEvent{
		ID:         shared.GenerateID(),
		Team:       resolved.Team,
		Player:     resolved.Player,
		NewTitle:   resolved.SongTitle,
		NewArtist:  resolved.SongArtist,
		ChangeDate: resolved.ObservedOn,
	}
	if previous != nil {
		title := previous.SongTitle
		artist := previous.SongArtist
		event.PreviousTitle = &title
		event.PreviousArtist = &artist
	}
	return &event
}
