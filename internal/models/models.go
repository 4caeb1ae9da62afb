package models

import (
	"fmt"
	"time"

	"github.com/arvkevi/walkup/internal/shared"
)

// WalkupRecord is a raw per-player observation scraped from a team page.
// It is produced fresh each run and never persisted as-is.
type WalkupRecord struct {
	Team       string
	Player     string
	SongTitle  string
	SongArtist string // may be empty when the source omits it
	ObservedOn time.Time
}

// Validate checks the fields the source contract guarantees are non-empty.
func (r WalkupRecord) Validate() error {
	if r.Team == "" {
		return fmt.Errorf("%w: record missing team", shared.ErrInvalidInput)
	}
	if r.Player == "" {
		return fmt.Errorf("%w: record missing player", shared.ErrInvalidInput)
	}
	if r.SongTitle == "" {
		return fmt.Errorf("%w: record missing song title", shared.ErrInvalidInput)
	}
	if r.ObservedOn.IsZero() {
		return fmt.Errorf("%w: record missing observation date", shared.ErrInvalidInput)
	}
	return nil
}

// PlayerKey returns the key identifying this record's player.
func (r WalkupRecord) PlayerKey() string {
	return shared.PlayerKey(r.Team, r.Player)
}

// TrackKey returns the normalized comparison key for this record's song.
func (r WalkupRecord) TrackKey() string {
	return shared.NormalizeTrackKey(r.SongTitle, r.SongArtist)
}

// CatalogMatch is the explicit maybe-found result of a catalog lookup.
// Found=false is a valid outcome, not an error.
type CatalogMatch struct {
	Found    bool
	URI      string
	Explicit bool
}

// ResolvedSong is a WalkupRecord enriched with its catalog lookup result.
type ResolvedSong struct {
	WalkupRecord
	Match CatalogMatch
}

// SongEntry is a persisted walk_up_songs row.
//
// CatalogURI and Explicit are pointers because lookup misses persist as NULL.
type SongEntry struct {
	ID          string
	Team        string
	Player      string
	SongTitle   string
	SongArtist  string
	CatalogURI  *string
	Explicit    *bool
	FirstSeen   time.Time
	LastUpdated time.Time
	IsCurrent   bool
}

// PlayerKey returns the key identifying this entry's player.
func (e SongEntry) PlayerKey() string {
	return shared.PlayerKey(e.Team, e.Player)
}

// TrackKey returns the normalized comparison key for this entry's song.
func (e SongEntry) TrackKey() string {
	return shared.NormalizeTrackKey(e.SongTitle, e.SongArtist)
}

// ChangeEvent is an immutable song_change_events row. PreviousTitle and
// PreviousArtist are nil for a player's first-ever observation.
type ChangeEvent struct {
	ID             string
	Team           string
	Player         string
	PreviousTitle  *string
	PreviousArtist *string
	NewTitle       string
	NewArtist      string
	ChangeDate     time.Time
}

// Action is the outcome class of reconciling one resolved record against a
// player's current entry.
type Action int

const (
	// ActionNoOp leaves the current entry in place, refreshing only its
	// last_updated_date.
	ActionNoOp Action = iota
	// ActionInsert creates a player's first-ever current entry.
	ActionInsert
	// ActionSupersede retires the player's current entry and opens a new one.
	ActionSupersede
)

func (a Action) String() string {
	switch a {
	case ActionNoOp:
		return "noop"
	case ActionInsert:
		return "insert"
	case ActionSupersede:
		return "supersede"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the unit of work the persistence gateway applies atomically
// for one player.
//
// Entry is the row to write: the refreshed current entry for NoOp, the new
// current entry otherwise. Previous is the entry being retired (Supersede
// only). Event is non-nil for Insert and Supersede.
type Decision struct {
	Action   Action
	Entry    SongEntry
	Previous *SongEntry
	Event    *ChangeEvent
}
