package services

import (
	"context"
)

// Catalog defines the interface for music metadata services that can resolve
// songs to stable identifiers (e.g. Spotify).
type Catalog interface {
	// Authenticate acquires service credentials. For client-credentials
	// flows this fetches the initial token; failure here means every
	// subsequent lookup would fail the same way.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SearchTrack searches for a track by title and artist, returning the
	// best match. A miss returns an error wrapping shared.ErrTrackNotFound;
	// callers decide whether a miss matters.
	SearchTrack(ctx context.Context, title, artist string) (*TrackMatch, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TrackMatch is the catalog's best match for a searched song.
type TrackMatch struct {
	URI      string
	Title    string
	Artist   string
	Explicit bool
}
