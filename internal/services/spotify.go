// Spotify implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arvkevi/walkup/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	searchAttempts = 3
)

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Artists  []SpotifyArtist `json:"artists"`
	Explicit bool            `json:"explicit"`
	URI      string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifySearchResult represents the track portion of a search response.
type SpotifySearchResult struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyCatalog implements the Catalog interface for the Spotify Web API.
// Uses the [clientcredentials] flow: track search needs no user scope.
type SpotifyCatalog struct {
	credentials map[string]string
	httpClient  *http.Client
	baseURL     string
	tokenURL    string
	authURL     string
}

// NewSpotifyCatalog creates a new Spotify catalog with the given OAuth2 credentials.
func NewSpotifyCatalog(credentials map[string]string) (*SpotifyCatalog, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	return &SpotifyCatalog{
		credentials: credentials,
		baseURL:     spotifyBaseURL,
		tokenURL:    spotifyTokenURL,
		authURL:     spotifyAuthURL,
	}, nil
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// Authenticate acquires a client-credentials token and installs a
// self-refreshing HTTP client. Fetching the first token eagerly surfaces bad
// credentials at run start instead of at the first lookup.
func (s *SpotifyCatalog) Authenticate(ctx context.Context, credentials map[string]string) error {
	if credentials == nil {
		credentials = s.credentials
	}

	conf := &clientcredentials.Config{
		ClientID:     credentials["client_id"],
		ClientSecret: credentials["client_secret"],
		TokenURL:     s.tokenURL,
	}

	if _, err := conf.Token(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.httpClient = conf.Client(ctx)
	return nil
}

// OAuthConfig returns the authorization-code configuration for interactive
// login. Only the auth command uses this; the pipeline itself sticks to
// client credentials.
func (s *SpotifyCatalog) OAuthConfig() *oauth2.Config {
	redirectURI := s.credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}
	return &oauth2.Config{
		ClientID:     s.credentials["client_id"],
		ClientSecret: s.credentials["client_secret"],
		RedirectURL:  redirectURI,
		Scopes:       []string{"playlist-modify-public", "playlist-modify-private"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.authURL,
			TokenURL: s.tokenURL,
		},
	}
}

// SearchTrack searches for the best match of a (title, artist) pair.
//
// Retries throttled (429) and transient server responses up to three
// attempts, honoring Retry-After. A well-formed response with no items
// returns an error wrapping [shared.ErrTrackNotFound].
func (s *SpotifyCatalog) SearchTrack(ctx context.Context, title, artist string) (*TrackMatch, error) {
	if s.httpClient == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	endpoint := fmt.Sprintf("%s/search?q=%s&type=track&limit=1", s.baseURL, url.QueryEscape(query))

	var lastErr error
	for attempt := 0; attempt < searchAttempts; attempt++ {
		result, retryAfter, err := s.searchOnce(ctx, endpoint)
		if err == nil {
			if len(result.Tracks.Items) == 0 {
				return nil, fmt.Errorf("%w: %q by %q", shared.ErrTrackNotFound, title, artist)
			}
			track := result.Tracks.Items[0]
			match := &TrackMatch{
				URI:      track.URI,
				Title:    track.Name,
				Explicit: track.Explicit,
			}
			if len(track.Artists) > 0 {
				match.Artist = track.Artists[0].Name
			}
			return match, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if retryAfter > backoff {
			backoff = retryAfter
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}

// searchOnce performs a single search request, returning the parsed result or
// an error plus any Retry-After hint from a throttled response.
func (s *SpotifyCatalog) searchOnce(ctx context.Context, endpoint string) (*SpotifySearchResult, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
		return nil, retryAfter, fmt.Errorf("%w: spotify search throttled", shared.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, 0, fmt.Errorf("%w: spotify rejected token", shared.ErrNotAuthenticated)
	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, 0, fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	var result SpotifySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, 0, nil
}

// retryable reports whether a search error is worth another attempt.
func retryable(err error) bool {
	return errors.Is(err, shared.ErrRateLimited) || errors.Is(err, shared.ErrAPIRequest)
}
