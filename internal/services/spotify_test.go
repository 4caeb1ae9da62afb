package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arvkevi/walkup/internal/shared"
)

const searchFoundBody = `{
	"tracks": {
		"items": [
			{
				"id": "track1",
				"name": "Thunderstruck",
				"uri": "spotify:track:57bgtoPSgt236HzfBOd8kj",
				"explicit": false,
				"artists": [{"id": "artist1", "name": "AC/DC", "uri": "spotify:artist:711MCceyCBcFnzjGY4Q7Un"}]
			}
		]
	}
}`

const searchEmptyBody = `{"tracks": {"items": []}}`

func testCatalog(t *testing.T, search http.HandlerFunc) *SpotifyCatalog {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test_token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/search", search)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	catalog, err := NewSpotifyCatalog(map[string]string{
		"client_id":     "test_id",
		"client_secret": "test_secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyCatalog() error = %v", err)
	}
	catalog.baseURL = server.URL + "/v1"
	catalog.tokenURL = server.URL + "/api/token"
	catalog.authURL = server.URL + "/authorize"

	if err := catalog.Authenticate(context.Background(), nil); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	return catalog
}

func TestNewSpotifyCatalogMissingCredentials(t *testing.T) {
	tc := []struct {
		name        string
		credentials map[string]string
	}{
		{"no client_id", map[string]string{"client_secret": "secret"}},
		{"no client_secret", map[string]string{"client_id": "id"}},
		{"empty values", map[string]string{"client_id": "", "client_secret": ""}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpotifyCatalog(tt.credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}

func TestAuthenticateBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	catalog, err := NewSpotifyCatalog(map[string]string{"client_id": "id", "client_secret": "bad"})
	if err != nil {
		t.Fatal(err)
	}
	catalog.tokenURL = server.URL

	if err := catalog.Authenticate(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

func TestSearchTrackFound(t *testing.T) {
	catalog := testCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q != "track:Thunderstruck artist:AC/DC" {
			t.Errorf("unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchFoundBody)
	})

	match, err := catalog.SearchTrack(context.Background(), "Thunderstruck", "AC/DC")
	if err != nil {
		t.Fatalf("SearchTrack() error = %v", err)
	}

	if match.URI != "spotify:track:57bgtoPSgt236HzfBOd8kj" {
		t.Errorf("unexpected uri %q", match.URI)
	}
	if match.Artist != "AC/DC" {
		t.Errorf("unexpected artist %q", match.Artist)
	}
	if match.Explicit {
		t.Error("track should not be explicit")
	}
}

func TestSearchTrackNotFound(t *testing.T) {
	catalog := testCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchEmptyBody)
	})

	_, err := catalog.SearchTrack(context.Background(), "Nonexistent Song", "Nobody")
	if !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestSearchTrackRetriesThrottle(t *testing.T) {
	var calls int
	catalog := testCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchFoundBody)
	})

	match, err := catalog.SearchTrack(context.Background(), "Thunderstruck", "AC/DC")
	if err != nil {
		t.Fatalf("expected retry to recover from throttle, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 search calls, got %d", calls)
	}
	if match.Title != "Thunderstruck" {
		t.Errorf("unexpected match %+v", match)
	}
}

func TestSearchTrackUnauthorized(t *testing.T) {
	var calls int
	catalog := testCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := catalog.SearchTrack(context.Background(), "Thunderstruck", "AC/DC")
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if calls != 1 {
		t.Errorf("auth failures should not be retried, got %d calls", calls)
	}
}

func TestSearchTrackWithoutAuthenticate(t *testing.T) {
	catalog, err := NewSpotifyCatalog(map[string]string{"client_id": "id", "client_secret": "secret"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = catalog.SearchTrack(context.Background(), "Thunderstruck", "AC/DC")
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestOAuthConfig(t *testing.T) {
	catalog, err := NewSpotifyCatalog(map[string]string{"client_id": "id", "client_secret": "secret"})
	if err != nil {
		t.Fatal(err)
	}

	conf := catalog.OAuthConfig()
	if conf.RedirectURL != "http://localhost:3000/callback" {
		t.Errorf("expected default redirect, got %q", conf.RedirectURL)
	}
	if len(conf.Scopes) == 0 {
		t.Error("expected playlist scopes")
	}
}
