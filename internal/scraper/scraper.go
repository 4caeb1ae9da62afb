// Package scraper fetches walk-up song listings from the MLB team pages.
//
// Team ballpark-music URLs are discovered from the fans page, then each team
// page is scraped individually. Team pages come in two markup generations
// (a "forge list" of featured players and a walkup-music table); both are
// supported. A single team failing to fetch or parse is never fatal to a run.
package scraper

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/shared"
	"github.com/charmbracelet/log"
)

const (
	defaultBaseURL = "https://www.mlb.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	fetchAttempts  = 3
)

// Client scrapes team pages for walk-up songs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// Options configures a scraper [Client].
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *log.Logger
}

// New creates a scraper Client. Zero-value options fall back to the public
// MLB site, a 30 second timeout, and a default logger.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		logger:     opts.Logger,
	}
}

// TeamPages discovers every team's ballpark-music URL from the fans page.
// Returns a map of team name to URL, or an error wrapping
// [shared.ErrSourceUnavailable] when the fans page itself cannot be read.
func (c *Client) TeamPages(ctx context.Context) (map[string]string, error) {
	doc, err := c.fetch(ctx, c.baseURL+"/fans")
	if err != nil {
		return nil, fmt.Errorf("%w: fans page: %v", shared.ErrSourceUnavailable, err)
	}

	pages := make(map[string]string)
	doc.Find(`a[data-parent="Teams"]`).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		musicURL := c.baseURL + href + "/ballpark/music"
		parts := strings.Split(musicURL, "/")
		if len(parts) < 3 {
			return
		}
		team := parts[len(parts)-3]
		pages[team] = musicURL
		c.logger.Debug("found team link", "team", team, "url", musicURL)
	})

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no team links on fans page", shared.ErrSourceUnavailable)
	}

	c.logger.Info("discovered team pages", "count", len(pages))
	return pages, nil
}

// TeamSongs scrapes one team's page and returns its walk-up records in
// listing order, stamped with the given observation date.
func (c *Client) TeamSongs(ctx context.Context, team, url string, observedOn time.Time) ([]models.WalkupRecord, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: team %s: %v", shared.ErrSourceUnavailable, team, err)
	}

	records := c.parseForgeList(doc, team, observedOn)
	if len(records) == 0 {
		c.logger.Debug("forge list empty, trying walkup music table", "team", team)
		records = c.parseWalkupTable(doc, team, observedOn)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: team %s", shared.ErrPageLayout, team)
	}

	c.logger.Debug("scraped team", "team", team, "songs", len(records))
	return records, nil
}

// All returns a lazy sequence of walk-up records across every team, one page
// per team. Teams that fail to fetch or parse are skipped with a warning;
// only fans-page discovery failure ends the sequence early.
func (c *Client) All(ctx context.Context, observedOn time.Time) iter.Seq[models.WalkupRecord] {
	return func(yield func(models.WalkupRecord) bool) {
		pages, err := c.TeamPages(ctx)
		if err != nil {
			c.logger.Error("team discovery failed", "error", err)
			return
		}
		for team, url := range pages {
			records, err := c.TeamSongs(ctx, team, url, observedOn)
			if err != nil {
				c.logger.Warn("skipping team", "team", team, "error", err)
				continue
			}
			for _, record := range records {
				if !yield(record) {
					return
				}
			}
		}
	}
}

// fetch retrieves a page with bounded retries and parses it into a document.
func (c *Client) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Debug("retrying fetch", "url", url, "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		doc, err := c.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// parseForgeList handles the older featured-content markup: one
// p-featured-content__body block per player, songs written as "Title by Artist"
// in spans, or as linked titles with the artist in a trailing text node.
func (c *Client) parseForgeList(doc *goquery.Document, team string, observedOn time.Time) []models.WalkupRecord {
	var records []models.WalkupRecord

	doc.Find("div.p-forge-list div.p-featured-content__body").Each(func(_ int, body *goquery.Selection) {
		player := collapse(body.Find("div.u-text-h4").First().Text())
		if player == "" {
			return
		}

		text := body.Find("div.p-featured-content__text").First()
		para := text.Find("p, span").First()

		seen := make(map[string]bool)
		add := func(title, artist string) {
			title, artist = collapse(title), collapse(artist)
			if title == "" {
				return
			}
			key := shared.NormalizeTrackKey(title, artist)
			if seen[key] {
				return
			}
			seen[key] = true
			records = append(records, models.WalkupRecord{
				Team:       team,
				Player:     player,
				SongTitle:  title,
				SongArtist: artist,
				ObservedOn: observedOn,
			})
		}

		para.Find("span").Each(func(_ int, span *goquery.Selection) {
			if title, artist, ok := strings.Cut(span.Text(), " by "); ok {
				add(title, artist)
			}
		})

		if len(seen) == 0 {
			para.Find("a").Each(func(_ int, a *goquery.Selection) {
				title := a.Find("em").First().Text()
				if title == "" {
					return
				}
				add(title, trailingArtist(a))
			})
		}
	})

	return records
}

// parseWalkupTable handles the walkup-music table markup: one row per player
// with data-testid tagged name and song-content blocks.
func (c *Client) parseWalkupTable(doc *goquery.Document, team string, observedOn time.Time) []models.WalkupRecord {
	var records []models.WalkupRecord

	table := doc.Find(`div[data-testid="player-walkup-music"] table`).First()
	table.Find(`tr[data-selected="false"][data-underlined="false"]`).Each(func(_ int, row *goquery.Selection) {
		first := testIDText(row, "spot-tag__super-name")
		last := testIDText(row, "spot-tag__name")
		player := collapse(first + " " + last)
		if player == "" {
			return
		}

		row.Find(`div[data-testid^="player-walkup-music-song-content-"]`).Each(func(_ int, song *goquery.Selection) {
			title := collapse(song.Find("div.player-walkup-music__song--content--songname").First().Text())
			artist := collapse(song.Find("div.player-walkup-music__song--content--artistname").First().Text())
			if title == "" || artist == "" {
				return
			}
			records = append(records, models.WalkupRecord{
				Team:       team,
				Player:     player,
				SongTitle:  title,
				SongArtist: artist,
				ObservedOn: observedOn,
			})
		})
	})

	return records
}

// testIDText finds the first element whose data-testid contains the marker
// and returns its text. "spot-tag__name" must not match the super-name tag.
func testIDText(row *goquery.Selection, marker string) string {
	var out string
	row.Find(`div[data-testid*="` + marker + `"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("data-testid")
		if marker == "spot-tag__name" && strings.Contains(id, "super-name") {
			return true
		}
		out = s.Text()
		return false
	})
	return out
}

// trailingArtist reads the text node following a song link, where the artist
// appears as " by Artist Name".
func trailingArtist(a *goquery.Selection) string {
	if len(a.Nodes) == 0 {
		return ""
	}
	sibling := a.Nodes[0].NextSibling
	if sibling == nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(sibling.Data), "by ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
