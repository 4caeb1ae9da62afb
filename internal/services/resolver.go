package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Resolver enriches walk-up records with catalog matches.
//
// Lookups are best-effort: a miss, a throttle that outlasts the retry budget,
// or a lookup timeout all yield an unresolved record, never an error. Once
// the catalog reports an authentication failure the resolver degrades for the
// rest of the run and stops calling out at all.
type Resolver struct {
	catalog  Catalog
	limiter  *rate.Limiter
	logger   *log.Logger
	degraded atomic.Bool
}

// ResolverOpts configures a [Resolver].
type ResolverOpts struct {
	Catalog   Catalog
	RateLimit float64 // lookups per second (default: 5)
	Logger    *log.Logger
}

// NewResolver creates a Resolver. A nil catalog produces a permanently
// degraded resolver that marks every record unresolved, which is how a run
// without Spotify credentials operates.
func NewResolver(opts ResolverOpts) *Resolver {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	r := &Resolver{
		catalog: opts.Catalog,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:  opts.Logger,
	}
	if opts.Catalog == nil {
		r.degraded.Store(true)
	}
	return r
}

// Degraded reports whether the resolver has stopped performing lookups.
func (r *Resolver) Degraded() bool {
	return r.degraded.Load()
}

// Resolve looks up a record's song in the catalog and returns the record
// with its match attached. Safe for concurrent use.
func (r *Resolver) Resolve(ctx context.Context, record models.WalkupRecord) models.ResolvedSong {
	resolved := models.ResolvedSong{WalkupRecord: record}

	if r.degraded.Load() {
		return resolved
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return resolved
	}

	match, err := r.catalog.SearchTrack(ctx, record.SongTitle, record.SongArtist)
	switch {
	case err == nil:
		resolved.Match = models.CatalogMatch{Found: true, URI: match.URI, Explicit: match.Explicit}
	case errors.Is(err, shared.ErrTrackNotFound):
		r.logger.Debug("no catalog match", "player", record.Player, "title", record.SongTitle, "artist", record.SongArtist)
	case errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrAuthFailed):
		if r.degraded.CompareAndSwap(false, true) {
			r.logger.Error("catalog authentication failed, remaining lookups degrade to unresolved", "error", err)
		}
	default:
		r.logger.Warn("catalog lookup failed", "player", record.Player, "title", record.SongTitle, "error", err)
	}

	return resolved
}
