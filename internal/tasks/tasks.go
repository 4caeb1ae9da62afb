package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/reconcile"
	"github.com/arvkevi/walkup/internal/repositories"
	"github.com/arvkevi/walkup/internal/scraper"
	"github.com/arvkevi/walkup/internal/services"
	"github.com/arvkevi/walkup/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Gateway is the slice of the persistence layer the pipeline needs. Satisfied
// by [repositories.SongRepository].
type Gateway interface {
	CurrentEntries(ctx context.Context) (map[string]*models.SongEntry, error)
	Apply(ctx context.Context, decision models.Decision) error
}

var _ Gateway = (*repositories.SongRepository)(nil)

// Pipeline wires the scraper, resolver, and persistence gateway into one
// runnable ingestion pass.
type Pipeline struct {
	scraper  *scraper.Client
	resolver *services.Resolver
	gateway  Gateway
	logger   *log.Logger
	workers  int
	limiter  *rate.Limiter
	dryRun   bool
}

// PipelineOpts contains configuration for a [Pipeline].
type PipelineOpts struct {
	Scraper  *scraper.Client
	Resolver *services.Resolver
	Gateway  Gateway
	Logger   *log.Logger
	Workers  int     // concurrent team scrapers (default: 5, max: 10)
	Rate     float64 // team page fetches per second (default: 5)
	DryRun   bool    // decide but do not write
}

// NewPipeline creates a Pipeline with bounded worker and rate settings.
func NewPipeline(opts PipelineOpts) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.Rate <= 0 {
		opts.Rate = 5.0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Pipeline{
		scraper:  opts.Scraper,
		resolver: opts.Resolver,
		gateway:  opts.Gateway,
		logger:   opts.Logger,
		workers:  opts.Workers,
		limiter:  rate.NewLimiter(rate.Limit(opts.Rate), 1),
		dryRun:   opts.DryRun,
	}
}

// RunSummary reports what one run did.
type RunSummary struct {
	ObservedOn  time.Time
	Duration    time.Duration
	DryRun      bool
	Degraded    bool // catalog lookups fell back to unresolved
	TeamsFound  int
	TeamsFailed []string
	Players     int
	Inserted    int
	Changed     int
	Unchanged   int
	Unresolved  int
	Skipped     int // players whose decision could not be applied
}

// teamJob is one team page to scrape and resolve.
type teamJob struct {
	team string
	url  string
}

// teamResult carries a team's resolved records, or the error that sank it.
type teamResult struct {
	team    string
	records []models.ResolvedSong
	err     error
}

// Run executes one complete ingestion pass.
//
// Fatal errors (database unreachable, no team could be discovered or scraped)
// return a non-nil error alongside whatever summary accumulated; per-team and
// per-player failures are counted and logged but never abort the run.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	started := time.Now()
	summary := &RunSummary{
		ObservedOn: shared.ObservationDate(started),
		DryRun:     p.dryRun,
	}

	current, err := p.gateway.CurrentEntries(ctx)
	if err != nil {
		return summary, fmt.Errorf("loading current entries: %w", err)
	}
	p.logger.Info("loaded current entries", "players", len(current))

	pages, err := p.scraper.TeamPages(ctx)
	if err != nil {
		return summary, err
	}
	summary.TeamsFound = len(pages)

	jobs := make(chan teamJob, len(pages))
	results := make(chan teamResult, len(pages))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.teamWorker(ctx, &wg, jobs, results, summary.ObservedOn)
	}

	go func() {
		for team, url := range pages {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}
			jobs <- teamJob{team: team, url: url}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	decided := make(map[string]bool)
	for result := range results {
		if result.err != nil {
			p.logger.Warn("skipping team", "team", result.team, "error", result.err)
			summary.TeamsFailed = append(summary.TeamsFailed, result.team)
			continue
		}
		for _, resolved := range result.records {
			p.applyRecord(ctx, resolved, current, decided, summary)
		}
	}
	sort.Strings(summary.TeamsFailed)

	summary.Degraded = p.resolver.Degraded()
	summary.Duration = time.Since(started)

	if ctx.Err() != nil && summary.Players == 0 {
		return summary, ctx.Err()
	}
	if len(summary.TeamsFailed) == summary.TeamsFound {
		return summary, fmt.Errorf("%w: every team page failed", shared.ErrSourceUnavailable)
	}

	p.logger.Info("run complete",
		"players", summary.Players,
		"inserted", summary.Inserted,
		"changed", summary.Changed,
		"unchanged", summary.Unchanged,
		"unresolved", summary.Unresolved,
		"skipped", summary.Skipped,
		"failed_teams", len(summary.TeamsFailed),
		"duration", summary.Duration,
	)
	return summary, nil
}

// teamWorker scrapes and resolves whole teams from the jobs channel. Fetch
// and lookup are the I/O-bound stages, so this is where the pool parallelism
// pays off; nothing here touches the database.
func (p *Pipeline) teamWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan teamJob, results chan<- teamResult, observedOn time.Time) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- teamResult{team: job.team, err: ctx.Err()}
			continue
		default:
		}

		if err := p.limiter.Wait(ctx); err != nil {
			results <- teamResult{team: job.team, err: err}
			continue
		}

		records, err := p.scraper.TeamSongs(ctx, job.team, job.url, observedOn)
		if err != nil {
			results <- teamResult{team: job.team, err: err}
			continue
		}

		// Teams can list a walk-up and an at-bat song per player;
		// first-listed wins before any lookups are spent.
		records = reconcile.FirstListed(records)

		resolved := make([]models.ResolvedSong, 0, len(records))
		for _, record := range records {
			if err := record.Validate(); err != nil {
				p.logger.Warn("dropping malformed record", "team", job.team, "error", err)
				continue
			}
			resolved = append(resolved, p.resolver.Resolve(ctx, record))
		}

		results <- teamResult{team: job.team, records: resolved}
	}
}

// applyRecord reconciles and persists one player's record. Runs only on the
// collecting goroutine: per-player read-then-write stays serialized even
// though scraping fans out.
func (p *Pipeline) applyRecord(ctx context.Context, resolved models.ResolvedSong, current map[string]*models.SongEntry, decided map[string]bool, summary *RunSummary) {
	key := resolved.PlayerKey()
	if decided[key] {
		return
	}
	decided[key] = true
	summary.Players++

	if !resolved.Match.Found {
		summary.Unresolved++
	}

	decision := reconcile.Decide(resolved, current[key])
	p.logger.Debug("decided",
		"player", resolved.Player,
		"team", resolved.Team,
		"song", resolved.SongTitle,
		"action", decision.Action,
	)

	if !p.dryRun {
		if err := p.gateway.Apply(ctx, decision); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				p.logger.Warn("persistence conflict, skipping player", "player", resolved.Player, "error", err)
			} else {
				p.logger.Error("failed to apply decision, skipping player", "player", resolved.Player, "error", err)
			}
			summary.Skipped++
			return
		}
	}

	entry := decision.Entry
	current[key] = &entry

	switch decision.Action {
	case models.ActionInsert:
		summary.Inserted++
		p.logger.Info("new walk-up song", "team", resolved.Team, "player", resolved.Player, "song", resolved.SongTitle)
	case models.ActionSupersede:
		summary.Changed++
		p.logger.Info("song change detected", "team", resolved.Team, "player", resolved.Player, "song", resolved.SongTitle)
	default:
		summary.Unchanged++
	}
}
