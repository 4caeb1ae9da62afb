package main

import (
	"context"
	"fmt"
	"time"

	"github.com/arvkevi/walkup/internal/formatter"
	"github.com/arvkevi/walkup/internal/repositories"
	"github.com/arvkevi/walkup/internal/scraper"
	"github.com/arvkevi/walkup/internal/services"
	"github.com/arvkevi/walkup/internal/shared"
	"github.com/arvkevi/walkup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run executes one complete ingestion pass: scrape, resolve, reconcile, persist.
//
// Exits non-zero only when nothing could be written (database unreachable or
// total source failure); per-team and per-player failures are logged and the
// command still succeeds.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	db, driver, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	catalog := r.buildCatalog(ctx, config)

	client := scraper.New(scraper.Options{
		BaseURL: config.Scraper.BaseURL,
		Timeout: time.Duration(config.Scraper.TimeoutSeconds) * time.Second,
		Logger:  r.logger,
	})

	resolver := services.NewResolver(services.ResolverOpts{
		Catalog:   catalog,
		RateLimit: config.Scraper.RateLimit,
		Logger:    r.logger,
	})

	workers := config.Scraper.Workers
	if v := cmd.Int("workers"); v > 0 {
		workers = int(v)
	}
	rateLimit := config.Scraper.RateLimit
	if v := cmd.Float("rate"); v > 0 {
		rateLimit = v
	}

	pipeline := tasks.NewPipeline(tasks.PipelineOpts{
		Scraper:  client,
		Resolver: resolver,
		Gateway:  repositories.NewSongRepository(db, driver),
		Logger:   r.logger,
		Workers:  workers,
		Rate:     rateLimit,
		DryRun:   cmd.Bool("dry-run"),
	})

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.Summary(summary))
}

// buildCatalog authenticates the Spotify catalog when credentials are
// configured. Missing credentials or a failed token fetch degrade the run to
// unresolved lookups rather than aborting it.
func (r *Runner) buildCatalog(ctx context.Context, config *shared.Config) services.Catalog {
	spotify := config.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		r.logger.Warn("spotify credentials not configured, songs will be unresolved")
		return nil
	}

	catalog, err := services.NewSpotifyCatalog(spotify.Map())
	if err != nil {
		r.logger.Error("failed to create spotify catalog, songs will be unresolved", "error", err)
		return nil
	}

	if err := catalog.Authenticate(ctx, nil); err != nil {
		r.logger.Error("spotify authentication failed, songs will be unresolved", "error", err)
		return nil
	}

	r.logger.Info("spotify catalog initialized")
	return catalog
}
