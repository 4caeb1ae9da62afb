package main

import (
	"context"
	"fmt"
	"time"

	"github.com/arvkevi/walkup/internal/formatter"
	"github.com/arvkevi/walkup/internal/repositories"
	"github.com/arvkevi/walkup/internal/scraper"
	"github.com/arvkevi/walkup/internal/shared"
	"github.com/urfave/cli/v3"
)

// Songs lists current walk-up song entries, as text or CSV.
func (r *Runner) Songs(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	db, driver, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	songs := repositories.NewSongRepository(db, driver)
	entries, err := songs.ListCurrent(ctx, cmd.String("team"))
	if err != nil {
		return err
	}

	if cmd.Bool("csv") {
		data, err := formatter.SongsCSV(entries)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	if len(entries) == 0 {
		return r.writePlainln("no current songs recorded")
	}
	return r.writePlain("%s", formatter.SongsText(entries))
}

// Changes lists recorded song change events.
func (r *Runner) Changes(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	db, driver, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	changes := repositories.NewChangeEventRepository(db, driver)
	events, err := changes.List(ctx, cmd.String("player"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return r.writePlainln("no change events recorded")
	}
	return r.writePlain("%s", formatter.ChangesText(events))
}

// Scrape streams raw records from the source without touching the database.
// Useful for checking page-layout drift before it breaks a run.
func (r *Runner) Scrape(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)
	teamFilter := cmd.String("team")

	client := scraper.New(scraper.Options{
		BaseURL: config.Scraper.BaseURL,
		Timeout: time.Duration(config.Scraper.TimeoutSeconds) * time.Second,
		Logger:  r.logger,
	})

	observedOn := shared.ObservationDate(time.Now())
	count := 0
	for record := range client.All(ctx, observedOn) {
		if teamFilter != "" && record.Team != teamFilter {
			continue
		}
		count++
		if err := r.writePlain("%s\t%s\t%s\t%s\n", record.Team, record.Player, record.SongTitle, record.SongArtist); err != nil {
			return err
		}
	}

	if count == 0 {
		return fmt.Errorf("%w: no records scraped", shared.ErrSourceUnavailable)
	}
	return nil
}
