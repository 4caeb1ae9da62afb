package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arvkevi/walkup/internal/models"
	"github.com/arvkevi/walkup/internal/reconcile"
	"github.com/arvkevi/walkup/internal/repositories"
	"github.com/arvkevi/walkup/internal/shared"
	wutesting "github.com/arvkevi/walkup/internal/testing"
)

func testRunner(t *testing.T, dbPath string) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer

	config := shared.DefaultConfig()
	config.Database.URL = dbPath

	logger := shared.NewLogger(&out)
	runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: &out})
	return runner, &out
}

// seedDatabase creates a sqlite database file with one current entry.
func seedDatabase(t *testing.T, path string) {
	t.Helper()

	db, driver, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db, driver); err != nil {
		t.Fatal(err)
	}

	songs := repositories.NewSongRepository(db, driver)
	resolved := models.ResolvedSong{
		WalkupRecord: models.WalkupRecord{
			Team:       "yankees",
			Player:     "Aaron Judge",
			SongTitle:  "Thunderstruck",
			SongArtist: "AC/DC",
			ObservedOn: time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		},
	}
	if err := songs.Apply(context.Background(), reconcile.Decide(resolved, nil)); err != nil {
		t.Fatal(err)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	runner := NewRunner(RunnerOpts{})

	if runner.config == nil {
		t.Error("runner should fall back to the default config")
	}
	if runner.logger == nil || runner.output == nil {
		t.Error("runner should fall back to default logger and output")
	}
}

func TestSetupCreatesConfigAndSchema(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "walkup.db")

	runner, _ := testRunner(t, dbPath)
	cmd := setupCommand(runner)

	err := cmd.Run(context.Background(), []string{"setup", "--config", configPath, "--database", dbPath})
	if err != nil {
		t.Fatalf("setup error = %v", err)
	}

	wutesting.AssertFileExists(t, configPath)
	wutesting.AssertFileExists(t, dbPath)

	// schema should be in place
	db, driver, err := shared.NewDatabase(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := shared.RunMigrations(db, driver); err != nil {
		t.Errorf("migrations should already be applied cleanly: %v", err)
	}
}

func TestSongsCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "walkup.db")
	seedDatabase(t, dbPath)

	runner, out := testRunner(t, dbPath)
	cmd := songsCommand(runner)

	err := cmd.Run(context.Background(), []string{"songs", "--database", dbPath})
	if err != nil {
		t.Fatalf("songs error = %v", err)
	}

	if !strings.Contains(out.String(), "Aaron Judge") || !strings.Contains(out.String(), "Thunderstruck") {
		t.Errorf("output missing seeded song:\n%s", out.String())
	}
}

func TestSongsCommandCSV(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "walkup.db")
	seedDatabase(t, dbPath)

	runner, out := testRunner(t, dbPath)
	cmd := songsCommand(runner)

	err := cmd.Run(context.Background(), []string{"songs", "--database", dbPath, "--csv"})
	if err != nil {
		t.Fatalf("songs --csv error = %v", err)
	}

	if !strings.Contains(out.String(), "Team,Player,Title,Artist") {
		t.Errorf("expected CSV header:\n%s", out.String())
	}
}

func TestSongsCommandTeamFilter(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "walkup.db")
	seedDatabase(t, dbPath)

	runner, out := testRunner(t, dbPath)
	cmd := songsCommand(runner)

	err := cmd.Run(context.Background(), []string{"songs", "--database", dbPath, "--team", "mets"})
	if err != nil {
		t.Fatalf("songs error = %v", err)
	}

	if !strings.Contains(out.String(), "no current songs recorded") {
		t.Errorf("expected empty-result message:\n%s", out.String())
	}
}

func TestChangesCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "walkup.db")
	seedDatabase(t, dbPath)

	runner, out := testRunner(t, dbPath)
	cmd := changesCommand(runner)

	err := cmd.Run(context.Background(), []string{"changes", "--database", dbPath})
	if err != nil {
		t.Fatalf("changes error = %v", err)
	}

	if !strings.Contains(out.String(), "(first observation)") {
		t.Errorf("expected first-observation event:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Thunderstruck") {
		t.Errorf("expected the new song in output:\n%s", out.String())
	}
}

func TestResolveConfigFlagLayering(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "walkup.db")
	seedDatabase(t, dbPath)

	config := shared.DefaultConfig()
	config.Database.URL = "./from-file.db"

	var out bytes.Buffer
	runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(&out), Output: &out})

	// --database must win over the config value
	cmd := songsCommand(runner)
	err := cmd.Run(context.Background(), []string{"songs", "--database", dbPath})
	if err != nil {
		t.Fatalf("songs error = %v", err)
	}

	if !strings.Contains(out.String(), "Aaron Judge") {
		t.Errorf("flag database should be used:\n%s", out.String())
	}
	if runner.config.Database.URL != "./from-file.db" {
		t.Error("resolveConfig must not mutate the runner config")
	}
}

func TestWritePlain(t *testing.T) {
	runner, out := testRunner(t, ":memory:")

	if err := runner.writePlain("%s %d", "count", 3); err != nil {
		t.Fatal(err)
	}
	if out.String() != "count 3" {
		t.Errorf("got %q", out.String())
	}

	failing := NewRunner(RunnerOpts{Output: &wutesting.FWriter{}})
	if err := failing.writePlain("x"); err == nil {
		t.Error("expected error from failing writer")
	}
}
