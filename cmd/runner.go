package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/arvkevi/walkup/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Database connections and catalog clients are opened per command, not at
// startup: most commands never need both.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, setupCommand, scrapeCommand, songsCommand, changesCommand, authCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig layers command flags over the loaded config: flags win over
// environment, environment wins over file.
func (r *Runner) resolveConfig(cmd *cli.Command) *shared.Config {
	config := *r.config

	if path := cmd.String("config"); path != "" && path != "config.toml" {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = *loaded
			config.LoadEnv()
		} else {
			r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}

	if v := cmd.String("database"); v != "" {
		config.Database.URL = v
	}
	if v := cmd.String("client-id"); v != "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := cmd.String("client-secret"); v != "" {
		config.Credentials.Spotify.ClientSecret = v
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	return &config
}

// openDatabase opens and configures the connection named by the config.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, shared.Driver, error) {
	db, driver, err := shared.NewDatabase(config.Database.URL)
	if err != nil {
		return nil, driver, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, driver, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
