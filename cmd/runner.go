package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/auth"
	"github.com/desertthunder/ytspot/internal/matcher"
	"github.com/desertthunder/ytspot/internal/server"
	"github.com/desertthunder/ytspot/internal/services"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/desertthunder/ytspot/internal/tasks"
	"github.com/desertthunder/ytspot/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Service clients and the database are created on first use so that commands which do not
// need them (setup, auth status) never trigger an OAuth flow.
type Runner struct {
	config     *shared.Config
	envPath    string
	logger     *log.Logger
	output     io.Writer
	authorizer auth.Authorizer

	source      services.Source
	destination services.Destination
	db          *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	EnvPath     string
	Logger      *log.Logger
	Output      io.Writer
	Authorizer  auth.Authorizer // Replaces the loopback consent flow
	Source      services.Source
	Destination services.Destination
	DB          *sql.DB
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
	if opts.EnvPath == "" {
		opts.EnvPath = ".env"
	}

	return &Runner{
		config:      opts.Config,
		envPath:     opts.EnvPath,
		logger:      opts.Logger,
		output:      opts.Output,
		authorizer:  opts.Authorizer,
		source:      opts.Source,
		destination: opts.Destination,
		db:          opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, transferCommand, youtubeCommand, spotifyCommand, reportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before applies the global flags: log level, env file and config file.
//
// A missing default config file falls back to the defaults. A missing --config file
// is an error except for setup, which creates it. An invalid config is always an error.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if env := cmd.String("env"); env != "" {
		r.envPath = env
	}

	configPath := cmd.String("config")
	config, err := shared.LoadConfig(configPath)
	switch {
	case err == nil:
		r.config = config
		r.logger.Debug("config loaded", "path", configPath)
	case errors.Is(err, fs.ErrNotExist):
		if cmd.IsSet("config") && cmd.Args().First() != "setup" {
			return ctx, fmt.Errorf("%w: %s (run `ytspot setup` to create it)", shared.ErrMissingConfig, configPath)
		}
		r.logger.Debug("config file not found, using defaults", "path", configPath)
	default:
		return ctx, err
	}
	return ctx, nil
}

// Close releases the database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) loopback(provider string, opts ...oauth2.AuthCodeOption) auth.Authorizer {
	if r.authorizer != nil {
		return r.authorizer
	}
	return &auth.LoopbackAuthorizer{
		Provider:    provider,
		Out:         r.output,
		Logger:      r.logger,
		AuthOptions: opts,
	}
}

// youtubeProvider builds the YouTube OAuth provider from the client registration file.
func (r *Runner) youtubeProvider() (*auth.Provider, error) {
	redirect := "http://" + r.config.Server.Addr() + server.DefaultCallbackPath
	config, err := auth.YouTubeOAuthConfig(r.config.YouTube.ClientSecrets, redirect)
	if err != nil {
		return nil, err
	}
	store, err := auth.NewTokenStore(r.config.YouTube.TokenPath)
	if err != nil {
		return nil, err
	}
	return &auth.Provider{
		Name:       "youtube",
		Config:     config,
		Store:      store,
		Authorizer: r.loopback("YouTube", oauth2.AccessTypeOffline, oauth2.ApprovalForce),
		Logger:     shared.WithLogger(r.logger, "provider", "youtube"),
	}, nil
}

// spotifyProvider builds the Spotify OAuth provider from the environment.
func (r *Runner) spotifyProvider() (*auth.Provider, error) {
	creds, err := shared.LoadSpotifyEnv(r.envPath)
	if err != nil {
		return nil, err
	}
	store, err := auth.NewTokenStore(r.config.Spotify.TokenPath)
	if err != nil {
		return nil, err
	}
	return &auth.Provider{
		Name:       "spotify",
		Config:     auth.SpotifyOAuthConfig(creds),
		Store:      store,
		Authorizer: r.loopback("Spotify"),
		Logger:     shared.WithLogger(r.logger, "provider", "spotify"),
	}, nil
}

// youtubeSource returns the source reader, authenticating on first use.
func (r *Runner) youtubeSource(ctx context.Context) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}

	provider, err := r.youtubeProvider()
	if err != nil {
		return nil, err
	}
	client, err := provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := services.NewYouTubeServiceWithClient(ctx, client, services.YouTubeOpts{
		PageSize:    r.config.YouTube.PageSize,
		FavoritesID: r.config.YouTube.FavoritesID,
		Retry:       r.config.Retry.Policy(),
		Logger:      shared.WithLogger(r.logger, "service", "youtube"),
	})
	if err != nil {
		return nil, err
	}
	r.source = svc
	return svc, nil
}

// spotifyDestination returns the destination writer, authenticating on first use.
func (r *Runner) spotifyDestination(ctx context.Context) (services.Destination, error) {
	if r.destination != nil {
		return r.destination, nil
	}

	provider, err := r.spotifyProvider()
	if err != nil {
		return nil, err
	}
	client, err := provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	svc := services.NewSpotifyServiceWithClient(client, shared.WithLogger(r.logger, "service", "spotify"))
	r.destination = svc
	return svc, nil
}

// database opens the run report database and applies pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		r.logger.Debug("migrations applied", "count", applied)
	}
	r.db = db
	return db, nil
}

// newMatcher builds a matcher with the configured retry policy.
func (r *Runner) newMatcher(s services.Searcher) *matcher.Matcher {
	return matcher.NewMatcher(s,
		matcher.WithRetry(r.config.Retry.Policy()),
		matcher.WithLogger(shared.WithLogger(r.logger, "stage", "match")),
	)
}

// newEngine wires the transfer stages from the configuration.
func (r *Runner) newEngine(source services.Source, dest services.Destination, recorder tasks.Recorder) *tasks.Engine {
	opts := tasks.EngineOpts{
		Matcher: r.newMatcher(dest),
		Writer: tasks.NewWriter(dest, tasks.WriterOpts{
			BatchSize: r.config.Spotify.BatchSize,
			Pause:     r.config.Spotify.BatchPause,
			Logger:    shared.WithLogger(r.logger, "stage", "write"),
		}),
		Logger:               r.logger,
		FavoritesID:          r.config.YouTube.FavoritesID,
		FavoritesName:        r.config.Spotify.FavoritesName,
		FavoritesDescription: r.config.Spotify.FavoritesDescription,
		DescriptionPrefix:    r.config.Spotify.DescriptionPrefix,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}

	return tasks.NewEngine(source, dest, opts)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
