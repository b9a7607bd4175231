package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytspot/internal/auth"
	"github.com/desertthunder/ytspot/internal/services"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/desertthunder/ytspot/internal/ui"
	"github.com/urfave/cli/v3"
)

// YouTubeAuth runs the consent flow for the YouTube account and caches the token.
func (r *Runner) YouTubeAuth(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.youtubeProvider()
	if err != nil {
		return err
	}

	r.logger.Info("starting YouTube authorization")
	if _, err := provider.Authorize(ctx); err != nil {
		return err
	}

	return r.writePlain("%s YouTube authorized (token saved to %s)\n", ui.Styles.Check(true), provider.Store.Path())
}

// SpotifyAuth runs the consent flow for the Spotify account and verifies the token by reading the current user.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.spotifyProvider()
	if err != nil {
		return err
	}

	r.logger.Info("starting Spotify authorization")
	if _, err := provider.Authorize(ctx); err != nil {
		return err
	}

	client, err := provider.Client(ctx)
	if err != nil {
		return err
	}
	svc := services.NewSpotifyServiceWithClient(client, shared.WithLogger(r.logger, "service", "spotify"))
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: token saved but user lookup failed: %v", shared.ErrAuthFailed, err)
	}
	r.destination = svc

	return r.writePlain("%s Spotify authorized as %s (token saved to %s)\n", ui.Styles.Check(true), user, provider.Store.Path())
}

// AuthStatus reports the cached token state of both services without contacting them.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Authentication")
	for _, entry := range []struct {
		name string
		path string
	}{
		{name: "YouTube", path: r.config.YouTube.TokenPath},
		{name: "Spotify", path: r.config.Spotify.TokenPath},
	} {
		r.writePlain("%s\n", r.tokenStatus(entry.name, entry.path))
	}
	return nil
}

func (r *Runner) tokenStatus(name, path string) string {
	store, err := auth.NewTokenStore(path)
	if err != nil {
		return fmt.Sprintf("%s %s: %v", ui.Styles.Check(false), name, err)
	}

	tok, err := store.Load()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return fmt.Sprintf("%s %s: not authenticated", ui.Styles.Check(false), name)
	case err != nil:
		return fmt.Sprintf("%s %s: %v", ui.Styles.Check(false), name, err)
	case tok.Valid() && tok.Expiry.IsZero():
		return fmt.Sprintf("%s %s: authenticated", ui.Styles.Check(true), name)
	case tok.Valid():
		return fmt.Sprintf("%s %s: authenticated (expires %s)", ui.Styles.Check(true), name, tok.Expiry.Local().Format(time.DateTime))
	case tok.RefreshToken != "":
		return fmt.Sprintf("%s %s: authenticated (access token expired, will refresh)", ui.Styles.Check(true), name)
	default:
		return fmt.Sprintf("%s %s: token expired, run %s", ui.Styles.Check(false), name, ui.Styles.Help("ytspot auth"))
	}
}
