package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytspot/internal/matcher"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/desertthunder/ytspot/internal/ui"
	"github.com/urfave/cli/v3"
)

// SpotifySearch runs a single catalog search with the same query and limit as the transfer.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	pair := models.ArtistTitle{
		Title:  cmd.StringArg("title"),
		Artist: matcher.DeriveArtist(cmd.StringArg("artist")),
	}
	if pair.Title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	dest, err := r.spotifyDestination(ctx)
	if err != nil {
		return err
	}

	match, err := r.newMatcher(dest).MatchPair(ctx, pair)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Query string       `json:"query"`
			Found bool         `json:"found"`
			Match models.Match `json:"match"`
		}{matcher.Query(pair), match.Found(), match}, true)
	}

	r.writePlain("Query: %s\n", matcher.Query(pair))
	if !match.Found() {
		return r.writePlain("%s No match\n", ui.Styles.Check(false))
	}
	r.writePlain("%s %s - %s\n", ui.Styles.Check(true), match.Artist, match.Name)
	if match.Album != "" {
		r.writePlain("  Album:    %s (%s)\n", match.Album, match.ReleaseDate)
	}
	return r.writePlain("  Track ID: %s\n", match.TrackID)
}
