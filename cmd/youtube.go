package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytspot/internal/matcher"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/urfave/cli/v3"
)

// YouTubePlaylists lists the playlists owned by the authenticated YouTube account.
func (r *Runner) YouTubePlaylists(ctx context.Context, cmd *cli.Command) error {
	source, err := r.youtubeSource(ctx)
	if err != nil {
		return err
	}

	collections, err := source.Collections(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(collections, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("YouTube Playlists (%d)", len(collections)))
	for i, c := range collections {
		r.writePlain("%3d. %s (%d items)\n     %s\n", i+1, c.Title, c.ItemCount, c.ID)
	}
	return nil
}

// YouTubeItems prints the items of a playlist with the query the transfer would search for.
func (r *Runner) YouTubeItems(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	source, err := r.youtubeSource(ctx)
	if err != nil {
		return err
	}

	items, err := source.CollectionItems(ctx, id)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d items)", id, len(items)))
	for i, item := range items {
		pair := models.ArtistTitle{Title: item.Title, Artist: matcher.DeriveArtist(item.Channel)}
		r.writePlain("%3d. %s\n     %s\n", i+1, item.Title, matcher.Query(pair))
	}
	return nil
}
