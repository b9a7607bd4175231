package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/desertthunder/ytspot/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup creates config.toml when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
		r.logger.Info("config file created", "path", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	db, err := r.database()
	if err != nil {
		return err
	}

	version, err := shared.MigrationVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.writePlainHeader("Setup complete")
	r.writePlain("%s Config:   %s\n", ui.Styles.Check(true), configPath)
	r.writePlain("%s Database: %s (schema v%d)\n", ui.Styles.Check(true), r.config.Database.Path, version)
	r.writePlain("\nNext steps:\n")
	r.writePlain("  1. Save your Google OAuth client as %s\n", r.config.YouTube.ClientSecrets)
	r.writePlain("  2. Put %s, %s and %s in %s\n",
		shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret, shared.EnvSpotifyRedirectURI, r.envPath)
	r.writePlain("  3. Run %s and %s\n", ui.Styles.Help("ytspot auth youtube"), ui.Styles.Help("ytspot auth spotify"))
	return nil
}
