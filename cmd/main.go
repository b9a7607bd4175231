package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// -v is taken by --verbose, so the version flag has no short alias.
func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "ytspot",
		Usage:    "Transfer YouTube liked videos and playlists to Spotify",
		Version:  version,
		Flags:    globalFlags(),
		Before:   r.before,
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			runner.Close()
			os.Exit(130)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
