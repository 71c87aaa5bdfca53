package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/checkgrid/internal/app"
	"github.com/vk/checkgrid/internal/cli"
	"github.com/vk/checkgrid/internal/depscan"
	"github.com/vk/checkgrid/internal/quality"
)

// main is the entrypoint for the checkgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	checkgridApp, err := app.NewApp(outW, appConfig, app.Collaborators{
		Scanner:  &depscan.StaticScanner{},
		Reporter: logReporter{},
	})
	if err != nil {
		return err
	}

	return checkgridApp.Run(context.Background())
}

// logReporter is the built-in stand-in for a real analysis server client.
type logReporter struct{}

func (logReporter) Upload(ctx context.Context, serverURL, projectKey string) error {
	slog.Info("Analysis report uploaded.", "server", serverURL, "project", projectKey)
	return nil
}

var _ quality.Reporter = logReporter{}
