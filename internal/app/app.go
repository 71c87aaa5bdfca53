package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/checkgrid/internal/attach"
	"github.com/vk/checkgrid/internal/ctxlog"
	"github.com/vk/checkgrid/internal/depscan"
	"github.com/vk/checkgrid/internal/env"
	"github.com/vk/checkgrid/internal/extension"
	"github.com/vk/checkgrid/internal/pipeline"
	"github.com/vk/checkgrid/internal/quality"
	"github.com/vk/checkgrid/internal/settings"
)

// CheckTask is the host's aggregate verification task. Both integrations
// hang their steps off it.
const CheckTask = "check"

// Collaborators are the external engines the integrations orchestrate. A nil
// collaborator means the host lacks that capability; the matching
// integration is then disabled at attachment, never aborting the rest.
type Collaborators struct {
	Scanner  depscan.Scanner
	Reporter quality.Reporter
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *extension.Registry
	pipeline *pipeline.Pipeline

	// nil when the integration's attachment was contained.
	depscan *depscan.Integration
	quality *quality.Integration
}

// NewApp runs the whole configuration phase: it creates the host pipeline
// with the aggregate check task, attempts to attach each integration inside
// the containment boundary, and applies settings-file overrides. The
// returned App is ready to Finalize and Run.
func NewApp(outW io.Writer, cfg *Config, collab Collaborators) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	props := env.Load()

	pipe := pipeline.New()
	if err := pipe.Register(&pipeline.Task{Name: CheckTask}); err != nil {
		return nil, err
	}
	asm := pipeline.NewAssembler(pipe)
	reg := extension.NewRegistry()

	a := &App{outW: outW, logger: logger, registry: reg, pipeline: pipe}

	attach.AttemptAttach(ctx, string(depscan.IntegrationID), func() error {
		integ, err := depscan.Attach(ctx, reg, asm, cfg.RootDir, props, collab.Scanner, outW, CheckTask)
		if err != nil {
			return err
		}
		a.depscan = integ
		return nil
	})
	attach.AttemptAttach(ctx, string(quality.IntegrationID), func() error {
		integ, err := quality.Attach(ctx, reg, asm, cfg.ProjectKey, props, collab.Reporter, CheckTask)
		if err != nil {
			return err
		}
		a.quality = integ
		return nil
	})

	if cfg.SettingsPath != "" {
		model, err := settings.Load(ctx, cfg.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if err := settings.Apply(ctx, model, reg, cfg.RootDir); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Registry returns the application's extension registry. This is primarily
// for testing.
func (a *App) Registry() *extension.Registry {
	return a.registry
}

// Pipeline returns the assembled task graph. This is primarily for testing.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Depscan returns the attached scanning integration, nil when its
// attachment was contained.
func (a *App) Depscan() *depscan.Integration {
	return a.depscan
}

// Quality returns the attached reporting integration, nil when its
// attachment was contained.
func (a *App) Quality() *quality.Integration {
	return a.quality
}
