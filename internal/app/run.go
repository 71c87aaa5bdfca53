package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/vk/checkgrid/internal/ctxlog"
)

// Run finalizes the extensions and executes the assembled task graph once.
// Finalization is the single barrier: automatic skip rules resolve here,
// strictly after every configuration-phase override and strictly before any
// task condition is evaluated.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := a.registry.Finalize(ctx); err != nil {
		return err
	}
	logger.Debug("Extensions finalized.")

	result, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	for _, name := range a.pipeline.Tasks() {
		logger.Info("Task summary.", "task", name, "status", result.Status(name).String())
	}
	if err := result.Err(); err != nil {
		logger.Error("Verification run failed.", "error", err)
		return err
	}
	logger.Info("Verification run finished.")
	return nil
}
