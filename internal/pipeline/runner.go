package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/checkgrid/internal/ctxlog"
)

// Status is the recorded outcome of one task within a run.
type Status int

const (
	// StatusNotRun marks a task whose dependency failed or was itself
	// blocked; the task never became eligible.
	StatusNotRun Status = iota
	// StatusSkipped marks a task whose activation condition was false, or a
	// finalizer whose finalized task never ran. Dependents treat skipped as
	// satisfied.
	StatusSkipped
	StatusSucceeded
	StatusFailed
)

// String returns the status name used in run summaries.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "not-run"
	}
}

// Result is the per-task record of a completed run.
type Result struct {
	Statuses map[string]Status
	Errors   map[string]error
}

// Status returns the recorded status for a task name.
func (r *Result) Status(name string) Status {
	return r.Statuses[name]
}

// Err aggregates the failures of the run, nil when everything succeeded or
// was skipped.
func (r *Result) Err() error {
	var errs []error
	for name, err := range r.Errors {
		errs = append(errs, fmt.Errorf("task %s: %w", name, err))
	}
	return errors.Join(errs...)
}

// Run executes the graph synchronously in a deterministic topological order.
// Conditions are evaluated immediately before their task would start. A task
// runs once all its dependencies succeeded or were skipped; a failed or
// blocked dependency blocks it. Finalizers run whenever the task they
// finalize actually ran, regardless of that task's outcome, subject to their
// own condition.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := p.topoOrder()
	if err != nil {
		return nil, fmt.Errorf("invalid task graph: %w", err)
	}

	result := &Result{
		Statuses: make(map[string]Status, len(order)),
		Errors:   make(map[string]error),
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		p.mutex.RLock()
		n := p.nodes[name]
		p.mutex.RUnlock()

		result.Statuses[name] = p.runTask(ctx, n, result)
		if st := result.Statuses[name]; st != StatusSucceeded {
			logger.Debug("Task finished.", "task", name, "status", st.String())
		}
	}

	return result, nil
}

func (p *Pipeline) runTask(ctx context.Context, n *node, result *Result) Status {
	logger := ctxlog.FromContext(ctx)
	name := n.task.Name

	for dep := range n.deps {
		switch result.Statuses[dep] {
		case StatusFailed, StatusNotRun:
			logger.Debug("Task blocked by dependency.", "task", name, "dependency", dep)
			return StatusNotRun
		}
	}

	// A pure finalizer only becomes eligible when at least one of the tasks
	// it finalizes actually ran; its own outcome gate is the condition below.
	if len(n.finalizerOf) > 0 && !anyRan(n, result) {
		return StatusSkipped
	}

	if n.task.Condition != nil && !n.task.Condition() {
		return StatusSkipped
	}

	if n.task.Action == nil {
		return StatusSucceeded
	}

	logger.Debug("Task starting.", "task", name)
	if err := n.task.Action(ctx); err != nil {
		result.Errors[name] = err
		return StatusFailed
	}
	return StatusSucceeded
}

func anyRan(n *node, result *Result) bool {
	for name := range n.finalizerOf {
		switch result.Statuses[name] {
		case StatusSucceeded, StatusFailed:
			return true
		}
	}
	return false
}
