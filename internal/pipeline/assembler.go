package pipeline

import "fmt"

// TaskSpec describes one task to attach: its identity, activation condition,
// work, and graph edges. Edge targets must already exist in the pipeline,
// either created by the host or by an earlier Attach call; that invariant is
// what keeps the assembled graph acyclic in practice.
type TaskSpec struct {
	Name        string
	Condition   Condition
	Action      Action
	DependsOn   []string
	FinalizedBy []string
}

// Assembler attaches integration tasks to a host pipeline.
type Assembler struct {
	pipeline *Pipeline
}

// NewAssembler wraps a host pipeline for attachment.
func NewAssembler(p *Pipeline) *Assembler {
	return &Assembler{pipeline: p}
}

// Attach registers the task and wires its edges in one step.
func (a *Assembler) Attach(spec TaskSpec) error {
	task := &Task{Name: spec.Name, Condition: spec.Condition, Action: spec.Action}
	if err := a.pipeline.Register(task); err != nil {
		return fmt.Errorf("attaching task %s: %w", spec.Name, err)
	}
	if len(spec.DependsOn) > 0 {
		if err := a.pipeline.DependsOn(spec.Name, spec.DependsOn...); err != nil {
			return fmt.Errorf("wiring dependencies of task %s: %w", spec.Name, err)
		}
	}
	if len(spec.FinalizedBy) > 0 {
		if err := a.pipeline.FinalizedBy(spec.Name, spec.FinalizedBy...); err != nil {
			return fmt.Errorf("wiring finalizers of task %s: %w", spec.Name, err)
		}
	}
	return nil
}

// DependsOn adds ordering edges to an already-attached task. Integrations
// use it to hang their steps off host tasks such as the aggregate check.
func (a *Assembler) DependsOn(name string, deps ...string) error {
	return a.pipeline.DependsOn(name, deps...)
}

// FinalizedBy adds finalizer edges to an already-attached task.
func (a *Assembler) FinalizedBy(name string, finalizers ...string) error {
	return a.pipeline.FinalizedBy(name, finalizers...)
}
