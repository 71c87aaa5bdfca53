package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Action is the work a task performs when it runs. A nil Action succeeds
// immediately; aggregate tasks like "check" use that.
type Action func(ctx context.Context) error

// Condition is a task's activation predicate. It is evaluated at execution
// time, not at wiring time. A nil Condition means the task always runs.
type Condition func() bool

// Task is a named unit of work wired into the pipeline.
type Task struct {
	Name      string
	Condition Condition
	Action    Action
}

// node is a task together with its graph edges.
type node struct {
	task *Task

	// deps are the tasks that must complete (or be skipped) before this one.
	deps map[string]*node
	// dependents are the tasks waiting on this one.
	dependents map[string]*node
	// finalizers run after this task whenever it actually ran, regardless
	// of its outcome.
	finalizers map[string]*node
	// finalizerOf is the reverse of finalizers.
	finalizerOf map[string]*node
}

// Pipeline holds the task graph for a single run.
type Pipeline struct {
	mutex sync.RWMutex
	nodes map[string]*node
	order []string // registration order, for deterministic scheduling
}

// New creates an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{nodes: make(map[string]*node)}
}

// Register adds a task to the pipeline. Registering two tasks under the
// same name is a configuration error.
func (p *Pipeline) Register(t *Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name must not be empty")
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, ok := p.nodes[t.Name]; ok {
		return fmt.Errorf("task already registered: %s", t.Name)
	}
	p.nodes[t.Name] = &node{
		task:        t,
		deps:        make(map[string]*node),
		dependents:  make(map[string]*node),
		finalizers:  make(map[string]*node),
		finalizerOf: make(map[string]*node),
	}
	p.order = append(p.order, t.Name)
	return nil
}

// DependsOn records that name must wait for each of deps to complete or be
// skipped. Both ends must already be registered.
func (p *Pipeline) DependsOn(name string, deps ...string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	n, ok := p.nodes[name]
	if !ok {
		return fmt.Errorf("task not found: %s", name)
	}
	for _, dep := range deps {
		if dep == name {
			return fmt.Errorf("self-referential dependency not allowed: %s", name)
		}
		d, ok := p.nodes[dep]
		if !ok {
			return fmt.Errorf("dependency target not found: %s", dep)
		}
		n.deps[dep] = d
		d.dependents[name] = n
	}
	return nil
}

// FinalizedBy records that each of finalizers runs after name whenever name
// ran, whether it succeeded or failed. Both ends must already be registered.
func (p *Pipeline) FinalizedBy(name string, finalizers ...string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	n, ok := p.nodes[name]
	if !ok {
		return fmt.Errorf("task not found: %s", name)
	}
	for _, fin := range finalizers {
		if fin == name {
			return fmt.Errorf("self-referential finalizer not allowed: %s", name)
		}
		f, ok := p.nodes[fin]
		if !ok {
			return fmt.Errorf("finalizer target not found: %s", fin)
		}
		n.finalizers[fin] = f
		f.finalizerOf[name] = n
	}
	return nil
}

// Tasks returns the registered task names in registration order.
func (p *Pipeline) Tasks() []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// orderingDeps returns the names that must be scheduled before the node:
// its hard dependencies plus any task it finalizes.
func (n *node) orderingDeps() map[string]*node {
	out := make(map[string]*node, len(n.deps)+len(n.finalizerOf))
	for name, d := range n.deps {
		out[name] = d
	}
	for name, d := range n.finalizerOf {
		out[name] = d
	}
	return out
}

// detectCycles checks the combined dependency and finalizer edges with a
// classic three-color depth-first search.
func (p *Pipeline) detectCycles() error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(name string, n *node) error
	visit = func(name string, n *node) error {
		if permanent[name] {
			return nil
		}
		if temporary[name] {
			return fmt.Errorf("cycle detected involving task: %s", name)
		}
		temporary[name] = true
		for depName, dep := range n.orderingDeps() {
			if err := visit(depName, dep); err != nil {
				return err
			}
		}
		delete(temporary, name)
		permanent[name] = true
		return nil
	}

	for _, name := range p.order {
		if err := visit(name, p.nodes[name]); err != nil {
			return err
		}
	}
	return nil
}

// topoOrder returns a deterministic execution order honoring dependency and
// finalizer edges. Ties break by registration order.
func (p *Pipeline) topoOrder() ([]string, error) {
	if err := p.detectCycles(); err != nil {
		return nil, err
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	remaining := make(map[string]int, len(p.nodes))
	for name, n := range p.nodes {
		remaining[name] = len(n.orderingDeps())
	}

	var out []string
	scheduled := make(map[string]bool)
	for len(out) < len(p.order) {
		progressed := false
		for _, name := range p.order {
			if scheduled[name] || remaining[name] != 0 {
				continue
			}
			scheduled[name] = true
			out = append(out, name)
			progressed = true
			// A task may be both a dependent and a finalizer of the same
			// node; it still holds only one ordering edge on it.
			n := p.nodes[name]
			released := make(map[string]bool, len(n.dependents)+len(n.finalizers))
			for dep := range n.dependents {
				released[dep] = true
			}
			for fin := range n.finalizers {
				released[fin] = true
			}
			for rel := range released {
				remaining[rel]--
			}
		}
		if !progressed {
			return nil, fmt.Errorf("task graph did not converge to an order")
		}
	}
	return out, nil
}
