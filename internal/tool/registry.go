package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/coursemind-io/coursemind/pkg/protocol"
)

// Registry holds registered tools and dispatches model-issued tool
// calls by name. Definitions and source scans follow registration
// order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register stores a tool under its declared name. Registering a name
// twice silently replaces the prior tool; the name keeps its original
// position in registration order.
func (r *Registry) Register(t Tool) error {
	name := t.Definition().Name
	if name == "" {
		return fmt.Errorf("tool registry: tool definition has no name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
	return nil
}

// Definitions returns all tool definitions in registration order. This
// is the available-actions list handed to the model service.
func (r *Registry) Definitions() []protocol.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]protocol.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Dispatch routes a tool call to the matching tool. An unknown name
// yields a sentinel result string rather than an error, so the
// orchestrator can forward it to the model as an ordinary tool result.
// Tool execution errors propagate unchanged.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return t.Execute(ctx, args)
}

// LastSources returns the sources from whichever tool most recently
// produced any: the first non-empty set found scanning tools in
// registration order. Sets are never merged across tools.
func (r *Registry) LastSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			if sources := tracker.LastSources(); len(sources) > 0 {
				return sources
			}
		}
	}
	return nil
}

// ResetSources clears the recorded sources of every registered tool.
func (r *Registry) ResetSources() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tools {
		if tracker, ok := t.(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
