package tools

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bitop-dev/shellagent/pkg/ai"
)

// ErrUnknownTool is returned by Lookup when the model names a tool that was
// never registered.
var ErrUnknownTool = errors.New("unknown tool")

// Registry maps lowercase tool names to implementations. It is populated at
// startup and only read while serving.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns a registry holding the given tools.
func NewRegistry(tt ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tt))}
	for _, t := range tt {
		r.Register(t)
	}
	return r
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a tool. Panics if a tool with the same name (ignoring case)
// is already registered.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(t.Definition().Name)
	if _, exists := r.tools[k]; exists {
		panic(fmt.Sprintf("tools: tool %q already registered", k))
	}
	r.tools[k] = t
}

// Lookup resolves a model-supplied tool name case-insensitively.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// Definitions returns the descriptors of all tools, sorted by name so the
// request body sent to the model is stable.
func (r *Registry) Definitions() []ai.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ai.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns the registered (lowercase) tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
