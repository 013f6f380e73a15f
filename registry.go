package framegraph

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps subgraph names to ordered op lists. Feature code fills it
// during initialization, typically from its own setup function:
//
//	func Setup(reg *framegraph.Registry, res *framegraph.Resources) {
//	    reg.AddSubgraph("Lights Cull", []framegraph.Node{cull, sort})
//	}
//
// Subgraph embeds in a frame script look their name up at every build.
// A Registry is safe for concurrent use, so features may register from
// their own goroutines while compilation itself stays single-threaded.
type Registry struct {
	mu        sync.RWMutex
	subgraphs map[string][]Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{subgraphs: make(map[string][]Node)}
}

// AddSubgraph registers ops under name.
//
// AddSubgraph panics if:
//   - a subgraph with the same name is already registered
//   - any op is nil
//
// Both indicate a setup mistake that must surface at initialization
// rather than as a silently missing feature.
func (r *Registry) AddSubgraph(name string, ops []Node) {
	for i, n := range ops {
		if n == nil {
			panic(fmt.Errorf("%w: op %d of subgraph %q", ErrNilNode, i, name))
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.subgraphs[name]; dup {
		panic(fmt.Errorf("%w: %q", ErrDuplicateSubgraph, name))
	}
	r.subgraphs[name] = append([]Node(nil), ops...)
	Logger().Debug("framegraph: registered subgraph", "name", name, "ops", len(ops))
}

// GetSubgraph returns the ops registered under name. An unknown name is
// not an error: it is logged and an empty list is returned, so scripts
// can embed subgraphs of features that are not compiled in.
func (r *Registry) GetSubgraph(name string) []Node {
	ops, ok := r.get(name)
	if !ok {
		Logger().Warn("framegraph: unknown subgraph", "name", name)
		return nil
	}
	return ops
}

// RemoveSubgraph drops a registration, for frame script reloads. It
// reports whether name was registered.
func (r *Registry) RemoveSubgraph(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subgraphs[name]
	delete(r.subgraphs, name)
	return ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.get(name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.subgraphs))
	for name := range r.subgraphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered subgraphs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subgraphs)
}

// lookup is GetSubgraph without the diagnostic, for notification walks.
func (r *Registry) lookup(name string) []Node {
	ops, _ := r.get(name)
	return ops
}

func (r *Registry) get(name string) ([]Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops, ok := r.subgraphs[name]
	if !ok {
		return nil, false
	}
	return append([]Node(nil), ops...), true
}
