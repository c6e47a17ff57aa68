package monitor

import (
	"fmt"
	"sync"
)

// CheckFunc is a registered check routine. It receives the monitor
// instance it runs against; concrete monitor packages typically assert
// it to their own type to reach instance state.
type CheckFunc func(m Monitor) error

// CheckDef identifies one registered check routine on a monitor type.
// Immutable once registered.
type CheckDef struct {
	// Name is the check's declared name, unique within its type.
	Name string

	// TypeName is the monitor type the check was declared on. For an
	// inherited check this remains the declaring ancestor's name.
	TypeName string

	fn CheckFunc
}

type typeEntry struct {
	parent string
	order  []string
	checks map[string]CheckFunc
}

// Registry records check routines per monitor type and resolves the
// merged, ordered check list for a concrete type. Types form a
// single-inheritance hierarchy: a type's check set is the union of its
// own checks and those of all ancestors, base types first, declaration
// order within a type, each name listed once. When a derived type
// re-declares an inherited name, the derived routine wins for
// invocation but the name keeps its original position.
//
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*typeEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*typeEntry),
	}
}

// RegisterType declares a monitor type under the given name, optionally
// inheriting from a parent type. The parent must already be registered,
// which keeps the hierarchy acyclic. An empty parent declares a root
// type. Returns an error if the name is empty or already registered, or
// if the parent is unknown.
func (r *Registry) RegisterType(name string, parent string) error {
	if name == "" {
		return fmt.Errorf("monitor: type name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return fmt.Errorf("monitor: type %q is already registered", name)
	}
	if parent != "" {
		if _, exists := r.types[parent]; !exists {
			return fmt.Errorf("monitor: parent type %q of %q is not registered", parent, name)
		}
	}
	r.types[name] = &typeEntry{
		parent: parent,
		checks: make(map[string]CheckFunc),
	}
	return nil
}

// RegisterCheck marks fn as a check routine named checkName on the given
// type. Marking is non-invasive: fn itself is unchanged, only membership
// metadata is recorded. Returns an error if the type is unknown, the
// name is empty or already declared on this type, or fn is nil.
func (r *Registry) RegisterCheck(typeName string, checkName string, fn CheckFunc) error {
	if checkName == "" {
		return fmt.Errorf("monitor: check name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("monitor: check %q must not have a nil routine", checkName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.types[typeName]
	if !exists {
		return fmt.Errorf("monitor: type %q is not registered", typeName)
	}
	if _, exists := entry.checks[checkName]; exists {
		return fmt.Errorf("monitor: check %q is already registered on type %q", checkName, typeName)
	}
	entry.order = append(entry.order, checkName)
	entry.checks[checkName] = fn
	return nil
}

// Checks resolves the ordered, deduplicated check list for a concrete
// type, merged across its ancestry. Returns an error if the type is
// unknown; a registered ancestor is guaranteed to resolve because
// RegisterType requires parents to exist first.
func (r *Registry) Checks(typeName string) ([]CheckDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk up to the root, then merge base-first.
	var chain []string
	for name := typeName; name != ""; {
		entry, exists := r.types[name]
		if !exists {
			return nil, fmt.Errorf("monitor: type %q is not registered", name)
		}
		chain = append(chain, name)
		name = entry.parent
	}

	var defs []CheckDef
	position := make(map[string]int)
	for i := len(chain) - 1; i >= 0; i-- {
		typ := chain[i]
		entry := r.types[typ]
		for _, checkName := range entry.order {
			if at, seen := position[checkName]; seen {
				// Re-declared down the hierarchy: the derived routine
				// wins, the name keeps its original position.
				defs[at].fn = entry.checks[checkName]
				continue
			}
			position[checkName] = len(defs)
			defs = append(defs, CheckDef{
				Name:     checkName,
				TypeName: typ,
				fn:       entry.checks[checkName],
			})
		}
	}
	return defs, nil
}

// Types returns the names of all registered monitor types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the process-wide registry used by monitor packages
// that register their types at init time.
var DefaultRegistry = NewRegistry()

// MustRegisterType registers a type with the DefaultRegistry and panics
// on error. Intended for package init blocks, where a registration
// failure is a programming error.
func MustRegisterType(name string, parent string) {
	if err := DefaultRegistry.RegisterType(name, parent); err != nil {
		panic(err)
	}
}

// MustRegisterCheck registers a check with the DefaultRegistry and
// panics on error. Intended for package init blocks.
func MustRegisterCheck(typeName string, checkName string, fn CheckFunc) {
	if err := DefaultRegistry.RegisterCheck(typeName, checkName, fn); err != nil {
		panic(err)
	}
}
