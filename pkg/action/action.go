// Package action implements the fault-action registry: a namespace of
// named callables that the scheduler resolves events' fault names
// against, lazily and with caching.
package action

import (
	"context"
	"fmt"
	"sync"
)

// Args is the payload handed to a fault action on dispatch, mirroring
// the original system's keyword-argument contract of target/udf1/udf2/
// udf3/udd.
type Args struct {
	Target string
	UDF1   string
	UDF2   string
	UDF3   string
	UDD    map[string]interface{}
}

// Func is a fault action: a callable identified by name in a module's
// namespace. Its return value's error, if non-nil, is logged by the
// scheduler's worker and otherwise has no effect on engine state.
type Func func(ctx context.Context, args Args) error

// Doc optionally annotates a registered Func with documentation
// containing a [fault]...[/fault] key-value block (see ParseAnnotation).
type Entry struct {
	Fn  Func
	Doc string
}

// Module is a named set of registered fault actions — the Go analogue
// of a dynamically imported Python fault-injector module. Modules are
// built once, at startup, from an explicit registration table; they are
// never constructed via reflection.
type Module struct {
	name    string
	entries map[string]Entry
}

// NewModule builds a Module from an explicit name->Entry table.
func NewModule(name string, entries map[string]Entry) *Module {
	return &Module{name: name, entries: entries}
}

func (m *Module) Name() string { return m.name }

// Registry resolves a SUT's fault_module name to one of the process's
// registered Modules, then lazily resolves and caches action-name
// lookups within that module.
type Registry struct {
	mu      sync.Mutex
	modules map[string]*Module
	cache   map[string]map[string]Func // module name -> action name -> Func
}

// NewRegistry builds a Registry over the given set of registered
// modules, keyed by the name a SUT's fault_module field selects.
func NewRegistry(modules ...*Module) *Registry {
	m := make(map[string]*Module, len(modules))
	for _, mod := range modules {
		m[mod.Name()] = mod
	}
	return &Registry{modules: m, cache: make(map[string]map[string]Func)}
}

// ErrModuleNotFound is returned by Resolve when a SUT references a
// fault_module name with no registered Module — the Go analogue of the
// original's ImportError at fault-module load time.
type ErrModuleNotFound struct{ Module string }

func (e ErrModuleNotFound) Error() string {
	return fmt.Sprintf("fault module %q is not registered", e.Module)
}

// ErrActionNotFound is returned by Resolve when the named module has no
// such action registered.
type ErrActionNotFound struct{ Module, Action string }

func (e ErrActionNotFound) Error() string {
	return fmt.Sprintf("action %q not found in fault module %q", e.Action, e.Module)
}

// HasModule reports whether moduleName is registered. cmd/controller's
// run calls this once per SUT before scheduling so an unregistered
// fault_module fails fast, matching the original's fatal ImportError-at-load-time behavior.
func (r *Registry) HasModule(moduleName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.modules[moduleName]
	return ok
}

// Resolve looks up action actionName within moduleName, consulting and
// populating the per-module resolution cache. Safe for concurrent use.
func (r *Registry) Resolve(moduleName, actionName string) (Func, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.cache[moduleName]
	if !ok {
		cached = make(map[string]Func)
		r.cache[moduleName] = cached
	}
	if fn, ok := cached[actionName]; ok {
		return fn, nil
	}

	mod, ok := r.modules[moduleName]
	if !ok {
		return nil, ErrModuleNotFound{Module: moduleName}
	}
	entry, ok := mod.entries[actionName]
	if !ok || entry.Fn == nil {
		return nil, ErrActionNotFound{Module: moduleName, Action: actionName}
	}

	cached[actionName] = entry.Fn
	return entry.Fn, nil
}
