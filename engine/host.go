package engine

import (
	"context"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-playhost/errors"
)

// Host is a group of host functions exported under one import module.
type Host interface {
	// Namespace returns the import module name, e.g. "webgl2".
	Namespace() string
}

// Registrar provides host functions keyed by import name. Values are Go
// functions in the shape wazero's WithFunc accepts: an optional
// context.Context, an optional api.Module, then numeric parameters.
type Registrar interface {
	Register() map[string]any
}

// HostRegistry collects host functions per import module until they are
// bound into a runtime.
type HostRegistry struct {
	funcs map[string]map[string]any
	mu    sync.RWMutex
}

// NewHostRegistry returns an empty registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{funcs: make(map[string]map[string]any)}
}

// RegisterHost adds every function h registers under h.Namespace().
func (r *HostRegistry) RegisterHost(h interface {
	Host
	Registrar
}) error {
	return r.RegisterInto(h.Namespace(), h)
}

// RegisterInto adds every function reg registers under namespace. Several
// registrars may share a namespace as long as their names do not clash.
func (r *HostRegistry) RegisterInto(namespace string, reg Registrar) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	funcs := reg.Register()

	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range funcs {
		if _, dup := r.funcs[namespace][name]; dup {
			return errors.Registration(errors.PhaseHost, namespace, name,
				errors.InvalidInput(errors.PhaseHost, "function already registered"))
		}
	}
	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any, len(funcs))
	}
	for name, fn := range funcs {
		r.funcs[namespace][name] = fn
	}
	return nil
}

// RegisterFunc adds a single function. An existing entry is replaced.
func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" || name == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace and name are required")
	}
	if fn == nil {
		return errors.Registration(errors.PhaseHost, namespace, name,
			errors.InvalidInput(errors.PhaseHost, "nil function"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any)
	}
	r.funcs[namespace][name] = fn
	return nil
}

// Namespaces returns the registered import module names, sorted.
func (r *HostRegistry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Names returns the function names registered under namespace, sorted.
func (r *HostRegistry) Names(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs[namespace]))
	for name := range r.funcs[namespace] {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Has reports whether namespace exports name.
func (r *HostRegistry) Has(namespace, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[namespace][name]
	return ok
}

// Bind instantiates one wazero host module per namespace. Function
// signatures are checked by wazero here; a malformed one fails the whole
// bind with a registration error naming the namespace.
func (r *HostRegistry) Bind(ctx context.Context, rt wazero.Runtime) error {
	for _, ns := range r.Namespaces() {
		b := rt.NewHostModuleBuilder(ns)
		names := r.Names(ns)

		r.mu.RLock()
		for _, name := range names {
			b = b.NewFunctionBuilder().WithFunc(r.funcs[ns][name]).Export(name)
		}
		r.mu.RUnlock()

		if _, err := b.Instantiate(ctx); err != nil {
			return errors.Registration(errors.PhaseHost, ns, "*", err)
		}
		Logger().Debug("host module bound", zap.String("namespace", ns), zap.Int("functions", len(names)))
	}
	return nil
}
