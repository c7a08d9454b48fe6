package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"clinprep/internal/dataset"
)

// registry maps storage kinds to constructors. Backends fill it from init
// functions; tests may replace entries at any time.
type registry[F any] struct {
	mu sync.RWMutex
	m  map[string]F
}

func (r *registry[F]) set(kind string, f F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = make(map[string]F)
	}
	r.m[kind] = f
}

func (r *registry[F]) get(kind string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.m[kind]
	return f, ok
}

// kinds returns a sorted copy of the registered keys.
func (r *registry[F]) kinds() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// DDLBootstrapper creates table, when missing, with columns inferred from t.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, t *dataset.Table) error

var (
	repos      registry[Factory]
	sinks      registry[SinkFactory]
	bootstraps registry[DDLBootstrapper]
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) { repos.set(kind, f) }

// RegisterSink installs (or replaces) a SinkFactory for kind.
func RegisterSink(kind string, f SinkFactory) { sinks.set(kind, f) }

// RegisterDDL installs (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) { bootstraps.set(kind, fn) }

// ListKinds returns the registered database kinds, sorted. The slice is a
// copy.
func ListKinds() []string { return repos.kinds() }

// Kinds lists every storage kind Open accepts, sorted.
func Kinds() []string {
	out := append(sinks.kinds(), repos.kinds()...)
	sort.Strings(out)
	return out
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, t *dataset.Table) error {
	fn, ok := bootstraps.get(kind)
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, table, t)
}
