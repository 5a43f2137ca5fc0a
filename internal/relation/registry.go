package relation

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks scratch tables registered with the engine during a single
// build_wide/convert_hourly call. Spec §5 requires temporary tables to be
// released before the call returns, even on failure paths; callers should
// `defer registry.ReleaseAll()` immediately after constructing one so a
// panic or early error still frees the scratch tables. Concurrent
// build_wide calls on disjoint cohorts each get their own Registry and
// never share table names, since every name carries a fresh uuid suffix.
type Registry struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// NewRegistry returns an empty scratch-table registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Register stores t under a unique name derived from prefix and returns
// that name.
func (r *Registry) Register(prefix string, t *Table) string {
	name := prefix + "_" + uuid.NewString()
	r.mu.Lock()
	r.tables[name] = t
	r.mu.Unlock()
	return name
}

// Release drops the scratch table registered under name.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	delete(r.tables, name)
	r.mu.Unlock()
}

// ReleaseAll drops every scratch table still registered.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	for k := range r.tables {
		delete(r.tables, k)
	}
	r.mu.Unlock()
}

// Len reports how many scratch tables are currently registered, mostly
// useful from tests asserting that a failure path still released its
// temporaries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tables)
}
