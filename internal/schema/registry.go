package schema

import (
	"errors"
	"fmt"
	"sync"
)

// ErrConflict is returned when a table is re-registered with a schema
// that differs from the one already held. Re-registration with an
// equal schema is an idempotent no-op; the registry never silently
// replaces a live schema, because the physical table created for the
// first registration cannot be altered to match a new one.
var ErrConflict = errors.New("schema conflict")

// Registry holds the registered table schemas for one store instance.
// Registration never touches the storage engine; the store issues the
// table-creation side effect after a successful Register.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]TableSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]TableSchema)}
}

// Register normalizes and stores a schema under name.
//
// Returns the normalized schema and created=true on first
// registration. Registering the same name again with an equal
// normalized schema returns created=false with no error; a differing
// schema fails with ErrConflict.
func (r *Registry) Register(name string, s TableSchema) (TableSchema, bool, error) {
	if !ValidIdent(name) {
		return TableSchema{}, false, fmt.Errorf("invalid table name %q", name)
	}
	norm, err := s.Normalize()
	if err != nil {
		return TableSchema{}, false, fmt.Errorf("table %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.tables[name]; ok {
		if prev.Equal(norm) {
			return prev, false, nil
		}
		return TableSchema{}, false, fmt.Errorf("table %q already registered with a different schema: %w", name, ErrConflict)
	}
	r.tables[name] = norm
	return norm, true, nil
}

// Lookup returns the schema registered under name, if any.
func (r *Registry) Lookup(name string) (TableSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.tables[name]
	return s, ok
}

// Names returns the registered table names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}
