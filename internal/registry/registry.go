// Package registry tracks which primary identifiers already exist in the
// target store, per entity type. It is an in-process cache seeded from the
// target at the start of each entity pass and updated as records are
// written; it is never the system of record.
package registry

import (
	"hospicrm-migrator/internal/domain"
)

// Registry is passed by pointer into the importer and validator. It is not
// safe for concurrent use; the pipeline is strictly sequential.
type Registry struct {
	ids map[domain.EntityType]map[string]struct{}
}

func New() *Registry {
	return &Registry{ids: make(map[domain.EntityType]map[string]struct{})}
}

// Contains reports whether the identifier is known for the entity type.
func (r *Registry) Contains(entity domain.EntityType, id string) bool {
	if id == "" {
		return false
	}
	_, ok := r.ids[entity][id]
	return ok
}

// Register records an identifier the moment its record is written to the
// target (or detected as pre-existing).
func (r *Registry) Register(entity domain.EntityType, id string) {
	if id == "" {
		return
	}
	set, ok := r.ids[entity]
	if !ok {
		set = make(map[string]struct{})
		r.ids[entity] = set
	}
	set[id] = struct{}{}
}

// BulkLoad seeds the registry from the target store's current contents.
func (r *Registry) BulkLoad(entity domain.EntityType, ids []string) {
	for _, id := range ids {
		r.Register(entity, id)
	}
}

// Count returns the number of known identifiers for the entity type.
func (r *Registry) Count(entity domain.EntityType) int {
	return len(r.ids[entity])
}
