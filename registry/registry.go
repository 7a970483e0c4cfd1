// Package registry holds the in-memory projection of the canonical entity
// store used for matching. A Registry is rebuilt from the persisted store
// at the start of each pipeline stage and passed explicitly to the resolver
// and the merge engine; nothing reads ambient state.
package registry

import (
	"strings"

	"github.com/805Burner66/ECARE/entity"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/normalize"
)

// IndexedName is one (surface form, canonical id) pair in the flat list
// scanned by the approximate matcher.
type IndexedName struct {
	Name string
	ID   string
}

// Registry is the in-memory canonical entity projection with derived
// lookup indices.
type Registry struct {
	entities map[string]*entity.Entity

	// exact maps lowercase {raw, normalized, short} forms to canonical id
	exact map[string]string
	// names is the flat candidate list for approximate matching
	names []IndexedName
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entities: make(map[string]*entity.Entity),
		exact:    make(map[string]string),
	}
}

// FromEntities builds a registry from a persisted entity list. Rows that
// violate registry invariants are skipped, not fatal: one bad historical
// row must not take down a whole ingestion run.
func FromEntities(entities []*entity.Entity) *Registry {
	r := New()
	for _, e := range entities {
		_ = r.Add(e)
	}
	return r
}

// Get returns the entity for id, or nil.
func (r *Registry) Get(id string) *entity.Entity {
	return r.entities[id]
}

// Len returns the number of entities in the registry.
func (r *Registry) Len() int {
	return len(r.entities)
}

// All iterates entities in unspecified order.
func (r *Registry) All() map[string]*entity.Entity {
	return r.entities
}

// LookupExact returns the canonical id indexed under the given lowercase
// form, if any.
func (r *Registry) LookupExact(form string) (string, bool) {
	id, ok := r.exact[form]
	return id, ok
}

// Names returns the flat (name, id) candidate list for fuzzy matching.
func (r *Registry) Names() []IndexedName {
	return r.names
}

// Add inserts a freshly minted entity and indexes its surface forms so
// later names in the same batch can match it. Fails on invariant
// violations rather than storing a broken record.
func (r *Registry) Add(e *entity.Entity) error {
	if e == nil || strings.TrimSpace(e.CanonicalName) == "" {
		return errors.Wrap(errors.ErrInvalidEntity, "canonical name must be non-empty")
	}
	if _, exists := r.entities[e.ID]; exists {
		return errors.Newf("duplicate canonical id %s", e.ID)
	}
	r.entities[e.ID] = e
	r.indexName(e.CanonicalName, e.ID)
	for _, alias := range e.Aliases {
		if alias != "" {
			r.indexName(alias, e.ID)
		}
	}
	return nil
}

// MergeAliases adds new aliases to an existing entity (case-insensitive
// dedupe against the alias set and canonical name) and indexes the ones
// actually added. Returns the aliases that were new.
func (r *Registry) MergeAliases(id string, aliases []string) []string {
	e, ok := r.entities[id]
	if !ok {
		return nil
	}
	var added []string
	for _, alias := range aliases {
		if e.AddAlias(alias) {
			r.indexName(alias, id)
			added = append(added, alias)
		}
	}
	return added
}

// indexName indexes one surface name under its raw, normalized and short
// forms. First writer wins on collisions: two canonical entities may
// transiently share a form (a matcher miss the cleanup pass will repair),
// and keeping the earlier binding makes resolution deterministic.
func (r *Registry) indexName(name, id string) {
	raw := strings.ToLower(name)
	r.addForm(raw, id)
	r.names = append(r.names, IndexedName{Name: name, ID: id})

	norm := normalize.Name(name)
	if lower := strings.ToLower(norm); lower != "" && lower != raw {
		r.addForm(lower, id)
		r.names = append(r.names, IndexedName{Name: norm, ID: id})
	}

	short := normalize.ShortForm(name)
	if lower := strings.ToLower(short); lower != "" && lower != raw && lower != strings.ToLower(norm) {
		r.addForm(lower, id)
		r.names = append(r.names, IndexedName{Name: short, ID: id})
	}
}

func (r *Registry) addForm(form, id string) {
	if _, taken := r.exact[form]; !taken {
		r.exact[form] = id
	}
}
