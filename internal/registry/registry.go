// Package registry binds schema names to canonical schema nodes.
package registry

import (
	"fmt"
	"iter"
	"maps"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/pb33f/libopenapi/orderedmap"
)

// Registry keeps named schemas in registration order. Names merged away by
// deduplication stay resolvable as aliases of their canonical entry.
type Registry struct {
	entries *orderedmap.Map[string, *model.Schema]
	aliases map[string]string
}

func New() *Registry {
	return &Registry{
		entries: orderedmap.New[string, *model.Schema](),
		aliases: make(map[string]string),
	}
}

// Register binds name to s. Registering a structurally identical node under
// an existing name is a no-op; a different node is a name collision.
func (r *Registry) Register(name string, s *model.Schema) error {
	if canonical, ok := r.aliases[name]; ok {
		return fmt.Errorf("%w: %q is an alias of %q", diag.ErrNameCollision, name, canonical)
	}
	if existing, ok := r.entries.Get(name); ok {
		if Equal(existing, s) {
			return nil
		}
		return fmt.Errorf("%w: %q is already bound to a different schema", diag.ErrNameCollision, name)
	}
	s.Name = name
	r.entries.Set(name, s)
	return nil
}

// Resolve returns the node bound to name, following aliases.
func (r *Registry) Resolve(name string) (*model.Schema, error) {
	if s, ok := r.Lookup(name); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", diag.ErrUnresolvedReference, name)
}

func (r *Registry) Lookup(name string) (*model.Schema, bool) {
	return r.entries.Get(r.Canonical(name))
}

// Has reports whether name is registered directly or as an alias.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Replace rebinds an existing name without moving it in the order.
func (r *Registry) Replace(name string, s *model.Schema) {
	s.Name = name
	r.entries.Set(name, s)
}

func (r *Registry) Remove(name string) {
	r.entries.Delete(name)
}

// Alias removes alias as an entry and makes it resolve to canonical.
func (r *Registry) Alias(alias, canonical string) {
	canonical = r.Canonical(canonical)
	r.entries.Delete(alias)
	r.aliases[alias] = canonical
	for a, c := range r.aliases {
		if c == alias {
			r.aliases[a] = canonical
		}
	}
}

// Canonical maps an alias to the name it was merged into.
func (r *Registry) Canonical(name string) string {
	if c, ok := r.aliases[name]; ok {
		return c
	}
	return name
}

func (r *Registry) Aliases() map[string]string {
	return maps.Clone(r.aliases)
}

func (r *Registry) Len() int {
	return r.entries.Len()
}

// All iterates entries in registration order.
func (r *Registry) All() iter.Seq2[string, *model.Schema] {
	return r.entries.FromOldest()
}

func (r *Registry) Names() []string {
	names := make([]string, 0, r.entries.Len())
	for name := range r.entries.FromOldest() {
		names = append(names, name)
	}
	return names
}

func (r *Registry) Entries() []model.NamedSchema {
	entries := make([]model.NamedSchema, 0, r.entries.Len())
	for name, s := range r.entries.FromOldest() {
		entries = append(entries, model.NamedSchema{Name: name, Schema: s})
	}
	return entries
}

// FindEqual returns the first registered name whose node is structurally
// identical to s.
func (r *Registry) FindEqual(s *model.Schema) (string, bool) {
	fp := Fingerprint(s)
	for name, candidate := range r.entries.FromOldest() {
		if candidate == s {
			return name, true
		}
		if Fingerprint(candidate) != fp {
			continue
		}
		if Equal(candidate, s) {
			return name, true
		}
	}
	return "", false
}
