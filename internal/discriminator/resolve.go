// Package discriminator computes the value to subtype mapping of every
// polymorphic schema.
package discriminator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/registry"
)

const componentPrefix = "#/components/schemas/"

// Resolve fills Discriminator.Resolved on every registry node that declares a
// discriminator. Mapped names are canonical registry names. No other node is
// modified.
func Resolve(reg *registry.Registry, issues *diag.Collector) {
	r := &resolver{reg: reg, issues: issues}
	for name, entry := range reg.All() {
		model.Walk(entry, func(s *model.Schema) {
			if s.Discriminator != nil {
				r.resolve(name, s)
			}
		})
	}
}

type resolver struct {
	reg    *registry.Registry
	issues *diag.Collector
}

func (r *resolver) resolve(name string, s *model.Schema) {
	d := s.Discriminator
	path := diag.Path{}.With("schema", name).With("discriminator", d.PropertyName)

	var resolved []model.DiscriminatorMapping
	switch {
	case len(d.Mapping) > 0:
		for _, m := range d.Mapping {
			target, ok := r.target(m.Ref)
			if !ok {
				r.issues.Addf(diag.ErrUnresolvedDiscriminatorMapping, name, path.With("mapping", m.Value).String(),
					"value %q maps to %q, which is not a known schema", m.Value, m.Ref)
				continue
			}
			resolved = append(resolved, model.DiscriminatorMapping{Value: m.Value, Ref: target})
		}
	case len(s.Members) > 0:
		for _, m := range s.Members {
			if !m.IsReference() {
				continue
			}
			target := r.reg.Canonical(m.Ref)
			if target == name {
				continue
			}
			resolved = appendUnique(resolved, model.DiscriminatorMapping{Value: target, Ref: target})
		}
	default:
		// An object base: its subtypes are the entries extending it via allOf.
		for sub, entry := range r.reg.All() {
			if sub != name && extends(entry, name, r.reg) {
				resolved = appendUnique(resolved, model.DiscriminatorMapping{Value: sub, Ref: sub})
			}
		}
	}

	for _, m := range resolved {
		r.checkProperty(name, s, m, path)
	}
	d.Resolved = resolved
}

func appendUnique(list []model.DiscriminatorMapping, m model.DiscriminatorMapping) []model.DiscriminatorMapping {
	if slices.ContainsFunc(list, func(existing model.DiscriminatorMapping) bool { return existing.Value == m.Value }) {
		return list
	}
	return append(list, m)
}

// target resolves a mapping value, which may be a component pointer or a
// bare schema name.
func (r *resolver) target(ref string) (string, bool) {
	name := strings.TrimPrefix(ref, componentPrefix)
	if strings.Contains(name, "/") {
		return "", false
	}
	if !r.reg.Has(name) {
		return "", false
	}
	return r.reg.Canonical(name), true
}

func extends(s *model.Schema, base string, reg *registry.Registry) bool {
	if s.Kind != model.KindComposed || s.Composition != model.AllOf {
		return false
	}
	for _, m := range s.Members {
		if m.IsReference() && reg.Canonical(m.Ref) == base {
			return true
		}
	}
	return false
}

// checkProperty verifies that every fixed value the discriminator property
// carries on the base or on the subtype matches the mapping key.
func (r *resolver) checkProperty(name string, base *model.Schema, m model.DiscriminatorMapping, path diag.Path) {
	property := base.Discriminator.PropertyName
	decls := declarations(base, property, r.reg, make(map[*model.Schema]bool))
	if sub, ok := r.reg.Lookup(m.Ref); ok && sub != base {
		decls = append(decls, declarations(sub, property, r.reg, make(map[*model.Schema]bool))...)
	}
	for _, decl := range decls {
		if err := matches(decl, m.Value); err != nil {
			r.issues.Addf(diag.ErrDiscriminatorPropertyConflict, name,
				path.With("mapping", m.Value).With("schema", m.Ref).String(), "%s", err)
			return
		}
	}
}

// declarations collects every schema declared for property on s, including
// through allOf members and references.
func declarations(s *model.Schema, property string, reg *registry.Registry, seen map[*model.Schema]bool) []*model.Schema {
	if s == nil || seen[s] {
		return nil
	}
	seen[s] = true
	if s.IsReference() {
		target, ok := reg.Lookup(s.Ref)
		if !ok {
			return nil
		}
		return declarations(target, property, reg, seen)
	}

	var out []*model.Schema
	if p, ok := s.Property(property); ok && p.Schema != nil {
		decl := p.Schema
		if decl.IsReference() {
			if target, ok := reg.Lookup(decl.Ref); ok {
				decl = target
			}
		}
		out = append(out, decl)
	}
	if s.Kind == model.KindComposed && s.Composition == model.AllOf {
		for _, m := range s.Members {
			out = append(out, declarations(m, property, reg, seen)...)
		}
	}
	return out
}

func matches(decl *model.Schema, key string) error {
	switch {
	case decl.HasConst:
		if fmt.Sprint(decl.Const) != key {
			return fmt.Errorf("property is fixed to %v, but is mapped by %q", decl.Const, key)
		}
	case len(decl.Enum) == 1:
		if fmt.Sprint(decl.Enum[0]) != key {
			return fmt.Errorf("property is fixed to %v, but is mapped by %q", decl.Enum[0], key)
		}
	case len(decl.Enum) > 1:
		if !slices.ContainsFunc(decl.Enum, func(v any) bool { return fmt.Sprint(v) == key }) {
			return fmt.Errorf("property allows %v, which does not include %q", decl.Enum, key)
		}
	}
	return nil
}
