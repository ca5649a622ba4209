package normalize

import (
	"log/slog"
	"strings"

	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/registry"
)

// Dedupe merges registry entries that are structurally identical. The later
// registered name becomes an alias of the earlier one and every reference is
// rewritten to the canonical name. Merging can expose new equalities (two
// entries that differed only by referencing merged names), so rounds repeat
// until nothing changes. It returns the number of merged entries.
//
// Entries that are only equal through a cycle spanning both of them are not
// merged: references compare by name, and the names differ until a merge
// has already happened. Entries a discriminator selects are never merged,
// since each one keeps its own discriminator value.
func (n *Normalizer) Dedupe(spec *model.Spec, reg *registry.Registry) int {
	total := 0
	for {
		merged := dedupeRound(reg)
		if merged == 0 {
			break
		}
		total += merged
		RewriteReferences(spec, reg)
	}
	if total > 0 {
		n.logger.Debug("merged duplicate schemas", slog.Int("merged", total), slog.Int("remaining", reg.Len()))
	}
	return total
}

func dedupeRound(reg *registry.Registry) int {
	type candidate struct {
		name   string
		schema *model.Schema
	}
	buckets := make(map[string][]candidate)
	var merges [][2]string
	subtypes := polymorphicTargets(reg)

	for name, s := range reg.All() {
		if subtypes[name] {
			continue
		}
		fp := registry.Fingerprint(s)
		matched := false
		for _, c := range buckets[fp] {
			if registry.Equal(c.schema, s) {
				merges = append(merges, [2]string{name, c.name})
				matched = true
				break
			}
		}
		if !matched {
			buckets[fp] = append(buckets[fp], candidate{name: name, schema: s})
		}
	}

	for _, m := range merges {
		reg.Alias(m[0], m[1])
	}
	return len(merges)
}

// polymorphicTargets names every entry a discriminator can select: the
// members and explicit mapping targets of a discriminated node, and the
// entries extending a discriminated entry through allOf.
func polymorphicTargets(reg *registry.Registry) map[string]bool {
	targets := make(map[string]bool)
	bases := make(map[string]bool)
	for name, entry := range reg.All() {
		model.Walk(entry, func(s *model.Schema) {
			if s.Discriminator == nil {
				return
			}
			if s == entry {
				bases[name] = true
			}
			for _, m := range s.Members {
				if m.IsReference() {
					targets[reg.Canonical(m.Ref)] = true
				}
			}
			for _, m := range s.Discriminator.Mapping {
				targets[reg.Canonical(strings.TrimPrefix(m.Ref, componentPrefix))] = true
			}
		})
	}
	for name, entry := range reg.All() {
		if entry.Kind != model.KindComposed || entry.Composition != model.AllOf {
			continue
		}
		for _, m := range entry.Members {
			if m.IsReference() && bases[reg.Canonical(m.Ref)] {
				targets[name] = true
			}
		}
	}
	return targets
}

// RewriteReferences points every reference node at its canonical registry
// name, in registry entries and operation schemas alike.
func RewriteReferences(spec *model.Spec, reg *registry.Registry) {
	rewrite := func(s *model.Schema) {
		if s.IsReference() {
			s.Ref = reg.Canonical(s.Ref)
		}
	}
	for _, s := range reg.All() {
		model.Walk(s, rewrite)
	}
	if spec == nil {
		return
	}
	for i := range spec.Operations {
		for _, slot := range spec.Operations[i].Slots() {
			model.Walk(*slot.Ptr, rewrite)
		}
	}
}
