package normalize

import (
	"strconv"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/registry"
)

// CheckReferences reports every reference node whose name has no registry
// entry. All unresolved names are collected, not just the first.
func CheckReferences(spec *model.Spec, reg *registry.Registry, issues *diag.Collector) {
	for name, s := range reg.All() {
		checkNode(s, diag.Path{}.With("schema", name), reg, issues, make(map[*model.Schema]bool))
	}
	if spec == nil {
		return
	}
	for i := range spec.Operations {
		op := &spec.Operations[i]
		base := diag.Path{}.With("operation", op.ID)
		for _, slot := range op.Slots() {
			checkNode(*slot.Ptr, base.With(slot.Role, slot.Name), reg, issues, make(map[*model.Schema]bool))
		}
	}
}

func checkNode(s *model.Schema, path diag.Path, reg *registry.Registry, issues *diag.Collector, seen map[*model.Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	if s.IsReference() {
		if !reg.Has(s.Ref) {
			issues.Addf(diag.ErrUnresolvedReference, s.Ref, path.String(), "no schema named %q", s.Ref)
		}
		return
	}
	for _, slot := range s.Slots() {
		child := path
		switch slot.Role {
		case model.SlotProperty:
			child = path.With("property", slot.Name)
		case model.SlotItems:
			child = path.With("items", "")
		case model.SlotValue:
			child = path.With("additionalProperties", "")
		case model.SlotMember:
			child = path.With(string(s.Composition), strconv.Itoa(slot.Index))
		}
		checkNode(*slot.Ptr, child, reg, issues, seen)
	}
}
