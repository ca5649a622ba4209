package normalize

import (
	"slices"

	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/registry"
)

// Simplify rewrites s and its descendants into their smallest equivalent
// form: duplicate composition members are dropped, allOf members are ordered
// references first and one-member allOf nodes without siblings collapse into
// their member. The root itself is never collapsed so registry entries keep
// a definition of their own.
func Simplify(s *model.Schema) *model.Schema {
	if s == nil || s.Kind == model.KindReference {
		return s
	}
	seen := make(map[*model.Schema]*model.Schema)
	for _, slot := range s.Slots() {
		*slot.Ptr = simplify(*slot.Ptr, seen)
	}
	tidyMembers(s)
	return s
}

func simplify(s *model.Schema, seen map[*model.Schema]*model.Schema) *model.Schema {
	if s == nil || s.Kind == model.KindReference {
		return s
	}
	if done, ok := seen[s]; ok {
		return done
	}
	seen[s] = s
	for _, slot := range s.Slots() {
		*slot.Ptr = simplify(*slot.Ptr, seen)
	}
	tidyMembers(s)
	if collapsible(s) {
		seen[s] = s.Members[0]
		return s.Members[0]
	}
	return s
}

func tidyMembers(s *model.Schema) {
	if s.Kind != model.KindComposed {
		return
	}
	var members []*model.Schema
	for _, m := range s.Members {
		dup := slices.ContainsFunc(members, func(existing *model.Schema) bool {
			return registry.Equal(existing, m)
		})
		if !dup {
			members = append(members, m)
		}
	}
	if s.Composition == model.AllOf {
		slices.SortStableFunc(members, func(a, b *model.Schema) int {
			switch {
			case a.IsReference() && !b.IsReference():
				return -1
			case !a.IsReference() && b.IsReference():
				return 1
			}
			return 0
		})
	}
	s.Members = members
}

func collapsible(s *model.Schema) bool {
	return s.IsWrapper() &&
		!s.Nullable &&
		s.AdditionalProperties == nil &&
		s.Constraints == (model.Constraints{}) &&
		s.Default == nil &&
		!s.HasConst &&
		len(s.Extensions) == 0
}
