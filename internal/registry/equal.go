package registry

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/kolah/schemaforge/internal/model"
)

type nodePair struct {
	a, b *model.Schema
}

// Equal reports whether a and b describe the same structure. Annotations
// (title, description, access and deprecation flags) are ignored, property
// order is irrelevant, and oneOf/anyOf members compare as multisets while
// allOf members compare in order. References compare by name.
func Equal(a, b *model.Schema) bool {
	c := &comparer{inProgress: make(map[nodePair]bool)}
	return c.equal(a, b)
}

type comparer struct {
	inProgress map[nodePair]bool
}

func (c *comparer) equal(a, b *model.Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	key := nodePair{a, b}
	if c.inProgress[key] {
		return true
	}
	c.inProgress[key] = true
	defer delete(c.inProgress, key)

	if a.Kind != b.Kind || a.Ref != b.Ref {
		return false
	}
	if a.Kind == model.KindReference {
		return true
	}
	if a.Type != b.Type || a.Format != b.Format || a.Nullable != b.Nullable || a.Allow != b.Allow {
		return false
	}
	if a.HasConst != b.HasConst || !reflect.DeepEqual(a.Const, b.Const) {
		return false
	}
	if !reflect.DeepEqual(a.Default, b.Default) || !reflect.DeepEqual(a.Enum, b.Enum) {
		return false
	}
	if !constraintsEqual(a.Constraints, b.Constraints) {
		return false
	}
	if !extensionsEqual(a.Extensions, b.Extensions) {
		return false
	}
	if !discriminatorEqual(a.Discriminator, b.Discriminator) {
		return false
	}
	if !c.propertiesEqual(a.Properties, b.Properties) {
		return false
	}
	if !c.equal(a.Items, b.Items) || !c.equal(a.AdditionalProperties, b.AdditionalProperties) {
		return false
	}
	if a.Composition != b.Composition || len(a.Members) != len(b.Members) {
		return false
	}
	if a.Composition == model.AllOf {
		for i := range a.Members {
			if !c.equal(a.Members[i], b.Members[i]) {
				return false
			}
		}
		return true
	}
	return c.membersEqualUnordered(a.Members, b.Members)
}

func (c *comparer) propertiesEqual(a, b []model.Property) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]model.Property, len(b))
	for _, p := range b {
		byName[p.Name] = p
	}
	for _, p := range a {
		other, ok := byName[p.Name]
		if !ok || other.Required != p.Required {
			return false
		}
		if !c.equal(p.Schema, other.Schema) {
			return false
		}
	}
	return true
}

func (c *comparer) membersEqualUnordered(a, b []*model.Schema) bool {
	used := make([]bool, len(b))
	for _, m := range a {
		found := false
		for j, other := range b {
			if used[j] {
				continue
			}
			if c.equal(m, other) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func constraintsEqual(a, b model.Constraints) bool {
	return floatPtrEqual(a.Minimum, b.Minimum) &&
		floatPtrEqual(a.Maximum, b.Maximum) &&
		floatPtrEqual(a.ExclusiveMinimum, b.ExclusiveMinimum) &&
		floatPtrEqual(a.ExclusiveMaximum, b.ExclusiveMaximum) &&
		floatPtrEqual(a.MultipleOf, b.MultipleOf) &&
		intPtrEqual(a.MinLength, b.MinLength) &&
		intPtrEqual(a.MaxLength, b.MaxLength) &&
		intPtrEqual(a.MinItems, b.MinItems) &&
		intPtrEqual(a.MaxItems, b.MaxItems) &&
		intPtrEqual(a.MinProperties, b.MinProperties) &&
		intPtrEqual(a.MaxProperties, b.MaxProperties) &&
		a.Pattern == b.Pattern &&
		a.UniqueItems == b.UniqueItems
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func extensionsEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func discriminatorEqual(a, b *model.Discriminator) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.PropertyName != b.PropertyName || len(a.Mapping) != len(b.Mapping) {
		return false
	}
	for _, m := range a.Mapping {
		if !slices.Contains(b.Mapping, m) {
			return false
		}
	}
	return true
}

// Fingerprint is a shallow structural key: equal nodes always share it.
func Fingerprint(s *model.Schema) string {
	if s == nil {
		return "nil"
	}
	if s.Kind == model.KindReference {
		return "ref:" + s.Ref
	}
	names := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		names[i] = p.Name
	}
	slices.Sort(names)
	return fmt.Sprintf("%s|%s|%s|%t|%s|%d|%d|%s",
		s.Kind, s.Type, s.Format, s.Nullable, s.Composition, len(s.Members), len(s.Enum), strings.Join(names, ","))
}
