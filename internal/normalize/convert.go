package normalize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/rawgraph"
)

const componentPrefix = "#/components/schemas/"

// converter maps raw nodes of one dialect onto canonical nodes. It is the
// only place that looks at the dialect.
type converter struct {
	dialect rawgraph.Dialect
	source  string
	issues  *diag.Collector
}

func (c *converter) schema(raw *rawgraph.Schema, path diag.Path) *model.Schema {
	if raw == nil {
		return nil
	}

	if raw.Bool != nil {
		if c.dialect == rawgraph.OAS30 {
			c.issues.Addf(diag.ErrInvalidSchema, c.source, path.String(), "boolean schemas require the 3.1 dialect")
		}
		return &model.Schema{Kind: model.KindBoolean, Allow: *raw.Bool}
	}

	if raw.Ref != "" {
		return c.reference(raw, path)
	}

	nullable := c.dialect == rawgraph.OAS30 && raw.Nullable != nil && *raw.Nullable
	types := make([]string, 0, len(raw.Types))
	for _, t := range raw.Types {
		if t == string(model.TypeNull) {
			nullable = true
			continue
		}
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	if len(raw.Types) > 0 && len(types) == 0 {
		s := &model.Schema{Kind: model.KindPrimitive, Type: model.TypeNull}
		c.annotate(s, raw)
		return s
	}

	if len(types) > 1 {
		s := &model.Schema{Kind: model.KindComposed, Composition: model.AnyOf, Nullable: nullable}
		for _, t := range types {
			single := *raw
			single.Types = rawgraph.Types{t}
			single.Nullable = nil
			single.Title, single.Description = "", ""
			single.Extensions = nil
			s.Members = append(s.Members, c.schema(&single, path.With("type", t)))
		}
		c.annotate(s, raw)
		return s
	}

	var typ string
	if len(types) == 1 {
		typ = types[0]
	}

	var s *model.Schema
	switch {
	case len(raw.AllOf) > 0 || len(raw.OneOf) > 0 || len(raw.AnyOf) > 0:
		s = c.composed(raw, typ, path)
	case len(raw.Enum) > 0:
		s = c.enum(raw, typ, path)
	case typ == string(model.TypeArray) || (typ == "" && raw.Items != nil):
		s = &model.Schema{Kind: model.KindArray, Type: model.TypeArray}
		s.Items = c.items(raw.Items, path.With("items", ""))
	case typ == string(model.TypeObject) || (typ == "" && (len(raw.Properties) > 0 || raw.AdditionalProperties != nil)):
		s = &model.Schema{Kind: model.KindObject, Type: model.TypeObject}
		c.object(s, raw, path)
	case typ != "":
		s = &model.Schema{Kind: model.KindPrimitive, Type: model.SchemaType(typ)}
		if !validPrimitive(typ) {
			c.issues.Addf(diag.ErrInvalidSchema, c.source, path.String(), "unknown type %q", typ)
		}
	case raw.HasConst:
		s = &model.Schema{Kind: model.KindPrimitive, Type: inferType([]any{raw.Const})}
	default:
		// An empty schema accepts anything, like the boolean schema true.
		s = &model.Schema{Kind: model.KindBoolean, Allow: true}
	}

	s.Nullable = s.Nullable || nullable
	s.Format = raw.Format
	s.Constraints = c.constraints(raw)
	if raw.HasConst {
		s.HasConst = true
		s.Const = normalizeValue(raw.Const)
	}
	c.annotate(s, raw)
	return s
}

// reference converts a $ref node. Under 3.1 constraining siblings are kept by
// wrapping the reference in a one-member allOf; under 3.0 siblings are ignored.
func (c *converter) reference(raw *rawgraph.Schema, path diag.Path) *model.Schema {
	name, ok := refName(raw.Ref)
	if !ok {
		c.issues.Addf(diag.ErrUnresolvedReference, raw.Ref, path.String(), "only local component references are supported")
		return &model.Schema{Kind: model.KindBoolean, Allow: true}
	}
	ref := model.NewRef(name)
	if c.dialect == rawgraph.OAS30 || !hasConstrainingSiblings(raw) {
		return ref
	}

	sibling := *raw
	sibling.Ref = ""
	wrapper := &model.Schema{Kind: model.KindComposed, Composition: model.AllOf, Members: []*model.Schema{ref}}
	if len(sibling.Properties) > 0 || len(sibling.AllOf) > 0 || len(sibling.OneOf) > 0 || len(sibling.AnyOf) > 0 {
		wrapper.Members = append(wrapper.Members, c.schema(&sibling, path))
	} else {
		wrapper.Nullable = slices.Contains(sibling.Types, string(model.TypeNull))
		wrapper.Constraints = c.constraints(&sibling)
	}
	c.annotate(wrapper, raw)
	return wrapper
}

func hasConstrainingSiblings(raw *rawgraph.Schema) bool {
	return len(raw.Types) > 0 ||
		len(raw.Properties) > 0 ||
		len(raw.AllOf) > 0 || len(raw.OneOf) > 0 || len(raw.AnyOf) > 0 ||
		len(raw.Enum) > 0 || raw.HasConst ||
		raw.Minimum != nil || raw.Maximum != nil ||
		raw.ExclusiveMinimum != nil || raw.ExclusiveMaximum != nil ||
		raw.MinLength != nil || raw.MaxLength != nil ||
		raw.MinItems != nil || raw.MaxItems != nil ||
		raw.Pattern != ""
}

func refName(ref string) (string, bool) {
	if strings.HasPrefix(ref, componentPrefix) {
		return strings.TrimPrefix(ref, componentPrefix), true
	}
	if !strings.ContainsAny(ref, "#/") {
		return ref, true
	}
	return "", false
}

func (c *converter) composed(raw *rawgraph.Schema, typ string, path diag.Path) *model.Schema {
	s := &model.Schema{Kind: model.KindComposed}
	if typ != "" && typ != string(model.TypeObject) {
		s.Type = model.SchemaType(typ)
	}

	convert := func(list []*rawgraph.Schema, comp model.Composition) []*model.Schema {
		var out []*model.Schema
		for i, m := range list {
			if comp != model.AllOf && isNullOnly(m) {
				s.Nullable = true
				continue
			}
			out = append(out, c.schema(m, path.With(string(comp), fmt.Sprint(i))))
		}
		return out
	}

	allOf := convert(raw.AllOf, model.AllOf)
	oneOf := convert(raw.OneOf, model.OneOf)
	anyOf := convert(raw.AnyOf, model.AnyOf)

	switch {
	case len(allOf) > 0:
		s.Composition = model.AllOf
		s.Members = allOf
		if len(oneOf) > 0 {
			s.Members = append(s.Members, &model.Schema{Kind: model.KindComposed, Composition: model.OneOf, Members: oneOf})
		}
		if len(anyOf) > 0 {
			s.Members = append(s.Members, &model.Schema{Kind: model.KindComposed, Composition: model.AnyOf, Members: anyOf})
		}
	case len(oneOf) > 0:
		s.Composition = model.OneOf
		s.Members = oneOf
	default:
		s.Composition = model.AnyOf
		s.Members = anyOf
	}

	// A union left with a single member after dropping the null member is
	// that member made nullable.
	if s.Composition != model.AllOf && len(s.Members) == 1 && raw.Discriminator == nil {
		s.Composition = model.AllOf
	}

	if len(raw.Properties) > 0 || raw.AdditionalProperties != nil {
		c.object(s, raw, path)
	}
	s.Discriminator = discriminator(raw.Discriminator)
	return s
}

func discriminator(raw *rawgraph.Discriminator) *model.Discriminator {
	if raw == nil {
		return nil
	}
	d := &model.Discriminator{PropertyName: raw.PropertyName}
	for _, m := range raw.Mapping {
		d.Mapping = append(d.Mapping, model.DiscriminatorMapping{Value: m.Value, Ref: m.Ref})
	}
	return d
}

func isNullOnly(raw *rawgraph.Schema) bool {
	return raw != nil && raw.Ref == "" && raw.Bool == nil &&
		len(raw.Types) == 1 && raw.Types[0] == string(model.TypeNull) &&
		len(raw.Properties) == 0 && len(raw.AllOf)+len(raw.OneOf)+len(raw.AnyOf) == 0
}

func (c *converter) object(s *model.Schema, raw *rawgraph.Schema, path diag.Path) {
	if s.Kind == model.KindObject {
		s.Discriminator = discriminator(raw.Discriminator)
	}
	for _, p := range raw.Properties {
		if p.Schema != nil && p.Schema.Bool != nil && !*p.Schema.Bool {
			// A property whose schema is false can never be present.
			continue
		}
		if _, exists := s.Property(p.Name); exists {
			continue
		}
		s.Properties = append(s.Properties, model.Property{
			Name:     p.Name,
			Schema:   c.schema(p.Schema, path.With("property", p.Name)),
			Required: slices.Contains(raw.Required, p.Name),
		})
	}
	if ap := raw.AdditionalProperties; ap != nil {
		if ap.Bool == nil || *ap.Bool {
			s.AdditionalProperties = c.schema(ap, path.With("additionalProperties", ""))
		}
	}
}

func (c *converter) items(raw *rawgraph.Schema, path diag.Path) *model.Schema {
	if raw == nil || (raw.Bool != nil && !*raw.Bool) {
		return nil
	}
	return c.schema(raw, path)
}

func (c *converter) enum(raw *rawgraph.Schema, typ string, path diag.Path) *model.Schema {
	s := &model.Schema{Kind: model.KindEnum}
	for _, v := range raw.Enum {
		if v == nil {
			s.Nullable = true
			continue
		}
		s.Enum = append(s.Enum, normalizeValue(v))
	}
	if typ == "" {
		typ = string(inferType(s.Enum))
	}
	s.Type = model.SchemaType(typ)
	if len(s.Enum) == 0 {
		c.issues.Addf(diag.ErrInvalidSchema, c.source, path.String(), "enum has no non-null values")
	}
	return s
}

func (c *converter) constraints(raw *rawgraph.Schema) model.Constraints {
	k := model.Constraints{
		Minimum:       raw.Minimum,
		Maximum:       raw.Maximum,
		MultipleOf:    raw.MultipleOf,
		MinLength:     raw.MinLength,
		MaxLength:     raw.MaxLength,
		MinItems:      raw.MinItems,
		MaxItems:      raw.MaxItems,
		MinProperties: raw.MinProperties,
		MaxProperties: raw.MaxProperties,
		Pattern:       raw.Pattern,
		UniqueItems:   raw.UniqueItems,
	}
	k.ExclusiveMinimum, k.Minimum = exclusiveBound(raw.ExclusiveMinimum, k.Minimum)
	k.ExclusiveMaximum, k.Maximum = exclusiveBound(raw.ExclusiveMaximum, k.Maximum)
	return k
}

// exclusiveBound folds a boolean exclusive flag into a numeric bound. It
// returns the exclusive bound and what is left of the inclusive one.
func exclusiveBound(b *rawgraph.Bound, inclusive *float64) (*float64, *float64) {
	switch {
	case b == nil:
		return nil, inclusive
	case b.Value != nil:
		v := *b.Value
		return &v, inclusive
	case b.Flag != nil && *b.Flag && inclusive != nil:
		v := *inclusive
		return &v, nil
	}
	return nil, inclusive
}

func (c *converter) annotate(s *model.Schema, raw *rawgraph.Schema) {
	s.Title = raw.Title
	s.Description = raw.Description
	s.ReadOnly = raw.ReadOnly
	s.WriteOnly = raw.WriteOnly
	s.Deprecated = raw.Deprecated
	if raw.Default != nil {
		s.Default = normalizeValue(raw.Default)
	}
	if len(raw.Extensions) > 0 {
		s.Extensions = make(map[string]any, len(raw.Extensions))
		for _, ext := range raw.Extensions {
			s.Extensions[ext.Key] = ext.Value
		}
	}
}

func validPrimitive(t string) bool {
	switch model.SchemaType(t) {
	case model.TypeString, model.TypeInteger, model.TypeNumber, model.TypeBoolean:
		return true
	}
	return false
}

func inferType(values []any) model.SchemaType {
	t := model.SchemaType("")
	for _, v := range values {
		var vt model.SchemaType
		switch v.(type) {
		case string:
			vt = model.TypeString
		case int64, int, int32:
			vt = model.TypeInteger
		case float64, float32:
			vt = model.TypeNumber
		case bool:
			vt = model.TypeBoolean
		default:
			continue
		}
		switch {
		case t == "":
			t = vt
		case t == model.TypeInteger && vt == model.TypeNumber:
			t = model.TypeNumber
		case t != vt && !(t == model.TypeNumber && vt == model.TypeInteger):
			return model.TypeString
		}
	}
	if t == "" {
		return model.TypeString
	}
	return t
}

// normalizeValue gives numbers one representation regardless of the decoder.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}
