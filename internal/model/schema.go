package model

// Kind is the closed set of canonical schema shapes.
type Kind string

const (
	KindObject    Kind = "object"
	KindArray     Kind = "array"
	KindPrimitive Kind = "primitive"
	KindEnum      Kind = "enum"
	KindComposed  Kind = "composed"
	KindBoolean   Kind = "boolean-schema"
	KindReference Kind = "reference"
)

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
)

type Composition string

const (
	AllOf Composition = "allOf"
	OneOf Composition = "oneOf"
	AnyOf Composition = "anyOf"
)

// Schema is a canonical, dialect-free schema node. A reference node only
// carries Ref; every other kind carries its definition inline.
type Schema struct {
	Name        string
	Kind        Kind
	Ref         string
	Type        SchemaType
	Format      string
	Title       string
	Description string

	Properties           []Property
	AdditionalProperties *Schema
	Items                *Schema

	Composition   Composition
	Members       []*Schema
	Discriminator *Discriminator

	Constraints Constraints
	Enum        []any
	Const       any
	HasConst    bool
	Default     any

	Nullable bool
	// Allow is the value of a boolean schema: true accepts anything, false nothing.
	Allow bool

	ReadOnly   bool
	WriteOnly  bool
	Deprecated bool

	// Extensions holds x-* keys verbatim.
	Extensions map[string]any
}

type Property struct {
	Name     string
	Schema   *Schema
	Required bool
}

type Constraints struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
	MinLength        *int64
	MaxLength        *int64
	MinItems         *int64
	MaxItems         *int64
	MinProperties    *int64
	MaxProperties    *int64
	Pattern          string
	UniqueItems      bool
}

type Discriminator struct {
	PropertyName string
	// Mapping is the explicit mapping as declared, in declaration order.
	Mapping []DiscriminatorMapping
	// Resolved is filled by the discriminator pass with registry names.
	Resolved []DiscriminatorMapping
}

type DiscriminatorMapping struct {
	Value string
	Ref   string
}

// NamedSchema pairs a registry name with its node.
type NamedSchema struct {
	Name   string
	Schema *Schema
}

func NewRef(name string) *Schema {
	return &Schema{Kind: KindReference, Ref: name}
}

func (s *Schema) IsReference() bool {
	return s != nil && s.Kind == KindReference
}

// IsWrapper reports whether s is a one-member allOf that only adds nullability
// or constraints to the member.
func (s *Schema) IsWrapper() bool {
	return s != nil &&
		s.Kind == KindComposed &&
		s.Composition == AllOf &&
		len(s.Members) == 1 &&
		len(s.Properties) == 0 &&
		s.Discriminator == nil
}

// IsFreeForm reports whether s is an object without declared properties.
func (s *Schema) IsFreeForm() bool {
	return s != nil && s.Kind == KindObject && len(s.Properties) == 0
}

func (s *Schema) Property(name string) (Property, bool) {
	if s == nil {
		return Property{}, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (s *Schema) RequiredNames() []string {
	var names []string
	for _, p := range s.Properties {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Extension returns the string value of an extension key.
func (s *Schema) Extension(key string) string {
	if s == nil || s.Extensions == nil {
		return ""
	}
	v, _ := s.Extensions[key].(string)
	return v
}

type SlotRole string

const (
	SlotProperty SlotRole = "property"
	SlotItems    SlotRole = "items"
	SlotValue    SlotRole = "additionalProperties"
	SlotMember   SlotRole = "member"
)

// Slot addresses a child position so passes can replace the child in place.
type Slot struct {
	Ptr   **Schema
	Role  SlotRole
	Name  string
	Index int
}

// Slots lists the direct children of s in a stable order:
// properties, items, additional properties, composition members.
func (s *Schema) Slots() []Slot {
	if s == nil || s.Kind == KindReference {
		return nil
	}
	var slots []Slot
	for i := range s.Properties {
		if s.Properties[i].Schema != nil {
			slots = append(slots, Slot{Ptr: &s.Properties[i].Schema, Role: SlotProperty, Name: s.Properties[i].Name, Index: i})
		}
	}
	if s.Items != nil {
		slots = append(slots, Slot{Ptr: &s.Items, Role: SlotItems})
	}
	if s.AdditionalProperties != nil {
		slots = append(slots, Slot{Ptr: &s.AdditionalProperties, Role: SlotValue})
	}
	for i := range s.Members {
		if s.Members[i] != nil {
			slots = append(slots, Slot{Ptr: &s.Members[i], Role: SlotMember, Index: i})
		}
	}
	return slots
}

// Walk visits s and every nested node depth-first. Reference targets are not followed.
func Walk(s *Schema, fn func(*Schema)) {
	seen := make(map[*Schema]bool)
	var visit func(*Schema)
	visit = func(n *Schema) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		fn(n)
		for _, slot := range n.Slots() {
			visit(*slot.Ptr)
		}
	}
	visit(s)
}

// Clone deep-copies s, preserving shared and cyclic structure.
func (s *Schema) Clone() *Schema {
	return cloneSchema(s, make(map[*Schema]*Schema))
}

func cloneSchema(s *Schema, seen map[*Schema]*Schema) *Schema {
	if s == nil {
		return nil
	}
	if c, ok := seen[s]; ok {
		return c
	}
	c := *s
	seen[s] = &c

	if s.Properties != nil {
		c.Properties = make([]Property, len(s.Properties))
		for i, p := range s.Properties {
			c.Properties[i] = Property{Name: p.Name, Required: p.Required, Schema: cloneSchema(p.Schema, seen)}
		}
	}
	c.Items = cloneSchema(s.Items, seen)
	c.AdditionalProperties = cloneSchema(s.AdditionalProperties, seen)
	if s.Members != nil {
		c.Members = make([]*Schema, len(s.Members))
		for i, m := range s.Members {
			c.Members[i] = cloneSchema(m, seen)
		}
	}
	if s.Discriminator != nil {
		d := *s.Discriminator
		d.Mapping = append([]DiscriminatorMapping(nil), s.Discriminator.Mapping...)
		d.Resolved = append([]DiscriminatorMapping(nil), s.Discriminator.Resolved...)
		c.Discriminator = &d
	}
	if s.Enum != nil {
		c.Enum = append([]any(nil), s.Enum...)
	}
	if s.Extensions != nil {
		c.Extensions = make(map[string]any, len(s.Extensions))
		for k, v := range s.Extensions {
			c.Extensions[k] = v
		}
	}
	return &c
}

type SecurityScheme struct {
	Name         string
	Type         string
	Description  string
	In           string
	Scheme       string
	BearerFormat string
}
