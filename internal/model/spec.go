package model

import "strings"

// Spec is the canonical API description the passes operate on. Component
// schemas live in the registry; Spec only holds operations and metadata.
type Spec struct {
	Info       Info
	Servers    []Server
	Tags       []Tag
	Operations []Operation
	Security   []SecurityScheme
}

// RefName strips a local component prefix ("#/components/schemas/Pet" -> "Pet").
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Server struct {
	URL         string
	Description string
}

type Tag struct {
	Name        string
	Description string
}

type Options struct {
	Language      string
	Package       string
	Outputs       []string
	TestFramework string
}

// GenerationModel is the frozen result of all passes. Nothing mutates it
// after Freeze; emitters only read from it.
type GenerationModel struct {
	Info       Info
	Servers    []Server
	Schemas    []NamedSchema
	Operations []Operation
	Security   []SecurityScheme
	Options    Options

	byName  map[string]*Schema
	aliases map[string]string
}

// Freeze snapshots spec and the registry contents into a GenerationModel.
func Freeze(spec *Spec, schemas []NamedSchema, aliases map[string]string, opts Options) *GenerationModel {
	seen := make(map[*Schema]*Schema)
	gm := &GenerationModel{
		Info:    spec.Info,
		Servers: append([]Server(nil), spec.Servers...),
		Options: opts,
		byName:  make(map[string]*Schema, len(schemas)),
		aliases: make(map[string]string, len(aliases)),
	}
	for _, ns := range schemas {
		c := cloneSchema(ns.Schema, seen)
		gm.Schemas = append(gm.Schemas, NamedSchema{Name: ns.Name, Schema: c})
		gm.byName[ns.Name] = c
	}
	for alias, canonical := range aliases {
		gm.aliases[alias] = canonical
	}
	for i := range spec.Operations {
		gm.Operations = append(gm.Operations, spec.Operations[i].Clone())
	}
	gm.Security = append([]SecurityScheme(nil), spec.Security...)
	return gm
}

// Lookup finds a schema by registry name, following aliases.
func (g *GenerationModel) Lookup(name string) (*Schema, bool) {
	if canonical, ok := g.aliases[name]; ok {
		name = canonical
	}
	s, ok := g.byName[name]
	return s, ok
}

// Deref follows reference nodes until a concrete node is reached.
func (g *GenerationModel) Deref(s *Schema) *Schema {
	for hops := 0; s.IsReference() && hops < 64; hops++ {
		target, ok := g.Lookup(s.Ref)
		if !ok {
			return s
		}
		s = target
	}
	return s
}
