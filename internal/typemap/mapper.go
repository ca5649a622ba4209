package typemap

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/naming"
)

const (
	// TypeExtension replaces the mapped type of a schema.
	TypeExtension = "x-forge-type"
	// TypeImportExtension is the import TypeExtension needs.
	TypeImportExtension = "x-forge-type-import"
)

// maxAliasDepth bounds how far references to non-model entries are followed.
const maxAliasDepth = 32

// Lookup finds a registry entry by name.
type Lookup func(name string) (*model.Schema, bool)

// Mapper maps schema nodes for one configuration. Results are memoized per
// node, so a Mapper must only be used with one frozen model.
type Mapper struct {
	cfg    Config
	lookup Lookup

	mu   sync.Mutex
	memo map[memoKey]result
}

type memoKey struct {
	node     *model.Schema
	field    bool
	required bool
}

type result struct {
	expr    TypeExpr
	imports ImportSet
	err     error
}

func New(cfg Config, lookup Lookup) *Mapper {
	if cfg.Namer == nil {
		cfg.Namer = naming.ForLanguage(cfg.Language)
	}
	if cfg.Nullable == "" {
		cfg.Nullable = NullableMarker
	}
	return &Mapper{
		cfg:    cfg,
		lookup: lookup,
		memo:   make(map[memoKey]result),
	}
}

func (m *Mapper) Config() Config {
	return m.cfg
}

func (m *Mapper) Namer() *naming.Namer {
	return m.cfg.Namer
}

// Map returns the type of s where a value is always present. It is nullable
// only when s itself is.
func (m *Mapper) Map(s *model.Schema) (TypeExpr, ImportSet, error) {
	return m.memoized(memoKey{node: s}, func() (TypeExpr, ImportSet, error) {
		expr, imports, err := m.mapNode(s, 0)
		if err != nil {
			return TypeExpr{}, nil, err
		}
		if expr.Nullable {
			expr = m.decorate(expr, imports, false)
		}
		return expr, imports, nil
	})
}

// MapField returns the type of a property or parameter. Optional values use
// the nullable convention as well.
func (m *Mapper) MapField(s *model.Schema, required bool) (TypeExpr, ImportSet, error) {
	return m.memoized(memoKey{node: s, field: true, required: required}, func() (TypeExpr, ImportSet, error) {
		expr, imports, err := m.mapNode(s, 0)
		if err != nil {
			return TypeExpr{}, nil, err
		}
		if expr.Nullable || !required {
			expr.Nullable = true
			expr = m.decorate(expr, imports, false)
		}
		return expr, imports, nil
	})
}

func (m *Mapper) memoized(key memoKey, compute func() (TypeExpr, ImportSet, error)) (TypeExpr, ImportSet, error) {
	m.mu.Lock()
	r, ok := m.memo[key]
	m.mu.Unlock()
	if !ok {
		expr, imports, err := compute()
		r = result{expr: expr, imports: imports, err: err}
		m.mu.Lock()
		m.memo[key] = r
		m.mu.Unlock()
	}
	return r.expr, r.imports.Clone(), r.err
}

// ModelName is the type name a registry entry is generated under.
func (m *Mapper) ModelName(name string) string {
	if mapped, ok := m.cfg.SchemaMappings[name]; ok {
		expr, _, _ := m.external(mapped)
		return expr.Base
	}
	return m.cfg.Namer.Type(name)
}

// IsModel reports whether a registry entry is generated as its own type.
// Other entries are aliases for the type they describe.
func IsModel(s *model.Schema) bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case model.KindObject:
		return len(s.Properties) > 0
	case model.KindEnum:
		return true
	case model.KindComposed:
		return !s.IsWrapper()
	}
	return false
}

// Generated reports whether a registry entry produces a model artifact.
func (m *Mapper) Generated(name string, s *model.Schema) bool {
	if _, mapped := m.cfg.SchemaMappings[name]; mapped {
		return false
	}
	return IsModel(s)
}

func (m *Mapper) mapNode(s *model.Schema, depth int) (TypeExpr, ImportSet, error) {
	imports := make(ImportSet)
	if s == nil {
		return m.simple(m.cfg.Any, imports), imports, nil
	}
	if t := s.Extension(TypeExtension); t != "" {
		imports.Add(s.Extension(TypeImportExtension))
		return TypeExpr{Name: t, Base: t, Nullable: s.Nullable}, imports, nil
	}

	var expr TypeExpr
	switch s.Kind {
	case model.KindReference:
		return m.mapRef(s.Ref, depth)
	case model.KindBoolean:
		if s.Allow {
			expr = m.simple(m.cfg.Any, imports)
		} else {
			expr = m.simple(m.cfg.Void, imports)
		}
	case model.KindPrimitive, model.KindEnum:
		expr = m.primitive(s, imports)
	case model.KindArray:
		item, itemImports, err := m.element(s.Items, depth)
		if err != nil {
			return TypeExpr{}, nil, err
		}
		imports.Merge(itemImports)
		format, container, importKey := m.cfg.List, ContainerList, "List"
		if s.Constraints.UniqueItems {
			format, container, importKey = m.cfg.Set, ContainerSet, "Set"
		}
		imports.Add(m.cfg.Imports[importKey])
		name := fmt.Sprintf(format, item.Name)
		expr = TypeExpr{Name: name, Base: name, Container: container, Item: &item}
	case model.KindObject:
		switch {
		case s.AdditionalProperties != nil:
			value, valueImports, err := m.element(s.AdditionalProperties, depth)
			if err != nil {
				return TypeExpr{}, nil, err
			}
			imports.Merge(valueImports)
			imports.Add(m.cfg.Imports["Map"])
			name := fmt.Sprintf(m.cfg.Map, value.Name)
			expr = TypeExpr{Name: name, Base: name, Container: ContainerMap, Item: &value}
		case len(s.Properties) == 0:
			imports.Add(m.cfg.Imports["Map"])
			expr = TypeExpr{Name: m.cfg.FreeMap, Base: m.cfg.FreeMap, Container: ContainerMap}
		default:
			expr = m.simple(m.cfg.Any, imports)
		}
	case model.KindComposed:
		if s.Composition == model.AllOf && len(s.Members) == 1 && len(s.Properties) == 0 {
			inner, innerImports, err := m.mapNode(s.Members[0], depth)
			if err != nil {
				return TypeExpr{}, nil, err
			}
			inner.Nullable = inner.Nullable || s.Nullable
			return inner, innerImports, nil
		}
		expr = m.simple(m.cfg.Any, imports)
	default:
		expr = m.simple(m.cfg.Any, imports)
	}
	expr.Nullable = s.Nullable
	return expr, imports, nil
}

// element maps a container element, applying only the union convention to
// nullable elements.
func (m *Mapper) element(s *model.Schema, depth int) (TypeExpr, ImportSet, error) {
	expr, imports, err := m.mapNode(s, depth)
	if err != nil {
		return TypeExpr{}, nil, err
	}
	if expr.Nullable {
		expr = m.decorate(expr, imports, true)
	}
	return expr, imports, nil
}

func (m *Mapper) mapRef(name string, depth int) (TypeExpr, ImportSet, error) {
	if mapped, ok := m.cfg.SchemaMappings[name]; ok {
		return m.external(mapped)
	}
	target, ok := m.lookup(name)
	if !ok {
		return TypeExpr{}, nil, fmt.Errorf("%w: %q", diag.ErrUnresolvedReference, name)
	}
	if IsModel(target) {
		typeName := m.cfg.Namer.Type(name)
		imports := make(ImportSet)
		if m.cfg.ModelPackage != "" {
			imports.Add(m.cfg.ModelPackage + "." + typeName)
		}
		return TypeExpr{Name: typeName, Base: typeName, Model: name}, imports, nil
	}
	if depth >= maxAliasDepth {
		imports := make(ImportSet)
		return m.simple(m.cfg.Any, imports), imports, nil
	}
	return m.mapNode(target, depth+1)
}

// external maps a fully qualified type from schema or type mappings.
func (m *Mapper) external(qualified string) (TypeExpr, ImportSet, error) {
	imports := make(ImportSet)
	i := strings.LastIndex(qualified, ".")
	if i <= 0 {
		imports.Add(m.cfg.ImportMappings[qualified], m.cfg.Imports[qualified])
		return TypeExpr{Name: qualified, Base: qualified}, imports, nil
	}
	pkg, typeName := qualified[:i], qualified[i+1:]
	if m.cfg.Language == "go" {
		imports.Add(pkg)
		typeName = path.Base(pkg) + "." + typeName
	} else {
		imports.Add(qualified)
	}
	return TypeExpr{Name: typeName, Base: typeName}, imports, nil
}

func (m *Mapper) primitive(s *model.Schema, imports ImportSet) TypeExpr {
	typ := string(s.Type)
	key := typ
	if s.Format != "" {
		key = typ + ":" + s.Format
	}
	for _, k := range []string{key, s.Format, typ} {
		if k == "" {
			continue
		}
		if mapped, ok := m.cfg.TypeMappings[k]; ok {
			expr, extra, _ := m.external(mapped)
			imports.Merge(extra)
			return expr
		}
	}

	name, ok := m.cfg.Primitives[key]
	if !ok {
		name, ok = m.cfg.Primitives[typ]
	}
	if !ok {
		name = m.cfg.Any
	}
	if key == "string:date-time" && m.cfg.Language != "go" {
		if lib, ok := javaDateTime[m.cfg.DateTime]; ok {
			name = lib
		}
	}
	return m.simple(name, imports)
}

func (m *Mapper) simple(name string, imports ImportSet) TypeExpr {
	if imp, ok := m.cfg.ImportMappings[name]; ok {
		imports.Add(imp)
	} else {
		imports.Add(m.cfg.Imports[name])
	}
	return TypeExpr{Name: name, Base: name}
}

func (m *Mapper) nilable(expr TypeExpr) bool {
	if !m.cfg.ContainersNilable {
		return false
	}
	return expr.Container != ContainerNone ||
		expr.Base == m.cfg.Any ||
		strings.HasPrefix(expr.Base, "[]") ||
		strings.HasPrefix(expr.Base, "map[")
}

// decorate applies the nullable convention. Nested types only take the union
// form; wrappers and markers belong on declarations.
func (m *Mapper) decorate(expr TypeExpr, imports ImportSet, nested bool) TypeExpr {
	expr.Nullable = true
	if m.nilable(expr) {
		return expr
	}
	switch {
	case m.cfg.Nullable == NullableUnion:
		expr.Name = fmt.Sprintf(m.cfg.UnionFormat, expr.Base)
	case nested:
	case m.cfg.Nullable == NullableWrapper:
		expr.Name = fmt.Sprintf(m.cfg.WrapperFormat, expr.Base)
		imports.Add(m.cfg.WrapperImport)
	default:
		expr.Name = fmt.Sprintf(m.cfg.MarkerFormat, expr.Base)
		if m.cfg.MarkerAnnotation != "" {
			expr.Annotations = append(expr.Annotations, m.cfg.MarkerAnnotation)
			imports.Add(m.cfg.MarkerImport)
		}
	}
	return expr
}
