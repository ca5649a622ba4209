// Package rawgraph holds schema graphs as they arrive from a document parser or
// an annotation scanner, before any dialect unification. Dialect-specific
// shapes (boolean exclusive bounds, nullable flags, type arrays, boolean
// schemas) only exist here.
package rawgraph

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	// OAS30 is the OpenAPI 3.0 schema dialect.
	OAS30 Dialect = "3.0"
	// OAS31 is the OpenAPI 3.1 / JSON Schema 2020-12 aligned dialect.
	OAS31 Dialect = "3.1"
)

// DialectOf maps an "openapi" version string to its schema dialect.
func DialectOf(version string) (Dialect, error) {
	switch {
	case strings.HasPrefix(version, "3.0"):
		return OAS30, nil
	case strings.HasPrefix(version, "3.1"), strings.HasPrefix(version, "3.2"):
		return OAS31, nil
	}
	return "", fmt.Errorf("unsupported OpenAPI version: %s (only 3.0 and 3.1 dialects supported)", version)
}

func (d Dialect) Valid() bool {
	return d == OAS30 || d == OAS31
}

type Document struct {
	Source          string                `yaml:"-"`
	Dialect         Dialect               `yaml:"dialect"`
	Info            Info                  `yaml:"info"`
	Servers         []Server              `yaml:"servers"`
	Tags            []Tag                 `yaml:"tags"`
	Schemas         NamedSchemas          `yaml:"schemas"`
	Operations      []Operation           `yaml:"operations"`
	Webhooks        []Operation           `yaml:"webhooks"`
	Security        []SecurityRequirement `yaml:"security"`
	SecuritySchemes []SecurityScheme      `yaml:"securitySchemes"`
}

type Info struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}

type Server struct {
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
}

type Tag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type SecurityScheme struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Description  string `yaml:"description"`
	In           string `yaml:"in"`
	Scheme       string `yaml:"scheme"`
	BearerFormat string `yaml:"bearerFormat"`
}

type SecurityRequirement struct {
	Name   string   `yaml:"name"`
	Scopes []string `yaml:"scopes"`
}

type NamedSchema struct {
	Name   string
	Schema *Schema
}

type NamedSchemas []NamedSchema

// Schema is a raw schema node. Exactly one of Ref, Bool or the definition
// fields is meaningful for well-formed input.
type Schema struct {
	Ref  string `yaml:"$ref"`
	Bool *bool  `yaml:"-"`

	Types       Types  `yaml:"type"`
	Nullable    *bool  `yaml:"nullable"`
	Format      string `yaml:"format"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	Properties           Properties `yaml:"properties"`
	Required             []string   `yaml:"required"`
	Items                *Schema    `yaml:"items"`
	AdditionalProperties *Schema    `yaml:"additionalProperties"`

	AllOf         []*Schema      `yaml:"allOf"`
	OneOf         []*Schema      `yaml:"oneOf"`
	AnyOf         []*Schema      `yaml:"anyOf"`
	Discriminator *Discriminator `yaml:"discriminator"`

	Enum     []any `yaml:"enum"`
	Const    any   `yaml:"-"`
	HasConst bool  `yaml:"-"`
	Default  any   `yaml:"default"`

	Minimum          *float64 `yaml:"minimum"`
	Maximum          *float64 `yaml:"maximum"`
	ExclusiveMinimum *Bound   `yaml:"exclusiveMinimum"`
	ExclusiveMaximum *Bound   `yaml:"exclusiveMaximum"`
	MultipleOf       *float64 `yaml:"multipleOf"`
	MinLength        *int64   `yaml:"minLength"`
	MaxLength        *int64   `yaml:"maxLength"`
	MinItems         *int64   `yaml:"minItems"`
	MaxItems         *int64   `yaml:"maxItems"`
	MinProperties    *int64   `yaml:"minProperties"`
	MaxProperties    *int64   `yaml:"maxProperties"`
	Pattern          string   `yaml:"pattern"`
	UniqueItems      bool     `yaml:"uniqueItems"`

	ReadOnly   bool  `yaml:"readOnly"`
	WriteOnly  bool  `yaml:"writeOnly"`
	Deprecated bool  `yaml:"deprecated"`
	Example    any   `yaml:"example"`
	Examples   []any `yaml:"examples"`

	Extensions []Extension `yaml:"-"`
}

// Bound is an exclusive bound: a boolean flag in 3.0, a number in 3.1.
type Bound struct {
	Flag  *bool
	Value *float64
}

func FlagBound(b bool) *Bound {
	return &Bound{Flag: &b}
}

func ValueBound(v float64) *Bound {
	return &Bound{Value: &v}
}

type Types []string

type Property struct {
	Name   string
	Schema *Schema
}

type Properties []Property

type Discriminator struct {
	PropertyName string  `yaml:"propertyName"`
	Mapping      Mapping `yaml:"mapping"`
}

type MappingEntry struct {
	Value string
	Ref   string
}

type Mapping []MappingEntry

type Extension struct {
	Key   string
	Value any
}

func BoolSchema(b bool) *Schema {
	return &Schema{Bool: &b}
}

type Operation struct {
	ID          string                `yaml:"id"`
	Method      string                `yaml:"method"`
	Path        string                `yaml:"path"`
	Summary     string                `yaml:"summary"`
	Description string                `yaml:"description"`
	Tags        []string              `yaml:"tags"`
	Deprecated  bool                  `yaml:"deprecated"`
	Parameters  []Parameter           `yaml:"parameters"`
	RequestBody *RequestBody          `yaml:"requestBody"`
	Responses   Responses             `yaml:"responses"`
	Security    []SecurityRequirement `yaml:"security"`
	// SecurityDefined distinguishes an explicit empty list from an absent one.
	SecurityDefined bool `yaml:"-"`
}

type Parameter struct {
	Name        string  `yaml:"name"`
	In          string  `yaml:"in"`
	Description string  `yaml:"description"`
	Required    bool    `yaml:"required"`
	Deprecated  bool    `yaml:"deprecated"`
	Style       string  `yaml:"style"`
	Explode     *bool   `yaml:"explode"`
	Schema      *Schema `yaml:"schema"`
}

type RequestBody struct {
	Description string   `yaml:"description"`
	Required    bool     `yaml:"required"`
	Content     Contents `yaml:"content"`
}

type MediaType struct {
	Name   string
	Schema *Schema
}

type Contents []MediaType

type Response struct {
	Status      string
	Description string   `yaml:"description"`
	Content     Contents `yaml:"content"`
	Headers     Headers  `yaml:"headers"`
}

type Responses []Response

type Header struct {
	Name        string
	Description string  `yaml:"description"`
	Required    bool    `yaml:"required"`
	Schema      *Schema `yaml:"schema"`
}

type Headers []Header
