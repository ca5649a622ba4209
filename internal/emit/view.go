package emit

import "github.com/kolah/schemaforge/internal/typemap"

// ModelView is everything a model, enum or union template renders.
type ModelView struct {
	Language    string
	Package     string
	Imports     []string
	Name        string
	Schema      string
	Description string
	Deprecated  bool

	ClassAnnotations []string
	// Interfaces are the unions and polymorphic bases the model belongs to.
	Interfaces []string
	Properties []PropertyView

	// EnumType is the type of the enum values.
	EnumType string
	Cases    []typemap.EnumCase

	Discriminator *DiscriminatorView
	Members       []MemberView
}

type PropertyView struct {
	Name        string
	Field       string
	Getter      string
	Setter      string
	Type        string
	BaseType    string
	Required    bool
	Nullable    bool
	Annotations []string
	// Tag is the struct tag for languages that use them.
	Tag         string
	Description string
	Default     string
	// Override marks properties declared by an interface the model implements.
	Override   bool
	ReadOnly   bool
	WriteOnly  bool
	Deprecated bool
}

type DiscriminatorView struct {
	Property string
	Field    string
	Getter   string
	Mapping  []MappingView
}

type MappingView struct {
	Value string
	Type  string
}

type MemberView struct {
	Type  string
	Model bool
	// Method is the accessor suffix for the member, e.g. AsDog.
	Method string
}

// APIView is one operation group rendered as a client or server.
type APIView struct {
	Language   string
	Package    string
	Imports    []string
	Name       string
	Group      string
	Operations []OperationView
}

type OperationView struct {
	ID          string
	Name        string
	Method      string
	// Verb is the method in title case, e.g. Get.
	Verb        string
	Path        string
	// Pattern is Path with wildcards renamed to their variables.
	Pattern     string
	Summary     string
	Description string
	Deprecated  bool
	Params      []ParamView
	Body        *BodyView
	Result      string
	HasResult   bool
	Status      int
	Produces    string
	Security    []string
}

type ParamView struct {
	Name        string
	Var         string
	In          string
	Type        string
	BaseType    string
	Required    bool
	Annotation  string
	Annotations []string
	Description string
	// Conv is how the value is converted from and to text: string, int,
	// float, bool, time or json.
	Conv    string
	Pointer bool
}

type BodyView struct {
	Var         string
	Type        string
	MediaType   string
	Required    bool
	Annotations []string
}
