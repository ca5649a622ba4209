package typemap

import (
	"testing"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/stretchr/testify/require"
)

func lookupIn(entries map[string]*model.Schema) Lookup {
	return func(name string) (*model.Schema, bool) {
		s, ok := entries[name]
		return s, ok
	}
}

func prim(t model.SchemaType, format string) *model.Schema {
	return &model.Schema{Kind: model.KindPrimitive, Type: t, Format: format}
}

func array(items *model.Schema) *model.Schema {
	return &model.Schema{Kind: model.KindArray, Type: model.TypeArray, Items: items}
}

var registryFixture = map[string]*model.Schema{
	"Pet": {Kind: model.KindObject, Type: model.TypeObject, Properties: []model.Property{
		{Name: "id", Schema: prim(model.TypeInteger, "int64"), Required: true},
	}},
	"PetId":  prim(model.TypeString, "uuid"),
	"Status": {Kind: model.KindEnum, Type: model.TypeString, Enum: []any{"a"}},
	"PetRef": {Kind: model.KindComposed, Composition: model.AllOf, Members: []*model.Schema{model.NewRef("Pet")}},
}

func TestMapPrimitives(t *testing.T) {
	tests := []struct {
		name   string
		schema *model.Schema
		java   string
		kotlin string
		golang string
	}{
		{"string", prim(model.TypeString, ""), "String", "String", "string"},
		{"uuid", prim(model.TypeString, "uuid"), "UUID", "UUID", "string"},
		{"date", prim(model.TypeString, "date"), "LocalDate", "LocalDate", "time.Time"},
		{"date-time", prim(model.TypeString, "date-time"), "OffsetDateTime", "OffsetDateTime", "time.Time"},
		{"binary", prim(model.TypeString, "binary"), "byte[]", "ByteArray", "[]byte"},
		{"integer", prim(model.TypeInteger, ""), "Integer", "Int", "int"},
		{"int64", prim(model.TypeInteger, "int64"), "Long", "Long", "int64"},
		{"number", prim(model.TypeNumber, ""), "BigDecimal", "BigDecimal", "float64"},
		{"float", prim(model.TypeNumber, "float"), "Float", "Float", "float32"},
		{"boolean", prim(model.TypeBoolean, ""), "Boolean", "Boolean", "bool"},
		{"unknown format", prim(model.TypeString, "email"), "String", "String", "string"},
		{"true schema", &model.Schema{Kind: model.KindBoolean, Allow: true}, "Object", "Any", "any"},
		{"false schema", &model.Schema{Kind: model.KindBoolean}, "Void", "Unit", "struct{}"},
		{"array", array(prim(model.TypeString, "")), "List<String>", "List<String>", "[]string"},
		{"set", &model.Schema{Kind: model.KindArray, Items: prim(model.TypeInteger, ""), Constraints: model.Constraints{UniqueItems: true}}, "Set<Integer>", "Set<Int>", "[]int"},
		{"map", &model.Schema{Kind: model.KindObject, AdditionalProperties: prim(model.TypeBoolean, "")}, "Map<String, Boolean>", "Map<String, Boolean>", "map[string]bool"},
		{"free form", &model.Schema{Kind: model.KindObject}, "Map<String, Object>", "Map<String, Any>", "map[string]any"},
		{"model ref", model.NewRef("Pet"), "Pet", "Pet", "Pet"},
		{"alias ref", model.NewRef("PetId"), "UUID", "UUID", "string"},
		{"wrapper ref", model.NewRef("PetRef"), "Pet", "Pet", "Pet"},
		{"array of models", array(model.NewRef("Pet")), "List<Pet>", "List<Pet>", "[]Pet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for lang, want := range map[string]string{"java": tt.java, "kotlin": tt.kotlin, "go": tt.golang} {
				m := New(ForLanguage(lang), lookupIn(registryFixture))
				expr, _, err := m.Map(tt.schema)
				require.NoError(t, err)
				require.Equal(t, want, expr.Name, lang)
			}
		})
	}
}

func TestMapImports(t *testing.T) {
	cfg := Java()
	cfg.ModelPackage = "com.example.model"
	m := New(cfg, lookupIn(registryFixture))

	expr, imports, err := m.Map(&model.Schema{Kind: model.KindObject, AdditionalProperties: array(model.NewRef("Pet"))})
	require.NoError(t, err)
	require.Equal(t, "Map<String, List<Pet>>", expr.Name)
	require.Equal(t, []string{"com.example.model.Pet", "java.util.List", "java.util.Map"}, imports.Sorted())
	require.Equal(t, []string{"Pet"}, expr.Models())

	_, imports, err = m.Map(prim(model.TypeString, "date-time"))
	require.NoError(t, err)
	require.Equal(t, []string{"java.time.OffsetDateTime"}, imports.Sorted())
}

func TestNullableConventions(t *testing.T) {
	nullable := &model.Schema{Kind: model.KindPrimitive, Type: model.TypeString, Nullable: true}

	java := New(Java(), lookupIn(registryFixture))
	expr, imports, err := java.Map(nullable)
	require.NoError(t, err)
	require.Equal(t, "String", expr.Name)
	require.Equal(t, []string{"@Nullable"}, expr.Annotations)
	require.True(t, imports["jakarta.annotation.Nullable"])

	wrapped := Java()
	wrapped.Nullable = NullableWrapper
	expr, imports, err = New(wrapped, lookupIn(registryFixture)).MapField(prim(model.TypeInteger, ""), false)
	require.NoError(t, err)
	require.Equal(t, "Optional<Integer>", expr.Name)
	require.True(t, imports["java.util.Optional"])

	kotlin := New(Kotlin(), lookupIn(registryFixture))
	expr, _, err = kotlin.MapField(model.NewRef("Pet"), false)
	require.NoError(t, err)
	require.Equal(t, "Pet?", expr.Name)
	expr, _, err = kotlin.Map(array(nullable))
	require.NoError(t, err)
	require.Equal(t, "List<String?>", expr.Name)

	golang := New(Go(), lookupIn(registryFixture))
	expr, _, err = golang.MapField(prim(model.TypeString, ""), false)
	require.NoError(t, err)
	require.Equal(t, "*string", expr.Name)
	expr, _, err = golang.MapField(array(prim(model.TypeString, "")), false)
	require.NoError(t, err)
	require.Equal(t, "[]string", expr.Name)
	expr, _, err = golang.MapField(prim(model.TypeString, ""), true)
	require.NoError(t, err)
	require.Equal(t, "string", expr.Name)
}

func TestNullableWrapperNode(t *testing.T) {
	wrapper := &model.Schema{Kind: model.KindComposed, Composition: model.AllOf, Nullable: true, Members: []*model.Schema{model.NewRef("Pet")}}
	expr, _, err := New(Kotlin(), lookupIn(registryFixture)).Map(wrapper)
	require.NoError(t, err)
	require.Equal(t, "Pet?", expr.Name)
	require.Equal(t, "Pet", expr.Model)
}

func TestDateTimeLibrary(t *testing.T) {
	for lib, want := range map[DateTimeLibrary]string{
		DateTimeOffset: "OffsetDateTime",
		DateTimeZoned:  "ZonedDateTime",
		DateTimeLocal:  "LocalDateTime",
	} {
		cfg := Java()
		cfg.DateTime = lib
		expr, imports, err := New(cfg, lookupIn(registryFixture)).Map(prim(model.TypeString, "date-time"))
		require.NoError(t, err)
		require.Equal(t, want, expr.Name)
		require.True(t, imports["java.time."+want])
	}
}

func TestMappings(t *testing.T) {
	cfg := Java()
	cfg.TypeMappings = map[string]string{"string:uuid": "String", "date": "java.util.Date"}
	cfg.SchemaMappings = map[string]string{"Pet": "com.acme.shared.Pet"}
	m := New(cfg, lookupIn(registryFixture))

	expr, _, err := m.Map(prim(model.TypeString, "uuid"))
	require.NoError(t, err)
	require.Equal(t, "String", expr.Name)

	expr, imports, err := m.Map(prim(model.TypeString, "date"))
	require.NoError(t, err)
	require.Equal(t, "Date", expr.Name)
	require.True(t, imports["java.util.Date"])

	expr, imports, err = m.Map(model.NewRef("Pet"))
	require.NoError(t, err)
	require.Equal(t, "Pet", expr.Name)
	require.True(t, imports["com.acme.shared.Pet"])
	require.False(t, m.Generated("Pet", registryFixture["Pet"]))
	require.True(t, m.Generated("Status", registryFixture["Status"]))
	require.False(t, m.Generated("PetId", registryFixture["PetId"]))

	golang := Go()
	golang.SchemaMappings = map[string]string{"Pet": "github.com/acme/shared.Pet"}
	expr, imports, err = New(golang, lookupIn(registryFixture)).Map(model.NewRef("Pet"))
	require.NoError(t, err)
	require.Equal(t, "shared.Pet", expr.Name)
	require.True(t, imports["github.com/acme/shared"])
}

func TestTypeExtension(t *testing.T) {
	s := prim(model.TypeString, "")
	s.Extensions = map[string]any{TypeExtension: "Money", TypeImportExtension: "org.javamoney.Money"}
	expr, imports, err := New(Java(), lookupIn(registryFixture)).Map(s)
	require.NoError(t, err)
	require.Equal(t, "Money", expr.Name)
	require.True(t, imports["org.javamoney.Money"])
}

func TestUnresolvedReference(t *testing.T) {
	_, _, err := New(Java(), lookupIn(registryFixture)).Map(model.NewRef("Missing"))
	require.ErrorIs(t, err, diag.ErrUnresolvedReference)
}

func TestMapIsMemoized(t *testing.T) {
	m := New(Java(), lookupIn(registryFixture))
	s := array(prim(model.TypeString, ""))
	_, first, err := m.Map(s)
	require.NoError(t, err)
	first.Add("mutated")

	_, second, err := m.Map(s)
	require.NoError(t, err)
	require.False(t, second["mutated"])
	require.Len(t, m.memo, 1)
}

func TestImportSetWithout(t *testing.T) {
	imports := NewImportSet("com.example.model.Pet", "com.example.model.sub.Tag", "java.util.List")
	require.Equal(t, []string{"com.example.model.sub.Tag", "java.util.List"}, imports.Without("com.example.model").Sorted())
}
