package emit

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/format"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/typemap"
)

type fakeTemplates struct {
	fail Kind
}

func (f fakeTemplates) Template(kind Kind) (Template, error) {
	return fakeTemplate{kind: kind, fail: f.fail == kind}, nil
}

type fakeTemplate struct {
	kind Kind
	fail bool
}

func (t fakeTemplate) Render(view any) (string, error) {
	if t.fail {
		return "", errors.New("boom")
	}
	switch v := view.(type) {
	case ModelView:
		return fmt.Sprintf("package %s\n\n// %s %s\n", v.Package, t.kind, v.Name), nil
	case APIView:
		return fmt.Sprintf("package %s\n\n// %s %s\n", v.Package, t.kind, v.Name), nil
	}
	return "", fmt.Errorf("unexpected view %T", view)
}

func prim(t model.SchemaType, format string) *model.Schema {
	return &model.Schema{Kind: model.KindPrimitive, Type: t, Format: format}
}

func object(props ...model.Property) *model.Schema {
	return &model.Schema{Kind: model.KindObject, Type: model.TypeObject, Properties: props}
}

func petstore(opts model.Options, extra ...model.NamedSchema) *model.GenerationModel {
	schemas := []model.NamedSchema{
		{Name: "Pet", Schema: object(
			model.Property{Name: "id", Schema: prim(model.TypeInteger, "int64"), Required: true},
			model.Property{Name: "name", Schema: prim(model.TypeString, ""), Required: true},
			model.Property{Name: "tag", Schema: prim(model.TypeString, "")},
		)},
		{Name: "Status", Schema: &model.Schema{Kind: model.KindEnum, Type: model.TypeString, Enum: []any{"available", "sold"}}},
	}
	schemas = append(schemas, extra...)
	spec := &model.Spec{Operations: []model.Operation{
		{
			ID:     "getPetById",
			Method: model.MethodGet,
			Path:   "/pets/{pet-id}",
			Group:  "pets",
			Parameters: []model.Parameter{
				{Name: "pet-id", In: model.LocationPath, Required: true, Schema: prim(model.TypeInteger, "int64")},
				{Name: "verbose", In: model.LocationQuery, Schema: prim(model.TypeBoolean, "")},
			},
			Responses: []model.Response{{
				StatusCode: "200",
				Content:    []model.MediaTypeContent{{MediaType: "application/json", Schema: model.NewRef("Pet")}},
			}},
		},
		{
			ID:     "addPet",
			Method: model.MethodPost,
			Path:   "/pets",
			Group:  "pets",
			RequestBody: &model.RequestBody{
				Required: true,
				Content:  []model.MediaTypeContent{{MediaType: "application/json", Schema: model.NewRef("Pet")}},
			},
			Responses: []model.Response{{StatusCode: "201"}},
		},
		{
			ID:      "petAdopted",
			Method:  model.MethodPost,
			Path:    "petAdopted",
			Group:   "pets",
			Webhook: true,
		},
	}}
	return model.Freeze(spec, schemas, nil, opts)
}

func newEmitter(t *testing.T, gm *model.GenerationModel, templates TemplateSet) *Emitter {
	t.Helper()
	language := gm.Options.Language
	cfg := typemap.ForLanguage(language)
	cfg.ModelPackage = NewLayout(language, gm.Options.Package).ModelPackage()
	mapper := typemap.New(cfg, gm.Lookup)
	formatter, err := format.New(format.Options{Language: language})
	require.NoError(t, err)
	return New(mapper, formatter, templates, Options{Workers: 4})
}

func viewAt[V any](t *testing.T, artifacts []artifact, path string) V {
	t.Helper()
	for _, a := range artifacts {
		if a.path == path {
			v, ok := a.view.(V)
			require.True(t, ok, "view of %s is %T", path, a.view)
			return v
		}
	}
	t.Fatalf("no artifact at %s", path)
	var zero V
	return zero
}

func TestEmitPaths(t *testing.T) {
	tests := []struct {
		name string
		opts model.Options
		want []string
	}{
		{
			name: "java defaults",
			opts: model.Options{Language: "java", Package: "com.example"},
			want: []string{
				"src/main/java/com/example/api/PetsClient.java",
				"src/main/java/com/example/model/Pet.java",
				"src/main/java/com/example/model/Status.java",
			},
		},
		{
			name: "java everything with spock",
			opts: model.Options{
				Language:      "java",
				Package:       "com.example",
				Outputs:       []string{"models", "client", "server", "tests"},
				TestFramework: "spock",
			},
			want: []string{
				"src/main/java/com/example/api/PetsApi.java",
				"src/main/java/com/example/api/PetsClient.java",
				"src/main/java/com/example/model/Pet.java",
				"src/main/java/com/example/model/Status.java",
				"src/test/groovy/com/example/api/PetsApiSpec.groovy",
				"src/test/groovy/com/example/model/PetSpec.groovy",
			},
		},
		{
			name: "kotlin server and tests",
			opts: model.Options{
				Language: "kotlin",
				Package:  "com.example",
				Outputs:  []string{"server", "tests"},
			},
			want: []string{
				"src/main/kotlin/com/example/api/PetsApi.kt",
				"src/test/kotlin/com/example/api/PetsApiTest.kt",
			},
		},
		{
			name: "go",
			opts: model.Options{
				Language: "go",
				Package:  "github.com/acme/petstore",
				Outputs:  []string{"models", "client", "server", "tests"},
			},
			want: []string{
				"api_pets_server_test.go",
				"model_pet.go",
				"model_pet_test.go",
				"model_status.go",
				"pets_client.go",
				"pets_server.go",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := petstore(tt.opts)
			out, err := newEmitter(t, gm, fakeTemplates{}).Emit(context.Background(), gm)
			require.NoError(t, err)
			require.Equal(t, tt.want, slices.Sorted(maps.Keys(out)))
		})
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	opts := model.Options{Language: "java", Package: "com.example", Outputs: []string{"models", "client", "server", "tests"}}
	gm := petstore(opts)
	first, err := newEmitter(t, gm, fakeTemplates{}).Emit(context.Background(), gm)
	require.NoError(t, err)

	for range 5 {
		gm := petstore(opts)
		again, err := newEmitter(t, gm, fakeTemplates{}).Emit(context.Background(), gm)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestEmitIsAllOrNothing(t *testing.T) {
	gm := petstore(model.Options{Language: "java", Package: "com.example"})
	out, err := newEmitter(t, gm, fakeTemplates{fail: KindEnum}).Emit(context.Background(), gm)
	require.ErrorContains(t, err, "boom")
	require.ErrorContains(t, err, "Status.java")
	require.Nil(t, out)
}

func TestEmitHonorsCancellation(t *testing.T) {
	gm := petstore(model.Options{Language: "java", Package: "com.example"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := newEmitter(t, gm, fakeTemplates{}).Emit(ctx, gm)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, out)
}

func TestModelView(t *testing.T) {
	gm := petstore(model.Options{Language: "java", Package: "com.example"})
	artifacts, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
	require.NoError(t, err)

	pet := viewAt[ModelView](t, artifacts, "src/main/java/com/example/model/Pet.java")
	require.Equal(t, "Pet", pet.Name)
	require.Equal(t, "com.example.model", pet.Package)
	require.Equal(t, []string{"@Serdeable"}, pet.ClassAnnotations)
	require.Equal(t, []string{
		"com.fasterxml.jackson.annotation.JsonProperty",
		"io.micronaut.serde.annotation.Serdeable",
		"jakarta.annotation.Nullable",
	}, pet.Imports)
	require.Len(t, pet.Properties, 3)

	id := pet.Properties[0]
	require.Equal(t, "id", id.Field)
	require.Equal(t, "getId", id.Getter)
	require.Equal(t, "setId", id.Setter)
	require.Equal(t, "Long", id.Type)
	require.True(t, id.Required)
	require.Equal(t, []string{`@JsonProperty("id")`}, id.Annotations)

	tag := pet.Properties[2]
	require.Equal(t, "String", tag.Type)
	require.True(t, tag.Nullable)
	require.Equal(t, []string{`@JsonProperty("tag")`, "@Nullable"}, tag.Annotations)

	status := viewAt[ModelView](t, artifacts, "src/main/java/com/example/model/Status.java")
	require.Equal(t, "String", status.EnumType)
	require.Len(t, status.Cases, 2)
	require.Equal(t, "AVAILABLE", status.Cases[0].Name)
	require.Equal(t, `"available"`, status.Cases[0].Literal)
}

func TestAPIView(t *testing.T) {
	gm := petstore(model.Options{Language: "java", Package: "com.example"})
	artifacts, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
	require.NoError(t, err)

	client := viewAt[APIView](t, artifacts, "src/main/java/com/example/api/PetsClient.java")
	require.Equal(t, "com.example.api", client.Package)
	require.Equal(t, "pets", client.Group)
	require.Equal(t, []string{
		"com.example.model.Pet",
		"io.micronaut.http.annotation.Body",
		"io.micronaut.http.annotation.Consumes",
		"io.micronaut.http.annotation.Get",
		"io.micronaut.http.annotation.PathVariable",
		"io.micronaut.http.annotation.Post",
		"io.micronaut.http.annotation.Produces",
		"io.micronaut.http.annotation.QueryValue",
		"io.micronaut.http.client.annotation.Client",
		"jakarta.annotation.Nullable",
	}, client.Imports)
	require.Len(t, client.Operations, 2, "webhooks get no API methods")

	get := client.Operations[0]
	require.Equal(t, "getPetById", get.Name)
	require.Equal(t, "Get", get.Verb)
	require.Equal(t, "Pet", get.Result)
	require.True(t, get.HasResult)
	require.Equal(t, "/pets/{petId}", get.Pattern)
	require.Equal(t, "/pets/{pet-id}", get.Path)
	require.Len(t, get.Params, 2)
	require.Equal(t, "petId", get.Params[0].Var)
	require.Equal(t, "Long", get.Params[0].Type)
	require.Equal(t, `@PathVariable("pet-id")`, get.Params[0].Annotation)
	require.Equal(t, `@QueryValue("verbose")`, get.Params[1].Annotation)
	require.Equal(t, []string{"@Nullable"}, get.Params[1].Annotations)

	add := client.Operations[1]
	require.Equal(t, "void", add.Result)
	require.False(t, add.HasResult)
	require.Equal(t, 201, add.Status)
	require.NotNil(t, add.Body)
	require.Equal(t, "Pet", add.Body.Type)
	require.Equal(t, "application/json", add.Body.MediaType)
}

func TestGoParamConversions(t *testing.T) {
	gm := petstore(model.Options{Language: "go", Package: "petstore", Outputs: []string{"server"}})
	artifacts, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
	require.NoError(t, err)

	server := viewAt[APIView](t, artifacts, "pets_server.go")
	require.Equal(t, "PetsServer", server.Name)
	require.Equal(t, "petstore", server.Package)

	get := server.Operations[0]
	require.Equal(t, "GetPetByID", get.Name)
	require.Equal(t, "/pets/{petID}", get.Pattern)
	require.Equal(t, "int", get.Params[0].Conv)
	require.False(t, get.Params[0].Pointer)
	require.Equal(t, "bool", get.Params[1].Conv)
	require.True(t, get.Params[1].Pointer)
	require.Equal(t, "*bool", get.Params[1].Type)
	require.Equal(t, "", server.Operations[1].Result)
}

func TestSortParamsByRequired(t *testing.T) {
	gm := petstore(model.Options{Language: "java", Package: "com.example"})
	gm.Operations[0].Parameters = []model.Parameter{
		{Name: "verbose", In: model.LocationQuery, Schema: prim(model.TypeBoolean, "")},
		{Name: "pet-id", In: model.LocationPath, Required: true, Schema: prim(model.TypeInteger, "int64")},
	}
	e := newEmitter(t, gm, fakeTemplates{})
	e.sortReq = true
	artifacts, err := e.plan(gm)
	require.NoError(t, err)

	client := viewAt[APIView](t, artifacts, "src/main/java/com/example/api/PetsClient.java")
	require.Equal(t, "petId", client.Operations[0].Params[0].Var)
	require.Equal(t, "verbose", client.Operations[0].Params[1].Var)
}

func polymorphicPets() []model.NamedSchema {
	petType := model.Property{Name: "petType", Schema: prim(model.TypeString, ""), Required: true}
	return []model.NamedSchema{
		{Name: "Animal", Schema: &model.Schema{
			Kind:        model.KindComposed,
			Composition: model.OneOf,
			Members:     []*model.Schema{model.NewRef("Cat"), model.NewRef("Dog")},
			Discriminator: &model.Discriminator{
				PropertyName: "petType",
				Resolved: []model.DiscriminatorMapping{
					{Value: "cat", Ref: "Cat"},
					{Value: "dog", Ref: "Dog"},
				},
			},
		}},
		{Name: "Cat", Schema: object(petType, model.Property{Name: "lives", Schema: prim(model.TypeInteger, "")})},
		{Name: "Dog", Schema: object(petType, model.Property{Name: "bark", Schema: prim(model.TypeBoolean, "")})},
		{Name: "Vehicle", Schema: object(
			model.Property{Name: "kind", Schema: prim(model.TypeString, ""), Required: true},
		)},
		{Name: "Car", Schema: &model.Schema{
			Kind:        model.KindComposed,
			Composition: model.AllOf,
			Members: []*model.Schema{
				model.NewRef("Vehicle"),
				object(model.Property{Name: "doors", Schema: prim(model.TypeInteger, "")}),
			},
		}},
	}
}

func withVehicleDiscriminator(schemas []model.NamedSchema) []model.NamedSchema {
	for _, ns := range schemas {
		if ns.Name == "Vehicle" {
			ns.Schema.Discriminator = &model.Discriminator{
				PropertyName: "kind",
				Resolved:     []model.DiscriminatorMapping{{Value: "Car", Ref: "Car"}},
			}
		}
	}
	return schemas
}

func TestUnionViews(t *testing.T) {
	gm := petstore(model.Options{Language: "kotlin", Package: "com.example"}, withVehicleDiscriminator(polymorphicPets())...)
	artifacts, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
	require.NoError(t, err)

	kinds := make(map[string]Kind)
	for _, a := range artifacts {
		kinds[a.path] = a.kind
	}
	base := "src/main/kotlin/com/example/model/"
	require.Equal(t, KindUnion, kinds[base+"Animal.kt"])
	require.Equal(t, KindUnion, kinds[base+"Vehicle.kt"])
	require.Equal(t, KindModel, kinds[base+"Car.kt"])

	animal := viewAt[ModelView](t, artifacts, base+"Animal.kt")
	require.Equal(t, []MemberView{
		{Type: "Cat", Model: true, Method: "AsCat"},
		{Type: "Dog", Model: true, Method: "AsDog"},
	}, animal.Members)
	require.Equal(t, "petType", animal.Discriminator.Property)
	require.Equal(t, []MappingView{{Value: "cat", Type: "Cat"}, {Value: "dog", Type: "Dog"}}, animal.Discriminator.Mapping)

	cat := viewAt[ModelView](t, artifacts, base+"Cat.kt")
	require.Equal(t, []string{"Animal"}, cat.Interfaces)

	vehicle := viewAt[ModelView](t, artifacts, base+"Vehicle.kt")
	require.Len(t, vehicle.Properties, 1)
	require.Equal(t, []MemberView{{Type: "Car", Model: true, Method: "AsCar"}}, vehicle.Members)

	car := viewAt[ModelView](t, artifacts, base+"Car.kt")
	require.Equal(t, []string{"Vehicle"}, car.Interfaces)
	require.Len(t, car.Properties, 2)
	require.Equal(t, "kind", car.Properties[0].Name)
	require.True(t, car.Properties[0].Override)
	require.False(t, car.Properties[1].Override)
}

func TestGoPolymorphicBaseIsStruct(t *testing.T) {
	gm := petstore(model.Options{Language: "go", Package: "petstore"}, withVehicleDiscriminator(polymorphicPets())...)
	artifacts, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
	require.NoError(t, err)

	for _, a := range artifacts {
		switch a.path {
		case "model_vehicle.go":
			require.Equal(t, KindModel, a.kind)
		case "model_animal.go":
			require.Equal(t, KindUnion, a.kind)
		case "model_cat.go":
			require.Empty(t, a.view.(ModelView).Interfaces)
		}
	}
}

func TestPlanAggregatesIssues(t *testing.T) {
	gm := petstore(model.Options{Language: "java", Package: "com.example"},
		model.NamedSchema{Name: "Level", Schema: &model.Schema{Kind: model.KindEnum, Type: model.TypeString, Enum: []any{"A", "a"}}},
		model.NamedSchema{Name: "Broken", Schema: object(model.Property{Name: "owner", Schema: model.NewRef("Missing")})},
	)
	_, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
	require.Error(t, err)

	var report diag.Report
	require.ErrorAs(t, err, &report)
	require.True(t, report.Has(diag.ErrEnumValueCollision))
	require.True(t, report.Has(diag.ErrUnresolvedReference))
	require.ErrorIs(t, err, diag.ErrEnumValueCollision)
}

func TestDefaults(t *testing.T) {
	withDefaults := object(
		model.Property{Name: "limit", Schema: &model.Schema{Kind: model.KindPrimitive, Type: model.TypeInteger, Format: "int64", Default: int64(20)}},
		model.Property{Name: "ratio", Schema: &model.Schema{Kind: model.KindPrimitive, Type: model.TypeNumber, Format: "double", Default: float64(2)}},
		model.Property{Name: "status", Schema: &model.Schema{Kind: model.KindReference, Ref: "Status", Default: "sold"}},
		model.Property{Name: "label", Schema: &model.Schema{Kind: model.KindPrimitive, Type: model.TypeString, Default: int64(3)}},
	)
	tests := []struct {
		language string
		path     string
		want     []string
	}{
		{"java", "src/main/java/com/example/model/Page.java", []string{"20L", "2d", "Status.SOLD", ""}},
		{"kotlin", "src/main/kotlin/com/example/model/Page.kt", []string{"20L", "2.0", "Status.SOLD", ""}},
		{"go", "model_page.go", []string{"20", "2", "StatusSold", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			gm := petstore(model.Options{Language: tt.language, Package: "com.example"},
				model.NamedSchema{Name: "Page", Schema: withDefaults})
			artifacts, err := newEmitter(t, gm, fakeTemplates{}).plan(gm)
			require.NoError(t, err)

			page := viewAt[ModelView](t, artifacts, tt.path)
			var got []string
			for _, p := range page.Properties {
				got = append(got, p.Default)
			}
			require.Equal(t, tt.want, got)
		})
	}
}
