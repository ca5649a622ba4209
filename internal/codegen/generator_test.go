package codegen

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/schemaforge/internal/config"
	"github.com/kolah/schemaforge/internal/diag"
)

func generate(t *testing.T, cfg *config.Config) map[string]string {
	t.Helper()
	gen, err := New(cfg, nil)
	require.NoError(t, err)
	docs, err := gen.Load()
	require.NoError(t, err)
	out, err := gen.Generate(context.Background(), docs...)
	require.NoError(t, err)
	return out
}

func petsConfig(language, input string) *config.Config {
	return &config.Config{
		Inputs:    []string{filepath.Join("testdata", input)},
		OutputDir: "out",
		Language:  language,
		Package:   "com.example",
	}
}

func TestGenerateJava(t *testing.T) {
	out := generate(t, petsConfig("java", "pets.yaml"))

	require.Equal(t, []string{
		"src/main/java/com/example/api/DefaultClient.java",
		"src/main/java/com/example/model/Pet.java",
	}, slices.Sorted(maps.Keys(out)))

	pet := out["src/main/java/com/example/model/Pet.java"]
	require.Contains(t, pet, "package com.example.model;")
	require.Contains(t, pet, "public class Pet {")
	require.Contains(t, pet, "private Integer id;")
	require.Contains(t, pet, "private String name;")
	require.Contains(t, pet, "private String tag;")
	require.Equal(t, 1, strings.Count(pet, "@Nullable\n"), "only tag is nullable")

	client := out["src/main/java/com/example/api/DefaultClient.java"]
	require.Contains(t, client, "package com.example.api;")
	require.Equal(t, 1, strings.Count(client, "import com.example.model.Pet;"))
	require.Contains(t, client, `@Get("/pets/{id}")`)
	require.Contains(t, client, "Pet getPetById(")
	require.Contains(t, client, "import io.micronaut.http.annotation.Produces;")
	require.NotContains(t, client, "Consumes")
}

func TestGenerateGo(t *testing.T) {
	cfg := petsConfig("go", "pets.yaml")
	cfg.Package = "github.com/acme/pets"
	out := generate(t, cfg)

	require.Equal(t, []string{"default_client.go", "model_pet.go"}, slices.Sorted(maps.Keys(out)))

	pet := out["model_pet.go"]
	require.Contains(t, pet, "package pets")
	require.Contains(t, pet, "type Pet struct {")
	require.Contains(t, pet, `json:"tag,omitempty"`)

	client := out["default_client.go"]
	require.Contains(t, client, "func (c *DefaultClient) GetPetByID(ctx context.Context")
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := petsConfig("kotlin", "pets.yaml")
	cfg.Outputs = []string{"models", "client", "server", "tests"}

	first := generate(t, cfg)
	for range 5 {
		require.Equal(t, first, generate(t, cfg))
	}
}

func TestGenerateDialectsAgree(t *testing.T) {
	older := generate(t, petsConfig("java", "pets.yaml"))
	newer := generate(t, petsConfig("java", "pets31.yaml"))
	require.Equal(t, older, newer)
}

func TestGenerateStopsOnIssues(t *testing.T) {
	gen, err := New(petsConfig("java", "broken.yaml"), nil)
	require.NoError(t, err)
	docs, err := gen.Load()
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), docs...)
	require.Nil(t, out)
	require.ErrorIs(t, err, diag.ErrUnresolvedReference)
	require.ErrorIs(t, err, diag.ErrUnresolvedDiscriminatorMapping)

	var report diag.Report
	require.ErrorAs(t, err, &report)
}

func TestGenerateKeepsIdenticalSubtypes(t *testing.T) {
	out := generate(t, petsConfig("java", "pets_polymorphic.yaml"))

	pet := out["src/main/java/com/example/model/Pet.java"]
	for _, name := range []string{"Cat", "Dog", "Bird"} {
		require.Contains(t, pet, "@JsonSubTypes.Type(value = "+name+".class, name = \""+name+"\")")
		require.Contains(t, out, "src/main/java/com/example/model/"+name+".java")
	}
}

func TestGenerateReportsEnumCollisionsWithOtherIssues(t *testing.T) {
	gen, err := New(petsConfig("java", "collisions.yaml"), nil)
	require.NoError(t, err)
	docs, err := gen.Load()
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), docs...)
	require.ErrorIs(t, err, diag.ErrUnresolvedReference)
	require.ErrorIs(t, err, diag.ErrEnumValueCollision)

	var report diag.Report
	require.ErrorAs(t, err, &report)
	require.Len(t, report, 2)
}

func TestGenerateReportsDanglingOpenAPIReferences(t *testing.T) {
	gen, err := New(petsConfig("java", "dangling.yaml"), nil)
	require.NoError(t, err)

	docs, err := gen.Load()
	if err == nil {
		_, err = gen.Generate(context.Background(), docs...)
	}
	require.ErrorIs(t, err, diag.ErrUnresolvedReference)

	var report diag.Report
	require.ErrorAs(t, err, &report)
	var missing []string
	for _, issue := range report {
		missing = append(missing, issue.Subject)
	}
	require.ElementsMatch(t, []string{"Missing", "AlsoMissing"}, missing)
}

func TestGenerateDuplicatePolicy(t *testing.T) {
	cfg := petsConfig("java", "pets.yaml")
	cfg.Inputs = append(cfg.Inputs, filepath.Join("testdata", "pets_v2.yaml"))

	gen, err := New(cfg, nil)
	require.NoError(t, err)
	docs, err := gen.Load()
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), docs...)
	require.ErrorIs(t, err, diag.ErrNameCollision)

	cfg.DuplicatePolicy = "last"
	out := generate(t, cfg)
	require.Contains(t, out["src/main/java/com/example/model/Pet.java"], "private String nickname;")
}

func TestGenerateNamingOverrides(t *testing.T) {
	cfg := petsConfig("java", "pets.yaml")
	cfg.Naming.ModelSuffix = "Dto"
	cfg.Mappings.Types = map[string]string{"integer": "Long"}

	out := generate(t, cfg)

	pet, ok := out["src/main/java/com/example/model/PetDto.java"]
	require.True(t, ok)
	require.Contains(t, pet, "public class PetDto {")
	require.Contains(t, pet, "private Long id;")
	require.Contains(t, out["src/main/java/com/example/api/DefaultClient.java"], "import com.example.model.PetDto;")
}

func TestGenerateCaseOverrides(t *testing.T) {
	cfg := petsConfig("java", "pets.yaml")
	cfg.Naming.MethodCase = "snake"
	cfg.Naming.PropertyCase = "pascal"

	out := generate(t, cfg)

	require.Contains(t, out["src/main/java/com/example/api/DefaultClient.java"], "Pet get_pet_by_id(")
	require.Contains(t, out["src/main/java/com/example/model/Pet.java"], "private Integer Id;")
}

func TestNewRejectsBadSubstitution(t *testing.T) {
	cfg := petsConfig("java", "pets.yaml")
	cfg.Format.SubstitutionPattern = "("

	_, err := New(cfg, nil)
	require.ErrorContains(t, err, "creating formatter")
}
