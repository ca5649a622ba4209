package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/rawgraph"
)

func TestLoadOpenAPI30(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "petstore30.yaml"), Options{})
	require.NoError(t, err)

	require.Equal(t, rawgraph.OAS30, doc.Dialect)
	require.Equal(t, filepath.Join("testdata", "petstore30.yaml"), doc.Source)
	require.Equal(t, "Petstore", doc.Info.Title)
	require.Equal(t, []rawgraph.Server{{URL: "https://petstore.example.com/v1"}}, doc.Servers)
	require.Equal(t, []rawgraph.Tag{{Name: "pets", Description: "Pet operations"}}, doc.Tags)

	require.Len(t, doc.Schemas, 2)
	require.Equal(t, "Pet", doc.Schemas[0].Name)
	require.Equal(t, "Status", doc.Schemas[1].Name)

	pet := doc.Schemas[0].Schema
	require.Equal(t, rawgraph.Types{"object"}, pet.Types)
	require.Equal(t, []string{"id", "name"}, pet.Required)
	require.Equal(t, []rawgraph.Extension{{Key: "x-forge-name", Value: "Animal"}}, pet.Extensions)

	names := make([]string, 0, len(pet.Properties))
	for _, p := range pet.Properties {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"id", "name", "status", "tags", "attributes"}, names)

	id := pet.Properties[0].Schema
	require.Equal(t, 0.0, *id.Minimum)
	require.NotNil(t, id.ExclusiveMinimum)
	require.NotNil(t, id.ExclusiveMinimum.Flag)
	require.True(t, *id.ExclusiveMinimum.Flag)

	name := pet.Properties[1].Schema
	require.NotNil(t, name.Nullable)
	require.True(t, *name.Nullable)
	require.Equal(t, int64(64), *name.MaxLength)

	require.Equal(t, "#/components/schemas/Status", pet.Properties[2].Schema.Ref)
	require.Equal(t, rawgraph.Types{"string"}, pet.Properties[3].Schema.Items.Types)

	attributes := pet.Properties[4].Schema
	require.NotNil(t, attributes.AdditionalProperties)
	require.NotNil(t, attributes.AdditionalProperties.Bool)
	require.True(t, *attributes.AdditionalProperties.Bool)

	status := doc.Schemas[1].Schema
	require.Equal(t, []any{"available", "sold"}, status.Enum)
	require.Equal(t, "available", status.Default)
}

func TestLoadOperations(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "petstore30.yaml"), Options{})
	require.NoError(t, err)

	require.Len(t, doc.Operations, 2)

	get := doc.Operations[0]
	require.Equal(t, "getPetById", get.ID)
	require.Equal(t, "get", get.Method)
	require.Equal(t, "/pets/{id}", get.Path)
	require.Equal(t, []string{"pets"}, get.Tags)

	// Operation parameters precede the shared ones they override.
	require.Len(t, get.Parameters, 3)
	require.Equal(t, "X-Trace", get.Parameters[0].Name)
	require.True(t, get.Parameters[0].Required)
	require.Equal(t, "id", get.Parameters[1].Name)
	require.Equal(t, "path", get.Parameters[1].In)
	require.Equal(t, "X-Trace", get.Parameters[2].Name)
	require.False(t, get.Parameters[2].Required)

	require.Len(t, get.Responses, 2)
	require.Equal(t, "200", get.Responses[0].Status)
	require.Equal(t, "404", get.Responses[1].Status)
	require.Equal(t, "application/json", get.Responses[0].Content[0].Name)
	require.Equal(t, "#/components/schemas/Pet", get.Responses[0].Content[0].Schema.Ref)

	post := doc.Operations[1]
	require.Empty(t, post.ID)
	require.Equal(t, "post", post.Method)
	require.NotNil(t, post.RequestBody)
	require.True(t, post.RequestBody.Required)
	require.Equal(t, "#/components/schemas/Pet", post.RequestBody.Content[0].Schema.Ref)

	require.Len(t, doc.Security, 1)
	require.Equal(t, "apiKey", doc.Security[0].Name)
	require.Empty(t, doc.Security[0].Scopes)
	require.Equal(t, []rawgraph.SecurityScheme{{Name: "apiKey", Type: "apiKey", In: "header"}}, doc.SecuritySchemes)
}

func TestLoadOpenAPI31(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "petstore31.yaml"), Options{})
	require.NoError(t, err)

	require.Equal(t, rawgraph.OAS31, doc.Dialect)
	require.Empty(t, doc.Operations)

	pet := doc.Schemas[0].Schema
	id := pet.Properties[0].Schema
	require.Equal(t, rawgraph.Types{"integer", "null"}, id.Types)
	require.NotNil(t, id.ExclusiveMinimum)
	require.Nil(t, id.ExclusiveMinimum.Flag)
	require.Equal(t, 0.0, *id.ExclusiveMinimum.Value)

	kind := pet.Properties[1].Schema
	require.True(t, kind.HasConst)
	require.Equal(t, "dog", kind.Const)

	require.Equal(t, []any{1, 2, 3}, pet.Properties[2].Schema.Enum)

	require.NotNil(t, pet.Discriminator)
	require.Equal(t, "kind", pet.Discriminator.PropertyName)
	require.Equal(t, rawgraph.Mapping{{Value: "dog", Ref: "#/components/schemas/Pet"}}, pet.Discriminator.Mapping)

	require.Len(t, doc.Webhooks, 1)
	hook := doc.Webhooks[0]
	require.Equal(t, "petAdopted", hook.ID)
	require.Equal(t, "petAdopted", hook.Path)
	require.Equal(t, "post", hook.Method)
}

func TestLoadRawGraph(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "graph.yaml"), Options{})
	require.NoError(t, err)

	require.Equal(t, rawgraph.OAS30, doc.Dialect)
	require.Equal(t, filepath.Join("testdata", "graph.yaml"), doc.Source)
	require.Equal(t, "Graph", doc.Info.Title)
	require.Len(t, doc.Schemas, 1)
	require.Equal(t, "Owner", doc.Schemas[0].Name)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		errContains string
	}{
		{
			name:        "unsupported version",
			data:        "swagger: \"2.0\"\ninfo:\n  title: Old\n  version: 1.0.0\npaths: {}\n",
			errContains: "",
		},
		{
			name:        "malformed yaml",
			data:        "openapi: [3.0\n",
			errContains: "parsing inline.yaml",
		},
		{
			name:        "unknown graph dialect",
			data:        "dialect: \"4.0\"\n",
			errContains: "unknown dialect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.data), "inline.yaml", t.TempDir(), Options{})
			require.Error(t, err)
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Options{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadValidates(t *testing.T) {
	path := filepath.Join("testdata", "invalid.yaml")

	_, err := Load(path, Options{Validate: true})
	require.Error(t, err)
	require.ErrorContains(t, err, "validating")
}

func TestLocalRef(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"#/components/schemas/Pet", "#/components/schemas/Pet"},
		{"common.yaml#/components/schemas/Error", "#/components/schemas/Error"},
		{"Pet", "Pet"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			require.Equal(t, tt.want, localRef(tt.ref))
		})
	}
}

func TestDanglingReferences(t *testing.T) {
	data := []byte(`
openapi: 3.1.0
components:
  schemas:
    Pet:
      properties:
        owner:
          $ref: "#/components/schemas/Missing"
        self:
          $ref: "#/components/schemas/Pet"
        shared:
          $ref: "common.yaml#/components/schemas/Tag"
`)
	err := danglingReferences(data, "pets.yaml")
	require.ErrorIs(t, err, diag.ErrUnresolvedReference)

	var report diag.Report
	require.ErrorAs(t, err, &report)
	require.Len(t, report, 1)
	require.Equal(t, "Missing", report[0].Subject)
	require.Equal(t, "document pets.yaml, line 8", report[0].Path)

	require.NoError(t, danglingReferences([]byte("openapi: 3.1.0\n"), "empty.yaml"))
}
