package rawgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const graphYAML = `
dialect: "3.1"
info:
  title: Pets
  version: 1.0.0
schemas:
  Pet:
    type: object
    required: [name, id]
    properties:
      name:
        type: string
      id:
        type: [integer, "null"]
        format: int64
        exclusiveMinimum: 0
      extra: false
    additionalProperties: true
    x-forge-name: Animal
  Kind:
    const: dog
operations:
  - id: getPet
    method: get
    path: /pets/{id}
    security: []
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: integer
    responses:
      "200":
        description: ok
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Pet"
      default:
        description: error
`

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(graphYAML))
	require.NoError(t, err)

	require.Equal(t, OAS31, doc.Dialect)
	require.Equal(t, "Pets", doc.Info.Title)
	require.Len(t, doc.Schemas, 2)
	require.Equal(t, "Pet", doc.Schemas[0].Name)
	require.Equal(t, "Kind", doc.Schemas[1].Name)

	pet := doc.Schemas[0].Schema
	require.Equal(t, Types{"object"}, pet.Types)
	require.Equal(t, []string{"name", "id"}, pet.Required)
	require.Len(t, pet.Properties, 3)
	require.Equal(t, "name", pet.Properties[0].Name)
	require.Equal(t, "id", pet.Properties[1].Name)

	id := pet.Properties[1].Schema
	require.Equal(t, Types{"integer", "null"}, id.Types)
	require.NotNil(t, id.ExclusiveMinimum)
	require.Nil(t, id.ExclusiveMinimum.Flag)
	require.Equal(t, 0.0, *id.ExclusiveMinimum.Value)

	extra := pet.Properties[2].Schema
	require.NotNil(t, extra.Bool)
	require.False(t, *extra.Bool)

	require.NotNil(t, pet.AdditionalProperties.Bool)
	require.True(t, *pet.AdditionalProperties.Bool)
	require.Equal(t, []Extension{{Key: "x-forge-name", Value: "Animal"}}, pet.Extensions)

	kind := doc.Schemas[1].Schema
	require.True(t, kind.HasConst)
	require.Equal(t, "dog", kind.Const)

	require.Len(t, doc.Operations, 1)
	op := doc.Operations[0]
	require.True(t, op.SecurityDefined)
	require.Empty(t, op.Security)
	require.Len(t, op.Responses, 2)
	require.Equal(t, "200", op.Responses[0].Status)
	require.Equal(t, "default", op.Responses[1].Status)
	require.Equal(t, "#/components/schemas/Pet", op.Responses[0].Content[0].Schema.Ref)
	require.Equal(t, "application/json", op.Responses[0].Content[0].Name)
}

func TestDecodeBooleanBound(t *testing.T) {
	doc, err := Decode([]byte(`
dialect: "3.0"
schemas:
  Age:
    type: integer
    minimum: 0
    exclusiveMinimum: true
`))
	require.NoError(t, err)
	age := doc.Schemas[0].Schema
	require.NotNil(t, age.ExclusiveMinimum.Flag)
	require.True(t, *age.ExclusiveMinimum.Flag)
	require.Nil(t, age.ExclusiveMinimum.Value)
	require.Equal(t, 0.0, *age.Minimum)
}

func TestDecodeRejectsUnknownDialect(t *testing.T) {
	_, err := Decode([]byte("dialect: \"2.0\"\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown dialect")
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		version string
		want    Dialect
		wantErr bool
	}{
		{"3.0.3", OAS30, false},
		{"3.1.0", OAS31, false},
		{"3.2.0", OAS31, false},
		{"2.0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := DialectOf(tt.version)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
