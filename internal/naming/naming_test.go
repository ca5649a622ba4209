package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPascalCase(t *testing.T) {
	goInit := NewInitialisms(GoInitialisms...)
	tests := []struct {
		input       string
		initialisms Initialisms
		expected    string
	}{
		{"hello_world", nil, "HelloWorld"},
		{"hello-world", nil, "HelloWorld"},
		{"hello world", nil, "HelloWorld"},
		{"helloWorld", nil, "HelloWorld"},
		{"HelloWorld", nil, "HelloWorld"},
		{"api_key", goInit, "APIKey"},
		{"api_key", nil, "ApiKey"},
		{"user_id", goInit, "UserID"},
		{"http_url", goInit, "HTTPURL"},
		{"HTTPServer", goInit, "HTTPServer"},
		{"HTTPServer", nil, "HttpServer"},
		{"get_pets_by_id", goInit, "GetPetsByID"},
		{"", nil, ""},
		{"a", nil, "A"},
		{"ABC", nil, "Abc"},
		{"petId", goInit, "PetID"},
		{"card_cvv", goInit, "CardCVV"},
		{"pet.owner", nil, "PetOwner"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, PascalCase(tt.input, tt.initialisms))
		})
	}
}

func TestCamelCase(t *testing.T) {
	goInit := NewInitialisms(GoInitialisms...)
	tests := []struct {
		input       string
		initialisms Initialisms
		expected    string
	}{
		{"hello_world", nil, "helloWorld"},
		{"HelloWorld", nil, "helloWorld"},
		{"user_id", goInit, "userID"},
		{"user_id", nil, "userId"},
		{"json_data", goInit, "jsonData"},
		{"", nil, ""},
		{"a", nil, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, CamelCase(tt.input, tt.initialisms))
		})
	}
}

func TestSnakeAndScreamingCase(t *testing.T) {
	require.Equal(t, "hello_world", SnakeCase("helloWorld"))
	require.Equal(t, "http_server", SnakeCase("HTTPServer"))
	require.Equal(t, "PET_STORE", ScreamingSnakeCase("petStore"))
	require.Equal(t, "pet-store", KebabCase("PetStore"))
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"getPet_200_Response", "GetPet200Response"},
		{"owner_address", "OwnerAddress"},
		{"petID", "PetID"},
		{"Pet", "Pet"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, TypeName(tt.input))
		})
	}
}

func TestNamer(t *testing.T) {
	java := JavaNamer()
	require.Equal(t, "Pet", java.Type("pet"))
	require.Equal(t, "petId", java.Property("pet_id"))
	require.Equal(t, "_class", java.Property("class"))
	require.Equal(t, "_1stPlace", java.Property("1st_place"))
	require.Equal(t, "getPetById", java.Method("get_pet_by_id"))
	require.Equal(t, "getName", java.Getter("name", false))
	require.Equal(t, "isActive", java.Getter("active", true))
	require.Equal(t, "setName", java.Setter("name"))

	kotlin := KotlinNamer()
	require.Equal(t, "`in`", kotlin.Property("in"))

	golang := GoNamer()
	require.Equal(t, "PetID", golang.Property("pet_id"))
	require.Equal(t, "X3dModel", golang.Type("3d_model"))
	require.Equal(t, "petID", golang.Variable("pet_id"))
	require.Equal(t, "type_", golang.Variable("type"))
	require.Equal(t, "_class", java.Variable("class"))
	golang.PropertyCase = CaseCamel
	require.Equal(t, "type_", golang.Property("type"))
}

func TestNamerOptions(t *testing.T) {
	n := JavaNamer()
	n.ModelPrefix = "Api"
	n.ModelSuffix = "Dto"
	n.OperationPrefixDelimiter = "."
	n.OperationPrefixCount = 1
	n.Substitute = func(s string) string { return strings.ReplaceAll(s, "@", "at_") }

	require.Equal(t, "ApiPetDto", n.Type("pet"))
	require.Equal(t, "getPet", n.Method("pets.getPet"))
	require.Equal(t, "getPet", n.Method("getPet"))
	require.Equal(t, "atType", n.Property("@type"))
}

func TestApply(t *testing.T) {
	require.Equal(t, "PetStore", Apply(CasePascal, "pet_store", nil))
	require.Equal(t, "petStore", Apply(CaseCamel, "pet_store", nil))
	require.Equal(t, "pet_store", Apply(CaseSnake, "PetStore", nil))
	require.Equal(t, "PET_STORE", Apply(CaseScreamingSnake, "PetStore", nil))
	require.True(t, CaseKebab.Valid())
	require.False(t, Case("title").Valid())
}
