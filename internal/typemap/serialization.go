package typemap

import (
	"fmt"
	"slices"
	"strings"
)

// Serialization selects the library generated models are serialized with.
type Serialization string

const (
	SerializationJackson        Serialization = "jackson"
	SerializationMicronautSerde Serialization = "micronaut-serde"
	SerializationJSON           Serialization = "json"
	SerializationJSONYAML       Serialization = "json-yaml"
)

var Serializations = []Serialization{
	SerializationJackson, SerializationMicronautSerde, SerializationJSON, SerializationJSONYAML,
}

func (s Serialization) Valid() bool {
	return slices.Contains(Serializations, s)
}

// Profile lists what a serialization library adds to generated models.
type Profile struct {
	ClassAnnotations   []string
	PropertyAnnotation string
	Imports            []string
	// Tags are struct tag keys for languages that use tags.
	Tags []string
}

func (s Serialization) Profile() Profile {
	switch s {
	case SerializationJackson:
		return Profile{
			ClassAnnotations:   []string{"@JsonInclude(JsonInclude.Include.NON_NULL)"},
			PropertyAnnotation: "@JsonProperty(%q)",
			Imports: []string{
				"com.fasterxml.jackson.annotation.JsonInclude",
				"com.fasterxml.jackson.annotation.JsonProperty",
			},
		}
	case SerializationMicronautSerde:
		return Profile{
			ClassAnnotations:   []string{"@Serdeable"},
			PropertyAnnotation: "@JsonProperty(%q)",
			Imports: []string{
				"com.fasterxml.jackson.annotation.JsonProperty",
				"io.micronaut.serde.annotation.Serdeable",
			},
		}
	case SerializationJSONYAML:
		return Profile{Tags: []string{"json", "yaml"}}
	default:
		return Profile{Tags: []string{"json"}}
	}
}

// Annotation renders the property annotation for a wire name, or "".
func (p Profile) Annotation(wireName string) string {
	if p.PropertyAnnotation == "" {
		return ""
	}
	return fmt.Sprintf(p.PropertyAnnotation, wireName)
}

// Tag renders a struct tag such as `json:"id,omitempty"`, or "".
func (p Profile) Tag(wireName string, required bool) string {
	if len(p.Tags) == 0 {
		return ""
	}
	value := wireName
	if !required {
		value += ",omitempty"
	}
	parts := make([]string, len(p.Tags))
	for i, key := range p.Tags {
		parts[i] = fmt.Sprintf("%s:%q", key, value)
	}
	return "`" + strings.Join(parts, " ") + "`"
}
