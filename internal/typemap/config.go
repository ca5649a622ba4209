package typemap

import (
	"maps"
	"slices"

	"github.com/kolah/schemaforge/internal/naming"
)

// NullableConvention controls how a nullable or optional type is spelled.
type NullableConvention string

const (
	// NullableWrapper wraps the type, e.g. Optional<Pet>.
	NullableWrapper NullableConvention = "wrapper"
	// NullableMarker marks the type, e.g. *Pet or @Nullable Pet.
	NullableMarker NullableConvention = "marker"
	// NullableUnion unions the type with none, e.g. Pet?.
	NullableUnion NullableConvention = "union"
)

var NullableConventions = []NullableConvention{NullableMarker, NullableWrapper, NullableUnion}

func (c NullableConvention) Valid() bool {
	return slices.Contains(NullableConventions, c)
}

type DateTimeLibrary string

const (
	DateTimeOffset DateTimeLibrary = "offset"
	DateTimeZoned  DateTimeLibrary = "zoned"
	DateTimeLocal  DateTimeLibrary = "local"
)

var DateTimeLibraries = []DateTimeLibrary{DateTimeOffset, DateTimeZoned, DateTimeLocal}

func (d DateTimeLibrary) Valid() bool {
	return slices.Contains(DateTimeLibraries, d)
}

// Config is everything the mapper needs to know about a target language.
type Config struct {
	Language string

	// Primitives maps "type:format" or "type" to a type name.
	Primitives map[string]string
	// Imports maps a type name to the import it needs.
	Imports map[string]string

	List    string
	Set     string
	Map     string
	Any     string
	Void    string
	FreeMap string

	// ContainersNilable reports whether containers and Any already admit
	// null, so the nullable convention is not applied to them.
	ContainersNilable bool

	Nullable         NullableConvention
	WrapperFormat    string
	WrapperImport    string
	MarkerFormat     string
	MarkerAnnotation string
	MarkerImport     string
	UnionFormat      string

	DateTime      DateTimeLibrary
	Serialization Serialization

	// ModelPackage is imported for references to generated models.
	ModelPackage string

	TypeMappings   map[string]string
	ImportMappings map[string]string
	SchemaMappings map[string]string

	Namer *naming.Namer
}

var javaDateTime = map[DateTimeLibrary]string{
	DateTimeOffset: "OffsetDateTime",
	DateTimeZoned:  "ZonedDateTime",
	DateTimeLocal:  "LocalDateTime",
}

var javaTimeImports = map[string]string{
	"OffsetDateTime": "java.time.OffsetDateTime",
	"ZonedDateTime":  "java.time.ZonedDateTime",
	"LocalDateTime":  "java.time.LocalDateTime",
	"LocalDate":      "java.time.LocalDate",
	"LocalTime":      "java.time.LocalTime",
}

func Java() Config {
	return Config{
		Language: "java",
		Primitives: map[string]string{
			"string":           "String",
			"string:date":      "LocalDate",
			"string:time":      "LocalTime",
			"string:uuid":      "UUID",
			"string:uri":       "URI",
			"string:byte":      "byte[]",
			"string:binary":    "byte[]",
			"integer":          "Integer",
			"integer:int32":    "Integer",
			"integer:int64":    "Long",
			"number":           "BigDecimal",
			"number:float":     "Float",
			"number:double":    "Double",
			"boolean":          "Boolean",
			"string:date-time": "OffsetDateTime",
		},
		Imports: mergeImports(javaTimeImports, map[string]string{
			"UUID":       "java.util.UUID",
			"URI":        "java.net.URI",
			"BigDecimal": "java.math.BigDecimal",
			"List":       "java.util.List",
			"Set":        "java.util.Set",
			"Map":        "java.util.Map",
		}),
		List:             "List<%s>",
		Set:              "Set<%s>",
		Map:              "Map<String, %s>",
		Any:              "Object",
		Void:             "Void",
		FreeMap:          "Map<String, Object>",
		Nullable:         NullableMarker,
		WrapperFormat:    "Optional<%s>",
		WrapperImport:    "java.util.Optional",
		MarkerFormat:     "%s",
		MarkerAnnotation: "@Nullable",
		MarkerImport:     "jakarta.annotation.Nullable",
		UnionFormat:      "%s",
		DateTime:         DateTimeOffset,
		Serialization:    SerializationMicronautSerde,
		Namer:            naming.JavaNamer(),
	}
}

func Kotlin() Config {
	return Config{
		Language: "kotlin",
		Primitives: map[string]string{
			"string":           "String",
			"string:date":      "LocalDate",
			"string:time":      "LocalTime",
			"string:uuid":      "UUID",
			"string:uri":       "URI",
			"string:byte":      "ByteArray",
			"string:binary":    "ByteArray",
			"integer":          "Int",
			"integer:int32":    "Int",
			"integer:int64":    "Long",
			"number":           "BigDecimal",
			"number:float":     "Float",
			"number:double":    "Double",
			"boolean":          "Boolean",
			"string:date-time": "OffsetDateTime",
		},
		Imports: mergeImports(javaTimeImports, map[string]string{
			"UUID":       "java.util.UUID",
			"URI":        "java.net.URI",
			"BigDecimal": "java.math.BigDecimal",
		}),
		List:          "List<%s>",
		Set:           "Set<%s>",
		Map:           "Map<String, %s>",
		Any:           "Any",
		Void:          "Unit",
		FreeMap:       "Map<String, Any>",
		Nullable:      NullableUnion,
		WrapperFormat: "Optional<%s>",
		WrapperImport: "java.util.Optional",
		MarkerFormat:  "%s",
		UnionFormat:   "%s?",
		DateTime:      DateTimeOffset,
		Serialization: SerializationMicronautSerde,
		Namer:         naming.KotlinNamer(),
	}
}

func Go() Config {
	return Config{
		Language: "go",
		Primitives: map[string]string{
			"string":           "string",
			"string:date":      "time.Time",
			"string:date-time": "time.Time",
			"string:byte":      "[]byte",
			"string:binary":    "[]byte",
			"integer":          "int",
			"integer:int32":    "int32",
			"integer:int64":    "int64",
			"number":           "float64",
			"number:float":     "float32",
			"number:double":    "float64",
			"boolean":          "bool",
		},
		Imports: map[string]string{
			"time.Time": "time",
		},
		List:              "[]%s",
		Set:               "[]%s",
		Map:               "map[string]%s",
		Any:               "any",
		Void:              "struct{}",
		FreeMap:           "map[string]any",
		ContainersNilable: true,
		Nullable:          NullableMarker,
		WrapperFormat:     "*%s",
		MarkerFormat:      "*%s",
		UnionFormat:       "*%s",
		DateTime:          DateTimeOffset,
		Serialization:     SerializationJSON,
		Namer:             naming.GoNamer(),
	}
}

// ForLanguage returns the preset for a target language.
func ForLanguage(language string) Config {
	switch language {
	case "kotlin":
		return Kotlin()
	case "go":
		return Go()
	default:
		return Java()
	}
}

func mergeImports(tables ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, t := range tables {
		maps.Copy(out, t)
	}
	return out
}
