package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/kolah/schemaforge/internal/naming"
	"github.com/kolah/schemaforge/internal/normalize"
	"github.com/kolah/schemaforge/internal/typemap"
)

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "schemaforge.yaml"

type Config struct {
	Inputs               []string       `koanf:"inputs"`
	OutputDir            string         `koanf:"output-dir"`
	Language             string         `koanf:"language"`
	Package              string         `koanf:"package"`
	Outputs              []string       `koanf:"outputs"`
	TestFramework        string         `koanf:"test-framework"`
	Serialization        string         `koanf:"serialization"`
	DuplicatePolicy      string         `koanf:"duplicate-policy"`
	DateTime             string         `koanf:"date-time"`
	Nullable             string         `koanf:"nullable"`
	ValidateDocuments    bool           `koanf:"validate"`
	SortParamsByRequired bool           `koanf:"sort-params-by-required"`
	Workers              int            `koanf:"workers"`
	Naming               NamingConfig   `koanf:"naming"`
	Format               FormatConfig   `koanf:"format"`
	Mappings             MappingConfig  `koanf:"mappings"`
	Templates            TemplateConfig `koanf:"templates"`
}

type NamingConfig struct {
	ModelPrefix string `koanf:"model-prefix"`
	ModelSuffix string `koanf:"model-suffix"`
	// OperationPrefixDelimiter and OperationPrefixCount strip leading
	// segments from operation ids, e.g. "pets.getPet" with "." and 1.
	OperationPrefixDelimiter string   `koanf:"operation-prefix-delimiter"`
	OperationPrefixCount     int      `koanf:"operation-prefix-count"`
	Initialisms              []string `koanf:"initialisms"`
	// Case overrides of the language's identifier conventions, e.g. "snake".
	PropertyCase string `koanf:"property-case"`
	MethodCase   string `koanf:"method-case"`
	ConstantCase string `koanf:"constant-case"`
}

type FormatConfig struct {
	Indent                  string `koanf:"indent"`
	ColumnBudget            int    `koanf:"column-budget"`
	ContinuationLevels      int    `koanf:"continuation-levels"`
	SubstitutionPattern     string `koanf:"substitution-pattern"`
	SubstitutionReplacement string `koanf:"substitution-replacement"`
}

// MappingConfig overrides the built-in type tables. Types is keyed by
// "type" or "type:format", Imports by type name and Schemas by schema name.
type MappingConfig struct {
	Types   map[string]string `koanf:"types"`
	Imports map[string]string `koanf:"imports"`
	Schemas map[string]string `koanf:"schemas"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

// BindCommonFlags binds language-agnostic flags to the generate command
func BindCommonFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: schemaforge.yaml)")
	flags.StringSliceP("input", "i", nil, "Input documents, merged in order")
	flags.StringP("output-dir", "o", "", "Output directory")
	flags.StringP("package", "p", "", "Base package of generated code")
	flags.StringSlice("outputs", nil, "Outputs: models, client, server, tests")
	flags.String("test-framework", "", "Test framework for generated tests")
	flags.String("serialization", "", "Serialization library")
	flags.String("duplicate-policy", "", "Duplicate schema policy: fail, first, last")
	flags.String("templates", "", "Custom templates directory")
	flags.Int("workers", 0, "Concurrent renderers (default: number of CPUs)")
	flags.Int("column-budget", 0, "Line width generated code is wrapped at")
	flags.Bool("validate", false, "Validate OpenAPI documents before generating")
	flags.Bool("sort-params-by-required", false, "List required parameters first")
	flags.Bool("dry-run", false, "Print output without writing files")
	flags.BoolP("verbose", "v", false, "Log pipeline progress")
}

func Load(cmd *cobra.Command, language string) (*Config, error) {
	k := koanf.New(".")

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// The subcommand decides the language.
	if language != "" {
		cfg.Language = language
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getStringSlice := func(name string) []string {
		if v, err := cmd.Flags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		if v, err := cmd.PersistentFlags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		return nil
	}

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getInt := func(name string) int {
		if v, err := cmd.Flags().GetInt(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetInt(name); err == nil {
			return v
		}
		return 0
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	stringFlags := map[string]string{
		"output-dir":       "output-dir",
		"package":          "package",
		"test-framework":   "test-framework",
		"serialization":    "serialization",
		"duplicate-policy": "duplicate-policy",
		"templates":        "templates.dir",
		"date-time":        "date-time",
		"nullable":         "nullable",
	}
	for flag, key := range stringFlags {
		if v := getString(flag); v != "" {
			m[key] = v
		}
	}

	if v := getStringSlice("input"); len(v) > 0 {
		m["inputs"] = v
	}
	if v := getStringSlice("outputs"); len(v) > 0 {
		m["outputs"] = v
	}
	if v := getStringSlice("initialisms"); len(v) > 0 {
		m["naming.initialisms"] = v
	}

	if flagChanged("workers") {
		m["workers"] = getInt("workers")
	}
	if flagChanged("column-budget") {
		m["format.column-budget"] = getInt("column-budget")
	}
	if flagChanged("validate") {
		m["validate"] = getBool("validate")
	}
	if flagChanged("sort-params-by-required") {
		m["sort-params-by-required"] = getBool("sort-params-by-required")
	}

	return m
}

var (
	validLanguages  = []string{"java", "kotlin", "go"}
	validOutputs    = []string{"models", "client", "server", "tests"}
	validFrameworks = map[string][]string{
		"java":   {"junit", "spock"},
		"kotlin": {"junit", "kotest"},
		"go":     {"testing"},
	}
	languageSerializations = map[string][]typemap.Serialization{
		"java":   {typemap.SerializationJackson, typemap.SerializationMicronautSerde},
		"kotlin": {typemap.SerializationJackson, typemap.SerializationMicronautSerde},
		"go":     {typemap.SerializationJSON, typemap.SerializationJSONYAML},
	}
	languageNullable = map[string][]typemap.NullableConvention{
		"java":   {typemap.NullableMarker, typemap.NullableWrapper},
		"kotlin": {typemap.NullableUnion, typemap.NullableWrapper},
		"go":     {typemap.NullableMarker},
	}
)

func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("at least one input document is required")
	}
	if c.Package == "" {
		return fmt.Errorf("package name is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if !slices.Contains(validLanguages, c.Language) {
		return invalid("language", c.Language, validLanguages)
	}
	for _, o := range c.Outputs {
		if !slices.Contains(validOutputs, o) {
			return invalid("output", o, validOutputs)
		}
	}
	if c.TestFramework != "" && !slices.Contains(validFrameworks[c.Language], c.TestFramework) {
		return invalid("test framework", c.TestFramework, validFrameworks[c.Language])
	}
	if err := oneOf("serialization", typemap.Serialization(c.Serialization), languageSerializations[c.Language]); err != nil {
		return err
	}
	if err := oneOf("nullable convention", typemap.NullableConvention(c.Nullable), languageNullable[c.Language]); err != nil {
		return err
	}
	if err := oneOf("duplicate policy", normalize.DuplicatePolicy(c.DuplicatePolicy), normalize.DuplicatePolicies); err != nil {
		return err
	}
	if err := oneOf("date-time library", typemap.DateTimeLibrary(c.DateTime), typemap.DateTimeLibraries); err != nil {
		return err
	}
	if err := c.validateCases(); err != nil {
		return err
	}

	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must not be negative)", c.Workers)
	}
	if c.Format.ColumnBudget < 0 {
		return fmt.Errorf("invalid column budget: %d (must not be negative)", c.Format.ColumnBudget)
	}
	if c.Naming.OperationPrefixCount < 0 {
		return fmt.Errorf("invalid operation prefix count: %d (must not be negative)", c.Naming.OperationPrefixCount)
	}

	return nil
}

// validateCases checks the identifier case overrides. Go fields and methods
// must stay exported, so only Pascal case is accepted for them.
func (c *Config) validateCases() error {
	exported := naming.Cases
	if c.Language == "go" {
		exported = []naming.Case{naming.CasePascal}
	}
	if err := oneOf("property case", naming.Case(c.Naming.PropertyCase), exported); err != nil {
		return err
	}
	if err := oneOf("method case", naming.Case(c.Naming.MethodCase), exported); err != nil {
		return err
	}
	return oneOf("constant case", naming.Case(c.Naming.ConstantCase), naming.Cases)
}

type validator interface {
	~string
	Valid() bool
}

// oneOf accepts value if it is empty, or known and listed in allowed.
func oneOf[T validator](what string, value T, allowed []T) error {
	if value == "" || value.Valid() && slices.Contains(allowed, value) {
		return nil
	}
	names := make([]string, len(allowed))
	for i, v := range allowed {
		names[i] = string(v)
	}
	return invalid(what, string(value), names)
}

func invalid(what, value string, valid []string) error {
	return fmt.Errorf("invalid %s: %s (valid: %s)", what, value, strings.Join(valid, ", "))
}
