// Package loader reads input documents into raw schema graphs. OpenAPI
// documents go through libopenapi; files with a top-level "dialect" key are
// raw graphs and are decoded directly.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	"github.com/pb33f/libopenapi/datamodel"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/rawgraph"
)

type Options struct {
	// Validate checks OpenAPI documents against the OpenAPI schema before
	// transforming them.
	Validate bool
	Logger   *slog.Logger
}

// Load reads the document at path.
func Load(path string, opts Options) (*rawgraph.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	return LoadBytes(data, path, filepath.Dir(absPath), opts)
}

// LoadBytes reads a document held in memory. source names it in diagnostics
// and basePath anchors relative file references.
func LoadBytes(data []byte, source, basePath string, opts Options) (*rawgraph.Document, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	var probe struct {
		OpenAPI string `yaml:"openapi"`
		Dialect string `yaml:"dialect"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	if probe.Dialect != "" && probe.OpenAPI == "" {
		doc, err := rawgraph.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", source, err)
		}
		doc.Source = source
		opts.Logger.Debug("loaded schema graph",
			slog.String("source", source),
			slog.String("dialect", string(doc.Dialect)),
			slog.Int("schemas", len(doc.Schemas)))
		return doc, nil
	}

	config := &datamodel.DocumentConfiguration{
		BasePath:            basePath,
		AllowFileReferences: true,
	}
	return loadOpenAPI(data, source, config, opts)
}

func loadOpenAPI(data []byte, source string, config *datamodel.DocumentConfiguration, opts Options) (*rawgraph.Document, error) {
	doc, err := libopenapi.NewDocumentWithConfiguration(data, config)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document %s: %w", source, err)
	}

	version := doc.GetVersion()
	dialect, err := rawgraph.DialectOf(version)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}

	if opts.Validate {
		if err := validate(doc); err != nil {
			return nil, fmt.Errorf("validating %s: %w", source, err)
		}
	}

	// Dangling and circular references come back as errors next to a usable
	// model. Dangling ones surface later as unresolved references.
	model, err := doc.BuildV3Model()
	if model == nil {
		if dangling := danglingReferences(data, source); dangling != nil {
			return nil, dangling
		}
		if err == nil {
			err = errors.New("no model produced")
		}
		return nil, fmt.Errorf("building OpenAPI model for %s: %w", source, err)
	}
	if err != nil {
		opts.Logger.Debug("OpenAPI model built with resolution errors",
			slog.String("source", source),
			slog.String("error", err.Error()))
	}

	out := Transform(&model.Model, dialect)
	out.Source = source

	opts.Logger.Debug("loaded OpenAPI document",
		slog.String("source", source),
		slog.String("version", version),
		slog.Int("schemas", len(out.Schemas)),
		slog.Int("operations", len(out.Operations)))

	return out, nil
}

// validate checks the document against the OpenAPI schema of its version.
func validate(doc libopenapi.Document) error {
	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return errs[0]
	}
	valid, problems := v.ValidateDocument()
	if valid {
		return nil
	}
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msg := p.Message
		if p.Reason != "" {
			msg += ": " + p.Reason
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("document is not valid OpenAPI: %s", strings.Join(msgs, "; "))
}

// danglingReferences reports every local schema reference in data that names
// no component, as the same issues CheckReferences produces after loading.
func danglingReferences(data []byte, source string) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil
	}
	defined := make(map[string]bool)
	if schemas := child(child(document(&root), "components"), "schemas"); schemas != nil {
		for i := 0; i+1 < len(schemas.Content); i += 2 {
			defined[schemas.Content[i].Value] = true
		}
	}

	var issues diag.Collector
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(n.Content); i += 2 {
				key, value := n.Content[i], n.Content[i+1]
				if key.Value != "$ref" || value.Kind != yaml.ScalarNode {
					continue
				}
				name, ok := strings.CutPrefix(value.Value, "#/components/schemas/")
				if ok && !defined[name] {
					issues.Addf(diag.ErrUnresolvedReference, name, fmt.Sprintf("document %s, line %d", source, value.Line),
						"no schema named %q", name)
				}
			}
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	walk(&root)
	return issues.Err()
}

func document(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

func child(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
