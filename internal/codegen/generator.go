// Package codegen runs the schema pipeline from loaded documents to rendered
// artifacts.
package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kolah/schemaforge/internal/config"
	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/discriminator"
	"github.com/kolah/schemaforge/internal/emit"
	"github.com/kolah/schemaforge/internal/format"
	"github.com/kolah/schemaforge/internal/inline"
	"github.com/kolah/schemaforge/internal/loader"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/naming"
	"github.com/kolah/schemaforge/internal/normalize"
	"github.com/kolah/schemaforge/internal/rawgraph"
	"github.com/kolah/schemaforge/internal/registry"
	"github.com/kolah/schemaforge/internal/templates"
	"github.com/kolah/schemaforge/internal/typemap"
)

type Generator struct {
	config    *config.Config
	logger    *slog.Logger
	formatter *format.Formatter
	templates *templates.Set
}

func New(cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	formatter, err := format.New(format.Options{
		Language:                cfg.Language,
		Indent:                  cfg.Format.Indent,
		ColumnBudget:            cfg.Format.ColumnBudget,
		ContinuationLevels:      cfg.Format.ContinuationLevels,
		SubstitutionPattern:     cfg.Format.SubstitutionPattern,
		SubstitutionReplacement: cfg.Format.SubstitutionReplacement,
	})
	if err != nil {
		return nil, fmt.Errorf("creating formatter: %w", err)
	}

	set, err := templates.NewSet(cfg.Language, cfg.TestFramework, cfg.Templates.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return &Generator{
		config:    cfg,
		logger:    logger,
		formatter: formatter,
		templates: set,
	}, nil
}

// Load reads every configured input in order.
func (g *Generator) Load() ([]*rawgraph.Document, error) {
	docs := make([]*rawgraph.Document, 0, len(g.config.Inputs))
	for _, path := range g.config.Inputs {
		doc, err := loader.Load(path, loader.Options{Validate: g.config.ValidateDocuments, Logger: g.logger})
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Generate runs the pipeline over docs and returns artifact contents keyed
// by path relative to the output directory. Diagnostics from every pass are
// collected; if there are any, nothing is emitted and the returned error is
// a diag.Report listing all of them.
func (g *Generator) Generate(ctx context.Context, docs ...*rawgraph.Document) (map[string]string, error) {
	var issues diag.Collector

	n := normalize.New(normalize.Options{
		Policy: normalize.DuplicatePolicy(g.config.DuplicatePolicy),
		Logger: g.logger,
	}, &issues)

	spec, reg := n.Unify(docs...)
	normalize.CheckReferences(spec, reg, &issues)

	promoted := inline.New(reg, inline.Options{Logger: g.logger}).Resolve(spec)
	merged := n.Dedupe(spec, reg)
	discriminator.Resolve(reg, &issues)
	checkEnums(typemap.New(g.typeConfig(), reg.Lookup), reg, &issues)

	g.logger.Info("normalized schemas",
		slog.Int("schemas", reg.Len()),
		slog.Int("promoted", promoted),
		slog.Int("merged", merged),
		slog.Int("operations", len(spec.Operations)))

	if err := issues.Err(); err != nil {
		return nil, err
	}

	gm := model.Freeze(spec, reg.Entries(), reg.Aliases(), model.Options{
		Language:      g.config.Language,
		Package:       g.config.Package,
		Outputs:       g.config.Outputs,
		TestFramework: g.config.TestFramework,
	})

	mapper := typemap.New(g.typeConfig(), gm.Lookup)
	emitter := emit.New(mapper, g.formatter, g.templates, emit.Options{
		Workers:              g.config.Workers,
		SortParamsByRequired: g.config.SortParamsByRequired,
		Logger:               g.logger,
	})

	out, err := emitter.Emit(ctx, gm)
	if err != nil {
		return nil, fmt.Errorf("emitting %s: %w", g.config.Language, err)
	}
	g.logger.Info("generated artifacts", slog.Int("count", len(out)))
	return out, nil
}

// checkEnums reports enum constant collisions alongside the other pass
// issues instead of waiting for emission.
func checkEnums(mapper *typemap.Mapper, reg *registry.Registry, issues *diag.Collector) {
	for name, s := range reg.All() {
		if s.Kind != model.KindEnum || !mapper.Generated(name, s) {
			continue
		}
		if _, err := mapper.EnumCases(name, s); err != nil {
			issues.Add(diag.FromError(err, name, diag.Path{}.With("schema", name)))
		}
	}
}

// typeConfig applies the configured overrides to the language preset.
func (g *Generator) typeConfig() typemap.Config {
	c := g.config
	cfg := typemap.ForLanguage(c.Language)
	cfg.ModelPackage = emit.NewLayout(c.Language, c.Package).ModelPackage()

	if c.Serialization != "" {
		cfg.Serialization = typemap.Serialization(c.Serialization)
	}
	if c.Nullable != "" {
		cfg.Nullable = typemap.NullableConvention(c.Nullable)
	}
	if c.DateTime != "" {
		cfg.DateTime = typemap.DateTimeLibrary(c.DateTime)
	}
	cfg.TypeMappings = c.Mappings.Types
	cfg.ImportMappings = c.Mappings.Imports
	cfg.SchemaMappings = c.Mappings.Schemas

	namer := cfg.Namer
	namer.ModelPrefix = c.Naming.ModelPrefix
	namer.ModelSuffix = c.Naming.ModelSuffix
	namer.OperationPrefixDelimiter = c.Naming.OperationPrefixDelimiter
	namer.OperationPrefixCount = c.Naming.OperationPrefixCount
	namer.Substitute = g.formatter.Identifier
	if c.Naming.PropertyCase != "" {
		namer.PropertyCase = naming.Case(c.Naming.PropertyCase)
	}
	if c.Naming.MethodCase != "" {
		namer.MethodCase = naming.Case(c.Naming.MethodCase)
	}
	if c.Naming.ConstantCase != "" {
		namer.ConstantCase = naming.Case(c.Naming.ConstantCase)
	}
	for _, word := range c.Naming.Initialisms {
		namer.Initialisms[strings.ToUpper(word)] = true
	}

	return cfg
}
