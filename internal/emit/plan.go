package emit

import (
	"fmt"
	"slices"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/naming"
	"github.com/kolah/schemaforge/internal/typemap"
)

// planner resolves every name and type the templates need. It runs before
// rendering starts and is the only place the mapper is consulted.
type planner struct {
	e       *Emitter
	gm      *model.GenerationModel
	layout  Layout
	namer   *naming.Namer
	cfg     typemap.Config
	profile typemap.Profile
	outputs map[string]bool
	issues  diag.Collector

	// implements maps a model's registry name to the registry names of the
	// interfaces it implements.
	implements map[string][]string
	// declares maps an interface's registry name to the properties it declares.
	declares map[string][]string

	artifacts []artifact
}

func (e *Emitter) plan(gm *model.GenerationModel) ([]artifact, error) {
	cfg := e.mapper.Config()
	p := &planner{
		e:          e,
		gm:         gm,
		layout:     NewLayout(gm.Options.Language, gm.Options.Package),
		namer:      e.mapper.Namer(),
		cfg:        cfg,
		profile:    cfg.Serialization.Profile(),
		outputs:    make(map[string]bool),
		implements: make(map[string][]string),
		declares:   make(map[string][]string),
	}
	outputs := gm.Options.Outputs
	if len(outputs) == 0 {
		outputs = []string{OutputModels, OutputClient}
	}
	for _, o := range outputs {
		p.outputs[o] = true
	}

	p.collectInterfaces()
	if p.outputs[OutputModels] {
		p.planModels()
	}
	p.planAPIs()

	if err := p.issues.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(p.artifacts))
	for i := range p.artifacts {
		a := &p.artifacts[i]
		if seen[a.path] {
			return nil, fmt.Errorf("%w: two artifacts are written to %s", diag.ErrNameCollision, a.path)
		}
		seen[a.path] = true
		tmpl, err := e.templates.Template(a.kind)
		if err != nil {
			return nil, fmt.Errorf("template for %s: %w", a.path, err)
		}
		a.template = tmpl
	}
	e.logger.Debug("planned artifacts", "count", len(p.artifacts))
	return p.artifacts, nil
}

func (p *planner) add(path string, kind Kind, view any) {
	p.artifacts = append(p.artifacts, artifact{path: path, kind: kind, view: view})
}

func (p *planner) fail(err error, subject string, path diag.Path) {
	p.issues.Add(diag.FromError(err, subject, path))
}

func (p *planner) tests() bool {
	return p.outputs[OutputTests]
}

func (p *planner) goTarget() bool {
	return p.layout.Language == "go"
}

// union reports whether s is rendered as a union of its members.
func union(s *model.Schema) bool {
	return s.Kind == model.KindComposed && (s.Composition == model.OneOf || s.Composition == model.AnyOf)
}

// polymorphicBase reports whether s is an object whose subtypes are selected
// by a discriminator.
func polymorphicBase(s *model.Schema) bool {
	return s.Kind == model.KindObject && s.Discriminator != nil && len(s.Discriminator.Resolved) > 0
}

// collectInterfaces records which models implement which unions and
// polymorphic bases, in registry order.
func (p *planner) collectInterfaces() {
	if p.goTarget() {
		return
	}
	for _, ns := range p.gm.Schemas {
		if !p.e.mapper.Generated(ns.Name, ns.Schema) {
			continue
		}
		var members []string
		switch {
		case union(ns.Schema):
			for _, m := range ns.Schema.Members {
				if m.IsReference() {
					members = append(members, m.Ref)
				}
			}
		case polymorphicBase(ns.Schema):
			for _, m := range ns.Schema.Discriminator.Resolved {
				members = append(members, m.Ref)
			}
			for _, prop := range p.flatten(ns.Schema) {
				p.declares[ns.Name] = append(p.declares[ns.Name], prop.Name)
			}
		default:
			continue
		}
		for _, member := range members {
			target, ok := p.gm.Lookup(member)
			if member == ns.Name || !ok || !p.rendersAsClass(member, target) {
				continue
			}
			if !slices.Contains(p.implements[member], ns.Name) {
				p.implements[member] = append(p.implements[member], ns.Name)
			}
		}
	}
}

func (p *planner) rendersAsClass(name string, s *model.Schema) bool {
	return p.e.mapper.Generated(name, s) && s.Kind != model.KindEnum && !union(s) && !polymorphicBase(s)
}

// flatten collects the properties of s and of every allOf member, members
// first. A property declared twice is required if either declaration is.
func (p *planner) flatten(s *model.Schema) []model.Property {
	var out []model.Property
	index := make(map[string]int)
	seen := make(map[*model.Schema]bool)
	var visit func(*model.Schema)
	visit = func(n *model.Schema) {
		n = p.gm.Deref(n)
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if n.Kind == model.KindComposed && n.Composition == model.AllOf {
			for _, m := range n.Members {
				visit(m)
			}
		}
		for _, prop := range n.Properties {
			if i, ok := index[prop.Name]; ok {
				out[i].Required = out[i].Required || prop.Required
				continue
			}
			index[prop.Name] = len(out)
			out = append(out, prop)
		}
	}
	visit(s)
	return out
}
