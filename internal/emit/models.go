package emit

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/typemap"
)

func (p *planner) planModels() {
	for _, ns := range p.gm.Schemas {
		if !p.e.mapper.Generated(ns.Name, ns.Schema) {
			continue
		}
		typeName := p.e.mapper.ModelName(ns.Name)
		path := p.layout.ModelPath(typeName)
		s := ns.Schema

		switch {
		case s.Kind == model.KindEnum:
			p.add(path, KindEnum, p.enumView(ns.Name, s))
		case union(s), polymorphicBase(s) && !p.goTarget():
			p.add(path, KindUnion, p.unionView(ns.Name, s))
		default:
			view := p.objectView(ns.Name, s)
			p.add(path, KindModel, view)
			if p.tests() {
				p.add(p.layout.TestPath(typeName, p.gm.Options.TestFramework, false), KindModelTest, view)
			}
		}
	}
}

func (p *planner) baseView(name string, s *model.Schema) ModelView {
	pkg := p.layout.ModelPackage()
	if p.goTarget() {
		pkg = p.layout.GoPackage()
	}
	return ModelView{
		Language:    p.layout.Language,
		Package:     pkg,
		Name:        p.e.mapper.ModelName(name),
		Schema:      name,
		Description: s.Description,
		Deprecated:  s.Deprecated,
	}
}

func (p *planner) finish(view *ModelView, imports typemap.ImportSet) {
	view.Imports = imports.Without(p.layout.ModelPackage()).Sorted()
}

func (p *planner) objectView(name string, s *model.Schema) ModelView {
	view := p.baseView(name, s)
	view.ClassAnnotations = p.profile.ClassAnnotations
	imports := typemap.NewImportSet(p.profile.Imports...)

	var declared []string
	for _, iface := range p.implements[name] {
		view.Interfaces = append(view.Interfaces, p.e.mapper.ModelName(iface))
		declared = append(declared, p.declares[iface]...)
	}

	at := diag.Path{}.With("schema", name)
	for _, prop := range p.flatten(s) {
		pv, propImports, err := p.property(prop)
		if err != nil {
			p.fail(err, name, at.With("property", prop.Name))
			continue
		}
		pv.Override = slices.Contains(declared, prop.Name)
		imports.Merge(propImports)
		view.Properties = append(view.Properties, pv)
	}
	p.finish(&view, imports)
	return view
}

func (p *planner) property(prop model.Property) (PropertyView, typemap.ImportSet, error) {
	expr, imports, err := p.e.mapper.MapField(prop.Schema, prop.Required)
	if err != nil {
		return PropertyView{}, nil, err
	}
	target := p.gm.Deref(prop.Schema)
	pv := PropertyView{
		Name:     prop.Name,
		Field:    p.namer.Property(prop.Name),
		Getter:   p.namer.Getter(prop.Name, false),
		Setter:   p.namer.Setter(prop.Name),
		Type:     expr.Name,
		BaseType: expr.Base,
		Required: prop.Required,
		Nullable: expr.Nullable,
		Tag:      p.profile.Tag(prop.Name, prop.Required),
	}
	if a := p.profile.Annotation(prop.Name); a != "" {
		pv.Annotations = append(pv.Annotations, a)
	}
	pv.Annotations = append(pv.Annotations, expr.Annotations...)

	for _, n := range []*model.Schema{prop.Schema, target} {
		if n == nil {
			continue
		}
		if pv.Description == "" {
			pv.Description = n.Description
		}
		pv.ReadOnly = pv.ReadOnly || n.ReadOnly
		pv.WriteOnly = pv.WriteOnly || n.WriteOnly
		pv.Deprecated = pv.Deprecated || n.Deprecated
	}
	pv.Default = p.defaultLiteral(prop.Schema, expr)
	return pv, imports, nil
}

func (p *planner) enumView(name string, s *model.Schema) ModelView {
	view := p.baseView(name, s)
	imports := typemap.NewImportSet()
	at := diag.Path{}.With("schema", name)

	expr, valueImports, err := p.e.mapper.Map(&model.Schema{Kind: model.KindPrimitive, Type: s.Type, Format: s.Format})
	if err != nil {
		p.fail(err, name, at)
	}
	imports.Merge(valueImports)
	view.EnumType = expr.Base

	cases, err := p.e.mapper.EnumCases(name, s)
	if err != nil {
		p.fail(err, name, at)
	}
	view.Cases = cases
	if slices.ContainsFunc(cases, func(c typemap.EnumCase) bool { return c.Value == nil }) {
		switch p.layout.Language {
		case "kotlin":
			view.EnumType += "?"
		case "go":
			view.Cases = slices.DeleteFunc(cases, func(c typemap.EnumCase) bool { return c.Value == nil })
		}
	}
	for i, c := range view.Cases {
		lit := c.Literal
		switch p.layout.Language {
		case "java":
			lit = javaNumber(view.EnumType, c.Literal)
		case "kotlin":
			lit = kotlinNumber(strings.TrimSuffix(view.EnumType, "?"), c.Literal)
		}
		if c.Value != nil && lit != "" {
			view.Cases[i].Literal = lit
		}
	}
	if !p.goTarget() {
		view.ClassAnnotations = p.profile.ClassAnnotations
		imports.Add(p.profile.Imports...)
	}
	p.finish(&view, imports)
	return view
}

func (p *planner) unionView(name string, s *model.Schema) ModelView {
	view := p.baseView(name, s)
	imports := typemap.NewImportSet()
	at := diag.Path{}.With("schema", name)

	if d := s.Discriminator; d != nil {
		dv := &DiscriminatorView{
			Property: d.PropertyName,
			Field:    p.namer.Property(d.PropertyName),
			Getter:   p.namer.Getter(d.PropertyName, false),
		}
		for _, m := range d.Resolved {
			if m.Ref == name {
				continue
			}
			dv.Mapping = append(dv.Mapping, MappingView{Value: m.Value, Type: p.e.mapper.ModelName(m.Ref)})
		}
		view.Discriminator = dv
	}

	if polymorphicBase(s) {
		for _, m := range s.Discriminator.Resolved {
			typeName := p.e.mapper.ModelName(m.Ref)
			if m.Ref == name || slices.ContainsFunc(view.Members, func(mv MemberView) bool { return mv.Type == typeName }) {
				continue
			}
			view.Members = append(view.Members, MemberView{Type: typeName, Model: true, Method: "As" + typeName})
		}
		for _, prop := range p.flatten(s) {
			pv, propImports, err := p.property(prop)
			if err != nil {
				p.fail(err, name, at.With("property", prop.Name))
				continue
			}
			imports.Merge(propImports)
			view.Properties = append(view.Properties, pv)
		}
	} else {
		for i, m := range s.Members {
			expr, memberImports, err := p.e.mapper.Map(m)
			if err != nil {
				p.fail(err, name, at.With(string(s.Composition), strconv.Itoa(i)))
				continue
			}
			if slices.ContainsFunc(view.Members, func(mv MemberView) bool { return mv.Type == expr.Name }) {
				continue
			}
			imports.Merge(memberImports)
			view.Members = append(view.Members, MemberView{
				Type:   expr.Name,
				Model:  expr.Model != "",
				Method: "As" + p.namer.Plain(expr.Base),
			})
		}
	}

	if !p.goTarget() {
		view.ClassAnnotations = p.profile.ClassAnnotations
		imports.Add(p.profile.Imports...)
	}
	p.finish(&view, imports)
	return view
}
