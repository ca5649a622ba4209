// Package normalize turns dialect-tagged raw graphs into one canonical model
// and keeps that model free of duplicate definitions.
package normalize

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/naming"
	"github.com/kolah/schemaforge/internal/rawgraph"
	"github.com/kolah/schemaforge/internal/registry"
)

// DuplicatePolicy decides what happens when two sources declare different
// schemas under the same name.
type DuplicatePolicy string

const (
	PolicyFail  DuplicatePolicy = "fail"
	PolicyFirst DuplicatePolicy = "first"
	PolicyLast  DuplicatePolicy = "last"
)

var DuplicatePolicies = []DuplicatePolicy{PolicyFail, PolicyFirst, PolicyLast}

func (p DuplicatePolicy) Valid() bool {
	return slices.Contains(DuplicatePolicies, p)
}

type Options struct {
	Policy DuplicatePolicy
	Logger *slog.Logger
}

type Normalizer struct {
	policy DuplicatePolicy
	logger *slog.Logger
	issues *diag.Collector
}

func New(opts Options, issues *diag.Collector) *Normalizer {
	n := &Normalizer{
		policy: opts.Policy,
		logger: opts.Logger,
		issues: issues,
	}
	if n.policy == "" {
		n.policy = PolicyFail
	}
	if n.logger == nil {
		n.logger = slog.New(slog.DiscardHandler)
	}
	return n
}

// Unify converts every document into canonical form and registers its
// component schemas. Documents are processed in order, which is also the
// order duplicate declarations are resolved in.
func (n *Normalizer) Unify(docs ...*rawgraph.Document) (*model.Spec, *registry.Registry) {
	spec := &model.Spec{}
	reg := registry.New()
	origin := make(map[string]string)
	opIDs := make(map[string]string)

	for i, doc := range docs {
		source := doc.Source
		if source == "" {
			source = fmt.Sprintf("document %d", i+1)
		}
		conv := &converter{dialect: doc.Dialect, source: source, issues: n.issues}

		if i == 0 {
			spec.Info = model.Info{Title: doc.Info.Title, Description: doc.Info.Description, Version: doc.Info.Version}
		}
		for _, s := range doc.Servers {
			spec.Servers = append(spec.Servers, model.Server{URL: s.URL, Description: s.Description})
		}
		for _, t := range doc.Tags {
			if !slices.ContainsFunc(spec.Tags, func(existing model.Tag) bool { return existing.Name == t.Name }) {
				spec.Tags = append(spec.Tags, model.Tag{Name: t.Name, Description: t.Description})
			}
		}
		for _, ss := range doc.SecuritySchemes {
			spec.Security = append(spec.Security, model.SecurityScheme{
				Name:         ss.Name,
				Type:         ss.Type,
				Description:  ss.Description,
				In:           ss.In,
				Scheme:       ss.Scheme,
				BearerFormat: ss.BearerFormat,
			})
		}

		for _, ns := range doc.Schemas {
			node := Simplify(conv.schema(ns.Schema, diag.Path{}.With("schema", ns.Name)))
			if node == nil {
				continue
			}
			if node.IsReference() {
				// A component that only points elsewhere still needs its own entry.
				node = &model.Schema{Kind: model.KindComposed, Composition: model.AllOf, Members: []*model.Schema{node}}
			}
			n.register(reg, ns.Name, node, source, origin)
		}

		for _, raw := range doc.Operations {
			op := n.operation(conv, raw, doc.Security, false)
			n.addOperation(spec, op, source, opIDs)
		}
		for _, raw := range doc.Webhooks {
			op := n.operation(conv, raw, doc.Security, true)
			n.addOperation(spec, op, source, opIDs)
		}
	}

	n.logger.Debug("unified documents",
		slog.Int("documents", len(docs)),
		slog.Int("schemas", reg.Len()),
		slog.Int("operations", len(spec.Operations)))

	return spec, reg
}

func (n *Normalizer) register(reg *registry.Registry, name string, node *model.Schema, source string, origin map[string]string) {
	existing, ok := reg.Lookup(name)
	if !ok {
		_ = reg.Register(name, node)
		origin[name] = source
		return
	}
	if registry.Equal(existing, node) {
		n.logger.Debug("merged identical declaration", slog.String("schema", name), slog.String("source", source))
		return
	}
	switch n.policy {
	case PolicyFirst:
		n.logger.Debug("kept first declaration", slog.String("schema", name), slog.String("ignored", source))
	case PolicyLast:
		reg.Replace(name, node)
		n.logger.Debug("kept last declaration", slog.String("schema", name), slog.String("source", source))
		origin[name] = source
	default:
		n.issues.Addf(diag.ErrNameCollision, name, "schema "+name,
			"declared differently by %s and %s", origin[name], source)
	}
}

func (n *Normalizer) addOperation(spec *model.Spec, op model.Operation, source string, seen map[string]string) {
	if prev, dup := seen[op.ID]; dup {
		n.issues.Addf(diag.ErrDuplicateOperation, op.ID, "operation "+op.ID,
			"operation id used by %s and %s %s (%s)", prev, op.Method, op.Path, source)
		return
	}
	seen[op.ID] = fmt.Sprintf("%s %s", op.Method, op.Path)
	spec.Operations = append(spec.Operations, op)
}

func (n *Normalizer) operation(conv *converter, raw rawgraph.Operation, global []rawgraph.SecurityRequirement, webhook bool) model.Operation {
	op := model.Operation{
		ID:          raw.ID,
		Method:      model.Method(strings.ToUpper(raw.Method)),
		Path:        raw.Path,
		Summary:     raw.Summary,
		Description: raw.Description,
		Deprecated:  raw.Deprecated,
		Webhook:     webhook,
	}
	if op.ID == "" {
		op.ID = OperationID(raw.Method, raw.Path)
	}
	for _, t := range raw.Tags {
		if !slices.Contains(op.Tags, t) {
			op.Tags = append(op.Tags, t)
		}
	}
	switch {
	case len(op.Tags) > 0:
		op.Group = op.Tags[0]
	case webhook:
		op.Group = "webhooks"
	default:
		op.Group = "default"
	}

	path := diag.Path{}.With("operation", op.ID)

	for _, p := range raw.Parameters {
		if slices.ContainsFunc(op.Parameters, func(existing model.Parameter) bool {
			return existing.Name == p.Name && string(existing.In) == p.In
		}) {
			continue
		}
		param := model.Parameter{
			Name:        p.Name,
			In:          model.ParameterLocation(strings.ToLower(p.In)),
			Description: p.Description,
			Required:    p.Required || p.In == string(model.LocationPath),
			Deprecated:  p.Deprecated,
			Schema:      simplifyChild(conv.schema(p.Schema, path.With("parameter", p.Name))),
		}
		param.Style, param.Explode = parameterStyle(param.In, p.Style, p.Explode)
		op.Parameters = append(op.Parameters, param)
	}

	if raw.RequestBody != nil {
		rb := &model.RequestBody{Description: raw.RequestBody.Description, Required: raw.RequestBody.Required}
		for _, mt := range raw.RequestBody.Content {
			rb.Content = append(rb.Content, model.MediaTypeContent{
				MediaType: mt.Name,
				Schema:    simplifyChild(conv.schema(mt.Schema, path.With("request body", mt.Name))),
			})
		}
		op.RequestBody = rb
	}

	for _, r := range raw.Responses {
		resp := model.Response{StatusCode: r.Status, Description: r.Description}
		for _, mt := range r.Content {
			resp.Content = append(resp.Content, model.MediaTypeContent{
				MediaType: mt.Name,
				Schema:    simplifyChild(conv.schema(mt.Schema, path.With("response", r.Status))),
			})
		}
		for _, h := range r.Headers {
			resp.Headers = append(resp.Headers, model.Header{
				Name:        h.Name,
				Description: h.Description,
				Required:    h.Required,
				Schema:      simplifyChild(conv.schema(h.Schema, path.With("response", r.Status).With("header", h.Name))),
			})
		}
		op.Responses = append(op.Responses, resp)
	}

	security := global
	if raw.SecurityDefined {
		security = raw.Security
	}
	for _, s := range security {
		op.Security = append(op.Security, model.SecurityRequirement{Name: s.Name, Scopes: s.Scopes})
	}

	return op
}

// simplifyChild simplifies a schema that is not a registry entry, so its
// root may collapse too.
func simplifyChild(s *model.Schema) *model.Schema {
	if s == nil {
		return nil
	}
	return simplify(s, make(map[*model.Schema]*model.Schema))
}

// parameterStyle fills the serialization defaults for a parameter location.
func parameterStyle(in model.ParameterLocation, style string, explode *bool) (string, bool) {
	if in == model.LocationBody {
		return "", false
	}
	if style == "" {
		switch in {
		case model.LocationQuery, model.LocationCookie:
			style = "form"
		default:
			style = "simple"
		}
	}
	if explode != nil {
		return style, *explode
	}
	return style, style == "form"
}

// OperationID derives an id for operations that declare none,
// e.g. "get /pets/{id}" -> "getPetsById".
func OperationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteString("By")
			seg = strings.Trim(seg, "{}")
		}
		b.WriteString(naming.PascalCase(seg, nil))
	}
	return b.String()
}
