package loader

import (
	"strings"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/schemaforge/internal/rawgraph"
)

const componentPrefix = "#/components/schemas/"

type transformer struct {
	componentSchemas map[*base.Schema]string
}

// Transform converts a libopenapi model into a raw graph of the given
// dialect. Document order is preserved everywhere.
func Transform(doc *v3.Document, dialect rawgraph.Dialect) *rawgraph.Document {
	t := &transformer{
		componentSchemas: make(map[*base.Schema]string),
	}

	out := &rawgraph.Document{
		Dialect: dialect,
		Info:    transformInfo(doc.Info),
		Servers: transformServers(doc.Servers),
		Tags:    transformTags(doc.Tags),
	}

	if doc.Components != nil && doc.Components.Schemas != nil {
		for name, proxy := range doc.Components.Schemas.FromOldest() {
			if proxy.IsReference() {
				continue
			}
			if s := proxy.Schema(); s != nil {
				t.componentSchemas[s] = componentPrefix + name
			}
		}
		for name, proxy := range doc.Components.Schemas.FromOldest() {
			var schema *rawgraph.Schema
			if proxy.IsReference() {
				schema = &rawgraph.Schema{Ref: localRef(proxy.GetReference())}
			} else {
				schema = t.convert(proxy.Schema())
			}
			if schema == nil {
				continue
			}
			out.Schemas = append(out.Schemas, rawgraph.NamedSchema{Name: name, Schema: schema})
		}
	}

	if doc.Paths != nil && doc.Paths.PathItems != nil {
		for path, item := range doc.Paths.PathItems.FromOldest() {
			out.Operations = append(out.Operations, t.transformPath(path, item)...)
		}
	}

	if doc.Webhooks != nil {
		for name, item := range doc.Webhooks.FromOldest() {
			out.Webhooks = append(out.Webhooks, t.transformPath(name, item)...)
		}
	}

	out.Security = transformSecurity(doc.Security)

	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		for name, scheme := range doc.Components.SecuritySchemes.FromOldest() {
			out.SecuritySchemes = append(out.SecuritySchemes, rawgraph.SecurityScheme{
				Name:         name,
				Type:         scheme.Type,
				Description:  scheme.Description,
				In:           scheme.In,
				Scheme:       scheme.Scheme,
				BearerFormat: scheme.BearerFormat,
			})
		}
	}

	return out
}

// localRef drops the file part of a component reference so documents
// loaded together can point at each other.
func localRef(ref string) string {
	if i := strings.Index(ref, componentPrefix); i > 0 {
		return ref[i:]
	}
	return ref
}

func transformInfo(info *base.Info) rawgraph.Info {
	if info == nil {
		return rawgraph.Info{}
	}
	return rawgraph.Info{
		Title:       info.Title,
		Description: info.Description,
		Version:     info.Version,
	}
}

func transformServers(servers []*v3.Server) []rawgraph.Server {
	var result []rawgraph.Server
	for _, s := range servers {
		result = append(result, rawgraph.Server{
			URL:         s.URL,
			Description: s.Description,
		})
	}
	return result
}

func transformTags(tags []*base.Tag) []rawgraph.Tag {
	var result []rawgraph.Tag
	for _, t := range tags {
		result = append(result, rawgraph.Tag{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return result
}

func transformSecurity(reqs []*base.SecurityRequirement) []rawgraph.SecurityRequirement {
	var result []rawgraph.SecurityRequirement
	for _, req := range reqs {
		if req == nil || req.Requirements == nil {
			continue
		}
		for name, scopes := range req.Requirements.FromOldest() {
			result = append(result, rawgraph.SecurityRequirement{Name: name, Scopes: scopes})
		}
	}
	return result
}

func (t *transformer) transformPath(path string, item *v3.PathItem) []rawgraph.Operation {
	if item == nil {
		return nil
	}
	methods := []struct {
		method string
		op     *v3.Operation
	}{
		{"get", item.Get},
		{"post", item.Post},
		{"put", item.Put},
		{"delete", item.Delete},
		{"patch", item.Patch},
		{"head", item.Head},
		{"options", item.Options},
		{"trace", item.Trace},
		{"query", item.Query},
	}

	var ops []rawgraph.Operation
	for _, m := range methods {
		if m.op == nil {
			continue
		}
		ops = append(ops, t.transformOperation(m.method, path, m.op, item.Parameters))
	}
	return ops
}

func (t *transformer) transformOperation(method, path string, op *v3.Operation, shared []*v3.Parameter) rawgraph.Operation {
	operation := rawgraph.Operation{
		ID:          op.OperationId,
		Method:      method,
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
		Deprecated:  flag(op.Deprecated),
	}

	// Operation parameters come first so they win over path-level ones with
	// the same name and location.
	for _, p := range op.Parameters {
		operation.Parameters = append(operation.Parameters, t.transformParameter(p))
	}
	for _, p := range shared {
		operation.Parameters = append(operation.Parameters, t.transformParameter(p))
	}

	if op.RequestBody != nil {
		operation.RequestBody = &rawgraph.RequestBody{
			Description: op.RequestBody.Description,
			Required:    flag(op.RequestBody.Required),
			Content:     t.transformContent(op.RequestBody.Content),
		}
	}

	if op.Responses != nil {
		if op.Responses.Codes != nil {
			for code, resp := range op.Responses.Codes.FromOldest() {
				operation.Responses = append(operation.Responses, t.transformResponse(code, resp))
			}
		}
		if op.Responses.Default != nil {
			operation.Responses = append(operation.Responses, t.transformResponse("default", op.Responses.Default))
		}
	}

	if op.Security != nil {
		operation.SecurityDefined = true
		operation.Security = transformSecurity(op.Security)
	}

	return operation
}

func (t *transformer) transformParameter(p *v3.Parameter) rawgraph.Parameter {
	param := rawgraph.Parameter{
		Name:        p.Name,
		In:          strings.ToLower(p.In),
		Description: p.Description,
		Required:    flag(p.Required),
		Deprecated:  p.Deprecated,
		Style:       p.Style,
		Explode:     p.Explode,
	}

	if p.Schema != nil {
		param.Schema = t.schema(p.Schema)
	} else if p.Content != nil {
		for _, content := range p.Content.FromOldest() {
			if content.Schema != nil {
				param.Schema = t.schema(content.Schema)
				break
			}
		}
	}

	return param
}

func (t *transformer) transformContent(content *orderedmap.Map[string, *v3.MediaType]) rawgraph.Contents {
	if content == nil {
		return nil
	}
	var result rawgraph.Contents
	for mediaType, mt := range content.FromOldest() {
		entry := rawgraph.MediaType{Name: mediaType}
		if mt != nil && mt.Schema != nil {
			entry.Schema = t.schema(mt.Schema)
		}
		result = append(result, entry)
	}
	return result
}

func (t *transformer) transformResponse(code string, resp *v3.Response) rawgraph.Response {
	response := rawgraph.Response{
		Status:      code,
		Description: resp.Description,
		Content:     t.transformContent(resp.Content),
	}

	if resp.Headers != nil {
		for name, header := range resp.Headers.FromOldest() {
			h := rawgraph.Header{
				Name:        name,
				Description: header.Description,
				Required:    header.Required,
			}
			if header.Schema != nil {
				h.Schema = t.schema(header.Schema)
			}
			response.Headers = append(response.Headers, h)
		}
	}

	return response
}

// schema converts a schema position. References stay references, so cycles
// never recurse.
func (t *transformer) schema(proxy *base.SchemaProxy) *rawgraph.Schema {
	if proxy == nil {
		return nil
	}
	if proxy.IsReference() {
		return &rawgraph.Schema{Ref: localRef(proxy.GetReference())}
	}
	s := proxy.Schema()
	if ref, ok := t.componentSchemas[s]; ok {
		return &rawgraph.Schema{Ref: ref}
	}
	return t.convert(s)
}

func (t *transformer) convert(s *base.Schema) *rawgraph.Schema {
	if s == nil {
		return nil
	}

	schema := &rawgraph.Schema{
		Types:       rawgraph.Types(s.Type),
		Nullable:    s.Nullable,
		Format:      s.Format,
		Title:       s.Title,
		Description: s.Description,
		Required:    s.Required,
		Pattern:     s.Pattern,
		UniqueItems: flag(s.UniqueItems),
		ReadOnly:    flag(s.ReadOnly),
		WriteOnly:   flag(s.WriteOnly),
		Deprecated:  flag(s.Deprecated),
		Default:     decode(s.Default),
		Example:     decode(s.Example),
		Extensions:  transformExtensions(s.Extensions),
	}

	if s.Properties != nil {
		for name, proxy := range s.Properties.FromOldest() {
			schema.Properties = append(schema.Properties, rawgraph.Property{Name: name, Schema: t.schema(proxy)})
		}
	}

	if s.Items != nil {
		if s.Items.IsA() {
			schema.Items = t.schema(s.Items.A)
		} else {
			schema.Items = rawgraph.BoolSchema(s.Items.B)
		}
	}
	if s.AdditionalProperties != nil {
		if s.AdditionalProperties.IsA() {
			schema.AdditionalProperties = t.schema(s.AdditionalProperties.A)
		} else {
			schema.AdditionalProperties = rawgraph.BoolSchema(s.AdditionalProperties.B)
		}
	}

	for _, proxy := range s.AllOf {
		schema.AllOf = append(schema.AllOf, t.schema(proxy))
	}
	for _, proxy := range s.OneOf {
		schema.OneOf = append(schema.OneOf, t.schema(proxy))
	}
	for _, proxy := range s.AnyOf {
		schema.AnyOf = append(schema.AnyOf, t.schema(proxy))
	}

	if s.Discriminator != nil {
		schema.Discriminator = &rawgraph.Discriminator{PropertyName: s.Discriminator.PropertyName}
		if s.Discriminator.Mapping != nil {
			for value, ref := range s.Discriminator.Mapping.FromOldest() {
				schema.Discriminator.Mapping = append(schema.Discriminator.Mapping,
					rawgraph.MappingEntry{Value: value, Ref: localRef(ref)})
			}
		}
	}

	for _, node := range s.Enum {
		schema.Enum = append(schema.Enum, decode(node))
	}
	for _, node := range s.Examples {
		schema.Examples = append(schema.Examples, decode(node))
	}
	if s.Const != nil {
		schema.Const = decode(s.Const)
		schema.HasConst = true
	}

	if s.Minimum != nil {
		v := float64(*s.Minimum)
		schema.Minimum = &v
	}
	if s.Maximum != nil {
		v := float64(*s.Maximum)
		schema.Maximum = &v
	}
	if s.MultipleOf != nil {
		v := float64(*s.MultipleOf)
		schema.MultipleOf = &v
	}
	schema.ExclusiveMinimum = bound(s.ExclusiveMinimum)
	schema.ExclusiveMaximum = bound(s.ExclusiveMaximum)

	schema.MinLength = count(s.MinLength)
	schema.MaxLength = count(s.MaxLength)
	schema.MinItems = count(s.MinItems)
	schema.MaxItems = count(s.MaxItems)
	schema.MinProperties = count(s.MinProperties)
	schema.MaxProperties = count(s.MaxProperties)

	return schema
}

// bound keeps the dialect shape of an exclusive bound: a flag in 3.0, a
// number in 3.1.
func bound(v *base.DynamicValue[bool, float64]) *rawgraph.Bound {
	if v == nil {
		return nil
	}
	if v.IsA() {
		return rawgraph.FlagBound(v.A)
	}
	return rawgraph.ValueBound(v.B)
}

func count(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

// decode turns a YAML value node into plain Go values.
func decode(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return node.Value
	}
	return v
}

func transformExtensions(extensions *orderedmap.Map[string, *yaml.Node]) []rawgraph.Extension {
	if extensions == nil {
		return nil
	}
	var result []rawgraph.Extension
	for key, node := range extensions.FromOldest() {
		result = append(result, rawgraph.Extension{Key: key, Value: decode(node)})
	}
	return result
}

func flag(b *bool) bool {
	return b != nil && *b
}
