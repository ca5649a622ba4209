package emit

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/typemap"
)

const micronautAnnotations = "io.micronaut.http.annotation."

var paramAnnotations = map[model.ParameterLocation]string{
	model.LocationPath:   "PathVariable",
	model.LocationQuery:  "QueryValue",
	model.LocationHeader: "Header",
	model.LocationCookie: "CookieValue",
}

type group struct {
	name       string
	operations []*model.Operation
}

// groups bundles operations by group key in order of first appearance.
// Webhooks are received, not served or called, and get no API artifact.
func (p *planner) groups() []group {
	var out []group
	index := make(map[string]int)
	for i := range p.gm.Operations {
		op := &p.gm.Operations[i]
		if op.Webhook {
			continue
		}
		at, ok := index[op.Group]
		if !ok {
			at = len(out)
			index[op.Group] = at
			out = append(out, group{name: op.Group})
		}
		out[at].operations = append(out[at].operations, op)
	}
	return out
}

func (p *planner) planAPIs() {
	var kinds []Kind
	if p.outputs[OutputServer] {
		kinds = append(kinds, KindServer)
	}
	if p.outputs[OutputClient] {
		kinds = append(kinds, KindClient)
	}
	for _, g := range p.groups() {
		for i, kind := range kinds {
			view := p.apiView(kind, g)
			p.add(p.layout.APIPath(view.Name), kind, view)
			if i == 0 && p.tests() {
				p.add(p.layout.TestPath(view.Name, p.gm.Options.TestFramework, true), KindAPITest, view)
			}
		}
	}
}

func (p *planner) apiName(kind Kind, g string) string {
	base := p.namer.Plain(g)
	switch {
	case kind == KindClient:
		return base + "Client"
	case p.goTarget():
		return base + "Server"
	default:
		return base + "Api"
	}
}

func (p *planner) apiView(kind Kind, g group) APIView {
	view := APIView{
		Language: p.layout.Language,
		Package:  p.layout.APIPackage(),
		Name:     p.apiName(kind, g.name),
		Group:    g.name,
	}
	if p.goTarget() {
		view.Package = p.layout.GoPackage()
	}
	imports := typemap.NewImportSet()
	if !p.goTarget() {
		if kind == KindClient {
			imports.Add("io.micronaut.http.client.annotation.Client")
		} else {
			imports.Add(micronautAnnotations + "Controller")
		}
	}
	for _, op := range g.operations {
		ov, opImports := p.operationView(op)
		imports.Merge(opImports)
		view.Operations = append(view.Operations, ov)
	}
	view.Imports = imports.Without(view.Package).Sorted()
	return view
}

func (p *planner) operationView(op *model.Operation) (OperationView, typemap.ImportSet) {
	imports := typemap.NewImportSet()
	at := diag.Path{}.With("operation", op.ID)
	verb := title(string(op.Method))
	ov := OperationView{
		ID:          op.ID,
		Name:        p.namer.Method(op.ID),
		Method:      string(op.Method),
		Verb:        verb,
		Path:        op.Path,
		Pattern:     op.Path,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
		Status:      200,
	}
	if !p.goTarget() {
		imports.Add(micronautAnnotations + verb)
	}
	for _, req := range op.Security {
		ov.Security = append(ov.Security, req.Name)
	}

	var bodyParam *model.Parameter
	for i := range op.Parameters {
		param := &op.Parameters[i]
		if param.In == model.LocationBody {
			bodyParam = param
			continue
		}
		pv, paramImports, err := p.param(param)
		if err != nil {
			p.fail(err, op.ID, at.With("parameter", param.Name))
			continue
		}
		imports.Merge(paramImports)
		if param.In == model.LocationPath {
			ov.Pattern = strings.ReplaceAll(ov.Pattern, "{"+param.Name+"}", "{"+pv.Var+"}")
		}
		ov.Params = append(ov.Params, pv)
	}
	if p.e.sortReq {
		slices.SortStableFunc(ov.Params, func(a, b ParamView) int {
			switch {
			case a.Required == b.Required:
				return 0
			case a.Required:
				return -1
			default:
				return 1
			}
		})
	}

	body, bodyImports, err := p.body(op, bodyParam)
	if err != nil {
		p.fail(err, op.ID, at.With("request body", ""))
	} else if body != nil {
		imports.Merge(bodyImports)
		ov.Body = body
		if !p.goTarget() {
			imports.Add(micronautAnnotations+"Body", micronautAnnotations+"Consumes")
		}
	}

	if resp := op.SuccessResponse(); resp != nil {
		if code, err := strconv.Atoi(resp.StatusCode); err == nil {
			ov.Status = code
		}
		if content, ok := preferJSON(resp.Content); ok {
			expr, resultImports, err := p.e.mapper.Map(content.Schema)
			if err != nil {
				p.fail(err, op.ID, at.With("response", resp.StatusCode))
			} else {
				imports.Merge(resultImports)
				ov.Result = expr.Name
				ov.HasResult = true
				ov.Produces = content.MediaType
				if !p.goTarget() {
					imports.Add(micronautAnnotations + "Produces")
				}
			}
		}
	}
	if !ov.HasResult {
		ov.Result = p.cfg.Void
		switch p.layout.Language {
		case "java":
			ov.Result = "void"
		case "go":
			ov.Result = ""
		}
	}
	return ov, imports
}

func (p *planner) param(param *model.Parameter) (ParamView, typemap.ImportSet, error) {
	expr, imports, err := p.e.mapper.MapField(param.Schema, param.Required)
	if err != nil {
		return ParamView{}, nil, err
	}
	pv := ParamView{
		Name:        param.Name,
		Var:         p.namer.Variable(param.Name),
		In:          string(param.In),
		Type:        expr.Name,
		BaseType:    expr.Base,
		Required:    param.Required,
		Annotations: expr.Annotations,
		Description: param.Description,
		Conv:        p.conv(param.Schema, expr),
		Pointer:     p.goTarget() && strings.HasPrefix(expr.Name, "*"),
	}
	if a, ok := paramAnnotations[param.In]; ok && !p.goTarget() {
		pv.Annotation = "@" + a + "(" + strconv.Quote(param.Name) + ")"
		imports.Add(micronautAnnotations + a)
	}
	return pv, imports, nil
}

func (p *planner) body(op *model.Operation, bodyParam *model.Parameter) (*BodyView, typemap.ImportSet, error) {
	var (
		schema    *model.Schema
		mediaType = "application/json"
		required  bool
	)
	switch {
	case op.RequestBody != nil:
		content, ok := preferJSON(op.RequestBody.Content)
		if !ok {
			return nil, nil, nil
		}
		schema, mediaType, required = content.Schema, content.MediaType, op.RequestBody.Required
	case bodyParam != nil:
		schema, required = bodyParam.Schema, bodyParam.Required
	default:
		return nil, nil, nil
	}
	expr, imports, err := p.e.mapper.MapField(schema, required)
	if err != nil {
		return nil, nil, err
	}
	return &BodyView{
		Var:         "body",
		Type:        expr.Name,
		MediaType:   mediaType,
		Required:    required,
		Annotations: expr.Annotations,
	}, imports, nil
}

// preferJSON picks the JSON content of a body, else the first one with a schema.
func preferJSON(content []model.MediaTypeContent) (model.MediaTypeContent, bool) {
	var first *model.MediaTypeContent
	for i := range content {
		c := &content[i]
		if c.Schema == nil {
			continue
		}
		if c.MediaType == "application/json" || strings.HasSuffix(c.MediaType, "+json") {
			return *c, true
		}
		if first == nil {
			first = c
		}
	}
	if first == nil {
		return model.MediaTypeContent{}, false
	}
	return *first, true
}

var goScalars = map[string]string{
	"string":    "string",
	"int":       "int",
	"int32":     "int",
	"int64":     "int",
	"float32":   "float",
	"float64":   "float",
	"bool":      "bool",
	"time.Time": "time",
}

// conv classifies how a Go parameter value is converted to and from text.
func (p *planner) conv(s *model.Schema, expr typemap.TypeExpr) string {
	target := p.gm.Deref(s)
	for target.IsWrapper() {
		target = p.gm.Deref(target.Members[0])
	}
	if c, ok := goScalars[expr.Base]; ok {
		if c == "time" && target != nil && target.Format == "date" {
			return "date"
		}
		return c
	}
	if expr.Model == "" || target == nil || target.Kind != model.KindEnum {
		return "json"
	}
	switch target.Type {
	case model.TypeString:
		return "string"
	case model.TypeInteger:
		return "int"
	case model.TypeNumber:
		return "float"
	case model.TypeBoolean:
		return "bool"
	}
	return "json"
}

func title(method string) string {
	if method == "" {
		return ""
	}
	return method[:1] + strings.ToLower(method[1:])
}
