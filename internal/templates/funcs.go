package templates

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/kolah/schemaforge/internal/emit"
)

// Funcs returns the template functions for language.
func Funcs(language string) template.FuncMap {
	return template.FuncMap{
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"join":       strings.Join,
		"hasPrefix":  strings.HasPrefix,
		"hasSuffix":  strings.HasSuffix,
		"trimPrefix": strings.TrimPrefix,
		"trimSuffix": strings.TrimSuffix,
		"quote":      strconv.Quote,
		"dict":       Dict,
		"comment":    commentFunc(language),
		"goComment":  GoComment,
		"models":     Models,
		"goSource":   GoSource,
		"goParse":    GoParse,
		"goFormat":   GoFormat,
	}
}

func Dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	dict := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		dict[key] = values[i+1]
	}
	return dict
}

func commentFunc(language string) func(string) string {
	if language == "go" {
		return GoComment
	}
	return DocComment
}

func GoComment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(strings.TrimRight("// "+strings.TrimSpace(line), " "))
	}
	return result.String()
}

// DocComment renders s as a /** */ block for Java and Kotlin.
func DocComment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "*/", "*&#47;")
	var result strings.Builder
	result.WriteString("/**\n")
	for _, line := range strings.Split(s, "\n") {
		result.WriteString(strings.TrimRight(" * "+strings.TrimSpace(line), " "))
		result.WriteString("\n")
	}
	result.WriteString(" */")
	return result.String()
}

// Models keeps the union members that are generated models.
func Models(members []emit.MemberView) []emit.MemberView {
	var out []emit.MemberView
	for _, m := range members {
		if m.Model {
			out = append(out, m)
		}
	}
	return out
}

// GoSource is the expression reading the raw text of a parameter from an
// *http.Request named r.
func GoSource(p emit.ParamView) string {
	name := strconv.Quote(p.Name)
	switch p.In {
	case "path":
		return "r.PathValue(" + strconv.Quote(p.Var) + ")"
	case "header":
		return "r.Header.Get(" + name + ")"
	case "cookie":
		return "func() string { c, err := r.Cookie(" + name + "); if err != nil { return \"\" }; return c.Value }()"
	default:
		return "r.URL.Query().Get(" + name + ")"
	}
}

// GoParse declares v and err from the text in raw.
func GoParse(p emit.ParamView) string {
	base := p.BaseType
	switch p.Conv {
	case "string":
		return fmt.Sprintf("v, err := %s(raw), error(nil)", base)
	case "int":
		return fmt.Sprintf("v, err := func() (%[1]s, error) { n, err := strconv.ParseInt(raw, 10, 64); return %[1]s(n), err }()", base)
	case "float":
		return fmt.Sprintf("v, err := func() (%[1]s, error) { n, err := strconv.ParseFloat(raw, 64); return %[1]s(n), err }()", base)
	case "bool":
		return fmt.Sprintf("v, err := func() (%[1]s, error) { b, err := strconv.ParseBool(raw); return %[1]s(b), err }()", base)
	case "time":
		return "v, err := time.Parse(time.RFC3339, raw)"
	case "date":
		return "v, err := time.Parse(time.DateOnly, raw)"
	default:
		return fmt.Sprintf("v, err := func() (v %s, err error) { err = json.Unmarshal([]byte(raw), &v); return }()", base)
	}
}

// GoFormat is the expression rendering the parameter value expr as text.
func GoFormat(p emit.ParamView, expr string) string {
	if p.Pointer {
		expr = "(*" + expr + ")"
	}
	switch p.Conv {
	case "string":
		return "string(" + expr + ")"
	case "int":
		return "strconv.FormatInt(int64(" + expr + "), 10)"
	case "float":
		return "strconv.FormatFloat(float64(" + expr + "), 'f', -1, 64)"
	case "bool":
		return "strconv.FormatBool(bool(" + expr + "))"
	case "time":
		return expr + ".Format(time.RFC3339)"
	case "date":
		return expr + ".Format(time.DateOnly)"
	default:
		return "func() string { b, _ := json.Marshal(" + expr + "); return string(b) }()"
	}
}
