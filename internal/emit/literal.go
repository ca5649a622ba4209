package emit

import (
	"strings"

	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/typemap"
)

// defaultLiteral renders the default value of s as a literal of expr, or ""
// when the default cannot be written as a literal of that type.
func (p *planner) defaultLiteral(s *model.Schema, expr typemap.TypeExpr) string {
	target := p.gm.Deref(s)
	if s == nil || target == nil {
		return ""
	}
	value := s.Default
	if value == nil {
		value = target.Default
	}
	switch value.(type) {
	case string, bool, int64, float64:
	default:
		return ""
	}

	if target.Kind == model.KindEnum && expr.Model != "" {
		cases, err := p.e.mapper.EnumCases(expr.Model, target)
		if err != nil {
			return ""
		}
		for _, c := range cases {
			if c.Value != value {
				continue
			}
			if p.goTarget() {
				return expr.Base + c.Name
			}
			return expr.Base + "." + c.Name
		}
		return ""
	}
	if target.Kind != model.KindPrimitive {
		return ""
	}

	lit := p.e.mapper.Literal(value, target.Type)
	if _, isString := value.(string); isString != (target.Type == model.TypeString) {
		return ""
	}
	switch p.layout.Language {
	case "go":
		if expr.Base == "time.Time" || expr.Base == "[]byte" {
			return ""
		}
		return lit
	case "kotlin":
		lit = kotlinNumber(expr.Base, lit)
	default:
		lit = javaNumber(expr.Base, lit)
	}
	if lit != "" && strings.HasPrefix(expr.Name, "Optional<") {
		return "Optional.of(" + lit + ")"
	}
	return lit
}

func javaNumber(typ, lit string) string {
	switch typ {
	case "String", "Boolean", "Integer":
		return lit
	case "Long":
		return strings.TrimSuffix(lit, "L") + "L"
	case "Float":
		return lit + "f"
	case "Double":
		return lit + "d"
	case "BigDecimal":
		return `new BigDecimal("` + lit + `")`
	}
	return ""
}

func kotlinNumber(typ, lit string) string {
	switch typ {
	case "String", "Boolean", "Int":
		return lit
	case "Long":
		return strings.TrimSuffix(lit, "L") + "L"
	case "Float":
		return lit + "f"
	case "Double":
		if !strings.ContainsAny(lit, ".eE") {
			return lit + ".0"
		}
		return lit
	case "BigDecimal":
		return `BigDecimal("` + lit + `")`
	}
	return ""
}
