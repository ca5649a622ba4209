package typemap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kolah/schemaforge/internal/diag"
	"github.com/kolah/schemaforge/internal/model"
)

// EnumCase is one constant of a generated enum.
type EnumCase struct {
	Name    string
	Value   any
	Literal string
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

var symbolNames = map[string]string{
	" ":  "SPACE",
	"$":  "DOLLAR",
	"^":  "CARET",
	"|":  "PIPE",
	"=":  "EQUAL",
	"*":  "STAR",
	"-":  "MINUS",
	"&":  "AMPERSAND",
	"%":  "PERCENT",
	"#":  "HASH",
	"@":  "AT",
	"!":  "EXCLAMATION",
	"+":  "PLUS",
	":":  "COLON",
	">":  "GREATER_THAN",
	"<":  "LESS_THAN",
	".":  "PERIOD",
	"_":  "UNDERSCORE",
	"?":  "QUESTION_MARK",
	",":  "COMMA",
	"'":  "QUOTE",
	"\"": "DOUBLE_QUOTE",
	"/":  "SLASH",
	"\\": "BACK_SLASH",
	"(":  "LEFT_PARENTHESIS",
	")":  "RIGHT_PARENTHESIS",
	"[":  "LEFT_SQUARE_BRACKET",
	"]":  "RIGHT_SQUARE_BRACKET",
	"{":  "LEFT_CURLY_BRACKET",
	"}":  "RIGHT_CURLY_BRACKET",
	"~":  "TILDE",
	"`":  "BACKTICK",
	"<=": "LESS_THAN_OR_EQUAL_TO",
	">=": "GREATER_THAN_OR_EQUAL_TO",
	"!=": "NOT_EQUAL",
}

// EnumCases names the constants of an enum node. Values that are not valid
// identifiers are sanitized; names that still collide are retried with
// symbols spelled out before the collision is reported.
func (m *Mapper) EnumCases(name string, s *model.Schema) ([]EnumCase, error) {
	numeric := s.Type == model.TypeInteger || s.Type == model.TypeNumber
	cases := make([]EnumCase, len(s.Enum))
	for i, v := range s.Enum {
		cases[i] = EnumCase{
			Name:    m.enumCaseName(v, numeric, false),
			Value:   v,
			Literal: m.Literal(v, s.Type),
		}
	}

	if dup := duplicates(cases); len(dup) > 0 {
		for i := range cases {
			if dup[cases[i].Name] {
				cases[i].Name = m.enumCaseName(cases[i].Value, numeric, true)
			}
		}
	}
	seen := make(map[string]any, len(cases))
	for _, c := range cases {
		if prev, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %s: values %q and %q both map to %s",
				diag.ErrEnumValueCollision, name, fmt.Sprint(prev), fmt.Sprint(c.Value), c.Name)
		}
		seen[c.Name] = c.Value
	}
	return cases, nil
}

func duplicates(cases []EnumCase) map[string]bool {
	count := make(map[string]int, len(cases))
	for _, c := range cases {
		count[c.Name]++
	}
	dup := make(map[string]bool)
	for n, c := range count {
		if c > 1 {
			dup[n] = true
		}
	}
	return dup
}

func (m *Mapper) enumCaseName(v any, numeric, spell bool) string {
	value := fmt.Sprint(v)
	if value == "" {
		return m.cfg.Namer.Constant("EMPTY")
	}
	if sym, ok := symbolNames[value]; ok {
		return m.cfg.Namer.Constant(sym)
	}
	if numeric {
		id := "NUMBER_" + value
		id = strings.ReplaceAll(id, "-", "MINUS_")
		id = strings.ReplaceAll(id, "+", "PLUS_")
		id = strings.ReplaceAll(id, ".", "_DOT_")
		return m.cfg.Namer.Constant(id)
	}

	value = transliterate(value)
	if spell {
		value = spellSymbols(value)
	}
	id := strings.Trim(nonWord.ReplaceAllString(value, "_"), "_")
	if id == "" {
		id = "VALUE"
	}
	return m.cfg.Namer.Constant(id)
}

// transliterate strips diacritics, e.g. "Café" -> "Cafe".
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func spellSymbols(s string) string {
	var b strings.Builder
	for _, r := range s {
		if name, ok := symbolNames[string(r)]; ok && r != '_' {
			b.WriteString("_" + name + "_")
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Literal renders an enum or default value as a source literal.
func (m *Mapper) Literal(v any, t model.SchemaType) string {
	switch val := v.(type) {
	case string:
		if t == model.TypeInteger || t == model.TypeNumber {
			return val
		}
		lit := strconv.Quote(val)
		if m.cfg.Language == "kotlin" {
			lit = strings.ReplaceAll(lit, "$", `\$`)
		}
		return lit
	case bool:
		return strconv.FormatBool(val)
	case int64:
		if m.cfg.Language != "go" && t == model.TypeInteger && (val > 1<<31-1 || val < -1<<31) {
			return strconv.FormatInt(val, 10) + "L"
		}
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		if m.cfg.Language == "go" {
			return "nil"
		}
		return "null"
	}
	return strconv.Quote(fmt.Sprint(v))
}
