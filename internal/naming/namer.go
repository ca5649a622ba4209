package naming

import (
	"strings"
	"unicode"
)

// Namer produces identifiers for one target language.
type Namer struct {
	Initialisms  Initialisms
	Reserved     map[string]bool
	Escape       func(string) string
	PropertyCase Case
	MethodCase   Case
	ConstantCase Case
	ModelPrefix  string
	ModelSuffix  string
	// DigitPrefix is prepended to identifiers starting with a digit.
	DigitPrefix string
	// Substitute rewrites raw names before they are split into words.
	Substitute func(string) string

	// OperationPrefixDelimiter and OperationPrefixCount strip leading
	// segments from operation ids ("pets.getPet" -> "getPet").
	OperationPrefixDelimiter string
	OperationPrefixCount     int
}

// Type names a model type.
func (n *Namer) Type(name string) string {
	id := n.sanitize(PascalCase(n.substitute(name), n.Initialisms))
	if id == "" {
		id = "Model"
	}
	return n.escape(n.ModelPrefix + id + n.ModelSuffix)
}

// Plain names a non-model type such as an API interface.
func (n *Namer) Plain(name string) string {
	id := n.sanitize(PascalCase(n.substitute(name), n.Initialisms))
	if id == "" {
		id = "Default"
	}
	return n.escape(id)
}

func (n *Namer) Property(name string) string {
	id := n.sanitize(Apply(n.PropertyCase, n.substitute(name), n.Initialisms))
	if id == "" {
		id = Apply(n.PropertyCase, "value", n.Initialisms)
	}
	return n.escape(id)
}

func (n *Namer) Method(operationID string) string {
	id := n.stripOperationPrefix(operationID)
	name := n.sanitize(Apply(n.MethodCase, n.substitute(id), n.Initialisms))
	if name == "" {
		name = Apply(n.MethodCase, "operation", n.Initialisms)
	}
	return n.escape(name)
}

// Variable names a local variable or parameter. It is camel case in every language.
func (n *Namer) Variable(name string) string {
	id := n.sanitize(CamelCase(n.substitute(name), n.Initialisms))
	if id == "" {
		id = "value"
	}
	return n.escape(id)
}

func (n *Namer) Constant(name string) string {
	return n.escape(n.sanitize(Apply(n.ConstantCase, n.substitute(name), n.Initialisms)))
}

// Getter names an accessor, e.g. "getName" or "isActive" for booleans.
func (n *Namer) Getter(property string, boolean bool) string {
	prefix := "get"
	if boolean {
		prefix = "is"
	}
	return prefix + PascalCase(n.substitute(property), n.Initialisms)
}

func (n *Namer) Setter(property string) string {
	return "set" + PascalCase(n.substitute(property), n.Initialisms)
}

func (n *Namer) IsReserved(id string) bool {
	return n.Reserved[id]
}

func (n *Namer) substitute(s string) string {
	if n.Substitute == nil {
		return s
	}
	return n.Substitute(s)
}

func (n *Namer) stripOperationPrefix(id string) string {
	if n.OperationPrefixDelimiter == "" || n.OperationPrefixCount <= 0 {
		return id
	}
	parts := strings.Split(id, n.OperationPrefixDelimiter)
	if len(parts) <= n.OperationPrefixCount {
		return parts[len(parts)-1]
	}
	return strings.Join(parts[n.OperationPrefixCount:], n.OperationPrefixDelimiter)
}

func (n *Namer) sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if r == '-' {
				r = '_'
			}
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = n.DigitPrefix + out
	}
	return out
}

func (n *Namer) escape(id string) string {
	if n.Reserved[id] && n.Escape != nil {
		return n.Escape(id)
	}
	return id
}

var javaKeywords = []string{
	"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char", "class", "const",
	"continue", "default", "do", "double", "else", "enum", "extends", "final", "finally", "float",
	"for", "goto", "if", "implements", "import", "instanceof", "int", "interface", "long", "native",
	"new", "package", "private", "protected", "public", "return", "short", "static", "strictfp",
	"super", "switch", "synchronized", "this", "throw", "throws", "transient", "try", "void",
	"volatile", "while", "true", "false", "null", "record", "var", "yield",
}

var kotlinKeywords = []string{
	"as", "break", "class", "continue", "do", "else", "false", "for", "fun", "if", "in",
	"interface", "is", "null", "object", "package", "return", "super", "this", "throw", "true",
	"try", "typealias", "typeof", "val", "var", "when", "while",
}

var goKeywords = []string{
	"break", "case", "chan", "const", "continue", "default", "defer", "else", "fallthrough", "for",
	"func", "go", "goto", "if", "import", "interface", "map", "package", "range", "return",
	"select", "struct", "switch", "type", "var",
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func JavaNamer() *Namer {
	return &Namer{
		Initialisms:  NewInitialisms(),
		Reserved:     wordSet(javaKeywords),
		Escape:       func(s string) string { return "_" + s },
		PropertyCase: CaseCamel,
		MethodCase:   CaseCamel,
		ConstantCase: CaseScreamingSnake,
		DigitPrefix:  "_",
	}
}

func KotlinNamer() *Namer {
	return &Namer{
		Initialisms:  NewInitialisms(),
		Reserved:     wordSet(kotlinKeywords),
		Escape:       func(s string) string { return "`" + s + "`" },
		PropertyCase: CaseCamel,
		MethodCase:   CaseCamel,
		ConstantCase: CaseScreamingSnake,
		DigitPrefix:  "_",
	}
}

func GoNamer() *Namer {
	return &Namer{
		Initialisms:  NewInitialisms(GoInitialisms...),
		Reserved:     wordSet(goKeywords),
		Escape:       func(s string) string { return s + "_" },
		PropertyCase: CasePascal,
		MethodCase:   CasePascal,
		ConstantCase: CasePascal,
		DigitPrefix:  "X",
	}
}

// ForLanguage returns the default namer for a target language.
func ForLanguage(language string) *Namer {
	switch language {
	case "kotlin":
		return KotlinNamer()
	case "go":
		return GoNamer()
	default:
		return JavaNamer()
	}
}
