// Package naming converts schema and operation names into identifiers.
package naming

import (
	"slices"
	"strings"
	"unicode"
)

type Case string

const (
	CasePascal         Case = "pascal"
	CaseCamel          Case = "camel"
	CaseSnake          Case = "snake"
	CaseScreamingSnake Case = "screaming-snake"
	CaseKebab          Case = "kebab"
)

var Cases = []Case{CasePascal, CaseCamel, CaseSnake, CaseScreamingSnake, CaseKebab}

func (c Case) Valid() bool {
	return slices.Contains(Cases, c)
}

// GoInitialisms are the initialisms Go identifiers keep upper-cased.
var GoInitialisms = []string{
	"API", "ASCII", "CPU", "CSS", "CVV", "DNS", "EOF", "GUID", "HTML", "HTTP",
	"HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA",
	"SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP", "UI", "UID", "UUID",
	"URI", "URL", "UTF8", "VM", "XML", "XMPP", "XSRF", "XSS",
}

// Initialisms is a set of words rendered fully upper-cased in Pascal and camel case.
type Initialisms map[string]bool

func NewInitialisms(words ...string) Initialisms {
	set := make(Initialisms, len(words))
	for _, w := range words {
		set[strings.ToUpper(w)] = true
	}
	return set
}

// TypeName joins the words of s into a language-neutral Pascal name,
// keeping the inner case of each word.
func TypeName(s string) string {
	var b strings.Builder
	for _, word := range SplitWords(s) {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

func PascalCase(s string, initialisms Initialisms) string {
	var result strings.Builder
	for _, word := range SplitWords(s) {
		upper := strings.ToUpper(word)
		if initialisms[upper] {
			result.WriteString(upper)
		} else {
			result.WriteString(capitalize(word))
		}
	}
	return result.String()
}

func CamelCase(s string, initialisms Initialisms) string {
	var result strings.Builder
	for i, word := range SplitWords(s) {
		if i == 0 {
			result.WriteString(strings.ToLower(word))
			continue
		}
		upper := strings.ToUpper(word)
		if initialisms[upper] {
			result.WriteString(upper)
		} else {
			result.WriteString(capitalize(word))
		}
	}
	return result.String()
}

func SnakeCase(s string) string {
	words := SplitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "_")
}

func ScreamingSnakeCase(s string) string {
	return strings.ToUpper(SnakeCase(s))
}

func KebabCase(s string) string {
	return strings.ReplaceAll(SnakeCase(s), "_", "-")
}

// Apply converts s to the given case.
func Apply(c Case, s string, initialisms Initialisms) string {
	switch c {
	case CaseCamel:
		return CamelCase(s, initialisms)
	case CaseSnake:
		return SnakeCase(s)
	case CaseScreamingSnake:
		return ScreamingSnakeCase(s)
	case CaseKebab:
		return KebabCase(s)
	default:
		return PascalCase(s, initialisms)
	}
}

// SplitWords breaks s on separators, lower-to-upper transitions and the end
// of an upper-case run followed by a lower-case letter ("HTTPServer" -> HTTP, Server).
func SplitWords(s string) []string {
	var words []string
	var current []rune
	runes := []rune(s)

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsLower(prev) || unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			}
		}
		current = append(current, r)
	}
	flush()

	return words
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
