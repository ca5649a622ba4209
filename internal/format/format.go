// Package format lays out rendered source text: indentation, line wrapping,
// import blocks and identifier substitution.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultIndent       = "    "
	DefaultColumnBudget = 120
)

type Options struct {
	// Language selects Go formatting for "go"; everything else is laid out
	// as a brace language.
	Language string
	// Indent is one indentation level.
	Indent string
	// ColumnBudget is the line width above which argument lists are wrapped.
	ColumnBudget int
	// ContinuationLevels is how many levels wrapped arguments are indented.
	ContinuationLevels int
	// SubstitutionPattern is a regular expression applied to identifiers,
	// each match replaced by SubstitutionReplacement.
	SubstitutionPattern     string
	SubstitutionReplacement string
}

type Formatter struct {
	language    string
	indent      string
	budget      int
	continued   int
	subst       *regexp.Regexp
	replacement string
}

func New(opts Options) (*Formatter, error) {
	f := &Formatter{
		language:    opts.Language,
		indent:      opts.Indent,
		budget:      opts.ColumnBudget,
		continued:   opts.ContinuationLevels,
		replacement: opts.SubstitutionReplacement,
	}
	if f.indent == "" {
		f.indent = DefaultIndent
	}
	if f.budget <= 0 {
		f.budget = DefaultColumnBudget
	}
	if f.continued <= 0 {
		f.continued = 2
	}
	if opts.SubstitutionPattern != "" {
		re, err := regexp.Compile(opts.SubstitutionPattern)
		if err != nil {
			return nil, fmt.Errorf("compiling substitution pattern: %w", err)
		}
		f.subst = re
	}
	return f, nil
}

// Identifier applies the configured substitution to a generated identifier.
func (f *Formatter) Identifier(name string) string {
	if f.subst == nil {
		return name
	}
	return f.subst.ReplaceAllString(name, f.replacement)
}

// Format lays out one artifact. Formatting an already formatted artifact
// returns it unchanged.
func (f *Formatter) Format(path, src string) (string, error) {
	if f.language == "go" {
		out, err := Go(path, []byte(src))
		if err != nil {
			return "", fmt.Errorf("formatting %s: %w", path, err)
		}
		return string(out), nil
	}
	return f.layout(src), nil
}

func (f *Formatter) layout(src string) string {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	lines = hoistImports(lines)
	lines = f.reindent(lines)
	lines = f.wrap(lines)
	lines = collapseBlank(lines)
	return strings.Join(lines, "\n") + "\n"
}

func collapseBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if line != "" {
			out = append(out, line)
			continue
		}
		if len(out) == 0 || out[len(out)-1] == "" || strings.HasSuffix(out[len(out)-1], "{") {
			continue
		}
		if next := nextNonBlank(lines, i); next == "" || strings.HasPrefix(strings.TrimSpace(next), "}") {
			continue
		}
		out = append(out, "")
	}
	return out
}

func nextNonBlank(lines []string, i int) string {
	for _, l := range lines[i+1:] {
		if l != "" {
			return l
		}
	}
	return ""
}
