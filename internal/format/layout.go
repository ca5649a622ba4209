package format

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// hoistImports collects every import line, drops duplicates and writes them
// back as one sorted block after the package clause.
func hoistImports(lines []string) []string {
	var (
		body    []string
		imports []string
		pkg     = -1
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") {
			imports = append(imports, strings.Join(strings.Fields(trimmed), " "))
			continue
		}
		if pkg < 0 && strings.HasPrefix(trimmed, "package ") {
			pkg = len(body)
		}
		body = append(body, line)
	}
	if len(imports) == 0 {
		return body
	}
	slices.Sort(imports)
	imports = slices.Compact(imports)

	block := append([]string{""}, imports...)
	block = append(block, "")
	at := pkg + 1
	return slices.Concat(body[:at], block, body[at:])
}

// scanState tracks nesting across lines. Each open brace or parenthesis is
// a stack entry weighted by the indentation levels it adds.
type scanState struct {
	stack   []int
	comment bool
}

func (s *scanState) scan(line string, continued int) {
	runes := []rune(line)
	var quote rune
	escaped := false
	lastParen := -1
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case s.comment:
			if r == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				s.comment = false
				i++
			}
		case quote != 0:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			return
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			s.comment = true
			i++
		case r == '(':
			s.stack = append(s.stack, continued)
			lastParen = len(s.stack) - 1
			continue
		case r == '{':
			// "({" opens one level, not two.
			if lastParen == len(s.stack)-1 && lastParen >= 0 {
				s.stack[lastParen] = 0
			}
			s.stack = append(s.stack, 1)
		case r == '}' || r == ')':
			if len(s.stack) > 0 {
				s.stack = s.stack[:len(s.stack)-1]
			}
		case unicode.IsSpace(r):
			continue
		}
		lastParen = -1
	}
}

// depth is the indentation of the current nesting with the innermost
// closed entries removed.
func (s *scanState) depth(closed int) int {
	n := 0
	for _, w := range s.stack[:max(len(s.stack)-closed, 0)] {
		n += w
	}
	return n
}

// continuations start a line that carries on the previous statement.
var continuations = []string{"&& ", "|| ", "+ ", "- ", "?: ", "? ", ": ", "."}

func continues(trimmed string) bool {
	return slices.ContainsFunc(continuations, func(p string) bool {
		return strings.HasPrefix(trimmed, p)
	})
}

// reindent re-derives each line's indentation from brace and parenthesis
// nesting. Lines inside an open parenthesis, and lines starting with a
// binary operator, get continuation indentation.
func (f *Formatter) reindent(lines []string) []string {
	var st scanState
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		if st.comment {
			p := strings.Repeat(f.indent, st.depth(0))
			if strings.HasPrefix(trimmed, "*") {
				p += " "
			}
			out = append(out, p+trimmed)
			st.scan(trimmed, f.continued)
			continue
		}
		closed := 0
		for _, r := range trimmed {
			if r != '}' && r != ')' {
				break
			}
			closed++
		}
		levels := st.depth(closed)
		if continues(trimmed) {
			levels += f.continued
		}
		out = append(out, strings.Repeat(f.indent, levels)+trimmed)
		st.scan(trimmed, f.continued)
	}
	return out
}

// wrap splits lines wider than the column budget at the top-level commas of
// their first multi-argument parenthesized group. Wrapped pieces are wrapped
// again if they are still too wide.
func (f *Formatter) wrap(lines []string) []string {
	out := make([]string, 0, len(lines))
	var st scanState
	for _, line := range lines {
		inComment := st.comment
		st.scan(line, f.continued)
		if inComment || utf8.RuneCountInString(line) <= f.budget || !wrappable(line) {
			out = append(out, line)
			continue
		}
		out = append(out, f.wrapLine(line)...)
	}
	return out
}

func wrappable(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, p := range []string{"//", "/*", "*", "import ", "package "} {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	return true
}

func (f *Formatter) wrapLine(line string) []string {
	if utf8.RuneCountInString(line) <= f.budget {
		return []string{line}
	}
	runes := []rune(line)
	indent := 0
	for indent < len(runes) && unicode.IsSpace(runes[indent]) {
		indent++
	}
	open, closing, args := argGroup(runes)
	if open < 0 {
		return []string{line}
	}
	lead := string(runes[:indent])
	cont := lead + strings.Repeat(f.indent, f.continued)

	out := f.wrapLine(string(runes[:open+1]))
	for i, a := range args {
		if i < len(args)-1 {
			out = append(out, f.wrapLine(cont+a+",")...)
			continue
		}
		out = append(out, f.wrapLine(cont+a+string(runes[closing:]))...)
	}
	return out
}

// argGroup finds the first parenthesized group of runes with at least two
// top-level arguments and returns its parenthesis positions and trimmed
// arguments. open is -1 when there is none.
func argGroup(runes []rune) (open, closing int, args []string) {
	code := codeMask(runes)
	for start := range runes {
		if !code[start] || runes[start] != '(' {
			continue
		}
		depth, angle := 0, 0
		commas := []int{}
		for i := start; i < len(runes); i++ {
			if !code[i] {
				continue
			}
			switch r := runes[i]; r {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			case '<':
				if i > 0 && (unicode.IsLetter(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
					angle++
				}
			case '>':
				if angle > 0 && runes[i-1] != '-' {
					angle--
				}
			case ',':
				if depth == 1 && angle == 0 {
					commas = append(commas, i)
				}
			}
			if depth == 0 {
				if len(commas) == 0 {
					break
				}
				from := start + 1
				for _, c := range append(commas, i) {
					args = append(args, strings.TrimSpace(string(runes[from:c])))
					from = c + 1
				}
				return start, i, args
			}
		}
	}
	return -1, -1, nil
}

// codeMask marks the runes that are outside string literals and comments.
func codeMask(runes []rune) []bool {
	mask := make([]bool, len(runes))
	var quote rune
	escaped := false
	for i, r := range runes {
		switch {
		case quote != 0:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			return mask
		default:
			mask[i] = true
		}
	}
	return mask
}
