// Package diag collects pipeline issues and reports them together.
package diag

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/speakeasy-api/openapi/errors"
)

const (
	ErrUnresolvedReference            errors.Error = "unresolved reference"
	ErrNameCollision                  errors.Error = "name collision"
	ErrUnresolvedDiscriminatorMapping errors.Error = "unresolved discriminator mapping"
	ErrDiscriminatorPropertyConflict  errors.Error = "discriminator property conflict"
	ErrEnumValueCollision             errors.Error = "enum value collision"
	ErrInvalidSchema                  errors.Error = "invalid schema"
	ErrDuplicateOperation             errors.Error = "duplicate operation"
)

// Issue is a single problem found while building the generation model.
type Issue struct {
	Kind    errors.Error
	Subject string
	Path    string
	Message string
}

func (i Issue) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(i.Kind))
	b.WriteString("] ")
	if i.Subject != "" {
		b.WriteString(i.Subject)
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	if i.Path != "" {
		b.WriteString(" (at ")
		b.WriteString(i.Path)
		b.WriteString(")")
	}
	return b.String()
}

func (i Issue) Unwrap() error {
	return i.Kind
}

// FromError turns an error wrapping an issue kind into an Issue. Errors
// without a kind are reported as ErrInvalidSchema.
func FromError(err error, subject string, path Path) Issue {
	kind := ErrInvalidSchema
	var k errors.Error
	if stderrors.As(err, &k) {
		kind = k
	}
	return Issue{
		Kind:    kind,
		Subject: subject,
		Path:    path.String(),
		Message: strings.TrimPrefix(err.Error(), string(kind)+": "),
	}
}

// Report is the aggregated error returned when one or more issues were found.
type Report []Issue

func (r Report) Error() string {
	switch len(r) {
	case 0:
		return "no issues"
	case 1:
		return r[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d issues found:", len(r))
	for _, issue := range r {
		b.WriteString("\n  ")
		b.WriteString(issue.Error())
	}
	return b.String()
}

// Unwrap exposes every issue so errors.Is matches any contained kind.
func (r Report) Unwrap() []error {
	errs := make([]error, len(r))
	for i, issue := range r {
		errs[i] = issue
	}
	return errs
}

// Has reports whether the report contains an issue of the given kind.
func (r Report) Has(kind errors.Error) bool {
	for _, issue := range r {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// Collector accumulates issues across passes. The zero value is ready to use.
type Collector struct {
	issues []Issue
}

func (c *Collector) Add(issue Issue) {
	c.issues = append(c.issues, issue)
}

func (c *Collector) Addf(kind errors.Error, subject, path, format string, args ...any) {
	c.Add(Issue{
		Kind:    kind,
		Subject: subject,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *Collector) Len() int {
	return len(c.issues)
}

func (c *Collector) Issues() []Issue {
	return c.issues
}

// Err returns the collected issues as a Report, or nil when there are none.
func (c *Collector) Err() error {
	if len(c.issues) == 0 {
		return nil
	}
	report := make(Report, len(c.issues))
	copy(report, c.issues)
	return report
}

// Path builds structural locations such as "operation getPet, response 200, property owner".
type Path []string

func (p Path) With(kind, name string) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	if name == "" {
		return append(next, kind)
	}
	return append(next, kind+" "+name)
}

func (p Path) String() string {
	return strings.Join(p, ", ")
}
