// Package templates renders artifacts with text/template. Built-in templates
// are embedded; a custom directory can override any of them by name.
package templates

import (
	"fmt"
	"io/fs"

	"github.com/kolah/schemaforge/internal/emit"
	builtin "github.com/kolah/schemaforge/templates"
)

// DefaultTestFramework is the test framework used when none is configured.
var DefaultTestFramework = map[string]string{
	"java":   "junit",
	"kotlin": "junit",
	"go":     "testing",
}

// TestFrameworks lists the test frameworks each language has templates for.
var TestFrameworks = map[string][]string{
	"java":   {"junit", "spock"},
	"kotlin": {"junit", "kotest"},
	"go":     {"testing"},
}

// Set serves the templates of one language and test framework.
type Set struct {
	engine        Engine
	language      string
	testFramework string
}

// NewSet loads the built-in templates and those in customDir, if set.
func NewSet(language, testFramework, customDir string) (*Set, error) {
	return NewSetFS(builtin.FS, language, testFramework, customDir)
}

func NewSetFS(embedded fs.FS, language, testFramework, customDir string) (*Set, error) {
	engine, err := NewEngine(embedded, customDir, language, Funcs(language))
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}
	if testFramework == "" {
		testFramework = DefaultTestFramework[language]
	}
	return &Set{engine: engine, language: language, testFramework: testFramework}, nil
}

// Name is the template name serving kind, e.g. "java/model.tmpl" or
// "kotlin/kotest/model_test.tmpl".
func (s *Set) Name(kind emit.Kind) string {
	switch kind {
	case emit.KindModelTest, emit.KindAPITest:
		return s.language + "/" + s.testFramework + "/" + string(kind) + ".tmpl"
	}
	return s.language + "/" + string(kind) + ".tmpl"
}

func (s *Set) Template(kind emit.Kind) (emit.Template, error) {
	name := s.Name(kind)
	if !s.engine.Has(name) {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return bound{engine: s.engine, name: name}, nil
}

type bound struct {
	engine Engine
	name   string
}

func (b bound) Render(view any) (string, error) {
	return b.engine.Execute(b.name, view)
}
