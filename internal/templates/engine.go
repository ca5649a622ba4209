package templates

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
)

type Engine interface {
	Execute(name string, data any) (string, error)
	Has(name string) bool
}

// TextTemplateEngine parses the built-in templates and then any templates in
// a custom directory. A custom template replaces the built-in one of the same
// name. Custom templates outside a directory for scope are read as if they
// were inside it, so "model.tmpl" overrides "java/model.tmpl" in a Java run.
type TextTemplateEngine struct {
	templates *template.Template
	funcs     template.FuncMap
	embedded  fs.FS
	customDir string
	scope     string
}

func NewEngine(embedded fs.FS, customDir, scope string, funcs template.FuncMap) (*TextTemplateEngine, error) {
	e := &TextTemplateEngine{
		embedded:  embedded,
		customDir: customDir,
		scope:     scope,
		funcs:     funcs,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *TextTemplateEngine) load() error {
	e.templates = template.New("").Funcs(e.funcs)

	if err := e.parseFS(e.embedded, "embedded", ""); err != nil {
		return fmt.Errorf("loading embedded templates: %w", err)
	}

	if e.customDir == "" {
		return nil
	}
	if _, err := os.Stat(e.customDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := e.parseFS(os.DirFS(e.customDir), "custom", e.scope); err != nil {
		return fmt.Errorf("loading custom templates: %w", err)
	}
	return nil
}

// parseFS adds every .tmpl file of fsys under its slash-separated path.
func (e *TextTemplateEngine) parseFS(fsys fs.FS, origin, scope string) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s template %s: %w", origin, path, err)
		}
		name := path
		if scope != "" && !strings.HasPrefix(name, scope+"/") {
			name = scope + "/" + name
		}
		if _, err := e.templates.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s template %s: %w", origin, path, err)
		}
		return nil
	})
}

func (e *TextTemplateEngine) Has(name string) bool {
	return e.templates.Lookup(name) != nil
}

func (e *TextTemplateEngine) Execute(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}
