// Package emit renders a frozen generation model into source artifacts.
package emit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kolah/schemaforge/internal/format"
	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/typemap"
)

// Kind identifies which template renders an artifact.
type Kind string

const (
	KindModel     Kind = "model"
	KindEnum      Kind = "enum"
	KindUnion     Kind = "union"
	KindClient    Kind = "client"
	KindServer    Kind = "server"
	KindModelTest Kind = "model_test"
	KindAPITest   Kind = "api_test"
)

// Output kinds selectable in generation options.
const (
	OutputModels = "models"
	OutputClient = "client"
	OutputServer = "server"
	OutputTests  = "tests"
)

// TemplateSet supplies the template for each artifact kind.
type TemplateSet interface {
	Template(kind Kind) (Template, error)
}

// Template renders one view. Render must not retain or modify the view.
type Template interface {
	Render(view any) (string, error)
}

type Options struct {
	// Workers bounds concurrent rendering. Zero uses GOMAXPROCS.
	Workers              int
	SortParamsByRequired bool
	Logger               *slog.Logger
}

type Emitter struct {
	mapper    *typemap.Mapper
	formatter *format.Formatter
	templates TemplateSet
	workers   int
	sortReq   bool
	logger    *slog.Logger
}

func New(mapper *typemap.Mapper, formatter *format.Formatter, templates TemplateSet, opts Options) *Emitter {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{
		mapper:    mapper,
		formatter: formatter,
		templates: templates,
		workers:   workers,
		sortReq:   opts.SortParamsByRequired,
		logger:    logger,
	}
}

// artifact is a planned output: a template bound to a fully resolved view.
type artifact struct {
	path     string
	kind     Kind
	template Template
	view     any
}

// Emit renders gm into artifacts keyed by relative output path. Views are
// built sequentially; rendering runs concurrently. Either every artifact is
// returned or none is.
func (e *Emitter) Emit(ctx context.Context, gm *model.GenerationModel) (map[string]string, error) {
	artifacts, err := e.plan(gm)
	if err != nil {
		return nil, err
	}

	rendered := make([]string, len(artifacts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, a := range artifacts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := a.template.Render(a.view)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", a.path, err)
			}
			formatted, err := e.formatter.Format(a.path, text)
			if err != nil {
				return err
			}
			rendered[i] = formatted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(artifacts))
	for i, a := range artifacts {
		out[a.path] = rendered[i]
	}
	e.logger.Debug("rendered artifacts", "count", len(out))
	return out, nil
}
