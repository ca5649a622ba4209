// Package inline promotes anonymous schemas to named registry entries so that
// every later pass and every template works with named types only.
package inline

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kolah/schemaforge/internal/model"
	"github.com/kolah/schemaforge/internal/naming"
	"github.com/kolah/schemaforge/internal/registry"
)

// NameExtension overrides the synthesized name of an inline schema.
const NameExtension = "x-forge-name"

type Options struct {
	Logger *slog.Logger
}

type Resolver struct {
	reg    *registry.Registry
	logger *slog.Logger

	// done maps visited nodes to the registry name that now stands for them.
	done map[*model.Schema]string
	// active holds the nodes currently being visited, with the placeholder
	// references created for back edges into them.
	active   map[*model.Schema][]*model.Schema
	promoted int
}

func New(reg *registry.Registry, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		reg:    reg,
		logger: logger,
		done:   make(map[*model.Schema]string),
		active: make(map[*model.Schema][]*model.Schema),
	}
}

// Resolve walks registry entries first, then operations in declaration order,
// replacing every promotable inline schema by a reference. It returns the
// number of new registry entries.
func (r *Resolver) Resolve(spec *model.Spec) int {
	entries := r.reg.Entries()
	for _, e := range entries {
		r.done[e.Schema] = e.Name
	}
	for _, e := range entries {
		r.children(e.Schema, e.Name)
	}
	if spec != nil {
		for i := range spec.Operations {
			op := &spec.Operations[i]
			prefix := naming.TypeName(op.ID)
			for _, slot := range op.Slots() {
				r.visit(slot.Ptr, operationAnchor(prefix, slot))
			}
		}
	}
	return r.promoted
}

func operationAnchor(prefix string, slot model.OperationSlot) string {
	switch slot.Role {
	case "parameter":
		return prefix + naming.TypeName(slot.Name)
	case "request body":
		return prefix + "Request"
	case "header":
		status, header, _ := strings.Cut(slot.Name, " ")
		return prefix + naming.TypeName(status) + naming.TypeName(header) + "Header"
	default:
		return prefix + naming.TypeName(slot.Name) + "Response"
	}
}

func (r *Resolver) children(s *model.Schema, anchor string) {
	for _, slot := range s.Slots() {
		var child string
		switch slot.Role {
		case model.SlotProperty:
			child = anchor + naming.TypeName(slot.Name)
		case model.SlotItems:
			child = anchor + "Item"
		case model.SlotValue:
			child = anchor + "Value"
		case model.SlotMember:
			child = anchor + naming.TypeName(string(s.Composition)) + strconv.Itoa(slot.Index)
		}
		r.visit(slot.Ptr, child)
	}
}

func (r *Resolver) visit(ptr **model.Schema, anchor string) {
	s := *ptr
	if s == nil || s.IsReference() {
		return
	}
	if name, ok := r.done[s]; ok {
		*ptr = model.NewRef(name)
		return
	}
	if placeholders, ok := r.active[s]; ok {
		ref := &model.Schema{Kind: model.KindReference}
		r.active[s] = append(placeholders, ref)
		*ptr = ref
		return
	}

	r.active[s] = nil
	r.children(s, anchor)
	placeholders := r.active[s]
	delete(r.active, s)

	// A node on a cycle has to be named even if it would otherwise stay inline.
	if !promotable(s) && len(placeholders) == 0 {
		return
	}
	name := r.name(s, anchor, placeholders)
	r.done[s] = name
	*ptr = model.NewRef(name)
}

func (r *Resolver) name(s *model.Schema, anchor string, placeholders []*model.Schema) string {
	if len(placeholders) == 0 {
		if existing, ok := r.reg.FindEqual(s); ok {
			return existing
		}
	}
	base := candidate(s, anchor)
	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s%d", base, i)
		}
		for _, ref := range placeholders {
			ref.Ref = name
		}
		existing, ok := r.reg.Lookup(name)
		if !ok {
			if err := r.reg.Register(name, s); err != nil {
				continue
			}
			r.promoted++
			r.logger.Debug("promoted inline schema", slog.String("schema", name), slog.String("anchor", anchor))
			return name
		}
		if registry.Equal(existing, s) {
			return r.reg.Canonical(name)
		}
	}
}

func candidate(s *model.Schema, anchor string) string {
	name := s.Extension(NameExtension)
	if name == "" {
		name = s.Title
	}
	if name == "" {
		name = anchor
	}
	if id := naming.TypeName(name); id != "" {
		return id
	}
	return "InlineModel"
}

// promotable reports whether s gains anything from being a named type.
// Primitives, arrays and free-form maps stay inline.
func promotable(s *model.Schema) bool {
	switch s.Kind {
	case model.KindObject:
		return len(s.Properties) > 0
	case model.KindEnum:
		return true
	case model.KindComposed:
		return !s.IsWrapper()
	}
	return false
}
