// Package typemap maps canonical schema nodes to target language type
// expressions and the imports they need.
package typemap

import (
	"maps"
	"slices"
	"strings"
)

type Container string

const (
	ContainerNone Container = ""
	ContainerList Container = "list"
	ContainerSet  Container = "set"
	ContainerMap  Container = "map"
)

// TypeExpr is a resolved type as it is written in generated source.
type TypeExpr struct {
	// Name is the full type, including any nullable decoration.
	Name string
	// Base is the type without nullable decoration.
	Base string
	// Model is the registry name of the generated model Base refers to.
	Model     string
	Container Container
	// Item is the element type of a list or set, or the value type of a map.
	Item     *TypeExpr
	Nullable bool
	// Annotations are declaration annotations such as @Nullable.
	Annotations []string
}

func (t TypeExpr) String() string {
	return t.Name
}

// Models lists the generated models t refers to, including through containers.
func (t TypeExpr) Models() []string {
	var out []string
	for e := &t; e != nil; e = e.Item {
		if e.Model != "" && !slices.Contains(out, e.Model) {
			out = append(out, e.Model)
		}
	}
	return out
}

// ImportSet is a set of import paths.
type ImportSet map[string]bool

func NewImportSet(paths ...string) ImportSet {
	s := make(ImportSet)
	s.Add(paths...)
	return s
}

func (s ImportSet) Add(paths ...string) {
	for _, p := range paths {
		if p != "" {
			s[p] = true
		}
	}
}

func (s ImportSet) Merge(other ImportSet) {
	maps.Copy(s, other)
}

func (s ImportSet) Clone() ImportSet {
	if s == nil {
		return make(ImportSet)
	}
	return maps.Clone(s)
}

// Sorted returns the imports in lexical order.
func (s ImportSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Without drops imports that live directly in pkg, e.g. same-package
// model classes.
func (s ImportSet) Without(pkg string) ImportSet {
	out := make(ImportSet, len(s))
	for p := range s {
		if p == pkg {
			continue
		}
		if i := strings.LastIndex(p, "."); i > 0 && p[:i] == pkg {
			continue
		}
		out[p] = true
	}
	return out
}
