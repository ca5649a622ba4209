package emit

import (
	"path"
	"strings"

	"github.com/kolah/schemaforge/internal/naming"
)

// Layout places artifacts in the directory structure of a target language.
type Layout struct {
	Language string
	Package  string
}

func NewLayout(language, pkg string) Layout {
	return Layout{Language: language, Package: pkg}
}

// ModelPackage is the package generated models live in.
func (l Layout) ModelPackage() string {
	if l.Language == "go" {
		return ""
	}
	return l.join("model")
}

func (l Layout) APIPackage() string {
	if l.Language == "go" {
		return l.GoPackage()
	}
	return l.join("api")
}

// GoPackage is the package clause name of Go artifacts.
func (l Layout) GoPackage() string {
	name := path.Base(strings.ReplaceAll(l.Package, ".", "/"))
	if name == "." || name == "/" || name == "" {
		return "api"
	}
	return naming.SnakeCase(name)
}

func (l Layout) join(sub string) string {
	if l.Package == "" {
		return sub
	}
	return l.Package + "." + sub
}

func (l Layout) ModelPath(typeName string) string {
	return l.source("main", l.ModelPackage(), typeName, "model_")
}

func (l Layout) APIPath(typeName string) string {
	return l.source("main", l.APIPackage(), typeName, "")
}

// TestPath places a test for a model or API type.
func (l Layout) TestPath(typeName, framework string, api bool) string {
	pkg := l.ModelPackage()
	if api {
		pkg = l.APIPackage()
	}
	if l.Language == "go" {
		prefix := "model_"
		if api {
			prefix = "api_"
		}
		return prefix + naming.SnakeCase(typeName) + "_test.go"
	}
	if framework == "spock" {
		return path.Join("src/test/groovy", packageDir(pkg), typeName+"Spec.groovy")
	}
	return l.source("test", pkg, typeName+"Test", "")
}

func (l Layout) source(set, pkg, typeName, goPrefix string) string {
	switch l.Language {
	case "go":
		return goPrefix + naming.SnakeCase(typeName) + ".go"
	case "kotlin":
		return path.Join("src", set, "kotlin", packageDir(pkg), typeName+".kt")
	default:
		return path.Join("src", set, "java", packageDir(pkg), typeName+".java")
	}
}

func packageDir(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}
