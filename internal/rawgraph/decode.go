package rawgraph

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Decode reads a raw graph serialized as YAML (or JSON).
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding schema graph: %w", err)
	}
	if !doc.Dialect.Valid() {
		return nil, fmt.Errorf("decoding schema graph: unknown dialect %q (valid: 3.0, 3.1)", doc.Dialect)
	}
	return &doc, nil
}

// eachPair walks a mapping node in document order.
func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("line %d: schema must be a mapping or a boolean", node.Line)
		}
		s.Bool = &b
		return nil
	}

	type plain Schema
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Schema(p)

	return eachPair(node, func(key string, value *yaml.Node) error {
		switch {
		case key == "const":
			if err := value.Decode(&s.Const); err != nil {
				return err
			}
			s.HasConst = true
		case strings.HasPrefix(key, "x-"):
			var v any
			if err := value.Decode(&v); err != nil {
				return err
			}
			s.Extensions = append(s.Extensions, Extension{Key: key, Value: v})
		}
		return nil
	})
}

func (t *Types) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = Types{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	return fmt.Errorf("line %d: type must be a string or a list", node.Line)
}

func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: exclusive bound must be a boolean or a number", node.Line)
	}
	if node.ShortTag() == "!!bool" {
		var flag bool
		if err := node.Decode(&flag); err != nil {
			return err
		}
		b.Flag = &flag
		return nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("line %d: exclusive bound must be a boolean or a number", node.Line)
	}
	b.Value = &v
	return nil
}

func (n *NamedSchemas) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var s Schema
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("schema %s: %w", key, err)
		}
		*n = append(*n, NamedSchema{Name: key, Schema: &s})
		return nil
	})
}

func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var s Schema
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
		*p = append(*p, Property{Name: key, Schema: &s})
		return nil
	})
}

func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		*m = append(*m, MappingEntry{Value: key, Ref: value.Value})
		return nil
	})
}

func (c *Contents) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var media struct {
			Schema *Schema `yaml:"schema"`
		}
		if err := value.Decode(&media); err != nil {
			return fmt.Errorf("content %s: %w", key, err)
		}
		*c = append(*c, MediaType{Name: key, Schema: media.Schema})
		return nil
	})
}

func (r *Responses) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var resp Response
		if err := value.Decode(&resp); err != nil {
			return fmt.Errorf("response %s: %w", key, err)
		}
		resp.Status = key
		*r = append(*r, resp)
		return nil
	})
}

func (h *Headers) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var header Header
		if err := value.Decode(&header); err != nil {
			return fmt.Errorf("header %s: %w", key, err)
		}
		header.Name = key
		*h = append(*h, header)
		return nil
	})
}

func (o *Operation) UnmarshalYAML(node *yaml.Node) error {
	type plain Operation
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*o = Operation(p)
	return eachPair(node, func(key string, _ *yaml.Node) error {
		if key == "security" {
			o.SecurityDefined = true
		}
		return nil
	})
}
