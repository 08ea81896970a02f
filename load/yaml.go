package load

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vecport/graph"
)

// YAMLLoader parses YAML documents.
//
// It walks the yaml.v3 node tree rather than unmarshaling into Go maps,
// preserving mapping key order. Scalar keys are used verbatim as
// identifier text; non-scalar keys fail the load.
type YAMLLoader struct{}

// Name returns the unique name of the loader ("yaml").
func (YAMLLoader) Name() string { return "yaml" }

// Load parses data into an object graph.
func (YAMLLoader) Load(data []byte) (*graph.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrDeserialize, err)
	}

	v, err := fromYAMLNode(&root)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrDeserialize, err)
	}
	return v, nil
}

func fromYAMLNode(n *yaml.Node) (*graph.Value, error) {
	switch n.Kind {
	case 0:
		// empty document
		return graph.Null(), nil

	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return graph.Null(), nil
		}
		return fromYAMLNode(n.Content[0])

	case yaml.MappingNode:
		m := graph.Mapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("unsupported non-scalar mapping key at line %d", keyNode.Line)
			}
			val, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, val)
		}
		return m, nil

	case yaml.SequenceNode:
		s := graph.Sequence()
		for _, c := range n.Content {
			val, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			s.Append(val)
		}
		return s, nil

	case yaml.ScalarNode:
		return fromYAMLScalar(n), nil

	case yaml.AliasNode:
		if n.Alias == nil {
			return graph.Null(), nil
		}
		return fromYAMLNode(n.Alias)

	default:
		return nil, fmt.Errorf("unsupported node kind %d", n.Kind)
	}
}

// fromYAMLScalar keeps the source lexeme for numbers whenever it is
// also a valid decimal lexeme; spellings like 0x1a or .inf fall back to
// the decoded value.
func fromYAMLScalar(n *yaml.Node) *graph.Value {
	switch n.Tag {
	case "!!null":
		return graph.Null()

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return graph.Bool(b)
		}
		return graph.String(n.Value)

	case "!!int":
		if _, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			return graph.Number(n.Value)
		}
		var i int64
		if err := n.Decode(&i); err == nil {
			return graph.Int(i)
		}
		return graph.String(n.Value)

	case "!!float":
		if _, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return graph.Number(n.Value)
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			return graph.Float(f)
		}
		return graph.String(n.Value)

	default:
		return graph.String(n.Value)
	}
}
