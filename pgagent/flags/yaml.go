package flags

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
)

// MarshalYAML writes "*", "-" or a sequence; numeric labels are emitted as integers.
func (f Flag) MarshalYAML() (interface{}, error) {
	switch f.kind {
	case KindAll:
		return AllToken, nil
	case KindNone:
		return NoneToken, nil
	case KindSubset:
		node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, label := range f.labels {
			tag := "!!str"
			if _, err := strconv.Atoi(label); err == nil {
				tag = "!!int"
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: label})
		}
		return node, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML accepts "*", "-", null (unset) or a sequence of scalar labels.
func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		switch {
		case value.Tag == "!!null":
			*f = Flag{}
		case value.Value == AllToken:
			*f = All()
		case value.Value == NoneToken:
			*f = None()
		default:
			return errors.Mark(
				errors.Newf("line %d: flag set must be %q, %q or a list, got %q",
					value.Line, AllToken, NoneToken, value.Value),
				errors.ErrInvalidDocument,
			)
		}
		return nil
	case yaml.SequenceNode:
		labels := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return errors.Mark(
					errors.Newf("line %d: flag labels must be scalars", item.Line),
					errors.ErrInvalidDocument,
				)
			}
			labels = append(labels, item.Value)
		}
		*f = Subset(labels...)
		return nil
	default:
		return errors.Mark(
			errors.Newf("line %d: unsupported flag set node", value.Line),
			errors.ErrInvalidDocument,
		)
	}
}

// IsZero lets yaml omitempty drop unset flags.
func (f Flag) IsZero() bool { return f.kind == KindUnset }
