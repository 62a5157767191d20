package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or a list of strings in the
// manifest, matching the chunk-alias configuration surface.
type StringList []string

// UnmarshalTOML implements toml.Unmarshaler.
func (l *StringList) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*l = StringList{v}
		return nil
	case []any:
		out := make(StringList, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("manifest: expected string in list, got %T", item)
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("manifest: expected string or list of strings, got %T", data)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = StringList(list)
		return nil
	default:
		return fmt.Errorf("manifest: expected string or list of strings at line %d", node.Line)
	}
}
