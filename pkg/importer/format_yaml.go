package importer

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

func init() {
	Register(&yamlFormat{})
}

// yamlFormat reads a mapping of canonical names to variant sequences.
// Non-sequence values contribute the canonical name alone.
type yamlFormat struct{}

func (yamlFormat) Name() string         { return "yaml" }
func (yamlFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (yamlFormat) Parse(r io.Reader) ([]Row, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml term list must be a mapping, got line %d", root.Line)
	}

	rows := make([]Row, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		row := Row{Canonical: key.Value, Line: key.Line}
		if val.Kind == yaml.SequenceNode {
			for _, item := range val.Content {
				if item.Kind == yaml.ScalarNode {
					row.Variants = append(row.Variants, item.Value)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
