package config

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lankasignal/lankasignal/internal/category"
)

// Categories is the ordered category keyword table. In YAML it is a mapping
// from category name to a list of keywords, each either a bare term or a
// single "term: weight" pair. Mapping order is preserved.
type Categories []CategoryKeywords

type CategoryKeywords struct {
	Name     string
	Keywords []category.Keyword
}

func (c *Categories) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: categories must be a mapping", node.Line)
	}
	out := make(Categories, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, list := node.Content[i], node.Content[i+1]
		if list.Kind != yaml.SequenceNode {
			return fmt.Errorf("line %d: category %q must be a list of keywords", list.Line, name.Value)
		}
		entry := CategoryKeywords{Name: name.Value}
		for _, item := range list.Content {
			kw, err := decodeKeyword(item)
			if err != nil {
				return fmt.Errorf("category %q: %w", name.Value, err)
			}
			entry.Keywords = append(entry.Keywords, kw)
		}
		out = append(out, entry)
	}
	*c = out
	return nil
}

func decodeKeyword(n *yaml.Node) (category.Keyword, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return category.Keyword{Term: n.Value, Weight: category.DefaultWeight}, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return category.Keyword{}, fmt.Errorf("line %d: keyword must be a single term: weight pair", n.Line)
		}
		w, err := strconv.ParseFloat(n.Content[1].Value, 64)
		if err != nil {
			return category.Keyword{}, fmt.Errorf("line %d: weight of %q: %w", n.Line, n.Content[0].Value, err)
		}
		if !(w > 0) || math.IsInf(w, 0) {
			return category.Keyword{}, fmt.Errorf("line %d: weight of %q must be a positive number, got %s", n.Line, n.Content[0].Value, n.Content[1].Value)
		}
		return category.Keyword{Term: n.Content[0].Value, Weight: w}, nil
	default:
		return category.Keyword{}, fmt.Errorf("line %d: unsupported keyword form", n.Line)
	}
}

// Entries converts the table for category.NewTable.
func (c Categories) Entries() []category.Entry {
	out := make([]category.Entry, len(c))
	for i, e := range c {
		out[i] = category.Entry{Name: e.Name, Keywords: e.Keywords}
	}
	return out
}
