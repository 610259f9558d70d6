package labels

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClassTable maps a detector class index to a class name.
// It is loaded once at startup and only read afterwards.
type ClassTable map[int]string

// Name returns the class name for idx.
func (t ClassTable) Name(idx int) (string, bool) {
	name, ok := t[idx]
	return name, ok
}

// datasetFile is the subset of a YOLOv5 dataset YAML we care about.
// names is either a sequence or an index → name mapping.
type datasetFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadClassTable reads a dataset YAML file from path.
func LoadClassTable(path string) (ClassTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class table: %w", err)
	}
	return ParseClassTable(data)
}

// ParseClassTable decodes the "names" key of a dataset YAML document.
func ParseClassTable(data []byte) (ClassTable, error) {
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode class table: %w", err)
	}

	table := make(ClassTable)

	switch f.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := f.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode class names: %w", err)
		}
		for i, name := range names {
			table[i] = name
		}
	case yaml.MappingNode:
		var names map[int]string
		if err := f.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode class names: %w", err)
		}
		for i, name := range names {
			if i < 0 {
				return nil, fmt.Errorf("class index %d is negative", i)
			}
			table[i] = name
		}
	case 0:
		return nil, fmt.Errorf("class table: missing names")
	default:
		return nil, fmt.Errorf("class table: names must be a list or a mapping")
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("class table: no class names")
	}

	return table, nil
}
