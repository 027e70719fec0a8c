package palette

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"flowcanvas/domain/core/valueobjects"
)

// File is the on-disk palette format:
//
//	palette:
//	  - kind: task
//	    label: Task
//	    icon: square-check
//	    draggable: true
type File struct {
	Palette []FileEntry `yaml:"palette"`
}

// FileEntry is one palette entry in a file. Draggable defaults to true.
type FileEntry struct {
	Kind      valueobjects.NodeKind `yaml:"kind"`
	Label     string                `yaml:"label"`
	Icon      string                `yaml:"icon"`
	Class     string                `yaml:"class"`
	Draggable *bool                 `yaml:"draggable"`
	Handles   []HandleSpec          `yaml:"handles"`
}

// Load decodes a palette file into a registry
func Load(r io.Reader) (*Registry, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("palette file is empty")
		}
		return nil, fmt.Errorf("failed to decode palette: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(f.Palette))
	for _, e := range f.Palette {
		draggable := true
		if e.Draggable != nil {
			draggable = *e.Draggable
		}
		descriptors = append(descriptors, Descriptor{
			Kind:      e.Kind,
			Label:     e.Label,
			Icon:      e.Icon,
			Class:     e.Class,
			Draggable: draggable,
			Handles:   e.Handles,
		})
	}
	return NewRegistry(descriptors...)
}

// LoadFile reads a palette file from disk
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open palette file: %w", err)
	}
	defer f.Close()

	reg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}
