// Package palette is the node-type registry: the ordered catalog of element
// kinds a canvas offers, with their labels, visual classes and handles.
package palette

import (
	"fmt"
	"strings"

	"flowcanvas/domain/core/valueobjects"
)

// HandleType is the direction of a connection handle
type HandleType string

const (
	HandleSource HandleType = "source"
	HandleTarget HandleType = "target"
)

// Side is the node boundary a handle sits on
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// HandleSpec describes one connection point of a kind
type HandleSpec struct {
	ID   valueobjects.HandleID `json:"id,omitempty" yaml:"id"`
	Type HandleType            `json:"type" yaml:"type"`
	Side Side                  `json:"side" yaml:"side"`
}

// Descriptor is one registered node kind
type Descriptor struct {
	Kind      valueobjects.NodeKind `json:"kind"`
	Label     string                `json:"label"`
	Icon      string                `json:"icon,omitempty"`
	Class     string                `json:"class"`
	Draggable bool                  `json:"draggable"`
	Handles   []HandleSpec          `json:"handles"`
}

// Handle finds a handle of the descriptor by ID and type
func (d Descriptor) Handle(id valueobjects.HandleID, typ HandleType) (HandleSpec, bool) {
	for _, h := range d.Handles {
		if h.ID == id && h.Type == typ {
			return h, true
		}
	}
	return HandleSpec{}, false
}

func (d Descriptor) clone() Descriptor {
	d.Handles = append([]HandleSpec(nil), d.Handles...)
	return d
}

// Registry is an immutable, ordered set of descriptors. Each canvas holds its
// own registry, so independent canvases can offer different palettes.
type Registry struct {
	entries []Descriptor
	byKind  map[valueobjects.NodeKind]int
}

// NewRegistry validates and orders descriptors. Labels default to the kind's
// label, classes to "node-<tag>" and handles to a target on top and a source
// at the bottom.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("palette needs at least one node kind")
	}

	r := &Registry{
		entries: make([]Descriptor, 0, len(descriptors)),
		byKind:  make(map[valueobjects.NodeKind]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("palette entry %q: unknown node kind", d.Label)
		}
		if _, dup := r.byKind[d.Kind]; dup {
			return nil, fmt.Errorf("palette entry %q: kind %s registered twice", d.Label, d.Kind)
		}

		d = d.clone()
		d.Label = strings.TrimSpace(d.Label)
		if d.Label == "" {
			d.Label = d.Kind.DefaultLabel()
		}
		if d.Class == "" {
			d.Class = "node-" + d.Kind.String()
		}
		if len(d.Handles) == 0 {
			d.Handles = defaultHandles()
		}
		if err := validateHandles(d.Handles); err != nil {
			return nil, fmt.Errorf("palette entry %q: %w", d.Label, err)
		}

		r.byKind[d.Kind] = len(r.entries)
		r.entries = append(r.entries, d)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static descriptor sets
func MustRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultDescriptors is the stock catalog: a non-draggable Start input
// followed by the four draggable workflow elements.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Kind:    valueobjects.KindInput,
			Label:   "Start",
			Icon:    "play",
			Handles: []HandleSpec{{Type: HandleSource, Side: SideBottom}},
		},
		{Kind: valueobjects.KindTask, Label: "Task", Icon: "square-check", Draggable: true},
		{Kind: valueobjects.KindApproval, Label: "Approval", Icon: "badge-check", Draggable: true},
		{Kind: valueobjects.KindNotification, Label: "Notification", Icon: "bell", Draggable: true},
		{
			Kind:      valueobjects.KindCondition,
			Label:     "Condition",
			Icon:      "git-branch",
			Draggable: true,
			Handles: []HandleSpec{
				{Type: HandleTarget, Side: SideTop},
				{ID: "yes", Type: HandleSource, Side: SideBottom},
				{ID: "no", Type: HandleSource, Side: SideRight},
			},
		},
	}
}

// DefaultRegistry returns a registry of DefaultDescriptors
func DefaultRegistry() *Registry {
	return MustRegistry(DefaultDescriptors()...)
}

// ListTypes returns every registered descriptor in order
func (r *Registry) ListTypes() []Descriptor {
	out := make([]Descriptor, len(r.entries))
	for i, d := range r.entries {
		out[i] = d.clone()
	}
	return out
}

// Palette returns the draggable descriptors in order
func (r *Registry) Palette() []Descriptor {
	out := make([]Descriptor, 0, len(r.entries))
	for _, d := range r.entries {
		if d.Draggable {
			out = append(out, d.clone())
		}
	}
	return out
}

// Lookup returns the descriptor for a kind
func (r *Registry) Lookup(kind valueobjects.NodeKind) (Descriptor, bool) {
	i, ok := r.byKind[kind]
	if !ok {
		return Descriptor{}, false
	}
	return r.entries[i].clone(), true
}

// Len returns the number of registered kinds
func (r *Registry) Len() int {
	return len(r.entries)
}

// Parse resolves a drag transfer payload to a registered kind. The payload may
// be the kind tag or the palette label, in any case.
func (r *Registry) Parse(payload string) (valueobjects.NodeKind, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return valueobjects.KindUnspecified, false
	}
	for _, d := range r.entries {
		if strings.EqualFold(d.Label, payload) || strings.EqualFold(d.Kind.String(), payload) {
			return d.Kind, true
		}
	}
	return valueobjects.KindUnspecified, false
}

func defaultHandles() []HandleSpec {
	return []HandleSpec{
		{Type: HandleTarget, Side: SideTop},
		{Type: HandleSource, Side: SideBottom},
	}
}

func validateHandles(handles []HandleSpec) error {
	type key struct {
		id  valueobjects.HandleID
		typ HandleType
	}
	seen := make(map[key]bool, len(handles))
	for _, h := range handles {
		switch h.Type {
		case HandleSource, HandleTarget:
		default:
			return fmt.Errorf("handle %q: type must be source or target", h.ID)
		}
		switch h.Side {
		case SideTop, SideBottom, SideLeft, SideRight:
		default:
			return fmt.Errorf("handle %q: invalid side %q", h.ID, h.Side)
		}
		k := key{h.ID, h.Type}
		if seen[k] {
			return fmt.Errorf("handle %q declared twice as %s", h.ID, h.Type)
		}
		seen[k] = true
	}
	return nil
}

// Current returns r itself, so a fixed registry can stand in wherever a
// reloading palette source is accepted.
func (r *Registry) Current() *Registry {
	return r
}
