package entities

import (
	"strings"
	"time"

	"flowcanvas/domain/core/valueobjects"
	pkgerrors "flowcanvas/pkg/errors"
)

// MaxLabelLength bounds a node label
const MaxLabelLength = 200

// Node is a placed, typed element of the workflow graph.
// Kind is fixed at creation; position and label are mutable.
type Node struct {
	id        valueobjects.NodeID
	kind      valueobjects.NodeKind
	position  valueobjects.Position
	label     string
	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewNode creates a node with a fresh ID. An empty label falls back to the
// kind's default label.
func NewNode(kind valueobjects.NodeKind, position valueobjects.Position, label string) (*Node, error) {
	if !kind.Valid() {
		return nil, pkgerrors.NewValidationError("node kind is not registered")
	}

	label, err := normalizeLabel(kind, label)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Node{
		id:        valueobjects.NewNodeID(),
		kind:      kind,
		position:  position,
		label:     label,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// ReconstructNode rebuilds a node from stored data without generating a new ID
func ReconstructNode(id valueobjects.NodeID, kind valueobjects.NodeKind, position valueobjects.Position, label string, createdAt time.Time) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID is required")
	}
	if !kind.Valid() {
		return nil, pkgerrors.NewValidationError("node kind is not registered")
	}
	label, err := normalizeLabel(kind, label)
	if err != nil {
		return nil, err
	}
	return &Node{
		id:        id,
		kind:      kind,
		position:  position,
		label:     label,
		createdAt: createdAt,
		updatedAt: createdAt,
		version:   1,
	}, nil
}

func (n *Node) ID() valueobjects.NodeID         { return n.id }
func (n *Node) Kind() valueobjects.NodeKind     { return n.kind }
func (n *Node) Position() valueobjects.Position { return n.position }
func (n *Node) Label() string                   { return n.label }
func (n *Node) CreatedAt() time.Time            { return n.createdAt }
func (n *Node) UpdatedAt() time.Time            { return n.updatedAt }
func (n *Node) Version() int                    { return n.version }

// MoveTo sets a new position. Reports false when the position is unchanged.
func (n *Node) MoveTo(position valueobjects.Position) bool {
	if n.position.Equals(position) {
		return false
	}
	n.position = position
	n.touch()
	return true
}

// Relabel replaces the display label
func (n *Node) Relabel(label string) error {
	label, err := normalizeLabel(n.kind, label)
	if err != nil {
		return err
	}
	if label == n.label {
		return nil
	}
	n.label = label
	n.touch()
	return nil
}

// Clone returns an independent copy of the node
func (n *Node) Clone() *Node {
	c := *n
	return &c
}

func (n *Node) touch() {
	n.updatedAt = time.Now()
	n.version++
}

func normalizeLabel(kind valueobjects.NodeKind, label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return kind.DefaultLabel(), nil
	}
	if len(label) > MaxLabelLength {
		return "", pkgerrors.NewValidationError("label too long").
			WithDetails(map[string]interface{}{"max": MaxLabelLength})
	}
	return label, nil
}
