package entities

import (
	"time"

	"flowcanvas/domain/core/valueobjects"
	pkgerrors "flowcanvas/pkg/errors"
)

// Handles names the connection points an edge is attached to.
// Empty handles mean the node's default handle.
type Handles struct {
	Source valueobjects.HandleID
	Target valueobjects.HandleID
}

// Edge is a directed connection between two nodes' handles
type Edge struct {
	id           valueobjects.EdgeID
	source       valueobjects.NodeID
	target       valueobjects.NodeID
	sourceHandle valueobjects.HandleID
	targetHandle valueobjects.HandleID
	createdAt    time.Time
}

// NewEdge creates an edge with the given ID. Endpoint existence is the
// graph's responsibility.
func NewEdge(id valueobjects.EdgeID, source, target valueobjects.NodeID, handles Handles) (*Edge, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("edge ID is required")
	}
	if source.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints are required")
	}
	return &Edge{
		id:           id,
		source:       source,
		target:       target,
		sourceHandle: handles.Source,
		targetHandle: handles.Target,
		createdAt:    time.Now(),
	}, nil
}

func (e *Edge) ID() valueobjects.EdgeID             { return e.id }
func (e *Edge) Source() valueobjects.NodeID         { return e.source }
func (e *Edge) Target() valueobjects.NodeID         { return e.target }
func (e *Edge) SourceHandle() valueobjects.HandleID { return e.sourceHandle }
func (e *Edge) TargetHandle() valueobjects.HandleID { return e.targetHandle }
func (e *Edge) Handles() Handles                    { return Handles{Source: e.sourceHandle, Target: e.targetHandle} }
func (e *Edge) CreatedAt() time.Time                { return e.createdAt }

// Touches reports whether the node is either endpoint
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.source.Equals(id) || e.target.Equals(id)
}

// IsSelfLoop reports whether source and target are the same node
func (e *Edge) IsSelfLoop() bool {
	return e.source.Equals(e.target)
}

// SameConnection reports whether two edges join the same handles
func (e *Edge) SameConnection(source, target valueobjects.NodeID, handles Handles) bool {
	return e.source.Equals(source) && e.target.Equals(target) &&
		e.sourceHandle == handles.Source && e.targetHandle == handles.Target
}

// Clone returns an independent copy of the edge
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}
