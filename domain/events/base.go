package events

import (
	"time"

	"flowcanvas/domain/core/valueobjects"
)

// Source is the event source name used on the bus
const Source = "flowcanvas.canvas"

// Event type names
const (
	TypeNodePlaced     = "canvas.node_placed"
	TypeNodeMoved      = "canvas.node_moved"
	TypeNodeRenamed    = "canvas.node_renamed"
	TypeNodeRemoved    = "canvas.node_removed"
	TypeNodesConnected = "canvas.nodes_connected"
	TypeEdgeRemoved    = "canvas.edge_removed"
	TypeWorkflowSaved  = "canvas.workflow_saved"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(canvasID, eventType string, version int, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: canvasID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     version,
	}
}

// NodePlaced is raised when a node is dropped onto the canvas
type NodePlaced struct {
	BaseEvent
	NodeID   valueobjects.NodeID   `json:"node_id"`
	Kind     valueobjects.NodeKind `json:"kind"`
	Position valueobjects.Position `json:"position"`
	Label    string                `json:"label"`
}

// NewNodePlaced creates a NodePlaced event
func NewNodePlaced(canvasID string, version int, nodeID valueobjects.NodeID, kind valueobjects.NodeKind, pos valueobjects.Position, label string, at time.Time) NodePlaced {
	return NodePlaced{
		BaseEvent: newBase(canvasID, TypeNodePlaced, version, at),
		NodeID:    nodeID,
		Kind:      kind,
		Position:  pos,
		Label:     label,
	}
}

// NodeMoved is raised when a node is dragged to a new position
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID   `json:"node_id"`
	OldPosition valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(canvasID string, version int, nodeID valueobjects.NodeID, oldPos, newPos valueobjects.Position, at time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBase(canvasID, TypeNodeMoved, version, at),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeRenamed is raised when a node label is edited
type NodeRenamed struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"node_id"`
	OldLabel string              `json:"old_label"`
	NewLabel string              `json:"new_label"`
}

// NewNodeRenamed creates a NodeRenamed event
func NewNodeRenamed(canvasID string, version int, nodeID valueobjects.NodeID, oldLabel, newLabel string, at time.Time) NodeRenamed {
	return NodeRenamed{
		BaseEvent: newBase(canvasID, TypeNodeRenamed, version, at),
		NodeID:    nodeID,
		OldLabel:  oldLabel,
		NewLabel:  newLabel,
	}
}

// NodeRemoved is raised when a node and its incident edges are deleted
type NodeRemoved struct {
	BaseEvent
	NodeID       valueobjects.NodeID   `json:"node_id"`
	RemovedEdges []valueobjects.EdgeID `json:"removed_edges"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(canvasID string, version int, nodeID valueobjects.NodeID, removed []valueobjects.EdgeID, at time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent:    newBase(canvasID, TypeNodeRemoved, version, at),
		NodeID:       nodeID,
		RemovedEdges: removed,
	}
}

// NodesConnected is raised when an edge is created
type NodesConnected struct {
	BaseEvent
	EdgeID       valueobjects.EdgeID   `json:"edge_id"`
	SourceID     valueobjects.NodeID   `json:"source_id"`
	TargetID     valueobjects.NodeID   `json:"target_id"`
	SourceHandle valueobjects.HandleID `json:"source_handle,omitempty"`
	TargetHandle valueobjects.HandleID `json:"target_handle,omitempty"`
}

// NewNodesConnected creates a NodesConnected event
func NewNodesConnected(canvasID string, version int, edgeID valueobjects.EdgeID, source, target valueobjects.NodeID, sourceHandle, targetHandle valueobjects.HandleID, at time.Time) NodesConnected {
	return NodesConnected{
		BaseEvent:    newBase(canvasID, TypeNodesConnected, version, at),
		EdgeID:       edgeID,
		SourceID:     source,
		TargetID:     target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
}

// EdgeRemoved is raised when an edge is explicitly deleted
type EdgeRemoved struct {
	BaseEvent
	EdgeID   valueobjects.EdgeID `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(canvasID string, version int, edgeID valueobjects.EdgeID, source, target valueobjects.NodeID, at time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: newBase(canvasID, TypeEdgeRemoved, version, at),
		EdgeID:    edgeID,
		SourceID:  source,
		TargetID:  target,
	}
}

// WorkflowSaved is raised after a snapshot was handed to the save collaborator
type WorkflowSaved struct {
	BaseEvent
	SaveID    string `json:"save_id"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// NewWorkflowSaved creates a WorkflowSaved event
func NewWorkflowSaved(canvasID string, version int, saveID string, nodeCount, edgeCount int, at time.Time) WorkflowSaved {
	return WorkflowSaved{
		BaseEvent: newBase(canvasID, TypeWorkflowSaved, version, at),
		SaveID:    saveID,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}
