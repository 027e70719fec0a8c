package aggregates

import (
	"fmt"
	"time"

	"flowcanvas/domain/config"
	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
)

// Snapshot is an immutable copy of a graph's nodes and edges. It owns no
// reference into the graph, so it is safe to hand to other goroutines.
type Snapshot struct {
	Nodes []NodeSnapshot `json:"nodes"`
	Edges []EdgeSnapshot `json:"edges"`
}

// NodeSnapshot is the exported form of a node
type NodeSnapshot struct {
	ID       valueobjects.NodeID   `json:"id"`
	Kind     valueobjects.NodeKind `json:"type"`
	Position valueobjects.Position `json:"position"`
	Data     NodeData              `json:"data"`
}

// NodeData carries a node's display data
type NodeData struct {
	Label string `json:"label"`
}

// EdgeSnapshot is the exported form of an edge
type EdgeSnapshot struct {
	ID           valueobjects.EdgeID   `json:"id"`
	Source       valueobjects.NodeID   `json:"source"`
	Target       valueobjects.NodeID   `json:"target"`
	SourceHandle valueobjects.HandleID `json:"sourceHandle,omitempty"`
	TargetHandle valueobjects.HandleID `json:"targetHandle,omitempty"`
}

func nodeSnapshot(n *entities.Node) NodeSnapshot {
	return NodeSnapshot{
		ID:       n.ID(),
		Kind:     n.Kind(),
		Position: n.Position(),
		Data:     NodeData{Label: n.Label()},
	}
}

func edgeSnapshot(e *entities.Edge) EdgeSnapshot {
	return EdgeSnapshot{
		ID:           e.ID(),
		Source:       e.Source(),
		Target:       e.Target(),
		SourceHandle: e.SourceHandle(),
		TargetHandle: e.TargetHandle(),
	}
}

// IsEmpty reports whether the snapshot holds no nodes and no edges
func (s Snapshot) IsEmpty() bool {
	return len(s.Nodes) == 0 && len(s.Edges) == 0
}

// Node finds a node by ID
func (s Snapshot) Node(id valueobjects.NodeID) (NodeSnapshot, bool) {
	for _, n := range s.Nodes {
		if n.ID.Equals(id) {
			return n, true
		}
	}
	return NodeSnapshot{}, false
}

// Clone returns a copy that shares no backing arrays with s
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes: make([]NodeSnapshot, len(s.Nodes)),
		Edges: make([]EdgeSnapshot, len(s.Edges)),
	}
	copy(out.Nodes, s.Nodes)
	copy(out.Edges, s.Edges)
	return out
}

// Validate checks that node IDs are unique and every edge endpoint exists
func (s Snapshot) Validate() error {
	seen := make(map[valueobjects.NodeID]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID.IsZero() {
			return fmt.Errorf("node without ID")
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node ID %s", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	edgeIDs := make(map[valueobjects.EdgeID]struct{}, len(s.Edges))
	for _, e := range s.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("duplicate edge ID %s", e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("%w: source %q of edge %s", ErrInvalidEndpoint, e.Source, e.ID)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("%w: target %q of edge %s", ErrInvalidEndpoint, e.Target, e.ID)
		}
	}
	return nil
}

// RestoreGraph rebuilds a graph from a saved snapshot, keeping IDs and order.
// No events are recorded for the restored contents.
func RestoreGraph(id CanvasID, name string, snap Snapshot, rules *config.DomainConfig) (*Graph, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	g, err := NewGraph(name, rules, WithCanvasID(id), WithoutStartNode())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, ns := range snap.Nodes {
		node, err := entities.ReconstructNode(ns.ID, ns.Kind, ns.Position, ns.Data.Label, now)
		if err != nil {
			return nil, err
		}
		g.nodes = append(g.nodes, node)
		g.nodeIndex[node.ID()] = node
	}
	for _, es := range snap.Edges {
		edge, err := entities.NewEdge(es.ID, es.Source, es.Target, entities.Handles{Source: es.SourceHandle, Target: es.TargetHandle})
		if err != nil {
			return nil, err
		}
		g.edges = append(g.edges, edge)
		g.edgeIndex[edge.ID()] = edge
	}
	return g, nil
}
