package aggregates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowcanvas/domain/config"
	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/events"
)

// Graph store errors. None of them leave the graph partially modified.
var (
	ErrInvalidEndpoint    = errors.New("edge endpoint does not exist")
	ErrDuplicateEdge      = errors.New("edge already exists")
	ErrSelfLoop           = errors.New("self connections are not allowed")
	ErrStaleNodeReference = errors.New("node no longer exists")
	ErrNodeNotFound       = errors.New("node not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrGraphLimit         = errors.New("graph limit reached")
)

// CanvasID identifies one builder session's graph
type CanvasID string

// NewCanvasID creates a new time-ordered CanvasID
func NewCanvasID() CanvasID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return CanvasID(id.String())
}

// String returns the string representation
func (id CanvasID) String() string {
	return string(id)
}

// Graph is the aggregate root of a workflow canvas. It exclusively owns the
// node and edge collections; callers only ever receive copies.
type Graph struct {
	id    CanvasID
	name  string
	rules *config.DomainConfig

	nodes     []*entities.Node
	nodeIndex map[valueobjects.NodeID]*entities.Node
	edges     []*entities.Edge
	edgeIndex map[valueobjects.EdgeID]*entities.Edge

	createdAt time.Time
	updatedAt time.Time
	version   int
	events    []events.DomainEvent
}

// GraphOption customises a new graph
type GraphOption func(*graphOptions)

type graphOptions struct {
	id        CanvasID
	seedStart *bool
}

// WithCanvasID fixes the graph ID instead of generating one
func WithCanvasID(id CanvasID) GraphOption {
	return func(o *graphOptions) { o.id = id }
}

// WithoutStartNode creates an empty graph regardless of the rules
func WithoutStartNode() GraphOption {
	return func(o *graphOptions) {
		seed := false
		o.seedStart = &seed
	}
}

// NewGraph creates a graph governed by rules. With SeedStartNode set the graph
// starts with a single input node.
func NewGraph(name string, rules *config.DomainConfig, opts ...GraphOption) (*Graph, error) {
	if rules == nil {
		rules = config.DefaultDomainConfig()
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	o := graphOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = NewCanvasID()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled workflow"
	}

	now := time.Now()
	g := &Graph{
		id:        o.id,
		name:      name,
		rules:     rules,
		nodeIndex: make(map[valueobjects.NodeID]*entities.Node),
		edgeIndex: make(map[valueobjects.EdgeID]*entities.Edge),
		createdAt: now,
		updatedAt: now,
		version:   1,
	}

	seed := rules.SeedStartNode
	if o.seedStart != nil {
		seed = *o.seedStart
	}
	if seed {
		pos, err := valueobjects.NewPosition(rules.StartNodeX, rules.StartNodeY)
		if err != nil {
			return nil, err
		}
		if _, err := g.AddNode(valueobjects.KindInput, pos); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *Graph) ID() CanvasID                { return g.id }
func (g *Graph) Name() string                { return g.name }
func (g *Graph) Rules() *config.DomainConfig { return g.rules }
func (g *Graph) CreatedAt() time.Time        { return g.createdAt }
func (g *Graph) UpdatedAt() time.Time        { return g.updatedAt }
func (g *Graph) Version() int                { return g.version }
func (g *Graph) NodeCount() int              { return len(g.nodes) }
func (g *Graph) EdgeCount() int              { return len(g.edges) }

// AddNode appends a node with a fresh ID. The label defaults to the kind's
// label when omitted.
func (g *Graph) AddNode(kind valueobjects.NodeKind, pos valueobjects.Position, label ...string) (*entities.Node, error) {
	if limit := g.rules.MaxNodesPerGraph; limit > 0 && len(g.nodes) >= limit {
		return nil, fmt.Errorf("%w: at most %d nodes", ErrGraphLimit, limit)
	}

	var l string
	if len(label) > 0 {
		l = label[0]
	}
	node, err := entities.NewNode(kind, pos, l)
	if err != nil {
		return nil, err
	}
	// UUIDv7 collisions are not expected, but the ID must stay unique.
	for g.nodeIndex[node.ID()] != nil {
		node, _ = entities.NewNode(kind, pos, l)
	}

	g.nodes = append(g.nodes, node)
	g.nodeIndex[node.ID()] = node
	g.bump()
	g.addEvent(events.NewNodePlaced(g.id.String(), g.version, node.ID(), kind, pos, node.Label(), g.updatedAt))

	return node.Clone(), nil
}

// UpdateNodePosition moves a node. A missing node is a no-op unless strict
// position updates are configured, then it is ErrStaleNodeReference.
func (g *Graph) UpdateNodePosition(id valueobjects.NodeID, pos valueobjects.Position) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		if g.rules.StrictPositionUpdates {
			return fmt.Errorf("%w: %s", ErrStaleNodeReference, id)
		}
		return nil
	}

	old := node.Position()
	if !node.MoveTo(pos) {
		return nil
	}
	g.bump()
	g.addEvent(events.NewNodeMoved(g.id.String(), g.version, id, old, pos, g.updatedAt))
	return nil
}

// RenameNode replaces a node's label
func (g *Graph) RenameNode(id valueobjects.NodeID, label string) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	old := node.Label()
	if err := node.Relabel(label); err != nil {
		return err
	}
	if node.Label() == old {
		return nil
	}
	g.bump()
	g.addEvent(events.NewNodeRenamed(g.id.String(), g.version, id, old, node.Label(), g.updatedAt))
	return nil
}

// AddEdge connects source to target. Both endpoints must exist. Exact
// duplicates and self loops are rejected according to the graph rules;
// cycles are allowed.
func (g *Graph) AddEdge(source, target valueobjects.NodeID, handles entities.Handles) (*entities.Edge, error) {
	if _, ok := g.nodeIndex[source]; !ok {
		return nil, fmt.Errorf("%w: source %q", ErrInvalidEndpoint, source)
	}
	if _, ok := g.nodeIndex[target]; !ok {
		return nil, fmt.Errorf("%w: target %q", ErrInvalidEndpoint, target)
	}
	if !g.rules.AllowSelfConnections && source.Equals(target) {
		return nil, ErrSelfLoop
	}
	if !g.rules.AllowDuplicateEdges {
		for _, e := range g.edges {
			if e.SameConnection(source, target, handles) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateEdge, e.ID())
			}
		}
	}
	if limit := g.rules.MaxEdgesPerGraph; limit > 0 && len(g.edges) >= limit {
		return nil, fmt.Errorf("%w: at most %d edges", ErrGraphLimit, limit)
	}

	edge, err := entities.NewEdge(g.nextEdgeID(source, target, handles), source, target, handles)
	if err != nil {
		return nil, err
	}

	g.edges = append(g.edges, edge)
	g.edgeIndex[edge.ID()] = edge
	g.bump()
	g.addEvent(events.NewNodesConnected(g.id.String(), g.version, edge.ID(), source, target, handles.Source, handles.Target, g.updatedAt))

	return edge.Clone(), nil
}

// RemoveNode deletes a node and every edge that references it. It returns
// the IDs of the removed edges in insertion order.
func (g *Graph) RemoveNode(id valueobjects.NodeID) ([]valueobjects.EdgeID, error) {
	if _, ok := g.nodeIndex[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	removed := []valueobjects.EdgeID{}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Touches(id) {
			removed = append(removed, e.ID())
			delete(g.edgeIndex, e.ID())
			continue
		}
		kept = append(kept, e)
	}
	clearTail(g.edges, len(kept))
	g.edges = kept

	for i, n := range g.nodes {
		if n.ID().Equals(id) {
			copy(g.nodes[i:], g.nodes[i+1:])
			g.nodes[len(g.nodes)-1] = nil
			g.nodes = g.nodes[:len(g.nodes)-1]
			break
		}
	}
	delete(g.nodeIndex, id)

	g.bump()
	g.addEvent(events.NewNodeRemoved(g.id.String(), g.version, id, removed, g.updatedAt))
	return removed, nil
}

// RemoveEdge deletes a single edge
func (g *Graph) RemoveEdge(id valueobjects.EdgeID) error {
	edge, ok := g.edgeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}

	for i, e := range g.edges {
		if e.ID() == id {
			copy(g.edges[i:], g.edges[i+1:])
			g.edges[len(g.edges)-1] = nil
			g.edges = g.edges[:len(g.edges)-1]
			break
		}
	}
	delete(g.edgeIndex, id)

	g.bump()
	g.addEvent(events.NewEdgeRemoved(g.id.String(), g.version, id, edge.Source(), edge.Target(), g.updatedAt))
	return nil
}

// Node returns a copy of the node with the given ID
func (g *Graph) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	node, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return node.Clone(), true
}

// HasNode checks if a node exists in the graph
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Edge returns a copy of the edge with the given ID
func (g *Graph) Edge(id valueobjects.EdgeID) (*entities.Edge, bool) {
	edge, ok := g.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return edge.Clone(), true
}

// Snapshot returns a deep copy of the nodes and edges in insertion order
func (g *Graph) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes: make([]NodeSnapshot, 0, len(g.nodes)),
		Edges: make([]EdgeSnapshot, 0, len(g.edges)),
	}
	for _, n := range g.nodes {
		snap.Nodes = append(snap.Nodes, nodeSnapshot(n))
	}
	for _, e := range g.edges {
		snap.Edges = append(snap.Edges, edgeSnapshot(e))
	}
	return snap
}

// Validate ensures graph invariants
func (g *Graph) Validate() error {
	if len(g.nodes) != len(g.nodeIndex) {
		return errors.New("node index out of sync")
	}
	if len(g.edges) != len(g.edgeIndex) {
		return errors.New("edge index out of sync")
	}
	for _, e := range g.edges {
		if _, ok := g.nodeIndex[e.Source()]; !ok {
			return fmt.Errorf("edge %s references non-existent source node", e.ID())
		}
		if _, ok := g.nodeIndex[e.Target()]; !ok {
			return fmt.Errorf("edge %s references non-existent target node", e.ID())
		}
	}
	return nil
}

// Events returns the uncommitted domain events
func (g *Graph) Events() []events.DomainEvent {
	out := make([]events.DomainEvent, len(g.events))
	copy(out, g.events)
	return out
}

// ClearEvents marks all events as committed
func (g *Graph) ClearEvents() {
	g.events = nil
}

// RecordSaved registers that snap, taken at version, was persisted. Edits made
// after the snapshot do not change what the event reports.
func (g *Graph) RecordSaved(version int, saveID string, snap Snapshot) {
	g.addEvent(events.NewWorkflowSaved(g.id.String(), version, saveID, len(snap.Nodes), len(snap.Edges), time.Now()))
}

// Private helper methods

func (g *Graph) nextEdgeID(source, target valueobjects.NodeID, handles entities.Handles) valueobjects.EdgeID {
	base := valueobjects.NewEdgeID(source, handles.Source, target, handles.Target)
	id := base
	for n := 2; g.edgeIndex[id] != nil; n++ {
		id = valueobjects.EdgeID(fmt.Sprintf("%s-%d", base, n))
	}
	return id
}

func (g *Graph) bump() {
	g.updatedAt = time.Now()
	g.version++
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func clearTail(edges []*entities.Edge, from int) {
	for i := from; i < len(edges); i++ {
		edges[i] = nil
	}
}
