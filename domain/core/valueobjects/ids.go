package valueobjects

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	pkgerrors "flowcanvas/pkg/errors"
)

// NodeID is a value object representing a unique node identifier.
// Generated IDs are UUIDv7, so they are time-ordered like the timestamp
// IDs a browser builder would mint, but never collide within a process.
type NodeID struct {
	value string
}

// NewNodeID creates a new time-ordered NodeID
func NewNodeID() NodeID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return NodeID{value: id.String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if strings.TrimSpace(id) == "" {
		return NodeID{}, pkgerrors.NewValidationError("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return pkgerrors.NewValidationError("NodeID must be a string")
	}
	id.value = s
	return nil
}

// HandleID names a connection point on a node boundary. The zero value is the
// node's default handle.
type HandleID string

// IsDefault reports whether no explicit handle was named
func (h HandleID) IsDefault() bool {
	return h == ""
}

// EdgeID identifies an edge
type EdgeID string

// String returns the string representation of the EdgeID
func (id EdgeID) String() string {
	return string(id)
}

// NewEdgeID derives an edge ID from its connection tuple, in the
// "xy-edge__<source><sourceHandle>-<target><targetHandle>" form browser flow
// editors produce.
func NewEdgeID(source NodeID, sourceHandle HandleID, target NodeID, targetHandle HandleID) EdgeID {
	var b strings.Builder
	b.WriteString("xy-edge__")
	b.WriteString(source.String())
	b.WriteString(string(sourceHandle))
	b.WriteString("-")
	b.WriteString(target.String())
	b.WriteString(string(targetHandle))
	return EdgeID(b.String())
}
