package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "flowcanvas/pkg/errors"
)

// NodeKind is the closed set of element kinds a workflow canvas can hold.
// Unknown kinds cannot be constructed, so a node never reaches the renderer
// with a kind nobody can draw.
type NodeKind uint8

const (
	KindUnspecified NodeKind = iota
	KindInput
	KindTask
	KindApproval
	KindNotification
	KindCondition
)

// AllKinds lists every valid kind in declaration order
var AllKinds = []NodeKind{KindInput, KindTask, KindApproval, KindNotification, KindCondition}

var kindTags = map[NodeKind]string{
	KindInput:        "input",
	KindTask:         "task",
	KindApproval:     "approval",
	KindNotification: "notification",
	KindCondition:    "condition",
}

var kindLabels = map[NodeKind]string{
	KindInput:        "Start",
	KindTask:         "Task",
	KindApproval:     "Approval",
	KindNotification: "Notification",
	KindCondition:    "Condition",
}

// ParseNodeKind resolves a type tag. Matching is case-insensitive so both the
// palette label ("Task") and the tag ("task") resolve.
func ParseNodeKind(s string) (NodeKind, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for kind, t := range kindTags {
		if t == tag {
			return kind, nil
		}
	}
	return KindUnspecified, pkgerrors.NewValidationError(fmt.Sprintf("unknown node kind %q", s))
}

// String returns the type tag
func (k NodeKind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "unspecified"
}

// Valid reports whether k is one of the declared kinds
func (k NodeKind) Valid() bool {
	_, ok := kindTags[k]
	return ok
}

// DefaultLabel is the label a node of this kind gets when none is supplied
func (k NodeKind) DefaultLabel() string {
	return kindLabels[k]
}

// MarshalJSON implements json.Marshaler
func (k NodeKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, pkgerrors.NewValidationError("cannot marshal unspecified node kind")
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseNodeKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// UnmarshalYAML lets palette files name kinds by tag
func (k *NodeKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	kind, err := ParseNodeKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
