package ports

import (
	"context"
	"time"

	"flowcanvas/domain/canvas"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/events"
)

// CanvasRepository holds the open canvases
// This is a port in hexagonal architecture - the service doesn't know about the implementation
type CanvasRepository interface {
	// Add stores a newly opened canvas
	Add(ctx context.Context, c *canvas.Canvas) error

	// Get retrieves an open canvas by ID
	Get(ctx context.Context, id aggregates.CanvasID) (*canvas.Canvas, error)

	// Delete closes a canvas
	Delete(ctx context.Context, id aggregates.CanvasID) error

	// List returns every open canvas, oldest first
	List(ctx context.Context) ([]*canvas.Canvas, error)

	// Count returns the number of open canvases
	Count(ctx context.Context) (int, error)
}

// SaveRequest is one snapshot handed to the save collaborator
type SaveRequest struct {
	CanvasID aggregates.CanvasID
	Name     string
	Version  int
	Snapshot aggregates.Snapshot
	SavedAt  time.Time
}

// SaveReceipt acknowledges a stored snapshot
type SaveReceipt struct {
	SaveID    string              `json:"saveId"`
	CanvasID  aggregates.CanvasID `json:"canvasId"`
	Version   int                 `json:"version"`
	NodeCount int                 `json:"nodeCount"`
	EdgeCount int                 `json:"edgeCount"`
	SavedAt   time.Time           `json:"savedAt"`
}

// SavedVersion describes one stored snapshot
type SavedVersion struct {
	SaveID    string              `json:"saveId"`
	CanvasID  aggregates.CanvasID `json:"canvasId"`
	Name      string              `json:"name"`
	Version   int                 `json:"version"`
	NodeCount int                 `json:"nodeCount"`
	EdgeCount int                 `json:"edgeCount"`
	SavedAt   time.Time           `json:"savedAt"`
}

// SavedWorkflow is a stored snapshot with its description
type SavedWorkflow struct {
	SavedVersion
	Snapshot aggregates.Snapshot `json:"snapshot"`
}

// WorkflowSaver is the external "save workflow" collaborator
type WorkflowSaver interface {
	// Save stores a snapshot
	Save(ctx context.Context, req SaveRequest) (SaveReceipt, error)

	// ListVersions returns the stored snapshots of a canvas, newest first
	ListVersions(ctx context.Context, canvasID aggregates.CanvasID, limit int) ([]SavedVersion, error)

	// LoadLatest returns the newest stored snapshot of a canvas
	LoadLatest(ctx context.Context, canvasID aggregates.CanvasID) (*SavedWorkflow, error)
}

// EventPublisher publishes domain events to other services
type EventPublisher interface {
	Publish(ctx context.Context, events []events.DomainEvent) error
}

// ChangeNotifier is told whenever a canvas changed
type ChangeNotifier interface {
	CanvasChanged(canvasID aggregates.CanvasID, version int)
}
