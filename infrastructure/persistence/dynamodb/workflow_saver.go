package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowcanvas/application/ports"
	"flowcanvas/domain/core/aggregates"
	pkgerrors "flowcanvas/pkg/errors"
)

// sortTime keeps SK order chronological
const sortTime = "2006-01-02T15:04:05.000000000Z"

// Client is the part of the DynamoDB API the saver uses
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// WorkflowSaver stores every saved snapshot of a canvas as one item under
// the canvas partition, sorted by save time.
type WorkflowSaver struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

// NewWorkflowSaver creates a new WorkflowSaver
func NewWorkflowSaver(client Client, tableName string, logger *zap.Logger) *WorkflowSaver {
	return &WorkflowSaver{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// saveItem represents the DynamoDB item structure for a saved snapshot
type saveItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	SaveID     string `dynamodbav:"SaveID"`
	CanvasID   string `dynamodbav:"CanvasID"`
	Name       string `dynamodbav:"Name"`
	Version    int    `dynamodbav:"Version"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	EdgeCount  int    `dynamodbav:"EdgeCount"`
	SavedAt    string `dynamodbav:"SavedAt"`
	Snapshot   string `dynamodbav:"Snapshot,omitempty"`
}

func canvasKey(id aggregates.CanvasID) string {
	return fmt.Sprintf("CANVAS#%s", id)
}

// Save persists a snapshot to DynamoDB
func (s *WorkflowSaver) Save(ctx context.Context, req ports.SaveRequest) (ports.SaveReceipt, error) {
	body, err := json.Marshal(req.Snapshot)
	if err != nil {
		return ports.SaveReceipt{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	savedAt := req.SavedAt.UTC()
	item := saveItem{
		PK:         canvasKey(req.CanvasID),
		EntityType: "WORKFLOW_SAVE",
		SaveID:     uuid.NewString(),
		CanvasID:   req.CanvasID.String(),
		Name:       req.Name,
		Version:    req.Version,
		NodeCount:  len(req.Snapshot.Nodes),
		EdgeCount:  len(req.Snapshot.Edges),
		SavedAt:    savedAt.Format(time.RFC3339Nano),
		Snapshot:   string(body),
	}
	item.SK = fmt.Sprintf("SAVE#%s#%s", savedAt.Format(sortTime), item.SaveID)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return ports.SaveReceipt{}, fmt.Errorf("failed to marshal save: %w", err)
	}

	cond := expression.Name("PK").AttributeNotExists()
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return ports.SaveReceipt{}, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		s.logger.Error("Failed to save workflow to DynamoDB",
			zap.Error(err),
			zap.String("canvasID", req.CanvasID.String()),
		)
		return ports.SaveReceipt{}, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.logger.Info("Saved workflow to DynamoDB",
		zap.String("canvasID", req.CanvasID.String()),
		zap.String("saveID", item.SaveID),
		zap.Int("nodes", item.NodeCount),
		zap.Int("edges", item.EdgeCount),
	)

	return ports.SaveReceipt{
		SaveID:    item.SaveID,
		CanvasID:  req.CanvasID,
		Version:   req.Version,
		NodeCount: item.NodeCount,
		EdgeCount: item.EdgeCount,
		SavedAt:   savedAt,
	}, nil
}

// ListVersions returns the stored snapshots of a canvas, newest first
func (s *WorkflowSaver) ListVersions(ctx context.Context, canvasID aggregates.CanvasID, limit int) ([]ports.SavedVersion, error) {
	proj := expression.NamesList(
		expression.Name("SaveID"),
		expression.Name("CanvasID"),
		expression.Name("Name"),
		expression.Name("Version"),
		expression.Name("NodeCount"),
		expression.Name("EdgeCount"),
		expression.Name("SavedAt"),
	)
	items, err := s.query(ctx, canvasID, limit, &proj)
	if err != nil {
		return nil, err
	}

	out := make([]ports.SavedVersion, 0, len(items))
	for _, item := range items {
		v, err := item.version()
		if err != nil {
			s.logger.Warn("Skipping unreadable workflow save", zap.String("saveID", item.SaveID), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadLatest returns the newest stored snapshot of a canvas
func (s *WorkflowSaver) LoadLatest(ctx context.Context, canvasID aggregates.CanvasID) (*ports.SavedWorkflow, error) {
	items, err := s.query(ctx, canvasID, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewNotFoundError("saved workflow").
			WithDetails(map[string]interface{}{"canvasId": canvasID.String()})
	}

	item := items[0]
	v, err := item.version()
	if err != nil {
		return nil, err
	}
	saved := &ports.SavedWorkflow{SavedVersion: v}
	if err := json.Unmarshal([]byte(item.Snapshot), &saved.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", item.SaveID, err)
	}
	return saved, nil
}

func (s *WorkflowSaver) query(ctx context.Context, canvasID aggregates.CanvasID, limit int, proj *expression.ProjectionBuilder) ([]saveItem, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(canvasKey(canvasID)))
	keyEx = keyEx.And(expression.Key("SK").BeginsWith("SAVE#"))

	builder := expression.NewBuilder().WithKeyCondition(keyEx)
	if proj != nil {
		builder = builder.WithProjection(*proj)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow saves: %w", err)
	}

	var items []saveItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow saves: %w", err)
	}
	return items, nil
}

func (i saveItem) version() (ports.SavedVersion, error) {
	savedAt, err := time.Parse(time.RFC3339Nano, i.SavedAt)
	if err != nil {
		return ports.SavedVersion{}, fmt.Errorf("invalid SavedAt %q: %w", i.SavedAt, err)
	}
	return ports.SavedVersion{
		SaveID:    i.SaveID,
		CanvasID:  aggregates.CanvasID(i.CanvasID),
		Name:      i.Name,
		Version:   i.Version,
		NodeCount: i.NodeCount,
		EdgeCount: i.EdgeCount,
		SavedAt:   savedAt,
	}, nil
}
