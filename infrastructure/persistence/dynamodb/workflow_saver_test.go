package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"flowcanvas/application/ports"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
	pkgerrors "flowcanvas/pkg/errors"
)

// fakeClient keeps items per partition and answers newest-first queries
type fakeClient struct {
	mu    sync.Mutex
	items map[string][]map[string]types.AttributeValue
	err   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string][]map[string]types.AttributeValue)}
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := in.Item["PK"].(*types.AttributeValueMemberS).Value
	f.items[pk] = append(f.items[pk], in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var pk string
	for _, v := range in.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok && strings.HasPrefix(s.Value, "CANVAS#") {
			pk = s.Value
		}
	}
	items := append([]map[string]types.AttributeValue(nil), f.items[pk]...)
	sk := func(i int) string { return items[i]["SK"].(*types.AttributeValueMemberS).Value }
	sort.Slice(items, func(i, j int) bool { return sk(i) > sk(j) })
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func sampleRequest(t *testing.T, id aggregates.CanvasID, at time.Time, nodes int) ports.SaveRequest {
	t.Helper()
	g, err := aggregates.NewGraph("flow", nil, aggregates.WithCanvasID(id))
	require.NoError(t, err)
	var last *entities.Node
	for i := 1; i < nodes; i++ {
		n, err := g.AddNode(valueobjects.KindCondition, valueobjects.MustPosition(float64(i*10), 100))
		require.NoError(t, err)
		last = n
	}
	if last != nil {
		start := g.Snapshot().Nodes[0].ID
		_, err := g.AddEdge(start, last.ID(), entities.Handles{})
		require.NoError(t, err)
	}
	return ports.SaveRequest{CanvasID: id, Name: g.Name(), Version: g.Version(), Snapshot: g.Snapshot(), SavedAt: at}
}

func TestWorkflowSaver_RoundTrip(t *testing.T) {
	client := newFakeClient()
	saver := NewWorkflowSaver(client, "workflows", zaptest.NewLogger(t))
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := sampleRequest(t, "c1", t0, 1)
	second := sampleRequest(t, "c1", t0.Add(time.Minute), 3)

	r1, err := saver.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, r1.NodeCount)
	r2, err := saver.Save(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 3, r2.NodeCount)
	assert.Equal(t, 1, r2.EdgeCount)
	assert.NotEqual(t, r1.SaveID, r2.SaveID)

	versions, err := saver.ListVersions(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, r2.SaveID, versions[0].SaveID)
	assert.Equal(t, r1.SaveID, versions[1].SaveID)
	assert.True(t, versions[0].SavedAt.Equal(t0.Add(time.Minute)))

	versions, err = saver.ListVersions(ctx, "c1", 1)
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	latest, err := saver.LoadLatest(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, r2.SaveID, latest.SaveID)
	assert.Equal(t, second.Snapshot, latest.Snapshot)
}

func TestWorkflowSaver_LoadLatestMissing(t *testing.T) {
	saver := NewWorkflowSaver(newFakeClient(), "workflows", zaptest.NewLogger(t))
	_, err := saver.LoadLatest(context.Background(), "nothing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestWorkflowSaver_ClientError(t *testing.T) {
	client := newFakeClient()
	client.err = errors.New("throttled")
	saver := NewWorkflowSaver(client, "workflows", zaptest.NewLogger(t))

	_, err := saver.Save(context.Background(), sampleRequest(t, "c1", time.Now(), 1))
	assert.ErrorIs(t, err, client.err)

	_, err = saver.ListVersions(context.Background(), "c1", 5)
	assert.ErrorIs(t, err, client.err)
}
