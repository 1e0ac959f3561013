package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/blobstore"
)

// mockDDBClient is an in-memory DynamoDB double.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func itemKey(item map[string]types.AttributeValue) string {
	uri := item["base_uri"].(*types.AttributeValueMemberS).Value
	version := item["version"].(*types.AttributeValueMemberN).Value
	return uri + ":" + version
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := itemKey(params.Item)
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		vi, _ := strconv.ParseUint(items[i]["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		vj, _ := strconv.ParseUint(items[j]["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return vi > vj
	})

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func (m *mockDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func newTestReleaseStore(ddb *mockDDBClient, baseURI string) *ReleaseStore {
	store := NewStore(&MockS3Client{}, "test-bucket", "taxonomy/")
	return NewReleaseStore(store, ddb, "taxgo-releases", baseURI)
}

func readCurrent(t *testing.T, store *ReleaseStore) string {
	t.Helper()

	blob, err := store.Open(context.Background(), "CURRENT")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, blob.Size())
	n, _ := blob.ReadAt(context.Background(), buf, 0)
	return string(buf[:n])
}

func TestReleaseStore_FirstCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestReleaseStore(ddb, "s3://test-bucket/taxonomy/")

	err := store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.json"))
	require.NoError(t, err)

	assert.Equal(t, "MANIFEST-000001.json", readCurrent(t, store))

	rel, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, Release{Version: 1, Manifest: "MANIFEST-000001.json"}, rel)
}

func TestReleaseStore_MultipleCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestReleaseStore(ddb, "s3://test-bucket/taxonomy/")

	for i := 1; i <= 3; i++ {
		err := store.Put(ctx, "CURRENT", []byte(fmt.Sprintf("MANIFEST-%06d.json", i)))
		require.NoError(t, err)
	}

	assert.Equal(t, "MANIFEST-000003.json", readCurrent(t, store))

	releases, err := store.Releases(ctx)
	require.NoError(t, err)
	require.Len(t, releases, 3)
	assert.Equal(t, uint64(3), releases[0].Version)
	assert.Equal(t, uint64(1), releases[2].Version)
}

func TestReleaseStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestReleaseStore(ddb, "s3://test-bucket/taxonomy/")

	require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.json")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	conflicts := 0

	for i := range 5 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, "CURRENT", []byte(fmt.Sprintf("MANIFEST-%06d.json", id+2)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrConcurrentModification) {
				conflicts++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()
	assert.Greater(t, successes, 0, "at least one writer should succeed")
	assert.Equal(t, 5, successes+conflicts)
}

func TestReleaseStore_NotFoundBeforeCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestReleaseStore(ddb, "s3://test-bucket/taxonomy/")

	_, err := store.Open(ctx, "CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = store.Latest(ctx)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestReleaseStore_Rollback(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestReleaseStore(ddb, "s3://test-bucket/taxonomy/")

	require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.json")))
	require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST-000002.json")))

	require.NoError(t, store.Rollback(ctx))
	assert.Equal(t, "MANIFEST-000001.json", readCurrent(t, store))

	// Rolling back the only release empties the registry.
	require.NoError(t, store.Rollback(ctx))
	_, err := store.Latest(ctx)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	err = store.Rollback(ctx)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestReleaseStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	store1 := newTestReleaseStore(ddb, "s3://bucket-a/taxonomy/")
	store2 := newTestReleaseStore(ddb, "s3://bucket-b/taxonomy/")

	require.NoError(t, store1.Put(ctx, "CURRENT", []byte("MANIFEST-A.json")))
	require.NoError(t, store2.Put(ctx, "CURRENT", []byte("MANIFEST-B.json")))

	assert.Equal(t, "MANIFEST-A.json", readCurrent(t, store1))
	assert.Equal(t, "MANIFEST-B.json", readCurrent(t, store2))
}
