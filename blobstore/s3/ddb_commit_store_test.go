package s3

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kangaroo/blobstore"
)

// fakeDDB keeps commit items in memory, keyed by base_uri and version.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(attrs map[string]types.AttributeValue) string {
	return attrs["base_uri"].(*types.AttributeValueMemberS).Value + ":" +
		attrs["version"].(*types.AttributeValueMemberN).Value
}

func itemVersion(item map[string]types.AttributeValue) uint64 {
	v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	return v
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := itemKey(params.Item)
	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
		if aws.ToBool(params.ScanIndexForward) {
			return cmp.Compare(itemVersion(a), itemVersion(b))
		}
		return cmp.Compare(itemVersion(b), itemVersion(a))
	})
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDDB) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.items, itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func newTestCommitStore(ddb DDBClient, baseURI string) (*DDBCommitStore, *MockS3Client) {
	client := new(MockS3Client)
	return NewDDBCommitStore(NewStore(client, "test-bucket", "test/"), ddb, "kangaroo-commits", baseURI), client
}

func readCurrent(t *testing.T, store blobstore.BlobStore) string {
	t.Helper()

	data, err := blobstore.ReadAll(context.Background(), store, CurrentName)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStore_FirstCommit(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestCommitStore(newFakeDDB(), "s3://test-bucket/test/")

	_, err := store.Open(ctx, CurrentName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/a.kgr")))
	assert.Equal(t, "snapshots/a.kgr", readCurrent(t, store))

	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
}

func TestDDBCommitStore_MultipleCommits(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestCommitStore(newFakeDDB(), "s3://test-bucket/test/")

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Put(ctx, CurrentName, fmt.Appendf(nil, "snapshots/%02d.kgr", i)))
	}

	assert.Equal(t, "snapshots/12.kgr", readCurrent(t, store))

	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), version)
}

// racingDDB lets a competing writer commit between the read of the latest
// version and the conditional put.
type racingDDB struct {
	*fakeDDB
	once sync.Once
}

func (r *racingDDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	r.once.Do(func() {
		_, _ = r.fakeDDB.PutItem(ctx, params, optFns...)
	})
	return r.fakeDDB.PutItem(ctx, params, optFns...)
}

func TestDDBCommitStore_ConcurrentModification(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestCommitStore(&racingDDB{fakeDDB: newFakeDDB()}, "s3://test-bucket/test/")

	err := store.Put(ctx, CurrentName, []byte("snapshots/a.kgr"))
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// The next writer sees the competing commit and moves on.
	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/b.kgr")))
	assert.Equal(t, "snapshots/b.kgr", readCurrent(t, store))
}

func TestDDBCommitStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()

	const writers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store, _ := newTestCommitStore(ddb, "s3://test-bucket/test/")
			err := store.Put(ctx, CurrentName, fmt.Appendf(nil, "snapshots/%d.kgr", i))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrConcurrentModification)
		}()
	}
	wg.Wait()

	store, _ := newTestCommitStore(ddb, "s3://test-bucket/test/")
	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(succeeded), version)
	assert.GreaterOrEqual(t, succeeded, 1)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	a, _ := newTestCommitStore(ddb, "s3://bucket/a/")
	b, _ := newTestCommitStore(ddb, "s3://bucket/b/")

	require.NoError(t, a.Put(ctx, CurrentName, []byte("snapshots/a1.kgr")))
	require.NoError(t, a.Put(ctx, CurrentName, []byte("snapshots/a2.kgr")))
	require.NoError(t, b.Put(ctx, CurrentName, []byte("snapshots/b1.kgr")))

	assert.Equal(t, "snapshots/a2.kgr", readCurrent(t, a))
	assert.Equal(t, "snapshots/b1.kgr", readCurrent(t, b))
}

func TestDDBCommitStore_DeleteCurrent(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	store, _ := newTestCommitStore(ddb, "s3://test-bucket/test/")

	for i := range 3 {
		require.NoError(t, store.Put(ctx, CurrentName, fmt.Appendf(nil, "snapshots/%d.kgr", i)))
	}
	require.NoError(t, store.Delete(ctx, CurrentName))

	_, err := store.Open(ctx, CurrentName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.Empty(t, ddb.items)
}

func TestDDBCommitStore_CreateCurrentFails(t *testing.T) {
	store, _ := newTestCommitStore(newFakeDDB(), "s3://test-bucket/test/")

	_, err := store.Create(context.Background(), CurrentName)
	assert.Error(t, err)
}

func TestDDBCommitStore_ListIncludesCurrent(t *testing.T) {
	ctx := context.Background()
	store, client := newTestCommitStore(newFakeDDB(), "s3://test-bucket/test/")

	client.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []s3types.Object{{Key: aws.String("test/snapshots/a.kgr")}},
	}, nil)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/a.kgr"}, names)

	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/a.kgr")))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{CurrentName, "snapshots/a.kgr"}, names)

	names, err = store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/a.kgr"}, names)
}

func TestDDBCommitStore_QueryError(t *testing.T) {
	store := NewDDBCommitStore(NewStore(new(MockS3Client), "b", ""), failingDDB{}, "t", "s3://b/")

	_, err := store.Open(context.Background(), CurrentName)
	require.Error(t, err)
	assert.NotErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCurrentBlob(t *testing.T) {
	b := &currentBlob{content: []byte("snapshots/a.kgr")}
	assert.Equal(t, int64(15), b.Size())

	buf := make([]byte, 4)
	n, err := b.ReadAt(context.Background(), buf, 10)
	require.NoError(t, err)
	assert.Equal(t, ".kgr", string(buf[:n]))

	r, err := b.ReadRange(context.Background(), 0, 9)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "snapshots", string(data))
}

type failingDDB struct{}

func (failingDDB) PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return nil, errors.New("unavailable")
}

func (failingDDB) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return nil, errors.New("unavailable")
}

func (failingDDB) DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return nil, errors.New("unavailable")
}
