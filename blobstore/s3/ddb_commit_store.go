package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/kangaroo/blobstore"
)

// CurrentName is the blob that points at the latest snapshot.
const CurrentName = "CURRENT"

// DDBCommitStore implements blobstore.BlobStore backed by S3, with DynamoDB
// holding the CURRENT pointer.
//
// S3 lacks compare-and-swap, so two writers dumping the same bucket could
// silently overwrite each other's CURRENT. Here every commit is a new item
// with the next version number, written with a condition that the version
// does not exist yet; the loser gets ErrConcurrentModification.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 prefix/path
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name kangaroo-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// ErrConcurrentModification is returned when another writer committed the
// same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewDDBCommitStore creates a new S3+DynamoDB commit store.
// baseURI (e.g. "s3://bucket/prefix") is the partition key, so several
// buckets can share one table.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Open reads CURRENT from DynamoDB and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == CurrentName {
		version, target, err := s.latest(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return &currentBlob{content: []byte(target)}, nil
	}
	return s.s3Store.Open(ctx, name)
}

// Put commits CURRENT with a conditional write; other names go to S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return s.commit(ctx, string(data))
	}
	return s.s3Store.Put(ctx, name, data)
}

func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == CurrentName {
		return nil, fmt.Errorf("%s must be written with Put", CurrentName)
	}
	return s.s3Store.Create(ctx, name)
}

// Delete of CURRENT removes the whole commit history of baseURI.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name != CurrentName {
		return s.s3Store.Delete(ctx, name)
	}
	for {
		version, _, err := s.latest(ctx)
		if err != nil || version == 0 {
			return err
		}
		if _, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
				"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			},
		}); err != nil {
			return fmt.Errorf("failed to delete commit %d: %w", version, err)
		}
	}
}

// List lists S3 blobs. CURRENT is included when a commit exists.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.s3Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(CurrentName, prefix) {
		version, _, err := s.latest(ctx)
		if err != nil {
			return nil, err
		}
		if version > 0 {
			names = insertSorted(names, CurrentName)
		}
	}
	return names, nil
}

// Version returns the latest committed version, 0 if none.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	version, _, err := s.latest(ctx)
	return version, err
}

func (s *DDBCommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	targetAttr, ok := item["snapshot"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid snapshot attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, targetAttr.Value, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, target string) error {
	current, _, err := s.latest(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}

func insertSorted(names []string, name string) []string {
	i, found := slices.BinarySearch(names, name)
	if found {
		return names
	}
	return slices.Insert(names, i, name)
}

// currentBlob serves the CURRENT pointer from memory.
type currentBlob struct {
	content []byte
}

func (b *currentBlob) Close() error {
	return nil
}

func (b *currentBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *currentBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *currentBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := min(off+length, int64(len(b.content)))
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}
