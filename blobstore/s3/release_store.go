package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/taxgo/blobstore"
)

// currentName is the pointer object the manifest layer reads and writes.
// The release store intercepts it; everything else passes through to S3.
const currentName = "CURRENT"

// ErrConcurrentModification is returned when another builder released a
// version between read and commit.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by ReleaseStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Release is one committed catalog version.
type Release struct {
	// Version increases by one per release.
	Version uint64
	// Manifest is the manifest object name the release points at.
	Manifest string
}

// ReleaseStore implements blobstore.BlobStore backed by S3 with DynamoDB
// for atomic CURRENT updates. S3 alone cannot compare-and-swap a pointer
// object, so concurrent builders publishing against the same catalog could
// silently drop each other's releases. The release store:
//
//   - passes artifact and manifest objects through to S3 unchanged
//   - serves CURRENT from the newest DynamoDB row
//   - commits CURRENT with a conditional write, one version per row
//
// Table schema:
//   - Partition key: base_uri (string), the catalog's S3 location
//   - Sort key: version (number), increases by one per release
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name taxgo-releases \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type ReleaseStore struct {
	store     *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// NewReleaseStore creates an S3+DynamoDB release store. baseURI is the
// catalog's "s3://bucket/prefix" location, used as the partition key so
// several catalogs can share one table.
func NewReleaseStore(store *Store, ddbClient DDBClient, tableName, baseURI string) *ReleaseStore {
	return &ReleaseStore{
		store:     store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Open opens a blob for reading. CURRENT is synthesized from the newest
// release row.
func (s *ReleaseStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == currentName {
		rel, err := s.Latest(ctx)
		if err != nil {
			return nil, err
		}
		return &currentBlob{content: []byte(rel.Manifest)}, nil
	}
	return s.store.Open(ctx, name)
}

// Create creates a writable blob.
func (s *ReleaseStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.store.Create(ctx, name)
}

// Put writes a blob. Writing CURRENT commits a new release atomically.
func (s *ReleaseStore) Put(ctx context.Context, name string, data []byte) error {
	if name == currentName {
		return s.commit(ctx, string(data))
	}
	return s.store.Put(ctx, name, data)
}

// Delete deletes a blob.
func (s *ReleaseStore) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

// List lists blobs with the given prefix.
func (s *ReleaseStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.store.List(ctx, prefix)
}

// Latest returns the newest committed release, or blobstore.ErrNotFound
// when nothing has been released yet.
func (s *ReleaseStore) Latest(ctx context.Context) (Release, error) {
	releases, err := s.query(ctx, 1)
	if err != nil {
		return Release{}, err
	}
	if len(releases) == 0 {
		return Release{}, blobstore.ErrNotFound
	}
	return releases[0], nil
}

// Releases returns the committed releases, newest first.
func (s *ReleaseStore) Releases(ctx context.Context) ([]Release, error) {
	return s.query(ctx, 0)
}

// Rollback removes the newest release so CURRENT falls back to the one
// before it. Meant for operator use after a bad release; a builder racing
// a rollback may still commit on top of the removed version.
func (s *ReleaseStore) Rollback(ctx context.Context) error {
	rel, err := s.Latest(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(rel.Version, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to roll back release %d: %w", rel.Version, err)
	}
	return nil
}

// query returns releases newest first. limit 0 means all.
func (s *ReleaseStore) query(ctx context.Context, limit int32) ([]Release, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	resp, err := s.ddbClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}

	releases := make([]Release, 0, len(resp.Items))
	for _, item := range resp.Items {
		rel, err := decodeRelease(item)
		if err != nil {
			return nil, err
		}
		releases = append(releases, rel)
	}

	// DynamoDB already returns rows in key order; keep the invariant even
	// against a sloppy test double.
	sort.Slice(releases, func(i, j int) bool { return releases[i].Version > releases[j].Version })

	return releases, nil
}

func decodeRelease(item map[string]types.AttributeValue) (Release, error) {
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return Release{}, errors.New("release row has no version attribute")
	}
	manifestAttr, ok := item["manifest_key"].(*types.AttributeValueMemberS)
	if !ok {
		return Release{}, errors.New("release row has no manifest_key attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return Release{}, fmt.Errorf("failed to parse release version: %w", err)
	}

	return Release{Version: version, Manifest: manifestAttr.Value}, nil
}

// commit writes the next release row with a conditional put.
func (s *ReleaseStore) commit(ctx context.Context, manifest string) error {
	var current uint64
	switch rel, err := s.Latest(ctx); {
	case err == nil:
		current = rel.Version
	case errors.Is(err, blobstore.ErrNotFound):
	default:
		return err
	}

	next := current + 1

	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":     &types.AttributeValueMemberS{Value: s.baseURI},
			"version":      &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"manifest_key": &types.AttributeValueMemberS{Value: manifest},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit release %d: %w", next, err)
	}

	return nil
}

// currentBlob serves the synthesized CURRENT content.
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
	if off < 0 || off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *currentBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 || off >= int64(len(b.content)) {
		return nil, blobstore.ErrInvalidRange
	}
	end := off + length
	if end > int64(len(b.content)) {
		end = int64(len(b.content))
	}
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}
