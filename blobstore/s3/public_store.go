package s3

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/taxgo/blobstore"
)

// NCBIBucket is the open-data bucket where NCBI publishes its BLAST
// database volumes. Snapshots live under date-stamped prefixes, for
// example "2023-03-14-01-05-02/nt.03.nsq".
const NCBIBucket = "ncbi-blast-databases"

// NCBIRegion is the region hosting NCBIBucket.
const NCBIRegion = "us-east-1"

// NewPublicClient returns an S3 client that signs nothing. It can read
// public buckets without an AWS account or local credentials.
func NewPublicClient(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// PublicStore implements blobstore.BlobStore for public read-only buckets.
// All write methods return blobstore.ErrReadOnly; the bucket owner is the
// only party that can publish.
//
// Use this store to fetch sequence data straight from the NCBI mirror:
//
//	store, err := s3.NewNCBIStore(ctx)
//	blob, err := store.Open(ctx, "2023-03-14-01-05-02/nt.03.nsq")
type PublicStore struct {
	client Client
	bucket string
	prefix string
}

// NewPublicStore creates a read-only store over a public bucket.
func NewPublicStore(client Client, bucket, rootPrefix string) *PublicStore {
	return &PublicStore{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// NewNCBIStore opens the NCBI BLAST open-data bucket anonymously.
func NewNCBIStore(ctx context.Context) (*PublicStore, error) {
	client, err := NewPublicClient(ctx, NCBIRegion)
	if err != nil {
		return nil, err
	}
	return NewPublicStore(client, NCBIBucket, ""), nil
}

func (s *PublicStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens a blob for reading.
func (s *PublicStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return openBlob(ctx, s.client, s.bucket, s.key(name))
}

// Create is not supported on public buckets.
func (s *PublicStore) Create(_ context.Context, _ string) (blobstore.WritableBlob, error) {
	return nil, blobstore.ErrReadOnly
}

// Put is not supported on public buckets.
func (s *PublicStore) Put(_ context.Context, _ string, _ []byte) error {
	return blobstore.ErrReadOnly
}

// Delete is not supported on public buckets.
func (s *PublicStore) Delete(_ context.Context, _ string) error {
	return blobstore.ErrReadOnly
}

// List returns the names of blobs with the given prefix.
func (s *PublicStore) List(ctx context.Context, prefix string) ([]string, error) {
	return listObjects(ctx, s.client, s.bucket, s.key(prefix), s.prefix)
}
