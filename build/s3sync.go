package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/hupe1980/taxgo/blastdb"
	s3blob "github.com/hupe1980/taxgo/blobstore/s3"
)

// LatestDirKey is the object NCBI rewrites after each snapshot publish. Its
// body names the newest snapshot prefix.
const LatestDirKey = "latest-dir"

// S3API is the subset of the S3 API the sync source uses. *s3.Client
// satisfies it; tests substitute a mock.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3SourceOptions configures an S3Source.
type S3SourceOptions struct {
	// Bucket is the mirror bucket (s3blob.NCBIBucket if empty).
	Bucket string
	// PartSize is the ranged download chunk size in bytes.
	PartSize int64
	// Concurrency is the number of parallel ranged requests per download.
	Concurrency int
	// Logger receives download diagnostics.
	Logger *slog.Logger
}

// DefaultS3SourceOptions are the default S3Source options.
var DefaultS3SourceOptions = S3SourceOptions{
	PartSize:    8 * 1024 * 1024,
	Concurrency: 5,
}

// S3Source fetches build inputs from an NCBI-layout S3 mirror: a latest-dir
// pointer object at the bucket root and date-stamped snapshot prefixes
// holding the volume files.
type S3Source struct {
	client     S3API
	downloader *manager.Downloader
	bucket     string
	logger     *slog.Logger
}

// NewS3Source creates a sync source over an NCBI-layout bucket.
func NewS3Source(client S3API, optFns ...func(o *S3SourceOptions)) *S3Source {
	opts := DefaultS3SourceOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	bucket := opts.Bucket
	if bucket == "" {
		bucket = s3blob.NCBIBucket
	}

	return &S3Source{
		client: client,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = opts.PartSize
			d.Concurrency = opts.Concurrency
		}),
		bucket: bucket,
		logger: opts.Logger,
	}
}

// NewNCBISource opens the NCBI BLAST open-data mirror anonymously.
func NewNCBISource(ctx context.Context, optFns ...func(o *S3SourceOptions)) (*S3Source, error) {
	client, err := s3blob.NewPublicClient(ctx, s3blob.NCBIRegion)
	if err != nil {
		return nil, err
	}
	return NewS3Source(client, optFns...), nil
}

// LatestSnapshot returns the name of the newest snapshot on the mirror.
func (s *S3Source) LatestSnapshot(ctx context.Context) (string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(LatestDirKey),
	})
	if err != nil {
		return "", fmt.Errorf("build: reading %s: %w", LatestDirKey, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("build: reading %s: %w", LatestDirKey, err)
	}

	snapshot := strings.TrimSpace(string(body))
	if snapshot == "" {
		return "", fmt.Errorf("build: %s is empty", LatestDirKey)
	}
	return snapshot, nil
}

// VolumeIndexKeys lists the .nin volume index objects of one database within
// a snapshot, sorted by volume number.
func (s *S3Source) VolumeIndexKeys(ctx context.Context, db blastdb.DatabaseID, snapshot string) ([]string, error) {
	if !db.Valid() {
		return nil, &blastdb.ErrUnknownDatabase{Name: db.String()}
	}

	prefix := snapshot + "/" + db.String() + "."
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("build: listing %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".nin") {
				keys = append(keys, key)
			}
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Download fetches one object into memory through parallel ranged requests.
func (s *S3Source) Download(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	n, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("build: downloading %s: %w", key, err)
	}

	if s.logger != nil {
		s.logger.Info("downloaded object", "key", key, "size", humanize.Bytes(uint64(n)))
	}
	return buf.Bytes(), nil
}
