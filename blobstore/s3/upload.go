package s3

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/taxgo/internal/hash"
)

// UploadConfig tunes uploads performed by Create and Put.
type UploadConfig struct {
	// PartSize is the part size for multipart uploads. Sequence volumes
	// run to tens of gigabytes, so parts are sized well above the SDK
	// default to stay under the part-count limit.
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	Concurrency int

	// EnableChecksum attaches CRC32C checksums so S3 validates payloads
	// server side.
	EnableChecksum bool

	// LeavePartsOnError keeps the parts of a failed multipart upload
	// around instead of aborting it.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the settings used for publishing index
// artifacts and mirroring volumes.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       16 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

// newUploader creates a configured multipart uploader.
func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// encodeCRC32C returns the checksum in the base64 big-endian form the S3
// API expects.
func encodeCRC32C(data []byte) string {
	sum := hash.CRC32C(data)
	b := []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	return base64.StdEncoding.EncodeToString(b)
}

// putObject uploads a blob in a single request, attaching a precomputed
// CRC32C when checksums are enabled.
func putObject(ctx context.Context, client Client, cfg UploadConfig, bucket, key string, data []byte, ifNoneMatch *string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		IfNoneMatch:   ifNoneMatch,
	}
	if cfg.EnableChecksum {
		input.ChecksumCRC32C = aws.String(encodeCRC32C(data))
	}

	_, err := client.PutObject(ctx, input)
	return err
}
