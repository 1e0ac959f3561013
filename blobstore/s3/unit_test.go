package s3

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/blobstore"
)

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "taxonomy/taxa.records"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "taxa.records")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "taxonomy/taxa.trie"
		})).Return(&s3.HeadObjectOutput{
			ContentLength: aws.Int64(100),
		}, nil).Once()

		blob, err := store.Open(context.Background(), "taxa.trie")
		require.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
	})

	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt(t *testing.T) {
	mockClient := new(MockS3Client)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "b" && *input.Key == "k" && *input.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("hello")),
	}, nil).Once()

	buf := make([]byte, 5)
	n, err := b.ReadAt(context.Background(), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	mockClient.AssertExpectations(t)
}

func TestBlob_ReadRange(t *testing.T) {
	newBlob := func() (*MockS3Client, *blob) {
		mockClient := new(MockS3Client)
		return mockClient, &blob{client: mockClient, bucket: "b", key: "k", size: 10}
	}

	t.Run("Subrange", func(t *testing.T) {
		mockClient, b := newBlob()
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Range == "bytes=2-6"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("llo w")),
		}, nil).Once()

		r, err := b.ReadRange(context.Background(), 2, 5)
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "llo w", string(data))
		mockClient.AssertExpectations(t)
	})

	t.Run("TruncatedAtEnd", func(t *testing.T) {
		mockClient, b := newBlob()
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Range == "bytes=8-9"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("ld")),
		}, nil).Once()

		r, err := b.ReadRange(context.Background(), 8, 100)
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "ld", string(data))
		mockClient.AssertExpectations(t)
	})

	t.Run("StartBeyondEnd", func(t *testing.T) {
		// No request goes out; the size from Open settles it locally.
		mockClient, b := newBlob()
		_, err := b.ReadRange(context.Background(), 10, 1)
		assert.ErrorIs(t, err, blobstore.ErrInvalidRange)
		mockClient.AssertExpectations(t)
	})

	t.Run("RemoteInvalidRange", func(t *testing.T) {
		mockClient, b := newBlob()
		mockClient.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "InvalidRange", Message: "requested range not satisfiable"}).Once()

		_, err := b.ReadRange(context.Background(), 5, 2)
		assert.ErrorIs(t, err, blobstore.ErrInvalidRange)
		mockClient.AssertExpectations(t)
	})
}

func TestStore_List(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Bucket == "test-bucket" && *input.Prefix == "taxonomy"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("taxonomy/taxa.trie")},
			{Key: aws.String("taxonomy/names/names.sci.trie")},
		},
	}, nil).Once()

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"names/names.sci.trie", "taxa.trie"}, keys)

	mockClient.AssertExpectations(t)
}

func TestStore_List_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("taxonomy/1")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("taxonomy/2")}},
	}, nil).Once()

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, keys)

	mockClient.AssertExpectations(t)
}

func TestStore_Put_AttachesChecksum(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy")

	data := []byte("record payload")

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		if *input.Key != "taxonomy/taxa.records" || input.ChecksumCRC32C == nil {
			return false
		}
		sum, err := base64.StdEncoding.DecodeString(*input.ChecksumCRC32C)
		return err == nil && len(sum) == 4 && *input.ChecksumCRC32C == encodeCRC32C(data)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	err := store.Put(context.Background(), "taxa.records", data)
	require.NoError(t, err)

	mockClient.AssertExpectations(t)
}

func TestStore_PutIfNotExists(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy")

	t.Run("Vacant", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
			return input.IfNoneMatch != nil && *input.IfNoneMatch == "*"
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		err := store.PutIfNotExists(context.Background(), "MANIFEST-000001.json", []byte("{}"))
		require.NoError(t, err)
	})

	t.Run("Occupied", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}).Once()

		err := store.PutIfNotExists(context.Background(), "MANIFEST-000001.json", []byte("{}"))
		assert.ErrorIs(t, err, ErrConflict)
	})

	mockClient.AssertExpectations(t)
}

func TestStore_Create(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy")

	var received []byte
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "taxonomy/new.trie"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		received, _ = io.ReadAll(input.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	wb, err := store.Create(context.Background(), "new.trie")
	require.NoError(t, err)

	_, err = wb.Write([]byte("trie "))
	require.NoError(t, err)
	_, err = wb.Write([]byte("bytes"))
	require.NoError(t, err)

	require.NoError(t, wb.Close())
	assert.Equal(t, "trie bytes", string(received))

	// Close is idempotent and repeats the original result.
	require.NoError(t, wb.Close())

	mockClient.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "taxonomy")

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "taxonomy/stale.pool"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	err := store.Delete(context.Background(), "stale.pool")
	require.NoError(t, err)

	mockClient.AssertExpectations(t)
}

func TestPublicStore_ReadOnly(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewPublicStore(mockClient, "ncbi-blast-databases", "")

	ctx := context.Background()

	err := store.Put(ctx, "x", nil)
	assert.ErrorIs(t, err, blobstore.ErrReadOnly)

	_, err = store.Create(ctx, "x")
	assert.ErrorIs(t, err, blobstore.ErrReadOnly)

	err = store.Delete(ctx, "x")
	assert.ErrorIs(t, err, blobstore.ErrReadOnly)

	// Reads pass through untouched.
	mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
		return *input.Bucket == "ncbi-blast-databases" && *input.Key == "2023-03-14-01-05-02/nt.03.nsq"
	})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(42)}, nil).Once()

	blob, err := store.Open(ctx, "2023-03-14-01-05-02/nt.03.nsq")
	require.NoError(t, err)
	assert.Equal(t, int64(42), blob.Size())

	mockClient.AssertExpectations(t)
}
