package cube

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"gocloud.dev/blob"
)

// Bucket is a minimal range-read abstraction over a gocloud blob bucket.
// It exists so BucketReader can be exercised against a local directory in
// tests and against a real object store in production without change.
type Bucket interface {
	NewRangeReader(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	Close() error
}

type blobBucket struct {
	bucket *blob.Bucket
}

func (b blobBucket) NewRangeReader(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	return b.bucket.NewRangeReader(ctx, key, offset, length, nil)
}

func (b blobBucket) Close() error {
	return b.bucket.Close()
}

// OpenBucket opens bucketURL (any gocloud-supported scheme: file://, s3://,
// gs://, azblob://, ...) optionally rooted at bucketPrefix.
func OpenBucket(ctx context.Context, bucketURL string, bucketPrefix string) (Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", bucketURL, err)
	}
	if bucketPrefix != "" && bucketPrefix != "/" && bucketPrefix != "." {
		bucket = blob.PrefixedBucket(bucket, path.Clean(bucketPrefix)+"/")
	}
	return blobBucket{bucket}, nil
}

// mockBucket is an in-memory Bucket used by tests in place of a real store.
type mockBucket struct {
	items map[string][]byte
}

func newMockBucket(items map[string][]byte) mockBucket {
	return mockBucket{items: items}
}

func (m mockBucket) NewRangeReader(_ context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	bs, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if offset+length > int64(len(bs)) {
		return nil, fmt.Errorf("range %d-%d out of bounds for %s (%d bytes)", offset, offset+length, key, len(bs))
	}
	return io.NopCloser(bytes.NewReader(bs[offset : offset+length])), nil
}

func (m mockBucket) Close() error { return nil }

// chunkKey builds the raw-chunk object key for BucketReader's
// "{cz}.{cy}.{cx}.bin" convention, joined under an optional prefix.
func chunkKey(prefix string, cz, cy, cx int) string {
	name := fmt.Sprintf("%d.%d.%d.bin", cz, cy, cx)
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
