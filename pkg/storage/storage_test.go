package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, nil)
	ctx := context.Background()

	location, err := store.Put(ctx, "transformed_data/customers.csv", []byte("a,b\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transformed_data", "customers.csv"), location)

	body, err := store.Get(ctx, "transformed_data/customers.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(body))

	// overwrite
	_, err = store.Put(ctx, "transformed_data/customers.csv", []byte("c\n"), "text/csv")
	require.NoError(t, err)
	body, err = store.Get(ctx, "transformed_data/customers.csv")
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(body))

	entries, err := os.ReadDir(filepath.Join(dir, "transformed_data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestLocalStore_Errors(t *testing.T) {
	store := NewLocalStore(t.TempDir(), nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	for _, key := range []string{"", "../escape.csv", "/abs.csv"} {
		_, err := store.Put(ctx, key, nil, "text/csv")
		assert.Error(t, err, "key %q", key)
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestS3Store_PutGet(t *testing.T) {
	client := newFakeS3()
	store := NewS3StoreWithClient(client, "sales-bucket", nil)
	ctx := context.Background()

	location, err := store.Put(ctx, "raw_data/raw_sales_data.csv", []byte("x\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "s3://sales-bucket/raw_data/raw_sales_data.csv", location)
	assert.Equal(t, "text/csv", client.types["sales-bucket/raw_data/raw_sales_data.csv"])

	body, err := store.Get(ctx, "raw_data/raw_sales_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(body))

	_, err = store.Get(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}
