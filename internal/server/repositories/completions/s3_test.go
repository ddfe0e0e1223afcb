package completions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 implements s3API in memory with a fixed page size to exercise
// pagination.
type fakeS3 struct {
	objects  map[string][]byte
	pageSize int
	putErr   error
	listErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), pageSize: 2}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	// map iteration order is random; sort for a stable pagination cursor
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k > *in.ContinuationToken {
				start = i
				break
			}
		}
	}

	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end-1])
	} else {
		out.IsTruncated = aws.Bool(false)
	}
	return out, nil
}

func TestS3Repository_AddWritesOneObjectPerID(t *testing.T) {
	fake := newFakeS3()
	r := newS3RepositoryWithClient(fake, "orders")
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.Add(ctx, models.CompletionRecord{OrderID: "o1", CompletedAt: now}))

	body, ok := fake.objects["completed/o1.json"]
	require.True(t, ok)

	var rec models.CompletionRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "o1", rec.OrderID)
	assert.True(t, rec.CompletedAt.Equal(now))
}

func TestS3Repository_AddIsIdempotent(t *testing.T) {
	fake := newFakeS3()
	r := newS3RepositoryWithClient(fake, "orders")
	ctx := context.Background()

	rec := models.CompletionRecord{OrderID: "o1", CompletedAt: time.Now()}
	require.NoError(t, r.Add(ctx, rec))
	require.NoError(t, r.Add(ctx, rec))

	ids, err := r.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, ids)
}

func TestS3Repository_ListIDsPaginates(t *testing.T) {
	fake := newFakeS3()
	r := newS3RepositoryWithClient(fake, "orders")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, r.Add(ctx, models.CompletionRecord{OrderID: id, CompletedAt: time.Now()}))
	}

	ids, err := r.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
}

func TestS3Repository_ErrorsWrapStoreError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	r := newS3RepositoryWithClient(fake, "orders")

	err := r.Add(context.Background(), models.CompletionRecord{OrderID: "o1", CompletedAt: time.Now()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStore))

	fake.listErr = errors.New("access denied")
	_, err = r.ListIDs(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStore))
}
