package completions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3KeyPrefix = "completed/"
const s3KeySuffix = ".json"

// s3API is the subset of the S3 client the repository needs; tests provide
// a fake.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Repository stores one small JSON object per completed order id. Re-adding
// an id overwrites its object with a fresh record, but the id set ListIDs
// exposes is unchanged, so Add stays idempotent, and per-id objects keep
// inserts additive across instances. This is the serverless-friendly backend
// (any S3-compatible store works, including MinIO).
type S3Repository struct {
	client s3API
	bucket string
}

// S3Settings carries connection settings for an S3-compatible backend.
type S3Settings struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// NewS3Repository builds a repository over a real S3 client.
func NewS3Repository(ctx context.Context, settings S3Settings) (*S3Repository, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(settings.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			settings.AccessKey,
			settings.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.BaseEndpoint)
		}
	})

	return &S3Repository{client: client, bucket: settings.Bucket}, nil
}

func newS3RepositoryWithClient(client s3API, bucket string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket}
}

func (r *S3Repository) Add(ctx context.Context, rec models.CompletionRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode completion: %v: %w", err, common.ErrStore)
	}

	key := s3KeyPrefix + rec.OrderID + s3KeySuffix
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put completion: %v: %w", err, common.ErrStore)
	}
	return nil
}

func (r *S3Repository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string

	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(s3KeyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list completions: %v: %w", err, common.ErrStore)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(*obj.Key, s3KeyPrefix), s3KeySuffix)
			if id != "" {
				ids = append(ids, id)
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	return ids, nil
}
