// internal/store/archive.go
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const presignExpiry = 15 * time.Minute

// ArchiveStore keeps raw commit-log exports and generated reports as objects
// in an S3 bucket.
type ArchiveStore struct {
	client *s3.S3
	bucket *string
	logger *slog.Logger
}

// ArchiveObject is one stored object's listing entry.
type ArchiveObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// NewArchiveStore creates an ArchiveStore backed by the given bucket.
func NewArchiveStore(sess *session.Session, bucket string, logger *slog.Logger) *ArchiveStore {
	return &ArchiveStore{
		client: s3.New(sess),
		bucket: aws.String(bucket),
		logger: logger,
	}
}

// Upload writes the content under the given key, overwriting any previous object.
func (s *ArchiveStore) Upload(ctx context.Context, key, content string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      s.bucket,
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("ArchiveStore.Upload: failed to put object %q: %w", key, err)
	}

	s.logger.Info("Archive object uploaded", "key", key, "size", len(content))
	return nil
}

// List returns the listing of every object in the bucket.
func (s *ArchiveStore) List(ctx context.Context) ([]ArchiveObject, error) {
	var objects []ArchiveObject

	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: s.bucket,
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			objects = append(objects, ArchiveObject{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("ArchiveStore.List: failed to list objects: %w", err)
	}

	return objects, nil
}

// PresignGet returns a time-limited download URL for the given key.
func (s *ArchiveStore) PresignGet(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})

	url, err := req.Presign(presignExpiry)
	if err != nil {
		return "", fmt.Errorf("ArchiveStore.PresignGet: failed to presign %q: %w", key, err)
	}
	return url, nil
}
