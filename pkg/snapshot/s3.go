package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store persists snapshots as JSON objects in an S3 bucket.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	store := snapshot.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "sessions/")
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed snapshot store. prefix is prepended to
// every object key (e.g. "sessions/").
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *S3Store) key(sessionID string) string {
	return s.prefix + sessionID + ".json"
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, snap *Snapshot) error {
	cp := *snap
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now()
	}
	body, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", cp.SessionID, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(cp.SessionID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"saved-at": cp.SavedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("snapshot: s3 put %s: %w", cp.SessionID, err)
	}
	return nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("snapshot: s3 get %s: %w", sessionID, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: s3 read %s: %w", sessionID, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", sessionID, err)
	}
	return &snap, nil
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID)),
	})
	if err != nil {
		return fmt.Errorf("snapshot: s3 delete %s: %w", sessionID, err)
	}
	return nil
}
