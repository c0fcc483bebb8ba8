package bucket

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"restoran-analytics/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Bucket uploads report exports to S3 compatible storage and hands out
// presigned download links.
type Bucket struct {
	Client     *minio.Client
	Name       string
	PresignTTL time.Duration
}

func New(cfg config.BucketConfig) (*Bucket, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Bucket{Client: cli, Name: cfg.Name, PresignTTL: ttl}, nil
}

// Ensure creates the bucket if it does not exist yet.
func (b *Bucket) Ensure(ctx context.Context) error {
	ok, err := b.Client.BucketExists(ctx, b.Name)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", b.Name, err)
	}
	if ok {
		return nil
	}
	if err := b.Client.MakeBucket(ctx, b.Name, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", b.Name, err)
	}
	return nil
}

// Upload stores data under a unique key derived from filename and returns
// a presigned GET URL for it.
func (b *Bucket) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(time.Now(), filename)
	_, err := b.Client.PutObject(ctx, b.Name, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", path.Base(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	u, err := b.Client.PresignedGetObject(ctx, b.Name, key, b.PresignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return u.String(), nil
}

// ObjectKey places uploads under a per-day prefix with a random component
// so repeated exports never overwrite each other.
func ObjectKey(now time.Time, filename string) string {
	name := strings.ReplaceAll(path.Base(filename), " ", "-")
	return path.Join("reports", now.Format("2006/01/02"), uuid.NewString()[:8]+"-"+name)
}
