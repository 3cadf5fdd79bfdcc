package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"transcribe-api/config"
)

// Archive keeps a copy of each generated summary document outside the database.
type Archive interface {
	PutSummary(ctx context.Context, recordingId string, document []byte) error
	RemoveSummary(ctx context.Context, recordingId string) error
}

type minioArchive struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.Storage) (*minio.Client, error) {
	return minio.New(cfg.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessID, cfg.SecretAccessKey, ""),
		Secure: cfg.Secure,
	})
}

// NewArchive returns a MinIO backed archive, creating the bucket when missing.
// Without storage configuration it returns an archive that does nothing.
func NewArchive(ctx context.Context, cfg config.Storage) (Archive, error) {
	if !cfg.Enabled() {
		zerolog.Ctx(ctx).Info().Msg("summary archive disabled")
		return NopArchive{}, nil
	}

	client, err := NewMinIOClient(cfg)
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		zerolog.Ctx(ctx).Info().Str("bucket", cfg.Bucket).Msg("created summary bucket")
	}

	return &minioArchive{client: client, bucket: cfg.Bucket}, nil
}

func SummaryObjectName(recordingId string) string {
	return fmt.Sprintf("processed/%s_processed.txt", recordingId)
}

func (a *minioArchive) PutSummary(ctx context.Context, recordingId string, document []byte) error {
	objectName := SummaryObjectName(recordingId)
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(document), int64(len(document)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	zerolog.Ctx(ctx).Debug().Str("object", objectName).Msg("summary archived")
	return nil
}

func (a *minioArchive) RemoveSummary(ctx context.Context, recordingId string) error {
	objectName := SummaryObjectName(recordingId)
	if err := a.client.RemoveObject(ctx, a.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", objectName, err)
	}
	return nil
}

type NopArchive struct{}

func (NopArchive) PutSummary(context.Context, string, []byte) error { return nil }

func (NopArchive) RemoveSummary(context.Context, string) error { return nil }
