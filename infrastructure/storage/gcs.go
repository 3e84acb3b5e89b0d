package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"

	"savoria/domain/directory"
)

// GCSStore writes slips to a Cloud Storage bucket.
type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
	limits  Limits
}

func NewGCSStore(client *gcs.Client, bucket, baseURL string, limits Limits) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("storage: gcs client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	if baseURL == "" {
		baseURL = "gs://" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: baseURL, limits: limits}, nil
}

func (s *GCSStore) Store(ctx context.Context, key string, file directory.Upload) (string, error) {
	if err := s.limits.check(key, file); err != nil {
		return "", err
	}

	name := objectName(key, file.Filename)
	obj := s.client.Bucket(s.bucket).Object(name).If(gcs.Conditions{DoesNotExist: true})

	// cancelling the writer's context aborts the upload
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = file.ContentType
	w.Metadata = map[string]string{"original_filename": file.Filename}

	written, err := io.Copy(w, limitReader(file.Body, s.limits.MaxBytes))
	if err == nil && s.limits.MaxBytes > 0 && written > s.limits.MaxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("storage: upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", name, err)
	}
	return joinURL(s.baseURL, name), nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

var _ directory.FileStore = (*GCSStore)(nil)
