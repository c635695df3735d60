package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore keeps artifacts as GCS objects under a common prefix. Object
// writes are atomic on Close, so overwrite-on-save needs no extra care.
// It assumes Application Default Credentials are configured.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store over gs://bucket/prefix. Close releases the
// underlying client.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close closes the underlying storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Save(ctx context.Context, userID string, blob []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(s.objectName(userID))
	w := obj.NewWriter(ctx)
	if _, err := w.Write(blob); err != nil {
		_ = w.Close()
		return fmt.Errorf("save artifact: write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("save artifact: finalize upload: %w", err)
	}
	return nil
}

func (s *GCSStore) Load(ctx context.Context, userID string) ([]byte, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(userID))
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, &NotFoundError{UserID: userID}
		}
		return nil, fmt.Errorf("load artifact: open object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load artifact: read object: %w", err)
	}
	return data, nil
}

func (s *GCSStore) objectName(userID string) string {
	return path.Join(s.prefix, userID+"_pipeline.bin")
}

var _ Store = (*GCSStore)(nil)
