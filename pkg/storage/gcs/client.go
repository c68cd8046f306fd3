package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

// Store uploads objects to a Google Cloud Storage bucket. Objects are written
// under the screenshots/ prefix and addressed by their public media URL.
type Store struct {
	client *storage.Client
	bucket string
}

func NewStore(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs store initialized")
	}
	return &Store{client: client, bucket: cfg.BucketName}, nil
}

func (s *Store) Save(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("object name is required")
	}
	objectPath := objectPathFor(name)

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("writing gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing gcs object: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath), nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func objectPathFor(name string) string {
	return "screenshots/" + strings.TrimLeft(name, "/")
}
