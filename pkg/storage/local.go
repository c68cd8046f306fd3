package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
)

// LocalStore writes uploads to a directory on disk and serves them under a
// static base URL. It is the default backend for development.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(cfg config.UploadsConfig) (*LocalStore, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", errors.New("object name is required")
	}

	f, err := os.Create(filepath.Join(s.dir, clean))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return path.Join(s.baseURL, clean), nil
}
