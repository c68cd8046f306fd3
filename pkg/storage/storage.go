package storage

import (
	"context"
	"io"
)

// Store persists uploaded payment screenshots and returns a URL the admin
// dashboard can render.
type Store interface {
	Save(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}
