package storage

import (
	"context"
	"io"
)

// Uploader mirrors feedback artifacts to durable object storage.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
