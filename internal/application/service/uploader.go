package service

import (
	"context"
	"io"
)

// Uploader stores archive copies of portfolio assets in remote media storage.
type Uploader interface {
	// Upload stores an image and returns its secure URL.
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	// UploadRaw stores a non-image file such as a JSON snapshot.
	UploadRaw(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
}
