package service

import "context"

// ImageEncoder turns a raw uploaded image into the inline form the record persists.
type ImageEncoder interface {
	// Encode proportionally downscales data and returns a self-contained data URL.
	Encode(ctx context.Context, data []byte, contentType string) (string, error)
}
