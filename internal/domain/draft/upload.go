package draft

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes is the largest raw image a slot accepts (3 MiB).
const MaxUploadBytes = 3 << 20

var (
	ErrImageTooLarge        = errors.New("image exceeds the 3 MiB upload limit")
	ErrUnsupportedImageType = errors.New("image must be a PNG or JPEG file")
)

// allowedImageTypes is the upload allow-list, matched against the sniffed content.
var allowedImageTypes = []string{"image/png", "image/jpeg"}

// Upload is a raw image picked for a slot, before any resizing or encoding.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CheckUpload enforces the size limit and the type allow-list. On success it returns the
// detected content type.
func CheckUpload(u *Upload) (string, error) {
	if len(u.Data) > MaxUploadBytes {
		return "", fmt.Errorf("%s: %w", u.Filename, ErrImageTooLarge)
	}
	detected := mimetype.Detect(u.Data)
	// walk up the tree so subtypes such as APNG count as their parent format
	for m := detected; m != nil; m = m.Parent() {
		for _, t := range allowedImageTypes {
			if m.Is(t) {
				return t, nil
			}
		}
	}
	return "", fmt.Errorf("%s (%s): %w", u.Filename, detected.String(), ErrUnsupportedImageType)
}
