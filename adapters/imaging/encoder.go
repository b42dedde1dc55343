package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/khoahotran/portfolio-editor/internal/application/service"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

const (
	minDimension   = 64
	shrinkFactor   = 0.8
	startQuality   = 90
	minQuality     = 50
	qualityStep    = 10
	maxShrinkSteps = 12
)

var ErrOverBudget = errors.New("image cannot be encoded within the size budget")

// Encoder downscales images to fit within MaxDimension on the longest side and
// MaxBytes of encoded payload, then returns them as data URLs.
type Encoder struct {
	maxDimension int
	maxBytes     int
	logger       logger.Logger
}

var _ service.ImageEncoder = (*Encoder)(nil)

func NewEncoder(maxDimension, maxBytes int, log logger.Logger) *Encoder {
	return &Encoder{maxDimension: maxDimension, maxBytes: maxBytes, logger: log}
}

func (e *Encoder) Encode(ctx context.Context, data []byte, contentType string) (string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode %s image: %w", contentType, err)
	}

	img := fit(src, e.maxDimension)

	// Small PNGs keep their format (and transparency); everything else goes through JPEG.
	if format == "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		if buf.Len() <= e.maxBytes {
			return dataURL("image/png", buf.Bytes()), nil
		}
		img = flatten(img)
	}

	for step := 0; step < maxShrinkSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for q := startQuality; q >= minQuality; q -= qualityStep {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
				return "", fmt.Errorf("encode jpeg: %w", err)
			}
			if buf.Len() <= e.maxBytes {
				e.logger.Debug("Encoded image",
					zap.String("source_format", format),
					zap.Int("width", img.Bounds().Dx()),
					zap.Int("height", img.Bounds().Dy()),
					zap.Int("quality", q),
					zap.Int("bytes", buf.Len()),
				)
				return dataURL("image/jpeg", buf.Bytes()), nil
			}
		}

		b := img.Bounds()
		longest := max(b.Dx(), b.Dy())
		next := int(float64(longest) * shrinkFactor)
		if next < minDimension {
			break
		}
		img = fit(img, next)
	}
	return "", fmt.Errorf("%w: limit %d bytes", ErrOverBudget, e.maxBytes)
}

// fit scales src proportionally so its longest side is at most limit. Smaller images are
// returned unchanged.
func fit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= limit {
		return src
	}
	scale := float64(limit) / float64(longest)
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// flatten composites the image over white so dropping the alpha channel for JPEG does
// not turn transparent areas black.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
