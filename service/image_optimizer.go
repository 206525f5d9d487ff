package service

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

// ImageOptimizer shrinks oversized images before upload
type ImageOptimizer struct {
	maxWidth  int
	maxHeight int
	quality   int
}

// NewImageOptimizer creates an optimizer that fits images in a maxWidth x maxHeight box
func NewImageOptimizer(maxWidth, maxHeight, quality int) *ImageOptimizer {
	return &ImageOptimizer{
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   quality,
	}
}

// Optimize resizes the image to fit the box, keeping aspect ratio, and re-encodes it
// in its original format (JPEG at the configured quality).
// Images already inside the box are only re-encoded.
func (o *ImageOptimizer) Optimize(imageData []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > o.maxWidth || height > o.maxHeight {
		img = imaging.Fit(img, o.maxWidth, o.maxHeight, imaging.Lanczos)
		log.Debugf("resized image from %dx%d to %dx%d", width, height, img.Bounds().Dx(), img.Bounds().Dy())
	}

	outFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		outFormat = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, outFormat, imaging.JPEGQuality(o.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	optimized := buf.Bytes()
	log.Debugf("image optimized: format=%s, %d -> %d bytes", format, len(imageData), len(optimized))
	return optimized, nil
}
