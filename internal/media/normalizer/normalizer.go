// Package normalizer turns raw uploaded bytes into a repository-compliant
// image: bounded dimensions, physically applied orientation, baseline JPEG
// encoding, embedded metadata carried over.
package normalizer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
)

const (
	// MaxDimension is the bound on either axis. Larger inputs are downscaled
	// proportionally; smaller ones are never upscaled.
	MaxDimension = 8192

	jpegQuality = 95
)

// NormalizedImage is the transformation output. Derived deterministically from
// the input bytes; the input is never mutated.
type NormalizedImage struct {
	Data      []byte
	MIMEType  string
	Extension string
	Width     int
	Height    int
	Resized   bool
}

// Normalizer transforms uploaded images. Safe for concurrent use.
type Normalizer struct{}

// New creates a new normalizer
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize decodes the input, applies the stored EXIF orientation to the
// pixels, downscales to fit MaxDimension, and re-encodes as sequential JPEG
// at full chroma resolution. The standard library encoder always subsamples
// chroma to 4:2:0, so encoding goes through jpegli with 4:4:4.
//
// Callers must treat an error as a degraded success and fall back to the
// original bytes: a failed optimization never blocks an otherwise-valid
// upload.
func (n *Normalizer) Normalize(data []byte) (*NormalizedImage, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Rotate the pixels so the output displays correctly without the tag
	img := applyOrientation(src, readOrientation(data))

	resized := false
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
		resized = true
	}

	var buf bytes.Buffer
	if err := jpegli.Encode(&buf, img, &jpegli.EncodingOptions{
		Quality:           jpegQuality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
	}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	// Carry the source EXIF block over with its orientation neutralized;
	// capture time, camera and GPS data are what the Commons community
	// verifies submissions against.
	out := buf.Bytes()
	if app1, ok := exifSegment(data); ok {
		out = withExifSegment(out, resetOrientation(app1))
	}

	final := img.Bounds()
	return &NormalizedImage{
		Data:      out,
		MIMEType:  "image/jpeg",
		Extension: ".jpg",
		Width:     final.Dx(),
		Height:    final.Dy(),
		Resized:   resized,
	}, nil
}

// applyOrientation maps the eight EXIF orientation values onto pixel
// transforms. Value 1 and anything out of range pass through.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
