package imaging

import (
	stdimage "image"
	// Import the standard library's decoders for their registration
	// side effects so image.Decode recognizes all three formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// Decode reads a raster image from r, returning the decoded image and its
// original pixel dimensions (before any resize). Grayscale images are
// promoted to RGB and RGBA images are truncated to RGB by ToMatrix /
// Resize, not here — Decode only parses the container format.
func Decode(r io.Reader) (stdimage.Image, int, int, error) {
	img, _, err := stdimage.Decode(r)
	if err != nil {
		return nil, 0, 0, common.NewError(common.KindDecode, "failed to decode image", err)
	}
	b := img.Bounds()
	return img, b.Dx(), b.Dy(), nil
}

// ToMatrix converts a decoded image.Image to the RGB Matrix representation,
// promoting grayscale by channel replication and truncating alpha.
func ToMatrix(img stdimage.Image) *Matrix {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := NewMatrix(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			m.Set(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8)) //nolint:gosec // RGBA() returns 16-bit premultiplied channels; >>8 is the standard narrowing
		}
	}
	return m
}

// DecodeAndResize decodes r and resizes it to (targetW, targetH), returning
// both the resized Matrix and the image's original dimensions.
func DecodeAndResize(r io.Reader, targetW, targetH int) (matrix *Matrix, origW, origH int, err error) {
	img, origW, origH, err := Decode(r)
	if err != nil {
		return nil, 0, 0, err
	}
	if origW == targetW && origH == targetH {
		return ToMatrix(img), origW, origH, nil
	}
	return Resize(img, targetW, targetH), origW, origH, nil
}
