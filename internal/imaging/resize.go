package imaging

import (
	stdimage "image"

	"github.com/nfnt/resize"
)

// Resize scales img to exactly (w, h) using bicubic interpolation, as
// required by the image I/O contract, and returns the result as a Matrix.
func Resize(img stdimage.Image, w, h int) *Matrix {
	resized := resize.Resize(uint(w), uint(h), img, resize.Bicubic) //nolint:gosec // w,h are small configured thumbnail dimensions
	return ToMatrix(resized)
}
