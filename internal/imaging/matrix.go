// Package imaging provides the decode/resize/metric/hash primitives used by
// the first-loop preprocessor and second-loop comparator: a fixed-size RGB
// raster type, bicubic resize, mean-squared-error, and a four-rotation
// perceptual hash.
package imaging

import (
	stdimage "image"
	"image/color"
)

// Matrix is a fixed-size RGB raster, row-major, three bytes per pixel. It
// implements image.Image so it can be fed directly to goimagehash without a
// conversion back through the standard library's image types.
type Matrix struct {
	Width, Height int
	Pix           []uint8
}

// NewMatrix allocates a zeroed Matrix of the given size.
func NewMatrix(width, height int) *Matrix {
	return &Matrix{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

func (m *Matrix) offset(x, y int) int {
	return (y*m.Width + x) * 3
}

// RGBAt returns the raw RGB bytes at (x, y).
func (m *Matrix) RGBAt(x, y int) (r, g, b uint8) {
	i := m.offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Set writes the RGB bytes at (x, y).
func (m *Matrix) Set(x, y int, r, g, b uint8) {
	i := m.offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// ColorModel implements image.Image.
func (m *Matrix) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (m *Matrix) Bounds() stdimage.Rectangle {
	return stdimage.Rect(0, 0, m.Width, m.Height)
}

// At implements image.Image.
func (m *Matrix) At(x, y int) color.Color {
	r, g, b := m.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
