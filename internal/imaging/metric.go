package imaging

import (
	"fmt"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// MSE computes the arithmetic mean of squared per-pixel-channel differences
// between a and b, accumulated in 64 bits and returned as a float32. a and
// b must share the same shape.
func MSE(a, b *Matrix) (float32, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, common.NewError(common.KindMetric, "shape mismatch",
			fmt.Errorf("%dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height))
	}
	if len(a.Pix) != len(b.Pix) {
		return 0, common.NewError(common.KindMetric, "pixel buffer length mismatch", nil)
	}

	var sumSq uint64
	for i := range a.Pix {
		d := int64(a.Pix[i]) - int64(b.Pix[i])
		sumSq += uint64(d * d)
	}
	mean := float64(sumSq) / float64(len(a.Pix))
	return float32(mean), nil
}
