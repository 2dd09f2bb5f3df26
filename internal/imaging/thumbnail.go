package imaging

import (
	"image/png"
	"io"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// SaveThumbnail encodes m as a PNG and writes it to w. Thumbnails are
// always stored as PNG regardless of the source container, since they
// are an internal cache artifact, not a user-facing export format.
func SaveThumbnail(w io.Writer, m *Matrix) error {
	if err := png.Encode(w, m); err != nil {
		return common.NewError(common.KindIO, "write thumbnail", err)
	}
	return nil
}

// LoadThumbnail decodes a previously saved thumbnail back into a Matrix.
func LoadThumbnail(r io.Reader) (*Matrix, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, common.NewError(common.KindDecode, "read thumbnail", err)
	}
	return ToMatrix(img), nil
}
