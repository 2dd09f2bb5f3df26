package imaging

import (
	"github.com/corona10/goimagehash"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// Rotations holds the four perceptual-hash strings for a decoded image's
// 0/90/180/270 degree rotations.
type Rotations struct {
	H0, H90, H180, H270 string
}

// PHash computes a stable difference-hash for m and its three 90-degree
// rotations. shiftAmount is accepted but not used, and is not passed on
// to the planner or comparator; the hash algorithm is a fixed
// difference-hash (corona10/goimagehash.DifferenceHash), a deterministic
// choice the perceptual-hash contract leaves open to the implementation.
func PHash(m *Matrix, shiftAmount int) (Rotations, error) {
	_ = shiftAmount

	h0, err := goimagehash.DifferenceHash(m)
	if err != nil {
		return Rotations{}, common.NewError(common.KindDecode, "difference hash (0 deg) failed", err)
	}
	r90 := Rotate90(m)
	h90, err := goimagehash.DifferenceHash(r90)
	if err != nil {
		return Rotations{}, common.NewError(common.KindDecode, "difference hash (90 deg) failed", err)
	}
	r180 := Rotate90(r90)
	h180, err := goimagehash.DifferenceHash(r180)
	if err != nil {
		return Rotations{}, common.NewError(common.KindDecode, "difference hash (180 deg) failed", err)
	}
	r270 := Rotate90(r180)
	h270, err := goimagehash.DifferenceHash(r270)
	if err != nil {
		return Rotations{}, common.NewError(common.KindDecode, "difference hash (270 deg) failed", err)
	}

	return Rotations{
		H0:   h0.ToString(),
		H90:  h90.ToString(),
		H180: h180.ToString(),
		H270: h270.ToString(),
	}, nil
}
