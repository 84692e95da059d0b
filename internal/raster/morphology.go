/*
Copyright © 2024 the fmask-go authors.
This file is part of fmask-go.

fmask-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fmask-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fmask-go.  If not, see <http://www.gnu.org/licenses/>.
*/

package raster

// StructuringElement is a binary mask of offsets relative to a pixel
// used by Dilate/Erode, supplied as a set of (drow, dcol) pairs.
type StructuringElement struct {
	Offsets [][2]int
}

// Square returns a (2*halfWidth+1)-side square structuring element
// (spec §4.6 false-positive buffering, §4.8 composition dilation).
func Square(halfWidth int) StructuringElement {
	var off [][2]int
	for dr := -halfWidth; dr <= halfWidth; dr++ {
		for dc := -halfWidth; dc <= halfWidth; dc++ {
			off = append(off, [2]int{dr, dc})
		}
	}
	return StructuringElement{Offsets: off}
}

// Disk returns a round structuring element of the given radius
// (spec §4.5 commission erosion/dilation), using the standard
// disk-membership test dr^2+dc^2 <= radius^2.
func Disk(radius int) StructuringElement {
	var off [][2]int
	r2 := radius * radius
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr*dr+dc*dc <= r2 {
				off = append(off, [2]int{dr, dc})
			}
		}
	}
	return StructuringElement{Offsets: off}
}

// Dilate returns the binary dilation of mask by se: a pixel is true
// in the output iff any pixel under the structuring element, centered
// on it, is true in mask. Radius 0 (the single-offset element at
// (0,0)) is the identity (spec §4.8, §8 invariants); an element with
// no offsets yields an all-false mask.
func Dilate(mask *Bool, se StructuringElement) *Bool {
	out := NewBool(mask.Rows, mask.Cols)
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			if mask.At(r, c) {
				for _, o := range se.Offsets {
					nr, nc := r+o[0], c+o[1]
					if mask.InBounds(nr, nc) {
						out.Set(nr, nc, true)
					}
				}
			}
		}
	}
	return out
}

// Erode returns the binary erosion of mask by se: a pixel is true in
// the output iff every pixel under the structuring element, centered
// on it, is true in mask (pixels where the element falls outside the
// grid are treated as false, so border pixels erode away).
func Erode(mask *Bool, se StructuringElement) *Bool {
	out := NewBool(mask.Rows, mask.Cols)
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			keep := true
			for _, o := range se.Offsets {
				nr, nc := r+o[0], c+o[1]
				if !mask.InBounds(nr, nc) || !mask.At(nr, nc) {
					keep = false
					break
				}
			}
			out.Set(r, c, keep)
		}
	}
	return out
}

// DilateSquareRadius dilates mask with a square kernel of side 2r+1
// (spec §4.8, final snow/cloud/shadow composition dilation). Radius 0
// returns a copy of mask unchanged, and dilation is monotone and
// idempotent under a further radius-0 dilation (spec §8).
func DilateSquareRadius(mask *Bool, radius int) *Bool {
	if radius <= 0 {
		return mask.Clone()
	}
	return Dilate(mask, Square(radius))
}

// DilateDiskRadius dilates mask with a disk kernel of the given
// radius (spec §4.5 commission-removal dilation). Radius 0 returns a
// copy of mask unchanged.
func DilateDiskRadius(mask *Bool, radius int) *Bool {
	if radius <= 0 {
		return mask.Clone()
	}
	return Dilate(mask, Disk(radius))
}
