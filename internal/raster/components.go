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

// neighbors8 are the eight 8-connectivity offsets used throughout the
// pipeline for connected-component labelling (spec §9: "Connected
// component labelling uses 8-connectivity throughout").
var neighbors8 = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// BBox is an inclusive pixel bounding box, [R0,R1] x [C0,C1].
type BBox struct {
	R0, C0, R1, C1 int
}

// Component is one labelled 8-connected blob: its label id, pixel
// area, and bounding box. This is the regionprops-equivalent called
// for in spec §9 ("only needs label, bbox, and area per component").
type Component struct {
	Label int
	Area  int
	BBox  BBox
}

// Labels assigns every true pixel of mask an 8-connected component id
// (1-based; 0 means background) using an iterative BFS flood fill, and
// returns the label raster together with each component's bbox/area.
func Labels(mask *Bool) (labels []int, components []Component) {
	rows, cols := mask.Rows, mask.Cols
	labels = make([]int, rows*cols)
	components = nil

	queue := make([]int, 0, 1024)
	nextLabel := 0
	for start := 0; start < rows*cols; start++ {
		if !mask.data[start] || labels[start] != 0 {
			continue
		}
		nextLabel++
		comp := Component{Label: nextLabel, BBox: BBox{R0: start / cols, C0: start % cols, R1: start / cols, C1: start % cols}}

		queue = queue[:0]
		queue = append(queue, start)
		labels[start] = nextLabel
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			r, c := cur/cols, cur%cols
			comp.Area++
			if r < comp.BBox.R0 {
				comp.BBox.R0 = r
			}
			if r > comp.BBox.R1 {
				comp.BBox.R1 = r
			}
			if c < comp.BBox.C0 {
				comp.BBox.C0 = c
			}
			if c > comp.BBox.C1 {
				comp.BBox.C1 = c
			}
			for _, n := range neighbors8 {
				nr, nc := r+n[0], c+n[1]
				if !mask.InBounds(nr, nc) {
					continue
				}
				ni := nr*cols + nc
				if mask.data[ni] && labels[ni] == 0 {
					labels[ni] = nextLabel
					queue = append(queue, ni)
				}
			}
		}
		components = append(components, comp)
	}
	return labels, components
}

// RemoveSmall clears any connected component of mask whose area is
// strictly less than minArea (used by the potential-shadow raster and
// the final erode_commissons pass, spec §4.5 step 7 and §4.7.1).
func RemoveSmall(mask *Bool, minArea int) *Bool {
	labels, components := Labels(mask)
	keep := make(map[int]bool, len(components))
	for _, c := range components {
		keep[c.Label] = c.Area >= minArea
	}
	out := NewBool(mask.Rows, mask.Cols)
	for i, l := range labels {
		if l != 0 && keep[l] {
			out.data[i] = true
		}
	}
	return out
}

// Reconstruct performs grey-scale morphological reconstruction by
// erosion: it returns the smallest image J >= marker everywhere such
// that J <= seed and J is "connected" to seed via 8-connected
// monotone descent, computed by the classic two-pass-plus-FIFO-queue
// raster scan algorithm (spec §9, used once for shadow imfill).
//
// seed and marker must be the same shape; seed is modified in place
// and also returned for convenience. marker is the floor the
// reconstruction is not allowed to settle below (the original image).
func Reconstruct(seed, marker *Grid) *Grid {
	rows, cols := seed.Rows, seed.Cols
	out := seed.Clone()

	idx := func(r, c int) int { return r*cols + c }

	// Forward raster scan (top-left to bottom-right): propagate the
	// minimum of a pixel and its already-visited neighbours, clamped
	// to the marker floor.
	scanOrder := func(forward bool) {
		rStart, rEnd, rStep := 0, rows, 1
		cStart, cEnd, cStep := 0, cols, 1
		if !forward {
			rStart, rEnd, rStep = rows-1, -1, -1
			cStart, cEnd, cStep = cols-1, -1, -1
		}
		for r := rStart; r != rEnd; r += rStep {
			for c := cStart; c != cEnd; c += cStep {
				v := out.At(r, c)
				for _, n := range scanNeighbors(forward) {
					nr, nc := r+n[0], c+n[1]
					if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
						continue
					}
					if nv := out.At(nr, nc); nv < v {
						v = nv
					}
				}
				if m := marker.At(r, c); v < m {
					v = m
				}
				out.Set(r, c, v)
			}
		}
	}

	scanOrder(true)
	scanOrder(false)

	// FIFO propagation pass to settle any remaining violations
	// (standard grey-scale reconstruction-by-erosion finishing step).
	queue := make([]int, 0, rows*cols/8)
	inQueue := make([]bool, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			queue = append(queue, idx(r, c))
			inQueue[idx(r, c)] = true
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		inQueue[cur] = false
		r, c := cur/cols, cur%cols
		v := out.At(r, c)
		for _, n := range neighbors8 {
			nr, nc := r+n[0], c+n[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			nv := out.At(nr, nc)
			m := marker.At(nr, nc)
			cand := v
			if cand < m {
				cand = m
			}
			if cand < nv {
				out.Set(nr, nc, cand)
				if !inQueue[idx(nr, nc)] {
					inQueue[idx(nr, nc)] = true
					queue = append(queue, idx(nr, nc))
				}
			}
		}
	}

	return out
}

func scanNeighbors(forward bool) [][2]int {
	if forward {
		return [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}}
	}
	return [][2]int{{1, -1}, {1, 0}, {1, 1}, {0, 1}}
}
