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

// Convolve3x3 applies a 3x3 kernel (row-major, kernel[0] is the top
// row) to g with zero-padding at the borders.
func Convolve3x3(g *Grid, kernel [3][3]float64) *Grid {
	out := NewGrid(g.Rows, g.Cols)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			var sum float64
			for kr := -1; kr <= 1; kr++ {
				for kc := -1; kc <= 1; kc++ {
					nr, nc := r+kr, c+kc
					if !g.InBounds(nr, nc) {
						continue
					}
					sum += g.At(nr, nc) * kernel[kr+1][kc+1]
				}
			}
			out.Set(r, c, sum)
		}
	}
	return out
}

// Max returns the elementwise maximum of a set of same-shaped grids.
func Max(grids ...*Grid) *Grid {
	out := grids[0].Clone()
	for _, g := range grids[1:] {
		for i, v := range g.data.Elements {
			if v > out.data.Elements[i] {
				out.data.Elements[i] = v
			}
		}
	}
	return out
}
