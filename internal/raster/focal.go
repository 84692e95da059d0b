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

import "math"

// BoxSum computes, for every pixel, the sum of a (2*radius+1) square
// window centered on it, using zero-padding at the borders. It is
// implemented with a summed-area table so the cost is O(pixels)
// regardless of window size.
func BoxSum(g *Grid, radius int) *Grid {
	sat := summedAreaTable(g)
	out := NewGrid(g.Rows, g.Cols)
	for r := 0; r < g.Rows; r++ {
		r0, r1 := r-radius, r+radius
		for c := 0; c < g.Cols; c++ {
			c0, c1 := c-radius, c+radius
			out.Set(r, c, sat.rangeSum(r0, r1, c0, c1))
		}
	}
	return out
}

// BoxMean computes the mean of a (2*radius+1) square window around
// every pixel, zero-padded at the borders (zeros count toward the
// window average, matching the reference's box-filter convention).
func BoxMean(g *Grid, radius int) *Grid {
	window := float64((2*radius + 1) * (2*radius + 1))
	out := BoxSum(g, radius)
	out.Map(func(v float64) float64 { return v / window })
	return out
}

// FocalVariance computes E[X^2] - E[X]^2 over a (2*radius+1) square
// window, the box-filter focal variance used by CDI (spec §4.1,
// window=7x7 i.e. radius=3) and documented as a property to verify
// against random rasters (spec §8).
func FocalVariance(g *Grid, radius int) *Grid {
	sq := g.Clone()
	sq.Map(func(v float64) float64 { return v * v })
	meanX := BoxMean(g, radius)
	meanX2 := BoxMean(sq, radius)
	return Apply2(meanX2, meanX, func(ex2, ex float64) float64 {
		v := ex2 - ex*ex
		if v < 0 {
			// Guards against floating-point noise driving a
			// mathematically non-negative quantity slightly below zero.
			return 0
		}
		return v
	})
}

// summedAreaTable supports O(1) rectangular range sums after an O(n)
// build, zero-padded outside the grid.
type sat struct {
	rows, cols int
	table      []float64 // (rows+1) x (cols+1), table[0,*] = table[*,0] = 0
}

func summedAreaTable(g *Grid) *sat {
	rows, cols := g.Rows, g.Cols
	t := make([]float64, (rows+1)*(cols+1))
	idx := func(r, c int) int { return r*(cols+1) + c }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t[idx(r+1, c+1)] = g.At(r, c) + t[idx(r, c+1)] + t[idx(r+1, c)] - t[idx(r, c)]
		}
	}
	return &sat{rows: rows, cols: cols, table: t}
}

// rangeSum returns the sum over rows [r0,r1] and cols [c0,c1]
// inclusive, treating anything outside the grid as zero.
func (s *sat) rangeSum(r0, r1, c0, c1 int) float64 {
	r0 = clampInt(r0, 0, s.rows-1)
	r1 = clampInt(r1, 0, s.rows-1)
	c0 = clampInt(c0, 0, s.cols-1)
	c1 = clampInt(c1, 0, s.cols-1)
	if r0 > r1 || c0 > c1 {
		return 0
	}
	idx := func(r, c int) int { return r*(s.cols+1) + c }
	return s.table[idx(r1+1, c1+1)] - s.table[idx(r0, c1+1)] - s.table[idx(r1+1, c0)] + s.table[idx(r0, c0)]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MaskedLocalStdDev computes, for every pixel, the standard deviation
// of g over a (2*radius+1) window restricted to pixels where valid is
// true, weighted by the count of valid pixels actually present in the
// window (spec §4.2, absolute snow). Pixels with zero valid neighbours
// report a standard deviation of 0.
func MaskedLocalStdDev(g *Grid, valid *Bool, radius int) *Grid {
	masked := g.Clone()
	for i, v := range valid.data {
		if !v {
			masked.data.Elements[i] = 0
		}
	}
	validFloat := NewGrid(valid.Rows, valid.Cols)
	for i, v := range valid.data {
		if v {
			validFloat.data.Elements[i] = 1
		}
	}
	sumX := BoxSum(masked, radius)
	sq := masked.Clone()
	sq.Map(func(v float64) float64 { return v * v })
	sumX2 := BoxSum(sq, radius)
	count := BoxSum(validFloat, radius)

	out := NewGrid(g.Rows, g.Cols)
	for i := range out.data.Elements {
		n := count.data.Elements[i]
		if n <= 0 {
			out.data.Elements[i] = 0
			continue
		}
		mean := sumX.data.Elements[i] / n
		meanSq := sumX2.data.Elements[i] / n
		variance := meanSq - mean*mean
		if variance < 0 {
			variance = 0
		}
		out.data.Elements[i] = math.Sqrt(variance)
	}
	return out
}
