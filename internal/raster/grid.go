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

// Package raster holds the scene-grid numeric kernels: typed grid
// wrappers around sparse.DenseArray, percentile statistics, focal
// filters, binary morphology, connected-component labelling and
// grey-scale reconstruction. Every pipeline stage operates on the
// types in this package rather than touching DenseArray directly.
package raster

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Grid is a Rows x Cols raster of float64 values backed by a
// sparse.DenseArray, the same container the teacher project uses for
// its meteorological grids.
type Grid struct {
	Rows, Cols int
	data       *sparse.DenseArray
}

// NewGrid allocates a zeroed Rows x Cols grid.
func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, data: sparse.ZerosDense(rows, cols)}
}

// NewGridFrom wraps an existing row-major slice of length rows*cols.
func NewGridFrom(rows, cols int, values []float64) *Grid {
	if len(values) != rows*cols {
		panic(fmt.Sprintf("raster: NewGridFrom expected %d values, got %d", rows*cols, len(values)))
	}
	g := NewGrid(rows, cols)
	copy(g.data.Elements, values)
	return g
}

// Fill sets every pixel to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data.Elements {
		g.data.Elements[i] = v
	}
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float64 { return g.data.Get(row, col) }

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v float64) { g.data.Set(v, row, col) }

// Elements exposes the backing row-major slice for bulk numeric work.
func (g *Grid) Elements() []float64 { return g.data.Elements }

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	out := NewGrid(g.Rows, g.Cols)
	copy(out.data.Elements, g.data.Elements)
	return out
}

// Len returns the pixel count.
func (g *Grid) Len() int { return g.Rows * g.Cols }

// Index converts a (row, col) pair to a flat offset into Elements().
func (g *Grid) Index(row, col int) int { return row*g.Cols + col }

// RowCol is the inverse of Index.
func (g *Grid) RowCol(i int) (row, col int) { return i / g.Cols, i % g.Cols }

// InBounds reports whether (row, col) addresses a pixel in the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Map applies f to every element in place.
func (g *Grid) Map(f func(v float64) float64) {
	e := g.data.Elements
	for i, v := range e {
		e[i] = f(v)
	}
}

// Apply2 computes out[i] = f(a[i], b[i]) for two same-shaped grids,
// returning a new grid.
func Apply2(a, b *Grid, f func(x, y float64) float64) *Grid {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		panic("raster: Apply2 shape mismatch")
	}
	out := NewGrid(a.Rows, a.Cols)
	for i, x := range a.data.Elements {
		out.data.Elements[i] = f(x, b.data.Elements[i])
	}
	return out
}

// Bool is a boolean raster, stored densely as one byte per pixel.
// Booleans are kept distinct from Grid (rather than reusing 0/1
// floats throughout, as the teacher's concentration grids do) because
// the pipeline composes many of them with bitwise-shaped logic
// (And, Or, Not) where a dedicated type reads clearer at call sites.
type Bool struct {
	Rows, Cols int
	data       []bool
}

// NewBool allocates a Rows x Cols boolean raster, all false.
func NewBool(rows, cols int) *Bool {
	return &Bool{Rows: rows, Cols: cols, data: make([]bool, rows*cols)}
}

func (b *Bool) At(row, col int) bool { return b.data[row*b.Cols+col] }

func (b *Bool) Set(row, col int, v bool) { b.data[row*b.Cols+col] = v }

func (b *Bool) Data() []bool { return b.data }

func (b *Bool) Len() int { return b.Rows * b.Cols }

func (b *Bool) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

func (b *Bool) Clone() *Bool {
	out := NewBool(b.Rows, b.Cols)
	copy(out.data, b.data)
	return out
}

// Count returns the number of true pixels.
func (b *Bool) Count() int {
	n := 0
	for _, v := range b.data {
		if v {
			n++
		}
	}
	return n
}

// And returns the elementwise conjunction of a and b.
func And(a, b *Bool) *Bool {
	requireSameShape(a.Rows, a.Cols, b.Rows, b.Cols)
	out := NewBool(a.Rows, a.Cols)
	for i := range out.data {
		out.data[i] = a.data[i] && b.data[i]
	}
	return out
}

// Or returns the elementwise disjunction of a and b.
func Or(a, b *Bool) *Bool {
	requireSameShape(a.Rows, a.Cols, b.Rows, b.Cols)
	out := NewBool(a.Rows, a.Cols)
	for i := range out.data {
		out.data[i] = a.data[i] || b.data[i]
	}
	return out
}

// Not returns the elementwise negation of a.
func Not(a *Bool) *Bool {
	out := NewBool(a.Rows, a.Cols)
	for i := range out.data {
		out.data[i] = !a.data[i]
	}
	return out
}

// AndNot returns a &^ b (true where a is true and b is false).
func AndNot(a, b *Bool) *Bool {
	requireSameShape(a.Rows, a.Cols, b.Rows, b.Cols)
	out := NewBool(a.Rows, a.Cols)
	for i := range out.data {
		out.data[i] = a.data[i] && !b.data[i]
	}
	return out
}

func requireSameShape(r1, c1, r2, c2 int) {
	if r1 != r2 || c1 != c2 {
		panic(fmt.Sprintf("raster: shape mismatch %dx%d vs %dx%d", r1, c1, r2, c2))
	}
}

// Select gathers the Grid values at the pixels where mask is true, in
// row-major order. The returned slice is freshly allocated and owned
// by the caller, matching how percentile/regression helpers in this
// package consume masked selections.
func Select(g *Grid, mask *Bool) []float64 {
	out := make([]float64, 0, mask.Count())
	for i, m := range mask.data {
		if m {
			out = append(out, g.data.Elements[i])
		}
	}
	return out
}
