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

package fmask

import (
	"runtime"

	"github.com/alitto/pond"
)

// forEachRowTile runs fn(r0, r1) once per contiguous row tile covering
// [0, rows), across a worker pool sized to the host. Tiles are
// disjoint and fn must not touch rows outside its own range, so the
// result is invariant to the parallel decomposition (spec §5).
func forEachRowTile(rows int, fn func(r0, r1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if rows < workers*8 {
		fn(0, rows)
		return
	}

	pool := pond.New(workers, rows)
	defer pool.StopAndWait()

	tileHeight := (rows + workers - 1) / workers
	for r0 := 0; r0 < rows; r0 += tileHeight {
		r0 := r0
		r1 := r0 + tileHeight
		if r1 > rows {
			r1 = rows
		}
		pool.Submit(func() { fn(r0, r1) })
	}
}
