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

// Package aux defines the auxiliary-data contract (DEM and GSWO) as a
// capability set of sources tried in order, the same registry pattern
// the teacher project uses for its Preprocessor implementations. The
// actual tiling/warping machinery (remote WMS fetch, local GTOPO30
// zip reading) is an external collaborator per spec.md §1; this
// package defines the interface, the sum-typed optional result, and
// thin client scaffolding that satisfies the interface.
package aux

import (
	"context"

	"github.com/ubarsc/fmask/internal/raster"
)

// NodataElevation is the sentinel used inside DEM/GSWO rasters (spec
// §3).
const NodataElevation = -9999

// GSWONodata is the raw GSWO nodata sentinel before remapping (spec
// §3: "255 input remapped to 100").
const GSWONodata = 255

// DEM is the optional digital-elevation auxiliary record (spec §3):
// elevation plus Horn-derivative slope/aspect computed from the
// warped DEM.
type DEM struct {
	Elevation *raster.Grid // metres, NodataElevation sentinel
	Slope     *raster.Grid // degrees
	Aspect    *raster.Grid // degrees, flat = 0
}

// GSWO is the optional Global Surface Water Occurrence record (spec
// §3), already remapped so that the raw 255 ("ocean") sentinel reads
// as 100.
type GSWO struct {
	Occurrence *raster.Grid // percent [0,100]
}

// Request carries the parameters an aux source needs to tile/warp
// its data onto the scene grid (spec §6 DEM/GSWO contract).
type Request struct {
	AuxPath        string
	ProjectionRef  string
	Transform      [6]float64
	XSize, YSize   int
	OutResolution  float64
	SceneID        string
	NodataSentinel float64
	TempDir        string
}

// DEMSource tiles/warps a DEM onto the scene grid, or reports that no
// DEM is available (the AuxError case degrades to "absent", never
// aborts the run — spec §7).
type DEMSource interface {
	DEM(ctx context.Context, req Request) (*DEM, error)
}

// GSWOSource tiles/warps GSWO occurrence onto the scene grid.
type GSWOSource interface {
	GSWO(ctx context.Context, req Request) (*GSWO, error)
}

// ErrNoData is the error a source returns when the requested auxiliary
// layer has no coverage for the scene; Chain skips such a source the
// same way it skips any other failing source.
type ErrNoData struct {
	Source string
}

func (e *ErrNoData) Error() string { return e.Source + ": no coverage for this scene" }

// Chain tries each DEMSource in order and returns the first
// successful, non-nil result — the "registry of candidates tried in
// order" pattern spec §9 calls for. If every source fails or returns
// nil, Chain reports "none" by returning (nil, nil).
type Chain struct {
	Sources []DEMSource
}

// DEM implements DEMSource by delegating to the chain.
func (c Chain) DEM(ctx context.Context, req Request) (*DEM, error) {
	for _, src := range c.Sources {
		d, err := src.DEM(ctx, req)
		if err != nil {
			continue
		}
		if d != nil {
			return d, nil
		}
	}
	return nil, nil
}
