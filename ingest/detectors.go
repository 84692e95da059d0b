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

package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ubarsc/fmask/scene"
)

// RasterOpener is the collaborator that actually reads band files and
// resamples them onto the scene grid (spec.md §1: geotiff I/O is out
// of scope for the core). Landsat8Detector and Sentinel2Detector call
// through this interface rather than doing file I/O themselves.
type RasterOpener interface {
	OpenScene(metadataPath string, sensor scene.Sensor) (*scene.Scene, error)
}

// Landsat8Detector recognises Landsat-8 MTL metadata by filename
// pattern (spec §6).
type Landsat8Detector struct {
	Opener RasterOpener
}

func (d Landsat8Detector) IsPlatform(path string) bool {
	base := strings.ToUpper(filepath.Base(path))
	return strings.HasSuffix(base, "_MTL.TXT") || strings.HasSuffix(base, "_MTL.XML")
}

func (d Landsat8Detector) GetData(path string) (*scene.Scene, error) {
	if d.Opener == nil {
		return nil, fmt.Errorf("ingest: Landsat8Detector has no RasterOpener configured")
	}
	return d.Opener.OpenScene(path, scene.L08OLI)
}

// Sentinel2Detector recognises Sentinel-2 MTD metadata by filename
// pattern (spec §6). Sentinel-2 bands are resampled to the 20m scene
// grid using 2x2 block-mean downsampling, not bilinear interpolation
// (spec §9 Open Questions — the source uses block-mean; preserved
// here as the contract RasterOpener implementations must honour).
type Sentinel2Detector struct {
	Opener RasterOpener
}

func (d Sentinel2Detector) IsPlatform(path string) bool {
	base := strings.ToUpper(filepath.Base(path))
	return strings.HasPrefix(base, "MTD_")
}

func (d Sentinel2Detector) GetData(path string) (*scene.Scene, error) {
	if d.Opener == nil {
		return nil, fmt.Errorf("ingest: Sentinel2Detector has no RasterOpener configured")
	}
	return d.Opener.OpenScene(path, scene.S2MSI)
}

// BlockMeanDownsample2x2 averages 2x2 pixel blocks, the resampling
// convention a RasterOpener must use when bringing Sentinel-2's 10m
// bands onto the 20m scene grid (spec §9 Open Questions).
func BlockMeanDownsample2x2(rows, cols int, src []float64) (outRows, outCols int, out []float64) {
	outRows, outCols = rows/2, cols/2
	out = make([]float64, outRows*outCols)
	for r := 0; r < outRows; r++ {
		for c := 0; c < outCols; c++ {
			sr, sc := r*2, c*2
			sum := src[sr*cols+sc] + src[sr*cols+sc+1] + src[(sr+1)*cols+sc] + src[(sr+1)*cols+sc+1]
			out[r*outCols+c] = sum / 4
		}
	}
	return outRows, outCols, out
}
