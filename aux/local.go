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

package aux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalGTOPO30 resolves DEM tiles from zipped local GTOPO30 tiles
// rather than a remote WMS. It implements DEMSource so it can sit
// behind (or in front of) a MapzenClient in a Chain (spec §6, §7: the
// local source is the documented retry target when Mapzen fails).
type LocalGTOPO30 struct {
	// TileDir holds the zipped GTOPO30 tiles, named by their standard
	// 10x10-degree tile identifiers (e.g. "W140N90.zip").
	TileDir string
}

// DEM implements DEMSource. Locating, unzipping and warping the tiles
// onto the scene grid is the raster I/O collaborator's job (spec.md
// §1); this method only looks for tile archives in TileDir, reports
// absence when there are none, and otherwise returns an error.
func (l LocalGTOPO30) DEM(ctx context.Context, req Request) (*DEM, error) {
	tiles, err := l.coveringTiles(req)
	if err != nil {
		return nil, fmt.Errorf("gtopo30: %w", err)
	}
	if len(tiles) == 0 {
		return nil, &ErrNoData{Source: "gtopo30"}
	}
	return nil, fmt.Errorf("gtopo30: tile warp is implemented by the raster I/O collaborator, not the core")
}

// coveringTiles lists every .zip tile archive in TileDir (none if the
// directory does not exist); a stand-in for the real tile-index
// lookup. It does not filter the tiles by the requested geotransform.
func (l LocalGTOPO30) coveringTiles(req Request) ([]string, error) {
	entries, err := os.ReadDir(l.TileDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tiles []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".zip" {
			tiles = append(tiles, filepath.Join(l.TileDir, e.Name()))
		}
	}
	return tiles, nil
}
