package fmask

import (
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
	"github.com/ubarsc/fmask/scene"
)

func constBand(rows, cols int, v float64) *raster.Grid {
	g := raster.NewGrid(rows, cols)
	g.Fill(v)
	return g
}

// clearLandScene builds a uniform, spectrally-skewed scene sized just
// past cloudprob's clear-pixel guard (spec §4.4) so the probability
// stage runs its real branch instead of the small-scene short-circuit,
// with no BT/Cirrus/DEM/GSWO: the minimal sum-type-absent case (spec
// §9).
func clearLandScene(rows, cols int) *scene.Scene {
	return &scene.Scene{
		Sensor: scene.L08OLI,
		Solar:  scene.SolarGeometry{SunElevationDeg: 55, SunAzimuthDeg: 140},
		Rows:   rows, Cols: cols,
		Bands: map[scene.Band]*raster.Grid{
			scene.BLUE:  constBand(rows, cols, 200),
			scene.GREEN: constBand(rows, cols, 400),
			scene.RED:   constBand(rows, cols, 3000),
			scene.NIR:   constBand(rows, cols, 3200),
			scene.SWIR1: constBand(rows, cols, 1500),
			scene.SWIR2: constBand(rows, cols, 1200),
		},
		NodataMask:    raster.NewBool(rows, cols),
		VisSaturation: raster.NewBool(rows, cols),
	}
}

func TestPipelineRunOnClearLandSceneProducesAllClearLabels(t *testing.T) {
	// 201x201 = 40401 pixels, just past the cloudprob clear-pixel guard
	// of 40000 (spec §4.4), so the test exercises the real probability
	// branch rather than its small-scene short-circuit.
	rows, cols := 201, 201
	sc := clearLandScene(rows, cols)

	p := NewPipeline(DefaultConfig())
	labels, _, err := p.Run(sc, nil, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i, v := range labels.Values {
		if v != DefaultLabelCodes.Clear {
			t.Fatalf("expected an all-clear scene, found label %d at index %d", v, i)
		}
	}
}

func TestPipelineRunHonoursNodataMask(t *testing.T) {
	rows, cols := 201, 201
	sc := clearLandScene(rows, cols)
	sc.NodataMask.Set(0, 0, true)

	p := NewPipeline(DefaultConfig())
	labels, _, err := p.Run(sc, nil, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := labels.At(0, 0); got != DefaultLabelCodes.Nodata {
		t.Fatalf("nodata pixel should be labelled nodata, got %d", got)
	}
}

func TestPipelineRunRejectsSceneMissingGreenBand(t *testing.T) {
	rows, cols := 10, 10
	sc := &scene.Scene{
		Sensor: scene.L08OLI,
		Rows:   rows, Cols: cols,
		Bands:         map[scene.Band]*raster.Grid{},
		NodataMask:    raster.NewBool(rows, cols),
		VisSaturation: raster.NewBool(rows, cols),
	}

	p := NewPipeline(DefaultConfig())
	_, _, err := p.Run(sc, nil, nil)
	if err == nil {
		t.Fatalf("expected an InputError for a scene missing the GREEN band")
	}
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError, got %T", err)
	}
}
