package snow

import (
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
	"github.com/ubarsc/fmask/scene"
)

func fillGrid(rows, cols int, v float64) *raster.Grid {
	g := raster.NewGrid(rows, cols)
	g.Fill(v)
	return g
}

func TestMaskRequiresAllThreeSpectralTests(t *testing.T) {
	ndsi := fillGrid(1, 1, 0.2)
	nir := fillGrid(1, 1, 1200)
	green := fillGrid(1, 1, 1100)
	mask := Mask(ndsi, nir, green, nil)
	if !mask.At(0, 0) {
		t.Fatalf("expected snow at a pixel passing all thresholds")
	}

	low := fillGrid(1, 1, 900)
	if Mask(ndsi, nir, low, nil).At(0, 0) {
		t.Fatalf("GREEN below threshold should not be snow")
	}
}

func TestMaskHonoursBTGateWhenPresent(t *testing.T) {
	ndsi := fillGrid(1, 1, 0.2)
	nir := fillGrid(1, 1, 1200)
	green := fillGrid(1, 1, 1100)
	warm := fillGrid(1, 1, 1500) // 15 degC, too warm for snow
	if Mask(ndsi, nir, green, warm).At(0, 0) {
		t.Fatalf("BT >= 1000 should veto snow when BT is present")
	}
	cold := fillGrid(1, 1, 500)
	if !Mask(ndsi, nir, green, cold).At(0, 0) {
		t.Fatalf("BT < 1000 should allow snow")
	}
}

func TestAbsoluteSnowRequiresHomogeneousGreenAndSnowGate(t *testing.T) {
	rows, cols := 20, 20
	green := fillGrid(rows, cols, 2000)
	ndsi := fillGrid(rows, cols, 0.5)
	snowMask := raster.NewBool(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			snowMask.Set(r, c, true)
		}
	}
	visSat := raster.NewBool(rows, cols)

	abs := Absolute(scene.L08OLI, green, ndsi, snowMask, visSat)
	count := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if abs.At(r, c) {
				count++
			}
		}
	}
	if count == 0 {
		t.Fatalf("a perfectly homogeneous GREEN field should all qualify as absolute snow")
	}

	visSat.Set(10, 10, true)
	abs2 := Absolute(scene.L08OLI, green, ndsi, snowMask, visSat)
	if abs2.At(10, 10) {
		t.Fatalf("vis_saturation pixel must never be absolute snow")
	}
}
