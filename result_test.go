package fmask

import (
	"testing"

	"github.com/ubarsc/fmask/internal/raster"
)

func boolAt(rows, cols int, pts ...[2]int) *raster.Bool {
	b := raster.NewBool(rows, cols)
	for _, p := range pts {
		b.Set(p[0], p[1], true)
	}
	return b
}

func TestComposePaintsInFixedOrderLaterWins(t *testing.T) {
	rows, cols := 3, 3
	water := boolAt(rows, cols, [2]int{0, 0})
	snow := boolAt(rows, cols, [2]int{0, 0}, [2]int{1, 1})
	shadow := boolAt(rows, cols, [2]int{1, 1})
	cloud := boolAt(rows, cols, [2]int{2, 2})
	nodata := raster.NewBool(rows, cols)

	labels := Compose(rows, cols, water, snow, shadow, cloud, nodata, DefaultLabelCodes)

	if got := labels.At(0, 0); got != DefaultLabelCodes.Snow {
		t.Fatalf("pixel flagged both water and snow should paint snow (later wins), got %d", got)
	}
	if got := labels.At(1, 1); got != DefaultLabelCodes.CloudShadow {
		t.Fatalf("pixel flagged both snow and shadow should paint shadow (later wins), got %d", got)
	}
	if got := labels.At(2, 2); got != DefaultLabelCodes.Cloud {
		t.Fatalf("cloud-only pixel should paint cloud, got %d", got)
	}
	if got := labels.At(1, 0); got != DefaultLabelCodes.Clear {
		t.Fatalf("untouched pixel should stay clear, got %d", got)
	}
}

func TestComposeNodataOverwritesEverything(t *testing.T) {
	rows, cols := 2, 2
	water := boolAt(rows, cols, [2]int{0, 0})
	cloud := boolAt(rows, cols, [2]int{0, 0})
	empty := raster.NewBool(rows, cols)
	nodata := boolAt(rows, cols, [2]int{0, 0})

	labels := Compose(rows, cols, water, empty, empty, cloud, nodata, DefaultLabelCodes)
	if got := labels.At(0, 0); got != DefaultLabelCodes.Nodata {
		t.Fatalf("nodata must win over every class, got %d", got)
	}
}

func TestCloudProbabilityClampsAndSelectsByWater(t *testing.T) {
	rows, cols := 1, 3
	overLand := raster.NewGridFrom(rows, cols, []float64{-5, 50, 150})
	overWater := raster.NewGridFrom(rows, cols, []float64{0, 200, 30})
	water := boolAt(rows, cols, [2]int{0, 1})
	nodata := raster.NewBool(rows, cols)

	out := CloudProbability(overLand, overWater, water, nodata, 255)
	if out[0] != 0 {
		t.Fatalf("negative land probability should clamp to 0, got %d", out[0])
	}
	if out[1] != 100 {
		t.Fatalf("over-water pixel should read from overWater and clamp to 100, got %d", out[1])
	}
	if out[2] != 100 {
		t.Fatalf("over-100 land probability should clamp to 100, got %d", out[2])
	}
}

func TestCloudProbabilityNodataSentinel(t *testing.T) {
	rows, cols := 1, 1
	overLand := raster.NewGridFrom(rows, cols, []float64{42})
	overWater := raster.NewGridFrom(rows, cols, []float64{42})
	water := raster.NewBool(rows, cols)
	nodata := boolAt(rows, cols, [2]int{0, 0})

	out := CloudProbability(overLand, overWater, water, nodata, 255)
	if out[0] != 255 {
		t.Fatalf("nodata pixel should read the sentinel code, got %d", out[0])
	}
}
