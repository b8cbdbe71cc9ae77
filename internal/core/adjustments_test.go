package core

import (
	"testing"

	"gocv.io/x/gocv"
)

func runAdjustment(t *testing.T, img gocv.Mat, key string, value float64) gocv.Mat {
	t.Helper()
	p := testProcessor()
	defer p.Close()
	seedImage(p, img)

	p.SetAdjustment(key, value)
	out, ok := p.ProcessFullResolution()
	if !ok {
		t.Fatalf("%s run failed", key)
	}
	return out
}

func TestContrastSpreadsValues(t *testing.T) {
	img := gocv.NewMatWithSize(8, 16, gocv.MatTypeCV8UC3)
	defer img.Close()
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(100)
			if x >= 8 {
				v = 160
			}
			for c := 0; c < 3; c++ {
				img.SetUCharAt3(y, x, c, v)
			}
		}
	}

	out := runAdjustment(t, img, "contrast", 50)
	defer out.Close()

	dark := out.GetUCharAt3(4, 2, 0)
	bright := out.GetUCharAt3(4, 12, 0)
	if int(bright)-int(dark) <= 60 {
		t.Errorf("contrast should widen the 60-step gap, got %d..%d", dark, bright)
	}
}

func TestGammaDirection(t *testing.T) {
	img := flatImage(64, 16, 16)
	defer img.Close()

	brightened := runAdjustment(t, img, "gamma", 200)
	defer brightened.Close()
	darkened := runAdjustment(t, img, "gamma", 50)
	defer darkened.Close()

	if brightened.GetUCharAt3(8, 8, 0) <= 64 {
		t.Error("gamma above neutral should lift midtones")
	}
	if darkened.GetUCharAt3(8, 8, 0) >= 64 {
		t.Error("gamma below neutral should deepen midtones")
	}
}

func TestGammaNearNeutralIsIdentity(t *testing.T) {
	img := flatImage(64, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "gamma", 100)
	defer out.Close()

	if !matsEqual(img, out) {
		t.Error("neutral gamma must not touch the image")
	}
}

func TestExposureStops(t *testing.T) {
	img := flatImage(60, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "exposure", 100)
	defer out.Close()

	// +1 EV doubles the value
	got := out.GetUCharAt3(8, 8, 0)
	if got < 118 || got > 122 {
		t.Errorf("+1 EV on 60 = %d, want ~120", got)
	}
}

func TestTemperatureShiftsChannels(t *testing.T) {
	img := flatImage(128, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "temperature", 50)
	defer out.Close()

	blue := out.GetUCharAt3(8, 8, 0)
	red := out.GetUCharAt3(8, 8, 2)
	if red <= 128 || blue >= 128 {
		t.Errorf("warm shift should raise red and lower blue, got B=%d R=%d", blue, red)
	}
}

func TestTintShiftsGreenOnly(t *testing.T) {
	img := flatImage(128, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "tint", 50)
	defer out.Close()

	if out.GetUCharAt3(8, 8, 1) <= 128 {
		t.Error("positive tint should raise green")
	}
	if out.GetUCharAt3(8, 8, 0) != 128 || out.GetUCharAt3(8, 8, 2) != 128 {
		t.Error("tint must leave blue and red untouched")
	}
}

func TestSaturationOnGrayIsInert(t *testing.T) {
	img := flatImage(128, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "saturation", 80)
	defer out.Close()

	// gray pixels carry zero saturation and cannot gain chroma
	b := out.GetUCharAt3(8, 8, 0)
	g := out.GetUCharAt3(8, 8, 1)
	r := out.GetUCharAt3(8, 8, 2)
	if b != g || g != r {
		t.Errorf("gray should stay gray, got B=%d G=%d R=%d", b, g, r)
	}
}

func TestHueRotation(t *testing.T) {
	// pure blue in BGR
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 0, 0, 0), 16, 16, gocv.MatTypeCV8UC3)
	defer img.Close()

	out := runAdjustment(t, img, "hue", 120)
	defer out.Close()

	if matsEqual(img, out) {
		t.Error("a 120-degree hue shift must change a saturated color")
	}
}

func TestShadowsLiftDarkRegions(t *testing.T) {
	img := flatImage(30, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "shadows", 60)
	defer out.Close()

	if out.GetUCharAt3(8, 8, 0) <= 30 {
		t.Error("positive shadows should lift dark pixels")
	}
}

func TestHighlightsRecoverBrightRegions(t *testing.T) {
	img := flatImage(230, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "highlights", -60)
	defer out.Close()

	if out.GetUCharAt3(8, 8, 0) >= 230 {
		t.Error("negative highlights should pull bright pixels down")
	}
}

func TestSharpnessOnFlatImageIsInert(t *testing.T) {
	img := flatImage(128, 16, 16)
	defer img.Close()

	out := runAdjustment(t, img, "sharpness", 80)
	defer out.Close()

	if !matsEqual(img, out) {
		t.Error("unsharp masking a featureless image must change nothing")
	}
}
