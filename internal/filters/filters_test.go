package filters

import (
	"testing"

	"gocv.io/x/gocv"
)

// gradientImage builds a BGR image with smoothly varying channel values so
// spatial filters have structure to act on.
func gradientImage(t *testing.T, width, height int) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetUCharAt3(y, x, 0, uint8((x*255)/width))
			img.SetUCharAt3(y, x, 1, uint8((y*255)/height))
			img.SetUCharAt3(y, x, 2, uint8(((x+y)*255)/(width+height)))
		}
	}
	return img
}

func matsEqual(a, b gocv.Mat) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)
	channels := gocv.Split(diff)
	nonZero := 0
	for _, ch := range channels {
		nonZero += gocv.CountNonZero(ch)
		ch.Close()
	}
	return nonZero == 0
}

func TestNamesAreRegistered(t *testing.T) {
	for _, name := range Names() {
		if !IsKnown(name) {
			t.Errorf("%s listed but not registered", name)
		}
	}
	if IsKnown("swirl") {
		t.Error("unregistered name reported as known")
	}
}

func TestBlendAtZeroReturnsOriginal(t *testing.T) {
	img := gradientImage(t, 32, 24)
	defer img.Close()

	for _, name := range Names() {
		filtered := Apply(img, name, 1.0)
		blended := Blend(img, filtered, 0)

		if !matsEqual(img, blended) {
			t.Errorf("%s: zero intensity must leave the image untouched", name)
		}
		filtered.Close()
		blended.Close()
	}
}

func TestBlendAtOneReturnsFiltered(t *testing.T) {
	img := gradientImage(t, 32, 24)
	defer img.Close()

	filtered := Apply(img, "sepia", 1.0)
	defer filtered.Close()

	blended := Blend(img, filtered, 1.0)
	defer blended.Close()

	if !matsEqual(filtered, blended) {
		t.Error("full intensity must return the filtered result")
	}
}

func TestBlendMidpoint(t *testing.T) {
	dark := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer dark.Close()
	bright := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer bright.Close()

	blended := Blend(dark, bright, 0.5)
	defer blended.Close()

	got := blended.GetUCharAt3(4, 4, 0)
	if got < 99 || got > 101 {
		t.Errorf("midpoint blend of 0 and 200 should be ~100, got %d", got)
	}
}

func TestApplyUnknownNameIsPassThrough(t *testing.T) {
	img := gradientImage(t, 16, 16)
	defer img.Close()

	out := Apply(img, "nonexistent", 1.0)
	defer out.Close()

	if !matsEqual(img, out) {
		t.Error("unknown filter must return an unmodified copy")
	}
}

func TestFiltersPreserveGeometry(t *testing.T) {
	img := gradientImage(t, 48, 36)
	defer img.Close()

	for _, name := range Names() {
		out := Apply(img, name, 0.7)
		if out.Cols() != img.Cols() || out.Rows() != img.Rows() {
			t.Errorf("%s: dimensions changed to %dx%d", name, out.Cols(), out.Rows())
		}
		if out.Type() != gocv.MatTypeCV8UC3 {
			t.Errorf("%s: output type %v, want CV8UC3", name, out.Type())
		}
		out.Close()
	}
}

func TestGaussianBlurSoftensEdges(t *testing.T) {
	img := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer img.Close()
	for y := 0; y < 32; y++ {
		for x := 16; x < 32; x++ {
			for c := 0; c < 3; c++ {
				img.SetUCharAt3(y, x, c, 255)
			}
		}
	}

	out := Apply(img, "gaussian_blur", 0.8)
	defer out.Close()

	edge := out.GetUCharAt3(16, 16, 0)
	if edge == 0 || edge == 255 {
		t.Errorf("blur should produce intermediate values at the step edge, got %d", edge)
	}
}

func TestSepiaWarmsImage(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 16, 16, gocv.MatTypeCV8UC3)
	defer img.Close()

	out := Apply(img, "sepia", 1.0)
	defer out.Close()

	blue := out.GetUCharAt3(8, 8, 0)
	red := out.GetUCharAt3(8, 8, 2)
	if red <= blue {
		t.Errorf("sepia should push red above blue, got B=%d R=%d", blue, red)
	}
}

func TestPosterizeReducesLevels(t *testing.T) {
	img := gradientImage(t, 64, 8)
	defer img.Close()

	out := Apply(img, "posterize", 1.0)
	defer out.Close()

	seen := map[uint8]bool{}
	for x := 0; x < 64; x++ {
		seen[out.GetUCharAt3(4, x, 0)] = true
	}
	if len(seen) > 2 {
		t.Errorf("full-intensity posterize should collapse to 2 levels, saw %d", len(seen))
	}
}

func TestPixelateCreatesBlocks(t *testing.T) {
	img := gradientImage(t, 64, 64)
	defer img.Close()

	out := Apply(img, "pixelate", 0.5)
	defer out.Close()

	// block size 32: pixels within one block share a value
	if out.GetUCharAt3(2, 2, 0) != out.GetUCharAt3(5, 5, 0) {
		t.Error("pixels inside one block should be identical")
	}
}

func TestOddKernel(t *testing.T) {
	tests := []struct {
		intensity float64
		scale     int
		lo, hi    int
		want      int
	}{
		{0, 50, 1, 51, 1},
		{0.5, 50, 1, 51, 25},
		{1.0, 50, 1, 51, 51},
		{0.1, 30, 3, 31, 3},
	}

	for _, tt := range tests {
		got := oddKernel(tt.intensity, tt.scale, tt.lo, tt.hi)
		if got != tt.want {
			t.Errorf("oddKernel(%.1f, %d, %d, %d) = %d, want %d",
				tt.intensity, tt.scale, tt.lo, tt.hi, got, tt.want)
		}
		if got%2 == 0 {
			t.Errorf("kernel size %d is even", got)
		}
	}
}
