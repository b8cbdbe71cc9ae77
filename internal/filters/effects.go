package filters

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// GaussianBlur applies a Gaussian kernel blur. The kernel size grows with
// intensity up to 51.
func GaussianBlur(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	k := oddKernel(intensity, 50, 1, 51)
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	return Blend(img, blurred, intensity)
}

// BoxBlur applies a uniform box blur, more aggressive than Gaussian.
func BoxBlur(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	k := oddKernel(intensity, 40, 1, 41)
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.Blur(img, &blurred, image.Pt(k, k))

	return Blend(img, blurred, intensity)
}

// MedianBlur smooths while preserving edges; effective on salt and pepper
// noise.
func MedianBlur(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	k := oddKernel(intensity, 30, 3, 31)
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(img, &blurred, k)

	return Blend(img, blurred, intensity)
}

// Sharpen emphasizes edges with a fixed-sigma unsharp difference.
func Sharpen(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	gaussian := gocv.NewMat()
	defer gaussian.Close()
	gocv.GaussianBlur(img, &gaussian, image.Pt(0, 0), 3, 3, gocv.BorderDefault)

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.AddWeighted(img, 1.5, gaussian, -0.5, 0, &sharpened)

	return Blend(img, sharpened, intensity)
}

// UnsharpMask sharpens with sigma and amount scaled by intensity.
func UnsharpMask(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	sigma := 1.0 + intensity*4.0
	amount := 0.5 + intensity*2.0

	gaussian := gocv.NewMat()
	defer gaussian.Close()
	gocv.GaussianBlur(img, &gaussian, image.Pt(0, 0), sigma, sigma, gocv.BorderDefault)

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.AddWeighted(img, 1.0+amount, gaussian, -amount, 0, &sharpened)

	return Blend(img, sharpened, intensity)
}

// EdgeDetect runs Canny on luminance and composites the edge map back into
// color. Thresholds shrink as intensity grows, exposing more edges.
func EdgeDetect(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	threshold1 := float32(50 * (1 - intensity*0.5))
	threshold2 := float32(150 * (1 - intensity*0.5))

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, threshold1, threshold2)

	edgesBGR := gocv.NewMat()
	defer edgesBGR.Close()
	gocv.CvtColor(edges, &edgesBGR, gocv.ColorGrayToBGR)

	return Blend(img, edgesBGR, intensity)
}

// Emboss convolves with a directional gradient kernel plus a 128 bias,
// simulating raised relief.
func Emboss(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	values := [3][3]float32{
		{-2, -1, 0},
		{-1, 1, 1},
		{0, 1, 2},
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			kernel.SetFloatAt(r, c, values[r][c])
		}
	}

	embossed := gocv.NewMat()
	defer embossed.Close()
	gocv.Filter2D(img, &embossed, gocv.MatType(-1), kernel, image.Pt(-1, -1), 128, gocv.BorderDefault)

	return Blend(img, embossed, intensity)
}

// sepia color-mix matrices, BGR row order.
var (
	sepiaMatrix = [3][3]float32{
		{0.272, 0.534, 0.131},
		{0.349, 0.686, 0.168},
		{0.393, 0.769, 0.189},
	}
	vintageMatrix = [3][3]float32{
		{0.30, 0.52, 0.15},
		{0.35, 0.67, 0.17},
		{0.38, 0.74, 0.19},
	}
)

func colorMix(img gocv.Mat, matrix [3][3]float32) gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			kernel.SetFloatAt(r, c, matrix[r][c])
		}
	}

	dst := gocv.NewMat()
	gocv.Transform(img, &dst, kernel)
	return dst
}

// Sepia applies the classic warm brown color-mix matrix.
func Sepia(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	toned := colorMix(img, sepiaMatrix)
	defer toned.Close()

	return Blend(img, toned, intensity)
}

// Vintage layers a sepia tone, faded contrast, and a light vignette.
func Vintage(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	toned := colorMix(img, vintageMatrix)
	defer toned.Close()

	faded := gocv.NewMat()
	defer faded.Close()
	gocv.ConvertScaleAbs(toned, &faded, 0.9, 15)

	mask := radialMask(img.Cols(), img.Rows(), 0.4)
	defer mask.Close()

	vignetted := applyMask(faded, mask)
	defer vignetted.Close()

	return Blend(img, vignetted, intensity)
}

// Vignette darkens the corners with a Gaussian-feathered radial mask.
func Vignette(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	w := img.Cols()
	h := img.Rows()
	strength := 0.3 + intensity*0.7

	mask := radialMask(w, h, strength)
	defer mask.Close()

	sigma := float64(max(w, h)) * 0.05
	feathered := gocv.NewMat()
	defer feathered.Close()
	gocv.GaussianBlur(mask, &feathered, image.Pt(0, 0), sigma, sigma, gocv.BorderDefault)

	vignetted := applyMask(img, feathered)
	defer vignetted.Close()

	return Blend(img, vignetted, intensity)
}

// HDREffect boosts a detail layer extracted against a heavy blur and lifts
// saturation slightly.
func HDREffect(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(0, 0), 15, 15, gocv.BorderDefault)

	detail := gocv.NewMat()
	defer detail.Close()
	gocv.Subtract(img, blurred, &detail)

	boosted := gocv.NewMat()
	defer boosted.Close()
	gocv.ConvertScaleAbs(detail, &boosted, 1.0+intensity*2.0, 0)

	hdr := gocv.NewMat()
	defer hdr.Close()
	gocv.Add(img, boosted, &hdr)

	saturated := scaleSaturation(hdr, 1+intensity*0.3)
	defer saturated.Close()

	return Blend(img, saturated, intensity)
}

// PencilSketch dodge-blends grayscale against its inverted blur.
func PencilSketch(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(gray, &inverted)

	sigma := 10 + intensity*40
	blurredInv := gocv.NewMat()
	defer blurredInv.Close()
	gocv.GaussianBlur(inverted, &blurredInv, image.Pt(0, 0), sigma, sigma, gocv.BorderDefault)

	denom := gocv.NewMat()
	defer denom.Close()
	gocv.BitwiseNot(blurredInv, &denom)

	grayF := gocv.NewMat()
	defer grayF.Close()
	gray.ConvertTo(&grayF, gocv.MatTypeCV32F)

	denomF := gocv.NewMat()
	defer denomF.Close()
	denom.ConvertTo(&denomF, gocv.MatTypeCV32F)
	denomF.AddFloat(1) // avoid division by zero in flat black regions

	quotient := gocv.NewMat()
	defer quotient.Close()
	gocv.Divide(grayF, denomF, &quotient)
	quotient.MultiplyFloat(256)

	sketch := gocv.NewMat()
	defer sketch.Close()
	quotient.ConvertTo(&sketch, gocv.MatTypeCV8U)

	sketchBGR := gocv.NewMat()
	defer sketchBGR.Close()
	gocv.CvtColor(sketch, &sketchBGR, gocv.ColorGrayToBGR)

	return Blend(img, sketchBGR, intensity)
}

// OilPainting flattens surfaces with repeated edge-preserving smoothing.
func OilPainting(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	diameter := int(5 + intensity*10)
	sigma := 30 + intensity*120
	passes := max(1, int(math.Round(intensity*3)))

	oil := img.Clone()
	for i := 0; i < passes; i++ {
		next := gocv.NewMat()
		gocv.BilateralFilter(oil, &next, diameter, sigma, sigma)
		oil.Close()
		oil = next
	}
	defer oil.Close()

	return Blend(img, oil, intensity)
}

// Pixelate downscales and re-upscales with nearest-neighbor sampling.
func Pixelate(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	w := img.Cols()
	h := img.Rows()
	pixelSize := max(2, int(math.Round(intensity*64)))

	smallW := max(1, w/pixelSize)
	smallH := max(1, h/pixelSize)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(img, &small, image.Pt(smallW, smallH), 0, 0, gocv.InterpolationLinear)

	pixelated := gocv.NewMat()
	defer pixelated.Close()
	gocv.Resize(small, &pixelated, image.Pt(w, h), 0, 0, gocv.InterpolationNearestNeighbor)

	return Blend(img, pixelated, intensity)
}

// Posterize quantizes each channel to a shrinking number of levels.
func Posterize(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	levels := max(2, int(math.Round(16-intensity*14)))
	step := 256 / levels

	lut := newLUT(func(i int) uint8 {
		return clampU8(float64(i/step*step + step/2))
	})
	defer lut.Close()

	posterized := gocv.NewMat()
	defer posterized.Close()
	gocv.LUT(img, lut, &posterized)

	return Blend(img, posterized, intensity)
}

// WarmFilter pushes the image toward orange: red up, blue down.
func WarmFilter(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	strength := float32(intensity * 30)

	channels := gocv.Split(img)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	channels[0].SubtractFloat(strength)
	channels[1].AddFloat(strength * 0.3)
	channels[2].AddFloat(strength)

	warm := gocv.NewMat()
	defer warm.Close()
	gocv.Merge(channels, &warm)

	return Blend(img, warm, intensity)
}

// CoolFilter pushes the image toward blue: blue up, red down.
func CoolFilter(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	strength := float32(intensity * 30)

	channels := gocv.Split(img)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	channels[0].AddFloat(strength)
	channels[2].SubtractFloat(strength)

	cool := gocv.NewMat()
	defer cool.Close()
	gocv.Merge(channels, &cool)

	return Blend(img, cool, intensity)
}

// Dramatic combines a contrast boost, partial desaturation, and a vignette
// for a cinematic look.
func Dramatic(img gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return img.Clone()
	}

	contrasted := gocv.NewMat()
	defer contrasted.Close()
	gocv.ConvertScaleAbs(img, &contrasted, 1.0+intensity*0.5, -10*intensity)

	desaturated := scaleSaturation(contrasted, 1-intensity*0.4)
	defer desaturated.Close()

	mask := radialMask(img.Cols(), img.Rows(), 0.5*intensity)
	defer mask.Close()

	vignetted := applyMask(desaturated, mask)
	defer vignetted.Close()

	return Blend(img, vignetted, intensity)
}
