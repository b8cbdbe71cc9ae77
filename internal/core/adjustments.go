package core

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// applyAdjustments runs the tonal adjustment stage. Sub-order is fixed:
// brightness/contrast, exposure, gamma, HSV (hue/saturation/vibrance),
// temperature, tint, highlights, shadows, clarity, sharpness. Each step is
// skipped while its slider sits at neutral.
func (p *Processor) applyAdjustments(source gocv.Mat, adj map[string]float64) gocv.Mat {
	result := source.Clone()

	// Brightness and contrast share one affine pass:
	// out = (1 + contrast/100)*in + brightness*2.55.
	brightness := adj["brightness"]
	contrast := adj["contrast"]
	if brightness != 0 || contrast != 0 {
		next := gocv.NewMat()
		gocv.ConvertScaleAbs(result, &next, 1.0+contrast/100.0, brightness*2.55)
		result.Close()
		result = next
	}

	// Exposure in EV stops: multiply by 2^EV.
	if exposure := adj["exposure"] / 100.0; exposure != 0 {
		next := gocv.NewMat()
		gocv.ConvertScaleAbs(result, &next, math.Pow(2, exposure), 0)
		result.Close()
		result = next
	}

	// Gamma as a power-law lookup table. Values within 1% of neutral are
	// treated as identity.
	if gamma := adj["gamma"] / 100.0; math.Abs(gamma-1.0) > 0.01 {
		next := applyGamma(result, gamma)
		result.Close()
		result = next
	}

	hue := adj["hue"]
	saturation := adj["saturation"]
	vibrance := adj["vibrance"]
	if hue != 0 || saturation != 0 || vibrance != 0 {
		next := applyHSV(result, hue, saturation, vibrance)
		result.Close()
		result = next
	}

	// Temperature shifts along the blue/red axis.
	if temperature := adj["temperature"]; temperature != 0 {
		next := shiftChannels(result, temperature*0.3, 0, 2)
		result.Close()
		result = next
	}

	// Tint shifts along the green/magenta axis.
	if tint := adj["tint"]; tint != 0 {
		next := shiftChannels(result, tint*0.3, 1, 1)
		result.Close()
		result = next
	}

	if highlights := adj["highlights"]; highlights != 0 {
		next := adjustTonalRange(result, highlights, true)
		result.Close()
		result = next
	}

	if shadows := adj["shadows"]; shadows != 0 {
		next := adjustTonalRange(result, shadows, false)
		result.Close()
		result = next
	}

	if clarity := adj["clarity"]; clarity != 0 {
		next := applyClarity(result, clarity)
		result.Close()
		result = next
	}

	if sharpness := adj["sharpness"]; sharpness > 0 {
		next := applySharpness(result, sharpness)
		result.Close()
		result = next
	}

	return result
}

func applyGamma(img gocv.Mat, gamma float64) gocv.Mat {
	invGamma := 1.0 / gamma
	lut := gocv.NewMatWithSize(1, 256, gocv.MatTypeCV8U)
	defer lut.Close()
	for i := 0; i < 256; i++ {
		lut.SetUCharAt(0, i, uint8(math.Pow(float64(i)/255.0, invGamma)*255))
	}

	dst := gocv.NewMat()
	gocv.LUT(img, lut, &dst)
	return dst
}

// applyHSV performs the combined hue shift, saturation scale, and vibrance
// boost in one HSV round trip. Hue is halved to OpenCV's 0-179 range;
// vibrance preferentially lifts low-saturation pixels.
func applyHSV(img gocv.Mat, hue, saturation, vibrance float64) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	if hue != 0 {
		lut := gocv.NewMatWithSize(1, 256, gocv.MatTypeCV8U)
		for i := 0; i < 256; i++ {
			v := math.Mod(float64(i)+hue/2, 180)
			if v < 0 {
				v += 180
			}
			lut.SetUCharAt(0, i, uint8(math.Round(v)))
		}
		shifted := gocv.NewMat()
		gocv.LUT(channels[0], lut, &shifted)
		lut.Close()
		channels[0].Close()
		channels[0] = shifted
	}

	if saturation != 0 || vibrance != 0 {
		factor := 1.0 + saturation/100.0
		lut := gocv.NewMatWithSize(1, 256, gocv.MatTypeCV8U)
		for i := 0; i < 256; i++ {
			s := float64(i)
			if saturation != 0 {
				s = clampSample(s * factor)
			}
			if vibrance != 0 {
				s = clampSample(s + (vibrance/100.0)*(1.0-s/255.0)*50)
			}
			lut.SetUCharAt(0, i, uint8(math.Round(s)))
		}
		scaled := gocv.NewMat()
		gocv.LUT(channels[1], lut, &scaled)
		lut.Close()
		channels[1].Close()
		channels[1] = scaled
	}

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	dst := gocv.NewMat()
	gocv.CvtColor(merged, &dst, gocv.ColorHSVToBGR)
	return dst
}

// shiftChannels adds shift to channel up and subtracts it from channel down.
// Passing the same index for both applies a single additive shift.
func shiftChannels(img gocv.Mat, shift float64, down, up int) gocv.Mat {
	channels := gocv.Split(img)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	if down == up {
		channels[up].AddFloat(float32(shift))
	} else {
		channels[down].SubtractFloat(float32(shift))
		channels[up].AddFloat(float32(shift))
	}

	dst := gocv.NewMat()
	gocv.Merge(channels, &dst)
	return dst
}

// adjustTonalRange selectively brightens or darkens one luminance band.
// The mask weights bright pixels for highlights and dark pixels for shadows.
func adjustTonalRange(img gocv.Mat, value float64, highlights bool) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	// luminance in [0,1], then mask = clamp(±(lum-0.5)*2, 0, 1)
	norm := gocv.NewMat()
	defer norm.Close()
	if highlights {
		gray.ConvertToWithParams(&norm, gocv.MatTypeCV32F, 2.0/255.0, -1.0)
	} else {
		gray.ConvertToWithParams(&norm, gocv.MatTypeCV32F, -2.0/255.0, 1.0)
	}

	lower := gocv.NewMat()
	defer lower.Close()
	gocv.Threshold(norm, &lower, 0, 0, gocv.ThresholdToZero)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(lower, &mask, 1, 0, gocv.ThresholdTrunc)
	mask.MultiplyFloat(float32(value * 2.55))

	mask3 := gocv.NewMat()
	defer mask3.Close()
	gocv.Merge([]gocv.Mat{mask, mask, mask}, &mask3)

	imgF := gocv.NewMat()
	defer imgF.Close()
	img.ConvertTo(&imgF, gocv.MatTypeCV32FC3)

	sum := gocv.NewMat()
	defer sum.Close()
	gocv.Add(imgF, mask3, &sum)

	dst := gocv.NewMat()
	sum.ConvertTo(&dst, gocv.MatTypeCV8UC3)
	return dst
}

// applyClarity boosts local contrast by re-adding a detail layer isolated
// against a heavy blur.
func applyClarity(img gocv.Mat, value float64) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(0, 0), 10, 10, gocv.BorderDefault)

	detail := gocv.NewMat()
	defer detail.Close()
	gocv.Subtract(img, blurred, &detail)

	dst := gocv.NewMat()
	gocv.AddWeighted(img, 1.0, detail, value/50.0, 0, &dst)
	return dst
}

// applySharpness is an unsharp mask with fixed sigma and slider-driven
// amount.
func applySharpness(img gocv.Mat, value float64) gocv.Mat {
	amount := value / 100.0

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(0, 0), 2, 2, gocv.BorderDefault)

	dst := gocv.NewMat()
	gocv.AddWeighted(img, 1.0+amount, blurred, -amount, 0, &dst)
	return dst
}

func clampSample(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
