// Package filters implements the intensity-parameterized stylistic effects.
//
// Every filter takes an image and a normalized intensity in [0,1], computes a
// fully transformed variant, and linearly blends it against the input. Most
// filters also scale their internal parameters with intensity so that the
// effect strengthens smoothly instead of fading in a fixed-strength result.
package filters

import (
	"math"

	"gocv.io/x/gocv"
)

// Filter transforms an image at the given normalized intensity.
type Filter func(img gocv.Mat, intensity float64) gocv.Mat

var registry = map[string]Filter{
	"gaussian_blur": GaussianBlur,
	"box_blur":      BoxBlur,
	"median_blur":   MedianBlur,
	"sharpen":       Sharpen,
	"unsharp_mask":  UnsharpMask,
	"edge_detect":   EdgeDetect,
	"emboss":        Emboss,
	"sepia":         Sepia,
	"vintage":       Vintage,
	"vignette":      Vignette,
	"hdr_effect":    HDREffect,
	"pencil_sketch": PencilSketch,
	"oil_painting":  OilPainting,
	"pixelate":      Pixelate,
	"posterize":     Posterize,
	"warm_filter":   WarmFilter,
	"cool_filter":   CoolFilter,
	"dramatic":      Dramatic,
}

// names preserves the panel ordering of the filter set.
var names = []string{
	"gaussian_blur", "box_blur", "median_blur", "sharpen", "unsharp_mask",
	"edge_detect", "emboss", "sepia", "vintage", "vignette", "hdr_effect",
	"pencil_sketch", "oil_painting", "pixelate", "posterize", "warm_filter",
	"cool_filter", "dramatic",
}

// Names returns the known filter identifiers.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// IsKnown reports whether name identifies a registered filter.
func IsKnown(name string) bool {
	_, ok := registry[name]
	return ok
}

// Apply dispatches by filter name. An unknown name returns an unmodified
// copy rather than an error.
func Apply(img gocv.Mat, name string, intensity float64) gocv.Mat {
	fn, ok := registry[name]
	if !ok {
		return img.Clone()
	}
	return fn(img, intensity)
}

// Blend linearly interpolates between the original and the filtered image.
// The returned mat is always newly owned by the caller.
func Blend(original, filtered gocv.Mat, intensity float64) gocv.Mat {
	if intensity <= 0 {
		return original.Clone()
	}
	if intensity >= 1 {
		return filtered.Clone()
	}
	dst := gocv.NewMat()
	gocv.AddWeighted(original, 1.0-intensity, filtered, intensity, 0, &dst)
	return dst
}

// oddKernel maps intensity to an odd kernel size within [lo, hi].
func oddKernel(intensity float64, scale, lo, hi int) int {
	k := int(intensity*float64(scale)) | 1
	if k < lo {
		k = lo
	}
	if k > hi {
		k = hi
	}
	return k
}

// newLUT builds a 256-entry lookup table mat from f.
func newLUT(f func(i int) uint8) gocv.Mat {
	lut := gocv.NewMatWithSize(1, 256, gocv.MatTypeCV8U)
	for i := 0; i < 256; i++ {
		lut.SetUCharAt(0, i, f(i))
	}
	return lut
}

func clampU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// scaleSaturation multiplies the HSV saturation channel by factor.
func scaleSaturation(img gocv.Mat, factor float64) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	lut := newLUT(func(i int) uint8 { return clampU8(float64(i) * factor) })
	defer lut.Close()

	scaled := gocv.NewMat()
	gocv.LUT(channels[1], lut, &scaled)
	channels[1].Close()
	channels[1] = scaled

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	dst := gocv.NewMat()
	gocv.CvtColor(merged, &dst, gocv.ColorHSVToBGR)
	return dst
}

// radialMask builds a single-channel float mask that falls off from 1 at the
// image center toward 1-strength at the corners.
func radialMask(width, height int, strength float64) gocv.Mat {
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV32F)
	data, err := mask.DataPtrFloat32()
	if err != nil {
		return mask
	}

	cx := float64(width / 2)
	cy := float64(height / 2)
	maxDist := math.Sqrt(cx*cx + cy*cy)
	if maxDist == 0 {
		maxDist = 1
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist := math.Sqrt(dx*dx + dy*dy)
			v := 1 - dist/maxDist*strength
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			data[y*width+x] = float32(v)
		}
	}
	return mask
}

// applyMask multiplies the image by a single-channel float mask.
func applyMask(img gocv.Mat, mask gocv.Mat) gocv.Mat {
	imgF := gocv.NewMat()
	defer imgF.Close()
	img.ConvertTo(&imgF, gocv.MatTypeCV32FC3)

	mask3 := gocv.NewMat()
	defer mask3.Close()
	gocv.Merge([]gocv.Mat{mask, mask, mask}, &mask3)

	product := gocv.NewMat()
	defer product.Close()
	gocv.Multiply(imgF, mask3, &product)

	dst := gocv.NewMat()
	product.ConvertTo(&dst, gocv.MatTypeCV8UC3)
	return dst
}
