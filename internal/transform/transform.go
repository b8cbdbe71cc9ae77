// Package transform provides stateless geometric image operations.
package transform

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// interpolationMap maps method names to OpenCV interpolation kernels.
var interpolationMap = map[string]gocv.InterpolationFlags{
	"nearest":  gocv.InterpolationNearestNeighbor,
	"bilinear": gocv.InterpolationLinear,
	"bicubic":  gocv.InterpolationCubic,
	"lanczos":  gocv.InterpolationLanczos4,
	"area":     gocv.InterpolationArea,
}

// InterpolationMethods lists the accepted resize method names.
func InterpolationMethods() []string {
	return []string{"nearest", "bilinear", "bicubic", "lanczos", "area"}
}

// Resize rescales the image to the exact target dimensions. An unknown
// method falls back to Lanczos. Non-positive dimensions are a no-op.
func Resize(img gocv.Mat, width, height int, method string) gocv.Mat {
	if img.Empty() || width <= 0 || height <= 0 {
		return img.Clone()
	}

	interp, ok := interpolationMap[method]
	if !ok {
		interp = gocv.InterpolationLanczos4
	}

	dst := gocv.NewMat()
	gocv.Resize(img, &dst, image.Pt(width, height), 0, 0, interp)
	return dst
}

// ResizeByPercentage scales the image by a percentage, preserving aspect ratio.
func ResizeByPercentage(img gocv.Mat, percentage float64, method string) gocv.Mat {
	if img.Empty() || percentage <= 0 {
		return img.Clone()
	}

	w := img.Cols()
	h := img.Rows()
	newW := max(1, int(float64(w)*percentage/100))
	newH := max(1, int(float64(h)*percentage/100))
	return Resize(img, newW, newH, method)
}

// ResizeToFit shrinks the image to fit within the given bounds, preserving
// aspect ratio. An image that already fits is returned unchanged.
func ResizeToFit(img gocv.Mat, maxWidth, maxHeight int, method string) gocv.Mat {
	if img.Empty() {
		return img.Clone()
	}

	w := img.Cols()
	h := img.Rows()
	if w <= maxWidth && h <= maxHeight {
		return img.Clone()
	}

	scale := math.Min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))
	return Resize(img, newW, newH, method)
}

// Rotate rotates the image about its center by the given angle in degrees.
// With expand the canvas grows to the rotated bounding box and exposed
// corners are filled with black; otherwise content may be clipped.
func Rotate(img gocv.Mat, angle float64, expand bool) gocv.Mat {
	if img.Empty() {
		return img.Clone()
	}

	w := img.Cols()
	h := img.Rows()
	center := image.Pt(w/2, h/2)

	m := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer m.Close()

	dst := gocv.NewMat()
	if !expand {
		gocv.WarpAffine(img, &dst, m, image.Pt(w, h))
		return dst
	}

	cos := math.Abs(m.GetDoubleAt(0, 0))
	sin := math.Abs(m.GetDoubleAt(0, 1))
	newW := int(float64(h)*sin + float64(w)*cos)
	newH := int(float64(h)*cos + float64(w)*sin)

	// Shift so the rotated content stays centered on the larger canvas.
	m.SetDoubleAt(0, 2, m.GetDoubleAt(0, 2)+float64(newW-w)/2)
	m.SetDoubleAt(1, 2, m.GetDoubleAt(1, 2)+float64(newH-h)/2)

	gocv.WarpAffineWithParams(img, &dst, m, image.Pt(newW, newH),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})
	return dst
}

// FlipHorizontal mirrors the image along the vertical axis.
func FlipHorizontal(img gocv.Mat) gocv.Mat {
	if img.Empty() {
		return img.Clone()
	}
	dst := gocv.NewMat()
	gocv.Flip(img, &dst, 1)
	return dst
}

// FlipVertical mirrors the image along the horizontal axis.
func FlipVertical(img gocv.Mat) gocv.Mat {
	if img.Empty() {
		return img.Clone()
	}
	dst := gocv.NewMat()
	gocv.Flip(img, &dst, 0)
	return dst
}

// Crop extracts a rectangle from the image. The rectangle is clamped to the
// image bounds; a rectangle that degenerates after clamping yields a copy of
// the input instead of an empty buffer.
func Crop(img gocv.Mat, x, y, width, height int) gocv.Mat {
	if img.Empty() {
		return img.Clone()
	}

	w := img.Cols()
	h := img.Rows()
	x = max(0, min(x, w))
	y = max(0, min(y, h))
	x2 := min(x+width, w)
	y2 := min(y+height, h)

	if x2 <= x || y2 <= y {
		return img.Clone()
	}

	region := img.Region(image.Rect(x, y, x2, y2))
	defer region.Close()
	return region.Clone()
}

// AutoCrop trims borders whose luminance does not exceed the threshold. An
// image that is entirely below the threshold is returned unchanged.
func AutoCrop(img gocv.Mat, threshold int) gocv.Mat {
	if img.Empty() {
		return img.Clone()
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, float32(threshold), 255, gocv.ThresholdBinary)

	rect, found := nonZeroBounds(binary)
	if !found {
		return img.Clone()
	}

	region := img.Region(rect)
	defer region.Close()
	return region.Clone()
}

// nonZeroBounds scans a single-channel 8-bit mat for the bounding box of its
// nonzero pixels.
func nonZeroBounds(binary gocv.Mat) (image.Rectangle, bool) {
	rows := binary.Rows()
	cols := binary.Cols()

	minX, minY := cols, rows
	maxX, maxY := -1, -1
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if binary.GetUCharAt(y, x) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
