// Package metrics computes image quality measures between image pairs.
package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// Metric computes a quality value from an original/processed pair.
type Metric interface {
	Calculate(original, processed gocv.Mat) (float64, error)
	Name() string
}

// Evaluator manages a set of named metrics.
type Evaluator struct {
	metrics map[string]Metric
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{metrics: make(map[string]Metric)}
	e.Register(&MSE{})
	e.Register(&PSNR{})
	e.Register(&SSIM{})
	return e
}

func (e *Evaluator) Register(m Metric) {
	e.metrics[m.Name()] = m
}

func (e *Evaluator) Calculate(name string, original, processed gocv.Mat) (float64, error) {
	m, ok := e.metrics[name]
	if !ok {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return m.Calculate(original, processed)
}

// CalculateAll evaluates every registered metric, skipping any that fail.
func (e *Evaluator) CalculateAll(original, processed gocv.Mat) map[string]float64 {
	results := make(map[string]float64, len(e.metrics))
	for name, m := range e.metrics {
		if v, err := m.Calculate(original, processed); err == nil {
			results[name] = v
		}
	}
	return results
}

func validatePair(original, processed gocv.Mat) error {
	if original.Empty() || processed.Empty() {
		return fmt.Errorf("empty image")
	}
	if original.Rows() != processed.Rows() || original.Cols() != processed.Cols() {
		return fmt.Errorf("dimension mismatch: %dx%d vs %dx%d",
			original.Cols(), original.Rows(), processed.Cols(), processed.Rows())
	}
	if original.Channels() != processed.Channels() {
		return fmt.Errorf("channel mismatch: %d vs %d", original.Channels(), processed.Channels())
	}
	return nil
}

func meanSquaredError(original, processed gocv.Mat) (float64, error) {
	if err := validatePair(original, processed); err != nil {
		return 0, err
	}

	origF := gocv.NewMat()
	defer origF.Close()
	procF := gocv.NewMat()
	defer procF.Close()
	original.ConvertTo(&origF, gocv.MatTypeCV32F)
	processed.ConvertTo(&procF, gocv.MatTypeCV32F)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(origF, procF, &diff)

	squared := gocv.NewMat()
	defer squared.Close()
	gocv.Multiply(diff, diff, &squared)

	sum := squared.Sum()
	total := float64(original.Total() * original.Channels())
	if total == 0 {
		return 0, fmt.Errorf("empty image")
	}

	mse := (sum.Val1 + sum.Val2 + sum.Val3 + sum.Val4) / total
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return 0, fmt.Errorf("unstable MSE")
	}
	return mse, nil
}

// MSE is the mean squared per-sample error; 0 means identical.
type MSE struct{}

func (m *MSE) Name() string { return "mse" }

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	return meanSquaredError(original, processed)
}

// PSNR is the peak signal-to-noise ratio in dB, clamped to [0,100].
type PSNR struct{}

func (p *PSNR) Name() string { return "psnr" }

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	mse, err := meanSquaredError(original, processed)
	if err != nil {
		return 0, err
	}
	if mse < 1e-10 {
		// Perfect or near-perfect match; report the ceiling instead of +Inf.
		return 100, nil
	}

	psnr := 20*math.Log10(255) - 10*math.Log10(mse)
	if math.IsNaN(psnr) || math.IsInf(psnr, 0) || psnr > 100 {
		return 100, nil
	}
	if psnr < 0 {
		return 0, nil
	}
	return psnr, nil
}

// SSIM is a global structural-similarity score over luminance, in [0,1].
type SSIM struct{}

func (s *SSIM) Name() string { return "ssim" }

func (s *SSIM) Calculate(original, processed gocv.Mat) (float64, error) {
	if err := validatePair(original, processed); err != nil {
		return 0, err
	}

	origF, err := toGrayFloat(original)
	if err != nil {
		return 0, err
	}
	defer origF.Close()
	procF, err := toGrayFloat(processed)
	if err != nil {
		return 0, err
	}
	defer procF.Close()

	c1 := math.Pow(0.01*255, 2)
	c2 := math.Pow(0.03*255, 2)

	mu1 := origF.Mean().Val1
	mu2 := procF.Mean().Val1

	origDev := deviations(origF, mu1)
	defer origDev.Close()
	procDev := deviations(procF, mu2)
	defer procDev.Close()

	sigma1Sq := meanOfProduct(origDev, origDev)
	sigma2Sq := meanOfProduct(procDev, procDev)
	sigma12 := meanOfProduct(origDev, procDev)

	numerator := (2*mu1*mu2 + c1) * (2*sigma12 + c2)
	denominator := (mu1*mu1 + mu2*mu2 + c1) * (sigma1Sq + sigma2Sq + c2)
	if denominator == 0 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return 0, fmt.Errorf("unstable SSIM denominator")
	}

	ssim := numerator / denominator
	if math.IsNaN(ssim) || math.IsInf(ssim, 0) {
		return 0, fmt.Errorf("unstable SSIM")
	}
	if ssim > 1 {
		ssim = 1
	}
	if ssim < 0 {
		ssim = 0
	}
	return ssim, nil
}

func toGrayFloat(img gocv.Mat) (gocv.Mat, error) {
	var gray gocv.Mat
	if img.Channels() > 1 {
		gray = gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		gray = img.Clone()
	}
	defer gray.Close()

	grayF := gocv.NewMat()
	gray.ConvertTo(&grayF, gocv.MatTypeCV32F)
	return grayF, nil
}

func deviations(img gocv.Mat, mean float64) gocv.Mat {
	dev := img.Clone()
	dev.SubtractFloat(float32(mean))
	return dev
}

func meanOfProduct(a, b gocv.Mat) float64 {
	product := gocv.NewMat()
	defer product.Close()
	gocv.Multiply(a, b, &product)
	return product.Mean().Val1
}
