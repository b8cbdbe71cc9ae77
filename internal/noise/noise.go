// Package noise implements procedural noise synthesis over BGR images.
//
// Generators share a noise-layer primitive: monochrome noise replicates one
// scalar field across all channels, and a scale above 1 generates the field
// at reduced resolution before bilinear upsampling, producing coarser,
// spatially correlated grain.
package noise

import (
	"image"
	"math"
	"math/rand"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultSeed keeps repeated preview runs visually stable.
const DefaultSeed = 1

var typeNames = []string{
	"gaussian", "salt_pepper", "poisson", "speckle",
	"uniform", "film_grain", "color_noise",
}

// Types returns the known noise type identifiers.
func Types() []string {
	out := make([]string, len(typeNames))
	copy(out, typeNames)
	return out
}

// IsKnown reports whether name identifies a supported noise type.
func IsKnown(name string) bool {
	for _, t := range typeNames {
		if t == name {
			return true
		}
	}
	return false
}

// Engine generates noise from a locally owned, seedable random source.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Reseed resets the random source.
func (e *Engine) Reseed(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rand.New(rand.NewSource(seed))
}

// Apply dispatches by noise type. An unknown type returns an unmodified copy.
// Intensity is normalized to [0,1]; intensity <= 0 is an identity.
func (e *Engine) Apply(img gocv.Mat, noiseType string, intensity float64, monochrome bool, scale float64) gocv.Mat {
	e.mu.Lock()
	defer e.mu.Unlock()

	if intensity <= 0 {
		return img.Clone()
	}

	switch noiseType {
	case "gaussian":
		return e.gaussian(img, intensity, monochrome, scale)
	case "salt_pepper":
		return e.saltPepper(img, intensity, monochrome, scale)
	case "poisson":
		return e.poisson(img, intensity)
	case "speckle":
		return e.speckle(img, intensity, monochrome, scale)
	case "uniform":
		return e.uniform(img, intensity, monochrome, scale)
	case "film_grain":
		return e.filmGrain(img, intensity, monochrome, scale)
	case "color_noise":
		// Color noise is per-channel by nature; monochrome is ignored.
		return e.colorNoise(img, intensity, scale)
	default:
		return img.Clone()
	}
}

// gaussian adds normally distributed noise, simulating sensor noise.
func (e *Engine) gaussian(img gocv.Mat, intensity float64, monochrome bool, scale float64) gocv.Mat {
	sigma := intensity * 80.0

	layer := e.noiseLayer(img.Rows(), img.Cols(), monochrome, scale, e.rng.NormFloat64)
	defer layer.Close()
	layer.MultiplyFloat(float32(sigma))

	return addLayer(img, layer)
}

// saltPepper forces random pixels to pure black or white, split evenly.
func (e *Engine) saltPepper(img gocv.Mat, intensity float64, monochrome bool, scale float64) gocv.Mat {
	result := img.Clone()
	h := img.Rows()
	w := img.Cols()
	prob := intensity * 0.20

	mask := e.sampledChannel(h, w, scale, e.rng.Float64, gocv.InterpolationNearestNeighbor)
	defer mask.Close()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := float64(mask.GetFloatAt(y, x))

			var value uint8
			switch {
			case m < prob/2:
				value = 255
			case m > 1-prob/2:
				value = 0
			default:
				continue
			}

			if monochrome {
				for c := 0; c < 3; c++ {
					result.SetUCharAt3(y, x, c, value)
				}
			} else {
				for c := 0; c < 3; c++ {
					if e.rng.Float64() > 0.5 {
						result.SetUCharAt3(y, x, c, value)
					}
				}
			}
		}
	}
	return result
}

// poisson simulates photon-counting noise; the noisy variant is blended
// against the original by intensity.
func (e *Engine) poisson(img gocv.Mat, intensity float64) gocv.Mat {
	lam := math.Max(1.0, 256.0/(1.0+intensity*50))

	noisy := img.Clone()
	defer noisy.Close()

	h := img.Rows()
	w := img.Cols()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				mean := float64(img.GetUCharAt3(y, x, c)) / lam
				v := e.poissonSample(mean) * lam
				if v > 255 {
					v = 255
				}
				noisy.SetUCharAt3(y, x, c, uint8(v))
			}
		}
	}

	dst := gocv.NewMat()
	gocv.AddWeighted(img, 1.0-intensity, noisy, intensity, 0, &dst)
	return dst
}

// speckle adds multiplicative noise: pixel += pixel * noise * variance.
func (e *Engine) speckle(img gocv.Mat, intensity float64, monochrome bool, scale float64) gocv.Mat {
	variance := intensity * 0.5

	layer := e.noiseLayer(img.Rows(), img.Cols(), monochrome, scale, e.rng.NormFloat64)
	defer layer.Close()

	imgF := gocv.NewMat()
	defer imgF.Close()
	img.ConvertTo(&imgF, gocv.MatTypeCV32FC3)

	product := gocv.NewMat()
	defer product.Close()
	gocv.Multiply(imgF, layer, &product)
	product.MultiplyFloat(float32(variance))

	sum := gocv.NewMat()
	defer sum.Close()
	gocv.Add(imgF, product, &sum)

	dst := gocv.NewMat()
	sum.ConvertTo(&dst, gocv.MatTypeCV8UC3)
	return dst
}

// uniform adds evenly distributed noise, harsher than gaussian.
func (e *Engine) uniform(img gocv.Mat, intensity float64, monochrome bool, scale float64) gocv.Mat {
	amplitude := intensity * 80.0

	layer := e.noiseLayer(img.Rows(), img.Cols(), monochrome, scale, func() float64 {
		return e.rng.Float64()*2 - 1
	})
	defer layer.Close()
	layer.MultiplyFloat(float32(amplitude))

	return addLayer(img, layer)
}

// filmGrain adds luminance-weighted grain; dark regions receive more of it,
// matching film emulsion behavior.
func (e *Engine) filmGrain(img gocv.Mat, intensity float64, monochrome bool, scale float64) gocv.Mat {
	sigma := intensity * 60.0

	grain := e.noiseLayer(img.Rows(), img.Cols(), monochrome, scale, e.rng.NormFloat64)
	defer grain.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	// mask = 1 - luminance*0.6 with luminance in [0,1]
	mask := gocv.NewMat()
	defer mask.Close()
	gray.ConvertToWithParams(&mask, gocv.MatTypeCV32F, -0.6/255.0, 1.0)

	mask3 := gocv.NewMat()
	defer mask3.Close()
	gocv.Merge([]gocv.Mat{mask, mask, mask}, &mask3)

	weighted := gocv.NewMat()
	defer weighted.Close()
	gocv.Multiply(grain, mask3, &weighted)
	weighted.MultiplyFloat(float32(sigma))

	return addLayer(img, weighted)
}

// colorNoise adds independent gaussian noise per channel.
func (e *Engine) colorNoise(img gocv.Mat, intensity float64, scale float64) gocv.Mat {
	sigma := intensity * 50.0

	layer := e.noiseLayer(img.Rows(), img.Cols(), false, scale, e.rng.NormFloat64)
	defer layer.Close()
	layer.MultiplyFloat(float32(sigma))

	return addLayer(img, layer)
}

// noiseLayer builds a 3-channel float field matching the image dimensions.
func (e *Engine) noiseLayer(h, w int, monochrome bool, scale float64, sample func() float64) gocv.Mat {
	layer := gocv.NewMat()
	if monochrome {
		ch := e.sampledChannel(h, w, scale, sample, gocv.InterpolationLinear)
		defer ch.Close()
		gocv.Merge([]gocv.Mat{ch, ch, ch}, &layer)
		return layer
	}

	channels := make([]gocv.Mat, 3)
	for i := range channels {
		channels[i] = e.sampledChannel(h, w, scale, sample, gocv.InterpolationLinear)
	}
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	gocv.Merge(channels, &layer)
	return layer
}

// sampledChannel fills a single-channel float mat from sample, generating at
// 1/scale resolution and upsampling when scale exceeds 1.
func (e *Engine) sampledChannel(h, w int, scale float64, sample func() float64, interp gocv.InterpolationFlags) gocv.Mat {
	genH, genW := h, w
	if scale > 1 {
		genH = max(1, int(float64(h)/scale))
		genW = max(1, int(float64(w)/scale))
	}

	ch := gocv.NewMatWithSize(genH, genW, gocv.MatTypeCV32F)
	if data, err := ch.DataPtrFloat32(); err == nil {
		for i := range data {
			data[i] = float32(sample())
		}
	}

	if genH == h && genW == w {
		return ch
	}

	full := gocv.NewMat()
	gocv.Resize(ch, &full, image.Pt(w, h), 0, 0, interp)
	ch.Close()
	return full
}

// poissonSample draws from Poisson(mean). Knuth's method for small means, a
// normal approximation above it where exp(-mean) underflows.
func (e *Engine) poissonSample(mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	if mean > 30 {
		v := math.Round(mean + math.Sqrt(mean)*e.rng.NormFloat64())
		if v < 0 {
			return 0
		}
		return v
	}

	limit := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= e.rng.Float64()
		if p <= limit {
			return float64(k)
		}
		k++
	}
}

// addLayer adds a float noise layer to the image and clamps back to 8-bit.
func addLayer(img gocv.Mat, layer gocv.Mat) gocv.Mat {
	imgF := gocv.NewMat()
	defer imgF.Close()
	img.ConvertTo(&imgF, gocv.MatTypeCV32FC3)

	sum := gocv.NewMat()
	defer sum.Close()
	gocv.Add(imgF, layer, &sum)

	dst := gocv.NewMat()
	sum.ConvertTo(&dst, gocv.MatTypeCV8UC3)
	return dst
}
