// Package core orchestrates the non-destructive editing pipeline.
//
// A Processor holds the authoritative full-resolution image, a downscaled
// preview copy, the current editing parameters, and the undo/redo history.
// Pixel data and parameters are guarded by a state mutex; pipeline runs are
// serialized by a separate processing mutex so a full-resolution commit can
// never overlap a preview run.
package core

import (
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"pixelforge/internal/config"
	"pixelforge/internal/filters"
	"pixelforge/internal/history"
	"pixelforge/internal/imageio"
	"pixelforge/internal/metrics"
	"pixelforge/internal/noise"
	"pixelforge/internal/transform"
)

// AdjustmentRanges declares the valid [min,max] span of each slider.
var AdjustmentRanges = map[string][2]float64{
	"brightness":  {-100, 100},
	"contrast":    {-100, 100},
	"saturation":  {-100, 100},
	"hue":         {-180, 180},
	"gamma":       {10, 300}, // real value = slider / 100
	"exposure":    {-300, 300},
	"temperature": {-100, 100},
	"tint":        {-100, 100},
	"highlights":  {-100, 100},
	"shadows":     {-100, 100},
	"clarity":     {-100, 100},
	"vibrance":    {-100, 100},
	"sharpness":   {0, 100},
}

// adjustmentDefaults holds the neutral value of each slider. Gamma's neutral
// is 100, representing a 1.0 exponent.
var adjustmentDefaults = map[string]float64{
	"brightness": 0, "contrast": 0, "saturation": 0,
	"hue": 0, "gamma": 100, "exposure": 0,
	"temperature": 0, "tint": 0,
	"highlights": 0, "shadows": 0,
	"clarity": 0, "vibrance": 0, "sharpness": 0,
}

// FilterSetting is one active filter with its interface-scale intensity.
// Slice order is application order.
type FilterSetting struct {
	Name      string
	Intensity int
}

// NoiseParams configures the noise stage.
type NoiseParams struct {
	Type       string
	Intensity  int
	Monochrome bool
	Scale      float64
}

func defaultNoiseParams() NoiseParams {
	return NoiseParams{Type: "gaussian", Intensity: 0, Monochrome: true, Scale: 1.0}
}

// Processor is the central editing aggregate.
type Processor struct {
	mu     sync.RWMutex // guards all state below
	procMu sync.Mutex   // serializes pipeline executions

	original        gocv.Mat
	previewOriginal gocv.Mat
	processed       gocv.Mat
	filePath        string

	adjustments map[string]float64
	filterStack []FilterSetting
	noiseParams NoiseParams

	history     *history.Manager
	noiseEngine *noise.Engine
	loader      *imageio.Loader
	evaluator   *metrics.Evaluator
	settings    config.Settings
	logger      *logrus.Logger
}

func NewProcessor(logger *logrus.Logger, settings config.Settings) *Processor {
	p := &Processor{
		original:        gocv.NewMat(),
		previewOriginal: gocv.NewMat(),
		processed:       gocv.NewMat(),
		adjustments:     make(map[string]float64, len(adjustmentDefaults)),
		history:         history.NewManager(settings.MaxHistoryStates),
		noiseEngine:     noise.NewEngine(noise.DefaultSeed),
		loader:          imageio.NewLoader(logger),
		evaluator:       metrics.NewEvaluator(),
		settings:        settings,
		logger:          logger,
	}
	p.resetParamsLocked()
	return p
}

// ─── File operations ────────────────────────────────────────────────

// LoadImage replaces the session image. On failure the previous state is
// left untouched and false is returned.
func (p *Processor) LoadImage(path string) bool {
	mat, err := p.loader.Load(path)
	if err != nil {
		p.logger.WithError(err).WithField("path", path).Error("Image load failed")
		return false
	}

	p.procMu.Lock()
	defer p.procMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeImagesLocked()
	p.original = mat
	p.filePath = path
	p.previewOriginal = p.createPreviewLocked()

	p.history.Clear()
	p.history.Push(p.original)
	p.resetParamsLocked()
	return true
}

// SaveImage runs the full-resolution pipeline and writes the result.
func (p *Processor) SaveImage(path string, quality int) bool {
	p.procMu.Lock()
	defer p.procMu.Unlock()

	result, ok := p.runFull()
	if !ok {
		return false
	}
	defer result.Close()

	if err := p.loader.Save(path, result, quality); err != nil {
		p.logger.WithError(err).WithField("path", path).Error("Image save failed")
		return false
	}
	return true
}

// ─── Parameter management ───────────────────────────────────────────

// SetAdjustment updates one slider, clamped to its declared range. Unknown
// keys are ignored.
func (p *Processor) SetAdjustment(key string, value float64) {
	bounds, ok := AdjustmentRanges[key]
	if !ok {
		p.logger.WithField("key", key).Debug("Ignoring unknown adjustment key")
		return
	}
	if value < bounds[0] {
		value = bounds[0]
	} else if value > bounds[1] {
		value = bounds[1]
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.adjustments[key] = value
}

// Adjustment returns the current value of one slider, or 0 for unknown keys.
func (p *Processor) Adjustment(key string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.adjustments[key]
}

// SetFilter activates a filter at the given intensity (1-100). Intensity at
// or below zero deactivates it. A re-activated filter keeps its position in
// the application order; a new one is appended. Unknown names are ignored.
func (p *Processor) SetFilter(name string, intensity int) {
	if !filters.IsKnown(name) {
		p.logger.WithField("filter", name).Debug("Ignoring unknown filter")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if intensity <= 0 {
		for i, f := range p.filterStack {
			if f.Name == name {
				p.filterStack = append(p.filterStack[:i], p.filterStack[i+1:]...)
				return
			}
		}
		return
	}
	if intensity > 100 {
		intensity = 100
	}

	for i := range p.filterStack {
		if p.filterStack[i].Name == name {
			p.filterStack[i].Intensity = intensity
			return
		}
	}
	p.filterStack = append(p.filterStack, FilterSetting{Name: name, Intensity: intensity})
}

// FilterIntensity returns the intensity of a filter, 0 when inactive.
func (p *Processor) FilterIntensity(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, f := range p.filterStack {
		if f.Name == name {
			return f.Intensity
		}
	}
	return 0
}

// ActiveFilters returns the filter stack in application order.
func (p *Processor) ActiveFilters() []FilterSetting {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]FilterSetting, len(p.filterStack))
	copy(out, p.filterStack)
	return out
}

// SetNoiseParams updates noise parameters from a partial map. Recognized
// keys: "type", "intensity", "monochrome", "scale". Unknown keys and
// ill-typed values are ignored.
func (p *Processor) SetNoiseParams(params map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, value := range params {
		switch key {
		case "type":
			if v, ok := value.(string); ok && noise.IsKnown(v) {
				p.noiseParams.Type = v
			}
		case "intensity":
			switch v := value.(type) {
			case int:
				p.noiseParams.Intensity = clampInt(v, 0, 100)
			case float64:
				p.noiseParams.Intensity = clampInt(int(v), 0, 100)
			}
		case "monochrome":
			if v, ok := value.(bool); ok {
				p.noiseParams.Monochrome = v
			}
		case "scale":
			if v, ok := value.(float64); ok && v >= 0.1 {
				p.noiseParams.Scale = v
			}
		default:
			p.logger.WithField("key", key).Debug("Ignoring unknown noise parameter")
		}
	}
}

// NoiseSettings returns the current noise parameters.
func (p *Processor) NoiseSettings() NoiseParams {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.noiseParams
}

func (p *Processor) resetParamsLocked() {
	for key, value := range adjustmentDefaults {
		p.adjustments[key] = value
	}
	p.filterStack = nil
	p.noiseParams = defaultNoiseParams()
}

// ─── Geometric transforms ───────────────────────────────────────────

// ApplyResize rescales the authoritative image. Geometry changes invalidate
// tonal and filter context, so parameters reset.
func (p *Processor) ApplyResize(width, height int, method string) {
	p.applyGeometry(func(img gocv.Mat) gocv.Mat {
		return transform.Resize(img, width, height, method)
	}, true)
}

// ApplyRotation rotates the authoritative image, expanding the canvas.
// Pending edits stay active on top of the rotated image.
func (p *Processor) ApplyRotation(angle float64) {
	p.applyGeometry(func(img gocv.Mat) gocv.Mat {
		return transform.Rotate(img, angle, true)
	}, false)
}

// ApplyFlip mirrors the authoritative image. Pending edits are preserved.
func (p *Processor) ApplyFlip(horizontal bool) {
	p.applyGeometry(func(img gocv.Mat) gocv.Mat {
		if horizontal {
			return transform.FlipHorizontal(img)
		}
		return transform.FlipVertical(img)
	}, false)
}

// ApplyCrop extracts a clamped rectangle and resets parameters.
func (p *Processor) ApplyCrop(x, y, width, height int) {
	p.applyGeometry(func(img gocv.Mat) gocv.Mat {
		return transform.Crop(img, x, y, width, height)
	}, true)
}

// ApplyAutoCrop trims borders below the luminance threshold and resets
// parameters.
func (p *Processor) ApplyAutoCrop(threshold int) {
	p.applyGeometry(func(img gocv.Mat) gocv.Mat {
		return transform.AutoCrop(img, threshold)
	}, true)
}

func (p *Processor) applyGeometry(op func(gocv.Mat) gocv.Mat, resetParams bool) {
	p.procMu.Lock()
	defer p.procMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.original.Empty() {
		return
	}

	next := op(p.original)
	p.replaceOriginalLocked(next)
	p.history.Push(p.original)
	if resetParams {
		p.resetParamsLocked()
	}
}

// ─── Committing edits ───────────────────────────────────────────────

// ApplyCurrentChanges bakes the pending adjustments, filters, and noise into
// the authoritative image and resets all parameters. This is the only
// operation that makes edits permanent.
func (p *Processor) ApplyCurrentChanges() {
	p.procMu.Lock()
	defer p.procMu.Unlock()

	result, ok := p.runFull()
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.logger.IsLevelEnabled(logrus.DebugLevel) {
		fields := logrus.Fields{}
		for name, value := range p.evaluator.CalculateAll(p.original, result) {
			fields[name] = value
		}
		p.logger.WithFields(fields).Debug("Committing edits; quality vs previous original")
	}

	p.replaceOriginalLocked(result)
	p.history.Push(p.original)
	p.resetParamsLocked()
}

// ─── History ────────────────────────────────────────────────────────

// Undo restores the previous image state. Parameters reset: only pixel
// state is versioned.
func (p *Processor) Undo() bool {
	p.procMu.Lock()
	defer p.procMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.history.Undo()
	if !ok {
		return false
	}
	p.replaceOriginalLocked(state)
	p.resetParamsLocked()
	return true
}

// Redo reapplies an undone state.
func (p *Processor) Redo() bool {
	p.procMu.Lock()
	defer p.procMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.history.Redo()
	if !ok {
		return false
	}
	p.replaceOriginalLocked(state)
	p.resetParamsLocked()
	return true
}

func (p *Processor) CanUndo() bool { return p.history.CanUndo() }
func (p *Processor) CanRedo() bool { return p.history.CanRedo() }

// ─── Queries ────────────────────────────────────────────────────────

func (p *Processor) HasImage() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.original.Empty()
}

// ImageSize returns the full-resolution dimensions as (width, height).
func (p *Processor) ImageSize() (int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.original.Empty() {
		return 0, 0
	}
	return p.original.Cols(), p.original.Rows()
}

func (p *Processor) FilePath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filePath
}

// HasPendingChanges reports whether any adjustment differs from neutral, any
// filter is active, or noise intensity is above zero.
func (p *Processor) HasPendingChanges() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for key, value := range p.adjustments {
		if value != adjustmentDefaults[key] {
			return true
		}
	}
	return len(p.filterStack) > 0 || p.noiseParams.Intensity > 0
}

// ─── Internal state maintenance ─────────────────────────────────────

// replaceOriginalLocked promotes next to the authoritative image, regenerates
// the preview copy, and drops the processed cache. Takes ownership of next.
func (p *Processor) replaceOriginalLocked(next gocv.Mat) {
	if !p.original.Empty() {
		p.original.Close()
	}
	p.original = next

	if !p.previewOriginal.Empty() {
		p.previewOriginal.Close()
	}
	p.previewOriginal = p.createPreviewLocked()

	if !p.processed.Empty() {
		p.processed.Close()
		p.processed = gocv.NewMat()
	}
}

func (p *Processor) createPreviewLocked() gocv.Mat {
	return transform.ResizeToFit(p.original,
		p.settings.PreviewMaxWidth, p.settings.PreviewMaxHeight, "area")
}

func (p *Processor) closeImagesLocked() {
	if !p.original.Empty() {
		p.original.Close()
	}
	if !p.previewOriginal.Empty() {
		p.previewOriginal.Close()
	}
	if !p.processed.Empty() {
		p.processed.Close()
	}
	p.original = gocv.NewMat()
	p.previewOriginal = gocv.NewMat()
	p.processed = gocv.NewMat()
}

// Close releases all image resources and history snapshots.
func (p *Processor) Close() {
	p.procMu.Lock()
	defer p.procMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeImagesLocked()
	p.history.Clear()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
