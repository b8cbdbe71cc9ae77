package core

import (
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"pixelforge/internal/filters"
)

// paramSnapshot is the immutable parameter set one pipeline run executes
// against. Capturing it under the state lock keeps concurrent parameter
// mutations from bleeding into an in-flight run.
type paramSnapshot struct {
	adjustments map[string]float64
	filterStack []FilterSetting
	noiseParams NoiseParams
}

func (p *Processor) snapshotLocked() paramSnapshot {
	snap := paramSnapshot{
		adjustments: make(map[string]float64, len(p.adjustments)),
		filterStack: make([]FilterSetting, len(p.filterStack)),
		noiseParams: p.noiseParams,
	}
	for k, v := range p.adjustments {
		snap.adjustments[k] = v
	}
	copy(snap.filterStack, p.filterStack)
	return snap
}

// ProcessPreview runs the pipeline over the preview-resolution source.
// The returned mat is owned by the caller.
func (p *Processor) ProcessPreview() (gocv.Mat, bool) {
	p.procMu.Lock()
	defer p.procMu.Unlock()
	return p.runOver(func() gocv.Mat { return p.previewOriginal })
}

// ProcessFullResolution runs the pipeline over the authoritative image.
// Used for saving and committing. The returned mat is owned by the caller.
func (p *Processor) ProcessFullResolution() (gocv.Mat, bool) {
	p.procMu.Lock()
	defer p.procMu.Unlock()
	return p.runFull()
}

// runFull is ProcessFullResolution without the processing lock; callers that
// already hold procMu (commit, save) use it directly.
func (p *Processor) runFull() (gocv.Mat, bool) {
	return p.runOver(func() gocv.Mat { return p.original })
}

func (p *Processor) runOver(source func() gocv.Mat) (gocv.Mat, bool) {
	p.mu.RLock()
	src := source()
	if src.Empty() {
		p.mu.RUnlock()
		return gocv.Mat{}, false
	}
	src = src.Clone()
	snap := p.snapshotLocked()
	p.mu.RUnlock()

	result := p.runPipeline(src, snap)
	src.Close()

	p.mu.Lock()
	if !p.processed.Empty() {
		p.processed.Close()
	}
	p.processed = result
	out := result.Clone()
	p.mu.Unlock()

	return out, true
}

// runPipeline executes the fixed stage order over source:
// Adjustments -> Filters -> Noise. The caller retains source.
func (p *Processor) runPipeline(source gocv.Mat, snap paramSnapshot) gocv.Mat {
	start := time.Now()

	result := p.applyAdjustments(source, snap.adjustments)
	result = p.applyFilters(result, snap.filterStack)
	result = p.applyNoise(result, snap.noiseParams)

	p.logger.WithFields(logrus.Fields{
		"width":    result.Cols(),
		"height":   result.Rows(),
		"filters":  len(snap.filterStack),
		"duration": time.Since(start),
	}).Debug("Pipeline run complete")

	return result
}

// applyFilters runs the active filter stack in activation order. Composition
// is non-commutative, so order is part of the contract.
func (p *Processor) applyFilters(result gocv.Mat, stack []FilterSetting) gocv.Mat {
	for _, f := range stack {
		if f.Intensity <= 0 {
			continue
		}
		stageStart := time.Now()
		next := filters.Apply(result, f.Name, float64(f.Intensity)/100.0)
		result.Close()
		result = next

		p.logger.WithFields(logrus.Fields{
			"filter":    f.Name,
			"intensity": f.Intensity,
			"duration":  time.Since(stageStart),
		}).Debug("Filter applied")
	}
	return result
}

func (p *Processor) applyNoise(result gocv.Mat, params NoiseParams) gocv.Mat {
	if params.Intensity <= 0 {
		return result
	}

	next := p.noiseEngine.Apply(result, params.Type,
		float64(params.Intensity)/100.0, params.Monochrome, params.Scale)
	result.Close()
	return next
}
