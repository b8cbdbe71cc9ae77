// PixelForge - Non-Destructive Image Editing Core
// Author: Ervins Strauhmanis
// License: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"pixelforge/internal/config"
	"pixelforge/internal/core"
)

const (
	AppName    = "PixelForge"
	AppVersion = "1.0.0"
)

// listFlag collects repeated key=value flags in command-line order.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	var adjustFlags, filterFlags listFlag

	inPath := flag.String("in", "", "Input image path (required)")
	outPath := flag.String("out", "", "Output image path (required)")
	quality := flag.Int("quality", 95, "Export quality 1-100")
	flag.Var(&adjustFlags, "adjust", "Adjustment as name=value, repeatable (e.g. -adjust brightness=20)")
	flag.Var(&filterFlags, "filter", "Filter as name=intensity, repeatable and order-sensitive (e.g. -filter sepia=80)")
	noiseSpec := flag.String("noise", "", "Noise as type=intensity (e.g. -noise gaussian=30)")
	noiseMono := flag.Bool("noise-mono", false, "Monochrome noise (same value on all channels)")
	noiseScale := flag.Float64("noise-scale", 1.0, "Noise grain scale 1-8")
	resizeSpec := flag.String("resize", "", "Resize as WxH (e.g. -resize 1280x720)")
	rotate := flag.Float64("rotate", 0, "Rotation angle in degrees, counter-clockwise")
	flipSpec := flag.String("flip", "", "Flip axis: h or v")
	cropSpec := flag.String("crop", "", "Crop as x,y,w,h")
	autoCrop := flag.Bool("autocrop", false, "Trim uniform borders")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	flag.Parse()

	logger := initLogger(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
	}).Info("Starting PixelForge")

	if *inPath == "" || *outPath == "" {
		flag.Usage()
		logger.Fatal("Both -in and -out are required")
	}

	settings := config.Load()
	settings.Debug = *debugMode

	processor := core.NewProcessor(logger, settings)
	defer processor.Close()

	if ok := processor.LoadImage(*inPath); !ok {
		logger.WithField("path", *inPath).Fatal("Failed to load image")
	}

	if err := applyGeometry(processor, *resizeSpec, *cropSpec, *autoCrop, *rotate, *flipSpec); err != nil {
		logger.WithError(err).Fatal("Invalid geometric operation")
	}

	if err := applyParameters(processor, adjustFlags, filterFlags, *noiseSpec, *noiseMono, *noiseScale); err != nil {
		logger.WithError(err).Fatal("Invalid parameter")
	}

	if processor.HasPendingChanges() {
		processor.ApplyCurrentChanges()
	}

	if ok := processor.SaveImage(*outPath, *quality); !ok {
		logger.WithField("path", *outPath).Fatal("Failed to save image")
	}

	width, height := processor.ImageSize()
	logger.WithFields(logrus.Fields{
		"path":   *outPath,
		"width":  width,
		"height": height,
	}).Info("Image exported")
	os.Exit(0)
}

func applyGeometry(processor *core.Processor, resizeSpec, cropSpec string, autoCrop bool, rotate float64, flipSpec string) error {
	if resizeSpec != "" {
		width, height, err := parseSize(resizeSpec)
		if err != nil {
			return err
		}
		processor.ApplyResize(width, height, "bilinear")
	}

	if cropSpec != "" {
		parts := strings.Split(cropSpec, ",")
		if len(parts) != 4 {
			return fmt.Errorf("crop must be x,y,w,h, got %q", cropSpec)
		}
		values := make([]int, 4)
		for i, part := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("invalid crop component %q: %w", part, err)
			}
			values[i] = v
		}
		processor.ApplyCrop(values[0], values[1], values[2], values[3])
	}

	if autoCrop {
		processor.ApplyAutoCrop(10)
	}

	if rotate != 0 {
		processor.ApplyRotation(rotate)
	}

	switch flipSpec {
	case "":
	case "h":
		processor.ApplyFlip(true)
	case "v":
		processor.ApplyFlip(false)
	default:
		return fmt.Errorf("flip must be h or v, got %q", flipSpec)
	}

	return nil
}

func applyParameters(processor *core.Processor, adjustFlags, filterFlags []string, noiseSpec string, noiseMono bool, noiseScale float64) error {
	for _, spec := range adjustFlags {
		name, value, err := parseAssignment(spec)
		if err != nil {
			return err
		}
		processor.SetAdjustment(name, value)
	}

	for _, spec := range filterFlags {
		name, intensity, err := parseAssignment(spec)
		if err != nil {
			return err
		}
		processor.SetFilter(name, int(intensity))
	}

	if noiseSpec != "" {
		noiseType, intensity, err := parseAssignment(noiseSpec)
		if err != nil {
			return err
		}
		processor.SetNoiseParams(map[string]interface{}{
			"type":       noiseType,
			"intensity":  intensity,
			"monochrome": noiseMono,
			"scale":      noiseScale,
		})
	}

	return nil
}

func parseAssignment(spec string) (string, float64, error) {
	name, raw, found := strings.Cut(spec, "=")
	if !found {
		return "", 0, fmt.Errorf("expected name=value, got %q", spec)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value in %q: %w", spec, err)
	}
	return strings.TrimSpace(name), value, nil
}

func parseSize(spec string) (int, int, error) {
	rawW, rawH, found := strings.Cut(strings.ToLower(spec), "x")
	if !found {
		return 0, 0, fmt.Errorf("resize must be WxH, got %q", spec)
	}
	width, err := strconv.Atoi(rawW)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", spec, err)
	}
	height, err := strconv.Atoi(rawH)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", spec, err)
	}
	return width, height, nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
