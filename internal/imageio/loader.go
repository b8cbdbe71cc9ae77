// Package imageio wraps image file loading and saving through OpenCV codecs.
package imageio

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"}

// Loader handles image file operations.
type Loader struct {
	logger *logrus.Logger
}

func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads an image from disk as 3-channel BGR.
func (l *Loader) Load(path string) (gocv.Mat, error) {
	if !isSupportedFormat(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image loaded")

	return mat, nil
}

// Save writes an image to disk. The quality value (0-100) is mapped to the
// target codec's native control: JPEG/WebP quality directly, PNG compression
// level as (100-quality)/10 clamped to 0-9.
func (l *Loader) Save(path string, mat gocv.Mat, quality int) error {
	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	if !isSupportedFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}
	if quality < 0 {
		quality = 0
	} else if quality > 100 {
		quality = 100
	}

	var params []int
	switch ext := extension(path); ext {
	case ".jpg", ".jpeg":
		params = []int{gocv.IMWriteJpegQuality, quality}
	case ".png":
		level := (100 - quality) / 10
		if level > 9 {
			level = 9
		}
		params = []int{gocv.IMWritePngCompression, level}
	case ".webp":
		params = []int{gocv.IMWriteWebpQuality, quality}
	}

	var ok bool
	if len(params) > 0 {
		ok = gocv.IMWriteWithParams(path, mat, params)
	} else {
		ok = gocv.IMWrite(path, mat)
	}
	if !ok {
		return fmt.Errorf("failed to save image: %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"path":    path,
		"width":   mat.Cols(),
		"height":  mat.Rows(),
		"quality": quality,
	}).Info("Image saved")

	return nil
}

func isSupportedFormat(path string) bool {
	ext := extension(path)
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

func extension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return strings.ToLower(path[i:])
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}

// SupportedFormats lists the file formats the loader accepts.
func SupportedFormats() []string {
	return []string{"JPEG", "PNG", "BMP", "TIFF", "WebP"}
}
