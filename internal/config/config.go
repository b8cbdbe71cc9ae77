// Package config resolves runtime settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults used when the environment does not override them.
const (
	DefaultPreviewMaxWidth  = 1920
	DefaultPreviewMaxHeight = 1080
	DefaultMaxHistoryStates = 30
)

// Settings holds the tunable parameters of the editing core.
type Settings struct {
	PreviewMaxWidth  int
	PreviewMaxHeight int
	MaxHistoryStates int
	Debug            bool
}

// Default returns the built-in settings without consulting the environment.
func Default() Settings {
	return Settings{
		PreviewMaxWidth:  DefaultPreviewMaxWidth,
		PreviewMaxHeight: DefaultPreviewMaxHeight,
		MaxHistoryStates: DefaultMaxHistoryStates,
	}
}

// Load reads settings from PIXELFORGE_* environment variables, loading an
// optional .env file first. A missing .env file is not an error.
func Load() Settings {
	_ = godotenv.Load()

	s := Default()
	s.PreviewMaxWidth = intEnv("PIXELFORGE_PREVIEW_MAX_WIDTH", s.PreviewMaxWidth)
	s.PreviewMaxHeight = intEnv("PIXELFORGE_PREVIEW_MAX_HEIGHT", s.PreviewMaxHeight)
	s.MaxHistoryStates = intEnv("PIXELFORGE_MAX_HISTORY", s.MaxHistoryStates)
	s.Debug = boolEnv("PIXELFORGE_DEBUG", s.Debug)
	return s
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
