package imageio

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

func testLoader() *Loader {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewLoader(logger)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	loader := testLoader()
	dir := t.TempDir()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 90, 160, 0), 20, 30, gocv.MatTypeCV8UC3)
	defer img.Close()

	for _, ext := range []string{".png", ".bmp", ".jpg"} {
		path := filepath.Join(dir, "out"+ext)
		if err := loader.Save(path, img, 95); err != nil {
			t.Fatalf("%s: save failed: %v", ext, err)
		}

		loaded, err := loader.Load(path)
		if err != nil {
			t.Fatalf("%s: load failed: %v", ext, err)
		}
		if loaded.Cols() != 30 || loaded.Rows() != 20 {
			t.Errorf("%s: got %dx%d, want 30x20", ext, loaded.Cols(), loaded.Rows())
		}
		if loaded.Channels() != 3 {
			t.Errorf("%s: got %d channels, want 3", ext, loaded.Channels())
		}
		loaded.Close()
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	loader := testLoader()

	mat, err := loader.Load("document.pdf")
	if err == nil {
		mat.Close()
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := testLoader()

	mat, err := loader.Load(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		mat.Close()
		t.Fatal("expected an error for a missing file")
	}
}

func TestSaveEmptyImage(t *testing.T) {
	loader := testLoader()

	empty := gocv.NewMat()
	defer empty.Close()

	if err := loader.Save(filepath.Join(t.TempDir(), "out.png"), empty, 95); err == nil {
		t.Error("expected an error for an empty image")
	}
}

func TestSaveUnsupportedFormat(t *testing.T) {
	loader := testLoader()

	img := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer img.Close()

	if err := loader.Save(filepath.Join(t.TempDir(), "out.xyz"), img, 95); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"photo.JPG", ".jpg"},
		{"a/b/c.png", ".png"},
		{"archive.tar.gz", ".gz"},
		{"noext", ""},
		{"dir.d/noext", ""},
	}

	for _, tt := range tests {
		if got := extension(tt.path); got != tt.want {
			t.Errorf("extension(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
