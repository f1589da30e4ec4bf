package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		panoID, name, format string
		want                 string
	}{
		{"CAoSLEFGMVFp", "north", "jpg", "out/CAoSLEFGMVFp_north.jpg"},
		{"abc", "", "png", "out/abc.png"},
		{"a/b:c", "overlay", "", "out/a_b_c_overlay.jpg"},
		{"", "east", "webp", "out/panorama_east.webp"},
	}
	for _, tt := range tests {
		if got := OutputFilename("out", tt.panoID, tt.name, tt.format); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputFilename(%q, %q, %q) = %q, want %q", tt.panoID, tt.name, tt.format, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" ..pano?id*.. "); got != "pano_id_" {
		t.Errorf("Unexpected sanitized name %q", got)
	}
}

func TestIsImageFile(t *testing.T) {
	for name, want := range map[string]bool{
		"pano.JPG":  true,
		"pano.webp": true,
		"pano.png":  true,
		"pano.gif":  false,
		"pano":      false,
	} {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if FileExists(dir) {
		t.Error("A directory is not a file")
	}
	file := filepath.Join(dir, "x.jpg")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Error("Expected file to exist")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "debug", "json")
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}
	logger.WithField("pano_id", "p1").Debug("stitched")
	if !strings.Contains(buf.String(), `"pano_id":"p1"`) {
		t.Errorf("Expected JSON output, got %s", buf.String())
	}

	if NewLoggerTo(&buf, "loud", "text").GetLevel() != logrus.InfoLevel {
		t.Error("Expected invalid level to fall back to info")
	}
}
