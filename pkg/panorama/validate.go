package panorama

import (
	"fmt"
	"image"
	"math"
)

const (
	// MinWidth is the narrowest image accepted as a panorama: 90° views are
	// at least 64px wide
	MinWidth = 256

	aspectTolerance = 0.05
)

// Info contains basic image metadata
type Info struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// GetInfo returns basic information about an image
func GetInfo(img image.Image) Info {
	b := img.Bounds()
	info := Info{Width: b.Dx(), Height: b.Dy()}
	if info.Height > 0 {
		info.AspectRatio = float64(info.Width) / float64(info.Height)
	}
	return info
}

// Validate checks that img looks like an equirectangular panorama: wide
// enough to crop and roughly twice as wide as it is tall.
func Validate(img image.Image) error {
	info := GetInfo(img)
	if info.Width < MinWidth || info.Height == 0 {
		return fmt.Errorf("image too small: %dx%d (minimum width: %d)", info.Width, info.Height, MinWidth)
	}
	if math.Abs(info.AspectRatio-2) > 2*aspectTolerance {
		return fmt.Errorf("image is not equirectangular: aspect ratio %.2f, expected 2:1", info.AspectRatio)
	}
	return nil
}
