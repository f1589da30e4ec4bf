package panorama

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultFOV is the horizontal field of view of a directional view
const DefaultFOV = 90.0

// Direction is a named compass heading
type Direction struct {
	Name    string
	Heading float64
}

// Compass lists the eight directions in clockwise order starting at north
var Compass = []Direction{
	{"north", 0},
	{"northeast", 45},
	{"east", 90},
	{"southeast", 135},
	{"south", 180},
	{"southwest", 225},
	{"west", 270},
	{"northwest", 315},
}

// View is one directional crop of a panorama
type View struct {
	Direction string
	Heading   float64
	Image     *image.NRGBA
}

// Crop cuts a horizontal slice of fovDeg degrees centered on centerDeg out of
// an equirectangular image. Slices straddling the 0°/360° seam are assembled
// from the tail of the image followed by its head.
func Crop(img image.Image, centerDeg, fovDeg float64) (*image.NRGBA, error) {
	if fovDeg <= 0 || fovDeg > 360 {
		return nil, fmt.Errorf("field of view %.1f out of range (0,360]", fovDeg)
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid image dimensions")
	}

	angle := math.Mod(centerDeg, 360)
	if angle < 0 {
		angle += 360
	}
	center := int(angle / 360 * float64(width))
	cropWidth := int(fovDeg / 360 * float64(width))
	if cropWidth < 1 {
		cropWidth = 1
	}

	left := mod(center-cropWidth/2, width)
	right := mod(left+cropWidth, width)

	dst := imaging.New(cropWidth, height, color.NRGBA{0, 0, 0, 255})
	if right > left {
		return imaging.Paste(dst, column(img, left, right), image.Pt(0, 0)), nil
	}

	tail := column(img, left, width)
	dst = imaging.Paste(dst, tail, image.Pt(0, 0))
	if right > 0 {
		dst = imaging.Paste(dst, column(img, 0, right), image.Pt(width-left, 0))
	}
	return dst, nil
}

// column returns the full-height slice [x0, x1) in image-relative coordinates
func column(img image.Image, x0, x1 int) *image.NRGBA {
	b := img.Bounds()
	return imaging.Crop(img, image.Rect(b.Min.X+x0, b.Min.Y, b.Min.X+x1, b.Max.Y))
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// EightDirections returns north, northeast, ... northwest views with a 90° field of view
func EightDirections(img image.Image) ([]View, error) {
	return directions(img, Compass)
}

// FourDirections returns the north, east, south and west views
func FourDirections(img image.Image) ([]View, error) {
	return directions(img, []Direction{Compass[0], Compass[2], Compass[4], Compass[6]})
}

// Views returns n evenly spaced views starting at north.
// n must divide the compass evenly: 1, 2, 4 or 8.
func Views(img image.Image, n int) ([]View, error) {
	if !ValidViewCount(n) {
		return nil, fmt.Errorf("unsupported view count %d (use 1, 2, 4 or 8)", n)
	}
	step := len(Compass) / n
	dirs := make([]Direction, 0, n)
	for i := 0; i < len(Compass); i += step {
		dirs = append(dirs, Compass[i])
	}
	return directions(img, dirs)
}

// ValidViewCount reports whether Views accepts n
func ValidViewCount(n int) bool {
	switch n {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// ViewMap indexes views by direction name
func ViewMap(views []View) map[string]*image.NRGBA {
	out := make(map[string]*image.NRGBA, len(views))
	for _, v := range views {
		out[v.Direction] = v.Image
	}
	return out
}

func directions(img image.Image, dirs []Direction) ([]View, error) {
	views := make([]View, 0, len(dirs))
	for _, d := range dirs {
		crop, err := Crop(img, d.Heading, DefaultFOV)
		if err != nil {
			return nil, fmt.Errorf("failed to crop %s view: %w", d.Name, err)
		}
		views = append(views, View{Direction: d.Name, Heading: d.Heading, Image: crop})
	}
	return views, nil
}
