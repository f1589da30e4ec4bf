// Package catalog holds the fixed prompt bank every view is scored against.
//
// Thresholds and weights in package difficulty are calibrated for this exact
// list. Bump Version whenever a prompt is added, removed or reworded.
package catalog

// Version identifies the prompt bank revision
const Version = "2024.1"

const (
	Text          = "a photo with clear readable text and signs"
	Businesses    = "a photo with visible business signs and storefronts"
	RoadSigns     = "a photo with colored road signs"
	Landmark      = "a photo of a famous landmark or monument"
	Architecture  = "a photo with unique architecture"
	Urban         = "a photo of a busy city street with many buildings"
	Remote        = "a photo of a remote rural area"
	Generic       = "a generic road with no distinctive features"
	Highway       = "a highway or motorway with no landmarks"
	Bollards      = "a photo with road bollards or marker posts"
	YellowLines   = "a photo with yellow center line markings"
	WhiteLines    = "a photo with white dashed road lines"
	Roundabout    = "a photo with a roundabout or traffic circle"
	KmMarkers     = "a photo with kilometer markers or mile markers"
	PowerLines    = "a photo with overhead power lines"
	StreetLights  = "a photo with distinctive street lights or lamp posts"
	LicensePlate  = "a photo with a visible license plate"
	StreetViewCar = "a photo with a Google Street View car shadow or reflection"
	Vegetation    = "a photo with distinctive vegetation and plants"
	PalmTrees     = "a photo with palm trees"
	Snow          = "a photo with snow on the ground"
	Desert        = "a photo with desert landscape"
	RiceFields    = "a photo with rice fields or paddy fields"
	Flags         = "a photo with country flags or national symbols"
	Blurry        = "a blurry or low quality image"
)

var prompts = []string{
	Text,
	Businesses,
	RoadSigns,
	Landmark,
	Architecture,
	Urban,
	Remote,
	Generic,
	Highway,
	Bollards,
	YellowLines,
	WhiteLines,
	Roundabout,
	KmMarkers,
	PowerLines,
	StreetLights,
	LicensePlate,
	StreetViewCar,
	Vegetation,
	PalmTrees,
	Snow,
	Desert,
	RiceFields,
	Flags,
	Blurry,
}

// Prompts returns the catalog in its canonical order. The slice is a copy.
func Prompts() []string {
	out := make([]string, len(prompts))
	copy(out, prompts)
	return out
}

// Len is the number of prompts in the catalog
func Len() int { return len(prompts) }

// Contains reports whether p is a catalog prompt
func Contains(p string) bool {
	for _, q := range prompts {
		if q == p {
			return true
		}
	}
	return false
}
