package difficulty

import (
	"github.com/menta2k/pano-probe/pkg/catalog"
	"github.com/menta2k/pano-probe/pkg/types"
)

// Flag names exposed in FeatureFlags
const (
	FlagText          = "has_text"
	FlagBusinesses    = "has_businesses"
	FlagRoadSigns     = "has_road_signs"
	FlagLandmark      = "has_landmark"
	FlagArchitecture  = "has_unique_architecture"
	FlagUrban         = "is_urban"
	FlagRemote        = "is_remote"
	FlagGeneric       = "is_generic"
	FlagHighway       = "is_highway"
	FlagBollards      = "has_bollards"
	FlagYellowLines   = "has_yellow_lines"
	FlagWhiteLines    = "has_white_lines"
	FlagRoundabout    = "has_roundabout"
	FlagKmMarkers     = "has_km_markers"
	FlagPowerLines    = "has_power_lines"
	FlagStreetLights  = "has_street_lights"
	FlagLicensePlate  = "has_license_plate"
	FlagStreetViewCar = "has_streetview_car"
	FlagVegetation    = "has_vegetation"
	FlagPalmTrees     = "has_palm_trees"
	FlagSnow          = "has_snow"
	FlagDesert        = "has_desert"
	FlagRiceFields    = "has_rice_fields"
	FlagFlags         = "has_flags"
	FlagBlurry        = "is_blurry"
)

const (
	// BaseScore is the neutral starting difficulty before any feature applies.
	BaseScore = 3.0

	// DefaultThreshold turns a prompt score into a flag when strictly exceeded.
	DefaultThreshold = 0.15

	// GenericThreshold is the stricter bar for the generic-road prompt.
	GenericThreshold = 0.2
)

// Feature binds one catalog prompt to its flag, threshold, weight and insight.
// A zero Weight marks an informational feature. An empty Insight emits nothing.
type Feature struct {
	Flag      string  `json:"flag"`
	Prompt    string  `json:"prompt"`
	Threshold float64 `json:"threshold"`
	Weight    float64 `json:"weight"`
	Insight   string  `json:"insight,omitempty"`
}

// Table lists every feature in weight-application order.
// Negative weights make a location easier, positive ones harder.
var Table = []Feature{
	// strong clues
	{FlagLandmark, catalog.Landmark, DefaultThreshold, -1.5, "🏛️ Famous landmark detected"},
	{FlagFlags, catalog.Flags, DefaultThreshold, -1.3, "🚩 Country flags or national symbols detected"},

	// text
	{FlagText, catalog.Text, DefaultThreshold, -1.0, "🔤 Readable text/signs detected"},
	{FlagBusinesses, catalog.Businesses, DefaultThreshold, -0.8, "🏪 Business signs/storefronts detected"},
	{FlagRoadSigns, catalog.RoadSigns, DefaultThreshold, -0.7, "🚸 Colored road signs detected"},

	// road furniture
	{FlagBollards, catalog.Bollards, DefaultThreshold, -0.7, "🚧 Road bollards/marker posts detected"},
	{FlagKmMarkers, catalog.KmMarkers, DefaultThreshold, -0.6, "📏 Kilometer/mile markers detected"},
	{FlagLicensePlate, catalog.LicensePlate, DefaultThreshold, -0.6, "🚗 License plate visible"},
	{FlagStreetLights, catalog.StreetLights, DefaultThreshold, -0.5, "💡 Distinctive street lights detected"},

	// built environment
	{FlagArchitecture, catalog.Architecture, DefaultThreshold, -0.7, "🏗️ Distinctive architecture detected"},
	{FlagUrban, catalog.Urban, DefaultThreshold, -0.5, "🏙️ Urban environment detected"},

	// climate
	{FlagPalmTrees, catalog.PalmTrees, DefaultThreshold, -0.4, "🌴 Palm trees detected (tropical/subtropical)"},
	{FlagSnow, catalog.Snow, DefaultThreshold, -0.4, "❄️ Snow detected (cold climate)"},
	{FlagRiceFields, catalog.RiceFields, DefaultThreshold, -0.4, "🌾 Rice fields/paddy fields detected"},

	// road markings
	{FlagYellowLines, catalog.YellowLines, DefaultThreshold, -0.3, "🟨 Yellow road markings detected"},
	{FlagRoundabout, catalog.Roundabout, DefaultThreshold, -0.3, "🔄 Roundabout/traffic circle detected"},

	// hard indicators
	{FlagGeneric, catalog.Generic, GenericThreshold, 1.2, "🛣️ Generic road with no distinctive features"},
	{FlagRemote, catalog.Remote, DefaultThreshold, 1.0, "🏜️ Remote/rural area detected"},
	{FlagHighway, catalog.Highway, DefaultThreshold, 0.8, "🛤️ Highway/motorway detected"},
	{FlagDesert, catalog.Desert, DefaultThreshold, 0.6, "🏜️ Desert landscape detected"},
	{FlagBlurry, catalog.Blurry, DefaultThreshold, 0.5, "📷 Low image quality detected"},

	// informational
	{FlagPowerLines, catalog.PowerLines, DefaultThreshold, 0, "⚡ Overhead power lines detected"},
	{FlagWhiteLines, catalog.WhiteLines, DefaultThreshold, 0, ""},
	{FlagVegetation, catalog.Vegetation, DefaultThreshold, 0, "🌿 Distinctive vegetation detected"},
	{FlagStreetViewCar, catalog.StreetViewCar, DefaultThreshold, 0, "📸 Street View car shadow/reflection visible"},
}

// InsightOrder is the order insights are reported in, independent of Table order.
var InsightOrder = []string{
	FlagLandmark,
	FlagFlags,
	FlagText,
	FlagBusinesses,
	FlagRoadSigns,
	FlagBollards,
	FlagKmMarkers,
	FlagLicensePlate,
	FlagStreetLights,
	FlagArchitecture,
	FlagUrban,
	FlagRemote,
	FlagPalmTrees,
	FlagSnow,
	FlagRiceFields,
	FlagDesert,
	FlagVegetation,
	FlagYellowLines,
	FlagRoundabout,
	FlagPowerLines,
	FlagGeneric,
	FlagHighway,
	FlagBlurry,
	FlagStreetViewCar,
}

// sceneOrder is the scene arg-max order; ties go to the earlier entry.
var sceneOrder = []struct {
	scene  types.SceneType
	prompt string
}{
	{types.SceneUrban, catalog.Urban},
	{types.SceneRural, catalog.Remote},
	{types.SceneHighway, catalog.Highway},
	{types.SceneLandmark, catalog.Landmark},
}

var byFlag = func() map[string]Feature {
	m := make(map[string]Feature, len(Table))
	for _, f := range Table {
		m[f.Flag] = f
	}
	return m
}()

// Lookup returns the feature registered for flag
func Lookup(flag string) (Feature, bool) {
	f, ok := byFlag[flag]
	return f, ok
}
