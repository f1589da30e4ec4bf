package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	panoprobe "github.com/menta2k/pano-probe"
	"github.com/menta2k/pano-probe/internal/utils"
	"github.com/menta2k/pano-probe/pkg/panorama"
	"github.com/menta2k/pano-probe/pkg/processing"
)

var (
	analyzeLat    float64
	analyzeLng    float64
	analyzePano   string
	analyzeImage  string
	analyzeViews  int
	analyzeImages bool
	analyzeOut    string
	analyzeExt    string
	analyzeQ      int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rate one location and print the result as JSON",
	Long: `Rate one location and print the result as JSON.

The location is given either as coordinates, as a panorama ID, or as a local
equirectangular image. With --out the stitched panorama, an overlay marking
every view and each directional crop are written to the directory.

Examples:
  pano-probe analyze --lat 48.8584 --lng 2.2945
  pano-probe analyze --pano CAoSLEFGMVFpcE --views 4 --out ./out
  pano-probe analyze --image pano.jpg --views 8 --out ./out --ext webp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hasCoords := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng")
		if !hasCoords && analyzePano == "" && analyzeImage == "" {
			return fmt.Errorf("one of --lat/--lng, --pano or --image is required")
		}
		if analyzeViews != 0 && !panorama.ValidViewCount(analyzeViews) {
			return fmt.Errorf("--views must be 1, 2, 4 or 8")
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		prober, _, err := buildProber(ctx, cfg, logger)
		if err != nil {
			return err
		}

		var res *panoprobe.Result
		if analyzeImage != "" {
			if !utils.IsImageFile(analyzeImage) {
				return fmt.Errorf("unsupported image file: %s", analyzeImage)
			}
			img, err := processing.NewProcessor().LoadImage(analyzeImage)
			if err != nil {
				return err
			}
			res, err = prober.AnalyzeImage(ctx, img, analyzeViews, analyzeImages)
			if err != nil {
				return err
			}
			res.PanoID = strings.TrimSuffix(filepath.Base(analyzeImage), filepath.Ext(analyzeImage))
		} else {
			res, err = prober.Analyze(ctx, panoprobe.Request{
				Lat:           analyzeLat,
				Lng:           analyzeLng,
				PanoID:        analyzePano,
				NumViews:      analyzeViews,
				IncludeImages: analyzeImages,
			})
			if err != nil {
				return err
			}
		}

		if analyzeOut != "" {
			if err := saveArtifacts(res, analyzeOut, analyzeExt, analyzeQ, logger); err != nil {
				return err
			}
		}

		js, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(js))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "latitude")
	analyzeCmd.Flags().Float64Var(&analyzeLng, "lng", 0, "longitude")
	analyzeCmd.Flags().StringVar(&analyzePano, "pano", "", "panorama ID, skips the metadata lookup")
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "local equirectangular image (jpg/png/webp)")
	analyzeCmd.Flags().IntVar(&analyzeViews, "views", 0, "number of views: 1, 2, 4 or 8 (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeImages, "images", false, "embed debug thumbnails in the JSON output")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "directory to write the panorama, overlay and crops to")
	analyzeCmd.Flags().StringVar(&analyzeExt, "ext", "jpg", "output format for written images: jpg|png|webp")
	analyzeCmd.Flags().IntVar(&analyzeQ, "quality", 90, "JPEG/WebP output quality (1-100)")
}

// saveArtifacts writes the panorama, a sector overlay, every crop and the
// JSON result to dir
func saveArtifacts(res *panoprobe.Result, dir, ext string, quality int, logger *logrus.Logger) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	processor := processing.NewProcessor()

	save := func(name string, write func(path string) error) {
		path := utils.OutputFilename(dir, res.PanoID, name, ext)
		if err := write(path); err != nil {
			logger.Warnf("save %s failed: %v", path, err)
			return
		}
		logger.Infof("wrote %s", path)
	}

	if res.Panorama != nil {
		pano := res.Panorama.Image
		save("", func(path string) error {
			return processor.SaveImage(pano, path, ext, quality, false)
		})

		sectors := make([]processing.Sector, 0, len(res.Crops))
		for _, v := range res.Crops {
			sectors = append(sectors, processing.Sector{Heading: v.Heading, FOV: panorama.DefaultFOV})
		}
		save("overlay", func(path string) error {
			return processor.SaveImage(processor.CreateSectorOverlay(pano, sectors), path, ext, quality, false)
		})
	}

	for _, v := range res.Crops {
		v := v
		save(v.Direction, func(path string) error {
			return processor.SaveImage(v.Image, path, ext, quality, false)
		})
	}

	js, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, utils.SanitizeFilename(res.PanoID)+"_result.json"), js, 0o644)
}
