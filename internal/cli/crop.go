package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/pdfpress/internal/cli/output"
	"github.com/abdul-hamid-achik/pdfpress/internal/crop"
	"github.com/spf13/cobra"
)

var cropCmd = &cobra.Command{
	Use:   "crop [file...]",
	Short: "Crop PDF page boundaries",
	Long: `Crop PDF page boundaries to a rectangle. Coordinates use a
top-left origin and may be given in points, pixels, millimeters or inches.

Examples:
  ppress crop report.pdf --rect 0,0,400,500 --page 1
  ppress crop report.pdf --rect 10,10,190,277 --unit mm --mode all
  ppress crop --config crops.yaml *.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrop,
}

var (
	cropRect       string
	cropPage       int
	cropUnit       string
	cropMode       string
	cropOutputDir  string
	cropConfigPath string
)

func init() {
	cropCmd.Flags().StringVarP(&cropRect, "rect", "r", "", "Crop rectangle as x,y,width,height")
	cropCmd.Flags().IntVarP(&cropPage, "page", "p", 1, "Page number (1-based)")
	cropCmd.Flags().StringVarP(&cropUnit, "unit", "u", "point", "Coordinate unit: point, pixel, mm or inch")
	cropCmd.Flags().StringVarP(&cropMode, "mode", "m", "single", "Batch mode: single, multiple or all")
	cropCmd.Flags().StringVarP(&cropOutputDir, "output", "o", "", "Output directory (default: alongside input)")
	cropCmd.Flags().StringVarP(&cropConfigPath, "config", "c", "", "YAML batch config with per-file rectangles")
}

func runCrop(cmd *cobra.Command, args []string) error {
	var batchCfg *BatchConfig
	if cropConfigPath != "" {
		var err error
		batchCfg, err = LoadBatchConfig(cropConfigPath)
		if err != nil {
			return fmt.Errorf("loading batch config: %w", err)
		}
	} else if cropRect == "" {
		return fmt.Errorf("either --rect or --config is required")
	}

	ctx := context.Background()
	var successful, failed int
	var results []map[string]interface{}

	progress := output.NewProgress(len(args), "Cropping",
		output.ProgressWithQuiet(quietMode || jsonOutput || len(args) == 1))

	for _, path := range args {
		mode, rects, err := cropTargets(path, batchCfg)
		if err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}
		if len(rects) == 0 {
			printer.Warn("%s: no rectangles configured, skipping", path)
			progress.Increment()
			continue
		}

		input, err := os.ReadFile(path)
		if err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}

		data, pageResults, err := cropEngine.Crop(ctx, input, mode, rects)
		if err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}

		outPath := outputPath(path, cropOutputDir, ".cropped.pdf")
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}

		printer.Success("%s: %d page(s) cropped -> %s", path, len(pageResults), outPath)
		for _, pr := range pageResults {
			printer.KeyValue(fmt.Sprintf("page %d", pr.Page),
				fmt.Sprintf("%.0fx%.0f -> %.0fx%.0f pt",
					pr.OriginalWidth, pr.OriginalHeight, pr.CroppedWidth, pr.CroppedHeight))
		}

		results = append(results, map[string]interface{}{
			"file":   path,
			"output": outPath,
			"pages":  pageResults,
		})
		successful++
		progress.Increment()
	}
	progress.Finish()

	if jsonOutput {
		return printer.JSON(map[string]interface{}{
			"results":    results,
			"total":      len(args),
			"successful": successful,
			"failed":     failed,
		})
	}

	if len(args) > 1 {
		printer.Summary(successful, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func cropTargets(path string, batchCfg *BatchConfig) (crop.Mode, []crop.Rectangle, error) {
	if batchCfg != nil {
		mode, err := crop.ParseMode(batchCfg.GetMode(path))
		if err != nil {
			return "", nil, err
		}
		return mode, batchCfg.GetRectangles(path), nil
	}

	mode, err := crop.ParseMode(cropMode)
	if err != nil {
		return "", nil, err
	}

	x, y, w, h, err := parseRect(cropRect)
	if err != nil {
		return "", nil, err
	}

	rect := crop.Rectangle{Page: cropPage, X: x, Y: y, Width: w, Height: h, Unit: cropUnit}
	if mode == crop.ModeAll {
		rect.Page = 0
	}
	return mode, []crop.Rectangle{rect}, nil
}

func parseRect(s string) (x, y, w, h float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("invalid rectangle %q, expected x,y,width,height", s)
	}

	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid rectangle component %q", part)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
