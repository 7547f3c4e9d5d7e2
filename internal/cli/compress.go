package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/pdfpress/internal/cli/output"
	"github.com/abdul-hamid-achik/pdfpress/internal/compress"
	"github.com/spf13/cobra"
)

var compressCmd = &cobra.Command{
	Use:   "compress [file...]",
	Short: "Compress PDF documents by re-rendering pages as images",
	Long: `Compress PDF documents by re-rendering each page as a JPEG image
at a quality tier and rebuilding the document around the images.

Examples:
  ppress compress report.pdf
  ppress compress report.pdf -q low -o out/
  ppress compress *.pdf -q medium --preserve-metadata`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompress,
}

var (
	compressQuality          string
	compressOutputDir        string
	compressPreserveMetadata bool
	compressSubsetFonts      bool
)

func init() {
	compressCmd.Flags().StringVarP(&compressQuality, "quality", "q", "high", "Quality tier: low, medium or high")
	compressCmd.Flags().StringVarP(&compressOutputDir, "output", "o", "", "Output directory (default: alongside input)")
	compressCmd.Flags().BoolVar(&compressPreserveMetadata, "preserve-metadata", false, "Keep document metadata in the output")
	compressCmd.Flags().BoolVar(&compressSubsetFonts, "subset-fonts", false, "Subset embedded fonts where possible")
}

func runCompress(cmd *cobra.Command, args []string) error {
	tier, err := compress.ParseTier(compressQuality)
	if err != nil {
		return fmt.Errorf("invalid quality %q: expected low, medium or high", compressQuality)
	}

	opts := compress.Options{
		PreserveMetadata: compressPreserveMetadata,
		SubsetFonts:      compressSubsetFonts,
	}

	ctx := context.Background()
	var successful, failed int
	var results []map[string]interface{}

	progress := output.NewProgress(len(args), "Compressing",
		output.ProgressWithQuiet(quietMode || jsonOutput || len(args) == 1))

	for _, path := range args {
		input, err := os.ReadFile(path)
		if err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}

		data, result, err := compressEngine.Compress(ctx, input, tier, opts)
		if err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}

		outPath := outputPath(path, compressOutputDir, ".compressed.pdf")
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			printer.FileFailed(path, err)
			results = append(results, map[string]interface{}{"file": path, "error": err.Error()})
			failed++
			progress.Increment()
			continue
		}

		printer.Success("%s: %s -> %s (%.1f%% smaller, tier %s)",
			path, formatBytes(result.OriginalSize), formatBytes(result.CompressedSize),
			result.RatioPercent, result.TierUsed)

		results = append(results, map[string]interface{}{
			"file":   path,
			"output": outPath,
			"result": result,
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

func outputPath(inputPath, outputDir, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dir := filepath.Dir(inputPath)
	if outputDir != "" {
		dir = outputDir
	}
	return filepath.Join(dir, base+suffix)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
