package cli

import (
	"github.com/abdul-hamid-achik/pdfpress/internal/cli/output"
	"github.com/abdul-hamid-achik/pdfpress/internal/cli/version"
	"github.com/abdul-hamid-achik/pdfpress/internal/compress"
	"github.com/abdul-hamid-achik/pdfpress/internal/crop"
	"github.com/abdul-hamid-achik/pdfpress/internal/document"
	"github.com/abdul-hamid-achik/pdfpress/internal/rasterizer"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	quietMode  bool
	printer    *output.Printer

	compressEngine *compress.Engine
	cropEngine     *crop.Engine
)

var rootCmd = &cobra.Command{
	Use:   "ppress",
	Short: "ppress - compress and crop PDF documents",
	Long: `ppress rewrites PDF page geometry from the terminal.

Compress documents by re-rendering pages as quality-tiered images, or
crop page boundaries with precise rectangles in points, pixels,
millimeters or inches.

Get started:
  ppress compress report.pdf -q medium     # Compress a document
  ppress crop report.pdf --rect 0,0,400,500 --page 1`,
	Version: version.Full(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
		)

		docs := document.NewPDFCPU()
		ras := rasterizer.NewPoppler("", "")
		compressEngine = compress.NewEngine(docs, ras, 0)
		cropEngine = crop.NewEngine(docs, 0)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")

	rootCmd.SetVersionTemplate("ppress version {{.Version}}\n")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(cropCmd)
}
