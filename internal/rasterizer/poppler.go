package rasterizer

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Poppler renders pages by shelling out to pdftoppm.
type Poppler struct {
	binPath string
	tempDir string
}

var _ Rasterizer = (*Poppler)(nil)

func NewPoppler(binPath, tempDir string) *Poppler {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	return &Poppler{binPath: binPath, tempDir: tempDir}
}

func (p *Poppler) RenderPage(ctx context.Context, pdf []byte, pageIndex int, dpi int, grayscale bool) (image.Image, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("%w: negative page index %d", ErrRender, pageIndex)
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("%w: invalid density %d", ErrRender, dpi)
	}

	tempDir, err := os.MkdirTemp(p.tempDir, "pdfpress-raster-*")
	if err != nil {
		if os.IsNotExist(err) {
			tempDir, err = os.MkdirTemp("", "pdfpress-raster-*")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: creating temp dir: %v", ErrRender, err)
		}
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	inputPath := filepath.Join(tempDir, "input.pdf")
	if err := os.WriteFile(inputPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("%w: writing input: %v", ErrRender, err)
	}

	outputPath := filepath.Join(tempDir, "page")
	page := strconv.Itoa(pageIndex + 1)

	args := []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", page,
		"-l", page,
		"-singlefile",
	}
	if grayscale {
		args = append(args, "-gray")
	}
	args = append(args, inputPath, outputPath)

	cmd := exec.CommandContext(ctx, p.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		errMsg := string(output)
		if strings.Contains(errMsg, "Incorrect password") || strings.Contains(errMsg, "encrypted") {
			return nil, fmt.Errorf("%w: document is encrypted", ErrRender)
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v, output: %s", ErrRender, err, errMsg)
	}

	f, err := os.Open(outputPath + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: reading rendered page: %v", ErrRender, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding rendered page: %v", ErrRender, err)
	}
	return img, nil
}
