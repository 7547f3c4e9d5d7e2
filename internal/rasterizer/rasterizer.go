// Package rasterizer renders PDF pages to pixel buffers and encodes them
// for re-embedding. Rendering is delegated to poppler's pdftoppm; encoding
// uses the imaging library.
package rasterizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

var (
	ErrRender = errors.New("rasterizer: page rendering failed")
	ErrEncode = errors.New("rasterizer: image encoding failed")
)

// Rasterizer renders a single page of a PDF byte stream at a requested
// density. pageIndex is 0-based.
type Rasterizer interface {
	RenderPage(ctx context.Context, pdf []byte, pageIndex int, dpi int, grayscale bool) (image.Image, error)
}

// EncodeJPEG compresses img at the given quality. With grayscale set the
// image is converted first, which also drops all chroma information;
// color output keeps the encoder's 4:2:0 subsampling.
func EncodeJPEG(img image.Image, quality int, grayscale bool) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrEncode)
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: quality %d out of range", ErrEncode, quality)
	}

	if grayscale {
		// jpeg.Encode emits a single-component stream only for
		// *image.Gray; imaging.Grayscale stays NRGBA.
		g := image.NewGray(img.Bounds())
		draw.Draw(g, g.Bounds(), imaging.Grayscale(img), img.Bounds().Min, draw.Src)
		img = g
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
