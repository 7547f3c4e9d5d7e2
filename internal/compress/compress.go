// Package compress shrinks a PDF by re-rendering each page as a
// quality-tiered raster image and rebuilding the document around the
// images, escalating to a stronger tier when the size win is too small.
package compress

import (
	"context"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/pdfpress/internal/apperror"
	"github.com/abdul-hamid-achik/pdfpress/internal/document"
	"github.com/abdul-hamid-achik/pdfpress/internal/logger"
	"github.com/abdul-hamid-achik/pdfpress/internal/rasterizer"
)

// Technique names recorded in CompressionResult.TechniquesApplied.
const (
	TechniqueRasterization    = "page-rasterization"
	TechniqueJPEG             = "jpeg-compression"
	TechniqueGrayscale        = "grayscale"
	TechniqueMetadataRemoval  = "metadata-removal"
	TechniqueObjectCompaction = "object-stream-compaction"
)

// escalationThreshold is the minimum size reduction, in percent, below
// which the pipeline reruns one tier stronger.
const escalationThreshold = 5.0

type Options struct {
	// PreserveMetadata copies the descriptive document metadata onto the
	// output. When false the output carries none and the strip is recorded
	// as a technique.
	PreserveMetadata bool

	// SubsetFonts is advisory; the raster path discards fonts entirely and
	// the fallback path leaves them to the document model's optimizer.
	SubsetFonts bool
}

type Result struct {
	OriginalSize      int64    `json:"originalSize"`
	CompressedSize    int64    `json:"compressedSize"`
	RatioPercent      float64  `json:"ratioPercent"`
	TierUsed          string   `json:"tierUsed"`
	TechniquesApplied []string `json:"techniquesApplied"`
	ProcessingTimeMs  int64    `json:"processingTimeMs"`
}

type Engine struct {
	docs     document.Adapter
	ras      rasterizer.Rasterizer
	maxBytes int64
}

func NewEngine(docs document.Adapter, ras rasterizer.Rasterizer, maxBytes int64) *Engine {
	return &Engine{docs: docs, ras: ras, maxBytes: maxBytes}
}

// Compress re-renders input at the requested tier and returns new document
// bytes plus a result record. The input is never mutated. If the size
// reduction stays under the escalation threshold the whole pipeline reruns
// one tier stronger over the original bytes, so escalation never compounds
// degradation from an already-compressed buffer.
func (e *Engine) Compress(ctx context.Context, input []byte, tier QualityTier, opts Options) ([]byte, *Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if !tier.valid() {
		return nil, nil, apperror.WrapWithMessage(nil, apperror.ErrInvalidInput.Code,
			"unknown quality tier, expected low, medium or high", apperror.ErrInvalidInput.StatusCode)
	}
	if e.maxBytes > 0 && int64(len(input)) > e.maxBytes {
		return nil, nil, apperror.ErrFileTooLarge
	}

	doc, err := e.docs.Open(ctx, input)
	if err != nil {
		return nil, nil, mapDocumentError(err)
	}

	for t := tier; ; {
		out, techniques, rerr := e.rasterizePass(ctx, doc, t, opts)
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.Warn("rasterization failed, using non-raster fallback", "tier", t.String(), "error", rerr.Error())
			return e.fallback(ctx, input, opts, start)
		}

		ratio := reductionPercent(int64(len(input)), int64(len(out)))
		if ratio < escalationThreshold {
			if next, ok := t.stronger(); ok {
				log.Info("size reduction below threshold, escalating tier",
					"from", t.String(), "to", next.String(), "ratio", ratio)
				t = next
				continue
			}
		}

		return out, &Result{
			OriginalSize:      int64(len(input)),
			CompressedSize:    int64(len(out)),
			RatioPercent:      ratio,
			TierUsed:          t.String(),
			TechniquesApplied: techniques,
			ProcessingTimeMs:  time.Since(start).Milliseconds(),
		}, nil
	}
}

// rasterizePass renders every page in ascending order at the tier's
// density, encodes it, and rebuilds a document with identical page sizes.
// The raster buffer for each page is dropped before the next page renders,
// keeping peak memory at one page's pixels.
func (e *Engine) rasterizePass(ctx context.Context, doc *document.Document, tier QualityTier, opts Options) ([]byte, []string, error) {
	s := tier.settings()

	pages := make([]document.ImagePage, 0, doc.PageCount())
	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		dim, err := doc.Dim(i)
		if err != nil {
			return nil, nil, err
		}

		img, err := e.ras.RenderPage(ctx, doc.Bytes(), i, s.DPI, s.Grayscale)
		if err != nil {
			return nil, nil, err
		}

		encoded, err := rasterizer.EncodeJPEG(img, s.JPEGQuality, s.Grayscale)
		if err != nil {
			return nil, nil, err
		}

		pages = append(pages, document.ImagePage{JPEG: encoded, Width: dim.Width, Height: dim.Height})
	}

	out, err := e.docs.BuildImageDocument(ctx, pages)
	if err != nil {
		return nil, nil, err
	}

	// The rebuilt document starts with no info dict, so keeping metadata
	// means copying it over from the source.
	if opts.PreserveMetadata {
		out, err = e.docs.CopyMetadata(ctx, doc.Bytes(), out)
		if err != nil {
			return nil, nil, err
		}
	}

	techniques := []string{TechniqueRasterization, TechniqueJPEG}
	if s.Grayscale {
		techniques = append(techniques, TechniqueGrayscale)
	}
	if !opts.PreserveMetadata {
		techniques = append(techniques, TechniqueMetadataRemoval)
	}
	return out, techniques, nil
}

// fallback re-serializes the original bytes with object-stream compaction
// when rasterization is unusable. A failure here is fatal; the raster path
// is never retried.
func (e *Engine) fallback(ctx context.Context, input []byte, opts Options, start time.Time) ([]byte, *Result, error) {
	stripMeta := !opts.PreserveMetadata

	out, err := e.docs.Recompact(ctx, input, stripMeta)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrRasterizationFailure)
	}

	techniques := []string{TechniqueObjectCompaction}
	if stripMeta {
		techniques = append(techniques, TechniqueMetadataRemoval)
	}

	return out, &Result{
		OriginalSize:      int64(len(input)),
		CompressedSize:    int64(len(out)),
		RatioPercent:      reductionPercent(int64(len(input)), int64(len(out))),
		TierUsed:          "none",
		TechniquesApplied: techniques,
		ProcessingTimeMs:  time.Since(start).Milliseconds(),
	}, nil
}

func reductionPercent(before, after int64) float64 {
	if before == 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}

func mapDocumentError(err error) error {
	switch {
	case errors.Is(err, document.ErrEncrypted):
		return apperror.Wrap(err, apperror.ErrEncrypted)
	case errors.Is(err, document.ErrParse), errors.Is(err, document.ErrEmpty):
		return apperror.Wrap(err, apperror.ErrInvalidInput)
	default:
		return err
	}
}
