// Package crop rewrites page boundaries to a caller-specified rectangle,
// normalizing units and coordinate origin first. Crop box and media box
// always move together. Batches are all-or-nothing: every target page is
// validated before any page is mutated.
package crop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/pdfpress/internal/apperror"
	"github.com/abdul-hamid-achik/pdfpress/internal/document"
	"github.com/abdul-hamid-achik/pdfpress/internal/geometry"
)

// Mode selects how rectangles map onto pages.
type Mode string

const (
	// ModeSingle crops exactly one page with one rectangle.
	ModeSingle Mode = "single"
	// ModeMultiple crops an explicit page-to-rectangle set.
	ModeMultiple Mode = "multiple"
	// ModeAll broadcasts one rectangle to every page, re-validated against
	// each page's own dimensions.
	ModeAll Mode = "all"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return ModeSingle, nil
	case "multiple":
		return ModeMultiple, nil
	case "all":
		return ModeAll, nil
	default:
		return "", fmt.Errorf("unknown batch mode %q, expected single, multiple or all", s)
	}
}

// Rectangle is a caller-space crop request: top-left-down origin, any
// supported unit, 1-based page number.
type Rectangle struct {
	Page   int     `json:"pageNumber"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// ResolvedRect is point-space, bottom-left-up.
type ResolvedRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Result struct {
	Page             int          `json:"pageNumber"`
	OriginalWidth    float64      `json:"originalWidth"`
	OriginalHeight   float64      `json:"originalHeight"`
	CroppedWidth     float64      `json:"croppedWidth"`
	CroppedHeight    float64      `json:"croppedHeight"`
	Rect             ResolvedRect `json:"rect"`
	ProcessingTimeMs int64        `json:"processingTimeMs"`
}

type Engine struct {
	docs     document.Adapter
	maxBytes int64
}

func NewEngine(docs document.Adapter, maxBytes int64) *Engine {
	return &Engine{docs: docs, maxBytes: maxBytes}
}

type target struct {
	page int
	rect Rectangle
}

// Crop validates and applies the batch, returning new document bytes and
// one result per processed page in ascending page order.
func (e *Engine) Crop(ctx context.Context, input []byte, mode Mode, rects []Rectangle) ([]byte, []Result, error) {
	if e.maxBytes > 0 && int64(len(input)) > e.maxBytes {
		return nil, nil, apperror.ErrFileTooLarge
	}

	doc, err := e.docs.Open(ctx, input)
	if err != nil {
		return nil, nil, mapDocumentError(err)
	}

	targets, err := expandTargets(mode, rects, doc.PageCount())
	if err != nil {
		return nil, nil, err
	}

	// Validation pass: resolve every page's geometry before touching the
	// document, so a late failure cannot leave earlier pages cropped.
	boxes := make([]document.PageBox, 0, len(targets))
	results := make([]Result, 0, len(targets))
	for _, tg := range targets {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		targetStart := time.Now()

		if tg.page < 1 || tg.page > doc.PageCount() {
			return nil, nil, apperror.WrapWithMessage(nil, apperror.ErrGeometryInvalid.Code,
				fmt.Sprintf("page %d is outside the document (1-%d)", tg.page, doc.PageCount()),
				apperror.ErrGeometryInvalid.StatusCode)
		}

		dim, err := doc.Dim(tg.page - 1)
		if err != nil {
			return nil, nil, apperror.Wrap(err, apperror.ErrGeometryInvalid)
		}

		unit, err := geometry.ParseUnit(tg.rect.Unit)
		if err != nil {
			return nil, nil, apperror.WrapWithMessage(err, apperror.ErrInvalidInput.Code,
				fmt.Sprintf("page %d: %v", tg.page, err), apperror.ErrInvalidInput.StatusCode)
		}

		resolved, err := geometry.Resolve(geometry.Rect{
			X: tg.rect.X, Y: tg.rect.Y, Width: tg.rect.Width, Height: tg.rect.Height,
		}, unit, dim.Width, dim.Height)
		if err != nil {
			return nil, nil, apperror.WrapWithMessage(err, apperror.ErrGeometryInvalid.Code,
				fmt.Sprintf("page %d: %v", tg.page, err), apperror.ErrGeometryInvalid.StatusCode)
		}

		boxes = append(boxes, document.PageBox{Page: tg.page, Rect: resolved})
		results = append(results, Result{
			Page:           tg.page,
			OriginalWidth:  dim.Width,
			OriginalHeight: dim.Height,
			CroppedWidth:   resolved.Width,
			CroppedHeight:  resolved.Height,
			Rect: ResolvedRect{
				X: resolved.X, Y: resolved.Y, Width: resolved.Width, Height: resolved.Height,
			},
			ProcessingTimeMs: time.Since(targetStart).Milliseconds(),
		})
	}

	out, err := e.docs.ApplyPageBoxes(ctx, doc.Bytes(), boxes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrInternal)
	}

	return out, results, nil
}

// expandTargets maps the batch mode onto concrete page targets, in
// ascending page order.
func expandTargets(mode Mode, rects []Rectangle, pageCount int) ([]target, error) {
	switch mode {
	case ModeSingle:
		if len(rects) != 1 {
			return nil, apperror.WrapWithMessage(nil, apperror.ErrInvalidInput.Code,
				fmt.Sprintf("single mode expects exactly one rectangle, got %d", len(rects)),
				apperror.ErrInvalidInput.StatusCode)
		}
		return []target{{page: rects[0].Page, rect: rects[0]}}, nil

	case ModeMultiple:
		if len(rects) == 0 {
			return nil, apperror.WrapWithMessage(nil, apperror.ErrInvalidInput.Code,
				"multiple mode expects at least one rectangle", apperror.ErrInvalidInput.StatusCode)
		}
		seen := make(map[int]struct{}, len(rects))
		targets := make([]target, 0, len(rects))
		for _, r := range rects {
			if _, dup := seen[r.Page]; dup {
				return nil, apperror.WrapWithMessage(nil, apperror.ErrDuplicatePageTarget.Code,
					fmt.Sprintf("page %d appears more than once", r.Page),
					apperror.ErrDuplicatePageTarget.StatusCode)
			}
			seen[r.Page] = struct{}{}
			targets = append(targets, target{page: r.Page, rect: r})
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i].page < targets[j].page })
		return targets, nil

	case ModeAll:
		if len(rects) != 1 {
			return nil, apperror.WrapWithMessage(nil, apperror.ErrInvalidInput.Code,
				fmt.Sprintf("all mode expects exactly one rectangle, got %d", len(rects)),
				apperror.ErrInvalidInput.StatusCode)
		}
		targets := make([]target, 0, pageCount)
		for p := 1; p <= pageCount; p++ {
			targets = append(targets, target{page: p, rect: rects[0]})
		}
		return targets, nil

	default:
		return nil, apperror.WrapWithMessage(nil, apperror.ErrInvalidInput.Code,
			fmt.Sprintf("unknown batch mode %q", mode), apperror.ErrInvalidInput.StatusCode)
	}
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
