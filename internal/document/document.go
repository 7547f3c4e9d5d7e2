// Package document wraps the pdfcpu document model behind the small surface
// the engines need: loading with validation, page geometry lookups, boundary
// rewrites, image-page assembly and compacted serialization. PDF parsing and
// writing stay inside pdfcpu.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/abdul-hamid-achik/pdfpress/internal/geometry"
)

var (
	ErrParse          = errors.New("document: cannot parse PDF")
	ErrEncrypted      = errors.New("document: PDF is encrypted or password-protected")
	ErrEmpty          = errors.New("document: PDF has no pages")
	ErrPageOutOfRange = errors.New("document: page out of range")
)

// PageDim is a page size in points.
type PageDim struct {
	Width  float64
	Height float64
}

// Document is a parsed, validated PDF. The byte stream is its identity;
// mutation happens only through the adapter operations, which always return
// a fresh byte stream.
type Document struct {
	data  []byte
	count int
	dims  []PageDim
}

// FromPages builds a Document from already-known geometry. Adapters use it
// after parsing; stub adapters in tests use it directly.
func FromPages(b []byte, dims []PageDim) *Document {
	return &Document{data: b, count: len(dims), dims: dims}
}

func (d *Document) PageCount() int { return d.count }

func (d *Document) Bytes() []byte { return d.data }

func (d *Document) Size() int64 { return int64(len(d.data)) }

// Dim returns the size of a page by 0-based index.
func (d *Document) Dim(pageIndex int) (PageDim, error) {
	if pageIndex < 0 || pageIndex >= len(d.dims) {
		return PageDim{}, fmt.Errorf("%w: index %d of %d pages", ErrPageOutOfRange, pageIndex, len(d.dims))
	}
	return d.dims[pageIndex], nil
}

// ImagePage is one rendered page ready for reassembly: encoded JPEG bytes
// plus the original page size in points.
type ImagePage struct {
	JPEG   []byte
	Width  float64
	Height float64
}

// PageBox pairs a 1-based page number with a resolved point-space rectangle.
type PageBox struct {
	Page int
	Rect geometry.Rect
}

// Adapter is the document-model surface the engines consume.
type Adapter interface {
	Open(ctx context.Context, b []byte) (*Document, error)

	// BuildImageDocument assembles a new PDF with one page per entry, each
	// page sized to the entry's point dimensions and its image drawn
	// centered, scaled to fit while preserving aspect ratio.
	BuildImageDocument(ctx context.Context, pages []ImagePage) ([]byte, error)

	// Recompact re-serializes b with object-stream compaction, optionally
	// dropping descriptive metadata.
	Recompact(ctx context.Context, b []byte, stripMetadata bool) ([]byte, error)

	// CopyMetadata transplants the descriptive information entries of src
	// onto dst and returns the rewritten dst. A src without an information
	// dictionary returns dst unchanged.
	CopyMetadata(ctx context.Context, src, dst []byte) ([]byte, error)

	// ApplyPageBoxes rewrites crop box and media box together for each
	// listed page. Rectangles must already be validated point-space.
	ApplyPageBoxes(ctx context.Context, b []byte, boxes []PageBox) ([]byte, error)
}

// PDFCPU is the pdfcpu-backed Adapter.
type PDFCPU struct {
	conf *model.Configuration
}

var _ Adapter = (*PDFCPU)(nil)

func NewPDFCPU() *PDFCPU {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	return &PDFCPU{conf: conf}
}

func (a *PDFCPU) Open(ctx context.Context, b []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := a.readContext(b)
	if err != nil {
		return nil, err
	}

	if c.PageCount == 0 {
		return nil, ErrEmpty
	}

	dims, err := c.PageDims()
	if err != nil {
		return nil, fmt.Errorf("%w: reading page dimensions: %v", ErrParse, err)
	}

	pageDims := make([]PageDim, len(dims))
	for i, d := range dims {
		pageDims[i] = PageDim{Width: d.Width, Height: d.Height}
	}

	return FromPages(b, pageDims), nil
}

func (a *PDFCPU) BuildImageDocument(ctx context.Context, pages []ImagePage) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrEmpty
	}

	var out []byte
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		imp, err := pdfcpu.ParseImportDetails("pos:c, scalefactor:1.0 rel", types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("document: import setup: %w", err)
		}
		imp.PageDim = &types.Dim{Width: p.Width, Height: p.Height}

		var rs io.ReadSeeker
		if out != nil {
			rs = bytes.NewReader(out)
		}

		var buf bytes.Buffer
		if err := pdfapi.ImportImages(rs, &buf, []io.Reader{bytes.NewReader(p.JPEG)}, imp, a.conf); err != nil {
			return nil, fmt.Errorf("document: embedding page %d: %w", i+1, err)
		}
		out = buf.Bytes()
	}
	return out, nil
}

func (a *PDFCPU) Recompact(ctx context.Context, b []byte, stripMetadata bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := a.readContext(b)
	if err != nil {
		return nil, err
	}

	if stripMetadata {
		// Dropping the info reference leaves pdfcpu to emit a minimal
		// fresh info dict on write.
		c.Info = nil
	}

	if err := pdfapi.OptimizeContext(c); err != nil {
		return nil, fmt.Errorf("%w: optimizing: %v", ErrParse, err)
	}

	var buf bytes.Buffer
	if err := pdfapi.WriteContext(c, &buf); err != nil {
		return nil, fmt.Errorf("document: serializing: %w", err)
	}
	return buf.Bytes(), nil
}

// infoKeys are the descriptive information entries CopyMetadata carries over.
var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"}

func (a *PDFCPU) CopyMetadata(ctx context.Context, src, dst []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc, err := a.readContext(src)
	if err != nil {
		return nil, err
	}
	if sc.Info == nil {
		return dst, nil
	}

	sd, err := sc.DereferenceDict(*sc.Info)
	if err != nil {
		return nil, fmt.Errorf("%w: reading info dict: %v", ErrParse, err)
	}

	kept := types.Dict{}
	for _, k := range infoKeys {
		v, ok := sd[k]
		if !ok {
			continue
		}
		o, err := sc.Dereference(v)
		if err != nil {
			return nil, fmt.Errorf("%w: info entry %s: %v", ErrParse, k, err)
		}
		kept[k] = o
	}
	if len(kept) == 0 {
		return dst, nil
	}

	dc, err := a.readContext(dst)
	if err != nil {
		return nil, err
	}

	ir, err := dc.IndRefForNewObject(kept)
	if err != nil {
		return nil, fmt.Errorf("document: storing info dict: %w", err)
	}
	dc.Info = ir

	if err := pdfapi.OptimizeContext(dc); err != nil {
		return nil, fmt.Errorf("%w: optimizing: %v", ErrParse, err)
	}

	var buf bytes.Buffer
	if err := pdfapi.WriteContext(dc, &buf); err != nil {
		return nil, fmt.Errorf("document: serializing: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *PDFCPU) ApplyPageBoxes(ctx context.Context, b []byte, boxes []PageBox) ([]byte, error) {
	out := b
	for _, pb := range boxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := pb.Rect
		desc := fmt.Sprintf("media:[%.4f %.4f %.4f %.4f], crop:[%.4f %.4f %.4f %.4f]",
			r.X, r.Y, r.X+r.Width, r.Y+r.Height,
			r.X, r.Y, r.X+r.Width, r.Y+r.Height)

		pbs, err := model.ParsePageBoundaries(desc, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("document: page %d boundaries: %w", pb.Page, err)
		}

		var buf bytes.Buffer
		sel := []string{strconv.Itoa(pb.Page)}
		if err := pdfapi.AddBoxes(bytes.NewReader(out), &buf, sel, pbs, a.conf); err != nil {
			return nil, fmt.Errorf("document: rewriting page %d boundaries: %w", pb.Page, err)
		}
		out = buf.Bytes()
	}
	return out, nil
}

func (a *PDFCPU) readContext(b []byte) (*model.Context, error) {
	c, err := pdfapi.ReadContext(bytes.NewReader(b), a.conf)
	if err != nil {
		if isEncryptionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if err := pdfapi.ValidateContext(c); err != nil {
		if isEncryptionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if c.Encrypt != nil {
		return nil, ErrEncrypted
	}
	return c, nil
}

func isEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
