package crop

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/pdfpress/internal/apperror"
	"github.com/abdul-hamid-achik/pdfpress/internal/document"
)

// stubAdapter implements document.Adapter in memory and records boundary
// rewrites so atomicity can be asserted.
type stubAdapter struct {
	dims       []document.PageDim
	openErr    error
	applyDelay time.Duration

	applied [][]document.PageBox
}

func (s *stubAdapter) Open(ctx context.Context, b []byte) (*document.Document, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return document.FromPages(b, s.dims), nil
}

func (s *stubAdapter) BuildImageDocument(ctx context.Context, pages []document.ImagePage) ([]byte, error) {
	return nil, errors.New("not used")
}

func (s *stubAdapter) Recompact(ctx context.Context, b []byte, stripMetadata bool) ([]byte, error) {
	return nil, errors.New("not used")
}

func (s *stubAdapter) CopyMetadata(ctx context.Context, src, dst []byte) ([]byte, error) {
	return nil, errors.New("not used")
}

func (s *stubAdapter) ApplyPageBoxes(ctx context.Context, b []byte, boxes []document.PageBox) ([]byte, error) {
	if s.applyDelay > 0 {
		time.Sleep(s.applyDelay)
	}
	s.applied = append(s.applied, boxes)
	return append([]byte("cropped:"), b...), nil
}

var a4 = document.PageDim{Width: 595, Height: 842}

func pdfInput() []byte { return []byte("%PDF-stub document") }

// TestCrop_Single tests a one-page crop end to end through the engine.
func TestCrop_Single(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4}}
	engine := NewEngine(adapter, 0)

	out, results, err := engine.Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
	})
	if err != nil {
		t.Fatalf("Crop() error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Crop() returned empty output")
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if r.Page != 1 {
		t.Errorf("Page = %d, want 1", r.Page)
	}
	if r.OriginalWidth != 595 || r.OriginalHeight != 842 {
		t.Errorf("original dims = %.0fx%.0f, want 595x842", r.OriginalWidth, r.OriginalHeight)
	}
	// top-left square flips to the top of the native coordinate space
	if math.Abs(r.Rect.Y-742) > 0.01 {
		t.Errorf("resolved Y = %.2f, want 742", r.Rect.Y)
	}
	if r.CroppedWidth != 100 || r.CroppedHeight != 100 {
		t.Errorf("cropped dims = %.0fx%.0f, want 100x100", r.CroppedWidth, r.CroppedHeight)
	}

	if len(adapter.applied) != 1 || len(adapter.applied[0]) != 1 {
		t.Fatalf("ApplyPageBoxes calls = %+v, want one call with one box", adapter.applied)
	}
}

// TestCrop_UnitEquivalence tests that inches and the equivalent points
// resolve to the same geometry.
func TestCrop_UnitEquivalence(t *testing.T) {
	run := func(r Rectangle) Result {
		adapter := &stubAdapter{dims: []document.PageDim{a4}}
		_, results, err := NewEngine(adapter, 0).Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{r})
		if err != nil {
			t.Fatalf("Crop() error: %v", err)
		}
		return results[0]
	}

	inches := run(Rectangle{Page: 1, X: 1, Y: 1, Width: 3, Height: 4, Unit: "inch"})
	points := run(Rectangle{Page: 1, X: 72, Y: 72, Width: 216, Height: 288, Unit: "point"})

	if inches.Rect != points.Rect {
		t.Errorf("inch rect %+v != point rect %+v", inches.Rect, points.Rect)
	}
}

// TestCrop_BelowMinimum tests that a 5x5pt request fails with geometry
// error and the document is never mutated.
func TestCrop_BelowMinimum(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4}}
	engine := NewEngine(adapter, 0)

	_, _, err := engine.Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 5, Height: 5, Unit: "point"},
	})
	if !apperror.Is(err, apperror.ErrGeometryInvalid) {
		t.Errorf("Crop() error = %v, want geometry_invalid", err)
	}
	if len(adapter.applied) != 0 {
		t.Error("document was mutated despite validation failure")
	}
}

// TestCrop_PageOutOfRange tests the 1-based page bounds check.
func TestCrop_PageOutOfRange(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4, a4}}
	engine := NewEngine(adapter, 0)

	for _, page := range []int{0, -1, 3, 99} {
		_, _, err := engine.Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{
			{Page: page, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
		})
		if !apperror.Is(err, apperror.ErrGeometryInvalid) {
			t.Errorf("Crop(page=%d) error = %v, want geometry_invalid", page, err)
		}
	}
	if len(adapter.applied) != 0 {
		t.Error("document was mutated despite out-of-range page")
	}
}

// TestCrop_MultipleAtomicity tests that a batch with one valid and one
// invalid rectangle mutates nothing.
func TestCrop_MultipleAtomicity(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4, a4}}
	engine := NewEngine(adapter, 0)

	_, _, err := engine.Crop(context.Background(), pdfInput(), ModeMultiple, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 200, Height: 200, Unit: "point"},
		{Page: 2, X: 0, Y: 0, Width: 5, Height: 5, Unit: "point"}, // below minimum
	})
	if !apperror.Is(err, apperror.ErrGeometryInvalid) {
		t.Errorf("Crop() error = %v, want geometry_invalid", err)
	}
	if len(adapter.applied) != 0 {
		t.Error("page 1 was cropped although page 2 failed validation")
	}
}

// TestCrop_MultipleDuplicatePage tests duplicate page rejection.
func TestCrop_MultipleDuplicatePage(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4, a4}}
	engine := NewEngine(adapter, 0)

	_, _, err := engine.Crop(context.Background(), pdfInput(), ModeMultiple, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 200, Height: 200, Unit: "point"},
		{Page: 1, X: 10, Y: 10, Width: 200, Height: 200, Unit: "point"},
	})
	if !apperror.Is(err, apperror.ErrDuplicatePageTarget) {
		t.Errorf("Crop() error = %v, want duplicate_page_target", err)
	}
}

// TestCrop_MultipleOrdered tests that results come back in ascending page
// order regardless of request order.
func TestCrop_MultipleOrdered(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4, a4, a4}}
	engine := NewEngine(adapter, 0)

	_, results, err := engine.Crop(context.Background(), pdfInput(), ModeMultiple, []Rectangle{
		{Page: 3, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
		{Page: 1, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
		{Page: 2, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
	})
	if err != nil {
		t.Fatalf("Crop() error: %v", err)
	}
	for i, r := range results {
		if r.Page != i+1 {
			t.Errorf("results[%d].Page = %d, want %d", i, r.Page, i+1)
		}
	}
}

// TestCrop_AllBroadcast tests per-page validation of a broadcast rectangle
// against each page's own dimensions.
func TestCrop_AllBroadcast(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4, {Width: 300, Height: 300}}}
	engine := NewEngine(adapter, 0)

	// fits the A4 page but exceeds the 300x300 page beyond tolerance
	_, _, err := engine.Crop(context.Background(), pdfInput(), ModeAll, []Rectangle{
		{X: 0, Y: 0, Width: 400, Height: 400, Unit: "point"},
	})
	if !apperror.Is(err, apperror.ErrGeometryInvalid) {
		t.Errorf("Crop() error = %v, want geometry_invalid", err)
	}
	if len(adapter.applied) != 0 {
		t.Error("broadcast crop mutated pages despite a failing page")
	}

	// a rectangle valid on every page crops them all
	_, results, err := engine.Crop(context.Background(), pdfInput(), ModeAll, []Rectangle{
		{X: 0, Y: 0, Width: 200, Height: 200, Unit: "point"},
	})
	if err != nil {
		t.Fatalf("Crop(all) error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// same caller rectangle lands at different native Y per page height
	if math.Abs(results[0].Rect.Y-642) > 0.01 {
		t.Errorf("page 1 Y = %.2f, want 642", results[0].Rect.Y)
	}
	if math.Abs(results[1].Rect.Y-100) > 0.01 {
		t.Errorf("page 2 Y = %.2f, want 100", results[1].Rect.Y)
	}
}

// TestCrop_IdempotentOnFullPage tests cropping a page to its current
// boundary leaves dimensions unchanged.
func TestCrop_IdempotentOnFullPage(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4}}
	engine := NewEngine(adapter, 0)

	_, results, err := engine.Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 595, Height: 842, Unit: "point"},
	})
	if err != nil {
		t.Fatalf("Crop() error: %v", err)
	}
	r := results[0]
	if math.Abs(r.CroppedWidth-595) > 0.01 || math.Abs(r.CroppedHeight-842) > 0.01 {
		t.Errorf("cropped dims = %.2fx%.2f, want 595x842", r.CroppedWidth, r.CroppedHeight)
	}
	if math.Abs(r.Rect.X) > 0.01 || math.Abs(r.Rect.Y) > 0.01 {
		t.Errorf("resolved origin = (%.2f, %.2f), want (0, 0)", r.Rect.X, r.Rect.Y)
	}
}

// TestCrop_PerPageTiming tests that each result carries the time spent
// resolving its own page, not the elapsed time of the whole batch.
func TestCrop_PerPageTiming(t *testing.T) {
	adapter := &stubAdapter{
		dims:       []document.PageDim{a4, a4, a4},
		applyDelay: 50 * time.Millisecond,
	}
	engine := NewEngine(adapter, 0)

	_, results, err := engine.Crop(context.Background(), pdfInput(), ModeAll, []Rectangle{
		{X: 0, Y: 0, Width: 200, Height: 200, Unit: "point"},
	})
	if err != nil {
		t.Fatalf("Crop() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, r := range results {
		if r.ProcessingTimeMs < 0 || r.ProcessingTimeMs >= 50 {
			t.Errorf("page %d ProcessingTimeMs = %d, should not include the boundary-rewrite time", r.Page, r.ProcessingTimeMs)
		}
	}
}

// TestCrop_InvalidInputs tests mode and unit contract violations.
func TestCrop_InvalidInputs(t *testing.T) {
	adapter := &stubAdapter{dims: []document.PageDim{a4}}
	engine := NewEngine(adapter, 0)
	ctx := context.Background()
	valid := Rectangle{Page: 1, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"}

	tests := []struct {
		name  string
		mode  Mode
		rects []Rectangle
		want  *apperror.Error
	}{
		{"unknown mode", Mode("bulk"), []Rectangle{valid}, apperror.ErrInvalidInput},
		{"single with two rects", ModeSingle, []Rectangle{valid, valid}, apperror.ErrInvalidInput},
		{"multiple with none", ModeMultiple, nil, apperror.ErrInvalidInput},
		{"all with two rects", ModeAll, []Rectangle{valid, valid}, apperror.ErrInvalidInput},
		{"unknown unit", ModeSingle, []Rectangle{{Page: 1, Width: 100, Height: 100, Unit: "parsec"}}, apperror.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := engine.Crop(ctx, pdfInput(), tt.mode, tt.rects)
			if !apperror.Is(err, tt.want) {
				t.Errorf("Crop() error = %v, want %s", err, tt.want.Code)
			}
		})
	}
}

// TestCrop_EncryptedDocument tests refusal on protected input.
func TestCrop_EncryptedDocument(t *testing.T) {
	adapter := &stubAdapter{openErr: document.ErrEncrypted}
	engine := NewEngine(adapter, 0)

	_, _, err := engine.Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
	})
	if !apperror.Is(err, apperror.ErrEncrypted) {
		t.Errorf("Crop() error = %v, want encrypted_document", err)
	}
}

// TestCrop_SizeLimit tests the byte-size ceiling.
func TestCrop_SizeLimit(t *testing.T) {
	engine := NewEngine(&stubAdapter{dims: []document.PageDim{a4}}, 4)
	_, _, err := engine.Crop(context.Background(), pdfInput(), ModeSingle, []Rectangle{
		{Page: 1, X: 0, Y: 0, Width: 100, Height: 100, Unit: "point"},
	})
	if !apperror.Is(err, apperror.ErrFileTooLarge) {
		t.Errorf("Crop() error = %v, want file_too_large", err)
	}
}

// TestParseMode tests batch mode parsing.
func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"single":   ModeSingle,
		"Multiple": ModeMultiple,
		" ALL ":    ModeAll,
	} {
		got, err := ParseMode(in)
		if err != nil {
			t.Errorf("ParseMode(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseMode("everything"); err == nil {
		t.Error("ParseMode(\"everything\") error = nil, want error")
	}
}
