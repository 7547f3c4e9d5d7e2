// Package geometry converts caller-space crop rectangles into PDF point
// space. Callers specify rectangles with a top-left-down origin in one of
// several units; PDF pages use points with a bottom-left-up origin.
package geometry

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownUnit  = errors.New("geometry: unknown unit")
	ErrBelowMinimum = errors.New("geometry: rectangle below minimum size")
	ErrDoesNotFit   = errors.New("geometry: rectangle does not fit page")
)

// Unit is a supported length unit for caller-supplied rectangles.
type Unit string

const (
	UnitPixel      Unit = "pixel"
	UnitPoint      Unit = "point"
	UnitMillimeter Unit = "millimeter"
	UnitInch       Unit = "inch"
)

// Conversion factors to points. Pixels assume a 96 DPI source rendered
// against the PDF's 72 DPI point grid.
const (
	pixelToPoint      = 72.0 / 96.0
	millimeterToPoint = 2.83465
	inchToPoint       = 72.0
)

// MinDimensionPt is the smallest crop box edge accepted, in points.
const MinDimensionPt = 10.0

// sizeTolerance is how far a converted rectangle may overflow the page
// before it is rejected instead of clamped.
const sizeTolerance = 1.0

// ParseUnit normalizes a unit name, accepting common short forms.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "pixel", "px":
		return UnitPixel, nil
	case "point", "pt":
		return UnitPoint, nil
	case "millimeter", "mm":
		return UnitMillimeter, nil
	case "inch", "in":
		return UnitInch, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Factor returns the multiplier converting u to points.
func (u Unit) Factor() (float64, error) {
	switch u {
	case UnitPixel:
		return pixelToPoint, nil
	case UnitPoint:
		return 1.0, nil
	case UnitMillimeter:
		return millimeterToPoint, nil
	case UnitInch:
		return inchToPoint, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
	}
}

// Rect is an axis-aligned rectangle. Before Resolve it carries caller
// coordinates (top-left-down, any unit); after Resolve it is in points
// with a bottom-left-up origin.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Normalize converts r from u to points without changing its origin
// convention.
func Normalize(r Rect, u Unit) (Rect, error) {
	f, err := u.Factor()
	if err != nil {
		return Rect{}, err
	}
	return Rect{
		X:      r.X * f,
		Y:      r.Y * f,
		Width:  r.Width * f,
		Height: r.Height * f,
	}, nil
}

// FlipOrigin maps a top-left-down rectangle onto the page's native
// bottom-left-up coordinate system. Must run after unit normalization.
func FlipOrigin(r Rect, pageHeight float64) Rect {
	r.Y = pageHeight - r.Y - r.Height
	return r
}

// ClampToPage nudges r inside the page bounds. Position is clamped first,
// then size is limited to what remains from the clamped origin.
func ClampToPage(r Rect, pageWidth, pageHeight float64) Rect {
	r.X = clamp(r.X, 0, pageWidth-r.Width)
	r.Y = clamp(r.Y, 0, pageHeight-r.Height)
	r.Width = clamp(r.Width, 0, pageWidth-r.X)
	r.Height = clamp(r.Height, 0, pageHeight-r.Y)
	return r
}

// Resolve runs the full conversion pipeline: unit normalization, origin
// flip, clamping, then validation. Rectangles smaller than MinDimensionPt
// or larger than the page (beyond sizeTolerance) are rejected rather than
// silently adjusted.
func Resolve(r Rect, u Unit, pageWidth, pageHeight float64) (Rect, error) {
	p, err := Normalize(r, u)
	if err != nil {
		return Rect{}, err
	}

	if p.Width < MinDimensionPt || p.Height < MinDimensionPt {
		return Rect{}, fmt.Errorf("%w: %.2fx%.2fpt, minimum is %.0fx%.0fpt",
			ErrBelowMinimum, p.Width, p.Height, MinDimensionPt, MinDimensionPt)
	}
	if p.Width > pageWidth+sizeTolerance || p.Height > pageHeight+sizeTolerance {
		return Rect{}, fmt.Errorf("%w: %.2fx%.2fpt on %.2fx%.2fpt page",
			ErrDoesNotFit, p.Width, p.Height, pageWidth, pageHeight)
	}

	p = FlipOrigin(p, pageHeight)
	p = ClampToPage(p, pageWidth, pageHeight)

	if p.Width < MinDimensionPt || p.Height < MinDimensionPt {
		return Rect{}, fmt.Errorf("%w: %.2fx%.2fpt after clamping",
			ErrDoesNotFit, p.Width, p.Height)
	}
	return p, nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
