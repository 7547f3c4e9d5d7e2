package compress

import (
	"fmt"
	"strings"
)

// QualityTier selects a rasterization density / encode quality bundle.
// Tiers are totally ordered by resulting file size: low always produces the
// smallest output.
type QualityTier int

const (
	TierLow QualityTier = iota
	TierMedium
	TierHigh
)

func (t QualityTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func (t QualityTier) valid() bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

// ParseTier maps a caller-supplied tier name to its enum value. Anything
// outside the three defined tiers is a contract violation.
func ParseTier(s string) (QualityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	default:
		return 0, fmt.Errorf("unknown quality tier %q, expected low, medium or high", s)
	}
}

// TierSettings is the fixed knob bundle behind a tier.
type TierSettings struct {
	DPI               int
	JPEGQuality       int
	Grayscale         bool
	ChromaSubsampling string
}

// settings returns the fixed per-tier configuration.
func (t QualityTier) settings() TierSettings {
	switch t {
	case TierLow:
		return TierSettings{DPI: 72, JPEGQuality: 40, Grayscale: true, ChromaSubsampling: "gray"}
	case TierMedium:
		return TierSettings{DPI: 110, JPEGQuality: 60, Grayscale: false, ChromaSubsampling: "4:2:0"}
	default:
		return TierSettings{DPI: 150, JPEGQuality: 80, Grayscale: false, ChromaSubsampling: "4:2:0"}
	}
}

// stronger returns the next tier with stronger compression, following
// high -> medium -> low. Low has nowhere left to go.
func (t QualityTier) stronger() (QualityTier, bool) {
	switch t {
	case TierHigh:
		return TierMedium, true
	case TierMedium:
		return TierLow, true
	default:
		return t, false
	}
}
