package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRect(t *testing.T) {
	tests := []struct {
		input      string
		x, y, w, h float64
		wantErr    bool
	}{
		{"0,0,400,500", 0, 0, 400, 500, false},
		{"10.5, 20.25, 100, 200", 10.5, 20.25, 100, 200, false},
		{"1,2,3", 0, 0, 0, 0, true},
		{"a,b,c,d", 0, 0, 0, 0, true},
		{"", 0, 0, 0, 0, true},
	}

	for _, tt := range tests {
		x, y, w, h, err := parseRect(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRect(%q) error = nil, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRect(%q) error: %v", tt.input, err)
			continue
		}
		if x != tt.x || y != tt.y || w != tt.w || h != tt.h {
			t.Errorf("parseRect(%q) = %v,%v,%v,%v, want %v,%v,%v,%v",
				tt.input, x, y, w, h, tt.x, tt.y, tt.w, tt.h)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		outDir string
		suffix string
		want   string
	}{
		{"docs/report.pdf", "", ".compressed.pdf", filepath.Join("docs", "report.compressed.pdf")},
		{"report.pdf", "out", ".cropped.pdf", filepath.Join("out", "report.cropped.pdf")},
		{"report", "", ".compressed.pdf", "report.compressed.pdf"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.input, tt.outDir, tt.suffix); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.input, tt.outDir, tt.suffix, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512B"},
		{2048, "2.0KB"},
		{3 * 1024 * 1024, "3.0MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestLoadBatchConfig(t *testing.T) {
	content := `defaults:
  unit: mm
  mode: single
files:
  - path: report.pdf
    mode: multiple
    rectangles:
      - page: 1
        x: 10
        y: 10
        width: 190
        height: 277
      - page: 2
        x: 0
        y: 0
        width: 100
        height: 100
        unit: point
  - pattern: "scan-*.pdf"
    mode: all
    rectangles:
      - x: 5
        y: 5
        width: 200
        height: 287
`
	path := filepath.Join(t.TempDir(), "crops.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadBatchConfig(path)
	if err != nil {
		t.Fatalf("LoadBatchConfig() error: %v", err)
	}

	if got := cfg.GetMode("report.pdf"); got != "multiple" {
		t.Errorf("GetMode(report.pdf) = %q, want multiple", got)
	}
	if got := cfg.GetMode("scan-001.pdf"); got != "all" {
		t.Errorf("GetMode(scan-001.pdf) = %q, want all", got)
	}
	if got := cfg.GetMode("other.pdf"); got != "single" {
		t.Errorf("GetMode(other.pdf) = %q, want single from defaults", got)
	}

	rects := cfg.GetRectangles("report.pdf")
	if len(rects) != 2 {
		t.Fatalf("GetRectangles(report.pdf) returned %d rects, want 2", len(rects))
	}
	// first rect inherits the default unit, second keeps its own
	if rects[0].Unit != "mm" {
		t.Errorf("rects[0].Unit = %q, want mm (default)", rects[0].Unit)
	}
	if rects[1].Unit != "point" {
		t.Errorf("rects[1].Unit = %q, want point", rects[1].Unit)
	}
	if rects[0].Page != 1 || rects[0].Width != 190 {
		t.Errorf("rects[0] = %+v", rects[0])
	}

	if rects := cfg.GetRectangles("unknown.pdf"); rects != nil {
		t.Errorf("GetRectangles(unknown.pdf) = %+v, want nil", rects)
	}
}

func TestLoadBatchConfig_Missing(t *testing.T) {
	if _, err := LoadBatchConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadBatchConfig() error = nil for missing file, want error")
	}
}
