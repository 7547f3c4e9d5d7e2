package cli

import (
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/pdfpress/internal/crop"
	"gopkg.in/yaml.v3"
)

// BatchConfig describes a YAML-driven crop run over several files.
type BatchConfig struct {
	Defaults BatchDefaults     `yaml:"defaults,omitempty"`
	Files    []BatchFileConfig `yaml:"files,omitempty"`
}

type BatchDefaults struct {
	Mode string `yaml:"mode,omitempty"`
	Unit string `yaml:"unit,omitempty"`
}

type BatchFileConfig struct {
	Path       string            `yaml:"path,omitempty"`
	Pattern    string            `yaml:"pattern,omitempty"`
	Mode       string            `yaml:"mode,omitempty"`
	Rectangles []BatchRectConfig `yaml:"rectangles,omitempty"`
}

type BatchRectConfig struct {
	Page   int     `yaml:"page,omitempty"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Unit   string  `yaml:"unit,omitempty"`
}

func LoadBatchConfig(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &BatchConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (bc *BatchConfig) GetFileConfig(filename string) *BatchFileConfig {
	baseName := filepath.Base(filename)

	for i := range bc.Files {
		fc := &bc.Files[i]
		if fc.Path != "" && (fc.Path == filename || fc.Path == baseName) {
			return fc
		}

		if fc.Pattern != "" {
			matched, err := filepath.Match(fc.Pattern, baseName)
			if err == nil && matched {
				return fc
			}
		}
	}

	return nil
}

func (bc *BatchConfig) GetMode(filename string) string {
	fc := bc.GetFileConfig(filename)
	if fc != nil && fc.Mode != "" {
		return fc.Mode
	}
	if bc.Defaults.Mode != "" {
		return bc.Defaults.Mode
	}
	return "single"
}

// GetRectangles resolves the rectangles for a file, filling in the default
// unit where a rectangle leaves it empty.
func (bc *BatchConfig) GetRectangles(filename string) []crop.Rectangle {
	fc := bc.GetFileConfig(filename)
	if fc == nil {
		return nil
	}

	rects := make([]crop.Rectangle, 0, len(fc.Rectangles))
	for _, rc := range fc.Rectangles {
		unit := rc.Unit
		if unit == "" {
			unit = bc.Defaults.Unit
		}
		rects = append(rects, crop.Rectangle{
			Page:   rc.Page,
			X:      rc.X,
			Y:      rc.Y,
			Width:  rc.Width,
			Height: rc.Height,
			Unit:   unit,
		})
	}
	return rects
}
