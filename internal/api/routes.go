package api

import (
	"context"
	"net/http"

	"github.com/abdul-hamid-achik/pdfpress/internal/compress"
	"github.com/abdul-hamid-achik/pdfpress/internal/crop"
	"github.com/abdul-hamid-achik/pdfpress/internal/health"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compressor produces a smaller rendition of a document at a quality tier.
type Compressor interface {
	Compress(ctx context.Context, input []byte, tier compress.QualityTier, opts compress.Options) ([]byte, *compress.Result, error)
}

// Cropper rewrites page boundaries for one or more pages.
type Cropper interface {
	Crop(ctx context.Context, input []byte, mode crop.Mode, rects []crop.Rectangle) ([]byte, []crop.Result, error)
}

type Config struct {
	Compressor    Compressor
	Cropper       Cropper
	MaxUploadSize int64
	RendererPath  string
	TempDir       string
}

func NewRouter(cfg *Config) http.Handler {
	mux := http.NewServeMux()

	checker := health.NewChecker(cfg.RendererPath, cfg.TempDir)
	mux.HandleFunc("GET /health", health.HealthHandler(checker))
	mux.HandleFunc("GET /health/live", health.LivenessHandler())
	mux.HandleFunc("GET /health/ready", health.ReadinessHandler(checker))

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/pdf/compress", compressHandler(cfg))
	mux.HandleFunc("POST /v1/pdf/crop", cropHandler(cfg))

	return mux
}
