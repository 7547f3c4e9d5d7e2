package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/pdfpress/internal/api"
	"github.com/abdul-hamid-achik/pdfpress/internal/compress"
	"github.com/abdul-hamid-achik/pdfpress/internal/config"
	"github.com/abdul-hamid-achik/pdfpress/internal/crop"
	"github.com/abdul-hamid-achik/pdfpress/internal/document"
	"github.com/abdul-hamid-achik/pdfpress/internal/logger"
	"github.com/abdul-hamid-achik/pdfpress/internal/metrics"
	"github.com/abdul-hamid-achik/pdfpress/internal/rasterizer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	log.Info("configuration loaded")

	metrics.SetAppInfo("1.0.0", cfg.Environment, "api")

	docs := document.NewPDFCPU()
	ras := rasterizer.NewPoppler(cfg.PdftoppmPath, cfg.TempDir)

	apiCfg := &api.Config{
		Compressor:    compress.NewEngine(docs, ras, cfg.MaxUploadSize),
		Cropper:       crop.NewEngine(docs, cfg.MaxUploadSize),
		MaxUploadSize: cfg.MaxUploadSize,
		RendererPath:  cfg.PdftoppmPath,
		TempDir:       cfg.TempDir,
	}

	handler := metrics.HTTPMetricsMiddleware(
		api.Recovery(api.RequestID(api.RequestLogger(api.NewRouter(apiCfg)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		log.Info("server starting", "port", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
			return fmt.Errorf("forced shutdown: %w", err)
		}
	}

	log.Info("server stopped gracefully")
	return nil
}
