package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/pdfpress/internal/apperror"
	"github.com/abdul-hamid-achik/pdfpress/internal/compress"
	"github.com/abdul-hamid-achik/pdfpress/internal/crop"
	"github.com/abdul-hamid-achik/pdfpress/internal/logger"
	"github.com/abdul-hamid-achik/pdfpress/internal/metrics"
)

const multipartMemoryLimit = 32 << 20

func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, apperror.Wrap(err, apperror.ErrFileTooLarge)
		}
		return nil, apperror.WrapWithMessage(err, apperror.ErrInvalidInput.Code,
			"Malformed multipart request body", apperror.ErrInvalidInput.StatusCode)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, apperror.WrapWithMessage(err, "missing_file",
			"Please attach a PDF in the \"file\" form field", http.StatusBadRequest)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, apperror.Wrap(err, apperror.ErrFileTooLarge)
		}
		return nil, apperror.Wrap(err, apperror.ErrBadRequest)
	}
	return data, nil
}

func writeDocument(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func compressHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		start := time.Now()

		input, err := readUpload(w, r, cfg.MaxUploadSize)
		if err != nil {
			metrics.RecordTransform("compress", "error", time.Since(start).Seconds())
			apperror.WriteJSON(w, r, err)
			return
		}

		tier := compress.TierHigh
		if v := r.FormValue("quality"); v != "" {
			tier, err = compress.ParseTier(v)
			if err != nil {
				metrics.RecordTransform("compress", "error", time.Since(start).Seconds())
				apperror.WriteJSON(w, r, apperror.WrapWithMessage(err, apperror.ErrInvalidInput.Code,
					fmt.Sprintf("unknown quality %q, expected low, medium or high", v),
					apperror.ErrInvalidInput.StatusCode))
				return
			}
		}

		opts := compress.Options{
			PreserveMetadata: r.FormValue("preserveMetadata") == "true",
			SubsetFonts:      r.FormValue("subsetFonts") == "true",
		}

		log.Info("compress requested", "size", len(input), "quality", tier.String())

		output, result, err := cfg.Compressor.Compress(r.Context(), input, tier, opts)
		if err != nil {
			log.Error("compress failed", "error", err)
			metrics.RecordTransform("compress", "error", time.Since(start).Seconds())
			apperror.WriteJSON(w, r, err)
			return
		}

		metrics.RecordTransform("compress", "success", time.Since(start).Seconds())
		metrics.RecordTransformBytes("compress", result.OriginalSize, result.CompressedSize)
		metrics.RecordCompression(result.TierUsed, result.RatioPercent)
		if result.TierUsed == "none" {
			metrics.RecordCompressionFallback()
		}

		log.Info("compress completed",
			"original_size", result.OriginalSize,
			"compressed_size", result.CompressedSize,
			"ratio_percent", result.RatioPercent,
			"tier_used", result.TierUsed,
		)

		resultJSON, _ := json.Marshal(result)
		w.Header().Set("X-Compression-Result", string(resultJSON))
		writeDocument(w, output, "compressed.pdf")
	}
}

type cropRequest struct {
	Mode       string           `json:"mode"`
	Rectangles []crop.Rectangle `json:"rectangles"`
}

func cropHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		start := time.Now()

		input, err := readUpload(w, r, cfg.MaxUploadSize)
		if err != nil {
			metrics.RecordTransform("crop", "error", time.Since(start).Seconds())
			apperror.WriteJSON(w, r, err)
			return
		}

		optionsJSON := r.FormValue("options")
		if optionsJSON == "" {
			metrics.RecordTransform("crop", "error", time.Since(start).Seconds())
			apperror.WriteJSON(w, r, apperror.WrapWithMessage(nil, "missing_options",
				"Please supply crop options as JSON in the \"options\" form field", http.StatusBadRequest))
			return
		}

		var req cropRequest
		if err := json.Unmarshal([]byte(optionsJSON), &req); err != nil {
			metrics.RecordTransform("crop", "error", time.Since(start).Seconds())
			apperror.WriteJSON(w, r, apperror.WrapWithMessage(err, apperror.ErrInvalidInput.Code,
				"Invalid JSON in the \"options\" form field", apperror.ErrInvalidInput.StatusCode))
			return
		}

		mode := crop.ModeSingle
		if req.Mode != "" {
			mode, err = crop.ParseMode(req.Mode)
			if err != nil {
				metrics.RecordTransform("crop", "error", time.Since(start).Seconds())
				apperror.WriteJSON(w, r, apperror.WrapWithMessage(err, apperror.ErrInvalidInput.Code,
					fmt.Sprintf("unknown mode %q, expected single, multiple or all", req.Mode),
					apperror.ErrInvalidInput.StatusCode))
				return
			}
		}

		log.Info("crop requested", "size", len(input), "mode", string(mode), "rectangles", len(req.Rectangles))

		output, results, err := cfg.Cropper.Crop(r.Context(), input, mode, req.Rectangles)
		if err != nil {
			log.Error("crop failed", "error", err)
			metrics.RecordTransform("crop", "error", time.Since(start).Seconds())
			apperror.WriteJSON(w, r, err)
			return
		}

		metrics.RecordTransform("crop", "success", time.Since(start).Seconds())
		metrics.RecordTransformBytes("crop", int64(len(input)), int64(len(output)))
		metrics.RecordPagesCropped(len(results))

		log.Info("crop completed", "pages_cropped", len(results))

		resultsJSON, _ := json.Marshal(results)
		w.Header().Set("X-Crop-Results", string(resultsJSON))
		writeDocument(w, output, "cropped.pdf")
	}
}
