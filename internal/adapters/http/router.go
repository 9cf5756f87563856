package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/legal-violation-analyzer/internal/config"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/ports"
	"github.com/kirillkom/legal-violation-analyzer/internal/observability/metrics"
)

const (
	filesField        = "files"
	multipartMemoryMB = 8
)

type Router struct {
	cfg      config.Config
	analyzer ports.DocumentAnalyzer
	metrics  *metrics.HTTPServerMetrics
}

// NewRouter builds the API surface. httpMetrics may be nil.
func NewRouter(cfg config.Config, analyzer ports.DocumentAnalyzer, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:      cfg,
		analyzer: analyzer,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/analyze-documents", rt.analyzeDocuments)
	mux.HandleFunc("/openapi.yaml", serveOpenAPI)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = recoverMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeResponse struct {
	Violations []domain.Violation `json:"violations"`
}

func (rt *Router) analyzeDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	start := time.Now()
	requestID := requestIDFromContext(r.Context())

	docs, err := rt.readUploads(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("upload_too_large", "request_id", requestID, "limit_bytes", tooLarge.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Upload exceeds size limit"})
			return
		}
		rt.writeAnalysisError(w, requestID, start, err)
		return
	}

	result, err := rt.analyzer.Analyze(r.Context(), domain.AnalysisRequest{
		ID:        requestID,
		Documents: docs,
	})
	if err != nil {
		rt.writeAnalysisError(w, requestID, start, err)
		return
	}

	violations := result.Violations
	if violations == nil {
		violations = []domain.Violation{}
	}
	rt.recordAnalysis(metrics.AnalysisOK, len(violations), time.Since(start))
	slog.Info("analysis_completed",
		"request_id", requestID,
		"documents", result.Documents,
		"violations", len(violations),
	)
	writeJSON(w, http.StatusOK, analyzeResponse{Violations: violations})
}

// readUploads returns the files under the "files" field in order. Parts without
// a filename are not uploads and are skipped.
func (rt *Router) readUploads(w http.ResponseWriter, r *http.Request) ([]domain.UploadedDocument, error) {
	if rt.cfg.MaxUploadMB > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(rt.cfg.MaxUploadMB)<<20)
	}
	if err := r.ParseMultipartForm(multipartMemoryMB << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, domain.ErrNoFiles
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse multipart", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[filesField]
	}

	docs := make([]domain.UploadedDocument, 0, len(headers))
	for _, header := range headers {
		if strings.TrimSpace(header.Filename) == "" {
			continue
		}
		content, err := readFileHeader(header)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
		}
		docs = append(docs, domain.UploadedDocument{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	if len(docs) == 0 {
		return nil, domain.ErrNoFiles
	}
	return docs, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (rt *Router) writeAnalysisError(w http.ResponseWriter, requestID string, start time.Time, err error) {
	mapped := mapAnalysisError(err)
	rt.recordAnalysis(mapped.outcome, 0, time.Since(start))

	attrs := []any{"request_id", requestID, "status", mapped.status, "error", err}
	if mapped.status >= http.StatusInternalServerError {
		slog.Error("analysis_failed", attrs...)
	} else {
		slog.Info("analysis_rejected", attrs...)
	}
	writeJSON(w, mapped.status, map[string]string{"error": mapped.message})
}

func (rt *Router) recordAnalysis(outcome string, violations int, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordAnalysis(outcome, violations, duration)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
