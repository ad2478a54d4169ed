package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aura-backend/internal/ingest"
	"aura-backend/internal/logging"
	"aura-backend/internal/models"
	"aura-backend/internal/normalize"
	"aura-backend/internal/report"
	"aura-backend/internal/state"
	"aura-backend/internal/usage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "aura_session"

	MaxFileSize = 100 * 1024 * 1024 // 100MB

	noDataDetail = "No data ingested yet"
)

// PDFRenderer prints an HTML document to PDF
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

type Handler struct {
	Sessions   *state.Store
	Normalizer *normalize.Normalizer
	Assembler  *report.Assembler
	Usage      *usage.Log
	Uploads    *usage.Uploads
	PDF        PDFRenderer

	// Metrics serves /metrics when set
	Metrics http.Handler

	SamplePath  string
	MaxFileSize int64

	// DBSources are the databases /ingest/db may read, keyed by lowercase
	// name. The route answers 403 unless DBIngestEnabled is set.
	DBIngestEnabled bool
	DBSources       map[string]ingest.DataSourceConfig

	log         *slog.Logger
	now         func() time.Time
	newUploadID func() string
}

func NewHandler(sessions *state.Store, usageLog *usage.Log, uploads *usage.Uploads, pdf PDFRenderer, samplePath string) *Handler {
	return &Handler{
		Sessions:    sessions,
		Normalizer:  normalize.NewNormalizer(),
		Assembler:   report.NewAssembler(),
		Usage:       usageLog,
		Uploads:     uploads,
		PDF:         pdf,
		SamplePath:  samplePath,
		MaxFileSize: MaxFileSize,
		log:         logging.New("api"),
		now:         time.Now,
		newUploadID: uuid.NewString,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	// Ingest
	r.Post("/ingest", h.Ingest)
	r.Post("/ingest/sample", h.IngestSample)
	r.Post("/ingest/db", h.IngestDB)
	r.Post("/ingest/{uploadID}", h.MarkUpload)
	r.Delete("/session", h.DeleteSession)

	// Pipeline
	r.Post("/analyze", h.Analyze)
	r.Get("/insights", h.Insights)
	r.Get("/report", h.Report)
	r.Get("/export/metrics.parquet", h.ExportMetrics)
	r.Get("/api/run", h.Run)

	// Admin
	r.Get("/admin/usage", h.UsageCounts)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// Sessions
// ============================================================================

// sessionID resolves the caller's session: header, then cookie, then the default session
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return state.DefaultSessionID
}

// dataset returns the caller's non-empty dataset or writes the 400 reply
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) (state.Session, bool) {
	sess, ok := h.Sessions.Get(sessionID(r))
	if !ok || sess.Frame.Len() == 0 {
		writeDetail(w, http.StatusBadRequest, noDataDetail)
		return state.Session{}, false
	}
	return sess, true
}

// DeleteSession drops the caller's dataset
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	deleted := h.Sessions.Delete(id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "session_id": id, "deleted": deleted})
}

// record appends a usage event; failures never fail the request
func (h *Handler) record(kind string, fields map[string]any) {
	if h.Usage == nil {
		return
	}
	if err := h.Usage.Append(kind, fields); err != nil {
		h.log.Warn("usage event not recorded", "kind", kind, "error", err)
	}
}

// ============================================================================
// Replies
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

// writeError maps error tiers onto HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ingestErr *ingest.IngestError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ingest.ErrSampleNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ingestErr), errors.Is(err, usage.ErrInvalidUploadID):
		status = http.StatusBadRequest
	case errors.Is(err, report.ErrRendererUnavailable):
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	writeDetail(w, status, err.Error())
}
