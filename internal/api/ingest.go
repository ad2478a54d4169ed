package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"aura-backend/internal/ingest"
	"aura-backend/internal/models"
	"aura-backend/internal/state"
	"aura-backend/internal/usage"

	"github.com/go-chi/chi/v5"
)

// Ingest accepts a multipart CSV or JSON upload in field "file"
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.MaxFileSize {
		writeDetail(w, http.StatusBadRequest, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxFileSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusBadRequest, "File too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "Expected a multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	uploadID := h.newUploadID()
	if _, err := h.Uploads.Save(uploadID, header.Filename, raw); err != nil {
		h.writeError(w, err)
		return
	}

	df, err := ingest.Decode(header.Filename, raw)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// the session only changes once the upload is fully recorded
	if err := h.Uploads.MarkIngested(uploadID); err != nil {
		h.writeError(w, err)
		return
	}
	info := h.store(w, r, df, uploadID)
	h.record(usage.KindIngest, map[string]any{"session_id": info.SessionID, "source": info.Source, "rows": info.Rows, "upload_id": uploadID})
	writeJSON(w, http.StatusOK, models.IngestResponse{Status: "ok", Ingested: info})
}

// IngestSample loads the configured sample dataset
func (h *Handler) IngestSample(w http.ResponseWriter, r *http.Request) {
	df, err := ingest.LoadSample(h.SamplePath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	info := h.store(w, r, df, "")
	h.record(usage.KindIngest, map[string]any{"session_id": info.SessionID, "source": info.Source, "rows": info.Rows, "sample": true})
	writeJSON(w, http.StatusOK, models.IngestResponse{Status: "ok", Ingested: info})
}

// IngestDB reads one table from a configured database source
func (h *Handler) IngestDB(w http.ResponseWriter, r *http.Request) {
	if !h.DBIngestEnabled {
		writeDetail(w, http.StatusForbidden, "Database ingest is disabled")
		return
	}
	var req models.DBIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Source == "" || req.Table == "" {
		writeDetail(w, http.StatusBadRequest, "source and table are required")
		return
	}
	src, ok := h.DBSources[strings.ToLower(req.Source)]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Unknown database source")
		return
	}

	df, err := ingest.ReadDatabase(r.Context(), src, req.Table, req.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	info := h.store(w, r, df, "")
	h.record(usage.KindIngest, map[string]any{"session_id": info.SessionID, "source": info.Source, "rows": info.Rows, "db_source": req.Source})
	writeJSON(w, http.StatusOK, models.IngestResponse{Status: "ok", Ingested: info})
}

// MarkUpload writes the ingest marker for an upload id
func (h *Handler) MarkUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	if err := h.Uploads.MarkIngested(uploadID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"upload_id": uploadID, "status": "saved"})
}

// store normalizes a raw frame into the caller's session and echoes the session id
func (h *Handler) store(w http.ResponseWriter, r *http.Request, raw *state.DataFrame, uploadID string) models.IngestInfo {
	df, coercion := h.Normalizer.Normalize(raw)
	id := sessionID(r)

	info := models.IngestInfo{
		Rows:      df.Len(),
		Cols:      append([]string{}, df.Headers...),
		Source:    df.Source,
		SessionID: id,
		UploadID:  uploadID,
	}
	h.Sessions.Put(id, df, info, coercion.Summary())

	w.Header().Set(SessionHeader, id)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	h.log.Info("dataset ingested", "session_id", id, "source", info.Source, "rows", info.Rows, "coerced", coercion.Count)
	return info
}
