package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"aura-backend/internal/export"
	"aura-backend/internal/insights"
	"aura-backend/internal/metrics"
	"aura-backend/internal/models"
	"aura-backend/internal/normalize"
	"aura-backend/internal/profile"
	"aura-backend/internal/report"
	"aura-backend/internal/state"
	"aura-backend/internal/usage"
)

// Analyze computes the metric set of the caller's dataset
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.dataset(w, r)
	if !ok {
		return
	}
	df := sess.Frame
	ms := metrics.Compute(df, normalize.Infer(df))

	h.record(usage.KindAnalyze, map[string]any{"session_id": sess.ID, "rows": df.Len()})
	writeJSON(w, http.StatusOK, models.AnalyzeResponse{
		Status:   "ok",
		Contract: metrics.Contract(),
		Metrics:  ms,
		Ingest:   sess.Info,
		Profile:  profile.Columns(df),
		Coercion: sess.Coercion,
	})
}

// Insights evaluates the threshold rules over the caller's dataset
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.dataset(w, r)
	if !ok {
		return
	}
	df := sess.Frame
	ins := insights.Derive(df, metrics.Compute(df, normalize.Infer(df)))

	h.record(usage.KindInsights, map[string]any{"session_id": sess.ID, "count": len(ins)})
	writeJSON(w, http.StatusOK, models.InsightsResponse{Status: "ok", Count: len(ins), Insights: ins})
}

// Report renders the dataset report as markdown (default), html or pdf
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "md"
	}
	if format != "md" && format != "html" && format != "pdf" {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Unknown report format %q (want md, html or pdf)", format))
		return
	}

	sess, ok := h.dataset(w, r)
	if !ok {
		return
	}
	rep := h.Assembler.DatasetReport(sess.Frame)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "md":
		body = []byte(report.Markdown(rep))
		contentType = "text/markdown; charset=utf-8"
	case "html", "pdf":
		html, err := report.HTML(rep)
		if err != nil {
			h.writeError(w, err)
			return
		}
		body, contentType = []byte(html), "text/html; charset=utf-8"
		if format == "pdf" {
			if h.PDF == nil {
				h.writeError(w, fmt.Errorf("%w: no renderer configured", report.ErrRendererUnavailable))
				return
			}
			pdf, err := h.PDF.Render(r.Context(), html)
			if err != nil {
				h.writeError(w, err)
				return
			}
			body, contentType = pdf, "application/pdf"
			w.Header().Set("Content-Disposition", `attachment; filename="aura-report.pdf"`)
		}
	}

	h.record(usage.KindReport, map[string]any{"session_id": sess.ID, "format": format})
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ExportMetrics streams the metric snapshot as a Parquet file
func (h *Handler) ExportMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.dataset(w, r)
	if !ok {
		return
	}
	df := sess.Frame
	ms := metrics.Compute(df, normalize.Infer(df))
	records := export.ConvertMetrics(sess.ID, df.Source, ms, h.now())

	var buf bytes.Buffer
	if err := export.WriteMetrics(&buf, records); err != nil {
		h.writeError(w, err)
		return
	}

	h.record(usage.KindExport, map[string]any{"session_id": sess.ID, "format": "parquet"})
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", `attachment; filename="metrics.parquet"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Run assembles the validated multi-domain report. It works without a dataset.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var df *state.DataFrame
	id := sessionID(r)
	if sess, ok := h.Sessions.Get(id); ok {
		df = sess.Frame
	}

	rep, err := h.Assembler.Assemble(r.Context(), df)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.record(usage.KindRun, map[string]any{"session_id": id, "report_id": rep.ID, "passed": rep.ValidatorScorecard.Passed})
	writeJSON(w, http.StatusOK, rep)
}

// UsageCounts aggregates the usage log per event kind
func (h *Handler) UsageCounts(w http.ResponseWriter, r *http.Request) {
	if h.Usage == nil {
		writeJSON(w, http.StatusOK, models.UsageResponse{Status: "ok", Counts: map[string]int{}})
		return
	}
	counts, total, err := h.Usage.Counts()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UsageResponse{Status: "ok", Total: total, Counts: counts})
}
