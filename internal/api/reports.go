package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

func (d *Dependencies) handleHistory(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	hours := queryInt(r.URL.Query(), "hours", 24)
	rows, err := d.Reader.History(r.Context(), hours)
	if err != nil {
		d.Logger.Error("failed to read history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to read history"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (d *Dependencies) handleSunburn(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	// One local-midnight boundary for both the panic count and the
	// metrics aggregate.
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	panicCount, err := d.Store.PanicCountSince(r.Context(), midnight)
	if err != nil {
		d.Logger.Warn("panic count unavailable", zap.Error(err))
		panicCount = 0
	}

	report, err := d.Reader.Sunburn(r.Context(), midnight, panicCount)
	if err != nil {
		d.Logger.Error("failed to build sunburn report", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to build sunburn report"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (d *Dependencies) handlePostmortem(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	days := queryInt(r.URL.Query(), "days", 7)
	report, err := d.Reader.Postmortem(r.Context(), days)
	if err != nil {
		d.Logger.Error("failed to build postmortem", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to build postmortem"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
