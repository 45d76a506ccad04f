package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/monitor"
)

func (d *Dependencies) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResp{Status: "ok", Monitor: "running"})
}

// handleMetrics produces a fresh snapshot. Sample applies interventions
// and the sludge delay before returning, so slow responses under high
// fatigue are intentional.
func (d *Dependencies) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := d.Session.Sample(r.Context())
	d.Hub.BroadcastSnapshot(snap)
	writeJSON(w, http.StatusOK, snap)
}

func (d *Dependencies) handlePanic(w http.ResponseWriter, r *http.Request) {
	until := d.Session.RequestPanic(r.Context())
	writeJSON(w, http.StatusOK, PanicResp{Status: "panic_activated", PanicUntil: until})
}

func (d *Dependencies) handleRecalibrate(w http.ResponseWriter, _ *http.Request) {
	d.Session.Recalibrate()
	set := d.Config.Snapshot()
	writeJSON(w, http.StatusOK, RecalibrateResp{
		Status:          "recalibrating",
		BaselineMinutes: set.BaselineMinutes,
	})
}

func (d *Dependencies) handleGrayscale(w http.ResponseWriter, r *http.Request) {
	var req GrayscaleReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if err := d.Session.SetGrayscaleManual(r.Context(), req.Enable); err != nil {
		d.Logger.Error("manual grayscale toggle failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: "Display command failed"})
		return
	}
	d.Config.SetGrayscaleEnabled(r.Context(), req.Enable)
	writeJSON(w, http.StatusOK, GrayscaleResp{GrayscaleOn: d.Session.GrayscaleOn()})
}

// handleRecovery reads the current state without side effects: no
// interventions, no persisted snapshot, no sludge delay.
func (d *Dependencies) handleRecovery(w http.ResponseWriter, r *http.Request) {
	snap := d.Session.Observe(r.Context())
	writeJSON(w, http.StatusOK, RecoveryResp{
		Prescriptions: monitor.RecoveryPrescriptions(snap),
		FatigueScore:  snap.FatigueScore,
	})
}

// handleIngestEvents accepts a capture batch over HTTP. Unknown kinds
// are counted and skipped rather than failing the batch.
func (d *Dependencies) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	var batch []IngestEventReq
	if err := readJSON(r, &batch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	received := time.Now()
	resp := IngestEventsResp{}
	for _, ev := range batch {
		kind, err := monitor.ParseEventKind(ev.Kind)
		if err != nil {
			resp.Skipped++
			continue
		}
		at := received
		if ev.TsMs > 0 {
			at = time.UnixMilli(ev.TsMs)
		}
		d.Session.Ingest(monitor.InputEvent{
			Kind:        kind,
			Key:         ev.Key,
			WindowTitle: ev.WindowTitle,
			At:          at,
		})
		resp.Accepted++
	}
	writeJSON(w, http.StatusOK, resp)
}
