package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/config"
	"github.com/aura-labs/aura/internal/monitor"
)

type stubPersist struct{}

func (stubPersist) AppendSnapshot(*monitor.MetricsSnapshot) {}

func (stubPersist) AppendPanicEvent(context.Context, time.Time) error { return nil }

func (stubPersist) SaveBaseline(context.Context, monitor.BaselineProfile) error { return nil }

type stubDisplay struct{ on bool }

func (d *stubDisplay) SetGrayscale(_ context.Context, enable bool) error {
	d.on = enable
	return nil
}

type stubWebhook struct{}

func (stubWebhook) PostJSON(context.Context, string, any) error { return nil }

func newTestRouter(t *testing.T, token string) (http.Handler, *Dependencies) {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.NewManager(context.Background(), nil, logger)
	session := monitor.NewSession(monitor.SessionConfig{
		Settings:    cfg,
		Persistence: stubPersist{},
		Display:     &stubDisplay{},
		Webhook:     stubWebhook{},
		Logger:      logger,
	})
	deps := &Dependencies{
		Session:  session,
		Config:   cfg,
		Hub:      NewHub(logger),
		Logger:   logger,
		APIToken: token,
	}
	return NewRouter(deps), deps
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_Status(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodGet, "/api/status", "", nil)

	var resp StatusResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Monitor != "running" {
		t.Errorf("unexpected status body: %+v", resp)
	}
}

func TestRouter_MetricsReturnsSnapshot(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodGet, "/api/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Fresh session: calibration gates the score.
	if body["is_baseline_mode"] != true {
		t.Error("expected baseline mode on a fresh session")
	}
	if body["fatigue_score"] != float64(0) || body["fuel_gauge"] != float64(100) {
		t.Errorf("expected gated score, got %v / %v", body["fatigue_score"], body["fuel_gauge"])
	}
}

func TestRouter_PanicOpensWindow(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodPost, "/api/panic", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp PanicResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "panic_activated" {
		t.Errorf("unexpected status %q", resp.Status)
	}
	if until := time.Until(resp.PanicUntil); until < 14*time.Minute || until > 16*time.Minute {
		t.Errorf("expected ~15 minute window, got %v", until)
	}
}

func TestRouter_ConfigRoundTrip(t *testing.T) {
	h, _ := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/config", "", nil)
	var got config.Settings
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EnforcementLevel != "medium" {
		t.Errorf("expected default enforcement, got %q", got.EnforcementLevel)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/config",
		`{"enforcement_level":"high","baseline_minutes":90}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EnforcementLevel != "high" || got.BaselineMinutes != 60 {
		t.Errorf("expected applied+clamped settings, got %+v", got)
	}
}

func TestRouter_ConfigRejectsBadEnforcement(t *testing.T) {
	h, deps := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodPost, "/api/config", `{"enforcement_level":"extreme"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if deps.Config.Snapshot().EnforcementLevel != "medium" {
		t.Error("expected settings untouched after rejection")
	}
}

func TestRouter_GrayscaleManualToggle(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodPost, "/api/grayscale", `{"enable":true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp GrayscaleResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.GrayscaleOn {
		t.Error("expected grayscale on")
	}
}

func TestRouter_EventsIngestSkipsUnknownKinds(t *testing.T) {
	h, _ := newTestRouter(t, "")
	body := `[
		{"kind":"key_down","key":"a"},
		{"kind":"scroll"},
		{"kind":"telepathy"}
	]`
	rec := doJSON(t, h, http.MethodPost, "/api/events", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp IngestEventsResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Accepted != 2 || resp.Skipped != 1 {
		t.Errorf("expected 2 accepted / 1 skipped, got %+v", resp)
	}
}

func TestRouter_HistoryUnavailableWithoutClickHouse(t *testing.T) {
	h, _ := newTestRouter(t, "")
	for _, path := range []string{"/api/history", "/api/sunburn", "/api/postmortem"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

func TestRouter_RecoveryReturnsPrescriptions(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodGet, "/api/recovery", "", nil)

	var resp RecoveryResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Prescriptions) == 0 {
		t.Error("expected at least one prescription")
	}
}

func TestRouter_BearerAuthGatesMutations(t *testing.T) {
	h, _ := newTestRouter(t, "sekrit")

	if rec := doJSON(t, h, http.MethodPost, "/api/panic", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	hdr := map[string]string{"Authorization": "Bearer wrong"}
	if rec := doJSON(t, h, http.MethodPost, "/api/panic", "", hdr); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}

	hdr["Authorization"] = "Bearer sekrit"
	if rec := doJSON(t, h, http.MethodPost, "/api/panic", "", hdr); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}

	// Read endpoints stay open.
	if rec := doJSON(t, h, http.MethodGet, "/api/metrics", "", nil); rec.Code != http.StatusOK {
		t.Errorf("expected open read endpoint, got %d", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodOptions, "/api/metrics", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on preflight")
	}
}
