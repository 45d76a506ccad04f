package api

import "time"

// --- Session control ---

// StatusResp is the body for GET /api/status.
type StatusResp struct {
	Status  string `json:"status"`
	Monitor string `json:"monitor"`
}

// PanicResp is the body for POST /api/panic.
type PanicResp struct {
	Status     string    `json:"status"`
	PanicUntil time.Time `json:"panic_until"`
}

// RecalibrateResp is the body for POST /api/recalibrate.
type RecalibrateResp struct {
	Status          string `json:"status"`
	BaselineMinutes int    `json:"baseline_minutes"`
}

// GrayscaleReq is the JSON body for POST /api/grayscale.
type GrayscaleReq struct {
	Enable bool `json:"enable"`
}

// GrayscaleResp reports the manual toggle outcome.
type GrayscaleResp struct {
	GrayscaleOn bool `json:"grayscale_on"`
}

// RecoveryResp is the body for GET /api/recovery.
type RecoveryResp struct {
	Prescriptions []string `json:"prescriptions"`
	FatigueScore  float64  `json:"fatigue_score"`
}

// --- Todos ---

// CreateTodoReq is the JSON body for POST /api/todos.
type CreateTodoReq struct {
	Title  string `json:"title"`
	Effort int    `json:"effort"`
	Impact int    `json:"impact"`
}

// UpdateTodoReq is the JSON body for PATCH /api/todos/{id}.
type UpdateTodoReq struct {
	Done *bool `json:"done,omitempty"`
}

// --- Event ingest ---

// IngestEventReq is one capture-agent event in POST /api/events.
// Same shape the MQTT path accepts.
type IngestEventReq struct {
	Kind        string `json:"kind"`
	Key         string `json:"key,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	TsMs        int64  `json:"ts_ms,omitempty"`
}

// IngestEventsResp reports how many events were accepted.
type IngestEventsResp struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
