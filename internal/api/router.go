package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/chread"
	"github.com/aura-labs/aura/internal/config"
	"github.com/aura-labs/aura/internal/monitor"
	"github.com/aura-labs/aura/internal/store"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Session *monitor.Session
	Config  *config.Manager
	Store   *store.Store
	Reader  *chread.Reader // nil if ClickHouse unavailable
	Hub     *Hub
	Logger  *zap.Logger
	// APIToken, when non-empty, gates mutating endpoints behind a
	// bearer token check.
	APIToken string
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()
	guard := deps.authMiddleware()

	mux.HandleFunc("GET /api/status", deps.handleStatus)
	mux.HandleFunc("GET /api/metrics", deps.handleMetrics)
	mux.HandleFunc("GET /api/history", deps.handleHistory)
	mux.HandleFunc("GET /api/sunburn", deps.handleSunburn)
	mux.HandleFunc("GET /api/postmortem", deps.handlePostmortem)
	mux.HandleFunc("GET /api/recovery", deps.handleRecovery)

	mux.HandleFunc("POST /api/panic", guard(deps.handlePanic))
	mux.HandleFunc("POST /api/recalibrate", guard(deps.handleRecalibrate))
	mux.HandleFunc("POST /api/grayscale", guard(deps.handleGrayscale))

	mux.HandleFunc("GET /api/config", deps.handleGetConfig)
	mux.HandleFunc("POST /api/config", guard(deps.handleUpdateConfig))

	mux.HandleFunc("GET /api/todos", deps.handleListTodos)
	mux.HandleFunc("POST /api/todos", guard(deps.handleCreateTodo))
	mux.HandleFunc("PATCH /api/todos/{todo_id}", guard(deps.handleUpdateTodo))
	mux.HandleFunc("DELETE /api/todos/{todo_id}", guard(deps.handleDeleteTodo))

	mux.HandleFunc("POST /api/events", guard(deps.handleIngestEvents))
	mux.HandleFunc("GET /api/stream", deps.handleStream)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(instrument(mux), deps.Logger))
}
