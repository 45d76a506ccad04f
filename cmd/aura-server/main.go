package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-labs/aura/internal/api"
	"github.com/aura-labs/aura/internal/chread"
	"github.com/aura-labs/aura/internal/config"
	"github.com/aura-labs/aura/internal/display"
	"github.com/aura-labs/aura/internal/focus"
	"github.com/aura-labs/aura/internal/ingest/mqttingest"
	"github.com/aura-labs/aura/internal/monitor"
	"github.com/aura-labs/aura/internal/notify"
	"github.com/aura-labs/aura/internal/storage"
	"github.com/aura-labs/aura/internal/store"
)

func main() {
	// Local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	logger := mustBuildLogger(envOrDefault("AURA_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	httpPort := envOrDefault("AURA_HTTP_PORT", "8000")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	mqttBroker := os.Getenv("AURA_MQTT_BROKER")
	grayscaleCmd := os.Getenv("AURA_GRAYSCALE_CMD")
	focusCmd := os.Getenv("AURA_FOCUS_CMD")
	apiToken := os.Getenv("AURA_API_TOKEN")
	pollSeconds := envOrDefaultInt("AURA_FOCUS_POLL_S", 3)

	logger.Info("starting aura server",
		zap.String("http_port", httpPort),
		zap.Bool("clickhouse", clickhouseDSN != ""),
		zap.Bool("mqtt", mqttBroker != ""),
	)

	if postgresDSN == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}

	// Postgres — settings, baseline profiles, panic events, todos
	db, err := sql.Open("pgx", postgresDSN)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(context.Background()); err != nil {
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}
	pgStore := store.NewStore(db)
	if err := pgStore.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("failed to ensure postgres schema", zap.Error(err))
	}
	logger.Info("postgres connected")

	// Runtime settings, hot-reloadable through the config API
	cfgManager := config.NewManager(context.Background(), pgStore, logger)

	// Snapshot sink — ClickHouse or LogWriter fallback
	var writer storage.SnapshotWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer", zap.Error(err))
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// ClickHouse reader (history and report endpoints)
	var chReader *chread.Reader
	if clickhouseDSN != "" {
		chReader, err = chread.NewReader(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
		} else {
			defer func() { _ = chReader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	// Display filter toggler
	var toggler monitor.GrayscaleToggler
	if grayscaleCmd != "" {
		parts := strings.Fields(grayscaleCmd)
		toggler = display.NewCommandToggler(parts[0], parts[1:], logger)
	} else {
		toggler = display.NewNoopToggler(logger)
	}

	// Focus poller, only when a title command is configured
	var focusProvider monitor.FocusProvider
	if focusCmd != "" {
		parts := strings.Fields(focusCmd)
		focusProvider = focus.NewCommandProvider(parts[0], parts[1:])
	}

	// Previously calibrated baseline; absence means the session starts
	// in calibration mode.
	baseline, err := pgStore.LoadLatestBaseline(context.Background())
	if err != nil {
		logger.Warn("failed to load baseline, starting calibration", zap.Error(err))
		baseline = nil
	}

	session := monitor.NewSession(monitor.SessionConfig{
		Settings:     cfgManager,
		Persistence:  &persistence{writer: writer, store: pgStore},
		Display:      toggler,
		Webhook:      notify.NewWebhookClient(logger),
		Focus:        focusProvider,
		Baseline:     baseline,
		PollInterval: time.Duration(pollSeconds) * time.Second,
		Logger:       logger,
		OnAutoGrayscale: func(ctx context.Context) {
			cfgManager.SetGrayscaleEnabled(ctx, true)
		},
	})
	session.Start()
	defer session.Shutdown()

	// MQTT capture ingest
	if mqttBroker != "" {
		ingestor, err := mqttingest.NewIngestor(mqttingest.Config{
			Broker:   mqttBroker,
			ClientID: envOrDefault("AURA_MQTT_CLIENT_ID", "aura-server"),
			Username: os.Getenv("AURA_MQTT_USERNAME"),
			Password: os.Getenv("AURA_MQTT_PASSWORD"),
		}, session, logger)
		if err != nil {
			logger.Error("mqtt ingest unavailable", zap.Error(err))
		} else {
			defer ingestor.Close()
		}
	}

	deps := &api.Dependencies{
		Session:  session,
		Config:   cfgManager,
		Store:    pgStore,
		Reader:   chReader,
		Hub:      api.NewHub(logger),
		Logger:   logger,
		APIToken: apiToken,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("aura server stopped")
}

// persistence bridges the session's write side to the snapshot sink
// and the Postgres store.
type persistence struct {
	writer storage.SnapshotWriter
	store  *store.Store
}

func (p *persistence) AppendSnapshot(s *monitor.MetricsSnapshot) {
	p.writer.Write(s)
}

func (p *persistence) AppendPanicEvent(ctx context.Context, at time.Time) error {
	return p.store.AppendPanicEvent(ctx, at)
}

func (p *persistence) SaveBaseline(ctx context.Context, b monitor.BaselineProfile) error {
	return p.store.SaveBaseline(ctx, b)
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
