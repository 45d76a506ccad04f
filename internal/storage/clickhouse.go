package storage

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/monitor"
)

const (
	bufferSize    = 4096
	flushInterval = 500 * time.Millisecond
	flushBatch    = 200
	drainTimeout  = 2 * time.Second
)

const metricsSchema = `
CREATE TABLE IF NOT EXISTS fatigue_metrics (
	snapshot_id              String,
	ts                       DateTime64(3),
	fatigue_score            Float64,
	fuel_gauge               Float64,
	latency_std_ms           Float64,
	latency_mean_ms          Float64,
	error_rate               Float64,
	total_keystrokes         UInt32,
	backspace_count          UInt32,
	hold_mean_ms             Float64,
	hold_std_ms              Float64,
	context_switches_per_min Float64,
	scroll_rate_per_min      Float64,
	scroll_trap              UInt8,
	idle_minutes             Float64,
	idle_detected            UInt8,
	last_window              String,
	cognitive_load_label     LowCardinality(String),
	cognitive_load           Float64,
	is_baseline              UInt8,
	session_minutes          Float64,
	time_of_day_factor       Float64,
	panic_active             UInt8,
	sludge_active            UInt8,
	grayscale_on             UInt8
) ENGINE = MergeTree()
ORDER BY ts
TTL toDateTime(ts) + INTERVAL 90 DAY
`

// ClickHouseWriter persists metrics snapshots asynchronously.
// Write() is non-blocking; snapshots are buffered and batch-inserted by
// a background goroutine.
type ClickHouseWriter struct {
	conn    driver.Conn
	buffer  chan *monitor.MetricsSnapshot
	done    chan struct{}
	flushed chan struct{} // closed by flushLoop when it returns
	logger  *zap.Logger
}

// NewClickHouseWriter opens the connection, ensures the metrics table
// exists, and starts the background flush loop.
func NewClickHouseWriter(dsn string, logger *zap.Logger) (*ClickHouseWriter, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, metricsSchema); err != nil {
		return nil, err
	}

	w := &ClickHouseWriter{
		conn:    conn,
		buffer:  make(chan *monitor.MetricsSnapshot, bufferSize),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
		logger:  logger,
	}

	go w.flushLoop()
	return w, nil
}

// Write queues a snapshot for async insertion.
// Non-blocking: drops the snapshot if the buffer is full.
func (w *ClickHouseWriter) Write(snap *monitor.MetricsSnapshot) {
	select {
	case w.buffer <- snap:
	default:
		w.logger.Warn("clickhouse buffer full, dropping snapshot",
			zap.String("snapshot_id", snap.ID),
		)
	}
}

// Close signals the flush loop to drain remaining snapshots, waits for
// it to finish (up to drainTimeout), and then returns. Safe to call once.
func (w *ClickHouseWriter) Close() {
	close(w.done)
	<-w.flushed
}

func (w *ClickHouseWriter) flushLoop() {
	defer close(w.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*monitor.MetricsSnapshot, 0, flushBatch)

	for {
		select {
		case snap := <-w.buffer:
			batch = append(batch, snap)
			if len(batch) >= flushBatch {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-w.done:
			// Drain remaining snapshots from buffer
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case snap := <-w.buffer:
					batch = append(batch, snap)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			if len(batch) > 0 {
				w.flush(batch)
			}
			return
		}
	}
}

func (w *ClickHouseWriter) flush(snaps []*monitor.MetricsSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO fatigue_metrics (
			snapshot_id, ts, fatigue_score, fuel_gauge,
			latency_std_ms, latency_mean_ms, error_rate,
			total_keystrokes, backspace_count,
			hold_mean_ms, hold_std_ms,
			context_switches_per_min, scroll_rate_per_min, scroll_trap,
			idle_minutes, idle_detected,
			last_window, cognitive_load_label, cognitive_load,
			is_baseline, session_minutes, time_of_day_factor,
			panic_active, sludge_active, grayscale_on
		)
	`)
	if err != nil {
		w.logger.Error("clickhouse prepare batch failed", zap.Error(err))
		return
	}

	for _, s := range snaps {
		if err := batch.Append(
			s.ID,
			s.Timestamp,
			s.FatigueScore,
			s.FuelGauge,
			s.LatencyStdMs,
			s.LatencyMeanMs,
			s.ErrorRateProxy,
			uint32(s.TotalKeystrokes),
			uint32(s.BackspaceCount),
			s.HoldMeanMs,
			s.HoldStdMs,
			s.SwitchesPerMinute,
			s.ScrollRatePerMinute,
			boolToUint8(s.MicroScrollTrap),
			s.IdleMinutes,
			boolToUint8(s.IdleDetected),
			s.LastWindow,
			s.CognitiveLoadLabel,
			s.CognitiveLoadIndex,
			boolToUint8(s.IsBaselineMode),
			s.SessionActiveMinutes,
			s.TimeOfDayFactor,
			boolToUint8(s.PanicOverrideActive),
			boolToUint8(s.SludgeActive),
			boolToUint8(s.GrayscaleOn),
		); err != nil {
			w.logger.Error("clickhouse append snapshot failed",
				zap.String("snapshot_id", s.ID),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		w.logger.Error("clickhouse batch send failed",
			zap.Int("batch_size", len(snaps)),
			zap.Error(err),
		)
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// LogWriter is a fallback SnapshotWriter for local development.
// It logs snapshots as structured fields to stdout via zap.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter that outputs snapshots to the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(snap *monitor.MetricsSnapshot) {
	w.logger.Info("metrics_snapshot",
		zap.String("snapshot_id", snap.ID),
		zap.Float64("fatigue_score", snap.FatigueScore),
		zap.Float64("fuel_gauge", snap.FuelGauge),
		zap.Float64("latency_std_ms", snap.LatencyStdMs),
		zap.Float64("error_rate", snap.ErrorRateProxy),
		zap.Float64("switches_per_min", snap.SwitchesPerMinute),
		zap.Bool("is_baseline", snap.IsBaselineMode),
		zap.Bool("scroll_trap", snap.MicroScrollTrap),
		zap.Bool("idle", snap.IdleDetected),
		zap.String("last_window", snap.LastWindow),
	)
}

func (w *LogWriter) Close() {}
