// Package chread provides read access to the fatigue_metrics
// time-series in ClickHouse: history for the dashboard chart plus the
// sunburn and postmortem reports.
package chread

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const historyRowLimit = 500

// Reader provides read queries over the fatigue_metrics table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// HistoryRow is one historical sample for the dashboard chart.
type HistoryRow struct {
	Timestamp         time.Time `json:"ts"`
	FatigueScore      float64   `json:"fatigue_score"`
	LatencyStdMs      float64   `json:"latency_std"`
	SwitchesPerMinute float64   `json:"context_switches_per_min"`
	FuelGauge         float64   `json:"fuel_gauge"`
}

// History returns snapshots from the last hoursBack hours, newest first,
// capped at 500 rows. hoursBack is clamped to [1, 168].
func (r *Reader) History(ctx context.Context, hoursBack int) ([]HistoryRow, error) {
	if hoursBack < 1 {
		hoursBack = 1
	}
	if hoursBack > 168 {
		hoursBack = 168
	}

	rows, err := r.conn.Query(ctx,
		"SELECT ts, fatigue_score, latency_std_ms, context_switches_per_min, fuel_gauge "+
			"FROM fatigue_metrics "+
			"WHERE ts >= @start "+
			"ORDER BY ts DESC "+
			"LIMIT @limit",
		clickhouse.Named("start", time.Now().UTC().Add(-time.Duration(hoursBack)*time.Hour)),
		clickhouse.Named("limit", uint32(historyRowLimit)),
	)
	if err != nil {
		return nil, fmt.Errorf("History query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.Timestamp, &h.FatigueScore, &h.LatencyStdMs, &h.SwitchesPerMinute, &h.FuelGauge); err != nil {
			return nil, fmt.Errorf("History scan: %w", err)
		}
		out = append(out, h)
	}
	if out == nil {
		out = []HistoryRow{}
	}
	return out, rows.Err()
}

// SunburnReport predicts tomorrow's productivity loss from today's
// overwork pattern.
type SunburnReport struct {
	PredictedLossPct  float64 `json:"predicted_loss_pct"`
	AvgFatigueToday   float64 `json:"avg_fatigue_today"`
	SessionHoursToday float64 `json:"session_hours_today"`
	PanicUsesToday    int     `json:"panic_uses_today"`
	Message           string  `json:"message,omitempty"`
}

// Sunburn aggregates today's non-baseline samples into a predicted
// productivity loss. The caller supplies dayStart so the time series
// and the relational panic count share one day boundary; panicCount
// comes from the relational store since panic events are not part of
// the time series.
func (r *Reader) Sunburn(ctx context.Context, dayStart time.Time, panicCount int) (*SunburnReport, error) {
	var avgFatigue float64
	var samples uint64
	var firstTs, lastTs time.Time
	err := r.conn.QueryRow(ctx,
		"SELECT coalesce(avg(fatigue_score), 0), count(), "+
			"coalesce(min(ts), toDateTime64(0, 3)), coalesce(max(ts), toDateTime64(0, 3)) "+
			"FROM fatigue_metrics "+
			"WHERE ts >= @day_start AND is_baseline = 0",
		clickhouse.Named("day_start", dayStart),
	).Scan(&avgFatigue, &samples, &firstTs, &lastTs)
	if err != nil {
		return nil, fmt.Errorf("Sunburn: %w", err)
	}

	if samples < 10 {
		return &SunburnReport{Message: "Not enough data today"}, nil
	}

	hours := lastTs.Sub(firstTs).Hours()
	loss := 0.0
	if hours > 6 && avgFatigue > 50 {
		loss += math.Min(15, (hours-6)*2)
	}
	if avgFatigue > 70 {
		loss += math.Min(20, (avgFatigue-70)*0.5)
	}
	loss += float64(panicCount) * 5

	return &SunburnReport{
		PredictedLossPct:  round1(math.Min(40, loss)),
		AvgFatigueToday:   round1(avgFatigue),
		SessionHoursToday: round1(hours),
		PanicUsesToday:    panicCount,
	}, nil
}

// PostmortemDay summarizes one day of activity.
type PostmortemDay struct {
	Date        string  `json:"date"`
	Keystrokes  int     `json:"keystrokes"`
	HoursWorked float64 `json:"hours_worked"`
	KPM         float64 `json:"kpm"`
	AvgFatigue  float64 `json:"avg_fatigue"`
}

// Postmortem returns per-day keystrokes, hours worked, keystrokes per
// minute and average fatigue over the last days days (clamped 1–7),
// newest day first.
func (r *Reader) Postmortem(ctx context.Context, days int) ([]PostmortemDay, error) {
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}

	rows, err := r.conn.Query(ctx,
		"SELECT toDate(ts) AS d, max(total_keystrokes) AS keys, "+
			"min(ts) AS first_ts, max(ts) AS last_ts, avg(fatigue_score) AS avg_fatigue "+
			"FROM fatigue_metrics "+
			"WHERE ts >= @start "+
			"GROUP BY d ORDER BY d DESC",
		clickhouse.Named("start", time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)),
	)
	if err != nil {
		return nil, fmt.Errorf("Postmortem query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PostmortemDay
	for rows.Next() {
		var day time.Time
		var keys uint32
		var firstTs, lastTs time.Time
		var avgFatigue float64
		if err := rows.Scan(&day, &keys, &firstTs, &lastTs, &avgFatigue); err != nil {
			return nil, fmt.Errorf("Postmortem scan: %w", err)
		}

		hours := lastTs.Sub(firstTs).Hours()
		kpm := 0.0
		if hours > 0.1 {
			kpm = (float64(keys) / 60) / hours
		}
		out = append(out, PostmortemDay{
			Date:        day.Format("2006-01-02"),
			Keystrokes:  int(keys),
			HoursWorked: round2(hours),
			KPM:         round1(kpm),
			AvgFatigue:  round1(safeFloat(avgFatigue)),
		})
	}
	if out == nil {
		out = []PostmortemDay{}
	}
	return out, rows.Err()
}

// safeFloat replaces NaN/Inf with 0.0.
// ClickHouse returns NaN for avg() on empty result sets.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func round2(f float64) float64 { return math.Round(f*100) / 100 }
