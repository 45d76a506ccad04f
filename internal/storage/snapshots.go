package storage

import "github.com/aura-labs/aura/internal/monitor"

// SnapshotWriter is the interface for persisting metrics snapshots.
// Write() must NEVER block the caller: a storage stall or failure must
// not delay or break metric sampling.
type SnapshotWriter interface {
	Write(snap *monitor.MetricsSnapshot)
	Close()
}
