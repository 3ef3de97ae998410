package monitor

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"tarun-kavipurapu/lanshare/pkg/logger"
)

// Direction of a recorded transfer.
type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Received {
		return "received"
	}
	return "sent"
}

// Metrics holds transfer counters for the process
type Metrics struct {
	BytesSent     atomic.Int64
	BytesReceived atomic.Int64
	FilesSent     atomic.Int64
	FilesReceived atomic.Int64
	Failures      atomic.Int64
	Start         time.Time
}

// Global metrics instance
var Global = &Metrics{
	Start: time.Now(),
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	BytesSent     int64
	BytesReceived int64
	FilesSent     int64
	FilesReceived int64
	Failures      int64
	Uptime        time.Duration
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		BytesSent:     m.BytesSent.Load(),
		BytesReceived: m.BytesReceived.Load(),
		FilesSent:     m.FilesSent.Load(),
		FilesReceived: m.FilesReceived.Load(),
		Failures:      m.Failures.Load(),
		Uptime:        time.Since(m.Start),
	}
}

// RecordTransfer records a completed transfer that started at start.
func RecordTransfer(dir Direction, bytes int64, start time.Time) {
	if dir == Received {
		Global.BytesReceived.Add(bytes)
		Global.FilesReceived.Add(1)
	} else {
		Global.BytesSent.Add(bytes)
		Global.FilesSent.Add(1)
	}

	duration := time.Since(start).Seconds()
	var speed float64
	if duration > 0 {
		speed = float64(bytes) / duration / 1024 / 1024
	}

	logger.Sugar.Infof("[Transfer] %s Size=%dKB | Duration=%.2fs | Speed=%.2fMB/s",
		dir, bytes/1024, duration, speed)
}

// RecordFailure counts an aborted transfer.
func RecordFailure() {
	Global.Failures.Add(1)
}

// LogPeriodic logs runtime metrics at the specified interval until ctx ends.
func LogPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		s := Global.Snapshot()
		var throughput float64
		if secs := s.Uptime.Seconds(); secs > 0 {
			throughput = float64(s.BytesSent+s.BytesReceived) / secs / 1024 / 1024
		}

		logger.Sugar.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | Throughput=%.2fMB/s | Sent=%d | Received=%d | Failed=%d",
			runtime.NumGoroutine(),
			m.HeapAlloc/1024/1024,
			throughput,
			s.FilesSent,
			s.FilesReceived,
			s.Failures,
		)
	}
}
