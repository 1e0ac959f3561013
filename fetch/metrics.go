package fetch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives fetch-level operational metrics. Implement it to
// integrate with a monitoring system; wire it in through Options.Metrics.
type MetricsCollector interface {
	// RecordFetch is called after each whole-sequence fetch.
	// bytes is the decoded sequence length, err is nil on success.
	RecordFetch(bytes int, duration time.Duration, err error)

	// RecordStream is called when a streamed fetch terminates, whether by
	// completion, error, or early consumer stop.
	RecordStream(bytes int, duration time.Duration, err error)

	// RecordRetry is called before each retry attempt.
	RecordRetry()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFetch(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordStream(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRetry()                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	FetchBytes       atomic.Int64
	FetchTotalNanos  atomic.Int64
	StreamCount      atomic.Int64
	StreamErrors     atomic.Int64
	StreamBytes      atomic.Int64
	StreamTotalNanos atomic.Int64
	RetryCount       atomic.Int64
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(int64(bytes))
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordStream implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStream(bytes int, duration time.Duration, err error) {
	b.StreamCount.Add(1)
	b.StreamBytes.Add(int64(bytes))
	b.StreamTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StreamErrors.Add(1)
	}
}

// RecordRetry implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetry() {
	b.RetryCount.Add(1)
}

// BasicMetricsStats is a point-in-time snapshot of a BasicMetricsCollector.
type BasicMetricsStats struct {
	FetchCount     int64
	FetchErrors    int64
	FetchBytes     int64
	FetchAvgNanos  int64
	StreamCount    int64
	StreamErrors   int64
	StreamBytes    int64
	StreamAvgNanos int64
	RetryCount     int64
}

// Stats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) Stats() BasicMetricsStats {
	s := BasicMetricsStats{
		FetchCount:   b.FetchCount.Load(),
		FetchErrors:  b.FetchErrors.Load(),
		FetchBytes:   b.FetchBytes.Load(),
		StreamCount:  b.StreamCount.Load(),
		StreamErrors: b.StreamErrors.Load(),
		StreamBytes:  b.StreamBytes.Load(),
		RetryCount:   b.RetryCount.Load(),
	}
	if s.FetchCount > 0 {
		s.FetchAvgNanos = b.FetchTotalNanos.Load() / s.FetchCount
	}
	if s.StreamCount > 0 {
		s.StreamAvgNanos = b.StreamTotalNanos.Load() / s.StreamCount
	}
	return s
}
