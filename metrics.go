package vecport

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    convertCounter   prometheus.Counter
//	    convertHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordConvert(records, skipped int, duration time.Duration, err error) {
//	    p.convertCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordLoad is called after each input decode.
	// size is the input length in bytes, err is nil if successful.
	RecordLoad(size int, duration time.Duration, err error)

	// RecordDetect is called after each structure detection pass.
	// emitted is the number of candidate pairs, dropped the number of
	// entries the detector discarded.
	RecordDetect(emitted, dropped int, duration time.Duration)

	// RecordConvert is called after each conversion.
	// records is the number of records in the document, skipped the number
	// of candidates dropped during coercion, err is nil if successful.
	RecordConvert(records, skipped int, duration time.Duration, err error)

	// RecordEncode is called after each document encode.
	// size is the output length in bytes, err is nil if successful.
	RecordEncode(size int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordDetect(int, int, time.Duration)         {}
func (NoopMetricsCollector) RecordConvert(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEncode(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadBytes         atomic.Int64
	DetectCount       atomic.Int64
	DetectEmitted     atomic.Int64
	DetectDropped     atomic.Int64
	ConvertCount      atomic.Int64
	ConvertErrors     atomic.Int64
	ConvertRecords    atomic.Int64
	ConvertSkipped    atomic.Int64
	ConvertTotalNanos atomic.Int64
	EncodeCount       atomic.Int64
	EncodeErrors      atomic.Int64
	EncodeBytes       atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(size int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadBytes.Add(int64(size))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordDetect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDetect(emitted, dropped int, duration time.Duration) {
	b.DetectCount.Add(1)
	b.DetectEmitted.Add(int64(emitted))
	b.DetectDropped.Add(int64(dropped))
}

// RecordConvert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConvert(records, skipped int, duration time.Duration, err error) {
	b.ConvertCount.Add(1)
	b.ConvertRecords.Add(int64(records))
	b.ConvertSkipped.Add(int64(skipped))
	b.ConvertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ConvertErrors.Add(1)
	}
}

// RecordEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEncode(size int, duration time.Duration, err error) {
	b.EncodeCount.Add(1)
	b.EncodeBytes.Add(int64(size))
	if err != nil {
		b.EncodeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:        b.LoadCount.Load(),
		LoadErrors:       b.LoadErrors.Load(),
		LoadBytes:        b.LoadBytes.Load(),
		DetectCount:      b.DetectCount.Load(),
		DetectEmitted:    b.DetectEmitted.Load(),
		DetectDropped:    b.DetectDropped.Load(),
		ConvertCount:     b.ConvertCount.Load(),
		ConvertErrors:    b.ConvertErrors.Load(),
		ConvertRecords:   b.ConvertRecords.Load(),
		ConvertSkipped:   b.ConvertSkipped.Load(),
		ConvertAvgNanos:  b.getAvgConvertNanos(),
		EncodeCount:      b.EncodeCount.Load(),
		EncodeErrors:     b.EncodeErrors.Load(),
		EncodeBytes:      b.EncodeBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgConvertNanos() int64 {
	count := b.ConvertCount.Load()
	if count == 0 {
		return 0
	}
	return b.ConvertTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount       int64
	LoadErrors      int64
	LoadBytes       int64
	DetectCount     int64
	DetectEmitted   int64
	DetectDropped   int64
	ConvertCount    int64
	ConvertErrors   int64
	ConvertRecords  int64
	ConvertSkipped  int64
	ConvertAvgNanos int64
	EncodeCount     int64
	EncodeErrors    int64
	EncodeBytes     int64
}
