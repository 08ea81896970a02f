package vecport

import (
	"log/slog"

	"github.com/hupe1980/vecport/codec"
	"github.com/hupe1980/vecport/load"
	"github.com/hupe1980/vecport/vector"
)

type options struct {
	precision        int
	maxItems         int
	sortByID         bool
	normalize        bool
	pretty           bool
	failFast         bool
	epsilon          float64
	codec            codec.Codec
	loadOptions      []func(*load.Options)
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Converter behavior.
//
// Options exist to avoid exploding the API surface
// (e.g. precision-specific constructor variants).
type Option func(*options)

// WithPrecision configures the number of decimal places vector components
// are rounded to. Defaults to 6. Negative values are rejected by New.
func WithPrecision(precision int) Option {
	return func(o *options) {
		o.precision = precision
	}
}

// WithMaxItems caps the number of records in the output document.
// Zero or negative means no cap.
//
// The cap is applied after sorting, so with WithSortByID the document
// keeps the lexicographically smallest identifiers.
func WithMaxItems(n int) Option {
	return func(o *options) {
		o.maxItems = n
	}
}

// WithSortByID enables stable lexicographic ordering of records by
// identifier. Without it, records keep input encounter order.
func WithSortByID(enabled bool) Option {
	return func(o *options) {
		o.sortByID = enabled
	}
}

// WithNormalize enables L2 normalization of each vector before rounding.
// Vectors with a norm below the configured epsilon pass through unchanged.
func WithNormalize(enabled bool) Option {
	return func(o *options) {
		o.normalize = enabled
	}
}

// WithEpsilon configures the norm threshold below which normalization
// leaves a vector unchanged. Defaults to 1e-12.
func WithEpsilon(epsilon float64) Option {
	return func(o *options) {
		o.epsilon = epsilon
	}
}

// WithPretty enables indented output from Encode. Indentation changes
// whitespace only, never field order or values.
func WithPretty(enabled bool) Option {
	return func(o *options) {
		o.pretty = enabled
	}
}

// WithFailFast makes Convert return a RecordError on the first record
// whose vector cannot be coerced, instead of skipping the record.
func WithFailFast(enabled bool) Option {
	return func(o *options) {
		o.failFast = enabled
	}
}

// WithCodec configures the codec used for encoding output documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLoadOptions configures how ConvertBytes decodes raw input, for
// example to pin the input format:
//
//	vecport.WithLoadOptions(func(o *load.Options) {
//	    o.Format = load.FormatYAML
//	})
func WithLoadOptions(optFns ...func(*load.Options)) Option {
	return func(o *options) {
		o.loadOptions = optFns
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecport.BasicMetricsCollector{}
//	c, _ := vecport.New(vecport.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Conversions: %d, Avg latency: %dns\n", stats.ConvertCount, stats.ConvertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := vecport.NewJSONLogger(slog.LevelInfo)
//	c, _ := vecport.New(vecport.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		precision:        DefaultPrecision,
		epsilon:          vector.DefaultEpsilon,
		codec:            nil,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
