package bulk

import (
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/hupe1980/vecport"
	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/internal/cache"
	"github.com/hupe1980/vecport/internal/compress"
	"github.com/hupe1980/vecport/internal/resource"
)

// OutputSuffix marks converted documents written by a Runner, before any
// compression extension.
const OutputSuffix = ".embeddings.json"

// Options configure a Runner.
type Options struct {
	// Workers bounds the number of inputs converted concurrently.
	// Zero or negative means GOMAXPROCS.
	Workers int

	// Controller throttles memory and IO across workers. Nil means
	// unthrottled.
	Controller *resource.Controller

	// Cache, when set, adds read-through payload caching in front of the
	// source store, so retries and repeated runs skip slow backends.
	Cache cache.ByteCache

	// Compression wraps every output document. Default: none.
	Compression compress.Type

	// OutputName maps an input name to its output name, before the
	// compression extension is appended. Default: DefaultOutputName.
	OutputName func(string) string

	// ConverterOptions configure the conversion pipeline. The runner
	// installs its own metrics collector to aggregate the report, so a
	// WithMetricsCollector here is overridden.
	ConverterOptions []vecport.Option

	// Logger receives run-level progress and failures. Default: no output.
	Logger *vecport.Logger
}

// DefaultOptions are the defaults used by NewRunner.
var DefaultOptions = Options{
	Compression: compress.None,
}

// DefaultOutputName strips a known payload extension (and any compression
// extension) from name and appends OutputSuffix.
//
//	runs/7/payload.json     -> runs/7/payload.embeddings.json
//	export.yaml.zst         -> export.embeddings.json
func DefaultOutputName(name string) string {
	base := name
	for _, ext := range []string{".zst", ".gz", ".lz4"} {
		base = strings.TrimSuffix(base, ext)
	}
	switch path.Ext(base) {
	case ".json", ".yaml", ".yml":
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	return base + OutputSuffix
}

// Runner converts many inputs from a source store into canonical documents
// in a destination store. Each input is one unit of work: inputs fail
// independently and a failure never aborts the run.
type Runner struct {
	src  blobstore.Store
	dst  blobstore.Store
	opts Options
}

// NewRunner creates a Runner converting blobs from src into dst.
func NewRunner(src, dst blobstore.Store, optFns ...func(o *Options)) (*Runner, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("bulk: source and destination stores are required")
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.OutputName == nil {
		opts.OutputName = DefaultOutputName
	}
	if opts.Logger == nil {
		opts.Logger = vecport.NoopLogger()
	}
	if opts.Cache != nil {
		src = blobstore.NewCachingStore(src, opts.Cache)
	}

	// Surface bad converter options at construction, not mid-run.
	if _, err := vecport.New(opts.ConverterOptions...); err != nil {
		return nil, fmt.Errorf("bulk: %w", err)
	}

	return &Runner{
		src:  src,
		dst:  dst,
		opts: opts,
	}, nil
}

func isOutputName(name string) bool {
	base := name
	for _, ext := range []string{".zst", ".gz", ".lz4"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.HasSuffix(base, OutputSuffix)
}
