// Command vecport converts embedding payloads into the canonical
// versioned JSON document.
//
// Typical usage:
//
//	vecport -input embeddings.json -output export.json -sort -normalize
//
// Bulk mode converts every payload under a directory:
//
//	vecport -bulk -input ./payloads -output ./exports -compress zstd
//
// Exit codes: 1 for usage errors and unreadable inputs, 2 for inputs that
// cannot be deserialized or have an unsupported structure, 3 for inputs
// with no embeddings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/hupe1980/vecport"
	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/bulk"
	"github.com/hupe1980/vecport/codec"
	"github.com/hupe1980/vecport/document"
	"github.com/hupe1980/vecport/internal/cache"
	"github.com/hupe1980/vecport/internal/compress"
	"github.com/hupe1980/vecport/internal/config"
	"github.com/hupe1980/vecport/internal/resource"
	"github.com/hupe1980/vecport/load"
	"github.com/hupe1980/vecport/publish"
	"github.com/hupe1980/vecport/sink/sqlite"
)

const (
	exitOK    = 0
	exitErr   = 1
	exitLoad  = 2
	exitEmpty = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	// A .env file can carry environment defaults in development setups.
	_ = godotenv.Load()

	var (
		input       = flag.String("input", "", "input file, or input directory with -bulk")
		output      = flag.String("output", "", "output file, or output directory with -bulk")
		format      = flag.String("format", "auto", "input format: auto, json or yaml")
		precision   = flag.Int("precision", 6, "decimal places vector components are rounded to")
		maxItems    = flag.Int("max-items", 0, "cap on the number of records (0 = no cap)")
		sortByID    = flag.Bool("sort", false, "sort records by identifier")
		normalize   = flag.Bool("normalize", false, "L2-normalize vectors before rounding")
		pretty      = flag.Bool("pretty", false, "indent the output document")
		compression = flag.String("compress", "none", "output compression: none, zstd, gzip or lz4")
		sqlitePath  = flag.String("sqlite", "", "also write the document to this SQLite database")
		publishDir  = flag.String("publish", "", "also publish the document to this directory")
		bulkMode    = flag.Bool("bulk", false, "convert every payload under the input directory")
		workers     = flag.Int("workers", 0, "bulk worker count (0 = GOMAXPROCS)")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn or error")
		logJSON     = flag.Bool("log-json", false, "emit JSON logs")
		configPath  = flag.String("config", "", "config file (default ./vecport.yaml, then ~/.config/vecport/config.yaml)")
		printSchema = flag.Bool("print-schema", false, "print the output document JSON schema and exit")
	)
	flag.Parse()

	if *printSchema {
		os.Stdout.Write(document.Schema())
		return exitOK
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		return exitErr
	}

	// Flags override the config file only when set on the command line.
	seen := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })

	if seen["format"] {
		cfg.Input.Format = *format
	}
	if seen["precision"] {
		cfg.Pipeline.Precision = precision
	}
	if seen["max-items"] {
		cfg.Pipeline.MaxItems = *maxItems
	}
	if seen["sort"] {
		cfg.Pipeline.SortByID = *sortByID
	}
	if seen["normalize"] {
		cfg.Pipeline.Normalize = *normalize
	}
	if seen["pretty"] {
		cfg.Pipeline.Pretty = *pretty
	}
	if seen["compress"] {
		cfg.Output.Compression = *compression
	}
	if seen["workers"] {
		cfg.Bulk.Workers = *workers
	}
	if seen["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if seen["log-json"] {
		cfg.Log.JSON = *logJSON
	}

	level, err := parseLogLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}
	var logger *vecport.Logger
	if cfg.Log.JSON {
		logger = vecport.NewJSONLogger(level)
	} else {
		logger = vecport.NewTextLogger(level)
	}

	inFormat, err := load.ParseFormat(cfg.Input.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}
	comp, err := compress.ParseType(cfg.Output.Compression)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}
	cdc, ok := codec.ByName(cfg.Output.Codec)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown codec %q\n", cfg.Output.Codec)
		return exitErr
	}

	convOpts := []vecport.Option{
		vecport.WithPrecision(*cfg.Pipeline.Precision),
		vecport.WithMaxItems(cfg.Pipeline.MaxItems),
		vecport.WithSortByID(cfg.Pipeline.SortByID),
		vecport.WithNormalize(cfg.Pipeline.Normalize),
		vecport.WithPretty(cfg.Pipeline.Pretty),
		vecport.WithFailFast(cfg.Pipeline.FailFast),
		vecport.WithCodec(cdc),
		vecport.WithLoadOptions(func(o *load.Options) { o.Format = inFormat }),
		vecport.WithLogger(logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *bulkMode {
		return runBulk(ctx, cfg, *input, *output, comp, convOpts, logger)
	}
	return runSingle(ctx, cfg, singleArgs{
		input:   *input,
		output:  *output,
		sqlite:  *sqlitePath,
		publish: *publishDir,
	}, comp, cdc, convOpts)
}

type singleArgs struct {
	input   string
	output  string
	sqlite  string
	publish string
}

func runSingle(ctx context.Context, cfg *config.AppConfig, args singleArgs, comp compress.Type, cdc codec.Codec, convOpts []vecport.Option) int {
	if args.input == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		flag.Usage()
		return exitErr
	}
	if args.output == "" && args.sqlite == "" && args.publish == "" {
		fmt.Fprintln(os.Stderr, "error: need at least one of -output, -sqlite or -publish")
		flag.Usage()
		return exitErr
	}

	data, err := os.ReadFile(args.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: input not readable: %v\n", err)
		return exitErr
	}

	conv, err := vecport.New(convOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}

	doc, err := conv.ConvertBytes(ctx, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return convertExitCode(err)
	}

	encoded, err := conv.Encode(ctx, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}
	payload := encoded
	if comp != compress.None {
		if payload, err = compress.Encode(encoded, comp); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitErr
		}
	}

	runID := uuid.NewString()

	if args.output != "" {
		// LocalStore writes via temp file and rename, so a crash never
		// leaves a truncated document behind.
		store := blobstore.NewLocalStore(filepath.Dir(args.output))
		if err := store.Put(ctx, filepath.Base(args.output), payload); err != nil {
			fmt.Fprintf(os.Stderr, "error: write output: %v\n", err)
			return exitErr
		}
		fmt.Printf("[OK] export: %s | items=%d dimension=%d\n", args.output, doc.Count, doc.Dimension)
	}

	if args.sqlite != "" {
		if err := writeSQLite(ctx, args.sqlite, runID, doc); err != nil {
			fmt.Fprintf(os.Stderr, "error: sqlite sink: %v\n", err)
			return exitErr
		}
		fmt.Printf("[OK] sqlite: %s run=%s | items=%d dimension=%d\n", args.sqlite, runID, doc.Count, doc.Dimension)
	}

	if args.publish != "" {
		m, err := publishDocument(ctx, cfg, args.publish, payload, comp, cdc, runID, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: publish: %v\n", err)
			return exitErr
		}
		fmt.Printf("[OK] publish: %s seq=%d | items=%d dimension=%d\n", m.Document, m.Sequence, doc.Count, doc.Dimension)
	}

	return exitOK
}

func runBulk(ctx context.Context, cfg *config.AppConfig, input, output string, comp compress.Type, convOpts []vecport.Option, logger *vecport.Logger) int {
	if input == "" {
		fmt.Fprintln(os.Stderr, "error: -bulk needs -input pointing at a directory")
		flag.Usage()
		return exitErr
	}
	if output == "" {
		output = input
	}

	info, err := os.Stat(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: input not readable: %v\n", err)
		return exitErr
	}
	if !info.IsDir() {
		fmt.Fprintf(os.Stderr, "error: -bulk needs a directory, got %s\n", input)
		return exitErr
	}

	var controller *resource.Controller
	if cfg.Bulk.MemoryLimitMB > 0 || cfg.Bulk.IOLimitMBPerSec > 0 {
		controller = resource.NewController(resource.Config{
			MemoryLimitBytes:   cfg.Bulk.MemoryLimitMB << 20,
			IOLimitBytesPerSec: int64(cfg.Bulk.IOLimitMBPerSec) << 20,
		})
	}

	payloadCache, err := buildCache(cfg, controller)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cache: %v\n", err)
		return exitErr
	}
	if payloadCache != nil {
		defer payloadCache.Close()
	}

	runner, err := bulk.NewRunner(
		blobstore.NewLocalStore(input),
		blobstore.NewLocalStore(output),
		func(o *bulk.Options) {
			o.Workers = cfg.Bulk.Workers
			o.Controller = controller
			o.Compression = comp
			o.ConverterOptions = convOpts
			o.Logger = logger
			o.Cache = payloadCache
		},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}

	report, err := runner.RunAll(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: bulk run: %v\n", err)
		return exitErr
	}

	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "failed: %s: %v\n", f.Name, f.Err)
	}
	fmt.Printf("[OK] bulk: run=%s inputs=%d converted=%d failed=%d records=%d dropped=%d in %s\n",
		report.RunID, report.Inputs, report.Converted, report.Failed, report.Records, report.Dropped,
		report.Duration.Round(time.Millisecond))

	if report.Failed > 0 {
		return exitErr
	}
	return exitOK
}

// buildCache assembles the payload cache for a bulk run. A cache directory
// selects the disk-backed cache so repeated runs reuse earlier reads;
// otherwise a size enables the sharded in-memory LRU, which all workers
// share.
func buildCache(cfg *config.AppConfig, controller *resource.Controller) (cache.ByteCache, error) {
	if cfg.Bulk.CacheDir != "" {
		size := cfg.Bulk.CacheMB << 20
		if size <= 0 {
			size = 256 << 20
		}
		return cache.NewDiskByteCache(cache.DiskCacheConfig{
			RootDir:      cfg.Bulk.CacheDir,
			MaxSizeBytes: size,
			Controller:   controller,
		})
	}
	if cfg.Bulk.CacheMB > 0 {
		return cache.NewShardedLRUByteCache(cfg.Bulk.CacheMB<<20, controller), nil
	}
	return nil, nil
}

// loadConfig resolves the effective configuration. An explicitly named
// config file must exist; the default search tolerates absence.
func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return config.Load(path)
}

func writeSQLite(ctx context.Context, path, runID string, doc *document.Document) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	sink, err := sqlite.New(db)
	if err != nil {
		return err
	}
	return sink.Write(ctx, runID, doc)
}

func publishDocument(ctx context.Context, cfg *config.AppConfig, dir string, payload []byte, comp compress.Type, cdc codec.Codec, runID string, doc *document.Document) (*publish.Manifest, error) {
	pub := publish.NewPublisherWithCodec(blobstore.NewLocalStore(dir), cdc)
	m, err := pub.Publish(ctx, payload, publish.Meta{
		Dimension: doc.Dimension,
		Count:     doc.Count,
		RunID:     runID,
		Extension: ".json" + comp.Extension(),
	})
	if err != nil {
		return nil, err
	}
	if cfg.Publish.Keep > 0 {
		if err := pub.Prune(ctx, cfg.Publish.Keep); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// convertExitCode maps conversion failures onto the CLI exit contract:
// 2 for inputs that cannot be understood, 3 for inputs with nothing to
// export, 1 for everything else.
func convertExitCode(err error) int {
	switch {
	case errors.Is(err, vecport.ErrNoEmbeddingsFound):
		return exitEmpty
	case errors.Is(err, vecport.ErrDeserialization),
		errors.Is(err, vecport.ErrUnsupportedStructure):
		return exitLoad
	default:
		return exitErr
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
