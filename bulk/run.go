package bulk

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecport"
	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/internal/compress"
	"github.com/hupe1980/vecport/internal/resource"
)

// Report aggregates the outcome of one bulk run.
type Report struct {
	// RunID uniquely identifies the run, for correlating logs and sinks.
	RunID string
	// Inputs is the number of inputs attempted.
	Inputs int
	// Converted is the number of inputs that produced a document.
	Converted int
	// Failed is the number of inputs that produced no document.
	Failed int
	// Records is the total number of embeddings across all documents.
	Records int
	// Dropped is the total number of input entries discarded during
	// detection and coercion.
	Dropped int
	// Duration is the wall-clock time of the run.
	Duration time.Duration
	// Failures lists the failed inputs, sorted by name.
	Failures []Failure
}

// Failure ties a failed input to its error.
type Failure struct {
	Name string
	Err  error
}

// RunAll converts every blob under prefix in the source store.
// Blobs that look like previous outputs are skipped, so a prefix can be
// re-run in place without converting its own artifacts.
func (r *Runner) RunAll(ctx context.Context, prefix string) (*Report, error) {
	names, err := r.src.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	inputs := make([]string, 0, len(names))
	for _, name := range names {
		if isOutputName(name) {
			continue
		}
		inputs = append(inputs, name)
	}

	return r.Run(ctx, inputs)
}

// Run converts the named inputs with bounded concurrency. Per-input
// failures are collected in the report; Run itself fails only when the
// context is canceled or the run cannot start.
func (r *Runner) Run(ctx context.Context, names []string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()

	collector := &vecport.BasicMetricsCollector{}
	convOpts := append(slices.Clone(r.opts.ConverterOptions), vecport.WithMetricsCollector(collector))
	conv, err := vecport.New(convOpts...)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:  runID,
		Inputs: len(names),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	// Limit concurrency; conversion holds a whole payload in memory.
	g.SetLimit(r.opts.Workers)

	for _, name := range names {
		g.Go(func() error {
			return r.convertOne(gctx, conv, runID, name, report, &mu)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := collector.GetStats()
	report.Dropped = int(stats.DetectDropped + stats.ConvertSkipped)
	report.Duration = time.Since(start)
	slices.SortFunc(report.Failures, func(a, b Failure) int {
		return strings.Compare(a.Name, b.Name)
	})

	r.opts.Logger.InfoContext(ctx, "bulk run completed",
		"run_id", runID,
		"inputs", report.Inputs,
		"converted", report.Converted,
		"failed", report.Failed,
		"records", report.Records,
		"dropped", report.Dropped,
		"duration", report.Duration,
	)
	return report, nil
}

// convertOne processes a single input. A per-input failure is recorded and
// returns nil; only context cancellation propagates an error.
func (r *Runner) convertOne(ctx context.Context, conv *vecport.Converter, runID, name string, report *Report, mu *sync.Mutex) error {
	fail := func(err error) {
		mu.Lock()
		report.Failed++
		report.Failures = append(report.Failures, Failure{Name: name, Err: err})
		mu.Unlock()
		r.opts.Logger.WarnContext(ctx, "input failed",
			"run_id", runID,
			"input", name,
			"error", err,
		)
	}

	blob, err := r.src.Open(ctx, name)
	if err != nil {
		fail(err)
		return nil
	}
	size := blob.Size()

	if limit := r.opts.Controller.MemoryLimit(); limit > 0 && size > limit {
		_ = blob.Close()
		fail(fmt.Errorf("input size %d exceeds memory limit %d", size, limit))
		return nil
	}
	if err := r.opts.Controller.AcquireIO(ctx, int(size)); err != nil {
		_ = blob.Close()
		return err
	}
	if err := r.reserveMemory(ctx, size); err != nil {
		_ = blob.Close()
		return err
	}
	defer r.opts.Controller.ReleaseMemory(size)

	data, err := blobstore.ReadBlob(blob)
	_ = blob.Close()
	if err != nil {
		fail(err)
		return nil
	}

	doc, err := conv.ConvertBytes(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fail(err)
		return nil
	}

	out, err := conv.Encode(ctx, doc)
	if err != nil {
		fail(err)
		return nil
	}
	if r.opts.Compression != compress.None {
		if out, err = compress.Encode(out, r.opts.Compression); err != nil {
			fail(err)
			return nil
		}
	}

	outName := r.opts.OutputName(name) + r.opts.Compression.Extension()
	if err := r.writeOutput(ctx, outName, out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fail(err)
		return nil
	}

	mu.Lock()
	report.Converted++
	report.Records += doc.Count
	mu.Unlock()

	r.opts.Logger.InfoContext(ctx, "input converted",
		"run_id", runID,
		"input", name,
		"output", outName,
		"records", doc.Count,
	)
	return nil
}

// writeOutput streams a document into the destination store through the
// controller's IO limit, so output bytes draw on the same budget as reads.
func (r *Runner) writeOutput(ctx context.Context, name string, data []byte) error {
	w, err := r.dst.Create(ctx, name)
	if err != nil {
		return err
	}
	lw := resource.NewRateLimitedWriter(ctx, w, r.opts.Controller)
	if _, err := lw.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// reserveMemory blocks until the controller admits size bytes. The
// controller itself is non-blocking; waiting is this runner's policy.
func (r *Runner) reserveMemory(ctx context.Context, size int64) error {
	for {
		if r.opts.Controller.TryAcquireMemory(size) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}
