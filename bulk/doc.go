// Package bulk converts many inputs in one bounded-concurrency run.
//
// Each input graph is an independent unit of work: it is read from the
// source store, converted, encoded, optionally compressed, and written to
// the destination store under a derived name. A malformed input is recorded
// in the run report and never aborts the other inputs.
//
//	runner, err := bulk.NewRunner(src, dst, func(o *bulk.Options) {
//	    o.Workers = 8
//	    o.Compression = compress.Zstd
//	    o.ConverterOptions = []vecport.Option{vecport.WithNormalize(true)}
//	})
//	...
//	report, err := runner.RunAll(ctx, "runs/")
//
// Memory and IO pressure against shared backends can be bounded with a
// resource controller, and repeated runs over remote inputs can be served
// from a payload cache.
package bulk
