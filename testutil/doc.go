// Package testutil provides testing utilities for vecport.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors and for encoding
// record sets in each of the supported input layouts.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := rng.Vector(128)          // uniform [0, 1)
//	records := rng.Records(100, 64) // records with stable identifiers
//
// # Payload Generation
//
//	payload := testutil.MappingPayload(records)   // {"id": [...], ...}
//	payload = testutil.RecordsPayload(records)    // [{"id": ..., "vector": [...]}, ...]
//	payload = testutil.YAMLPayload(records)       // YAML mapping
package testutil
