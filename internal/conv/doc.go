// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking to prevent integer overflow
// when converting fixed-width values into Go's platform-dependent int.
//
// Use cases:
//   - Validating untrusted counts and sizes read back from storage
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
