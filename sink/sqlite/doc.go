// Package sqlite exports canonical documents into a SQLite database for
// consumers that prefer a queryable local artifact over a JSON file.
//
// The layout is two tables: runs holds one header row per export (version,
// dimension, count), embeddings holds one row per record with the vector
// stored as a little-endian float64 BLOB. Document order survives the round
// trip through the position column.
//
//	db, err := sqlite.Open("export.db")
//	...
//	sink, err := sqlite.New(db)
//	...
//	err = sink.Write(ctx, runID, doc)
//
// The pure-Go modernc.org/sqlite driver keeps the module cgo-free.
package sqlite
