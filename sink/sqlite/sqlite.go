package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/hupe1980/vecport/document"
	"github.com/hupe1980/vecport/internal/conv"
)

// ErrRunNotFound is returned when reading a run id with no stored rows.
var ErrRunNotFound = errors.New("run not found")

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./export.db". For in-memory
// databases, pass ":memory:" and limit the pool to a single connection,
// otherwise each pooled connection sees its own empty database.
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// Documents can carry duplicate ids (the pipeline never deduplicates), so
// embeddings are keyed by position, not id.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS runs (
    run_id     TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    dimension  INTEGER NOT NULL,
    count      INTEGER NOT NULL,
    created_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS embeddings (
    run_id   TEXT NOT NULL,
    position INTEGER NOT NULL,
    id       TEXT NOT NULL,
    vector   BLOB NOT NULL,
    PRIMARY KEY (run_id, position)
)`,
	`CREATE INDEX IF NOT EXISTS idx_embeddings_id ON embeddings(run_id, id)`,
}

// EnsureSchema creates the runs and embeddings tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Sink writes canonical documents into a queryable relational layout.
// One row per embedding, document order preserved through the position
// column.
type Sink struct {
	db *sql.DB
}

// New creates a sink over db and ensures the schema exists.
func New(db *sql.DB) (*Sink, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &Sink{db: db}, nil
}

// Write stores doc under runID in a single transaction. Writing an existing
// run replaces it completely.
func (s *Sink) Write(ctx context.Context, runID string, doc *document.Document) error {
	if runID == "" {
		return fmt.Errorf("sqlite: run id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE run_id = ?`, runID); err != nil {
		return err
	}

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id, version, dimension, count, created_at) VALUES(?, ?, ?, ?, ?)`,
		runID, doc.Version, doc.Dimension, doc.Count, createdAt,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO embeddings(run_id, position, id, vector) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range doc.Embeddings {
		if _, err := stmt.ExecContext(ctx, runID, i, rec.ID, encodeVector(rec.Vector)); err != nil {
			return fmt.Errorf("insert record %q: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// Read rebuilds the document stored under runID, in original order.
func (s *Sink) Read(ctx context.Context, runID string) (*document.Document, error) {
	var version, dimension, count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version, dimension, count FROM runs WHERE run_id = ?`, runID,
	).Scan(&version, &dimension, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vector FROM embeddings WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wantCount, err := conv.Int64ToInt(count)
	if err != nil {
		return nil, err
	}

	records := make([]document.Record, 0, wantCount)
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", id, err)
		}
		records = append(records, document.Record{ID: id, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(records) != wantCount {
		return nil, fmt.Errorf("run %s: stored %d records, header says %d", runID, len(records), wantCount)
	}

	ver, err := conv.Int64ToInt(version)
	if err != nil {
		return nil, err
	}
	dim, err := conv.Int64ToInt(dimension)
	if err != nil {
		return nil, err
	}

	return &document.Document{
		Version:    ver,
		Dimension:  dim,
		Count:      wantCount,
		Embeddings: records,
	}, nil
}

// RunInfo summarizes one stored run.
type RunInfo struct {
	RunID     string
	Dimension int
	Count     int
	CreatedAt time.Time
}

// Runs lists stored runs ordered by run id.
func (s *Sink) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, dimension, count, created_at FROM runs ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info      RunInfo
			dim, cnt  int64
			createdAt string
		)
		if err := rows.Scan(&info.RunID, &dim, &cnt, &createdAt); err != nil {
			return nil, err
		}
		if info.Dimension, err = conv.Int64ToInt(dim); err != nil {
			return nil, err
		}
		if info.Count, err = conv.Int64ToInt(cnt); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at: %w", info.RunID, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a run and its embeddings. Deleting a missing run is not
// an error.
func (s *Sink) Delete(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE run_id = ?`, runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return err
	}

	return tx.Commit()
}

// encodeVector packs vec as a little-endian sequence of IEEE 754 float64
// values without a length prefix; the length is derived from the BLOB size
// on decode.
func encodeVector(vec []float64) []byte {
	b := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

func decodeVector(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d (not multiple of 8)", len(b))
	}
	vec := make([]float64, len(b)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return vec, nil
}
