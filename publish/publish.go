package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/vecport/blobstore"
	"github.com/hupe1980/vecport/codec"
	"github.com/hupe1980/vecport/document"
	"github.com/hupe1980/vecport/internal/compress"
	"github.com/hupe1980/vecport/internal/hash"
)

const (
	// ManifestPrefix names manifest blobs: MANIFEST-<seq>-<run>.json.
	ManifestPrefix = "MANIFEST"
	// DocumentPrefix names document blobs: EXPORT-<seq>-<run><ext>.
	DocumentPrefix = "EXPORT"
	// CurrentFileName is the pointer blob holding the current manifest name.
	CurrentFileName = "CURRENT"
	// CurrentVersion is the manifest format version this package writes.
	CurrentVersion = 1
)

// Manifest describes one published document.
type Manifest struct {
	Version   int       `json:"version"`
	Sequence  uint64    `json:"sequence"`
	RunID     string    `json:"run_id"`
	Document  string    `json:"document"`
	Codec     string    `json:"codec"`
	Dimension int       `json:"dimension"`
	Count     int       `json:"count"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  uint32    `json:"checksum_crc32c"`
	CreatedAt time.Time `json:"created_at"`
}

// Meta carries document metadata into Publish.
type Meta struct {
	// Dimension and Count mirror the document header for quick inspection
	// without opening the document blob.
	Dimension int
	Count     int

	// RunID ties the export to the run that produced it.
	// Generated when empty.
	RunID string

	// Extension of the document blob, e.g. ".json.zst" for compressed
	// output. Defaults to ".json".
	Extension string
}

// Publisher writes documents and manifests to a blob store and flips the
// CURRENT pointer so readers always see a complete, checksummed export.
//
// Blob names embed the sequence and a run suffix, so concurrent publishers
// never overwrite each other's blobs; the pointer flip decides which export
// becomes current. On a commit store with conditional writes the losing
// publisher gets a conflict error from Publish, and its orphaned blobs are
// removed by the next Prune.
type Publisher struct {
	store blobstore.Store
	codec codec.Codec
	mu    sync.Mutex
}

// NewPublisher creates a publisher writing manifests with the default codec.
func NewPublisher(store blobstore.Store) *Publisher {
	return NewPublisherWithCodec(store, codec.Default)
}

// NewPublisherWithCodec creates a publisher writing manifests with c.
// The codec name is recorded in every manifest so documents can be decoded
// by the codec that wrote them.
func NewPublisherWithCodec(store blobstore.Store, c codec.Codec) *Publisher {
	if c == nil {
		c = codec.Default
	}
	return &Publisher{
		store: store,
		codec: c,
	}
}

// Publish writes data as a new export generation and flips CURRENT to it.
// A failure after the blobs are written but before the pointer flip leaves
// orphan blobs behind; Prune removes them later.
func (p *Publisher) Publish(ctx context.Context, data []byte, meta Meta) (*Manifest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq, err := p.nextSequence(ctx)
	if err != nil {
		return nil, err
	}

	runID := meta.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ext := meta.Extension
	if ext == "" {
		ext = ".json"
	}

	suffix := shortRun(runID)
	docName := fmt.Sprintf("%s-%06d-%s%s", DocumentPrefix, seq, suffix, ext)

	if err := p.store.Put(ctx, docName, data); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	m := &Manifest{
		Version:   CurrentVersion,
		Sequence:  seq,
		RunID:     runID,
		Document:  docName,
		Codec:     p.codec.Name(),
		Dimension: meta.Dimension,
		Count:     meta.Count,
		SizeBytes: int64(len(data)),
		Checksum:  hash.CRC32C(data),
		CreatedAt: time.Now().UTC(),
	}

	manifestName := fmt.Sprintf("%s-%06d-%s.json", ManifestPrefix, seq, suffix)

	mdata, err := marshalManifest(p.codec, m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := p.store.Put(ctx, manifestName, mdata); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	// The pointer flip is the commit point.
	if err := p.store.Put(ctx, CurrentFileName, []byte(manifestName)); err != nil {
		return nil, fmt.Errorf("advance %s: %w", CurrentFileName, err)
	}

	return m, nil
}

// Current returns the manifest the CURRENT pointer names.
// Returns blobstore.ErrNotFound when nothing has been published yet.
func (p *Publisher) Current(ctx context.Context) (*Manifest, error) {
	name, err := p.currentName(ctx)
	if err != nil {
		return nil, err
	}
	return p.Manifest(ctx, name)
}

// Manifest loads a manifest by name and validates its format version.
func (p *Publisher) Manifest(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, p.store, name)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := p.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}

	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion)
	}

	return &m, nil
}

// Verify re-reads the published document and checks size and checksum.
// The checksum covers the stored bytes, compressed or not.
func (p *Publisher) Verify(ctx context.Context, m *Manifest) error {
	data, err := blobstore.ReadAll(ctx, p.store, m.Document)
	if err != nil {
		return err
	}
	return verifyBytes(m, data)
}

// Document verifies and decodes the document a manifest describes.
// Compressed documents are transparently decompressed.
func (p *Publisher) Document(ctx context.Context, m *Manifest) (*document.Document, error) {
	data, err := blobstore.ReadAll(ctx, p.store, m.Document)
	if err != nil {
		return nil, err
	}
	if err := verifyBytes(m, data); err != nil {
		return nil, err
	}

	plain, _, err := compress.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", m.Document, err)
	}

	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, fmt.Errorf("manifest names unknown codec %q", m.Codec)
	}

	return document.Decode(plain, c)
}

func verifyBytes(m *Manifest, data []byte) error {
	if int64(len(data)) != m.SizeBytes {
		return fmt.Errorf("document %s: size mismatch: got %d, want %d", m.Document, len(data), m.SizeBytes)
	}
	if sum := hash.CRC32C(data); sum != m.Checksum {
		return fmt.Errorf("document %s: checksum mismatch: got %08x, want %08x", m.Document, sum, m.Checksum)
	}
	return nil
}

// CurrentDocument loads, verifies and decodes the current export.
func (p *Publisher) CurrentDocument(ctx context.Context) (*document.Document, *Manifest, error) {
	m, err := p.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	doc, err := p.Document(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	return doc, m, nil
}

// History returns all manifest names in the store, oldest first.
// Zero-padded sequence numbers keep lexicographic order aligned with
// publish order.
func (p *Publisher) History(ctx context.Context) ([]string, error) {
	return p.store.List(ctx, ManifestPrefix+"-")
}

// Prune removes old manifests and their documents, keeping the most recent
// keep generations. The manifest named by CURRENT is always kept.
func (p *Publisher) Prune(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	names, err := p.History(ctx)
	if err != nil {
		return err
	}
	if len(names) <= keep {
		return nil
	}

	current, err := p.currentName(ctx)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}

	for _, name := range names[:len(names)-keep] {
		if name == current {
			continue
		}

		m, err := p.Manifest(ctx, name)
		if err != nil {
			return err
		}
		if err := p.store.Delete(ctx, m.Document); err != nil {
			return err
		}
		if err := p.store.Delete(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

func (p *Publisher) currentName(ctx context.Context) (string, error) {
	ptr, err := blobstore.ReadAll(ctx, p.store, CurrentFileName)
	if err != nil {
		return "", err
	}
	return string(ptr), nil
}

// nextSequence scans existing manifests instead of trusting CURRENT, so
// orphans from failed commits never get their sequence numbers reused.
func (p *Publisher) nextSequence(ctx context.Context) (uint64, error) {
	names, err := p.store.List(ctx, ManifestPrefix+"-")
	if err != nil {
		return 0, err
	}

	var max uint64
	for _, name := range names {
		seq, err := parseSequence(name)
		if err != nil {
			// Foreign blob under our prefix.
			continue
		}
		if seq > max {
			max = seq
		}
	}

	return max + 1, nil
}

func parseSequence(name string) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(name, ManifestPrefix+"-%d", &seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func marshalManifest(c codec.Codec, m *Manifest) ([]byte, error) {
	if im, ok := c.(codec.IndentMarshaler); ok {
		return im.MarshalIndent(m, "", "  ")
	}
	return c.Marshal(m)
}

// shortRun returns the name suffix for a run id.
func shortRun(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
