package blobstore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/vecport/internal/fs"
	"github.com/hupe1980/vecport/internal/mmap"
)

// LocalStore implements Store using the local file system.
//
// Reads are memory-mapped. Writes go to a temp file in the target
// directory and become visible via rename, so readers never observe a
// partially written blob.
type LocalStore struct {
	fs   fs.FileSystem
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return NewLocalStoreFS(fs.Default, root)
}

// NewLocalStoreFS creates a LocalStore on a custom file system.
// Tests use this for fault injection.
func NewLocalStoreFS(fsys fs.FileSystem, root string) *LocalStore {
	return &LocalStore{fs: fsys, root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	// We use mmap by default for local files as it's the most efficient
	// way to hand whole payloads to the decoder without copying.
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	// Decoders consume the payload front to back.
	_ = m.Advise(mmap.AccessSequential)
	return &localBlob{m: m}, nil
}

// Create creates a new writable blob. The blob is written to a temp file
// and renamed into place on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	final := s.path(name)
	if err := s.fs.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return nil, err
	}

	tmp := final + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{
		fs:    s.fs,
		file:  f,
		tmp:   tmp,
		final: final,
	}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	return s.fs.Remove(s.path(name))
}

// List returns all blob names with the given prefix, sorted.
// Names use forward slashes regardless of platform.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	if err := s.listDir("", &names); err != nil {
		return nil, err
	}

	filtered := names[:0]
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			filtered = append(filtered, name)
		}
	}
	sort.Strings(filtered)
	return filtered, nil
}

func (s *LocalStore) listDir(rel string, names *[]string) error {
	entries, err := s.fs.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) && rel == "" {
			return nil // store directory not created yet
		}
		return err
	}

	for _, entry := range entries {
		name := path.Join(rel, entry.Name())
		if entry.IsDir() {
			if err := s.listDir(name, names); err != nil {
				return err
			}
			continue
		}
		// In-flight temp files are not part of the store.
		if strings.HasSuffix(name, ".tmp") {
			continue
		}
		*names = append(*names, name)
	}
	return nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(p []byte, off int64) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	return b.m.Bytes(), nil
}

// localWritableBlob writes to a temp file and renames on Close.
type localWritableBlob struct {
	fs       fs.FileSystem
	file     fs.File
	tmp      string
	final    string
	writeErr error
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.writeErr = err
	}
	return n, err
}

func (w *localWritableBlob) Sync() error {
	return w.file.Sync()
}

// Close publishes the blob. If a write failed, the temp file is removed
// and the write error returned instead.
func (w *localWritableBlob) Close() error {
	if w.writeErr != nil {
		_ = w.file.Close()
		_ = w.fs.Remove(w.tmp)
		return w.writeErr
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.file.Close(); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.fs.Rename(w.tmp, w.final); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	return nil
}
