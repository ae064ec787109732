package router

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// multipartDir is the subdirectory of the cache directory holding
// multipart bodies awaiting upload.
const multipartDir = "multipart.form.data"

// fileStore serializes every filesystem mutation of the multipart
// directory across concurrent builds and uploads.
type fileStore struct {
	mu  sync.Mutex
	dir string
}

func newFileStore(cacheDir string) *fileStore {
	return &fileStore{dir: filepath.Join(cacheDir, multipartDir)}
}

// create makes the directory if missing and opens a new file named name.
func (s *fileStore) create(name string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating multipart dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating multipart file: %w", err)
	}

	return f, nil
}

func (s *fileStore) remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing multipart file: %w", err)
	}

	return nil
}

// TempFile is a multipart body written to disk by Build. Its owner must
// call Remove once the upload attempt finishes.
type TempFile struct {
	path  string
	size  int64
	store *fileStore

	once      sync.Once
	removeErr error
}

// Path returns the location of the file.
func (f *TempFile) Path() string { return f.path }

// Size returns the length of the encoded body in bytes.
func (f *TempFile) Size() int64 { return f.size }

// Open opens the file for reading.
func (f *TempFile) Open() (*os.File, error) {
	return os.Open(f.path)
}

// Remove deletes the file. Only the first call touches the filesystem;
// later calls return the first call's result.
func (f *TempFile) Remove() error {
	if f == nil {
		return nil
	}

	f.once.Do(func() {
		f.removeErr = f.store.remove(f.path)
	})

	return f.removeErr
}
