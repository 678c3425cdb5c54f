package wizard

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists blobs as files in a private directory, one file per key.
type FileStore struct{ Dir string }

func (f FileStore) path(key string) string { return filepath.Join(f.Dir, key+".json") }

// Load returns the blob for key, or (nil, nil) when nothing was saved yet.
func (f FileStore) Load(key string) ([]byte, error) {
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// Save replaces the blob for key atomically.
func (f FileStore) Save(key string, blob []byte) error {
	if err := os.MkdirAll(f.Dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}
