// Package store persists the calibration store as a single JSON file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/abdul-hamid-achik/usagecal/internal/logging"
)

// File is a calibration.Repository backed by a JSON file. It holds no state
// between calls; every Load reads the file again.
type File struct {
	path string
	log  *logging.Logger
}

// NewFile returns a repository for path. The file and its directory are
// created on the first Save.
func NewFile(path string) *File {
	return &File{
		path: path,
		log:  logging.Global().WithPrefix("store"),
	}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load reads the store. A missing, empty or unparsable file yields an empty
// store; only read failures are returned as errors.
func (f *File) Load() (calibration.Store, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(calibration.Store), nil
		}
		return nil, ucerr.StoreLoadFailed(f.path, err)
	}

	store := make(calibration.Store)
	if len(bytes.TrimSpace(data)) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store); err != nil {
		f.log.Warn("Calibration store is corrupt, starting fresh",
			logging.Path(f.path),
			logging.Error(err))
		logging.LogEvent(logging.EventStoreCorrupt, logging.Path(f.path), logging.Error(err))
		return make(calibration.Store), nil
	}

	logging.LogEvent(logging.EventStoreLoad,
		logging.Path(f.path),
		logging.Count(len(store)))
	return store, nil
}

// Save writes the whole store, replacing the file atomically.
func (f *File) Save(store calibration.Store) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return ucerr.StoreSaveFailed(f.path, fmt.Errorf("encode: %w", err))
	}

	if err := WriteAtomic(f.path, data); err != nil {
		return ucerr.StoreSaveFailed(f.path, err)
	}

	logging.LogEvent(logging.EventStoreSave,
		logging.Path(f.path),
		logging.Count(len(store)))
	return nil
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, creating the directory if needed. Readers never observe a
// partially written file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
