package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"patient-records-api/model"
)

// FileStore persists the collection as a single JSON document keyed by
// patient id. A missing file reads as an empty collection; a corrupt
// file is an error.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (map[string]model.Raw, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.Raw{}, nil
		}
		return nil, fmt.Errorf("read patient store: %w", err)
	}

	records := map[string]model.Raw{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode patient store: %w", err)
	}
	return records, nil
}

// Save writes the snapshot to a temp file in the same directory and
// renames it over the target, so a concurrent reader sees either the old
// or the new snapshot, never a partial write.
func (s *FileStore) Save(records map[string]model.Raw) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode patient store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".patients-*.json")
	if err != nil {
		return fmt.Errorf("write patient store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write patient store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write patient store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write patient store: %w", err)
	}
	return nil
}
