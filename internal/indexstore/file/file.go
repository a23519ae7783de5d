// Package file stores bundles as a single JSON document.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"contractqa/internal/domain"
	"contractqa/internal/indexstore"
)

// Storage writes one JSON file per location.
type Storage struct{}

func NewStorage() *Storage { return &Storage{} }

var _ indexstore.Storage = (*Storage)(nil)

func (s *Storage) Name() string { return "file" }

// Save writes b atomically by renaming a temporary file over location.
func (s *Storage) Save(b indexstore.Bundle, location string) error {
	if err := indexstore.Validate(b); err != nil {
		return err
	}
	if dir := filepath.Dir(location); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(location), ".contractqa-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		return fmt.Errorf("replace bundle: %w", err)
	}
	return nil
}

// Load reads and validates the bundle at location.
func (s *Storage) Load(location string) (indexstore.Bundle, error) {
	var b indexstore.Bundle
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return b, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
		}
		return b, fmt.Errorf("read bundle: %w", err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return indexstore.Bundle{}, fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err)
	}
	if err := indexstore.Validate(b); err != nil {
		return indexstore.Bundle{}, err
	}
	return b, nil
}

func (s *Storage) Exists(location string) bool {
	info, err := os.Stat(location)
	return err == nil && !info.IsDir()
}
