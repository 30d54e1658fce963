package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dreampipe/internal/logging"
)

// Service appends model records to the models.json catalog. Updates are
// read-modify-write over the whole document; callers must serialize
// access, concurrent writers are not supported.
type Service struct {
	path string
	log  logging.Logger
}

// NewService creates a catalog service writing to the given path
func NewService(path string, log logging.Logger) *Service {
	return &Service{path: path, log: log}
}

// Record appends one model record to the catalog, creating the file and
// its parent directory on first use. Fails only on I/O or encoding errors.
func (s *Service) Record(record ModelRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	collection, err := s.load()
	if err != nil {
		return err
	}

	collection.Models = append(collection.Models, record)

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	s.log.Logf("Updated %s: %d models", filepath.Base(s.path), len(collection.Models))
	return nil
}

// List returns the current catalog contents; a missing file is an empty
// collection
func (s *Service) List() ([]ModelRecord, error) {
	collection, err := s.load()
	if err != nil {
		return nil, err
	}
	return collection.Models, nil
}

// load reads the catalog document, treating a missing file as empty
func (s *Service) load() (*ModelCollection, error) {
	collection := &ModelCollection{Models: []ModelRecord{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return collection, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if err := json.Unmarshal(data, collection); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return collection, nil
}
