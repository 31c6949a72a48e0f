// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage provides the reference persistence backend for metadata
// records: one pretty-printed JSON file per design in the library
// directory, named metadata_<designName>.json. The layout is shared with
// the original JavaScript tooling, so both the file naming and the
// four-space indentation are wire format, not taste.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// FileStore persists metadata records as JSON files under a library
// directory.
//
// # Thread Safety
//
// FileStore itself is stateless; write serialization per record is the
// Library's job. Writes go through a temp file and rename so a crash never
// leaves a half-written record behind.
type FileStore struct {
	dir string
}

// NewFileStore opens a file store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("library directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the library directory this store reads and writes.
func (s *FileStore) Dir() string {
	return s.dir
}

// RecordPath returns the metadata file path for a design name.
func (s *FileStore) RecordPath(designName string) string {
	return filepath.Join(s.dir, "metadata_"+designName+".json")
}

// Create persists a new record, failing with ErrRecordExists if the
// design name is already taken.
func (s *FileStore) Create(ctx context.Context, meta *metadata.DesignMetadata) error {
	path := s.RecordPath(meta.DesignName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", metadata.ErrRecordExists, meta.DesignName)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat record: %w", err)
	}
	return s.write(path, meta)
}

// Get reads the full record for a design name.
func (s *FileStore) Get(ctx context.Context, designName string) (*metadata.DesignMetadata, error) {
	raw, err := os.ReadFile(s.RecordPath(designName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", metadata.ErrRecordNotFound, designName)
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	var meta metadata.DesignMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", designName, err)
	}
	return &meta, nil
}

// Update replaces the full record, failing with ErrRecordNotFound if it
// was never created.
func (s *FileStore) Update(ctx context.Context, meta *metadata.DesignMetadata) error {
	path := s.RecordPath(meta.DesignName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", metadata.ErrRecordNotFound, meta.DesignName)
		}
		return fmt.Errorf("stat record: %w", err)
	}
	return s.write(path, meta)
}

func (s *FileStore) write(path string, meta *metadata.DesignMetadata) error {
	payload, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}
