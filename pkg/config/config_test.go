// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LibraryDir != DefaultLibraryDir {
		t.Errorf("LibraryDir = %q, want %q", cfg.LibraryDir, DefaultLibraryDir)
	}
	if cfg.Provider.Port != 8000 {
		t.Errorf("Provider.Port = %d, want 8000", cfg.Provider.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biodesign.yaml")
	content := `
library_dir: /srv/designs
author: Jane Doe
log_level: debug
provider:
  port: 9000
  rate_limit: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LibraryDir != "/srv/designs" {
		t.Errorf("LibraryDir = %q", cfg.LibraryDir)
	}
	if cfg.Author != "Jane Doe" {
		t.Errorf("Author = %q", cfg.Author)
	}
	if cfg.Provider.Port != 9000 {
		t.Errorf("Provider.Port = %d", cfg.Provider.Port)
	}
	// Unset file fields keep their defaults.
	if cfg.ExportedDir != DefaultExportedDir {
		t.Errorf("ExportedDir = %q, want default", cfg.ExportedDir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biodesign.yaml")
	if err := os.WriteFile(path, []byte("author: File Author\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BIODESIGN_AUTHOR", "Env Author")
	t.Setenv("BIODESIGN_LIBRARY_DIR", "/tmp/lib")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Author != "Env Author" {
		t.Errorf("Author = %q, want env override", cfg.Author)
	}
	if cfg.LibraryDir != "/tmp/lib" {
		t.Errorf("LibraryDir = %q, want env override", cfg.LibraryDir)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biodesign.yaml")
	if err := os.WriteFile(path, []byte("author: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
