// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/config"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/logging"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata/storage"
)

func TestKindForFile(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
		ok   bool
	}{
		{"library/plasmid.gb", KindSequence, true},
		{"library/enzyme.pdb", KindProtein, true},
		{"library/metadata_plasmid.json", KindSequence, false},
		{"library/notes.txt", KindSequence, false},
	}
	for _, tt := range tests {
		kind, ok := kindForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if ok {
			assert.Equal(t, tt.kind, kind, tt.path)
		}
	}
}

func TestWatcher_WarnsOnOutsideEdit(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LibraryDir = filepath.Join(dir, "library")
	cfg.ExportedDir = filepath.Join(dir, "exported")

	logDir := filepath.Join(dir, "logs")
	logger := logging.New(logging.Config{Quiet: true, LogDir: logDir, Service: "watchtest"})
	defer logger.Close()

	store, err := storage.NewFileStore(cfg.LibraryDir)
	require.NoError(t, err)
	tool, err := New(Options{
		Library: metadata.NewLibrary(store),
		Config:  &cfg,
		Logger:  logger,
	})
	require.NoError(t, err)

	sess := NewSession()
	mustExecute(t, tool, sess, "CREATE", Args{"file_name": "plasmid", "sequence": "atgc"})

	watcher, err := tool.WatchLibrary()
	require.NoError(t, err)
	defer watcher.Close()

	// overwrite the design file behind the tool's back
	path := filepath.Join(cfg.LibraryDir, "plasmid.gb")
	require.NoError(t, os.WriteFile(path, []byte("cccc"), 0o640))

	require.Eventually(t, func() bool {
		return strings.Contains(readLogs(t, logDir), "design file modified outside the tool")
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcher_QuietWhenChecksumStillMatches(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LibraryDir = filepath.Join(dir, "library")
	cfg.ExportedDir = filepath.Join(dir, "exported")

	logDir := filepath.Join(dir, "logs")
	logger := logging.New(logging.Config{Quiet: true, LogDir: logDir, Service: "watchtest"})
	defer logger.Close()

	store, err := storage.NewFileStore(cfg.LibraryDir)
	require.NoError(t, err)
	tool, err := New(Options{
		Library: metadata.NewLibrary(store),
		Config:  &cfg,
		Logger:  logger,
	})
	require.NoError(t, err)

	sess := NewSession()
	mustExecute(t, tool, sess, "CREATE", Args{"file_name": "plasmid", "sequence": "atgc"})

	watcher, err := tool.WatchLibrary()
	require.NoError(t, err)
	defer watcher.Close()

	// a tool-driven edit keeps file and record in step, so the watcher
	// sees the write event but has nothing to say
	mustExecute(t, tool, sess, "APPEND", Args{"insert_sequence": "tga"})

	time.Sleep(3 * settleDelay)
	assert.NotContains(t, readLogs(t, logDir), "design file modified outside the tool")
}

// readLogs concatenates every log file the logger has produced so far.
func readLogs(t *testing.T, logDir string) string {
	t.Helper()
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, entry := range entries {
		raw, err := os.ReadFile(filepath.Join(logDir, entry.Name()))
		require.NoError(t, err)
		b.Write(raw)
	}
	return b.String()
}
