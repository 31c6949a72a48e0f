// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// Watcher observes the library directory and warns when a tracked
// design file is rewritten by something other than the tool, which
// leaves its recorded checksum stale until the next operation.
//
// # Thread Safety
//
// The event loop runs on its own goroutine. Close is safe to call once
// from any goroutine and waits for the loop to drain.
type Watcher struct {
	tool *Tool
	fs   *fsnotify.Watcher
	wg   sync.WaitGroup
}

// WatchLibrary starts watching the tool's library directory for outside
// edits to design files.
func (t *Tool) WatchLibrary() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(t.cfg.LibraryDir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		tool: t,
		fs:   fsw,
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its event loop to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.checkFile(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.tool.logger.Error("library watcher error", "error", err)
		}
	}
}

// settleDelay is how long checkFile waits before deciding a mismatch is
// real. The tool writes the design file a moment before it updates the
// record, and outside writers may not be done either; one recheck after
// the delay filters both.
const settleDelay = 200 * time.Millisecond

// checkFile compares a design file's content against the checksum its
// record carries and warns when they stay out of agreement.
func (w *Watcher) checkFile(path string) {
	kind, ok := kindForFile(path)
	if !ok {
		return
	}
	designName := designBaseName(path)
	if !w.stale(designName, kind, path) {
		return
	}
	time.Sleep(settleDelay)
	if !w.stale(designName, kind, path) {
		return
	}
	content, exists, err := w.tool.readDesign(designName, kind)
	if err != nil || !exists {
		return
	}
	meta, err := w.tool.lib.Get(context.Background(), designName)
	if err != nil {
		return
	}
	w.tool.logger.Warn("design file modified outside the tool",
		"design", designName,
		"path", path,
		"recorded_checksum", meta.DesignChecksum,
		"file_checksum", metadata.Checksum(content))
}

// stale reports whether the design file's checksum disagrees with its
// record. Missing files and untracked designs are never stale.
func (w *Watcher) stale(designName string, kind Kind, path string) bool {
	content, exists, err := w.tool.readDesign(designName, kind)
	if err != nil || !exists {
		return false
	}
	meta, err := w.tool.lib.Get(context.Background(), designName)
	if err != nil {
		if !errors.Is(err, metadata.ErrRecordNotFound) {
			w.tool.logger.Error("library watcher record read failed", "design", designName, "error", err)
		}
		return false
	}
	return metadata.Checksum(content) != meta.DesignChecksum
}

// kindForFile maps a library file path to its design kind by extension.
func kindForFile(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case KindSequence.Ext():
		return KindSequence, true
	case KindProtein.Ext():
		return KindProtein, true
	default:
		return KindSequence, false
	}
}
