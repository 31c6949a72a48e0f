// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecordStore persists metadata records keyed by design name.
//
// Implementations must make Create fail with ErrRecordExists on a
// duplicate name and Update fail with ErrRecordNotFound on a missing one;
// the Library relies on those sentinels to classify failures. The
// reference implementation is storage.FileStore.
type RecordStore interface {
	// Create persists a new record. Fails with ErrRecordExists if a
	// record with the same design name is already stored.
	Create(ctx context.Context, meta *DesignMetadata) error

	// Get reads the full record for a design name. Fails with
	// ErrRecordNotFound if absent.
	Get(ctx context.Context, designName string) (*DesignMetadata, error)

	// Update replaces the full record. Fails with ErrRecordNotFound if no
	// record exists under the design name.
	Update(ctx context.Context, meta *DesignMetadata) error
}

// CreateParams are the caller-supplied fields of a new metadata record.
type CreateParams struct {
	// ParentMetadataID links a derived design to its source record. Empty
	// for designs with no lineage.
	ParentMetadataID string

	// DesignName is the record key. Required.
	DesignName string

	Author      string
	Description string

	// Content is the initial canonical design content; its checksum seeds
	// the record.
	Content string
}

// Library creates and mutates design metadata records.
//
// # Description
//
// Library is the only writer of metadata records. Creation happens exactly
// once per design; every subsequent mutation goes through AppendOperation,
// which is a full read-modify-write of the record: read everything,
// recompute the checksum, append exactly one changelog entry, write
// everything back. There is no partial-field update and no deletion path.
//
// # Thread Safety
//
// AppendOperation serializes on a per-record lock, so two concurrent
// appends to the same design cannot lose an entry; the second simply
// observes the first's write. This is a single-process guarantee only —
// two processes sharing a library directory still need an external
// single-writer discipline.
type Library struct {
	store RecordStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is stubbed in tests.
	now func() time.Time
}

// NewLibrary builds a Library over the given record store.
func NewLibrary(store RecordStore) *Library {
	return &Library{
		store: store,
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

// recordLock returns the mutex guarding one design name, creating it on
// first use. Locks are never removed; the set of designs in a session is
// small.
func (l *Library) recordLock(designName string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[designName]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[designName] = lock
	}
	return lock
}

// Create assigns a fresh id, computes the initial checksum, and persists a
// record with an empty changelog.
//
// A duplicate design name fails with ErrRecordExists before anything is
// written. An empty design name is a validation failure.
func (l *Library) Create(ctx context.Context, params CreateParams) (*DesignMetadata, error) {
	if params.DesignName == "" {
		return nil, NewValidationError("", "design name is required")
	}
	meta := &DesignMetadata{
		ID:               uuid.NewString(),
		ParentMetadataID: params.ParentMetadataID,
		DesignName:       params.DesignName,
		DesignChecksum:   Checksum(params.Content),
		Author:           params.Author,
		Description:      params.Description,
		LastUpdated:      l.now().Format(TimestampLayout),
		Changelog:        []DesignOperation{},
	}
	lock := l.recordLock(params.DesignName)
	lock.Lock()
	defer lock.Unlock()
	if err := l.store.Create(ctx, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// AppendOperation records one mutation of a design.
//
// # Description
//
// Under the record lock: reads the full existing record, recomputes the
// checksum over newContent, stamps LastUpdated, appends a single
// DesignOperation carrying the operation descriptor and the new->old
// patch, and writes the whole record back. After return, the stored
// checksum equals Checksum(newContent) — the central invariant.
//
// AppendOperation is not idempotent: invoking it twice for one logical
// edit duplicates the changelog entry. Callers own at-most-once execution.
//
// # Inputs
//
//   - designName: record key; the record must already exist.
//   - newContent: canonical content after the edit.
//   - operationCode: symbolic tag of the edit ("APPEND", "DELETE", ...).
//   - operationDetails: free-form operation parameters.
//   - change: reversible patch from ComputeDifference(oldContent,
//     newContent); empty when the content did not change.
func (l *Library) AppendOperation(ctx context.Context, designName, newContent, operationCode string, operationDetails map[string]any, change string) (*DesignMetadata, error) {
	lock := l.recordLock(designName)
	lock.Lock()
	defer lock.Unlock()

	meta, err := l.store.Get(ctx, designName)
	if err != nil {
		return nil, err
	}

	meta.LastUpdated = l.now().Format(TimestampLayout)
	meta.DesignChecksum = Checksum(newContent)
	meta.Changelog = append(meta.Changelog, DesignOperation{
		OperationCode:    operationCode,
		OperationDetails: operationDetails,
		Change:           change,
		Timestamp:        meta.LastUpdated,
		Tool:             ToolName,
	})

	if err := l.store.Update(ctx, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Import persists a record received from the transfer boundary as-is,
// preserving its id, lineage, and changelog. Like Create, it fails with
// ErrRecordExists if the design name is already taken: a record is created
// exactly once, whether by first creation or first import.
func (l *Library) Import(ctx context.Context, meta *DesignMetadata) error {
	if meta.DesignName == "" {
		return NewValidationError("", "imported record has no design name")
	}
	lock := l.recordLock(meta.DesignName)
	lock.Lock()
	defer lock.Unlock()
	return l.store.Create(ctx, meta)
}

// Get reads a record by design name.
func (l *Library) Get(ctx context.Context, designName string) (*DesignMetadata, error) {
	return l.store.Get(ctx, designName)
}
