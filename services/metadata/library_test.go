// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory RecordStore for Library tests. It deep-copies
// on the way in and out so tests catch accidental aliasing.
type memStore struct {
	mu      sync.Mutex
	records map[string]*DesignMetadata
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*DesignMetadata)}
}

func copyRecord(meta *DesignMetadata) *DesignMetadata {
	dup := *meta
	dup.Changelog = append([]DesignOperation(nil), meta.Changelog...)
	return &dup
}

func (s *memStore) Create(ctx context.Context, meta *DesignMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[meta.DesignName]; ok {
		return fmt.Errorf("%w: %s", ErrRecordExists, meta.DesignName)
	}
	s.records[meta.DesignName] = copyRecord(meta)
	return nil
}

func (s *memStore) Get(ctx context.Context, designName string) (*DesignMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.records[designName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, designName)
	}
	return copyRecord(meta), nil
}

func (s *memStore) Update(ctx context.Context, meta *DesignMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[meta.DesignName]; !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, meta.DesignName)
	}
	s.records[meta.DesignName] = copyRecord(meta)
	return nil
}

func TestLibrary_Create(t *testing.T) {
	lib := NewLibrary(newMemStore())
	lib.now = func() time.Time { return time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC) }

	meta, err := lib.Create(context.Background(), CreateParams{
		DesignName:  "sample_seq",
		Author:      "John Smith",
		Description: "demo plasmid",
		Content:     "atgc",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, meta.ID)
	assert.Empty(t, meta.ParentMetadataID)
	assert.Equal(t, "sample_seq", meta.DesignName)
	assert.Equal(t, Checksum("atgc"), meta.DesignChecksum)
	assert.Equal(t, "01/15/2025, 10:30:00", meta.LastUpdated)
	assert.NotNil(t, meta.Changelog)
	assert.Empty(t, meta.Changelog)
}

func TestLibrary_CreateDuplicateName(t *testing.T) {
	lib := NewLibrary(newMemStore())
	_, err := lib.Create(context.Background(), CreateParams{DesignName: "dup", Content: "atgc"})
	require.NoError(t, err)

	_, err = lib.Create(context.Background(), CreateParams{DesignName: "dup", Content: "gggg"})
	assert.ErrorIs(t, err, ErrRecordExists)
	assert.True(t, IsValidation(err))
}

func TestLibrary_CreateRequiresName(t *testing.T) {
	lib := NewLibrary(newMemStore())
	_, err := lib.Create(context.Background(), CreateParams{Content: "atgc"})
	assert.True(t, IsValidation(err))
}

func TestLibrary_AppendOperation(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(newMemStore())

	created, err := lib.Create(ctx, CreateParams{DesignName: "sample_seq", Content: "atgc"})
	require.NoError(t, err)

	patch := ComputeDifference("atgc", "atgctga")
	meta, err := lib.AppendOperation(ctx, "sample_seq", "atgctga", "APPEND",
		map[string]any{"insert_sequence": "tga"}, patch)
	require.NoError(t, err)

	// Identity and lineage are immutable across mutations.
	assert.Equal(t, created.ID, meta.ID)

	// Central invariant: stored checksum equals the checksum of the new
	// content immediately after the mutation.
	assert.Equal(t, Checksum("atgctga"), meta.DesignChecksum)

	require.Len(t, meta.Changelog, 1)
	op := meta.Changelog[0]
	assert.Equal(t, "APPEND", op.OperationCode)
	assert.Equal(t, ToolName, op.Tool)
	assert.Equal(t, meta.LastUpdated, op.Timestamp)
	assert.Equal(t, "tga", op.OperationDetails["insert_sequence"])

	// The stored patch undoes the operation.
	restored, err := ApplyPatch(op.Change, "atgctga")
	require.NoError(t, err)
	assert.Equal(t, "atgc", restored)
}

func TestLibrary_AppendOperationMissingRecord(t *testing.T) {
	lib := NewLibrary(newMemStore())
	_, err := lib.AppendOperation(context.Background(), "ghost", "atgc", "APPEND", nil, "")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLibrary_AppendIsFullReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(newMemStore())
	_, err := lib.Create(ctx, CreateParams{DesignName: "sample_seq", Content: "atgc"})
	require.NoError(t, err)

	contents := []string{"atgc", "atgctga", "gctga", "gctgaAA"}
	codes := []string{"APPEND", "DELETE", "APPEND"}
	for i, code := range codes {
		patch := ComputeDifference(contents[i], contents[i+1])
		_, err := lib.AppendOperation(ctx, "sample_seq", contents[i+1], code, nil, patch)
		require.NoError(t, err)
	}

	meta, err := lib.Get(ctx, "sample_seq")
	require.NoError(t, err)
	require.Len(t, meta.Changelog, 3)

	revs, err := Revisions(contents[len(contents)-1], meta.Changelog)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	for idx, rev := range revs {
		assert.Equal(t, contents[len(codes)-idx], rev.Design)
	}
}

func TestLibrary_ConcurrentAppendsLoseNothing(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(newMemStore())
	_, err := lib.Create(ctx, CreateParams{DesignName: "sample_seq", Content: "atgc"})
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Content-neutral operations: the point is changelog integrity
			// under contention, not patch arithmetic.
			_, err := lib.AppendOperation(ctx, "sample_seq", "atgc", "EXPORT", nil, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	meta, err := lib.Get(ctx, "sample_seq")
	require.NoError(t, err)
	assert.Len(t, meta.Changelog, writers, "an appended operation was silently lost")
}

func TestLibrary_Import(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(newMemStore())

	incoming := sampleRecord("atgc")
	require.NoError(t, lib.Import(ctx, incoming))

	got, err := lib.Get(ctx, "sample_seq")
	require.NoError(t, err)
	assert.Equal(t, incoming.ID, got.ID)

	// A record is created exactly once, whether by creation or import.
	err = lib.Import(ctx, sampleRecord("gggg"))
	assert.ErrorIs(t, err, ErrRecordExists)

	var emptyName DesignMetadata
	err = lib.Import(ctx, &emptyName)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}
