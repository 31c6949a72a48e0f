// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orderlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AppendFillsIdentity(t *testing.T) {
	ledger, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer ledger.Close()

	placed, err := ledger.Append(context.Background(), Order{
		DesignName:     "vector",
		DesignChecksum: "abc123",
		MetadataID:     "meta-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, placed.ID)
	assert.False(t, placed.PlacedAt.IsZero())
	assert.Equal(t, "vector", placed.DesignName)
}

func TestLedger_ListReturnsPlacementOrder(t *testing.T) {
	ledger, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer ledger.Close()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		_, err := ledger.Append(ctx, Order{
			DesignName: name,
			PlacedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	orders, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "first", orders[0].DesignName)
	assert.Equal(t, "second", orders[1].DesignName)
	assert.Equal(t, "third", orders[2].DesignName)
}

func TestLedger_DiskPersistence(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.SyncWrites = false

	ledger, err := Open(cfg)
	require.NoError(t, err)
	_, err = ledger.Append(context.Background(), Order{DesignName: "persisted"})
	require.NoError(t, err)
	require.NoError(t, ledger.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	orders, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "persisted", orders[0].DesignName)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}
