// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(content string) *DesignMetadata {
	return &DesignMetadata{
		ID:             "3e9f9d9a-4f4a-4b6e-9a3c-0d9a3f1a2b3c",
		DesignName:     "sample_seq",
		DesignChecksum: Checksum(content),
		Author:         "John Smith",
		LastUpdated:    "01/15/2025, 10:30:00",
		Changelog:      []DesignOperation{},
	}
}

func TestEncryptRecord_RoundTrip(t *testing.T) {
	c := testCipher(t)
	meta := sampleRecord("atgc")

	token, err := c.EncryptRecord(meta)
	require.NoError(t, err)

	got, err := c.DecryptRecord(token)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestDecryptRecord_NotARecord(t *testing.T) {
	c := testCipher(t)
	token, err := c.Encrypt("this is not json")
	require.NoError(t, err)

	_, err = c.DecryptRecord(token)
	assert.Error(t, err)
}

func TestMatches_AcceptsEqualChecksums(t *testing.T) {
	c := testCipher(t)
	token, err := c.EncryptRecord(sampleRecord("atgc"))
	require.NoError(t, err)

	result, err := c.Matches("atgc", token)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Empty(t, result.Message)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "sample_seq", result.Metadata.DesignName)
}

func TestMatches_CaseFoldedContentStillMatches(t *testing.T) {
	c := testCipher(t)
	token, err := c.EncryptRecord(sampleRecord("atgc"))
	require.NoError(t, err)

	result, err := c.Matches("ATGC", token)
	require.NoError(t, err)
	assert.True(t, result.Match)
}

func TestMatches_RejectsMismatch(t *testing.T) {
	c := testCipher(t)
	token, err := c.EncryptRecord(sampleRecord("atgc"))
	require.NoError(t, err)

	// Content hashing to a different digest must never be accepted.
	result, err := c.Matches("atgg", token)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.NotEmpty(t, result.Message)
	require.NotNil(t, result.Metadata)
}

func TestMatches_DecryptionFailurePropagates(t *testing.T) {
	c := testCipher(t)
	_, err := c.Matches("atgc", "not a token")
	assert.Error(t, err)
}
