// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/designtool"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantArgs designtool.Args
		wantErr  bool
	}{
		{
			name:     "bare operation",
			line:     "EXPORT",
			wantName: "EXPORT",
			wantArgs: designtool.Args{},
		},
		{
			name:     "operation with arguments",
			line:     "CREATE file_name=vector sequence=atgc",
			wantName: "CREATE",
			wantArgs: designtool.Args{"file_name": "vector", "sequence": "atgc"},
		},
		{
			name:     "value containing equals",
			line:     "CREATE file_name=a=b",
			wantName: "CREATE",
			wantArgs: designtool.Args{"file_name": "a=b"},
		},
		{
			name:    "argument without equals",
			line:    "CREATE file_name",
			wantErr: true,
		},
		{
			name:    "empty key",
			line:    "CREATE =value",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := parseCommand(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestLibraryContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vector.gb"), []byte("ATGC\n"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "complex.pdb"), []byte("ATOM\nEND\n"), 0o640))

	content, kind, err := libraryContent(dir, "vector")
	require.NoError(t, err)
	assert.Equal(t, designtool.KindSequence, kind)
	assert.Equal(t, "atgc", content, "sequences are canonicalized to lowercase")

	content, kind, err = libraryContent(dir, "complex")
	require.NoError(t, err)
	assert.Equal(t, designtool.KindProtein, kind)
	assert.Equal(t, "ATOM\nEND\n", content, "protein structures are verbatim")

	_, _, err = libraryContent(dir, "missing")
	require.Error(t, err)
}
