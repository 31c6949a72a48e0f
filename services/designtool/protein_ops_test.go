// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// pdbFixture builds a minimal structure with one residue per line set,
// mixing backbone and side-chain atoms.
func pdbFixture() string {
	lines := []string{
		pdbAtomLine(1, "N", "MET", "A", 1),
		pdbAtomLine(2, "CA", "MET", "A", 1),
		pdbAtomLine(3, "CB", "MET", "A", 1),
		pdbAtomLine(4, "C", "MET", "A", 1),
		pdbAtomLine(5, "O", "MET", "A", 1),
		pdbAtomLine(6, "N", "LYS", "A", 2),
		pdbAtomLine(7, "CA", "LYS", "A", 2),
		pdbAtomLine(8, "CG", "LYS", "A", 2),
		pdbAtomLine(9, "N", "VAL", "A", 3),
		pdbAtomLine(10, "CA", "VAL", "A", 3),
		"TER",
		"END",
	}
	return strings.Join(lines, "\n")
}

// pdbAtomLine renders one fixed-column ATOM record: atom name in
// columns 13-16, residue name in 18-20, chain in 22, residue number in
// 23-26.
func pdbAtomLine(serial int, atom, residue, chain string, resNum int) string {
	return fmt.Sprintf("ATOM  %5d %-4s %3s %1s%4d      11.104  13.207   9.559  1.00  0.00",
		serial, atom, residue, chain, resNum)
}

func TestCreateOpenProtein_Flow(t *testing.T) {
	tool, sess := newTestTool(t)
	pdb := pdbFixture()
	mustExecute(t, tool, sess, "CREATE_PROTEIN", Args{
		"file_name":  "enzyme",
		"pdb_string": pdb,
	})

	assert.Equal(t, "enzyme", sess.CurrentDesign)
	assert.Equal(t, KindProtein, sess.CurrentKind)
	// protein content is stored verbatim, no case folding
	assert.Equal(t, pdb, designContent(t, tool, "enzyme", KindProtein))

	meta := record(t, tool, "enzyme")
	assert.Equal(t, metadata.Checksum(pdb), meta.DesignChecksum)
	require.Len(t, meta.Changelog, 1)
	assert.Equal(t, "CREATE_PROTEIN", meta.Changelog[0].OperationCode)

	other := NewSession()
	mustExecute(t, tool, other, "OPEN_PROTEIN", Args{"file_name": "enzyme"})
	assert.Equal(t, "enzyme", other.CurrentDesign)
	assert.Equal(t, KindProtein, other.CurrentKind)
}

func TestOpenProtein_MissingFileRejected(t *testing.T) {
	tool, sess := newTestTool(t)
	err := tool.Execute(context.Background(), sess, "OPEN_PROTEIN", Args{"file_name": "ghost"})
	require.Error(t, err)
	assert.True(t, metadata.IsValidation(err))
}

func TestExportProtein_CopiesFileAndToken(t *testing.T) {
	tool, sess := newTestTool(t)
	mustExecute(t, tool, sess, "CREATE_PROTEIN", Args{
		"file_name":  "enzyme",
		"pdb_string": pdbFixture(),
	})
	mustExecute(t, tool, sess, "EXPORT_PROTEIN", Args{"include_metadata": "true"})

	assert.FileExists(t, filepath.Join(tool.ExportedDir(), "enzyme.pdb"))
	assert.FileExists(t, filepath.Join(tool.ExportedDir(), "metadata_enzyme.txt"))

	meta := record(t, tool, "enzyme")
	require.Len(t, meta.Changelog, 2)
	assert.Equal(t, "EXPORT_PROTEIN", meta.Changelog[1].OperationCode)
}

func TestExtractBackbone_FiltersAtoms(t *testing.T) {
	tool, sess := newTestTool(t)
	mustExecute(t, tool, sess, "CREATE_PROTEIN", Args{
		"file_name":  "enzyme",
		"pdb_string": pdbFixture(),
	})
	parentID := sess.CurrentMetadataID

	mustExecute(t, tool, sess, "EXTRACT_BACKBONE", Args{"output_file_name": "enzyme_bb"})

	backbone := designContent(t, tool, "enzyme_bb", KindProtein)
	lines := strings.Split(backbone, "\n")
	// fixture has 8 backbone atoms out of 10; TER and END are dropped
	assert.Len(t, lines, 8)
	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, "ATOM"))
		atom := strings.TrimSpace(line[12:16])
		assert.Contains(t, []string{"N", "CA", "C", "O"}, atom)
	}

	derived := record(t, tool, "enzyme_bb")
	assert.Equal(t, parentID, derived.ParentMetadataID)
	require.Len(t, derived.Changelog, 1)
	assert.Equal(t, "CREATE_PROTEIN", derived.Changelog[0].OperationCode)
	assert.Equal(t, "tool_extract_backbone_operation", derived.Changelog[0].OperationDetails["source"])
}

func TestRedesignInterface_CreatesDerivedStructure(t *testing.T) {
	tool, sess := newTestTool(t)
	mustExecute(t, tool, sess, "CREATE_PROTEIN", Args{
		"file_name":  "complex",
		"pdb_string": pdbFixture(),
	})
	parentID := sess.CurrentMetadataID

	mustExecute(t, tool, sess, "REDESIGN_INTERFACE", Args{
		"model":       "mpnn",
		"mode":        "interface",
		"num_designs": "1",
		"temperature": "0.2",
	})

	derived := record(t, tool, "complex_backbone")
	assert.Equal(t, parentID, derived.ParentMetadataID)
	redesigned := designContent(t, tool, "complex_backbone", KindProtein)
	// same line structure, residues possibly swapped
	assert.Len(t, strings.Split(redesigned, "\n"), len(strings.Split(pdbFixture(), "\n")))

	meta := record(t, tool, "complex")
	last := meta.Changelog[len(meta.Changelog)-1]
	assert.Equal(t, "REDESIGN_INTERFACE", last.OperationCode)
	assert.Equal(t, "mpnn", last.OperationDetails["model"])
}

func TestDesignProtein_CreatesVariantDesigns(t *testing.T) {
	tool, sess := newTestTool(t)
	mustExecute(t, tool, sess, "CREATE_PROTEIN", Args{
		"file_name":  "scaffold",
		"pdb_string": pdbFixture(),
	})
	parentID := sess.CurrentMetadataID

	mustExecute(t, tool, sess, "DESIGN_PROTEIN", Args{
		"num_seq_per_target": "3",
		"sampling_temp":      "0.1",
		"interface_cutoff":   "8.0",
		"model":              "mpnn",
	})

	for i := 0; i < designProteinVariants; i++ {
		name := fmt.Sprintf("scaffold_design_%d", i)
		variant := record(t, tool, name)
		assert.Equal(t, parentID, variant.ParentMetadataID, "variant %s", name)
		content := designContent(t, tool, name, KindProtein)
		// fixture has three residues, variants are aa sequences
		assert.Len(t, content, 3)
	}
}

func TestCalculateProteinMetrics_RecordsScores(t *testing.T) {
	tool, sess := newTestTool(t)
	mustExecute(t, tool, sess, "CREATE_PROTEIN", Args{
		"file_name":  "enzyme",
		"pdb_string": pdbFixture(),
	})
	checksum := record(t, tool, "enzyme").DesignChecksum

	mustExecute(t, tool, sess, "CALCULATE_PROTEIN_METRICS", Args{
		"energy_minimization": "true",
		"interface_scoring":   "true",
		"predict_stability":   "false",
		"models":              "mpnn,rosetta",
	})

	meta := record(t, tool, "enzyme")
	assert.Equal(t, checksum, meta.DesignChecksum)
	last := meta.Changelog[len(meta.Changelog)-1]
	assert.Equal(t, "CALCULATE_PROTEIN_METRICS", last.OperationCode)
	assert.Empty(t, last.Change)

	for _, key := range []string{"energy_minimization_score", "interface_scoring_score", "predict_stability_score"} {
		score, ok := last.OperationDetails[key].(float64)
		require.True(t, ok, "missing score %s", key)
		assert.GreaterOrEqual(t, score, 0.8)
		assert.Less(t, score, 1.0)
	}
}
