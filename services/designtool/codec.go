// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import "strings"

// Kind distinguishes the two design families the tool edits. Each kind
// has its own file extension and canonicalization rules.
type Kind int

const (
	// KindSequence is a nucleotide design, stored as a .gb file.
	KindSequence Kind = iota
	// KindProtein is a protein structure, stored as a .pdb file.
	KindProtein
)

// Ext returns the library file extension for the kind, dot included.
func (k Kind) Ext() string {
	if k == KindProtein {
		return ".pdb"
	}
	return ".gb"
}

func (k Kind) String() string {
	if k == KindProtein {
		return "protein"
	}
	return "sequence"
}

// Codec converts between the bytes of a design file and the canonical
// string content that checksums, diffs and operations work on. Richer
// format-aware codecs can be plugged in without touching the operations.
type Codec interface {
	// Decode canonicalizes raw file bytes into design content.
	Decode(raw []byte) (string, error)

	// Encode renders design content back into file bytes.
	Encode(content string) ([]byte, error)
}

// codecFor returns the reference codec for a design kind.
func codecFor(kind Kind) Codec {
	if kind == KindProtein {
		return proteinCodec{}
	}
	return sequenceCodec{}
}

// sequenceCodec treats a .gb file as plain sequence text. Content is
// case-folded to lowercase on both paths so that the sequence a checksum
// sees is identical no matter how the file was written.
type sequenceCodec struct{}

func (sequenceCodec) Decode(raw []byte) (string, error) {
	return strings.ToLower(strings.TrimSpace(string(raw))), nil
}

func (sequenceCodec) Encode(content string) ([]byte, error) {
	return []byte(strings.ToLower(content)), nil
}

// proteinCodec passes .pdb bytes through verbatim. PDB columns are
// position-sensitive, so no trimming or folding is applied.
type proteinCodec struct{}

func (proteinCodec) Decode(raw []byte) (string, error) {
	return string(raw), nil
}

func (proteinCodec) Encode(content string) ([]byte, error) {
	return []byte(content), nil
}
