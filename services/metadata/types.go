// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metadata is the versioning core of the Biodesign Metadata Exchange.
//
// # Description
//
// This package tracks provenance and integrity of biological design
// artifacts (DNA sequences, protein structures) across a chain of edits.
// It owns four concerns:
//
//   - Content checksums (Checksum): the sole cross-boundary integrity anchor.
//   - Reversible text patches (ComputeDifference / ApplyPatch): each
//     changelog entry stores the difference in the new->old direction so
//     history can be replayed backward from the current content.
//   - The metadata record lifecycle (Library): create-once, append-only
//     changelog, full read-modify-write per mutation.
//   - The encrypted export/import boundary (Cipher): AES-CBC tokens moving
//     serialized metadata through an untrusted transfer area.
//
// Everything else in the repository (sequence edit operations, the
// interactive shell, the provider HTTP backend) is orchestration that calls
// into this package.
//
// # Thread Safety
//
// Checksum, ComputeDifference, ApplyPatch, and Revisions are pure functions.
// Library serializes mutations per record; see Library for details. Cipher
// is safe for concurrent use.
package metadata

// DesignMetadata is the versioning record of a single design artifact.
//
// The record is created exactly once per design (first creation or first
// import) and mutated exclusively by Library.AppendOperation. Field names
// are part of the wire format shared with existing JavaScript clients and
// previously exported tokens; do not rename the JSON keys.
type DesignMetadata struct {
	// ID is an opaque unique identifier, assigned at creation, immutable.
	ID string `json:"id"`

	// ParentMetadataID optionally references the record this design was
	// derived from (split, translation, backbone extraction). It is a soft
	// reference: nothing enforces that the parent record still exists.
	ParentMetadataID string `json:"parentMetadataId"`

	// DesignName is the human-assigned label and the record's storage key.
	DesignName string `json:"designName"`

	// DesignChecksum is Checksum() of the current design content. The
	// central invariant: it must equal the checksum of the content on disk
	// immediately after any mutation.
	DesignChecksum string `json:"designChecksum"`

	Author      string `json:"author"`
	Description string `json:"description"`

	// LastUpdated is the timestamp of the most recent mutation, in
	// TimestampLayout format.
	LastUpdated string `json:"lastUpdated"`

	// Changelog is the ordered, append-only list of operations applied to
	// the design since creation. Insertion order is significant.
	Changelog []DesignOperation `json:"changelog"`
}

// DesignOperation records one mutation of a design.
type DesignOperation struct {
	// OperationCode is the symbolic tag of the edit performed, e.g.
	// "APPEND" or "CODON_OPTIMIZATION".
	OperationCode string `json:"operationCode"`

	// OperationDetails is a free-form mapping describing the operation
	// parameters (insert position, organism, model settings, ...).
	OperationDetails map[string]any `json:"operationDetails"`

	// Change is the text patch encoding the reversible difference this
	// operation introduced, in the new->old direction. Empty if the
	// operation did not change the content.
	Change string `json:"change"`

	Timestamp string `json:"timestamp"`
	Tool      string `json:"tool"`
}

// Revision is a historical content snapshot reconstructed by replaying
// patches backward from the current content. Revision numbers count from 1
// (first recorded change) up to len(changelog) (most recent).
type Revision struct {
	Revision int    `json:"revision"`
	Design   string `json:"design"`

	OperationCode    string         `json:"operationCode"`
	OperationDetails map[string]any `json:"operationDetails"`
	Change           string         `json:"change"`
	Timestamp        string         `json:"timestamp"`
	Tool             string         `json:"tool"`
}

// RevisionHistory is the answer to a revision query: record identity plus
// the reconstructed revisions, ordered newest to oldest.
type RevisionHistory struct {
	ID               string     `json:"id"`
	ParentMetadataID string     `json:"parentMetadataId"`
	DesignName       string     `json:"designName"`
	Author           string     `json:"author"`
	Description      string     `json:"description"`
	LastUpdated      string     `json:"lastUpdated"`
	Revisions        []Revision `json:"revisions"`
}

// TimestampLayout is the wall-clock format used in LastUpdated and
// operation timestamps. Inherited from the first generation of exported
// records; kept for compatibility with tokens already in circulation.
const TimestampLayout = "01/02/2006, 15:04:05"

// ToolName identifies this tool in changelog provenance fields.
const ToolName = "BioDesign tool"
