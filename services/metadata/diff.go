// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ComputeDifference produces a reversible text patch between two content
// versions.
//
// # Description
//
// The patch is serialized in diff-match-patch text format and encodes the
// transformation from newContent BACK to originalContent. The direction is
// deliberate and load-bearing: changelog entries store these patches, and
// Revisions walks the changelog backward from the present, undoing one
// entry at a time. Storing new->old means no historical snapshots are
// needed.
//
// The round-trip law is the contract:
//
//	ApplyPatch(ComputeDifference(a, b), b) == a
//
// Do not infer direction from argument names; validate against the law.
func ComputeDifference(originalContent, newContent string) string {
	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(newContent, originalContent)
	return dmp.PatchToText(patches)
}

// ApplyPatch applies a previously serialized patch to content.
//
// An empty patch is a no-op. If any hunk fails to apply the result is
// rejected wholesale with ErrPatchApply: a partially restored design is
// worse than none, because its checksum would match nothing.
func ApplyPatch(patch, content string) (string, error) {
	if patch == "" {
		return content, nil
	}
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patch)
	if err != nil {
		return "", fmt.Errorf("parse patch: %w", err)
	}
	result, applied := dmp.PatchApply(patches, content)
	for i, ok := range applied {
		if !ok {
			return "", fmt.Errorf("%w: hunk %d of %d", ErrPatchApply, i+1, len(applied))
		}
	}
	return result, nil
}
