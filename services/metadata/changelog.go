// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import "fmt"

// Revisions reconstructs the full ordered history of a design from its
// current content and changelog.
//
// # Description
//
// Let the changelog have n entries in chronological order. The walk starts
// at the current content and moves backward: entry n is emitted as revision
// n with the current content, then its patch (stored new->old, see
// ComputeDifference) is applied to step the content back to the state
// before that entry, and so on down to revision 1. Entries with an empty
// Change leave the content untouched, which is how metadata-only
// operations (export, metric calculation) appear in history.
//
// The creation content itself is not a changelog entry: a record mutated n
// times yields exactly n revisions, numbered n down to 1, newest first.
//
// # Inputs
//
//   - currentContent: canonical string content of the design as it is now.
//   - changelog: the record's changelog, chronological order.
//
// # Outputs
//
// Revisions ordered newest to oldest, or an error if a stored patch fails
// to apply (a truncated or hand-edited record).
func Revisions(currentContent string, changelog []DesignOperation) ([]Revision, error) {
	revisions := make([]Revision, 0, len(changelog))
	content := currentContent
	for i := len(changelog) - 1; i >= 0; i-- {
		op := changelog[i]
		revisions = append(revisions, Revision{
			Revision:         i + 1,
			Design:           content,
			OperationCode:    op.OperationCode,
			OperationDetails: op.OperationDetails,
			Change:           op.Change,
			Timestamp:        op.Timestamp,
			Tool:             op.Tool,
		})
		if op.Change != "" {
			prev, err := ApplyPatch(op.Change, content)
			if err != nil {
				return nil, fmt.Errorf("undo changelog entry %d (%s): %w", i+1, op.OperationCode, err)
			}
			content = prev
		}
	}
	return revisions, nil
}

// History pairs a record with its reconstructed revisions for the revision
// query surface.
func History(meta *DesignMetadata, currentContent string) (*RevisionHistory, error) {
	revs, err := Revisions(currentContent, meta.Changelog)
	if err != nil {
		return nil, err
	}
	return &RevisionHistory{
		ID:               meta.ID,
		ParentMetadataID: meta.ParentMetadataID,
		DesignName:       meta.DesignName,
		Author:           meta.Author,
		Description:      meta.Description,
		LastUpdated:      meta.LastUpdated,
		Revisions:        revs,
	}, nil
}
