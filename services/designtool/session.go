// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

// Clipboard holds a fragment lifted out of a design by COPY, plus the
// metadata id of the record it was copied from so PASTE can record
// provenance in the changelog.
type Clipboard struct {
	Text       string
	CopiedFrom string
}

// Session is the mutable editing state owned by one caller of the tool:
// the current design, its kind, the clipboard and the id of the metadata
// record the last operation touched.
//
// # Thread Safety
//
// A Session is not safe for concurrent use. Each caller (a shell, a test)
// owns its own Session; the Tool itself holds no per-caller state.
type Session struct {
	CurrentDesign     string
	CurrentKind       Kind
	CurrentMetadataID string
	Clipboard         Clipboard
}

// NewSession returns an empty session with no current design.
func NewSession() *Session {
	return &Session{}
}

// Open makes the named design the session's current design.
func (s *Session) Open(name string, kind Kind) {
	s.CurrentDesign = name
	s.CurrentKind = kind
}

// Close drops the current design, the clipboard and the tracked metadata
// id. The library itself is untouched.
func (s *Session) Close() {
	s.CurrentDesign = ""
	s.CurrentKind = KindSequence
	s.CurrentMetadataID = ""
	s.Clipboard = Clipboard{}
}

// HasDesign reports whether the session has a current design.
func (s *Session) HasDesign() bool {
	return s.CurrentDesign != ""
}
