// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import (
	"context"
	"strings"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// =============================================================================
// INSERT
// =============================================================================

// InsertOperation splices a fragment into the current sequence at a
// position strictly inside the sequence.
type InsertOperation struct {
	args struct {
		Sequence string `arg:"insert_sequence" validate:"required"`
		Position int    `arg:"insert_position" validate:"gte=0"`
	}
}

func (*InsertOperation) Name() string      { return "INSERT" }
func (*InsertOperation) Kind() Kind        { return KindSequence }
func (*InsertOperation) NeedsDesign() bool { return true }

func (o *InsertOperation) Validate(t *Tool, args Args) error {
	seq, err := strArg("INSERT", args, "insert_sequence")
	if err != nil {
		return err
	}
	pos, err := intArg("INSERT", args, "insert_position")
	if err != nil {
		return err
	}
	o.args.Sequence = strings.ToLower(seq)
	o.args.Position = pos
	return checkArgs("INSERT", &o.args)
}

func (o *InsertOperation) Details() map[string]any {
	return map[string]any{
		"insert_position": o.args.Position,
		"insert_sequence": o.args.Sequence,
	}
}

func (o *InsertOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if o.args.Position >= len(x.Content) {
		return nil, boundsError("INSERT", "insert_position")
	}
	modified := x.Content[:o.args.Position] + o.args.Sequence + x.Content[o.args.Position:]
	return &Result{Content: modified}, nil
}

// =============================================================================
// APPEND
// =============================================================================

// AppendOperation tacks a fragment onto the end of the current sequence.
type AppendOperation struct {
	args struct {
		Sequence string `arg:"insert_sequence" validate:"required"`
	}
}

func (*AppendOperation) Name() string      { return "APPEND" }
func (*AppendOperation) Kind() Kind        { return KindSequence }
func (*AppendOperation) NeedsDesign() bool { return true }

func (o *AppendOperation) Validate(t *Tool, args Args) error {
	seq, err := strArg("APPEND", args, "insert_sequence")
	if err != nil {
		return err
	}
	o.args.Sequence = strings.ToLower(seq)
	return checkArgs("APPEND", &o.args)
}

func (o *AppendOperation) Details() map[string]any {
	return map[string]any{"insert_sequence": o.args.Sequence}
}

func (o *AppendOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	return &Result{Content: x.Content + o.args.Sequence}, nil
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteOperation removes the half-open range [start, end) from the
// current sequence.
type DeleteOperation struct {
	args struct {
		Start int `arg:"delete_start_position" validate:"gte=0"`
		End   int `arg:"delete_end_position" validate:"gte=0"`
	}
}

func (*DeleteOperation) Name() string      { return "DELETE" }
func (*DeleteOperation) Kind() Kind        { return KindSequence }
func (*DeleteOperation) NeedsDesign() bool { return true }

func (o *DeleteOperation) Validate(t *Tool, args Args) error {
	start, err := intArg("DELETE", args, "delete_start_position")
	if err != nil {
		return err
	}
	end, err := intArg("DELETE", args, "delete_end_position")
	if err != nil {
		return err
	}
	o.args.Start = start
	o.args.End = end
	return checkArgs("DELETE", &o.args)
}

func (o *DeleteOperation) Details() map[string]any {
	return map[string]any{
		"delete_start_position": o.args.Start,
		"delete_end_position":   o.args.End,
	}
}

func (o *DeleteOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if o.args.Start >= len(x.Content) {
		return nil, boundsError("DELETE", "delete_start_position")
	}
	if o.args.End >= len(x.Content) {
		return nil, boundsError("DELETE", "delete_end_position")
	}
	if o.args.Start > o.args.End {
		return nil, rangeError("DELETE", "delete_start_position", "delete_end_position")
	}
	modified := x.Content[:o.args.Start] + x.Content[o.args.End:]
	return &Result{Content: modified}, nil
}

// =============================================================================
// COPY
// =============================================================================

// CopyOperation lifts the range [start, end) of the current sequence
// into the session clipboard, remembering which record it came from.
// The design itself is untouched.
type CopyOperation struct {
	args struct {
		Start int `arg:"copy_start_index" validate:"gte=0"`
		End   int `arg:"copy_end_index" validate:"gte=0"`
	}
}

func (*CopyOperation) Name() string      { return "COPY" }
func (*CopyOperation) Kind() Kind        { return KindSequence }
func (*CopyOperation) NeedsDesign() bool { return true }

func (o *CopyOperation) Validate(t *Tool, args Args) error {
	start, err := intArg("COPY", args, "copy_start_index")
	if err != nil {
		return err
	}
	end, err := intArg("COPY", args, "copy_end_index")
	if err != nil {
		return err
	}
	o.args.Start = start
	o.args.End = end
	return checkArgs("COPY", &o.args)
}

func (o *CopyOperation) Details() map[string]any {
	return map[string]any{
		"copy_start_index": o.args.Start,
		"copy_end_index":   o.args.End,
	}
}

func (o *CopyOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if o.args.Start > o.args.End || o.args.End > len(x.Content) {
		return nil, rangeError("COPY", "copy_start_index", "copy_end_index")
	}
	x.Session.Clipboard = Clipboard{
		Text:       x.Content[o.args.Start:o.args.End],
		CopiedFrom: x.Meta.ID,
	}
	return nil, nil
}

// =============================================================================
// PASTE
// =============================================================================

// PasteOperation splices the clipboard fragment into the current
// sequence. The changelog entry records the pasted text and the id of
// the record it was copied from, which is how fragment provenance moves
// between designs.
type PasteOperation struct {
	position   int
	pastedText string
	copiedFrom string
}

func (*PasteOperation) Name() string      { return "PASTE" }
func (*PasteOperation) Kind() Kind        { return KindSequence }
func (*PasteOperation) NeedsDesign() bool { return true }

func (o *PasteOperation) Validate(t *Tool, args Args) error {
	pos, err := intArg("PASTE", args, "paste_position")
	if err != nil {
		return err
	}
	if pos < 0 {
		return metadata.NewValidationError("PASTE", "the paste_position argument must not be negative")
	}
	o.position = pos
	return nil
}

func (o *PasteOperation) Details() map[string]any {
	return map[string]any{
		"paste_position": o.position,
		"pasted_text":    o.pastedText,
		"copied_from":    o.copiedFrom,
	}
}

func (o *PasteOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if x.Session.Clipboard.Text == "" {
		return nil, metadata.NewValidationError("PASTE", "there is no text in the clipboard to paste")
	}
	if o.position >= len(x.Content) {
		return nil, boundsError("PASTE", "paste_position")
	}
	o.pastedText = x.Session.Clipboard.Text
	o.copiedFrom = x.Session.Clipboard.CopiedFrom
	modified := x.Content[:o.position] + o.pastedText + x.Content[o.position:]
	return &Result{Content: modified}, nil
}
