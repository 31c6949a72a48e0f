// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package designtool is the design-editing front of the metadata engine.
//
// # Description
//
// The Tool executes named operations (CREATE, INSERT, EXPORT, ...)
// against design files in a library directory. Every executed operation
// is recorded in the design's metadata changelog with a reversible text
// patch, so any prior revision of the design can be reconstructed from
// the current content alone. Encrypted metadata tokens cross the
// export/import boundary next to the design files themselves.
//
// # Thread Safety
//
// A Tool is safe for concurrent use; per-design serialization is done by
// the metadata library. Sessions are per-caller and not synchronized.
package designtool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/config"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/logging"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// =============================================================================
// Tool
// =============================================================================

// Options configures a Tool. Library is required; everything else has a
// usable default.
type Options struct {
	// Library manages the metadata records.
	Library *metadata.Library

	// Config supplies the library and exported directories and the
	// default author stamped into new records.
	Config *config.Config

	// Cipher seals and opens metadata tokens at the export/import
	// boundary. May be nil; exporting or importing metadata then fails
	// with metadata.ErrKeyNotConfigured.
	Cipher *metadata.Cipher

	// Generator produces redesigned protein content. Defaults to the
	// mock generator.
	Generator Generator

	// Logger receives operation logs. Defaults to the process logger.
	Logger *logging.Logger
}

// Tool executes design operations. Build one with New and share it; all
// per-command state lives in the Session passed to Execute.
type Tool struct {
	lib    *metadata.Library
	cfg    config.Config
	cipher *metadata.Cipher
	gen    Generator
	logger *logging.Logger
}

// New builds a Tool and makes sure its library and exported directories
// exist.
func New(opts Options) (*Tool, error) {
	if opts.Library == nil {
		return nil, errors.New("designtool: Options.Library is required")
	}
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	gen := opts.Generator
	if gen == nil {
		gen = NewMockGenerator()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	for _, dir := range []string{cfg.LibraryDir, cfg.ExportedDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Tool{
		lib:    opts.Library,
		cfg:    cfg,
		cipher: opts.Cipher,
		gen:    gen,
		logger: logger,
	}, nil
}

// Library exposes the metadata library the tool writes through.
func (t *Tool) Library() *metadata.Library { return t.lib }

// LibraryDir is the directory design files live in.
func (t *Tool) LibraryDir() string { return t.cfg.LibraryDir }

// ExportedDir is the directory EXPORT writes to.
func (t *Tool) ExportedDir() string { return t.cfg.ExportedDir }

// =============================================================================
// Execution pipeline
// =============================================================================

// Exec is the loaded state an operation applies against: the current
// design's name, kind, canonical content and metadata record.
type Exec struct {
	Tool    *Tool
	Session *Session

	Design string
	Kind   Kind

	// Content is the canonical content of the design file, or "" when
	// the file does not exist yet (CREATE).
	Content string
	Exists  bool

	// Meta is the design's metadata record, or nil when none exists yet.
	Meta *metadata.DesignMetadata
}

// Execute runs one named operation with raw key=value arguments.
//
// The pipeline is fixed: resolve the operation, check the session,
// validate arguments, establish the current design for opening
// operations, run the pre hook, load the design and its record, apply,
// persist new content, append the changelog entry, then run the post
// hook. Argument and state problems come back as *metadata.ValidationError;
// everything else is an execution failure.
func (t *Tool) Execute(ctx context.Context, sess *Session, name string, args Args) error {
	factory, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	op := factory()

	if op.NeedsDesign() && !sess.HasDesign() {
		return metadata.NewValidationError(name,
			"%s operation requires a current design; use IMPORT, CREATE, OPEN, CREATE_PROTEIN, or OPEN_PROTEIN first", name)
	}
	if err := op.Validate(t, args); err != nil {
		return err
	}
	if o, ok := op.(opener); ok {
		designName, kind := o.OpensDesign()
		sess.Open(designName, kind)
	}
	if pre, ok := op.(preExecer); ok {
		if err := pre.PreExecute(ctx, t, sess); err != nil {
			return err
		}
	}

	x, err := t.load(ctx, sess, op.Kind())
	if err != nil {
		return err
	}
	if op.NeedsDesign() && !x.Exists {
		return metadata.NewValidationError(name, "the design file for %s is missing from the library", x.Design)
	}

	res, err := op.Apply(ctx, x)
	if err != nil {
		return err
	}

	content, change := x.Content, ""
	if res != nil {
		if x.Exists {
			change = metadata.ComputeDifference(x.Content, res.Content)
		}
		if err := t.writeDesign(x.Design, x.Kind, res.Content); err != nil {
			return err
		}
		content = res.Content
	}

	meta, err := t.lib.AppendOperation(ctx, x.Design, content, op.Name(), op.Details(), change)
	if err != nil {
		return err
	}
	sess.CurrentMetadataID = meta.ID
	x.Meta = meta
	x.Content = content

	if post, ok := op.(postExecer); ok {
		if err := post.PostExecute(ctx, x); err != nil {
			return err
		}
	}

	t.logger.Info("operation executed",
		"operation", op.Name(),
		"design", x.Design,
		"kind", x.Kind.String(),
		"operations", len(meta.Changelog))
	return nil
}

// load reads the session's current design and makes sure a metadata
// record exists for it whenever the design file does.
func (t *Tool) load(ctx context.Context, sess *Session, kind Kind) (*Exec, error) {
	x := &Exec{
		Tool:    t,
		Session: sess,
		Design:  sess.CurrentDesign,
		Kind:    kind,
	}
	content, exists, err := t.readDesign(x.Design, kind)
	if err != nil {
		return nil, err
	}
	x.Content, x.Exists = content, exists
	if !exists {
		return x, nil
	}
	meta, err := t.ensureMetadata(ctx, x.Design, content, "")
	if err != nil {
		return nil, err
	}
	x.Meta = meta
	return x, nil
}

// ensureMetadata returns the design's record, creating it first if the
// design has never been tracked.
func (t *Tool) ensureMetadata(ctx context.Context, designName, content, parentID string) (*metadata.DesignMetadata, error) {
	meta, err := t.lib.Get(ctx, designName)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, metadata.ErrRecordNotFound) {
		return nil, err
	}
	return t.lib.Create(ctx, metadata.CreateParams{
		ParentMetadataID: parentID,
		DesignName:       designName,
		Author:           t.cfg.Author,
		Description:      "",
		Content:          content,
	})
}

// =============================================================================
// Design file access
// =============================================================================

// designPath is the library path of a design file.
func (t *Tool) designPath(designName string, kind Kind) string {
	return filepath.Join(t.cfg.LibraryDir, designName+kind.Ext())
}

// designExists reports whether a design file is present in the library.
func (t *Tool) designExists(designName string, kind Kind) bool {
	_, err := os.Stat(t.designPath(designName, kind))
	return err == nil
}

// readDesign loads a design file's canonical content. A missing file is
// not an error; exists is false.
func (t *Tool) readDesign(designName string, kind Kind) (content string, exists bool, err error) {
	raw, err := os.ReadFile(t.designPath(designName, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading design %s: %w", designName, err)
	}
	content, err = codecFor(kind).Decode(raw)
	if err != nil {
		return "", false, fmt.Errorf("decoding design %s: %w", designName, err)
	}
	return content, true, nil
}

// writeDesign persists canonical content as the design's library file.
func (t *Tool) writeDesign(designName string, kind Kind, content string) error {
	raw, err := codecFor(kind).Encode(content)
	if err != nil {
		return fmt.Errorf("encoding design %s: %w", designName, err)
	}
	if err := os.WriteFile(t.designPath(designName, kind), raw, 0o640); err != nil {
		return fmt.Errorf("writing design %s: %w", designName, err)
	}
	return nil
}

// createDerived creates a new design descended from the current one and,
// for sequence designs, exports it right away. It runs the real CREATE
// and EXPORT operations under a scratch session so derived designs get
// the same changelog treatment as user-made ones.
func (t *Tool) createDerived(ctx context.Context, kind Kind, designName, content, source, parentID string, export bool) error {
	sub := NewSession()
	createOp, contentKey := "CREATE", "sequence"
	if kind == KindProtein {
		createOp, contentKey = "CREATE_PROTEIN", "pdb_string"
	}
	err := t.Execute(ctx, sub, createOp, Args{
		"file_name":          designName,
		contentKey:           content,
		"source":             source,
		"metadata_parent_id": parentID,
	})
	if err != nil {
		return err
	}
	if !export {
		return nil
	}
	exportOp := "EXPORT"
	if kind == KindProtein {
		exportOp = "EXPORT_PROTEIN"
	}
	return t.Execute(ctx, sub, exportOp, Args{"include_metadata": "true"})
}

// designBaseName strips the directory and extension off a design path,
// leaving the library design name.
func designBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
