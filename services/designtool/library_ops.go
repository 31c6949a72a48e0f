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
	"os"
	"path/filepath"
	"strings"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// =============================================================================
// CREATE
// =============================================================================

// CreateOperation makes a brand-new sequence design in the library and
// becomes its first changelog entry.
type CreateOperation struct {
	args struct {
		FileName string `arg:"file_name" validate:"required"`
		Sequence string `arg:"sequence" validate:"required"`
		Source   string `arg:"source"`
		ParentID string `arg:"metadata_parent_id"`
	}
}

func (*CreateOperation) Name() string      { return "CREATE" }
func (*CreateOperation) Kind() Kind        { return KindSequence }
func (*CreateOperation) NeedsDesign() bool { return false }

func (o *CreateOperation) Validate(t *Tool, args Args) error {
	fileName, err := strArg("CREATE", args, "file_name")
	if err != nil {
		return err
	}
	sequence, err := strArg("CREATE", args, "sequence")
	if err != nil {
		return err
	}
	o.args.FileName = fileName
	o.args.Sequence = strings.ToLower(sequence)
	o.args.Source = optArg(args, "source", "command_line")
	o.args.ParentID = optArg(args, "metadata_parent_id", "")
	if err := checkArgs("CREATE", &o.args); err != nil {
		return err
	}
	if t.designExists(fileName, KindSequence) {
		return metadata.NewValidationError("CREATE", "a file with the name %s%s already exists", fileName, KindSequence.Ext())
	}
	return nil
}

func (o *CreateOperation) OpensDesign() (string, Kind) {
	return o.args.FileName, KindSequence
}

func (o *CreateOperation) Details() map[string]any {
	return map[string]any{
		"file_name": o.args.FileName,
		"source":    o.args.Source,
	}
}

func (o *CreateOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if _, err := x.Tool.ensureMetadata(ctx, x.Design, o.args.Sequence, o.args.ParentID); err != nil {
		return nil, err
	}
	return &Result{Content: o.args.Sequence}, nil
}

// =============================================================================
// OPEN
// =============================================================================

// OpenOperation makes an existing library sequence the current design.
// Opening an untracked file creates its metadata record on the spot, so
// even designs dropped into the library by hand pick up a changelog.
type OpenOperation struct {
	args struct {
		FileName string `arg:"file_name" validate:"required"`
		ParentID string `arg:"metadata_parent_id"`
	}
}

func (*OpenOperation) Name() string      { return "OPEN" }
func (*OpenOperation) Kind() Kind        { return KindSequence }
func (*OpenOperation) NeedsDesign() bool { return false }

func (o *OpenOperation) Validate(t *Tool, args Args) error {
	fileName, err := strArg("OPEN", args, "file_name")
	if err != nil {
		return err
	}
	o.args.FileName = fileName
	o.args.ParentID = optArg(args, "metadata_parent_id", "")
	if !t.designExists(fileName, KindSequence) {
		return metadata.NewValidationError("OPEN", "a file with the name %s%s doesn't exist", fileName, KindSequence.Ext())
	}
	return nil
}

func (o *OpenOperation) OpensDesign() (string, Kind) {
	return o.args.FileName, KindSequence
}

func (o *OpenOperation) Details() map[string]any {
	return map[string]any{"file_name": o.args.FileName}
}

func (o *OpenOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	return nil, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportOperation brings an exported design and its encrypted metadata
// token into the library. The token is decrypted and its recorded
// checksum compared against the design content before anything is
// written; a mismatch rejects the import wholesale.
type ImportOperation struct {
	args struct {
		DesignPath   string `arg:"design_path" validate:"required"`
		MetadataPath string `arg:"metadata_path" validate:"required"`
	}
}

func (*ImportOperation) Name() string      { return "IMPORT" }
func (*ImportOperation) Kind() Kind        { return KindSequence }
func (*ImportOperation) NeedsDesign() bool { return false }

func (o *ImportOperation) Validate(t *Tool, args Args) error {
	designPath, err := strArg("IMPORT", args, "design_path")
	if err != nil {
		return err
	}
	metadataPath, err := strArg("IMPORT", args, "metadata_path")
	if err != nil {
		return err
	}
	for _, path := range []string{designPath, metadataPath} {
		if _, err := os.Stat(path); err != nil {
			return metadata.NewValidationError("IMPORT", "the file %s doesn't exist", path)
		}
	}
	o.args.DesignPath = designPath
	o.args.MetadataPath = metadataPath
	return nil
}

func (o *ImportOperation) OpensDesign() (string, Kind) {
	return designBaseName(o.args.DesignPath), KindSequence
}

func (o *ImportOperation) Details() map[string]any {
	return map[string]any{
		"design_path":   o.args.DesignPath,
		"metadata_path": o.args.MetadataPath,
		"source":        "from_file",
	}
}

// PreExecute verifies the token against the design content and stages
// both into the library before the IMPORT entry itself is appended.
func (o *ImportOperation) PreExecute(ctx context.Context, t *Tool, sess *Session) error {
	if t.cipher == nil {
		return metadata.ErrKeyNotConfigured
	}
	raw, err := os.ReadFile(o.args.DesignPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", o.args.DesignPath, err)
	}
	content, err := codecFor(KindSequence).Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", o.args.DesignPath, err)
	}
	token, err := os.ReadFile(o.args.MetadataPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", o.args.MetadataPath, err)
	}
	rec, err := t.cipher.DecryptRecord(string(token))
	if err != nil {
		return err
	}
	if metadata.Checksum(content) != rec.DesignChecksum {
		return metadata.NewValidationError("IMPORT", "checksums of metadata and design don't match")
	}
	if err := t.writeDesign(sess.CurrentDesign, KindSequence, content); err != nil {
		return err
	}
	return t.lib.Import(ctx, rec)
}

func (o *ImportOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	return nil, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportOperation copies the current design into the exported directory
// and, when asked, writes its metadata there as an encrypted token. The
// copy happens after the EXPORT entry is appended, so the token already
// records the export itself.
type ExportOperation struct {
	includeMetadata bool
}

func (*ExportOperation) Name() string      { return "EXPORT" }
func (*ExportOperation) Kind() Kind        { return KindSequence }
func (*ExportOperation) NeedsDesign() bool { return true }

func (o *ExportOperation) Validate(t *Tool, args Args) error {
	include, err := boolArg("EXPORT", args, "include_metadata")
	if err != nil {
		return err
	}
	o.includeMetadata = include
	return nil
}

func (o *ExportOperation) Details() map[string]any {
	return map[string]any{"include_metadata": o.includeMetadata}
}

func (o *ExportOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	return nil, nil
}

func (o *ExportOperation) PostExecute(ctx context.Context, x *Exec) error {
	return x.Tool.exportDesign(x, o.includeMetadata)
}

// exportDesign copies the design file byte-for-byte into the exported
// directory and optionally seals the freshly appended record next to it
// as metadata_<name>.txt.
func (t *Tool) exportDesign(x *Exec, includeMetadata bool) error {
	raw, err := os.ReadFile(t.designPath(x.Design, x.Kind))
	if err != nil {
		return fmt.Errorf("reading design %s: %w", x.Design, err)
	}
	dest := filepath.Join(t.cfg.ExportedDir, x.Design+x.Kind.Ext())
	if err := os.WriteFile(dest, raw, 0o640); err != nil {
		return fmt.Errorf("exporting design %s: %w", x.Design, err)
	}
	if !includeMetadata {
		return nil
	}
	if t.cipher == nil {
		return metadata.ErrKeyNotConfigured
	}
	token, err := t.cipher.EncryptRecord(x.Meta)
	if err != nil {
		return err
	}
	tokenPath := filepath.Join(t.cfg.ExportedDir, "metadata_"+x.Design+".txt")
	if err := os.WriteFile(tokenPath, []byte(token), 0o640); err != nil {
		return fmt.Errorf("exporting metadata for %s: %w", x.Design, err)
	}
	return nil
}
