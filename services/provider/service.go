// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package provider implements the synthesis provider backend: the party
// that receives an exported design plus its encrypted metadata token,
// verifies they belong together, and either places the order or serves
// the design's revision history.
//
// # Description
//
// The provider never trusts the submitted pair. The metadata token is
// decrypted with the shared key and the checksum embedded in it must
// equal the checksum computed from the design file; only then is an
// order accepted (and appended to the orderlog ledger) or a revision
// history reconstructed.
//
// # Thread Safety
//
// Service is stateless apart from the ledger and safe for concurrent
// use.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/logging"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/provider/orderlog"
)

// ErrOutsideExportedDir is returned when a submitted file name escapes
// the exported directory, e.g. via "..".
var ErrOutsideExportedDir = errors.New("file path escapes the exported directory")

// Options configures a Service.
type Options struct {
	// ExportedDir is the drop area containing submitted design files and
	// metadata tokens. Required.
	ExportedDir string

	// Cipher decrypts metadata tokens. Required.
	Cipher *metadata.Cipher

	// Ledger records accepted orders. Optional; nil disables the ledger.
	Ledger *orderlog.Ledger

	// Logger defaults to logging.Default().
	Logger *logging.Logger
}

// Service validates submitted design/metadata pairs.
type Service struct {
	exportedDir string
	cipher      *metadata.Cipher
	ledger      *orderlog.Ledger
	logger      *logging.Logger
}

// NewService builds a Service from options.
func NewService(opts Options) (*Service, error) {
	if opts.ExportedDir == "" {
		return nil, fmt.Errorf("provider: Options.ExportedDir is required")
	}
	if opts.Cipher == nil {
		return nil, fmt.Errorf("provider: Options.Cipher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		exportedDir: opts.ExportedDir,
		cipher:      opts.Cipher,
		ledger:      opts.Ledger,
		logger:      logger,
	}, nil
}

// Submission is a validated design/metadata pair.
type Submission struct {
	// Match reports whether the token checksum equals the design file
	// checksum.
	Match bool

	// Metadata is the decrypted record.
	Metadata *metadata.DesignMetadata

	// Content is the canonical design content the checksum was computed
	// over.
	Content string
}

// PlaceOrder validates the submitted pair and, on a match, appends the
// order to the ledger. A checksum mismatch is a negative result, not an
// error.
func (s *Service) PlaceOrder(ctx context.Context, designFile, metadataFile string) (Submission, error) {
	sub, err := s.validatePair(designFile, metadataFile)
	if err != nil {
		return Submission{}, err
	}
	if !sub.Match {
		s.logger.Warn("order rejected, checksum mismatch",
			"design_file", designFile,
			"design", sub.Metadata.DesignName,
		)
		return sub, nil
	}
	if s.ledger != nil {
		order, err := s.ledger.Append(ctx, orderlog.Order{
			DesignName:     sub.Metadata.DesignName,
			DesignChecksum: sub.Metadata.DesignChecksum,
			MetadataID:     sub.Metadata.ID,
		})
		if err != nil {
			return Submission{}, fmt.Errorf("record order: %w", err)
		}
		s.logger.Info("order placed",
			"order_id", order.ID,
			"design", order.DesignName,
		)
	} else {
		s.logger.Info("order placed", "design", sub.Metadata.DesignName)
	}
	return sub, nil
}

// Revisions validates the submitted pair and, on a match, reconstructs
// the design's revision history from the token's changelog and the
// submitted content.
func (s *Service) Revisions(ctx context.Context, designFile, metadataFile string) (Submission, *metadata.RevisionHistory, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, nil, err
	}
	sub, err := s.validatePair(designFile, metadataFile)
	if err != nil {
		return Submission{}, nil, err
	}
	if !sub.Match {
		return sub, nil, nil
	}
	history, err := metadata.History(sub.Metadata, sub.Content)
	if err != nil {
		return Submission{}, nil, fmt.Errorf("reconstruct revisions: %w", err)
	}
	s.logger.Info("revision history served",
		"design", sub.Metadata.DesignName,
		"revisions", len(history.Revisions),
	)
	return sub, history, nil
}

// Orders returns the accepted-order ledger, oldest first. Returns an
// empty slice when no ledger is configured.
func (s *Service) Orders(ctx context.Context) ([]orderlog.Order, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.List(ctx)
}

func (s *Service) validatePair(designFile, metadataFile string) (Submission, error) {
	designPath, err := s.resolve(designFile)
	if err != nil {
		return Submission{}, err
	}
	metadataPath, err := s.resolve(metadataFile)
	if err != nil {
		return Submission{}, err
	}
	content, err := readDesignFile(designPath)
	if err != nil {
		return Submission{}, err
	}
	token, err := os.ReadFile(metadataPath)
	if err != nil {
		return Submission{}, fmt.Errorf("read metadata token %s: %w", metadataFile, err)
	}
	result, err := s.cipher.Matches(content, strings.TrimSpace(string(token)))
	if err != nil {
		return Submission{}, err
	}
	return Submission{
		Match:    result.Match,
		Metadata: result.Metadata,
		Content:  content,
	}, nil
}

// resolve joins name onto the exported directory, rejecting any path
// that would escape it. Submitted names are untrusted input.
func (s *Service) resolve(name string) (string, error) {
	joined := filepath.Join(s.exportedDir, filepath.Clean("/"+name))
	rel, err := filepath.Rel(s.exportedDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideExportedDir, name)
	}
	return joined, nil
}

// readDesignFile loads a design in the same canonical form the export
// side checksummed: protein structures verbatim, sequences lowercased.
func readDesignFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read design file %s: %w", filepath.Base(path), err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdb") {
		return string(raw), nil
	}
	return strings.ToLower(strings.TrimSpace(string(raw))), nil
}
