// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// =============================================================================
// Operation contract
// =============================================================================

// Args is the raw argument set of a command, as parsed from the shell's
// "NAME key=value key=value" form.
type Args map[string]string

// Result is what an operation hands back from Apply when it produced new
// content for the current design. A nil *Result means the current design's
// content is unchanged (the operation may still have created derived
// designs or mutated the session).
type Result struct {
	// Content is the full new content of the current design.
	Content string
}

// Operation is one design operation. Implementations are single-use:
// the dispatcher builds a fresh value per command, validates the raw
// arguments into it, and then applies it. Details() is the exact map
// recorded in the changelog entry for the operation.
type Operation interface {
	// Name is the operation code recorded in the changelog.
	Name() string

	// Kind is the design family the operation reads and writes.
	Kind() Kind

	// NeedsDesign reports whether the session must already have a
	// current design before the operation can run.
	NeedsDesign() bool

	// Validate parses and checks the raw arguments before anything is
	// read or written. Argument problems come back as *metadata.ValidationError.
	Validate(t *Tool, args Args) error

	// Details returns the operationDetails map for the changelog entry.
	// Valid only after Validate has succeeded.
	Details() map[string]any

	// Apply performs the operation against the loaded design.
	Apply(ctx context.Context, x *Exec) (*Result, error)
}

// opener is implemented by operations that establish the session's
// current design (CREATE, OPEN, IMPORT and their protein variants).
type opener interface {
	OpensDesign() (name string, kind Kind)
}

// preExecer runs before the current design is loaded. IMPORT uses it to
// stage the imported design and metadata into the library.
type preExecer interface {
	PreExecute(ctx context.Context, t *Tool, sess *Session) error
}

// postExecer runs after the changelog entry has been appended. EXPORT
// uses it so the exported token already contains its own entry.
type postExecer interface {
	PostExecute(ctx context.Context, x *Exec) error
}

// =============================================================================
// Registry
// =============================================================================

// ErrUnknownOperation is returned by Execute for an operation name that
// is not in the registry.
var ErrUnknownOperation = errors.New("operation not supported")

var registry = map[string]func() Operation{
	"CREATE":                    func() Operation { return &CreateOperation{} },
	"OPEN":                      func() Operation { return &OpenOperation{} },
	"IMPORT":                    func() Operation { return &ImportOperation{} },
	"EXPORT":                    func() Operation { return &ExportOperation{} },
	"INSERT":                    func() Operation { return &InsertOperation{} },
	"APPEND":                    func() Operation { return &AppendOperation{} },
	"DELETE":                    func() Operation { return &DeleteOperation{} },
	"COPY":                      func() Operation { return &CopyOperation{} },
	"PASTE":                     func() Operation { return &PasteOperation{} },
	"SPLIT":                     func() Operation { return &SplitOperation{} },
	"ADD_ANNOTATION":            func() Operation { return &AddAnnotationOperation{} },
	"CODON_OPTIMIZATION":        func() Operation { return &CodonOptimizeOperation{} },
	"TRANSLATE_PROTEIN":         func() Operation { return &TranslateProteinOperation{} },
	"CREATE_PROTEIN":            func() Operation { return &CreateProteinOperation{} },
	"OPEN_PROTEIN":              func() Operation { return &OpenProteinOperation{} },
	"EXPORT_PROTEIN":            func() Operation { return &ExportProteinOperation{} },
	"EXTRACT_BACKBONE":          func() Operation { return &ExtractBackboneOperation{} },
	"REDESIGN_INTERFACE":        func() Operation { return &RedesignInterfaceOperation{} },
	"DESIGN_PROTEIN":            func() Operation { return &DesignProteinOperation{} },
	"CALCULATE_PROTEIN_METRICS": func() Operation { return &CalculateProteinMetricsOperation{} },
}

// OperationNames returns every registered operation code, sorted.
func OperationNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// Argument parsing and validation
// =============================================================================

// argValidate checks struct-level constraints on a parsed argument
// struct. Field names in messages come from the `arg` struct tag so they
// match what the caller typed.
var argValidate = newArgValidator()

func newArgValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if tag := fld.Tag.Get("arg"); tag != "" {
			return tag
		}
		return fld.Name
	})
	return v
}

// checkArgs runs validator constraints over a parsed argument struct and
// converts the first failure into a ValidationError for the operation.
func checkArgs(op string, v any) error {
	err := argValidate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return metadata.NewValidationError(op, "argument %s failed the %s constraint", f.Field(), f.Tag())
	}
	return err
}

// strArg fetches a required non-empty string argument.
func strArg(op string, args Args, key string) (string, error) {
	val, ok := args[key]
	if !ok || val == "" {
		return "", metadata.NewValidationError(op, "%s operation requires a %s argument", op, key)
	}
	return val, nil
}

// optArg fetches an optional string argument with a fallback.
func optArg(args Args, key, fallback string) string {
	if val, ok := args[key]; ok && val != "" {
		return val
	}
	return fallback
}

// intArg fetches a required integer argument.
func intArg(op string, args Args, key string) (int, error) {
	raw, ok := args[key]
	if !ok {
		return 0, metadata.NewValidationError(op, "%s operation requires a %s argument", op, key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, metadata.NewValidationError(op, "the %s argument must be an integer", key)
	}
	return n, nil
}

// floatArg fetches a required float argument.
func floatArg(op string, args Args, key string) (float64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, metadata.NewValidationError(op, "%s operation requires a %s argument", op, key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, metadata.NewValidationError(op, "the %s argument must be a number", key)
	}
	return f, nil
}

// boolArg fetches a required boolean argument.
func boolArg(op string, args Args, key string) (bool, error) {
	raw, ok := args[key]
	if !ok {
		return false, metadata.NewValidationError(op, "%s operation requires a %s argument", op, key)
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, metadata.NewValidationError(op, "the %s argument must be true or false", key)
	}
	return b, nil
}

// intListArg fetches a required comma-separated list of integers.
func intListArg(op string, args Args, key string) ([]int, error) {
	raw, ok := args[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, metadata.NewValidationError(op, "%s operation requires a %s argument", op, key)
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, metadata.NewValidationError(op, "the %s argument must be a comma-separated list of integers", key)
		}
		out = append(out, n)
	}
	return out, nil
}

// strListArg fetches a required comma-separated list of strings.
func strListArg(op string, args Args, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, metadata.NewValidationError(op, "%s operation requires a %s argument", op, key)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out, nil
}

func boundsError(op, key string) error {
	return metadata.NewValidationError(op, "the %s argument must be less than the length of the sequence", key)
}

func rangeError(op, startKey, endKey string) error {
	return metadata.NewValidationError(op, "the %s and %s arguments must describe a range within the sequence", startKey, endKey)
}
