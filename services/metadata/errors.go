// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"errors"
	"fmt"
)

// Sentinel errors for the metadata core.
var (
	// ErrKeyNotConfigured indicates the ENCRYPTION_KEY environment variable
	// is not set. Fatal: no encrypt or decrypt call can proceed.
	ErrKeyNotConfigured = errors.New("encryption key not configured")

	// ErrKeySize indicates the configured key is not a valid AES key length
	// (16, 24, or 32 bytes).
	ErrKeySize = errors.New("encryption key must be 16, 24, or 32 bytes")

	// ErrDecrypt indicates a token could not be decrypted (malformed
	// base64, truncated IV, ciphertext not block-aligned, or bad padding
	// from a wrong key). No partial plaintext is ever returned.
	ErrDecrypt = errors.New("decryption failed")

	// ErrRecordNotFound indicates no metadata record exists under the
	// requested design name.
	ErrRecordNotFound = errors.New("metadata record not found")

	// ErrRecordExists indicates a create collided with an existing record.
	ErrRecordExists = errors.New("metadata record already exists")

	// ErrPatchApply indicates a stored patch could not be applied cleanly
	// during revision reconstruction.
	ErrPatchApply = errors.New("patch did not apply cleanly")
)

// ValidationError reports invalid or missing operation arguments. It is
// always raised before any mutation, so a ValidationError guarantees the
// record and the design file are untouched.
type ValidationError struct {
	// Op is the operation code being validated, if known.
	Op string

	// Reason describes what was wrong, in user-facing terms.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NewValidationError builds a ValidationError for the given operation code.
func NewValidationError(op, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError or wraps one.
// Storage-class failures (ErrRecordNotFound, ErrRecordExists) are treated
// as validation failures as well: they surface caller mistakes, not
// system faults.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrRecordExists)
}
