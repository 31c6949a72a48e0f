// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Checksum computes the case-insensitive content fingerprint of a design.
//
// # Description
//
// The content is folded to lowercase and hashed with SHA-256; the digest is
// hex-encoded. Case folding makes the checksum stable across tools that
// normalize sequence case differently (GenBank writers in particular
// disagree about this).
//
// Checksum is the sole authority for "does this content match this
// metadata record": both the append path and the import/order validation
// boundary compare against it and nothing else.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(content)))
	return hex.EncodeToString(sum[:])
}
