// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"encoding/json"
	"fmt"
)

// DecryptRecord decrypts a metadata transfer token and parses the embedded
// record. Decryption failures propagate (ErrDecrypt); a token that
// decrypts but does not parse as a record is reported distinctly, since it
// usually means the partner encrypted the wrong file.
func (c *Cipher) DecryptRecord(token string) (*DesignMetadata, error) {
	plaintext, err := c.Decrypt(token)
	if err != nil {
		return nil, err
	}
	var meta DesignMetadata
	if err := json.Unmarshal([]byte(plaintext), &meta); err != nil {
		return nil, fmt.Errorf("decrypted token is not a metadata record: %w", err)
	}
	return &meta, nil
}

// EncryptRecord serializes a record and encrypts it into a transfer token.
// The design content itself is never part of the token; it travels
// alongside, unencrypted, and the checksum inside the token binds the two.
func (c *Cipher) EncryptRecord(meta *DesignMetadata) (string, error) {
	payload, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return "", fmt.Errorf("serialize record: %w", err)
	}
	return c.Encrypt(string(payload))
}

// MatchResult is the outcome of the integrity check at the import/order
// boundary.
type MatchResult struct {
	// Match is true when the checksum embedded in the metadata token
	// equals the independently computed checksum of the design content.
	Match bool

	// Message is a human-readable explanation, set on mismatch.
	Message string

	// Metadata is the decrypted record, present whenever decryption and
	// parsing succeeded (even on mismatch, so callers can report which
	// record disagreed).
	Metadata *DesignMetadata
}

// Matches runs the integrity/validation protocol: decrypt the metadata
// token, then require the embedded designChecksum to equal Checksum of the
// provided design content.
//
// A checksum mismatch is a normal negative result, not an error; only
// decryption and parsing failures return a non-nil error. This equality
// check is the system's only authenticity gate for transferred designs —
// the cipher itself authenticates nothing.
func (c *Cipher) Matches(designContent, token string) (MatchResult, error) {
	meta, err := c.DecryptRecord(token)
	if err != nil {
		return MatchResult{}, err
	}
	computed := Checksum(designContent)
	if meta.DesignChecksum != computed {
		return MatchResult{
			Match:    false,
			Message:  fmt.Sprintf("design checksum %s does not match metadata checksum %s", computed, meta.DesignChecksum),
			Metadata: meta,
		}, nil
	}
	return MatchResult{Match: true, Metadata: meta}, nil
}
