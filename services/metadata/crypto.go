// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
)

// EncryptionKeyEnv is the environment variable holding the pre-shared
// symmetric key. The raw bytes of the value are used as the AES key, so it
// must be exactly 16, 24, or 32 bytes long.
const EncryptionKeyEnv = "ENCRYPTION_KEY"

// Cipher is the export/import crypto transport.
//
// # Description
//
// Encrypt produces a token of base64(iv || ciphertext) using AES in CBC
// mode with PKCS7 padding and a fresh random 16-byte IV per call; two
// encryptions of the same plaintext never yield the same token. Decrypt
// reverses the layout exactly.
//
// The cipher provides confidentiality only. There is intentionally no MAC
// over the ciphertext: integrity at the transfer boundary is enforced
// solely by the independent checksum comparison after decryption (see
// Matches). Do not "fix" this by switching to an authenticated mode
// without revisiting the threat model shared with the partner tools that
// produce and consume these tokens.
//
// The key is held in a memguard enclave and only materializes in locked
// memory for the duration of a call.
//
// # Thread Safety
//
// Safe for concurrent use; every call opens its own view of the key.
type Cipher struct {
	key *memguard.Enclave
}

// NewCipher builds a Cipher from a raw key.
//
// The key slice is wiped by memguard once sealed; callers must not reuse
// it. Returns ErrKeySize for invalid AES key lengths.
func NewCipher(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d bytes", ErrKeySize, len(key))
	}
	return &Cipher{key: memguard.NewEnclave(key)}, nil
}

// NewCipherFromEnv builds a Cipher from the ENCRYPTION_KEY environment
// variable. Returns ErrKeyNotConfigured when the variable is unset or
// empty; this is fatal and callers should surface it immediately rather
// than retry.
func NewCipherFromEnv() (*Cipher, error) {
	raw := os.Getenv(EncryptionKeyEnv)
	if raw == "" {
		return nil, fmt.Errorf("%w: set %s", ErrKeyNotConfigured, EncryptionKeyEnv)
	}
	return NewCipher([]byte(raw))
}

// Encrypt encrypts plaintext into a transfer token.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	keyBuf, err := c.key.Open()
	if err != nil {
		return "", fmt.Errorf("open key enclave: %w", err)
	}
	defer keyBuf.Destroy()

	block, err := aes.NewCipher(keyBuf.Bytes())
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt decrypts a transfer token back into plaintext.
//
// Any structural defect (bad base64, missing IV, ciphertext not
// block-aligned, invalid padding after decryption) yields ErrDecrypt with
// no partial plaintext. Invalid padding is also what a wrong key looks
// like, so the error message does not distinguish the two.
func (c *Cipher) Decrypt(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrDecrypt, err)
	}
	if len(raw) < aes.BlockSize {
		return "", fmt.Errorf("%w: token shorter than iv", ErrDecrypt)
	}
	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block aligned", ErrDecrypt)
	}

	keyBuf, err := c.key.Open()
	if err != nil {
		return "", fmt.Errorf("open key enclave: %w", err)
	}
	defer keyBuf.Destroy()

	block, err := aes.NewCipher(keyBuf.Bytes())
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(unpadded), nil
}

// pkcs7Pad appends PKCS7 padding up to the next block boundary. Input that
// is already block-aligned grows by a full block, so the padding length is
// always in [1, blockSize].
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad strips and verifies PKCS7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("data length %d not a padded block multiple", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("invalid padding length %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("inconsistent padding bytes")
		}
	}
	return data[:len(data)-padLen], nil
}
