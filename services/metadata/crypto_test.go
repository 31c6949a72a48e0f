// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// testKey is 32 bytes (AES-256). NewCipher wipes its input, so every test
// builds a fresh copy.
func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := testCipher(t)
	cases := []string{
		"",
		"atgc",
		`{"id":"x","designChecksum":"abc"}`,
		strings.Repeat("acgt", 4096),
		"exactly sixteen!", // block-aligned plaintext exercises full-block padding
	}
	for _, plaintext := range cases {
		token, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		got, err := c.Decrypt(token)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if got != plaintext {
			t.Errorf("Decrypt(Encrypt(%q)) = %q", plaintext, got)
		}
	}
}

func TestCipher_FreshIVPerToken(t *testing.T) {
	c := testCipher(t)
	first, err := c.Encrypt("atgctga")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Encrypt("atgctga")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two encryptions of the same plaintext produced identical tokens")
	}
}

func TestCipher_KeySizes(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		if _, err := NewCipher([]byte(strings.Repeat("k", size))); err != nil {
			t.Errorf("NewCipher(%d bytes) error = %v", size, err)
		}
	}
	for _, size := range []int{0, 1, 15, 17, 33} {
		_, err := NewCipher([]byte(strings.Repeat("k", size)))
		if !errors.Is(err, ErrKeySize) {
			t.Errorf("NewCipher(%d bytes) error = %v, want ErrKeySize", size, err)
		}
	}
}

func TestNewCipherFromEnv_MissingKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "")
	_, err := NewCipherFromEnv()
	if !errors.Is(err, ErrKeyNotConfigured) {
		t.Errorf("error = %v, want ErrKeyNotConfigured", err)
	}
}

func TestNewCipherFromEnv_ValidKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "0123456789abcdef")
	c, err := NewCipherFromEnv()
	if err != nil {
		t.Fatalf("NewCipherFromEnv() error = %v", err)
	}
	token, err := c.Encrypt("atgc")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decrypt(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != "atgc" {
		t.Errorf("round trip = %q", got)
	}
}

func TestCipher_DecryptMalformedTokens(t *testing.T) {
	c := testCipher(t)
	cases := []struct {
		name  string
		token string
	}{
		{"not_base64", "!!not base64!!"},
		{"too_short_for_iv", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"iv_only", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"unaligned_ciphertext", base64.StdEncoding.EncodeToString(make([]byte, 16+7))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Decrypt(tc.token)
			if !errors.Is(err, ErrDecrypt) {
				t.Errorf("Decrypt() error = %v, want ErrDecrypt", err)
			}
			if got != "" {
				t.Errorf("partial plaintext returned: %q", got)
			}
		})
	}
}

func TestCipher_WrongKeyFailsPadding(t *testing.T) {
	c := testCipher(t)
	token, err := c.Encrypt("atgctgacgtacgt")
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewCipher([]byte("fedcba9876543210fedcba9876543210"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := other.Decrypt(token)
	// CBC with a wrong key almost always yields invalid padding. In the
	// astronomically unlikely event the padding happens to be valid the
	// plaintext is still garbage, so accept either failure mode.
	if err == nil && got == "atgctgacgtacgt" {
		t.Error("wrong key decrypted to the original plaintext")
	}
	if err != nil && !errors.Is(err, ErrDecrypt) {
		t.Errorf("error = %v, want ErrDecrypt", err)
	}
}

func TestPKCS7_RoundTrip(t *testing.T) {
	for length := 0; length <= 48; length++ {
		data := []byte(strings.Repeat("x", length))
		padded := pkcs7Pad(data, 16)
		if len(padded)%16 != 0 {
			t.Fatalf("padded length %d not block aligned", len(padded))
		}
		unpadded, err := pkcs7Unpad(padded, 16)
		if err != nil {
			t.Fatalf("pkcs7Unpad() error = %v at length %d", err, length)
		}
		if string(unpadded) != string(data) {
			t.Fatalf("round trip mismatch at length %d", length)
		}
	}
}
