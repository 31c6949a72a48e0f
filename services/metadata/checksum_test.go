// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metadata

import "testing"

func TestChecksum_CaseInsensitive(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"all_upper", "ATGC", "atgc"},
		{"mixed", "AtGcTaGc", "atgctagc"},
		{"protein_content", "HEADER    GREEN FLUORESCENT PROTEIN", "header    green fluorescent protein"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if Checksum(tc.a) != Checksum(tc.b) {
				t.Errorf("Checksum(%q) != Checksum(%q)", tc.a, tc.b)
			}
		})
	}
}

func TestChecksum_KnownDigest(t *testing.T) {
	// SHA-256 of the lowercased content, hex-encoded.
	const want = "7d8b3f80a85dc5bb35a3ec3141b4c0eba926264aa03e66db0d6557868ad2875a"
	if got := Checksum("atgc"); got != want {
		t.Errorf("Checksum(atgc) = %s, want %s", got, want)
	}
	if got := Checksum("ATGC"); got != want {
		t.Errorf("Checksum(ATGC) = %s, want %s", got, want)
	}
}

func TestChecksum_DistinctContent(t *testing.T) {
	if Checksum("atgc") == Checksum("atgg") {
		t.Error("distinct contents produced the same checksum")
	}
	if Checksum("") == Checksum("a") {
		t.Error("empty and non-empty content produced the same checksum")
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	content := "atgctgacgtacgtacgt"
	first := Checksum(content)
	for i := 0; i < 10; i++ {
		if Checksum(content) != first {
			t.Fatal("Checksum is not deterministic")
		}
	}
}
