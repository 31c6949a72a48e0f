// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package designtool

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

// Generator produces new protein designs from an existing structure.
// The reference implementation is the mock generator; a real design
// backend satisfies the same interface.
type Generator interface {
	// Variants returns n redesigned amino acid sequences derived from
	// the structure.
	Variants(pdbContent string, n int) ([]string, error)

	// RedesignInterface rewrites the flexible interface residues of the
	// structure, preserving the backbone.
	RedesignInterface(pdbContent string) (string, error)

	// Score returns metric scores for the structure, keyed by metric
	// name.
	Score(pdbContent string) map[string]float64
}

// aminoAcidLetters is the standard one-letter amino acid alphabet.
const aminoAcidLetters = "ACDEFGHIKLMNPQRSTVWY"

// residueNames maps three-letter PDB residue names to one-letter codes.
var residueNames = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
}

// mockFlexibleResidues are the residue numbers RedesignInterface is
// allowed to mutate.
var mockFlexibleResidues = map[int]bool{
	3: true, 8: true, 20: true, 21: true, 32: true, 41: true, 48: true, 51: true,
}

// MockGenerator stands in for a protein design backend. Variants mutate
// roughly a fifth of the residues, RedesignInterface swaps a fixed set
// of flexible positions and Score draws uniformly from [0.8, 1).
type MockGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockGenerator returns a mock generator with its own random source.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// NewMockGeneratorSeeded returns a deterministic mock generator.
func NewMockGeneratorSeeded(seed int64) *MockGenerator {
	return &MockGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *MockGenerator) Variants(pdbContent string, n int) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	original := pdbSequence(pdbContent)
	variants := make([]string, 0, n)
	for i := 0; i < n; i++ {
		variants = append(variants, g.mutate(original))
	}
	return variants, nil
}

// mutate swaps roughly 20% of the positions for a different residue.
func (g *MockGenerator) mutate(original string) string {
	if original == "" {
		return ""
	}
	seq := []byte(original)
	count := len(seq) / 5
	for _, pos := range g.rng.Perm(len(seq))[:count] {
		for {
			replacement := aminoAcidLetters[g.rng.Intn(len(aminoAcidLetters))]
			if replacement != seq[pos] {
				seq[pos] = replacement
				break
			}
		}
	}
	return string(seq)
}

func (g *MockGenerator) RedesignInterface(pdbContent string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	lines := strings.Split(pdbContent, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "ATOM") || len(line) < 26 {
			continue
		}
		resNum, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		if err != nil || !mockFlexibleResidues[resNum] {
			continue
		}
		replacement := aminoAcidLetters[g.rng.Intn(len(aminoAcidLetters))]
		lines[i] = line[:17] + string(replacement) + "  " + line[20:]
	}
	return strings.Join(lines, "\n"), nil
}

func (g *MockGenerator) Score(pdbContent string) map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return map[string]float64{
		"energy_minimization_score": 0.8 + 0.2*g.rng.Float64(),
		"interface_scoring_score":   0.8 + 0.2*g.rng.Float64(),
		"predict_stability_score":   0.8 + 0.2*g.rng.Float64(),
	}
}

// pdbSequence reads the residue sequence off a structure's ATOM lines,
// one letter per distinct (chain, residue number) pair. Unknown residue
// names come out as 'X'.
func pdbSequence(pdbContent string) string {
	var b strings.Builder
	lastChain, lastRes := "", -1
	seen := false
	for _, line := range strings.Split(pdbContent, "\n") {
		if !strings.HasPrefix(line, "ATOM") || len(line) < 26 {
			continue
		}
		chain := strings.TrimSpace(line[21:22])
		resNum, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		if err != nil {
			continue
		}
		if seen && chain == lastChain && resNum == lastRes {
			continue
		}
		seen = true
		lastChain, lastRes = chain, resNum
		name := strings.TrimSpace(line[17:20])
		if letter, ok := residueNames[name]; ok {
			b.WriteByte(letter)
		} else {
			b.WriteByte('X')
		}
	}
	return b.String()
}
