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
	"sort"
	"strings"
)

// =============================================================================
// SPLIT
// =============================================================================

// SplitOperation cuts the current sequence at the given positions and
// creates one derived design per segment, each carrying the parent
// record's id and exported right away. The parent design is untouched.
type SplitOperation struct {
	args struct {
		Indices []int `arg:"split_indices" validate:"required,min=1,dive,gte=0"`
	}
}

func (*SplitOperation) Name() string      { return "SPLIT" }
func (*SplitOperation) Kind() Kind        { return KindSequence }
func (*SplitOperation) NeedsDesign() bool { return true }

func (o *SplitOperation) Validate(t *Tool, args Args) error {
	indices, err := intListArg("SPLIT", args, "split_indices")
	if err != nil {
		return err
	}
	o.args.Indices = indices
	return checkArgs("SPLIT", &o.args)
}

func (o *SplitOperation) Details() map[string]any {
	return map[string]any{"split_indices": o.args.Indices}
}

func (o *SplitOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	sort.Ints(o.args.Indices)
	if o.args.Indices[len(o.args.Indices)-1] >= len(x.Content) {
		return nil, boundsError("SPLIT", "split_indices")
	}
	bounds := append(append([]int{}, o.args.Indices...), len(x.Content))
	start := 0
	for i, end := range bounds {
		segment := x.Content[start:end]
		name := fmt.Sprintf("%s_%d", x.Design, i)
		err := x.Tool.createDerived(ctx, KindSequence, name, segment, "tool_split_operation", x.Meta.ID, true)
		if err != nil {
			return nil, err
		}
		start = end
	}
	return nil, nil
}

// =============================================================================
// ADD_ANNOTATION
// =============================================================================

// AddAnnotationOperation records a named annotation over a range of the
// current sequence. With the plain-text codec the sequence content is
// unchanged; the annotation lives in the changelog entry.
type AddAnnotationOperation struct {
	args struct {
		Name  string `arg:"annotation_name" validate:"required"`
		Start int    `arg:"annotation_start_index" validate:"gte=0"`
		End   int    `arg:"annotation_end_index" validate:"gte=0"`
	}
}

func (*AddAnnotationOperation) Name() string      { return "ADD_ANNOTATION" }
func (*AddAnnotationOperation) Kind() Kind        { return KindSequence }
func (*AddAnnotationOperation) NeedsDesign() bool { return true }

func (o *AddAnnotationOperation) Validate(t *Tool, args Args) error {
	name, err := strArg("ADD_ANNOTATION", args, "annotation_name")
	if err != nil {
		return err
	}
	start, err := intArg("ADD_ANNOTATION", args, "annotation_start_index")
	if err != nil {
		return err
	}
	end, err := intArg("ADD_ANNOTATION", args, "annotation_end_index")
	if err != nil {
		return err
	}
	o.args.Name = name
	o.args.Start = start
	o.args.End = end
	return checkArgs("ADD_ANNOTATION", &o.args)
}

func (o *AddAnnotationOperation) Details() map[string]any {
	return map[string]any{
		"annotation_name":        o.args.Name,
		"annotation_start_index": o.args.Start,
		"annotation_end_index":   o.args.End,
	}
}

func (o *AddAnnotationOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if o.args.Start > o.args.End || o.args.End > len(x.Content) {
		return nil, rangeError("ADD_ANNOTATION", "annotation_start_index", "annotation_end_index")
	}
	return nil, nil
}

// =============================================================================
// CODON_OPTIMIZATION
// =============================================================================

// codonReplacements is the reference replacement table applied over the
// selected region, codon by codon. Codons without an entry pass through.
var codonReplacements = map[string]string{
	"atg": "gtg",
	"taa": "tag",
	"tag": "taa",
	"tga": "taa",
	"gga": "ggg",
	"ttc": "ttt",
	"aac": "aat",
}

// CodonOptimizeOperation rewrites the codons inside [start, end) of the
// current sequence using the replacement table for the target organism.
type CodonOptimizeOperation struct {
	args struct {
		Organism string `arg:"organism" validate:"required"`
		Start    int    `arg:"start_index" validate:"gte=0"`
		End      int    `arg:"end_index" validate:"gte=0"`
	}
}

func (*CodonOptimizeOperation) Name() string      { return "CODON_OPTIMIZATION" }
func (*CodonOptimizeOperation) Kind() Kind        { return KindSequence }
func (*CodonOptimizeOperation) NeedsDesign() bool { return true }

func (o *CodonOptimizeOperation) Validate(t *Tool, args Args) error {
	organism, err := strArg("CODON_OPTIMIZATION", args, "organism")
	if err != nil {
		return err
	}
	start, err := intArg("CODON_OPTIMIZATION", args, "start_index")
	if err != nil {
		return err
	}
	end, err := intArg("CODON_OPTIMIZATION", args, "end_index")
	if err != nil {
		return err
	}
	o.args.Organism = organism
	o.args.Start = start
	o.args.End = end
	return checkArgs("CODON_OPTIMIZATION", &o.args)
}

func (o *CodonOptimizeOperation) Details() map[string]any {
	return map[string]any{
		"organism":    o.args.Organism,
		"start_index": o.args.Start,
		"end_index":   o.args.End,
	}
}

func (o *CodonOptimizeOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if o.args.Start > o.args.End || o.args.End > len(x.Content) {
		return nil, rangeError("CODON_OPTIMIZATION", "start_index", "end_index")
	}
	region := x.Content[o.args.Start:o.args.End]
	modified := x.Content[:o.args.Start] + replaceCodons(region) + x.Content[o.args.End:]
	return &Result{Content: modified}, nil
}

// replaceCodons walks the region in 3-base steps; a trailing partial
// codon passes through untouched.
func replaceCodons(region string) string {
	var b strings.Builder
	b.Grow(len(region))
	for i := 0; i < len(region); i += 3 {
		end := i + 3
		if end > len(region) {
			end = len(region)
		}
		codon := region[i:end]
		if replacement, ok := codonReplacements[codon]; ok {
			codon = replacement
		}
		b.WriteString(codon)
	}
	return b.String()
}

// =============================================================================
// TRANSLATE_PROTEIN
// =============================================================================

// aminoAcidCodons maps one-letter amino acid codes to a representative
// DNA codon. '*' is the stop codon.
var aminoAcidCodons = map[byte]string{
	'A': "GCT", 'R': "CGT", 'N': "AAT", 'D': "GAT",
	'C': "TGT", 'Q': "CAA", 'E': "GAA", 'G': "GGT",
	'H': "CAT", 'I': "ATT", 'L': "CTT", 'K': "AAA",
	'M': "ATG", 'F': "TTT", 'P': "CCT", 'S': "TCT",
	'T': "ACT", 'W': "TGG", 'Y': "TAT", 'V': "GTT",
	'*': "TAA",
}

// TranslateProteinOperation reverse-translates the current protein into
// a DNA sequence for the target organism and creates it as a derived
// sequence design named <design>_dna. Characters without a codon entry
// are skipped; a start and stop codon frame the result.
type TranslateProteinOperation struct {
	args struct {
		Organism string `arg:"organism" validate:"required"`
	}
}

func (*TranslateProteinOperation) Name() string      { return "TRANSLATE_PROTEIN" }
func (*TranslateProteinOperation) Kind() Kind        { return KindProtein }
func (*TranslateProteinOperation) NeedsDesign() bool { return true }

func (o *TranslateProteinOperation) Validate(t *Tool, args Args) error {
	organism, err := strArg("TRANSLATE_PROTEIN", args, "organism")
	if err != nil {
		return err
	}
	o.args.Organism = organism
	return nil
}

func (o *TranslateProteinOperation) Details() map[string]any {
	return map[string]any{"organism": o.args.Organism}
}

func (o *TranslateProteinOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	dna := reverseTranslate(x.Content)
	name := x.Design + "_dna"
	err := x.Tool.createDerived(ctx, KindSequence, name, dna, "tool_translate_protein_operation", x.Meta.ID, true)
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func reverseTranslate(aaSequence string) string {
	var b strings.Builder
	b.WriteString("ATG")
	for i := 0; i < len(aaSequence); i++ {
		if codon, ok := aminoAcidCodons[aaSequence[i]]; ok {
			b.WriteString(codon)
		}
	}
	b.WriteString(aminoAcidCodons['*'])
	return b.String()
}
