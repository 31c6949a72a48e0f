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
	"strings"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// =============================================================================
// CREATE_PROTEIN
// =============================================================================

// CreateProteinOperation makes a brand-new protein design in the library
// from a PDB string.
type CreateProteinOperation struct {
	args struct {
		FileName  string `arg:"file_name" validate:"required"`
		PDBString string `arg:"pdb_string" validate:"required"`
		Source    string `arg:"source"`
		ParentID  string `arg:"metadata_parent_id"`
	}
}

func (*CreateProteinOperation) Name() string      { return "CREATE_PROTEIN" }
func (*CreateProteinOperation) Kind() Kind        { return KindProtein }
func (*CreateProteinOperation) NeedsDesign() bool { return false }

func (o *CreateProteinOperation) Validate(t *Tool, args Args) error {
	fileName, err := strArg("CREATE_PROTEIN", args, "file_name")
	if err != nil {
		return err
	}
	pdbString, err := strArg("CREATE_PROTEIN", args, "pdb_string")
	if err != nil {
		return err
	}
	o.args.FileName = fileName
	o.args.PDBString = pdbString
	o.args.Source = optArg(args, "source", "command_line")
	o.args.ParentID = optArg(args, "metadata_parent_id", "")
	if err := checkArgs("CREATE_PROTEIN", &o.args); err != nil {
		return err
	}
	if t.designExists(fileName, KindProtein) {
		return metadata.NewValidationError("CREATE_PROTEIN", "a file with the name %s%s already exists", fileName, KindProtein.Ext())
	}
	return nil
}

func (o *CreateProteinOperation) OpensDesign() (string, Kind) {
	return o.args.FileName, KindProtein
}

func (o *CreateProteinOperation) Details() map[string]any {
	return map[string]any{
		"file_name": o.args.FileName,
		"source":    o.args.Source,
	}
}

func (o *CreateProteinOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	if _, err := x.Tool.ensureMetadata(ctx, x.Design, o.args.PDBString, o.args.ParentID); err != nil {
		return nil, err
	}
	return &Result{Content: o.args.PDBString}, nil
}

// =============================================================================
// OPEN_PROTEIN
// =============================================================================

// OpenProteinOperation makes an existing library protein the current
// design, creating its metadata record if it was never tracked.
type OpenProteinOperation struct {
	args struct {
		FileName string `arg:"file_name" validate:"required"`
		ParentID string `arg:"metadata_parent_id"`
	}
}

func (*OpenProteinOperation) Name() string      { return "OPEN_PROTEIN" }
func (*OpenProteinOperation) Kind() Kind        { return KindProtein }
func (*OpenProteinOperation) NeedsDesign() bool { return false }

func (o *OpenProteinOperation) Validate(t *Tool, args Args) error {
	fileName, err := strArg("OPEN_PROTEIN", args, "file_name")
	if err != nil {
		return err
	}
	o.args.FileName = fileName
	o.args.ParentID = optArg(args, "metadata_parent_id", "")
	if !t.designExists(fileName, KindProtein) {
		return metadata.NewValidationError("OPEN_PROTEIN", "a file with the name %s%s doesn't exist", fileName, KindProtein.Ext())
	}
	return nil
}

func (o *OpenProteinOperation) OpensDesign() (string, Kind) {
	return o.args.FileName, KindProtein
}

func (o *OpenProteinOperation) Details() map[string]any {
	return map[string]any{"file_name": o.args.FileName}
}

func (o *OpenProteinOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	return nil, nil
}

// =============================================================================
// EXPORT_PROTEIN
// =============================================================================

// ExportProteinOperation is EXPORT for protein designs: the .pdb file is
// copied verbatim next to its encrypted metadata token.
type ExportProteinOperation struct {
	includeMetadata bool
}

func (*ExportProteinOperation) Name() string      { return "EXPORT_PROTEIN" }
func (*ExportProteinOperation) Kind() Kind        { return KindProtein }
func (*ExportProteinOperation) NeedsDesign() bool { return true }

func (o *ExportProteinOperation) Validate(t *Tool, args Args) error {
	include, err := boolArg("EXPORT_PROTEIN", args, "include_metadata")
	if err != nil {
		return err
	}
	o.includeMetadata = include
	return nil
}

func (o *ExportProteinOperation) Details() map[string]any {
	return map[string]any{"include_metadata": o.includeMetadata}
}

func (o *ExportProteinOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	return nil, nil
}

func (o *ExportProteinOperation) PostExecute(ctx context.Context, x *Exec) error {
	return x.Tool.exportDesign(x, o.includeMetadata)
}

// =============================================================================
// EXTRACT_BACKBONE
// =============================================================================

// backboneAtoms are the PDB atom names that survive backbone extraction.
var backboneAtoms = map[string]bool{"N": true, "CA": true, "C": true, "O": true}

// ExtractBackboneOperation strips the current protein down to its
// backbone atoms and saves the result as a new derived protein design.
type ExtractBackboneOperation struct {
	args struct {
		OutputFileName string `arg:"output_file_name" validate:"required"`
	}
}

func (*ExtractBackboneOperation) Name() string      { return "EXTRACT_BACKBONE" }
func (*ExtractBackboneOperation) Kind() Kind        { return KindProtein }
func (*ExtractBackboneOperation) NeedsDesign() bool { return true }

func (o *ExtractBackboneOperation) Validate(t *Tool, args Args) error {
	outputFileName, err := strArg("EXTRACT_BACKBONE", args, "output_file_name")
	if err != nil {
		return err
	}
	o.args.OutputFileName = outputFileName
	return nil
}

func (o *ExtractBackboneOperation) Details() map[string]any {
	return map[string]any{"output_file_name": o.args.OutputFileName}
}

func (o *ExtractBackboneOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	backbone := extractBackbone(x.Content)
	err := x.Tool.createDerived(ctx, KindProtein, o.args.OutputFileName, backbone, "tool_extract_backbone_operation", x.Meta.ID, false)
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// extractBackbone keeps only ATOM records whose atom name (columns
// 13-16 of the PDB line) is a backbone atom.
func extractBackbone(pdbContent string) string {
	var kept []string
	for _, line := range strings.Split(pdbContent, "\n") {
		if !strings.HasPrefix(line, "ATOM") || len(line) < 16 {
			continue
		}
		atomName := strings.TrimSpace(line[12:16])
		if backboneAtoms[atomName] {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// =============================================================================
// REDESIGN_INTERFACE
// =============================================================================

// RedesignInterfaceOperation asks the generator to rewrite the flexible
// interface residues of the current protein and saves the redesigned
// structure as a derived design named <design>_backbone.
type RedesignInterfaceOperation struct {
	args struct {
		Model       string  `arg:"model" validate:"required"`
		Mode        string  `arg:"mode" validate:"required"`
		NumDesigns  int     `arg:"num_designs" validate:"gte=1"`
		Temperature float64 `arg:"temperature" validate:"gte=0"`
	}
}

func (*RedesignInterfaceOperation) Name() string      { return "REDESIGN_INTERFACE" }
func (*RedesignInterfaceOperation) Kind() Kind        { return KindProtein }
func (*RedesignInterfaceOperation) NeedsDesign() bool { return true }

func (o *RedesignInterfaceOperation) Validate(t *Tool, args Args) error {
	model, err := strArg("REDESIGN_INTERFACE", args, "model")
	if err != nil {
		return err
	}
	mode, err := strArg("REDESIGN_INTERFACE", args, "mode")
	if err != nil {
		return err
	}
	numDesigns, err := intArg("REDESIGN_INTERFACE", args, "num_designs")
	if err != nil {
		return err
	}
	temperature, err := floatArg("REDESIGN_INTERFACE", args, "temperature")
	if err != nil {
		return err
	}
	o.args.Model = model
	o.args.Mode = mode
	o.args.NumDesigns = numDesigns
	o.args.Temperature = temperature
	return checkArgs("REDESIGN_INTERFACE", &o.args)
}

func (o *RedesignInterfaceOperation) Details() map[string]any {
	return map[string]any{
		"model":       o.args.Model,
		"mode":        o.args.Mode,
		"num_designs": o.args.NumDesigns,
		"temperature": o.args.Temperature,
	}
}

func (o *RedesignInterfaceOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	redesigned, err := x.Tool.gen.RedesignInterface(x.Content)
	if err != nil {
		return nil, err
	}
	name := x.Design + "_backbone"
	err = x.Tool.createDerived(ctx, KindProtein, name, redesigned, "tool_redesign_interface_operation", x.Meta.ID, false)
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// =============================================================================
// DESIGN_PROTEIN
// =============================================================================

// designProteinVariants is how many variant designs one DESIGN_PROTEIN
// run produces.
const designProteinVariants = 3

// DesignProteinOperation asks the generator for variant sequences of
// the current protein and saves each as a derived design named
// <design>_design_<i>.
type DesignProteinOperation struct {
	args struct {
		NumSeqPerTarget int     `arg:"num_seq_per_target" validate:"gte=1"`
		SamplingTemp    float64 `arg:"sampling_temp" validate:"gte=0"`
		InterfaceCutoff float64 `arg:"interface_cutoff"`
		Model           string  `arg:"model" validate:"required"`
	}
}

func (*DesignProteinOperation) Name() string      { return "DESIGN_PROTEIN" }
func (*DesignProteinOperation) Kind() Kind        { return KindProtein }
func (*DesignProteinOperation) NeedsDesign() bool { return true }

func (o *DesignProteinOperation) Validate(t *Tool, args Args) error {
	numSeq, err := intArg("DESIGN_PROTEIN", args, "num_seq_per_target")
	if err != nil {
		return err
	}
	samplingTemp, err := floatArg("DESIGN_PROTEIN", args, "sampling_temp")
	if err != nil {
		return err
	}
	interfaceCutoff, err := floatArg("DESIGN_PROTEIN", args, "interface_cutoff")
	if err != nil {
		return err
	}
	model, err := strArg("DESIGN_PROTEIN", args, "model")
	if err != nil {
		return err
	}
	o.args.NumSeqPerTarget = numSeq
	o.args.SamplingTemp = samplingTemp
	o.args.InterfaceCutoff = interfaceCutoff
	o.args.Model = model
	return checkArgs("DESIGN_PROTEIN", &o.args)
}

func (o *DesignProteinOperation) Details() map[string]any {
	return map[string]any{
		"num_seq_per_target": o.args.NumSeqPerTarget,
		"sampling_temp":      o.args.SamplingTemp,
		"interface_cutoff":   o.args.InterfaceCutoff,
		"model":              o.args.Model,
	}
}

func (o *DesignProteinOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	variants, err := x.Tool.gen.Variants(x.Content, designProteinVariants)
	if err != nil {
		return nil, err
	}
	for i, variant := range variants {
		name := fmt.Sprintf("%s_design_%d", x.Design, i)
		err := x.Tool.createDerived(ctx, KindProtein, name, variant, "tool_design_protein_operation", x.Meta.ID, false)
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// =============================================================================
// CALCULATE_PROTEIN_METRICS
// =============================================================================

// CalculateProteinMetricsOperation scores the current protein with the
// generator and records the scores in the changelog entry. The design
// itself is untouched.
type CalculateProteinMetricsOperation struct {
	args struct {
		EnergyMinimization bool     `arg:"energy_minimization"`
		InterfaceScoring   bool     `arg:"interface_scoring"`
		PredictStability   bool     `arg:"predict_stability"`
		Models             []string `arg:"models" validate:"required,min=1"`
	}
	scores map[string]float64
}

func (*CalculateProteinMetricsOperation) Name() string      { return "CALCULATE_PROTEIN_METRICS" }
func (*CalculateProteinMetricsOperation) Kind() Kind        { return KindProtein }
func (*CalculateProteinMetricsOperation) NeedsDesign() bool { return true }

func (o *CalculateProteinMetricsOperation) Validate(t *Tool, args Args) error {
	energyMinimization, err := boolArg("CALCULATE_PROTEIN_METRICS", args, "energy_minimization")
	if err != nil {
		return err
	}
	interfaceScoring, err := boolArg("CALCULATE_PROTEIN_METRICS", args, "interface_scoring")
	if err != nil {
		return err
	}
	predictStability, err := boolArg("CALCULATE_PROTEIN_METRICS", args, "predict_stability")
	if err != nil {
		return err
	}
	models, err := strListArg("CALCULATE_PROTEIN_METRICS", args, "models")
	if err != nil {
		return err
	}
	o.args.EnergyMinimization = energyMinimization
	o.args.InterfaceScoring = interfaceScoring
	o.args.PredictStability = predictStability
	o.args.Models = models
	return checkArgs("CALCULATE_PROTEIN_METRICS", &o.args)
}

func (o *CalculateProteinMetricsOperation) Details() map[string]any {
	details := map[string]any{"models": o.args.Models}
	for name, score := range o.scores {
		details[name] = score
	}
	return details
}

func (o *CalculateProteinMetricsOperation) Apply(ctx context.Context, x *Exec) (*Result, error) {
	o.scores = x.Tool.gen.Score(x.Content)
	return nil, nil
}
