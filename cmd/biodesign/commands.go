// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	authorName string
	noWatch    bool

	rootCmd = &cobra.Command{
		Use:   "biodesign",
		Short: "A cli for versioned biodesign editing and secure metadata exchange",
		Long: `BioDesign manages a library of sequence and protein designs, records
every edit in an append-only changelog, and exchanges designs with
synthesis providers as plain files plus encrypted metadata tokens.`,
	}

	// --- Interactive shell ---
	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive design shell",
		RunE:  runShell, // Defined in shell.go
	}

	// --- Revision inspection ---
	revisionsCmd = &cobra.Command{
		Use:   "revisions [design_name]",
		Short: "Print the reconstructed revision history of a library design",
		Args:  cobra.ExactArgs(1),
		RunE:  runRevisions, // Defined in shell.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file (default biodesign.yaml)")
	rootCmd.PersistentFlags().StringVar(&authorName, "author", "", "Author recorded on new metadata records")

	shellCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the library file watcher")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(revisionsCmd)
}
