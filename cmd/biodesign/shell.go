// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/config"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/logging"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/designtool"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata/storage"
)

// shellEnv bundles everything a CLI subcommand needs.
type shellEnv struct {
	cfg    config.Config
	tool   *designtool.Tool
	logger *logging.Logger
}

// buildEnv loads configuration and wires the design tool. The encryption
// key is optional at startup: a shell without ENCRYPTION_KEY can still
// edit designs, it just cannot run EXPORT or IMPORT.
func buildEnv() (*shellEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if authorName != "" {
		cfg.Author = authorName
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		LogDir:  cfg.LogDir,
		Service: "biodesign",
		Quiet:   cfg.LogDir != "", // keep the prompt clean when file logging is on
	})

	cipher, err := metadata.NewCipherFromEnv()
	if err != nil && !errors.Is(err, metadata.ErrKeyNotConfigured) {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.LibraryDir)
	if err != nil {
		return nil, err
	}

	tool, err := designtool.New(designtool.Options{
		Library: metadata.NewLibrary(store),
		Config:  &cfg,
		Cipher:  cipher,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &shellEnv{cfg: cfg, tool: tool, logger: logger}, nil
}

func runShell(cmd *cobra.Command, args []string) error {
	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.logger.Close()

	if !noWatch {
		watcher, err := env.tool.WatchLibrary()
		if err != nil {
			env.logger.Warn("library watcher disabled", "error", err.Error())
		} else {
			defer watcher.Close()
		}
	}

	out := cmd.OutOrStdout()
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(out, "\nWelcome to the BioDesign tool!")
		printHelp(out)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sess := designtool.NewSession()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		current := "none"
		if sess.HasDesign() {
			current = sess.CurrentDesign
		}
		fmt.Fprintf(out, "\nCurrent Design: %s\nEnter a command: ", current)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "exit":
			return scanner.Err()
		case "close":
			sess.Close()
			fmt.Fprintln(out, "Current design closed. Use IMPORT, CREATE, or OPEN to work with a new sequence.")
			continue
		case "print":
			printCurrent(ctx, out, env, sess)
			continue
		case "help":
			printHelp(out)
			continue
		}

		name, opArgs, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(out, "Invalid command format. Use argument_name=value to pass arguments and separate them by single spaces")
			continue
		}
		if err := env.tool.Execute(ctx, sess, name, opArgs); err != nil {
			switch {
			case errors.Is(err, designtool.ErrUnknownOperation):
				fmt.Fprintf(out, "Operation %s not supported\n", name)
			case metadata.IsValidation(err), errors.Is(err, metadata.ErrKeyNotConfigured):
				fmt.Fprintf(out, "Error: %v\n", err)
			default:
				return err
			}
		}
	}
	return scanner.Err()
}

func runRevisions(cmd *cobra.Command, args []string) error {
	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.logger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	name := args[0]

	meta, err := env.tool.Library().Get(ctx, name)
	if err != nil {
		return err
	}
	content, _, err := libraryContent(env.cfg.LibraryDir, name)
	if err != nil {
		return err
	}
	history, err := metadata.History(meta, content)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Design: %s (author %s, last updated %s)\n", history.DesignName, history.Author, history.LastUpdated)
	for _, rev := range history.Revisions {
		fmt.Fprintf(out, "\nRevision %d  %s  %s\n", rev.Revision, rev.OperationCode, rev.Timestamp)
		fmt.Fprintln(out, rev.Design)
	}
	return nil
}

// parseCommand splits an "OP key=value key=value" line into an operation
// name and its arguments.
func parseCommand(line string) (string, designtool.Args, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	name := fields[0]
	opArgs := designtool.Args{}
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("malformed argument %q", field)
		}
		opArgs[key] = value
	}
	return name, opArgs, nil
}

// printCurrent is the "print" auxiliary: a summary of the open design
// and its metadata record.
func printCurrent(ctx context.Context, out io.Writer, env *shellEnv, sess *designtool.Session) {
	if !sess.HasDesign() {
		fmt.Fprintln(out, "Error: No current design is open. Please use IMPORT, CREATE, or OPEN first.")
		return
	}
	content, _, err := libraryContent(env.cfg.LibraryDir, sess.CurrentDesign)
	if err != nil {
		fmt.Fprintf(out, "Error reading design information: %v\n", err)
		return
	}
	meta, err := env.tool.Library().Get(ctx, sess.CurrentDesign)
	if err != nil {
		fmt.Fprintf(out, "Error reading design information: %v\n", err)
		return
	}

	fmt.Fprintln(out, "\nMetadata Information:")
	fmt.Fprintf(out, "Design Name: %s\n", meta.DesignName)
	fmt.Fprintf(out, "Author: %s\n", meta.Author)
	fmt.Fprintf(out, "Description: %s\n", meta.Description)
	fmt.Fprintf(out, "Last Updated: %s\n", meta.LastUpdated)
	fmt.Fprintf(out, "Number of Operations: %d\n", len(meta.Changelog))
	fmt.Fprintln(out, "\nDesign Information:")
	fmt.Fprintf(out, "Length: %d\n", len(content))
}

// libraryContent reads a design from the library in canonical form,
// trying the sequence extension first, then protein.
func libraryContent(libraryDir, name string) (string, designtool.Kind, error) {
	for _, kind := range []designtool.Kind{designtool.KindSequence, designtool.KindProtein} {
		raw, err := os.ReadFile(filepath.Join(libraryDir, name+kind.Ext()))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", kind, err
		}
		if kind == designtool.KindProtein {
			return string(raw), kind, nil
		}
		return strings.ToLower(strings.TrimSpace(string(raw))), kind, nil
	}
	return "", designtool.KindSequence, fmt.Errorf("design %s not found in %s", name, libraryDir)
}

func printHelp(out io.Writer) {
	fmt.Fprintf(out, " - Commands (case-sensitive): %s\n", strings.Join(designtool.OperationNames(), ", "))
	fmt.Fprintln(out, " - Enter COMMAND argument_name=value to pass arguments, separated by single spaces.")
	fmt.Fprintln(out, " - Files must be placed/CREATEd/IMPORTed into the 'library' folder. Exclude file extensions in all command arguments (except for IMPORT).")
	fmt.Fprintln(out, " - Start with IMPORT, CREATE, or OPEN to establish a 'current' design on which other operations will be performed, e.g. OPEN file_name=sample_seq")
	fmt.Fprintln(out, " - (Auxiliary commands, requiring no arguments: help, close, print, exit)")
}
