// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads tool configuration from an optional YAML file with
// environment variable overrides. The encryption key is deliberately NOT
// part of this file; it comes only from the environment and is handled by
// the metadata package so it never lands on disk next to the designs it
// protects.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default locations, relative to the working directory. They mirror the
// layout the original tooling used: designs and their metadata records
// live in library/, encrypted transfer artifacts in exported/.
const (
	DefaultLibraryDir  = "library"
	DefaultExportedDir = "exported"
	DefaultConfigFile  = "biodesign.yaml"
)

// Config holds the settings shared by the CLI and the provider server.
type Config struct {
	// LibraryDir is the trusted working area: design files plus their
	// metadata records.
	LibraryDir string `yaml:"library_dir"`

	// ExportedDir is the untrusted transfer area: design files as-is,
	// metadata as encrypted tokens.
	ExportedDir string `yaml:"exported_dir"`

	// Author is recorded on newly created metadata records.
	Author string `yaml:"author"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogDir enables file logging when set.
	LogDir string `yaml:"log_dir"`

	// Provider configures the synthesis provider server.
	Provider ProviderConfig `yaml:"provider"`
}

// ProviderConfig configures the provider HTTP backend.
type ProviderConfig struct {
	// Port the server listens on.
	Port int `yaml:"port"`

	// OrderLogDir is the BadgerDB directory for the accepted-order ledger.
	// Empty selects in-memory mode (orders not persisted across restarts).
	OrderLogDir string `yaml:"order_log_dir"`

	// RateLimit is the sustained requests-per-second budget per server;
	// zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst allowance when RateLimit is enabled.
	RateBurst int `yaml:"rate_burst"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LibraryDir:  DefaultLibraryDir,
		ExportedDir: DefaultExportedDir,
		Author:      "John Smith",
		LogLevel:    "info",
		Provider: ProviderConfig{
			Port:      8000,
			RateLimit: 50,
			RateBurst: 100,
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist, then applies environment overrides. A file that
// exists but fails to parse is an error; silently ignoring a typo'd config
// is worse than failing.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigFile
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides file values from the environment. Only settings that
// make sense per-invocation are exposed this way.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BIODESIGN_LIBRARY_DIR"); v != "" {
		cfg.LibraryDir = v
	}
	if v := os.Getenv("BIODESIGN_EXPORTED_DIR"); v != "" {
		cfg.ExportedDir = v
	}
	if v := os.Getenv("BIODESIGN_AUTHOR"); v != "" {
		cfg.Author = v
	}
	if v := os.Getenv("BIODESIGN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BIODESIGN_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
}
