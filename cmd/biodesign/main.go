// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command biodesign is the design-side CLI: an interactive shell over
// the design library, with versioned edits, encrypted export/import,
// and revision inspection.
//
// Usage:
//
//	go run ./cmd/biodesign shell
//	ENCRYPTION_KEY=<base64 key> go run ./cmd/biodesign shell
//
// Example session:
//
//	Current Design: none
//	Enter a command: CREATE file_name=vector sequence=atgc
//	Current Design: vector
//	Enter a command: APPEND insert_sequence=tga
//	Enter a command: EXPORT include_metadata=true
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
