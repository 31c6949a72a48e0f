// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command provider starts the synthesis provider API server.
//
// The server validates submitted design/metadata pairs against the
// shared encryption key, records accepted orders in a local BadgerDB
// ledger, and serves reconstructed revision histories.
//
// Usage:
//
//	ENCRYPTION_KEY=<base64 key> go run ./cmd/provider
//	ENCRYPTION_KEY=<base64 key> go run ./cmd/provider -port 9090
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8000/v1/provider/health
//
//	# Place an order
//	curl -X POST http://localhost:8000/v1/provider/order \
//	  -H "Content-Type: application/json" \
//	  -d '{"designFilePath": "vector.gb", "metadataFilePath": "metadata_vector.txt"}'
//
//	# Revision history
//	curl -X POST http://localhost:8000/v1/provider/revisions \
//	  -H "Content-Type: application/json" \
//	  -d '{"designFilePath": "vector.gb", "metadataFilePath": "metadata_vector.txt"}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/config"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/logging"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/provider"
	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/provider/orderlog"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (default biodesign.yaml)")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Provider.Port = *port
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		LogDir:  cfg.LogDir,
		Service: "provider",
		JSON:    true,
	})
	defer logger.Close()

	// The provider cannot do anything without the shared key; fail fast.
	cipher, err := metadata.NewCipherFromEnv()
	if err != nil {
		log.Fatalf("Failed to load encryption key: %v", err)
	}

	var ledger *orderlog.Ledger
	if cfg.Provider.OrderLogDir != "" {
		ledgerCfg := orderlog.DefaultConfig(cfg.Provider.OrderLogDir)
		ledgerCfg.Logger = logger.Slog()
		ledger, err = orderlog.Open(ledgerCfg)
	} else {
		logger.Warn("no order_log_dir configured, orders will not survive restarts")
		ledger, err = orderlog.Open(orderlog.InMemoryConfig())
	}
	if err != nil {
		log.Fatalf("Failed to open order ledger: %v", err)
	}
	defer ledger.Close()

	svc, err := provider.NewService(provider.Options{
		ExportedDir: cfg.ExportedDir,
		Cipher:      cipher,
		Ledger:      ledger,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to create provider service: %v", err)
	}

	router := provider.NewRouter(provider.NewHandlers(svc), cfg.Provider)
	if *debug {
		router.Use(gin.Logger())
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Provider.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting provider server",
			"address", srv.Addr,
			"exported_dir", cfg.ExportedDir,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down provider server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("provider server failed", "error", err.Error())
		os.Exit(1)
	}
}
