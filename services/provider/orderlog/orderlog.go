// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orderlog is the provider's append-only ledger of accepted
// synthesis orders, embedded in BadgerDB for low-latency local writes.
//
// Every order that passes the checksum gate is recorded with the design
// identity it was validated against; the ledger is what a provider
// audits when a synthesized design is disputed.
package orderlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const keyPrefix = "order/"

// Config holds configuration for the ledger's BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory
	// is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for
	// testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. If nil, BadgerDB
	// logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns durable defaults for production use.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryConfig returns configuration for tests: no disk I/O, no sync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Order is one accepted synthesis order.
type Order struct {
	ID             string    `json:"id"`
	DesignName     string    `json:"designName"`
	DesignChecksum string    `json:"designChecksum"`
	MetadataID     string    `json:"metadataId"`
	PlacedAt       time.Time `json:"placedAt"`
}

// Ledger is the append-only order store.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions do the serialization.
type Ledger struct {
	db *badger.DB
}

// Open opens the ledger, creating the directory if needed.
func Open(cfg Config) (*Ledger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("orderlog: Config.Path is required unless InMemory is set")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("orderlog: create %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("orderlog: open badger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append records one accepted order. A zero ID or PlacedAt is filled in.
func (l *Ledger) Append(ctx context.Context, order Order) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.PlacedAt.IsZero() {
		order.PlacedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return Order{}, fmt.Errorf("orderlog: marshal order: %w", err)
	}
	key := keyPrefix + order.PlacedAt.UTC().Format(time.RFC3339Nano) + "/" + order.ID
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
	if err != nil {
		return Order{}, fmt.Errorf("orderlog: append: %w", err)
	}
	return order, nil
}

// List returns every recorded order in placement order, oldest first.
func (l *Ledger) List(ctx context.Context) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var orders []Order
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var order Order
				if err := json.Unmarshal(val, &order); err != nil {
					return fmt.Errorf("orderlog: decode %s: %w", it.Item().Key(), err)
				}
				orders = append(orders, order)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(badgerMsg(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(badgerMsg(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(badgerMsg(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(badgerMsg(format, args...))
}

func badgerMsg(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
