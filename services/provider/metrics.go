// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for the order and revision counters.
const (
	resultAccepted = "accepted"
	resultMismatch = "mismatch"
	resultError    = "error"
)

var (
	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biodesign",
		Subsystem: "provider",
		Name:      "orders_total",
		Help:      "Synthesis order requests by result.",
	}, []string{"result"})

	revisionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biodesign",
		Subsystem: "provider",
		Name:      "revision_requests_total",
		Help:      "Revision history requests by result.",
	}, []string{"result"})

	checksumMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "biodesign",
		Subsystem: "provider",
		Name:      "checksum_mismatches_total",
		Help:      "Submitted design/metadata pairs whose checksums disagreed.",
	})
)
