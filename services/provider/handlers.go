// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package provider

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/services/metadata"
)

// Response messages are part of the wire contract with existing clients;
// do not reword them.
const (
	msgFilesRequired    = "Both design file and metadata file are required."
	msgChecksumMismatch = "Design file and metadata file do not match. Please upload matching files."
	msgOrderPlaced      = "Order placed successfully."
)

// SubmissionRequest is the JSON body of the order and revisions
// endpoints: file names relative to the provider's exported directory.
type SubmissionRequest struct {
	DesignFilePath   string `json:"designFilePath"`
	MetadataFilePath string `json:"metadataFilePath"`
}

// StatusResponse is the envelope for order results and all failures.
type StatusResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Handlers holds the HTTP handlers for the provider service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers backed by the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// PlaceOrder handles POST /order: validate the submitted pair and place
// a synthesis order.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	req, ok := h.bindSubmission(c)
	if !ok {
		ordersTotal.WithLabelValues(resultError).Inc()
		return
	}

	sub, err := h.svc.PlaceOrder(c.Request.Context(), req.DesignFilePath, req.MetadataFilePath)
	if err != nil {
		ordersTotal.WithLabelValues(resultError).Inc()
		h.submissionError(c, err)
		return
	}
	if !sub.Match {
		ordersTotal.WithLabelValues(resultMismatch).Inc()
		checksumMismatchesTotal.Inc()
		c.JSON(http.StatusOK, StatusResponse{Error: true, Message: msgChecksumMismatch})
		return
	}

	ordersTotal.WithLabelValues(resultAccepted).Inc()
	c.JSON(http.StatusOK, StatusResponse{Error: false, Message: msgOrderPlaced})
}

// Revisions handles POST /revisions: validate the submitted pair and
// return the design's reconstructed revision history.
func (h *Handlers) Revisions(c *gin.Context) {
	req, ok := h.bindSubmission(c)
	if !ok {
		revisionRequestsTotal.WithLabelValues(resultError).Inc()
		return
	}

	sub, history, err := h.svc.Revisions(c.Request.Context(), req.DesignFilePath, req.MetadataFilePath)
	if err != nil {
		revisionRequestsTotal.WithLabelValues(resultError).Inc()
		h.submissionError(c, err)
		return
	}
	if !sub.Match {
		revisionRequestsTotal.WithLabelValues(resultMismatch).Inc()
		checksumMismatchesTotal.Inc()
		c.JSON(http.StatusOK, StatusResponse{Error: true, Message: msgChecksumMismatch})
		return
	}

	revisionRequestsTotal.WithLabelValues(resultAccepted).Inc()
	c.JSON(http.StatusOK, history)
}

// ListOrders handles GET /orders: the accepted-order ledger, oldest
// first.
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.svc.Orders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, StatusResponse{Error: true, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "provider",
	})
}

// bindSubmission parses and validates the shared request body. On
// failure it writes the response and returns ok=false.
func (h *Handlers) bindSubmission(c *gin.Context) (SubmissionRequest, bool) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StatusResponse{Error: true, Message: msgFilesRequired})
		return SubmissionRequest{}, false
	}
	if req.DesignFilePath == "" || req.MetadataFilePath == "" {
		c.JSON(http.StatusBadRequest, StatusResponse{Error: true, Message: msgFilesRequired})
		return SubmissionRequest{}, false
	}
	return req, true
}

// submissionError maps service errors onto HTTP statuses. A submitted
// name that points at nothing, escapes the drop area, or carries an
// undecryptable token is the client's fault; everything else is ours.
func (h *Handlers) submissionError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, ErrOutsideExportedDir),
		errors.Is(err, metadata.ErrDecrypt):
		status = http.StatusBadRequest
	}
	c.JSON(status, StatusResponse{Error: true, Message: err.Error()})
}
