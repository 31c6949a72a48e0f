// Copyright (C) 2025 Lattice Automation (engineering@latticeautomation.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package provider

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/Lattice-Automation/Biodesign-Metadata-Exchange/pkg/config"
)

// RegisterRoutes registers all provider routes with the router.
//
// Description:
//
//	Registers all /v1/provider/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /v1/provider/order - Validate a design/metadata pair and place an order
//	POST /v1/provider/revisions - Validate a pair and return revision history
//	GET  /v1/provider/orders - List accepted orders
//	GET  /v1/provider/health - Health check
//
// Example:
//
//	svc, _ := provider.NewService(provider.Options{...})
//	handlers := provider.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	provider.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	prov := rg.Group("/provider")
	{
		// Submission endpoints
		prov.POST("/order", handlers.PlaceOrder)
		prov.POST("/revisions", handlers.Revisions)

		// Ledger
		prov.GET("/orders", handlers.ListOrders)

		// Health check
		prov.GET("/health", handlers.Health)
	}
}

// NewRouter builds the provider's Gin engine: recovery, optional rate
// limiting, the /v1/provider API, and Prometheus metrics on /metrics.
func NewRouter(handlers *Handlers, cfg config.ProviderConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.RateLimit > 0 {
		router.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// rateLimitMiddleware sheds load once the shared token bucket is empty.
func rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, StatusResponse{
				Error:   true,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}
