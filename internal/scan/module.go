// Package scan provides the street-sign scanner bounded context module.
// This file defines the module that encapsulates scan setup and route registration.
package scan

import (
	apphttp "bezirk_scanner/internal/http"
	"bezirk_scanner/internal/scan/handler"
	"bezirk_scanner/internal/scan/service"
	"bezirk_scanner/platform/validator"
)

// Module is the scan bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the scan module from its collaborators.
func NewModule(deps service.Deps, val *validator.Validator) *Module {
	svc := service.New(deps)
	h := handler.New(svc, val, deps.Config.MaxImageSize, deps.Config.MaxTableSize)
	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scan"
}

// Service returns the scan service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts scan routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/status", m.handler.Status)
	ctx.V1.POST("/resolve", m.handler.Resolve)

	sessions := ctx.V1.Group("/sessions")
	sessions.POST("", m.handler.CreateSession)
	sessions.GET("/:id", m.handler.GetSession)
	sessions.DELETE("/:id", m.handler.DeleteSession)
	sessions.POST("/:id/camera", m.handler.OpenCamera)
	sessions.DELETE("/:id/camera", m.handler.CloseCamera)
	sessions.POST("/:id/reset", m.handler.Reset)
	sessions.POST("/:id/lookup-table", m.handler.ImportTable)
	sessions.DELETE("/:id/lookup-table", m.handler.ClearTable)

	if ctx.ScanRateLimiter != nil {
		sessions.POST("/:id/scan", ctx.ScanRateLimiter.RateLimit(), m.handler.Scan)
	} else {
		sessions.POST("/:id/scan", m.handler.Scan)
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
