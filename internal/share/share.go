// Package share serves the app link as a QR code so a colleague can open
// the scanner on their phone.
package share

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apphttp "bezirk_scanner/internal/http"
	"bezirk_scanner/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	defaultSize = 256
	minSize     = 128
	maxSize     = 1024
)

// LinkResponse is the plain app link.
type LinkResponse struct {
	URL string `json:"url"`
}

// Module implements http.Module for the share endpoints.
type Module struct {
	baseURL string
}

// NewModule creates the share module for the given public app URL.
func NewModule(baseURL string) *Module {
	return &Module{baseURL: strings.TrimSpace(baseURL)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "share"
}

// RegisterRoutes mounts the share routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/share")
	g.GET("", m.Link)
	g.GET("/qr", m.QR)
}

// Link handles GET /api/v1/share
func (m *Module) Link(c *gin.Context) {
	if m.baseURL == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, "app url not configured", nil)
		return
	}
	httpkit.OK(c, LinkResponse{URL: m.baseURL})
}

// QR handles GET /api/v1/share/qr?size=256
func (m *Module) QR(c *gin.Context) {
	if m.baseURL == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, "app url not configured", nil)
		return
	}

	size, err := parseSize(c.Query("size"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	png, err := Encode(m.baseURL, size)
	if err != nil {
		_ = c.Error(err)
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// Encode renders url as a PNG QR code of size x size pixels.
func Encode(url string, size int) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

func parseSize(raw string) (int, error) {
	if raw == "" {
		return defaultSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < minSize || size > maxSize {
		return 0, fmt.Errorf("size must be between %d and %d", minSize, maxSize)
	}
	return size, nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
