// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// VisionConfig provides settings for the sign-reading model.
type VisionConfig interface {
	GetVisionProvider() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetMoonshotAPIKey() string
	GetMoonshotModel() string
	HasVisionCredential() bool
}

// ScanConfig provides limits for the scan endpoints.
type ScanConfig interface {
	GetMaxImageSize() int64
	GetMaxTableSize() int64
	GetScanRatePerMinute() float64
	GetScanRateBurst() int
}

// SessionConfig provides settings for the in-memory session store.
type SessionConfig interface {
	GetSessionTTL() time.Duration
}

// StreetRulesConfig provides the optional override file for dedicated street rules.
type StreetRulesConfig interface {
	GetStreetRulesFile() string
}

// ShareConfig provides the public app URL used for sharing.
type ShareConfig interface {
	GetAppBaseURL() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketScans() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	AppBaseURL        string
	VisionProvider    string
	GeminiAPIKey      string
	GeminiModel       string
	MoonshotAPIKey    string
	MoonshotModel     string
	MaxImageSize      int64
	MaxTableSize      int64
	ScanRatePerMinute float64
	ScanRateBurst     int
	SessionTTL        time.Duration
	StreetRulesFile   string
	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	MinIOMaxFileSize  int64
	MinioBucketScans  string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// VisionConfig implementation
func (c *Config) GetVisionProvider() string { return c.VisionProvider }
func (c *Config) GetGeminiAPIKey() string   { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string    { return c.GeminiModel }
func (c *Config) GetMoonshotAPIKey() string { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotModel() string  { return c.MoonshotModel }

// HasVisionCredential reports whether the selected provider has a usable key.
// Build pipelines that inline env vars sometimes leave the literal "undefined".
func (c *Config) HasVisionCredential() bool {
	key := c.GeminiAPIKey
	if c.VisionProvider == ProviderMoonshot {
		key = c.MoonshotAPIKey
	}
	return validKey(key)
}

// ScanConfig implementation
func (c *Config) GetMaxImageSize() int64        { return c.MaxImageSize }
func (c *Config) GetMaxTableSize() int64        { return c.MaxTableSize }
func (c *Config) GetScanRatePerMinute() float64 { return c.ScanRatePerMinute }
func (c *Config) GetScanRateBurst() int         { return c.ScanRateBurst }

// SessionConfig implementation
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

// StreetRulesConfig implementation
func (c *Config) GetStreetRulesFile() string { return c.StreetRulesFile }

// ShareConfig implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketScans() string {
	return c.MinioBucketScans
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

const (
	// ProviderGemini selects Google Gemini for sign reading.
	ProviderGemini = "gemini"
	// ProviderMoonshot selects Moonshot Kimi vision for sign reading.
	ProviderMoonshot = "moonshot"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	// API_KEY is what older front-end builds inline for the Gemini key.
	geminiKey := getEnv("GEMINI_API_KEY", "")
	if geminiKey == "" {
		geminiKey = getEnv("API_KEY", "")
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:5173"),
		VisionProvider:    strings.ToLower(getEnv("VISION_PROVIDER", ProviderGemini)),
		GeminiAPIKey:      geminiKey,
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MoonshotAPIKey:    getEnv("MOONSHOT_API_KEY", ""),
		MoonshotModel:     getEnv("MOONSHOT_MODEL", "kimi-k2.5"),
		MaxImageSize:      mustInt64(getEnv("SCAN_MAX_IMAGE_SIZE", "10485760")),
		MaxTableSize:      mustInt64(getEnv("SCAN_MAX_TABLE_SIZE", "2097152")),
		ScanRatePerMinute: mustFloat(getEnv("SCAN_RATE_PER_MINUTE", "20")),
		ScanRateBurst:     mustInt(getEnv("SCAN_RATE_BURST", "5")),
		SessionTTL:        mustDuration(getEnv("SESSION_TTL", "12h")),
		StreetRulesFile:   getEnv("STREET_RULES_FILE", ""),
		MinIOEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:       strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:  mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketScans:  getEnv("MINIO_BUCKET_SCANS", "sign-scans"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.VisionProvider != ProviderGemini && c.VisionProvider != ProviderMoonshot {
		return fmt.Errorf("VISION_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderMoonshot, c.VisionProvider)
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if c.MaxImageSize <= 0 || c.MaxTableSize <= 0 {
		return fmt.Errorf("SCAN_MAX_IMAGE_SIZE and SCAN_MAX_TABLE_SIZE must be positive")
	}
	if c.IsMinIOEnabled() && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return nil
}

func validKey(key string) bool {
	return key != "" && key != "undefined"
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
