package storage

import (
	"fmt"
	"strings"
)

// AllowedImageTypes are the capture formats the vision model accepts.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AllowedTableTypes are what browsers report for a delimited text upload.
var AllowedTableTypes = map[string]bool{
	"text/csv":                    true,
	"text/plain":                  true,
	"application/csv":             true,
	"application/vnd.ms-excel":    true,
	"application/octet-stream":    true,
	"text/comma-separated-values": true,
}

// NormalizeContentType lowercases and drops parameters such as charset.
func NormalizeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

// ValidateImageContentType checks a capture's MIME type.
func ValidateImageContentType(contentType string) error {
	if _, ok := AllowedImageTypes[NormalizeContentType(contentType)]; !ok {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateTableContentType checks a lookup table upload. An empty type is
// accepted since some mobile browsers send none for .csv files.
func ValidateTableContentType(contentType string) error {
	normalized := NormalizeContentType(contentType)
	if normalized == "" || AllowedTableTypes[normalized] {
		return nil
	}
	return fmt.Errorf("content type %q is not allowed", contentType)
}

// ValidateFileSize checks if the file size is within limits.
func ValidateFileSize(sizeBytes, maxBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxBytes)
	}
	return nil
}

// ExtensionFor returns the file extension for an image MIME type.
func ExtensionFor(contentType string) string {
	if ext, ok := AllowedImageTypes[NormalizeContentType(contentType)]; ok {
		return ext
	}
	return ".bin"
}
