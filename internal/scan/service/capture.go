package service

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Capture is what the camera recorded about a photo, when it recorded anything.
type Capture struct {
	TakenAt   *time.Time
	Latitude  *float64
	Longitude *float64
}

// Empty reports whether no metadata was found.
func (c Capture) Empty() bool {
	return c.TakenAt == nil && c.Latitude == nil && c.Longitude == nil
}

// readCapture extracts EXIF time and position from a JPEG. Canvas captures
// carry no EXIF; uploads from the gallery usually do.
func readCapture(data []byte, mimeType string) Capture {
	var c Capture
	if mimeType != "image/jpeg" {
		return c
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return c
	}

	if taken, err := x.DateTime(); err == nil {
		c.TakenAt = &taken
	}
	if lat, long, err := x.LatLong(); err == nil {
		c.Latitude = &lat
		c.Longitude = &long
	}
	return c
}
