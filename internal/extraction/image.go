package extraction

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMIMEType is assumed when a capture does not say what it is.
const DefaultMIMEType = "image/jpeg"

var dataURLPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg);base64,`)

// Image is one captured photo.
type Image struct {
	Data     []byte
	MIMEType string
}

// DecodeDataURL accepts what a browser canvas produces, with or without the
// data URL prefix. Prefix-less input is taken as JPEG.
func DecodeDataURL(s string) (Image, error) {
	s = strings.TrimSpace(s)
	mimeType := DefaultMIMEType
	if m := dataURLPrefix.FindStringSubmatch(s); m != nil {
		if m[1] == "png" {
			mimeType = "image/png"
		}
		s = s[len(m[0]):]
	}
	if s == "" {
		return Image{}, ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}
