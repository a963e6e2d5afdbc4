// Package extraction reads a street name and house number off a photo of a
// street sign with a multimodal language model.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"bezirk_scanner/internal/streets"
	"bezirk_scanner/platform/logger"
	"bezirk_scanner/platform/sanitize"
)

// Unknown is the street reported when the model found no sign.
const Unknown = "UNKNOWN"

// Extraction is what the model read.
type Extraction struct {
	Street    string
	Number    string
	StreetBox *streets.BoundingBox
	NumberBox *streets.BoundingBox
}

// Detected reports whether a street name was found.
func (e Extraction) Detected() bool {
	return e.Street != Unknown
}

// Extractor is the interface the scan pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, img Image) (Extraction, error)
	Available() bool
}

// Client calls a model.LLM. A Client built without a model reports
// ErrCredentialMissing on every call.
type Client struct {
	llm      model.LLM
	provider string
	log      *logger.Logger
}

// NewClient wraps llm. Pass a nil llm when no API key is configured.
func NewClient(llm model.LLM, provider string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}
	return &Client{llm: llm, provider: provider, log: log}
}

// Available reports whether a model is configured.
func (c *Client) Available() bool {
	return c != nil && c.llm != nil
}

// Provider names the configured backend.
func (c *Client) Provider() string {
	return c.provider
}

type modelReply struct {
	Street    *string   `json:"street"`
	StreetBox []float64 `json:"street_box_2d"`
	Number    *string   `json:"number"`
	NumberBox []float64 `json:"number_box_2d"`
}

// Extract sends img with the fixed instruction and parses the structured reply.
func (c *Client) Extract(ctx context.Context, img Image) (Extraction, error) {
	if !c.Available() {
		return Extraction{}, ErrCredentialMissing
	}
	if len(img.Data) == 0 {
		return Extraction{}, &ExtractionError{Err: ErrInvalidImage}
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}

	req := &model.LLMRequest{
		Model: c.llm.Name(),
		Contents: []*genai.Content{{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromBytes(img.Data, mimeType),
				genai.NewPartFromText(instruction),
			},
		}},
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	start := time.Now()
	text, err := c.generate(ctx, req)
	if err != nil {
		c.log.WithContext(ctx).ExtractionError(c.provider, err)
		return Extraction{}, &ExtractionError{Err: err}
	}

	result, err := parseReply(text)
	if err != nil {
		c.log.WithContext(ctx).ExtractionError(c.provider, err)
		return Extraction{}, &ExtractionError{Err: err}
	}

	c.log.WithContext(ctx).Debug("extraction finished",
		"provider", c.provider,
		"street", result.Street,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (c *Client) generate(ctx context.Context, req *model.LLMRequest) (string, error) {
	var out strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				out.WriteString(part.Text)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// parseReply treats an empty body as an empty object, so a silent model
// yields Unknown rather than an error.
func parseReply(text string) (Extraction, error) {
	payload := sanitize.JSONPayload(text)
	if payload == "" {
		payload = "{}"
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return Extraction{}, fmt.Errorf("unreadable model response: %w", err)
	}

	result := Extraction{Street: Unknown}
	if reply.Street != nil {
		if street := sanitize.Text(*reply.Street); street != "" {
			result.Street = street
		}
	}
	if reply.Number != nil {
		result.Number = sanitize.Text(*reply.Number)
	}
	result.StreetBox = toBox(reply.StreetBox)
	result.NumberBox = toBox(reply.NumberBox)
	return result, nil
}

func toBox(values []float64) *streets.BoundingBox {
	ints := make([]int, len(values))
	for i, v := range values {
		ints[i] = int(math.Round(v))
	}
	box, ok := streets.BoxFromSlice(ints)
	if !ok {
		return nil
	}
	return box
}

// IsCredentialMissing reports whether err is ErrCredentialMissing.
func IsCredentialMissing(err error) bool {
	return errors.Is(err, ErrCredentialMissing)
}
