// Package transport holds the JSON shapes of the scanner API.
package transport

import (
	"time"

	"bezirk_scanner/internal/session"
	"bezirk_scanner/internal/streets"
)

// ScanImageRequest carries a canvas capture as a data URL.
type ScanImageRequest struct {
	Image string `json:"image" validate:"required"`
}

// ResolveRequest is a typed-in address.
type ResolveRequest struct {
	Street    string `json:"street" validate:"notblank,max=200"`
	Number    string `json:"number" validate:"max=20"`
	SessionID string `json:"sessionId" validate:"omitempty,uuid"`
}

// ResultResponse is a resolved address with overlay positions for the photo.
type ResultResponse struct {
	Name          string               `json:"name"`
	Number        string               `json:"number,omitempty"`
	District      string               `json:"district,omitempty"`
	Source        string               `json:"source"`
	StreetBox     *streets.BoundingBox `json:"streetBox,omitempty"`
	NumberBox     *streets.BoundingBox `json:"numberBox,omitempty"`
	StreetOverlay *streets.BoxPercent  `json:"streetOverlay,omitempty"`
	NumberOverlay *streets.BoxPercent  `json:"numberOverlay,omitempty"`
}

// SpeechPayload is handed to the browser's speech synthesis.
type SpeechPayload struct {
	Text  string  `json:"text"`
	Lang  string  `json:"lang"`
	Rate  float64 `json:"rate"`
	Pitch float64 `json:"pitch"`
}

// CaptureResponse is the EXIF metadata of an uploaded photo.
type CaptureResponse struct {
	TakenAt   *time.Time `json:"takenAt,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
}

// ScanResponse is the answer to a scan.
type ScanResponse struct {
	Result     ResultResponse   `json:"result"`
	Speech     *SpeechPayload   `json:"speech,omitempty"`
	Capture    *CaptureResponse `json:"capture,omitempty"`
	ArchiveKey string           `json:"archiveKey,omitempty"`
	ArchiveURL string           `json:"archiveUrl,omitempty"`
}

// SessionResponse is a session snapshot.
type SessionResponse struct {
	ID         string          `json:"id"`
	State      string          `json:"state"`
	TableSize  int             `json:"tableSize"`
	LastResult *ResultResponse `json:"lastResult,omitempty"`
	LastError  string          `json:"lastError,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ImportTableResponse reports a lookup table upload.
type ImportTableResponse struct {
	Entries int    `json:"entries"`
	Message string `json:"message"`
}

// APIStatusResponse tells the front end whether to enable the camera button.
type APIStatusResponse struct {
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
	Provider         string `json:"provider"`
}

// ToResult maps a resolver result and computes overlays.
func ToResult(r streets.Result) ResultResponse {
	out := ResultResponse{
		Name:      r.Name,
		Number:    r.Number,
		District:  r.District,
		Source:    string(r.Source),
		StreetBox: r.StreetBox,
		NumberBox: r.NumberBox,
	}
	if r.StreetBox != nil {
		p := r.StreetBox.Percent()
		out.StreetOverlay = &p
	}
	if r.NumberBox != nil {
		p := r.NumberBox.Percent()
		out.NumberOverlay = &p
	}
	return out
}

// ToSession maps a session snapshot.
func ToSession(st session.Status) SessionResponse {
	out := SessionResponse{
		ID:        st.ID,
		State:     string(st.State),
		TableSize: st.TableSize,
		LastError: st.LastError,
		CreatedAt: st.CreatedAt,
	}
	if st.LastResult != nil {
		r := ToResult(*st.LastResult)
		out.LastResult = &r
	}
	return out
}

// NewSpeech returns nil when there is nothing to say.
func NewSpeech(text, lang string) *SpeechPayload {
	if text == "" {
		return nil
	}
	return &SpeechPayload{Text: text, Lang: lang, Rate: 1, Pitch: 1}
}
