package extraction

import "errors"

var (
	// ErrCredentialMissing means no usable API key was configured. It is
	// never wrapped in an ExtractionError.
	ErrCredentialMissing = errors.New("API_KEY_MISSING")
	// ErrNoSignDetected is returned by callers that treat the Unknown
	// sentinel as a failure.
	ErrNoSignDetected = errors.New("no street sign detected")
	// ErrInvalidImage is returned for empty or undecodable image input.
	ErrInvalidImage = errors.New("invalid image")
)

// ExtractionError is any failure of the model call or of its response.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return "Google AI Error: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
