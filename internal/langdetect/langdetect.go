// Package langdetect identifies the language of retrieved text. Detection is best-effort:
// failures are reported in the returned domain.Detection, never as a panic or error return.
package langdetect

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"

	"hybridrag/internal/domain"
)

var (
	// ErrEmptyText is reported for blank input.
	ErrEmptyText = errors.New("text is empty")
	// ErrUndetermined is reported when no writing system or language could be identified.
	ErrUndetermined = errors.New("language could not be determined")
	// ErrLowConfidence is reported when the best guess is below the configured confidence.
	ErrLowConfidence = errors.New("language confidence below threshold")
)

// Detector is a statistical detector backed by whatlanggo. It is stateless and deterministic
// for identical text.
type Detector struct {
	minConfidence float64
}

// Option configures a Detector.
type Option func(*Detector)

// WithMinConfidence rejects guesses whose confidence is below c (0..1).
func WithMinConfidence(c float64) Option {
	return func(d *Detector) { d.minConfidence = c }
}

// New creates a Detector.
func New(opts ...Option) *Detector {
	d := &Detector{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the ISO 639-1 code of the text's language, falling back to ISO 639-3 for
// languages without a two-letter code.
func (d *Detector) Detect(text string) domain.Detection {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Detection{Err: ErrEmptyText}
	}
	info := whatlanggo.Detect(trimmed)
	if info.Script == nil || info.Lang < 0 {
		return domain.Detection{Err: ErrUndetermined}
	}
	code := info.Lang.Iso6391()
	if code == "" {
		code = info.Lang.Iso6393()
	}
	if code == "" {
		return domain.Detection{Err: ErrUndetermined}
	}
	if info.Confidence < d.minConfidence {
		return domain.Detection{Language: code, Confidence: info.Confidence, Err: ErrLowConfidence}
	}
	return domain.Detection{Language: code, Confidence: info.Confidence}
}
