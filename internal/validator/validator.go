// Package validator checks that a translation result is in the expected target language.
package validator

import (
	"fmt"

	"github.com/valpere/revtran/internal/detector"
	"github.com/valpere/revtran/internal/markdown"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks that a translation result is written in the expected target language.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// NewWithDetector shares an existing detector.
func NewWithDetector(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// IsValid returns true when translated appears to be written in targetLang,
// given as an English language name or an ISO code. Markup is ignored.
//
// Short texts and texts whose language cannot be determined pass without
// error. When the detected language differs from targetLang the returned
// error names both.
func (v *Validator) IsValid(translated, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := markdown.PlainText(translated)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	lang, ok := v.det.Detect(text)
	if !ok {
		return true, nil
	}

	if !detector.Matches(lang, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detector.Name(lang))
	}

	return true, nil
}
