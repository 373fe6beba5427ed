// Package detector identifies the language of a text with lingua-go.
//
// Languages are named the way the rest of revtran names them: lower-case
// English names such as "english" or "vietnamese".
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Detector is safe for concurrent use. Building one loads language models,
// so reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectName returns the detected language as a lower-case English name.
func (d *Detector) DetectName(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return Name(lang), true
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

func Name(lang lingua.Language) string {
	return strings.ToLower(lang.String())
}

// Matches reports whether lang is the language called want, given as an
// English name or an ISO 639-1 or 639-3 code, case-insensitively.
func Matches(lang lingua.Language, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || lang == lingua.Unknown {
		return false
	}
	return strings.EqualFold(lang.String(), want) ||
		strings.EqualFold(lang.IsoCode639_1().String(), want) ||
		strings.EqualFold(lang.IsoCode639_3().String(), want)
}
