package internal

import (
	"fmt"
	"strings"
	"time"
)

// Metadata travels unchanged through every stage of a translation run.
type Metadata struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Domain         string `json:"domain,omitempty"`
	Style          string `json:"style,omitempty"`
}

// PairKey identifies the language pair, e.g. "english-to-spanish".
func (m Metadata) PairKey() string {
	return fmt.Sprintf("%s-to-%s",
		strings.ToLower(strings.TrimSpace(m.SourceLanguage)),
		strings.ToLower(strings.TrimSpace(m.TargetLanguage)))
}

type TranslationRequest struct {
	ID         string    `json:"id"`
	SourceText string    `json:"source_text"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Format     string    `json:"format"`
	Timestamp  time.Time `json:"timestamp"`
}
