// Package document splits a document into independently translatable blocks
// and puts translated blocks back at the place they came from.
package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSegmentation marks a document that could not be split into blocks at
// all. It is fatal for the whole document.
var ErrSegmentation = errors.New("document segmentation failed")

// WholeDocument is the path of the single block produced in text mode.
const WholeDocument = "*"

// Mode tells the segmenter how to read the input.
type Mode string

const (
	ModeText     Mode = "text"
	ModeHTML     Mode = "html"
	ModeMarkdown Mode = "markdown"
)

// ParseMode resolves a --format value. An empty value means html.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHTML:
		return ModeHTML, nil
	case ModeText, "plain", "txt":
		return ModeText, nil
	case ModeMarkdown, "md":
		return ModeMarkdown, nil
	}
	return "", fmt.Errorf("unknown document format %q", s)
}

// Structured reports whether blocks in this mode carry markup.
func (m Mode) Structured() bool {
	return m != ModeText
}

// Block is one translatable unit. Content is never modified after
// segmentation; Translation stays empty until the block's pipeline finishes.
type Block struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Path        string `json:"path"`
	Translation string `json:"translation,omitempty"`
}

// Translated reports whether a translation has been written back.
func (b Block) Translated() bool {
	return b.Translation != ""
}

// ReassemblyFailure is a block whose path no longer resolves to exactly one
// node of the original document. The block keeps its source content.
type ReassemblyFailure struct {
	BlockID string `json:"block_id"`
	Path    string `json:"path"`
	Matches int    `json:"matches"`
}

func (f ReassemblyFailure) Error() string {
	return fmt.Sprintf("block %s: path %q matched %d nodes", f.BlockID, f.Path, f.Matches)
}
