// Package placeholder masks markup, code and template variables with numbered
// markers ([PH0], [PH1], …) before text is sent to a translation model, and
// puts the originals back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reFencedCode = regexp.MustCompile("(?s)```.*?```")
	reInlineCode = regexp.MustCompile("`[^`\n]+`")
	reHTMLTag    = regexp.MustCompile(`<[^>]+>`)
	// {{name}}, {name} and printf verbs such as %s or %d
	reVariable = regexp.MustCompile(`\{\{[^{}]+\}\}|\{[A-Za-z_][A-Za-z0-9_.]*\}|%[sdvfq]`)

	reMarker = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Masked is text whose protected spans were swapped for markers.
type Masked struct {
	Text      string
	originals []string
}

// Mask replaces fenced code, inline code, HTML tags and template variables,
// in that order, with markers. Markers are numbered in replacement order.
func Mask(text string) Masked {
	m := Masked{}
	swap := func(span string) string {
		marker := "[PH" + strconv.Itoa(len(m.originals)) + "]"
		m.originals = append(m.originals, span)
		return marker
	}
	for _, re := range []*regexp.Regexp{reFencedCode, reInlineCode, reHTMLTag, reVariable} {
		text = re.ReplaceAllStringFunc(text, swap)
	}
	m.Text = text
	return m
}

// Count is the number of masked spans.
func (m Masked) Count() int {
	return len(m.originals)
}

// Unmask puts the original spans back into translated. Markers with an
// unknown index are left untouched.
func (m Masked) Unmask(translated string) string {
	return reMarker.ReplaceAllStringFunc(translated, func(marker string) string {
		idx, err := strconv.Atoi(reMarker.FindStringSubmatch(marker)[1])
		if err != nil || idx >= len(m.originals) {
			return marker
		}
		return m.originals[idx]
	})
}

// Missing returns the indices of markers that do not appear in translated.
func (m Masked) Missing(translated string) []int {
	var missing []int
	for i := range m.originals {
		if !strings.Contains(translated, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// Hint is appended to a system prompt when markers are in play.
func Hint() string {
	return "Keep every [PHn] marker exactly as it appears; do not translate, move or remove them."
}
