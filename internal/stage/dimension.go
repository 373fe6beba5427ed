package stage

import "strings"

// Dimension is a translation quality axis with its own reviewer and refiner.
type Dimension int

const (
	Accuracy Dimension = iota
	Fluency
	Style
	Terminology
	Consistency
	Readability
	Formatting
)

// DimensionCount is the number of reviewed dimensions.
const DimensionCount = 7

var dimensionNames = [DimensionCount]string{
	"Accuracy", "Fluency", "Style", "Terminology", "Consistency", "Readability", "Formatting",
}

// dimensionFocus is the one-line brief handed to the reviewer and refiner.
var dimensionFocus = [DimensionCount]string{
	Accuracy:    "the meaning is faithfully conveyed, with no omissions, additions, mistranslations or untranslated text",
	Fluency:     "the text reads naturally in {targetLanguage}, with correct grammar, agreement of gender and number, and idiomatic phrasing",
	Style:       "the tone and register match the source and stay formal and professional",
	Terminology: "domain terms are translated correctly and used consistently, following the glossary when one is given",
	Consistency: "names, terms and phrasing are rendered the same way throughout the text",
	Readability: "sentences are clear and concise for the intended audience without changing meaning",
	Formatting:  "markup, placeholders, punctuation, numbers and line breaks are preserved exactly",
}

func (d Dimension) String() string {
	if d < 0 || int(d) >= DimensionCount {
		return "Unknown"
	}
	return dimensionNames[d]
}

// Focus describes what the dimension checks.
func (d Dimension) Focus() string {
	if d < 0 || int(d) >= DimensionCount {
		return ""
	}
	return dimensionFocus[d]
}

// Reviewer returns the review stage for d.
func (d Dimension) Reviewer() Stage {
	return AccuracyReviewer + Stage(d)*2
}

// Refiner returns the refine stage paired with d's reviewer.
func (d Dimension) Refiner() Stage {
	return d.Reviewer() + 1
}

// Dimensions returns all dimensions in review order.
func Dimensions() []Dimension {
	out := make([]Dimension, DimensionCount)
	for i := range out {
		out[i] = Dimension(i)
	}
	return out
}

// ParseDimension resolves a dimension name, case-insensitively.
func ParseDimension(name string) (Dimension, bool) {
	for i, n := range dimensionNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Dimension(i), true
		}
	}
	return 0, false
}
