// Package stage defines the fixed chain of review pipeline stages, the
// quality dimensions they cover and the prompt content bound to each stage.
//
// Everything in this package is read-only after init and safe for concurrent
// use by any number of pipeline runs.
package stage

import "fmt"

// Stage is one named step of the review pipeline. The declaration order is
// the transition order: the successor of a stage is the next constant.
type Stage int

const (
	Translator Stage = iota
	AccuracyReviewer
	AccuracyRefiner
	FluencyReviewer
	FluencyRefiner
	StyleReviewer
	StyleRefiner
	TerminologyReviewer
	TerminologyRefiner
	ConsistencyReviewer
	ConsistencyRefiner
	ReadabilityReviewer
	ReadabilityRefiner
	FormattingReviewer
	FormattingRefiner
	UserRefiner
	Combiner
)

// Transitions is the number of steps from Translator to Combiner.
const Transitions = int(Combiner - Translator)

var names = [...]string{
	Translator:          "TRANSLATOR",
	AccuracyReviewer:    "ACCURACY_REVIEWER",
	AccuracyRefiner:     "ACCURACY_REFINER",
	FluencyReviewer:     "FLUENCY_REVIEWER",
	FluencyRefiner:      "FLUENCY_REFINER",
	StyleReviewer:       "STYLE_REVIEWER",
	StyleRefiner:        "STYLE_REFINER",
	TerminologyReviewer: "TERMINOLOGY_REVIEWER",
	TerminologyRefiner:  "TERMINOLOGY_REFINER",
	ConsistencyReviewer: "CONSISTENCY_REVIEWER",
	ConsistencyRefiner:  "CONSISTENCY_REFINER",
	ReadabilityReviewer: "READABILITY_REVIEWER",
	ReadabilityRefiner:  "READABILITY_REFINER",
	FormattingReviewer:  "FORMATTING_REVIEWER",
	FormattingRefiner:   "FORMATTING_REFINER",
	UserRefiner:         "USER_REFINER",
	Combiner:            "COMBINER",
}

func (s Stage) String() string {
	if s.Valid() {
		return names[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Valid reports whether s is a declared stage.
func (s Stage) Valid() bool {
	return s >= Translator && s <= Combiner
}

// Next returns the successor of s. Combiner is terminal and is its own
// successor; values outside the chain also map to Combiner so Next is total.
func (s Stage) Next() Stage {
	if !s.Valid() || s == Combiner {
		return Combiner
	}
	return s + 1
}

// Kind classifies what a stage does.
type Kind int

const (
	KindTranslate Kind = iota
	KindReview
	KindRefine
	KindCombine
)

func (k Kind) String() string {
	switch k {
	case KindTranslate:
		return "translate"
	case KindReview:
		return "review"
	case KindRefine:
		return "refine"
	case KindCombine:
		return "combine"
	}
	return "unknown"
}

func (s Stage) Kind() Kind {
	switch {
	case s == Translator:
		return KindTranslate
	case s == UserRefiner:
		return KindRefine
	case s >= AccuracyReviewer && s <= FormattingRefiner:
		if (s-AccuracyReviewer)%2 == 0 {
			return KindReview
		}
		return KindRefine
	default:
		return KindCombine
	}
}

// Dimension returns the quality dimension a review or refine stage covers.
// The user refiner and the translate/combine stages have none.
func (s Stage) Dimension() (Dimension, bool) {
	if s < AccuracyReviewer || s > FormattingRefiner {
		return 0, false
	}
	return Dimension((s - AccuracyReviewer) / 2), true
}

// Parse resolves a stage name such as "FLUENCY_REFINER".
func Parse(name string) (Stage, error) {
	for i, n := range names {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Chain returns every stage in transition order.
func Chain() []Stage {
	out := make([]Stage, 0, len(names))
	for s := Translator; ; s = s.Next() {
		out = append(out, s)
		if s == Combiner {
			return out
		}
	}
}
