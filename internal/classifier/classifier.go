// Package classifier decides whether a reviewer's critique asks for changes.
//
// Reviewers phrase "nothing to fix" in many ways ("NONE", "No issues found.",
// "The translation is accurate"), so the default classifier asks a model
// rather than pattern-matching the critique.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/revtran/internal/llm"
	"github.com/valpere/revtran/internal/postprocess"
)

// None is the canonical critique of a clean review.
const None = "NONE"

type Verdict int

const (
	// VerdictAmbiguous is any answer that is neither of the canonical ones.
	VerdictAmbiguous Verdict = iota
	VerdictNone
	VerdictChangesNeeded
)

func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return None
	case VerdictChangesNeeded:
		return "CHANGES_NEEDED"
	}
	return "AMBIGUOUS"
}

// Clean reports whether the verdict lets the paired refiner skip its call.
// Ambiguous verdicts are treated as issues found.
func (v Verdict) Clean() bool {
	return v == VerdictNone
}

type Classifier interface {
	Classify(ctx context.Context, critique string) (Verdict, error)
}

// ParseVerdict maps a raw label to a verdict.
func ParseVerdict(s string) Verdict {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Trim(s, ".!\"'` ")
	switch strings.ReplaceAll(s, " ", "_") {
	case None:
		return VerdictNone
	case "CHANGES_NEEDED":
		return VerdictChangesNeeded
	}
	return VerdictAmbiguous
}

// ExactClassifier is the deterministic classifier: a critique is clean only
// when it is the bare word NONE. Everything else needs changes.
type ExactClassifier struct{}

func (ExactClassifier) Classify(_ context.Context, critique string) (Verdict, error) {
	if ParseVerdict(critique) == VerdictNone {
		return VerdictNone, nil
	}
	return VerdictChangesNeeded, nil
}

const systemPrompt = `You classify translation review feedback.
Answer "NONE" when the feedback says there is nothing to change, in any wording.
Answer "CHANGES_NEEDED" when it lists at least one issue or suggestion.
Respond ONLY in JSON: {"verdict": "NONE" | "CHANGES_NEEDED"}`

// ModelClassifier asks a model to label the critique. JSON mode is used
// when the model supports it.
type ModelClassifier struct {
	model llm.Model
}

func NewModelClassifier(model llm.Model) *ModelClassifier {
	return &ModelClassifier{model: model}
}

func (c *ModelClassifier) Classify(ctx context.Context, critique string) (Verdict, error) {
	user := fmt.Sprintf("Feedback:\n%s", critique)
	raw, err := llm.GenerateJSON(ctx, c.model, systemPrompt, user)
	if err != nil {
		return VerdictAmbiguous, fmt.Errorf("classification failed: %w", err)
	}
	return parseResponse(raw), nil
}

func parseResponse(raw string) Verdict {
	raw = postprocess.CleanJSON(raw)

	var parsed struct {
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return ParseVerdict(parsed.Verdict)
	}
	// models without JSON mode often answer with the bare label
	return ParseVerdict(raw)
}
