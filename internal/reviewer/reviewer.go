// Package reviewer critiques a translation along one quality dimension.
package reviewer

import (
	"context"
	"fmt"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/llm"
	"github.com/valpere/revtran/internal/postprocess"
	"github.com/valpere/revtran/internal/stage"
)

type ReviewRequest struct {
	Metadata       internal.Metadata
	Content        stage.Content
	OriginalText   string
	TranslatedText string
	Glossary       string
}

// Reviewer returns free-form critique text. Deciding whether the critique
// means "nothing to fix" is left to a classifier.
type Reviewer interface {
	Review(ctx context.Context, d stage.Dimension, req ReviewRequest) (string, error)
}

// LLMReviewer reviews with a chat model and the dimension's reviewer prompt.
type LLMReviewer struct {
	model llm.Model
}

func NewLLMReviewer(model llm.Model) *LLMReviewer {
	return &LLMReviewer{model: model}
}

func (r *LLMReviewer) Review(ctx context.Context, d stage.Dimension, req ReviewRequest) (string, error) {
	prompt, ok := stage.PromptFor(d.Reviewer(), req.Content)
	if !ok {
		return "", fmt.Errorf("no reviewer prompt for %s", d)
	}

	vars := stage.Vars{
		SourceLanguage: req.Metadata.SourceLanguage,
		TargetLanguage: req.Metadata.TargetLanguage,
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		Domain:         req.Metadata.Domain,
		Style:          req.Metadata.Style,
	}
	if d == stage.Terminology {
		vars.Glossary = req.Glossary
	}
	system, user := prompt.Render(vars)

	raw, err := r.model.Generate(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%s review failed: %w", d, err)
	}
	critique := postprocess.CleanCritique(raw)
	if critique == "" {
		return "", fmt.Errorf("%s review failed: %w", d, llm.ErrEmptyResponse)
	}
	return critique, nil
}
