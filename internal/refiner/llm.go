package refiner

import (
	"context"
	"fmt"

	"github.com/valpere/revtran/internal/llm"
	"github.com/valpere/revtran/internal/postprocess"
	"github.com/valpere/revtran/internal/stage"
)

// LLMRefiner uses a chat model as the editor.
type LLMRefiner struct {
	model llm.Model
}

func NewLLMRefiner(model llm.Model) *LLMRefiner {
	return &LLMRefiner{model: model}
}

// Refine sends the current translation and the criticism to the model and
// returns the edited translation. When the cleaned answer is empty the
// current translation is returned unchanged.
func (r *LLMRefiner) Refine(ctx context.Context, req RefineRequest) (string, error) {
	if req.Stage.Kind() != stage.KindRefine {
		return "", fmt.Errorf("%s is not a refine stage", req.Stage)
	}
	prompt, ok := stage.PromptFor(req.Stage, req.Content)
	if !ok {
		return "", fmt.Errorf("no prompt for %s", req.Stage)
	}

	vars := stage.Vars{
		SourceLanguage: req.Metadata.SourceLanguage,
		TargetLanguage: req.Metadata.TargetLanguage,
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		Criticism:      req.Criticism,
		Domain:         req.Metadata.Domain,
		Style:          req.Metadata.Style,
	}
	if req.Stage == stage.TerminologyRefiner {
		vars.Glossary = req.Glossary
	}
	system, user := prompt.Render(vars)

	raw, err := r.model.Generate(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("refinement request failed: %w", err)
	}

	refined := postprocess.Clean(raw)
	if refined == "" {
		return req.TranslatedText, nil
	}
	return refined, nil
}
