package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/revtran/internal/llm"
	"github.com/valpere/revtran/internal/placeholder"
	"github.com/valpere/revtran/internal/postprocess"
	"github.com/valpere/revtran/internal/stage"
)

// LLMTranslator drafts translations with a chat model and the translator
// stage prompt.
type LLMTranslator struct {
	model   llm.Model
	name    string
	protect bool
}

func NewLLMTranslator(model llm.Model, name string, protectMarkup bool) *LLMTranslator {
	if name == "" {
		name = "llm"
	}
	return &LLMTranslator{model: model, name: name, protect: protectMarkup}
}

func (t *LLMTranslator) Name() string {
	return t.name
}

func (t *LLMTranslator) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: t.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	prompt, ok := stage.PromptFor(stage.Translator, req.Content)
	if !ok {
		return nil, fmt.Errorf("no translator prompt registered")
	}

	if t.protect {
		masked := placeholder.Mask(req.Text)
		if masked.Count() > 0 {
			out, err := t.generate(ctx, prompt, req, masked.Text, placeholder.Hint())
			if err != nil {
				return nil, err
			}
			if len(masked.Missing(out)) == 0 {
				result.TranslatedText = masked.Unmask(out)
				result.Metadata = map[string]string{"masked_spans": fmt.Sprint(masked.Count())}
				return result, nil
			}
			// the model dropped markers; fall through to an unmasked attempt
		}
	}

	out, err := t.generate(ctx, prompt, req, req.Text, "")
	if err != nil {
		return nil, err
	}
	result.TranslatedText = out
	return result, nil
}

func (t *LLMTranslator) generate(ctx context.Context, prompt stage.Prompt, req TranslateRequest, text, hint string) (string, error) {
	system, user := prompt.Render(stage.Vars{
		SourceLanguage: req.Metadata.SourceLanguage,
		TargetLanguage: req.Metadata.TargetLanguage,
		Text:           text,
		Domain:         req.Metadata.Domain,
		Style:          req.Metadata.Style,
	})
	if hint != "" {
		system += "\n" + hint
	}

	raw, err := t.model.Generate(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	out := postprocess.Clean(raw)
	if out == "" {
		return "", fmt.Errorf("translation failed: %w", llm.ErrEmptyResponse)
	}
	return out, nil
}
