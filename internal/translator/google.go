package translator

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/api/option"

	"github.com/valpere/revtran/internal/stage"
)

// GoogleService drafts translations with Cloud Translation (v2).
type GoogleService struct {
	cfg ServiceConfig
}

func NewGoogleService(cfg ServiceConfig) *GoogleService {
	return &GoogleService{cfg: cfg}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	target, err := ResolveTag(req.Metadata.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}

	opts := []option.ClientOption{}
	if s.cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.Credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	topts := &translate.Options{Format: translate.Text}
	if req.Content == stage.ContentHTML {
		topts.Format = translate.HTML
	}
	if src := req.Metadata.SourceLanguage; src != "" && src != "auto" {
		if tag, err := ResolveTag(src); err == nil {
			topts.Source = tag
		}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, target, topts)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return nil, fmt.Errorf("no translation returned")
	}

	text := translations[0].Text
	if topts.Format == translate.Text {
		// v2 escapes entities even in text mode
		text = html.UnescapeString(text)
	}
	result.TranslatedText = text
	if translations[0].Source != language.Und {
		result.Metadata = map[string]string{"detected_source": translations[0].Source.String()}
	}
	return result, nil
}

// knownTags are the languages ResolveTag can look up by English name.
var knownTags = []language.Tag{
	language.Arabic, language.Bulgarian, language.Chinese, language.Czech,
	language.Danish, language.Dutch, language.English, language.Estonian,
	language.Finnish, language.French, language.German, language.Greek,
	language.Hebrew, language.Hindi, language.Hungarian, language.Indonesian,
	language.Italian, language.Japanese, language.Korean, language.Latvian,
	language.Lithuanian, language.Norwegian, language.Persian, language.Polish,
	language.Portuguese, language.Romanian, language.Russian, language.Serbian,
	language.Slovak, language.Slovenian, language.Spanish, language.Swedish,
	language.Thai, language.Turkish, language.Ukrainian, language.Vietnamese,
}

var englishNames = display.English.Tags()

// ResolveTag accepts a BCP 47 code ("es", "pt-BR") or an English language
// name ("spanish") and returns the tag.
func ResolveTag(lang string) (language.Tag, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return language.Und, fmt.Errorf("empty language")
	}
	for _, tag := range knownTags {
		if strings.EqualFold(englishNames.Name(tag), lang) {
			return tag, nil
		}
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und, fmt.Errorf("unknown language %q", lang)
	}
	return tag, nil
}
