// Package translator implements the translate stage: the first draft of a
// block, produced either by a chat model or by a machine translation API.
package translator

import (
	"context"
	"time"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/stage"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	// ProtectMarkup masks tags and variables before the model sees them.
	ProtectMarkup bool `mapstructure:"protect_markup" json:"protect_markup"`
}

type TranslateRequest struct {
	Text     string            `json:"text"`
	Metadata internal.Metadata `json:"metadata"`
	Content  stage.Content     `json:"content"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Latency        time.Duration     `json:"latency"`
}

// TranslationService produces the initial translation of one block.
type TranslationService interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error)
}
