// Package refiner rewrites a translation to address review feedback. One
// refiner serves every dimension's refine stage and the final user-feedback
// stage; the stage selects the prompt.
package refiner

import (
	"context"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/stage"
)

type RefineRequest struct {
	Stage          stage.Stage
	Metadata       internal.Metadata
	Content        stage.Content
	OriginalText   string
	TranslatedText string
	Criticism      string
	Glossary       string
}

// Refiner improves a translation according to a criticism.
type Refiner interface {
	Refine(ctx context.Context, req RefineRequest) (string, error)
}
