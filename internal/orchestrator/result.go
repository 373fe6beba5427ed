package orchestrator

import (
	"slices"
	"time"

	"github.com/valpere/revtran/internal/document"
	"github.com/valpere/revtran/internal/logging"
)

type Status string

const (
	StatusTranslated       Status = "translated"
	StatusCached           Status = "cached"
	StatusFailed           Status = "failed"
	StatusCancelled        Status = "cancelled"
	StatusReassemblyFailed Status = "reassembly_failed"
)

// BlockResult is what happened to one block.
type BlockResult struct {
	BlockID string `json:"block_id"`
	Path    string `json:"path"`
	Status  Status `json:"status"`
	// FailedStage names the stage a failed or cancelled run stopped in.
	FailedStage              string        `json:"failed_stage,omitempty"`
	Err                      error         `json:"-"`
	Translation              string        `json:"translation,omitempty"`
	Criticisms               []string      `json:"criticisms"`
	IntermediateTranslations []string      `json:"intermediate_translations"`
	Cached                   bool          `json:"cached"`
	Warnings                 []string      `json:"warnings,omitempty"`
	ModelCalls               int           `json:"model_calls"`
	Duration                 time.Duration `json:"duration"`
}

// ErrorMessage is Err as text, empty when the block did not fail.
func (r BlockResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Result is the document-level outcome. Criticisms and
// IntermediateTranslations are the per-block histories concatenated in
// block order.
type Result struct {
	FinalTranslation         string                       `json:"final_translation"`
	Blocks                   []document.Block             `json:"blocks"`
	BlockResults             []BlockResult                `json:"block_results"`
	Criticisms               []string                     `json:"criticisms"`
	IntermediateTranslations []string                     `json:"intermediate_translations"`
	ReassemblyFailures       []document.ReassemblyFailure `json:"reassembly_failures,omitempty"`
}

// Count returns how many blocks ended with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, b := range r.BlockResults {
		if b.Status == s {
			n++
		}
	}
	return n
}

func (r *Result) markReassemblyFailures(log *logging.Logger) {
	for _, f := range r.ReassemblyFailures {
		i := slices.IndexFunc(r.BlockResults, func(b BlockResult) bool { return b.BlockID == f.BlockID })
		if i < 0 {
			continue
		}
		r.BlockResults[i].Status = StatusReassemblyFailed
		r.BlockResults[i].Err = f
		log.Warn("block could not be reassembled", "block_id", f.BlockID, "path", f.Path, "matches", f.Matches)
	}
}

func (r *Result) collectHistory() {
	r.Criticisms = []string{}
	r.IntermediateTranslations = []string{}
	for _, b := range r.BlockResults {
		r.Criticisms = append(r.Criticisms, b.Criticisms...)
		r.IntermediateTranslations = append(r.IntermediateTranslations, b.IntermediateTranslations...)
	}
}
