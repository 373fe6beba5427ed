// Package orchestrator runs the review pipeline over every block of a
// document and puts the results back together.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/document"
	"github.com/valpere/revtran/internal/logging"
	"github.com/valpere/revtran/internal/pipeline"
	"github.com/valpere/revtran/internal/stage"
	"github.com/valpere/revtran/internal/store"
)

const tracerName = "github.com/valpere/revtran/internal/orchestrator"

// ErrDocumentFailed is returned under the fail-document policy when any block
// fails.
var ErrDocumentFailed = errors.New("document translation failed")

type FailurePolicy string

const (
	// KeepOriginal leaves a failed block untranslated and carries on.
	KeepOriginal FailurePolicy = "keep-original"
	// FailDocument stops the remaining blocks at the first failure.
	FailDocument FailurePolicy = "fail-document"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return KeepOriginal, nil
	case KeepOriginal, FailDocument:
		return p, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", s)
}

type OrchestratorConfig struct {
	MaxConcurrency int
	FailurePolicy  FailurePolicy
	// BlockTimeout bounds each block's run; zero means none.
	BlockTimeout time.Duration
}

// Memory is a translation memory keyed by block source text, language pair,
// domain, style and content format.
type Memory interface {
	Recall(ctx context.Context, key store.MemoryKey) (*store.MemoryEntry, bool, error)
	Remember(ctx context.Context, key store.MemoryKey, finalText string, trail store.Trail) error
}

// LanguageChecker verifies the language of a finished translation.
type LanguageChecker interface {
	IsValid(translated, targetLang string) (bool, error)
}

// GlossarySource returns prompt-ready glossary lines for a language pair.
type GlossarySource interface {
	Glossary(ctx context.Context, sourceLang, targetLang string) (string, error)
}

// FeedbackSource returns past user feedback for a language pair.
type FeedbackSource interface {
	For(ctx context.Context, md internal.Metadata) (string, error)
}

type Orchestrator struct {
	pipeline *pipeline.Pipeline
	config   OrchestratorConfig
	memory   Memory
	checker  LanguageChecker
	glossary GlossarySource
	feedback FeedbackSource
	log      *logging.Logger
	tracer   trace.Tracer
}

type Option func(*Orchestrator)

func WithMemory(m Memory) Option { return func(o *Orchestrator) { o.memory = m } }
func WithLanguageChecker(c LanguageChecker) Option { return func(o *Orchestrator) { o.checker = c } }
func WithGlossary(g GlossarySource) Option { return func(o *Orchestrator) { o.glossary = g } }
func WithFeedback(f FeedbackSource) Option { return func(o *Orchestrator) { o.feedback = f } }
func WithLogger(l *logging.Logger) Option { return func(o *Orchestrator) { o.log = logging.OrNop(l) } }

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func New(p *pipeline.Pipeline, config OrchestratorConfig, opts ...Option) *Orchestrator {
	if config.MaxConcurrency < 1 {
		config.MaxConcurrency = 4
	}
	if config.FailurePolicy == "" {
		config.FailurePolicy = KeepOriginal
	}
	o := &Orchestrator{
		pipeline: p,
		config:   config,
		log:      logging.Nop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Translate segments content, runs every block and reassembles the document.
// Segmentation failure is fatal and returns no result. Otherwise the result
// is always populated; the error is non-nil when ctx ended or, under the
// fail-document policy, when a block failed.
func (o *Orchestrator) Translate(ctx context.Context, content string, md internal.Metadata, mode document.Mode) (*Result, error) {
	blocks, err := document.Segment(content, mode)
	if err != nil {
		return nil, err
	}
	return o.TranslateBlocks(ctx, content, blocks, md, mode)
}

// TranslateBlocks runs the given blocks of content. Blocks are not modified;
// the result carries copies with Translation filled in.
func (o *Orchestrator) TranslateBlocks(ctx context.Context, content string, blocks []document.Block, md internal.Metadata, mode document.Mode) (*Result, error) {
	shared := o.sharedInput(ctx, md, mode)
	log := o.log.With("source", md.SourceLanguage, "target", md.TargetLanguage)

	results := make([]BlockResult, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.MaxConcurrency)
	for i, b := range blocks {
		g.Go(func() error {
			res := o.runBlock(gctx, ctx, b, shared)
			results[i] = res
			if res.Status == StatusFailed && o.config.FailurePolicy == FailDocument {
				return res.Err
			}
			return nil
		})
	}
	firstErr := g.Wait()

	out := &Result{
		Blocks:       mergeByID(blocks, results),
		BlockResults: results,
	}

	final, failures, err := document.Render(content, out.Blocks, mode)
	if err != nil {
		return out, fmt.Errorf("failed to reassemble document: %w", err)
	}
	out.FinalTranslation = final
	out.ReassemblyFailures = failures
	out.markReassemblyFailures(log)
	out.collectHistory()

	log.Info("document translated",
		"blocks", len(blocks),
		"translated", out.Count(StatusTranslated),
		"cached", out.Count(StatusCached),
		"failed", out.Count(StatusFailed),
		"cancelled", out.Count(StatusCancelled),
		"reassembly_failed", out.Count(StatusReassemblyFailed),
	)

	if firstErr != nil {
		return out, fmt.Errorf("%w: %w", ErrDocumentFailed, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// sharedInput resolves what every block of the document gets: metadata,
// content kind, glossary and pair feedback. Lookup failures are logged and
// the run continues without them.
func (o *Orchestrator) sharedInput(ctx context.Context, md internal.Metadata, mode document.Mode) pipeline.Input {
	in := pipeline.Input{Metadata: md, Content: stage.ContentText}
	if mode.Structured() {
		in.Content = stage.ContentHTML
	}
	if o.glossary != nil {
		g, err := o.glossary.Glossary(ctx, md.SourceLanguage, md.TargetLanguage)
		if err != nil {
			o.log.Warn("glossary lookup failed", "error", err.Error())
		}
		in.Glossary = g
	}
	if o.feedback != nil {
		f, err := o.feedback.For(ctx, md)
		if err != nil {
			o.log.Warn("feedback lookup failed", "error", err.Error())
		}
		in.Feedback = f
	}
	return in
}

// runBlock drives one block. gctx is cancelled by the group under the
// fail-document policy; docCtx is the caller's context and tells a sibling
// stop apart from a caller cancellation only for logging.
func (o *Orchestrator) runBlock(gctx, docCtx context.Context, b document.Block, shared pipeline.Input) BlockResult {
	res := BlockResult{BlockID: b.ID, Path: b.Path}
	log := o.log.With("block_id", b.ID, "path", b.Path)
	md := shared.Metadata
	key := store.MemoryKey{
		SourceText: b.Content,
		SourceLang: md.SourceLanguage,
		TargetLang: md.TargetLanguage,
		Domain:     md.Domain,
		Style:      md.Style,
		Format:     shared.Content.Format(),
	}

	ctx, span := o.tracer.Start(gctx, "block", trace.WithAttributes(
		attribute.String("block.id", b.ID),
		attribute.String("block.path", b.Path),
	))
	defer func() {
		span.SetAttributes(attribute.String("block.status", string(res.Status)))
		if res.Err != nil && res.Status == StatusFailed {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		res.Status, res.Err = StatusCancelled, err
		return res
	}

	if o.memory != nil {
		entry, ok, err := o.memory.Recall(ctx, key)
		switch {
		case err != nil:
			log.Warn("translation memory lookup failed", "error", err.Error())
		case ok:
			res.Status = StatusCached
			res.Cached = true
			res.Translation = entry.FinalText
			res.IntermediateTranslations = entry.Trail.Intermediates
			res.Criticisms = entry.Trail.Criticisms
			log.Debug("block served from translation memory")
			return res
		}
	}

	runCtx := ctx
	if o.config.BlockTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.config.BlockTimeout)
		defer cancel()
	}

	in := shared
	in.BlockID = b.ID
	in.Text = b.Content

	start := time.Now()
	st, err := o.pipeline.Run(runCtx, in)
	res.Duration = time.Since(start)
	res.Criticisms = st.Criticisms()
	res.IntermediateTranslations = st.IntermediateTranslations()
	res.ModelCalls = st.ModelCalls()

	if err != nil {
		res.Err = err
		var se *pipeline.StageError
		if errors.As(err, &se) {
			res.FailedStage = se.Stage.String()
		}
		// the block's own timeout is a failure; the document or a failed
		// sibling ending the run is a cancellation
		if ctx.Err() != nil {
			res.Status = StatusCancelled
			if docCtx.Err() == nil {
				log.Debug("block stopped after a sibling failed")
			}
			return res
		}
		res.Status = StatusFailed
		log.Warn("block failed", "stage", res.FailedStage, "error", err.Error())
		return res
	}

	res.Status = StatusTranslated
	res.Translation = st.Final()

	if o.checker != nil {
		if ok, err := o.checker.IsValid(res.Translation, md.TargetLanguage); !ok && err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			log.Warn("target language check failed", "error", err.Error())
		}
	}

	if o.memory != nil {
		trail := store.Trail{Intermediates: res.IntermediateTranslations, Criticisms: res.Criticisms}
		if err := o.memory.Remember(ctx, key, res.Translation, trail); err != nil {
			log.Warn("failed to save translation memory", "error", err.Error())
		}
	}

	return res
}

// mergeByID copies blocks and writes each successful result onto the block
// with the same id.
func mergeByID(blocks []document.Block, results []BlockResult) []document.Block {
	byID := make(map[string]*BlockResult, len(results))
	for i := range results {
		byID[results[i].BlockID] = &results[i]
	}

	out := make([]document.Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		r, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		if r.Status == StatusTranslated || r.Status == StatusCached {
			out[i].Translation = r.Translation
		}
	}
	return out
}
