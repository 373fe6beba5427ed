// Package pipeline runs one block through the review chain: translate, then
// review and refine for every quality dimension, then the user-feedback
// refinement, then combine.
//
// The chain is linear and fixed (see package stage). The only decision a run
// makes is whether a refine stage calls the model; it never changes which
// stage comes next, so every run takes exactly stage.Transitions steps.
package pipeline

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

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/classifier"
	"github.com/valpere/revtran/internal/logging"
	"github.com/valpere/revtran/internal/refiner"
	"github.com/valpere/revtran/internal/reviewer"
	"github.com/valpere/revtran/internal/stage"
	"github.com/valpere/revtran/internal/translator"
)

const tracerName = "github.com/valpere/revtran/internal/pipeline"

// Input is everything a run needs besides its collaborators.
type Input struct {
	BlockID  string
	Text     string
	Metadata internal.Metadata
	Content  stage.Content
	// Glossary is handed to the terminology reviewer and refiner.
	Glossary string
	// Feedback is past user feedback for the language pair. When empty the
	// user refiner makes no call.
	Feedback string
}

// Deps are the stage operations. All four are required.
type Deps struct {
	Translator translator.TranslationService
	Reviewer   reviewer.Reviewer
	Classifier classifier.Classifier
	Refiner    refiner.Refiner
}

// StageEvent is reported to the observer after each stage.
type StageEvent struct {
	BlockID   string
	Stage     stage.Stage
	Skipped   bool
	Calls     int
	Criticism string
	Duration  time.Duration
	Err       error
}

// Observer receives stage events. It is called from every block's goroutine
// and must be safe for concurrent use.
type Observer func(StageEvent)

type Pipeline struct {
	deps     Deps
	log      *logging.Logger
	tracer   trace.Tracer
	observer Observer
}

type Option func(*Pipeline)

func WithLogger(log *logging.Logger) Option {
	return func(p *Pipeline) { p.log = logging.OrNop(log) }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

func New(deps Deps, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Translator == nil:
		return nil, errors.New("pipeline: translator is required")
	case deps.Reviewer == nil:
		return nil, errors.New("pipeline: reviewer is required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Refiner == nil:
		return nil, errors.New("pipeline: refiner is required")
	}
	p := &Pipeline{
		deps:   deps,
		log:    logging.Nop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run drives in through every stage and returns the final state. On failure
// the partial state is returned together with a *StageError naming the block
// and the stage that failed. Cancellation of ctx is checked before each stage.
func (p *Pipeline) Run(ctx context.Context, in Input) (*State, error) {
	st := newState(in.Text)
	log := p.log.With("block_id", in.BlockID)

	for {
		s := st.Current()
		if err := ctx.Err(); err != nil {
			return st, &StageError{BlockID: in.BlockID, Stage: s, Err: err}
		}

		start := time.Now()
		eff, err := p.runStage(ctx, s, in, st)
		elapsed := time.Since(start)
		if err != nil {
			p.notify(StageEvent{BlockID: in.BlockID, Stage: s, Calls: eff.calls, Duration: elapsed, Err: err})
			log.Warn("stage failed", "stage", s.String(), "error", err.Error())
			return st, &StageError{BlockID: in.BlockID, Stage: s, Err: err}
		}
		st.commit(eff)

		p.notify(StageEvent{
			BlockID:   in.BlockID,
			Stage:     s,
			Skipped:   eff.skipped,
			Calls:     eff.calls,
			Criticism: eff.criticism,
			Duration:  elapsed,
		})
		log.Debug("stage completed",
			"stage", s.String(),
			"skipped", eff.skipped,
			"calls", eff.calls,
			"duration", elapsed.String(),
		)

		if s == stage.Combiner {
			return st, nil
		}
		st.advance()
	}
}

func (p *Pipeline) runStage(ctx context.Context, s stage.Stage, in Input, st *State) (effect, error) {
	ctx, span := p.tracer.Start(ctx, "stage "+s.String(), trace.WithAttributes(
		attribute.String("block.id", in.BlockID),
		attribute.String("stage.name", s.String()),
		attribute.String("stage.kind", s.Kind().String()),
	))
	defer span.End()

	var (
		eff effect
		err error
	)
	switch s.Kind() {
	case stage.KindTranslate:
		eff, err = p.translate(ctx, in)
	case stage.KindReview:
		eff, err = p.review(ctx, s, in, st)
	case stage.KindRefine:
		eff, err = p.refine(ctx, s, in, st)
	case stage.KindCombine:
		eff = effect{final: st.Latest(), hasFinal: true}
	default:
		err = fmt.Errorf("unhandled stage %s", s)
	}

	span.SetAttributes(attribute.Int("stage.calls", eff.calls), attribute.Bool("stage.skipped", eff.skipped))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return eff, err
}

func (p *Pipeline) translate(ctx context.Context, in Input) (effect, error) {
	res, err := p.deps.Translator.Translate(ctx, translator.TranslateRequest{
		Text:     in.Text,
		Metadata: in.Metadata,
		Content:  in.Content,
	})
	if err != nil {
		return effect{calls: 1}, err
	}
	return effect{translation: res.TranslatedText, hasTranslation: true, calls: 1}, nil
}

// review asks for a critique and then has it classified. A clean verdict is
// recorded as the canonical NONE; anything else, ambiguous answers included,
// is recorded verbatim.
func (p *Pipeline) review(ctx context.Context, s stage.Stage, in Input, st *State) (effect, error) {
	d, _ := s.Dimension()
	critique, err := p.deps.Reviewer.Review(ctx, d, reviewer.ReviewRequest{
		Metadata:       in.Metadata,
		Content:        in.Content,
		OriginalText:   in.Text,
		TranslatedText: st.Latest(),
		Glossary:       in.Glossary,
	})
	if err != nil {
		return effect{calls: 1}, err
	}

	verdict, err := p.deps.Classifier.Classify(ctx, critique)
	if err != nil {
		return effect{calls: 2}, err
	}
	if verdict.Clean() {
		critique = classifier.None
	}
	return effect{criticism: critique, hasCriticism: true, calls: 2}, nil
}

func (p *Pipeline) refine(ctx context.Context, s stage.Stage, in Input, st *State) (effect, error) {
	var criticism string
	if s == stage.UserRefiner {
		criticism = strings.TrimSpace(in.Feedback)
		if criticism == "" {
			return effect{skipped: true}, nil
		}
	} else {
		last, ok := st.lastCriticism()
		if !ok {
			return effect{}, fmt.Errorf("%s reached without a review", s)
		}
		if last == classifier.None {
			return effect{skipped: true}, nil
		}
		criticism = last
	}

	current := st.Latest()
	refined, err := p.deps.Refiner.Refine(ctx, refiner.RefineRequest{
		Stage:          s,
		Metadata:       in.Metadata,
		Content:        in.Content,
		OriginalText:   in.Text,
		TranslatedText: current,
		Criticism:      criticism,
		Glossary:       in.Glossary,
	})
	if err != nil {
		return effect{calls: 1}, err
	}

	// feedback that does not apply to this text leaves it untouched
	if s == stage.UserRefiner && strings.TrimSpace(refined) == strings.TrimSpace(current) {
		return effect{calls: 1}, nil
	}
	return effect{translation: refined, hasTranslation: true, calls: 1}, nil
}

func (p *Pipeline) notify(ev StageEvent) {
	if p.observer != nil {
		p.observer(ev)
	}
}
