package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/classifier"
	"github.com/valpere/revtran/internal/refiner"
	"github.com/valpere/revtran/internal/reviewer"
	"github.com/valpere/revtran/internal/stage"
	"github.com/valpere/revtran/internal/translator"
)

type mockTranslator struct {
	translateFunc func(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error)
	callCount     atomic.Int32
}

func (m *mockTranslator) Name() string { return "mock" }

func (m *mockTranslator) Translate(ctx context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	m.callCount.Add(1)
	if m.translateFunc != nil {
		return m.translateFunc(ctx, req)
	}
	return &translator.ServiceResult{ServiceName: "mock", TranslatedText: "T0"}, nil
}

// mockReviewer answers per dimension; dimensions missing from critiques get "NONE".
type mockReviewer struct {
	critiques map[stage.Dimension]string
	errAt     map[stage.Dimension]error
	mu        sync.Mutex
	seen      []string
	callCount atomic.Int32
}

func (m *mockReviewer) Review(_ context.Context, d stage.Dimension, req reviewer.ReviewRequest) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.seen = append(m.seen, req.TranslatedText)
	m.mu.Unlock()
	if err := m.errAt[d]; err != nil {
		return "", err
	}
	if c, ok := m.critiques[d]; ok {
		return c, nil
	}
	return "NONE", nil
}

type mockRefiner struct {
	refineFunc func(ctx context.Context, req refiner.RefineRequest) (string, error)
	mu         sync.Mutex
	stages     []stage.Stage
	callCount  atomic.Int32
}

func (m *mockRefiner) Refine(ctx context.Context, req refiner.RefineRequest) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.stages = append(m.stages, req.Stage)
	m.mu.Unlock()
	if m.refineFunc != nil {
		return m.refineFunc(ctx, req)
	}
	return req.TranslatedText + "+" + strings.ToLower(req.Stage.String()), nil
}

type countingClassifier struct {
	inner     classifier.Classifier
	callCount atomic.Int32
}

func (c *countingClassifier) Classify(ctx context.Context, critique string) (classifier.Verdict, error) {
	c.callCount.Add(1)
	return c.inner.Classify(ctx, critique)
}

type fixture struct {
	tr  *mockTranslator
	rev *mockReviewer
	cls *countingClassifier
	ref *mockRefiner
}

func newFixture() *fixture {
	return &fixture{
		tr:  &mockTranslator{},
		rev: &mockReviewer{critiques: map[stage.Dimension]string{}, errAt: map[stage.Dimension]error{}},
		cls: &countingClassifier{inner: classifier.ExactClassifier{}},
		ref: &mockRefiner{},
	}
}

func (f *fixture) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(Deps{Translator: f.tr, Reviewer: f.rev, Classifier: f.cls, Refiner: f.ref}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func input() Input {
	return Input{
		BlockID:  "b1",
		Text:     "Hello world",
		Metadata: internal.Metadata{SourceLanguage: "english", TargetLanguage: "spanish"},
		Content:  stage.ContentText,
	}
}

func countNonNone(criticisms []string) int {
	n := 0
	for _, c := range criticisms {
		if c != classifier.None {
			n++
		}
	}
	return n
}

func TestRun_AllClean(t *testing.T) {
	f := newFixture()
	f.tr.translateFunc = func(context.Context, translator.TranslateRequest) (*translator.ServiceResult, error) {
		return &translator.ServiceResult{TranslatedText: "Hola mundo"}, nil
	}

	st, err := f.pipeline(t).Run(context.Background(), input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.Final() != "Hola mundo" {
		t.Errorf("expected untouched initial translation, got %q", st.Final())
	}
	want := []string{"NONE", "NONE", "NONE", "NONE", "NONE", "NONE", "NONE"}
	if strings.Join(st.Criticisms(), ",") != strings.Join(want, ",") {
		t.Errorf("criticisms = %v", st.Criticisms())
	}
	if got := st.IntermediateTranslations(); len(got) != 1 || got[0] != "Hola mundo" {
		t.Errorf("intermediate translations = %v", got)
	}
	if f.ref.callCount.Load() != 0 {
		t.Errorf("expected zero refine calls, got %d", f.ref.callCount.Load())
	}
	if f.rev.callCount.Load() != 7 || f.cls.callCount.Load() != 7 {
		t.Errorf("expected 7 reviews and 7 classifications, got %d and %d", f.rev.callCount.Load(), f.cls.callCount.Load())
	}
	if st.ModelCalls() != 1+7*2 {
		t.Errorf("expected 15 model calls, got %d", st.ModelCalls())
	}
	if !st.Done() || st.Current() != stage.Combiner {
		t.Errorf("run should end at COMBINER, got %s", st.Current())
	}
}

func TestRun_AlwaysSixteenTransitions(t *testing.T) {
	cases := map[string]map[stage.Dimension]string{
		"clean":  {},
		"one":    {stage.Accuracy: "- wrong"},
		"all":    {stage.Accuracy: "a", stage.Fluency: "b", stage.Style: "c", stage.Terminology: "d", stage.Consistency: "e", stage.Readability: "f", stage.Formatting: "g"},
		"sparse": {stage.Style: "x", stage.Formatting: "y"},
	}
	for name, critiques := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.rev.critiques = critiques
			in := input()
			in.Feedback = "- prefer formal register"

			st, err := f.pipeline(t).Run(context.Background(), in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.Transitions() != stage.Transitions || st.Transitions() != 16 {
				t.Errorf("expected 16 transitions, got %d", st.Transitions())
			}
			crit := st.Criticisms()
			if len(crit) != 7 {
				t.Fatalf("expected 7 criticisms, got %d", len(crit))
			}
			// every refine in the mock changes the text, so the user refiner always adds one
			if got, want := len(st.IntermediateTranslations()), 1+countNonNone(crit)+1; got != want {
				t.Errorf("expected %d intermediate translations, got %d", want, got)
			}
			if st.Final() != st.Latest() {
				t.Error("final translation must be the last candidate")
			}
		})
	}
}

func TestRun_AccuracyCritiqueAddsOneRefinement(t *testing.T) {
	f := newFixture()
	f.rev.critiques[stage.Accuracy] = "## Accuracy\n- 'world' was dropped"

	var events []StageEvent
	var mu sync.Mutex
	p := f.pipeline(t, WithObserver(func(ev StageEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))

	st, err := p.Run(context.Background(), input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := st.IntermediateTranslations()
	if len(got) != 2 || got[1] != "T0+accuracy_refiner" {
		t.Fatalf("intermediate translations = %v", got)
	}
	if f.ref.callCount.Load() != 1 || f.ref.stages[0] != stage.AccuracyRefiner {
		t.Errorf("expected exactly one ACCURACY_REFINER call, got %v", f.ref.stages)
	}
	// the fluency reviewer sees the refined text
	if f.rev.seen[1] != "T0+accuracy_refiner" {
		t.Errorf("fluency review saw %q", f.rev.seen[1])
	}
	if st.Criticisms()[0] != "## Accuracy\n- 'world' was dropped" {
		t.Errorf("critique should be kept verbatim, got %q", st.Criticisms()[0])
	}

	if len(events) != len(stage.Chain()) {
		t.Fatalf("expected %d events, got %d", len(stage.Chain()), len(events))
	}
	for i, s := range stage.Chain() {
		if events[i].Stage != s {
			t.Errorf("event %d: stage %s, want %s", i, events[i].Stage, s)
		}
	}
	if events[2].Stage != stage.AccuracyRefiner || events[2].Skipped {
		t.Errorf("accuracy refiner should run: %+v", events[2])
	}
	if events[3].Stage != stage.FluencyReviewer {
		t.Errorf("accuracy refiner must be followed by FLUENCY_REVIEWER, got %s", events[3].Stage)
	}
	if !events[4].Skipped {
		t.Error("fluency refiner should be skipped")
	}
}

func TestRun_AmbiguousClassificationIsIssue(t *testing.T) {
	f := newFixture()
	for _, d := range stage.Dimensions() {
		f.rev.critiques[d] = "Looks fine mostly."
	}
	f.cls.inner = classifierFunc(func(context.Context, string) (classifier.Verdict, error) {
		return classifier.VerdictAmbiguous, nil
	})

	st, err := f.pipeline(t).Run(context.Background(), input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countNonNone(st.Criticisms()) != 7 {
		t.Errorf("ambiguous verdicts must never be treated as clean: %v", st.Criticisms())
	}
	if f.ref.callCount.Load() != 7 {
		t.Errorf("expected 7 refine calls, got %d", f.ref.callCount.Load())
	}
}

func TestRun_ModelClassifiedCleanBecomesNone(t *testing.T) {
	f := newFixture()
	f.rev.critiques[stage.Readability] = "No issues found, the text reads well."
	f.cls.inner = classifierFunc(func(_ context.Context, c string) (classifier.Verdict, error) {
		if strings.HasPrefix(c, "No issues") || c == "NONE" {
			return classifier.VerdictNone, nil
		}
		return classifier.VerdictChangesNeeded, nil
	})

	st, err := f.pipeline(t).Run(context.Background(), input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Criticisms()[stage.Readability] != classifier.None {
		t.Errorf("expected canonical NONE, got %q", st.Criticisms()[stage.Readability])
	}
	if f.ref.callCount.Load() != 0 {
		t.Errorf("expected no refine calls, got %d", f.ref.callCount.Load())
	}
}

func TestRun_UserRefiner(t *testing.T) {
	t.Run("no feedback skips", func(t *testing.T) {
		f := newFixture()
		st, err := f.pipeline(t).Run(context.Background(), input())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.ref.callCount.Load() != 0 || len(st.IntermediateTranslations()) != 1 {
			t.Error("user refiner should not run without feedback")
		}
	})

	t.Run("unchanged result is not appended", func(t *testing.T) {
		f := newFixture()
		f.ref.refineFunc = func(_ context.Context, req refiner.RefineRequest) (string, error) {
			return req.TranslatedText + "\n", nil
		}
		in := input()
		in.Feedback = "- irrelevant note"
		st, err := f.pipeline(t).Run(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.ref.callCount.Load() != 1 {
			t.Errorf("expected one user refiner call, got %d", f.ref.callCount.Load())
		}
		if len(st.IntermediateTranslations()) != 1 {
			t.Errorf("unchanged refinement should not be recorded: %v", st.IntermediateTranslations())
		}
	})

	t.Run("change is appended", func(t *testing.T) {
		f := newFixture()
		var gotCriticism string
		f.ref.refineFunc = func(_ context.Context, req refiner.RefineRequest) (string, error) {
			gotCriticism = req.Criticism
			return "T1", nil
		}
		in := input()
		in.Feedback = "  - use formal register  "
		st, err := f.pipeline(t).Run(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotCriticism != "- use formal register" {
			t.Errorf("feedback should be the criticism, got %q", gotCriticism)
		}
		if st.Final() != "T1" || len(st.Criticisms()) != 7 {
			t.Errorf("unexpected state: final=%q criticisms=%d", st.Final(), len(st.Criticisms()))
		}
	})
}

func TestRun_StageFailureIsAttributed(t *testing.T) {
	f := newFixture()
	f.rev.critiques[stage.Accuracy] = "- issue"
	boom := errors.New("model unavailable")
	f.rev.errAt[stage.Terminology] = boom

	st, err := f.pipeline(t).Run(context.Background(), input())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if se.BlockID != "b1" || se.Stage != stage.TerminologyReviewer {
		t.Errorf("unexpected attribution: %+v", se)
	}
	if !errors.Is(err, boom) {
		t.Error("stage error should wrap the cause")
	}
	if se.Cancelled() {
		t.Error("model failure is not a cancellation")
	}
	if st.Done() {
		t.Error("failed run must not be done")
	}
	// history up to the failure is kept
	if len(st.Criticisms()) != 3 || len(st.IntermediateTranslations()) != 2 {
		t.Errorf("unexpected partial history: %v / %v", st.Criticisms(), st.IntermediateTranslations())
	}
}

func TestRun_TranslatorFailure(t *testing.T) {
	f := newFixture()
	f.tr.translateFunc = func(context.Context, translator.TranslateRequest) (*translator.ServiceResult, error) {
		return nil, errors.New("quota exceeded")
	}
	_, err := f.pipeline(t).Run(context.Background(), input())
	var se *StageError
	if !errors.As(err, &se) || se.Stage != stage.Translator {
		t.Fatalf("expected TRANSLATOR stage error, got %v", err)
	}
	if f.rev.callCount.Load() != 0 {
		t.Error("no stage may run after a failure")
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.rev.critiques[stage.Accuracy] = "- issue"
	f.ref.refineFunc = func(_ context.Context, req refiner.RefineRequest) (string, error) {
		cancel()
		return "refined", nil
	}

	st, err := f.pipeline(t).Run(ctx, input())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if !se.Cancelled() || se.Stage != stage.FluencyReviewer {
		t.Errorf("expected cancellation before FLUENCY_REVIEWER, got %+v", se)
	}
	// the in-flight refinement was committed before stopping
	if st.Latest() != "refined" {
		t.Errorf("latest = %q", st.Latest())
	}
}

func TestState_HistoryIsCopied(t *testing.T) {
	f := newFixture()
	f.rev.critiques[stage.Accuracy] = "- issue"
	st, err := f.pipeline(t).Run(context.Background(), input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr := st.IntermediateTranslations()
	tr[0] = "tampered"
	cr := st.Criticisms()
	cr[0] = "tampered"
	if st.IntermediateTranslations()[0] == "tampered" || st.Criticisms()[0] == "tampered" {
		t.Error("accessors must return copies")
	}
}

func TestRun_ConcurrentBlocksShareNothing(t *testing.T) {
	f := newFixture()
	f.tr.translateFunc = func(_ context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
		return &translator.ServiceResult{TranslatedText: "tr:" + req.Text}, nil
	}
	f.rev.critiques[stage.Fluency] = "- issue"
	p := f.pipeline(t)

	const n = 20
	states := make([]*State, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := input()
			in.BlockID = fmt.Sprintf("b%d", i)
			in.Text = fmt.Sprintf("text %d", i)
			st, err := p.Run(context.Background(), in)
			if err != nil {
				t.Errorf("block %d: %v", i, err)
				return
			}
			states[i] = st
		}(i)
	}
	wg.Wait()

	for i, st := range states {
		if st == nil {
			continue
		}
		want := fmt.Sprintf("tr:text %d+fluency_refiner", i)
		if st.Final() != want {
			t.Errorf("block %d: final = %q, want %q", i, st.Final(), want)
		}
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("expected error for missing deps")
	}
}

type classifierFunc func(ctx context.Context, critique string) (classifier.Verdict, error)

func (f classifierFunc) Classify(ctx context.Context, critique string) (classifier.Verdict, error) {
	return f(ctx, critique)
}
