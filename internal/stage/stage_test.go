package stage

import (
	"strings"
	"testing"
)

func TestNext_ChainOrder(t *testing.T) {
	want := []string{
		"TRANSLATOR",
		"ACCURACY_REVIEWER", "ACCURACY_REFINER",
		"FLUENCY_REVIEWER", "FLUENCY_REFINER",
		"STYLE_REVIEWER", "STYLE_REFINER",
		"TERMINOLOGY_REVIEWER", "TERMINOLOGY_REFINER",
		"CONSISTENCY_REVIEWER", "CONSISTENCY_REFINER",
		"READABILITY_REVIEWER", "READABILITY_REFINER",
		"FORMATTING_REVIEWER", "FORMATTING_REFINER",
		"USER_REFINER",
		"COMBINER",
	}

	chain := Chain()
	if len(chain) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(chain))
	}
	for i, s := range chain {
		if s.String() != want[i] {
			t.Errorf("stage %d: expected %s, got %s", i, want[i], s)
		}
	}
}

func TestNext_SixteenTransitions(t *testing.T) {
	steps := 0
	for s := Translator; s != Combiner; s = s.Next() {
		steps++
		if steps > 100 {
			t.Fatal("chain does not terminate")
		}
	}
	if steps != 16 || Transitions != 16 {
		t.Errorf("expected 16 transitions, walked %d (const %d)", steps, Transitions)
	}
}

func TestNext_Total(t *testing.T) {
	if Combiner.Next() != Combiner {
		t.Error("Combiner must be its own successor")
	}
	for _, s := range []Stage{-1, Combiner + 1, 1000} {
		if got := s.Next(); got != Combiner {
			t.Errorf("Stage(%d).Next() = %v, want COMBINER", int(s), got)
		}
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		stage Stage
		want  Kind
	}{
		{Translator, KindTranslate},
		{AccuracyReviewer, KindReview},
		{AccuracyRefiner, KindRefine},
		{TerminologyReviewer, KindReview},
		{FormattingRefiner, KindRefine},
		{UserRefiner, KindRefine},
		{Combiner, KindCombine},
	}
	for _, tt := range tests {
		if got := tt.stage.Kind(); got != tt.want {
			t.Errorf("%s.Kind() = %s, want %s", tt.stage, got, tt.want)
		}
	}
}

func TestDimension_Pairs(t *testing.T) {
	for _, d := range Dimensions() {
		rev, ref := d.Reviewer(), d.Refiner()
		if rev.Next() != ref {
			t.Errorf("%s: refiner must follow reviewer", d)
		}
		got, ok := rev.Dimension()
		if !ok || got != d {
			t.Errorf("%s.Dimension() = %v, %v", rev, got, ok)
		}
		got, ok = ref.Dimension()
		if !ok || got != d {
			t.Errorf("%s.Dimension() = %v, %v", ref, got, ok)
		}
		if !strings.HasPrefix(rev.String(), strings.ToUpper(d.String())) {
			t.Errorf("%s does not belong to %s", rev, d)
		}
	}
	if _, ok := UserRefiner.Dimension(); ok {
		t.Error("USER_REFINER has no dimension")
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("STYLE_REFINER")
	if err != nil || s != StyleRefiner {
		t.Errorf("Parse = %v, %v", s, err)
	}
	if _, err := Parse("EDITOR"); err == nil {
		t.Error("expected error for unknown stage")
	}
	if d, ok := ParseDimension(" readability "); !ok || d != Readability {
		t.Errorf("ParseDimension = %v, %v", d, ok)
	}
}

func TestPromptFor_EveryCallingStage(t *testing.T) {
	for _, c := range []Content{ContentHTML, ContentText} {
		for _, s := range Chain() {
			_, ok := PromptFor(s, c)
			if s == Combiner {
				if ok {
					t.Error("Combiner should not have a prompt")
				}
				continue
			}
			if !ok {
				t.Errorf("missing prompt for %s", s)
			}
		}
	}
}

func TestPromptRender(t *testing.T) {
	p, _ := PromptFor(TerminologyReviewer, ContentHTML)
	sys, user := p.Render(Vars{
		SourceLanguage: "english",
		TargetLanguage: "spanish",
		OriginalText:   "<p>Heart</p>",
		TranslatedText: "<p>Corazón</p>",
		Glossary:       "heart -> corazón",
		Domain:         "medical",
	})

	for _, want := range []string{"english", "spanish", "medical"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	for _, want := range []string{"<p>Heart</p>", "<p>Corazón</p>", "heart -> corazón", "NONE"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if strings.Contains(sys+user, "{") {
		t.Errorf("unrendered placeholder left:\n%s\n%s", sys, user)
	}
}

func TestTranslatorPrompt_ContentVariants(t *testing.T) {
	html, _ := PromptFor(Translator, ContentHTML)
	text, _ := PromptFor(Translator, ContentText)
	if !strings.Contains(html.System, "HTML tag") {
		t.Error("html variant should carry markup rules")
	}
	if strings.Contains(text.System, "HTML tag") {
		t.Error("plain text variant should not mention markup")
	}
}
