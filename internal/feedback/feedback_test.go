package feedback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/revtran/internal"
)

type mockSource struct {
	notes map[string][]string
	err   error
}

func (m *mockSource) FeedbackNotes(_ context.Context, pair string) ([]string, error) {
	return m.notes[pair], m.err
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	for _, pair := range []string{"english-to-arabic", "english-to-vietnamese", "english-to-spanish", "english-to-chinese"} {
		if strings.TrimSpace(d[pair]) == "" {
			t.Errorf("missing default feedback for %s", pair)
		}
	}
	d["english-to-spanish"] = "changed"
	if Defaults()["english-to-spanish"] == "changed" {
		t.Error("Defaults must return a copy")
	}
}

func TestProvider_For(t *testing.T) {
	src := &mockSource{notes: map[string][]string{
		"english-to-spanish": {"- prefer usted", " "},
	}}
	p := NewProvider(map[string]string{"English-to-Spanish": "- keep it short\n"}, src)

	got, err := p.For(context.Background(), internal.Metadata{SourceLanguage: "English", TargetLanguage: "Spanish"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "- keep it short\n- prefer usted" {
		t.Errorf("unexpected feedback %q", got)
	}
}

func TestProvider_For_UnknownPair(t *testing.T) {
	p := NewProvider(Defaults(), nil)
	got, err := p.For(context.Background(), internal.Metadata{SourceLanguage: "german", TargetLanguage: "french"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected no feedback, got %q", got)
	}
}

func TestProvider_For_SourceError(t *testing.T) {
	boom := errors.New("db closed")
	p := NewProvider(nil, &mockSource{err: boom})
	if _, err := p.For(context.Background(), internal.Metadata{SourceLanguage: "english", TargetLanguage: "spanish"}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
english-to-spanish: |
  - keep sentences short
English-to-French:
  - prefer vous
  - "- avoid anglicisms"
  - ""
`)
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["english-to-spanish"] != "- keep sentences short\n" {
		t.Errorf("unexpected block value %q", got["english-to-spanish"])
	}
	if got["english-to-french"] != "- prefer vous\n- avoid anglicisms" {
		t.Errorf("unexpected list value %q", got["english-to-french"])
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":      "english-to-spanish: [unclosed",
		"mapping value": "english-to-spanish:\n  nested: x\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFileAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.yaml")
	if err := os.WriteFile(path, []byte("english-to-spanish: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged := Merge(Defaults(), file)
	if merged["english-to-spanish"] != "custom" {
		t.Errorf("file should replace the default, got %q", merged["english-to-spanish"])
	}
	if merged["english-to-arabic"] == "" {
		t.Error("other defaults should survive the merge")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
