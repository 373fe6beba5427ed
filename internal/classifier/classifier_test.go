package classifier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type mockModel struct {
	response  string
	err       error
	jsonCalls atomic.Int32
	calls     atomic.Int32
}

func (m *mockModel) Generate(context.Context, string, string) (string, error) {
	m.calls.Add(1)
	return m.response, m.err
}

func (m *mockModel) GenerateJSON(context.Context, string, string) (string, error) {
	m.jsonCalls.Add(1)
	return m.response, m.err
}

type plainModel struct {
	response string
}

func (m *plainModel) Generate(context.Context, string, string) (string, error) {
	return m.response, nil
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		in   string
		want Verdict
	}{
		{"NONE", VerdictNone},
		{" none. ", VerdictNone},
		{`"NONE"`, VerdictNone},
		{"CHANGES_NEEDED", VerdictChangesNeeded},
		{"changes needed", VerdictChangesNeeded},
		{"maybe", VerdictAmbiguous},
		{"", VerdictAmbiguous},
	}
	for _, tt := range tests {
		if got := ParseVerdict(tt.in); got != tt.want {
			t.Errorf("ParseVerdict(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerdict_Clean(t *testing.T) {
	if !VerdictNone.Clean() {
		t.Error("NONE should be clean")
	}
	if VerdictAmbiguous.Clean() || VerdictChangesNeeded.Clean() {
		t.Error("ambiguous and changes-needed verdicts are never clean")
	}
}

func TestExactClassifier(t *testing.T) {
	c := ExactClassifier{}
	v, _ := c.Classify(context.Background(), "NONE")
	if v != VerdictNone {
		t.Errorf("expected NONE, got %v", v)
	}
	v, _ = c.Classify(context.Background(), "No issues found.")
	if v != VerdictChangesNeeded {
		t.Errorf("free-form text should need changes, got %v", v)
	}
}

func TestModelClassifier_UsesJSONMode(t *testing.T) {
	m := &mockModel{response: "```json\n{\"verdict\": \"NONE\"}\n```"}
	v, err := NewModelClassifier(m).Classify(context.Background(), "The translation looks correct, nothing to fix.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != VerdictNone {
		t.Errorf("expected NONE, got %v", v)
	}
	if m.jsonCalls.Load() != 1 || m.calls.Load() != 0 {
		t.Errorf("expected one JSON call, got json=%d plain=%d", m.jsonCalls.Load(), m.calls.Load())
	}
}

func TestModelClassifier_AlwaysAsks(t *testing.T) {
	m := &mockModel{response: `{"verdict":"NONE"}`}
	v, err := NewModelClassifier(m).Classify(context.Background(), "NONE")
	if err != nil || v != VerdictNone {
		t.Fatalf("got %v, %v", v, err)
	}
	if m.jsonCalls.Load() != 1 {
		t.Errorf("every critique is classified by the model, got %d calls", m.jsonCalls.Load())
	}
}

func TestModelClassifier_BareLabel(t *testing.T) {
	v, err := NewModelClassifier(&plainModel{response: "CHANGES_NEEDED"}).Classify(context.Background(), "- wrong tense")
	if err != nil || v != VerdictChangesNeeded {
		t.Errorf("got %v, %v", v, err)
	}
}

func TestModelClassifier_Ambiguous(t *testing.T) {
	v, err := NewModelClassifier(&plainModel{response: "It depends on the audience."}).Classify(context.Background(), "- consider tone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != VerdictAmbiguous || v.Clean() {
		t.Errorf("expected an ambiguous, non-clean verdict, got %v", v)
	}
}

func TestModelClassifier_Error(t *testing.T) {
	boom := errors.New("unavailable")
	_, err := NewModelClassifier(&mockModel{err: boom}).Classify(context.Background(), "- issue")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
