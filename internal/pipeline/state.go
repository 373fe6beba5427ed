package pipeline

import (
	"slices"

	"github.com/valpere/revtran/internal/stage"
)

// State is the history of one block's run. Both history sequences only grow;
// accessors hand out copies so callers can never rewrite an entry.
type State struct {
	input        string
	current      stage.Stage
	translations []string
	criticisms   []string
	final        string
	combined     bool
	transitions  int
	calls        int
}

func newState(input string) *State {
	return &State{input: input, current: stage.Translator}
}

func (s *State) Input() string { return s.input }

// Current is the stage about to run, or the last one that ran once the
// pipeline has stopped.
func (s *State) Current() stage.Stage { return s.current }

func (s *State) IntermediateTranslations() []string { return slices.Clone(s.translations) }

func (s *State) Criticisms() []string { return slices.Clone(s.criticisms) }

// Final is set by the combiner; empty until then.
func (s *State) Final() string { return s.final }

// Done reports whether the combiner has run.
func (s *State) Done() bool { return s.combined }

// Transitions counts stage advances taken so far.
func (s *State) Transitions() int { return s.transitions }

// ModelCalls counts translate, review, classification and refine calls.
func (s *State) ModelCalls() int { return s.calls }

// Latest is the newest translation candidate.
func (s *State) Latest() string {
	if len(s.translations) == 0 {
		return ""
	}
	return s.translations[len(s.translations)-1]
}

func (s *State) lastCriticism() (string, bool) {
	if len(s.criticisms) == 0 {
		return "", false
	}
	return s.criticisms[len(s.criticisms)-1], true
}

// effect is what one stage contributes. Stages compute effects without
// touching the state; commit applies them in one place.
type effect struct {
	translation    string
	hasTranslation bool
	criticism      string
	hasCriticism   bool
	final          string
	hasFinal       bool
	calls          int
	// skipped marks a refine stage that made no call
	skipped bool
}

func (s *State) commit(e effect) {
	if e.hasTranslation {
		s.translations = append(slices.Clip(s.translations), e.translation)
	}
	if e.hasCriticism {
		s.criticisms = append(slices.Clip(s.criticisms), e.criticism)
	}
	if e.hasFinal {
		s.final = e.final
		s.combined = true
	}
	s.calls += e.calls
}

func (s *State) advance() {
	s.current = s.current.Next()
	s.transitions++
}
