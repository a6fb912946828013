package interview

import (
	"fmt"
	"reflect"
	"testing"
)

func TestParseTechStack(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"comma separated", "Python, JavaScript, React", []string{"Python", "Javascript", "React"}},
		{"dedup preserves order", "Python, Go, Python", []string{"Python", "Go"}},
		{"case-insensitive dedup", "go, Go, GO", []string{"Go"}},
		{"and separator", "Python and Go", []string{"Python", "Go"}},
		{"slash and ampersand", "Docker/Kubernetes & SQL", []string{"Docker", "Kubernetes", "SQL"}},
		{"dotted name", "node.js, react", []string{"Node.js", "React"}},
		{"all caps preserved", "SQL, php", []string{"SQL", "Php"}},
		{"trailing punctuation", "Python, Go.", []string{"Python", "Go"}},
		{"empty", " ,, - ", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTechStack(tc.input)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseTechStack(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestRecordTurnBoundsTranscript(t *testing.T) {
	s := &Session{}

	for i := 0; i < maxHistory+10; i++ {
		s.recordTurn(fmt.Sprintf("input %d", i), fmt.Sprintf("prompt %d", i))
	}

	if len(s.history) != maxHistory {
		t.Fatalf("expected transcript capped at %d, got %d", maxHistory, len(s.history))
	}

	last := s.history[len(s.history)-1]
	if last.Input != fmt.Sprintf("input %d", maxHistory+9) {
		t.Fatalf("transcript dropped the wrong end, last entry %+v", last)
	}
}

func TestTranscriptWindowsIntoQuestionContext(t *testing.T) {
	s := &Session{Assessment: make(map[string][]QA)}
	for i := 0; i < historyWindow+2; i++ {
		s.recordTurn(fmt.Sprintf("answer %d", i), fmt.Sprintf("question %d", i))
	}

	qc := s.questionContext("Go")
	if len(qc.History) != historyWindow {
		t.Fatalf("expected %d windowed exchanges, got %d", historyWindow, len(qc.History))
	}
	if qc.History[0].Candidate != "answer 2" {
		t.Fatalf("window starts at %q, want the oldest kept turn", qc.History[0].Candidate)
	}
	if qc.History[historyWindow-1].Interviewer != fmt.Sprintf("question %d", historyWindow+1) {
		t.Fatalf("window misses the newest turn: %+v", qc.History)
	}
}

func TestCurrentTechnology(t *testing.T) {
	s := &Session{State: StateTechAssessment, TechStack: []string{"Go", "Python"}}

	if got := s.CurrentTechnology(); got != "Go" {
		t.Fatalf("expected Go, got %q", got)
	}

	s.techIndex = 2
	if got := s.CurrentTechnology(); got != "" {
		t.Fatalf("expected empty past the stack, got %q", got)
	}

	s.techIndex = 0
	s.State = StateCollectName
	if got := s.CurrentTechnology(); got != "" {
		t.Fatalf("expected empty outside assessment, got %q", got)
	}
}

func TestStateNamesAndTerminal(t *testing.T) {
	if StateCollectEmail.String() != "COLLECT_EMAIL" {
		t.Fatalf("unexpected name: %s", StateCollectEmail)
	}

	for _, s := range []State{StateCompleted, StateEndedByUser} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}

	for _, s := range []State{StateGreeting, StateCollectPhone, StateTechAssessment, StateWrapUp} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestCollectTransitionTableCoversSequence(t *testing.T) {
	order := []State{
		StateCollectName,
		StateCollectEmail,
		StateCollectPhone,
		StateCollectExperience,
		StateCollectPosition,
		StateCollectLocation,
	}

	for i, state := range order {
		next, ok := nextCollectState[state]
		if !ok {
			t.Fatalf("no transition for %s", state)
		}
		if i+1 < len(order) && next != order[i+1] {
			t.Fatalf("%s transitions to %s, want %s", state, next, order[i+1])
		}
		if _, ok := collectField[state]; !ok {
			t.Fatalf("no field mapping for %s", state)
		}
	}

	if nextCollectState[StateCollectLocation] != StateCollectTechStack {
		t.Fatal("collection must end at COLLECT_TECH_STACK")
	}
}
