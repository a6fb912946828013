package interview

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/talentscout/screener/internal/question"
)

// Profile holds validated candidate identity fields. Each field is written
// exactly once, after passing validation.
type Profile struct {
	Name            string
	Email           string
	Phone           string
	YearsExperience int
	DesiredPosition string
	Location        string
}

// QA is one question/answer exchange during the technical assessment.
// FollowUpAsked marks a primary question that triggered a follow-up.
type QA struct {
	Question      string
	Answer        string
	FollowUpAsked bool
}

// Turn is one transcript entry: the candidate's input and the prompt it
// produced.
type Turn struct {
	Input  string
	Prompt string
}

const (
	// historyWindow is how many recent turns are fed into question prompts.
	historyWindow = 4
	// maxHistory bounds the transcript kept on a session.
	maxHistory = 40
)

// Session is the full state of one candidate conversation. It is owned and
// mutated exclusively by the Manager; collaborators only ever receive
// copies or explicit inputs.
type Session struct {
	ID            string
	State         State
	Profile       Profile
	TechStack     []string
	Assessment    map[string][]QA
	ExitRequested bool
	CreatedAt     time.Time
	CompletedAt   time.Time

	// Technical assessment cursor.
	techIndex        int
	pendingQuestion  string
	awaitingFollowUp bool

	// Bounded conversation transcript, newest last.
	history []Turn

	// Serializes turns: a new input is accepted only after the previous
	// transition has fully completed.
	mu sync.Mutex
}

// CurrentTechnology returns the technology under assessment, or "" outside
// the assessment phase.
func (s *Session) CurrentTechnology() string {
	if s.State != StateTechAssessment || s.techIndex >= len(s.TechStack) {
		return ""
	}
	return s.TechStack[s.techIndex]
}

// Progress reports screening completion as a percentage. Field collection
// accounts for 60%, the technical assessment for the remaining 40%.
func (s *Session) Progress() int {
	switch {
	case s.State == StateCompleted:
		return 100
	case s.State == StateTechAssessment:
		total := len(s.TechStack)
		if total == 0 {
			return 60
		}
		return 60 + (s.techIndex*40)/total
	default:
		fields := 0
		if s.Profile.Name != "" {
			fields++
		}
		if s.Profile.Email != "" {
			fields++
		}
		if s.Profile.Phone != "" {
			fields++
		}
		if s.State > StateCollectExperience {
			fields++
		}
		if s.Profile.DesiredPosition != "" {
			fields++
		}
		if s.Profile.Location != "" {
			fields++
		}
		return (fields * 60) / 6
	}
}

// recordTurn appends an exchange to the transcript, dropping the oldest
// entries past the bound.
func (s *Session) recordTurn(input, prompt string) {
	s.history = append(s.history, Turn{Input: input, Prompt: prompt})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

func (s *Session) questionContext(tech string) question.Context {
	prior := make([]question.QA, 0, len(s.Assessment[tech]))
	for _, qa := range s.Assessment[tech] {
		prior = append(prior, question.QA{Question: qa.Question, Answer: qa.Answer})
	}

	recent := s.history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	history := make([]question.Exchange, 0, len(recent))
	for _, turn := range recent {
		history = append(history, question.Exchange{Candidate: turn.Input, Interviewer: turn.Prompt})
	}

	return question.Context{
		Technology:      tech,
		YearsExperience: s.Profile.YearsExperience,
		DesiredPosition: s.Profile.DesiredPosition,
		Prior:           prior,
		History:         history,
	}
}

var techSplitPattern = regexp.MustCompile(`(?i),|\band\b|/|&`)

// ParseTechStack splits a declared tech stack into a deduplicated,
// order-preserving list of normalized technology names.
func ParseTechStack(raw string) []string {
	tokens := techSplitPattern.Split(raw, -1)

	seen := make(map[string]struct{})
	techs := make([]string, 0, len(tokens))
	for _, token := range tokens {
		tech := strings.TrimSpace(strings.Trim(strings.TrimSpace(token), ".;:-"))
		if tech == "" {
			continue
		}

		normalized := normalizeTech(tech)
		key := strings.ToLower(normalized)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		techs = append(techs, normalized)
	}

	return techs
}

// normalizeTech capitalizes bare names, preserves all-caps tokens such as
// SQL, and keeps dotted names such as Node.js intact past the first part.
func normalizeTech(tech string) string {
	if tech == strings.ToUpper(tech) {
		return tech
	}

	if idx := strings.Index(tech, "."); idx > 0 {
		return capitalize(tech[:idx]) + tech[idx:]
	}

	return capitalize(tech)
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
