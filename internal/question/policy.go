package question

import "strings"

// DefaultMinWords is the answer length below which the default policy asks
// for a follow-up.
const DefaultMinWords = 10

// FollowUpPolicy decides whether a prior answer warrants one follow-up
// question. The conversation manager, not the policy, guarantees at most
// one follow-up per question.
type FollowUpPolicy interface {
	Name() string
	WantsFollowUp(answer string) bool
}

// WordCountPolicy asks a follow-up when the answer is shorter than MinWords:
// a shallow answer gets one probe before moving on.
type WordCountPolicy struct {
	MinWords int
}

func (p *WordCountPolicy) Name() string { return "word_count" }

func (p *WordCountPolicy) WantsFollowUp(answer string) bool {
	min := p.MinWords
	if min <= 0 {
		min = DefaultMinWords
	}
	return len(strings.Fields(answer)) < min
}

// technicalIndicators are terms suggesting an answer has enough substance
// to be worth probing deeper.
var technicalIndicators = []string{
	"implement", "architecture", "design", "optimize", "performance",
	"scale", "database", "api", "framework", "algorithm", "solution",
	"challenge", "problem", "approach", "method", "strategy",
}

// IndicatorPolicy asks a follow-up when a sufficiently long answer mentions
// at least MinIndicators technical indicator terms: an interesting answer
// gets one probe.
type IndicatorPolicy struct {
	MinIndicators int
}

func (p *IndicatorPolicy) Name() string { return "indicator" }

func (p *IndicatorPolicy) WantsFollowUp(answer string) bool {
	if len(strings.Fields(answer)) < DefaultMinWords {
		return false
	}

	min := p.MinIndicators
	if min <= 0 {
		min = 2
	}

	lower := strings.ToLower(answer)
	count := 0
	for _, indicator := range technicalIndicators {
		if strings.Contains(lower, indicator) {
			count++
		}
	}
	return count >= min
}

// PolicyByName resolves a configured policy name, defaulting to word_count.
func PolicyByName(name string, minWords int) FollowUpPolicy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "indicator":
		return &IndicatorPolicy{}
	default:
		return &WordCountPolicy{MinWords: minWords}
	}
}
