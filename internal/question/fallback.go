package question

import (
	"fmt"
	"strings"
)

const fallbackFollowUp = "Can you elaborate on the technical implementation details of what you just described?"

// fallbackBank holds static questions per well-known technology, used when
// the generation provider is unavailable.
var fallbackBank = map[string][]string{
	"python": {
		"Explain the difference between a list and a tuple in Python, and when you would choose one over the other.",
		"What is the Global Interpreter Lock and how does it affect multi-threaded Python programs?",
	},
	"go": {
		"Explain how goroutines differ from operating system threads and why that matters for a server workload.",
		"What does the select statement do with channels, and when would you reach for it?",
	},
	"javascript": {
		"Explain how the event loop processes tasks and microtasks in JavaScript.",
		"What is a closure and how have you used one in practice?",
	},
	"react": {
		"Explain the difference between state and props in React and how data flows between components.",
		"When does a React component re-render, and how can unnecessary re-renders be avoided?",
	},
	"postgresql": {
		"Explain what an index is in PostgreSQL and the trade-offs of adding one to a large table.",
		"What isolation levels does PostgreSQL offer and when would you change the default?",
	},
	"docker": {
		"Explain the difference between a Docker image and a container, and how layers affect image size.",
		"How do you pass configuration and secrets into a container at runtime?",
	},
	"kubernetes": {
		"Explain what a Deployment manages in Kubernetes and how a rolling update proceeds.",
		"What is the difference between a liveness probe and a readiness probe?",
	},
	"sql": {
		"Explain the difference between an INNER JOIN and a LEFT JOIN with an example.",
		"What is a transaction and which guarantees does it provide?",
	},
}

// Fallback returns a static question for the technology. The index selects
// among bank entries so a follow-up turn does not repeat the primary
// question; unknown technologies get a generic concept question.
func Fallback(technology string, index int) string {
	key := strings.ToLower(strings.TrimSpace(technology))
	if bank, ok := fallbackBank[key]; ok && len(bank) > 0 {
		return bank[index%len(bank)]
	}
	return fmt.Sprintf(
		"Describe a core concept of %s that you use regularly, and explain a real problem you solved with it.",
		technology,
	)
}
