// Package ai defines the contract between the conversation core and the
// external text-generation service.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrGenerationTimeout indicates the generation call exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrEmptyResponse indicates the provider returned no usable text.
	ErrEmptyResponse = errors.New("provider returned empty response")
)

// Generator produces text for a prompt. Implementations are stateless with
// respect to the conversation; all context travels in the message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}
