package persona

import (
	"context"
	"errors"
)

// ErrGenerationTimeout marks a generation that exceeded its deadline, so
// callers can distinguish slow upstreams from hard failures.
var ErrGenerationTimeout = errors.New("persona: generation timed out")

// Request is one generation call for one persona.
type Request struct {
	Profile *Profile
	// Prompt is the fully assembled system prompt from BuildPrompt.
	Prompt string
	// UserMessage is the sanitized message the persona is answering.
	UserMessage string
}

// Generator produces a persona's reply. Implementations must honor ctx
// cancellation and return ErrGenerationTimeout (possibly wrapped) when the
// deadline expires.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
