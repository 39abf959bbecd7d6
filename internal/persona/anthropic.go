package persona

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

const (
	temperature    = 0.7
	maxTokens      = 1024
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	backoffMult    = 2
)

// AnthropicGenerator speaks for personas via the Claude Messages API.
// Credentials come from the environment (ANTHROPIC_API_KEY).
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

func NewAnthropicGenerator(model string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client: anthropic.NewClient(),
		model:  model,
	}
}

// Generate calls Claude with retries and exponential backoff. Transient API
// errors and empty completions are retried; a context deadline surfaces as
// ErrGenerationTimeout.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", wrapCtxErr(err)
		}

		message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(g.model),
			MaxTokens:   maxTokens,
			Temperature: anthropic.Float(temperature),
			System: []anthropic.TextBlockParam{
				{Text: req.Prompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
			},
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", wrapCtxErr(ctxErr)
			}
			lastErr = fmt.Errorf("persona: claude call (attempt %d/%d): %w", attempt, maxRetries, err)
			if !sleepBackoff(ctx, &backoff, attempt) {
				return "", wrapCtxErr(ctx.Err())
			}
			continue
		}

		text := extractText(message)
		if text == "" {
			lastErr = fmt.Errorf("persona: empty completion (attempt %d/%d)", attempt, maxRetries)
			if !sleepBackoff(ctx, &backoff, attempt) {
				return "", wrapCtxErr(ctx.Err())
			}
			continue
		}
		return text, nil
	}
	return "", lastErr
}

func extractText(message *anthropic.Message) string {
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

// sleepBackoff waits before the next attempt and doubles the backoff. It
// returns false if the context expired while waiting or there are no
// attempts left.
func sleepBackoff(ctx context.Context, backoff *time.Duration, attempt int) bool {
	if attempt >= maxRetries {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
		*backoff *= time.Duration(backoffMult)
		return true
	}
}

func wrapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}
	return err
}
