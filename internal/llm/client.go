package llm

import (
	"context"
	"fmt"
	"strings"
)

// Generation is the text produced for one prompt together with the provider's token count
// (prompt plus completion).
type Generation struct {
	Text       string
	TokenCount int
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate produces text for prompt using the model configured for tier. An empty
	// completion is reported as a *GenerationError.
	Generate(ctx context.Context, prompt string, tier ModelTier) (*Generation, error)
	// GetModel returns the provider model name for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// cleanText trims whitespace and a surrounding markdown code fence from a completion.
func cleanText(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Skip potential language identifier on first line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
