package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ChatConfig represents the configuration for the generation client.
type ChatConfig struct {
	Model       string
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint, defaults to OpenRouter
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ChatEngine calls an OpenAI-compatible chat completion endpoint. It
// implements types.Generator.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

func NewChatWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "openai/gpt-3.5-turbo"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("generation API key is required (set OPENROUTER_API_KEY)")
	}

	llm, err := openai.New(
		openai.WithModel(config.Model),
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat client: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// Generate produces a completion for the given system instruction and
// user prompt. The raw backend error is returned; translation into the
// pipeline error taxonomy happens at the composer boundary.
func (ce *ChatEngine) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ce.config.Timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return response.Choices[0].Content, nil
}
