package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatWithConfig(t *testing.T) {
	engine, err := NewChatWithConfig(ChatConfig{
		Model:       "openai/gpt-4o",
		APIKey:      "test-key",
		Temperature: 0.5,
		MaxTokens:   1000,
	})
	require.NoError(t, err)
	require.NotNil(t, engine)

	assert.Equal(t, "https://openrouter.ai/api/v1", engine.config.BaseURL)
	assert.Equal(t, 1000, engine.config.MaxTokens)
}

func TestNewChatWithConfigRejectsBadTemperature(t *testing.T) {
	_, err := NewChatWithConfig(ChatConfig{APIKey: "test-key", Temperature: 1.5})
	assert.Error(t, err)

	_, err = NewChatWithConfig(ChatConfig{APIKey: "test-key", Temperature: -0.1})
	assert.Error(t, err)
}

func TestNewChatWithConfigRejectsNegativeMaxTokens(t *testing.T) {
	_, err := NewChatWithConfig(ChatConfig{APIKey: "test-key", MaxTokens: -1})
	assert.Error(t, err)
}

func TestNewChatWithConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := NewChatWithConfig(ChatConfig{Temperature: 0.3})
	assert.Error(t, err)
}
