package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Embedding struct {
		BaseURL    string `yaml:"base_url"`
		Model      string `yaml:"model"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"embedding"`

	Chunker struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"chunker"`

	Retrieval struct {
		K         int    `yaml:"k"`
		Backend   string `yaml:"backend"` // "memory" or "pgvector"
		URL       string `yaml:"url"`     // database URL for pgvector
		TableName string `yaml:"table_name"`
	} `yaml:"retrieval"`

	WebSearch struct {
		APIKey          string  `yaml:"api_key"`
		DisableFallback bool    `yaml:"disable_fallback"` // fail instead of scraping when no key is set
		MaxResults      int     `yaml:"max_results"`
		RateLimit       float64 `yaml:"rate_limit"`
	} `yaml:"websearch"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/askdoc/config.yaml"),
			"/etc/askdoc/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "openai/gpt-3.5-turbo"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text"
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "http://localhost:11434"
	}
	if config.Embedding.MaxRetries == 0 {
		config.Embedding.MaxRetries = 2
	}

	if config.Chunker.ChunkSize == 0 {
		config.Chunker.ChunkSize = 1000
	}
	if config.Chunker.ChunkOverlap == 0 {
		config.Chunker.ChunkOverlap = 200
	}

	if config.Retrieval.K == 0 {
		config.Retrieval.K = 4
	}
	if config.Retrieval.Backend == "" {
		config.Retrieval.Backend = "memory"
	}
	if config.Retrieval.TableName == "" {
		config.Retrieval.TableName = "segments"
	}

	if config.WebSearch.MaxResults == 0 {
		config.WebSearch.MaxResults = 3
	}
	if config.WebSearch.RateLimit == 0 {
		config.WebSearch.RateLimit = 1
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		config.WebSearch.APIKey = key
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Retrieval.URL = dbURL
	}
}
