package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider identifiers accepted in TASKMESH_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config carries the runtime settings of a TaskMesh process.
type Config struct {
	// Provider selects the model backend: openai, anthropic or mock.
	Provider string
	// Model is the provider-specific model identifier.
	Model string
	// APIKey authenticates against the provider. Optional for mock and for
	// OpenAI-compatible endpoints that need no key.
	APIKey string
	// BaseURL overrides the provider endpoint (e.g. an Ollama host exposing
	// the OpenAI-compatible API).
	BaseURL string
	// CommandTimeout bounds each host command execution.
	CommandTimeout time.Duration
	// MaxOutputTokens caps the model's response length.
	MaxOutputTokens int64
	// RetryBudget is the number of consecutive unusable model turns
	// (transport failure or empty parse) an agent tolerates before failing.
	RetryBudget int
	// HintsDir is the hint library root.
	HintsDir string
	// FlowsDir is the flow template library root.
	FlowsDir string
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Provider:        ProviderOpenAI,
		Model:           "",
		CommandTimeout:  300 * time.Second,
		MaxOutputTokens: 4096,
		RetryBudget:     3,
		HintsDir:        "hints",
		FlowsDir:        "flows",
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("TASKMESH_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("TASKMESH_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("TASKMESH_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("TASKMESH_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TASKMESH_HINTS_DIR"); v != "" {
		cfg.HintsDir = v
	}
	if v := os.Getenv("TASKMESH_FLOWS_DIR"); v != "" {
		cfg.FlowsDir = v
	}

	if v := os.Getenv("TASKMESH_COMMAND_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return cfg, fmt.Errorf("invalid TASKMESH_COMMAND_TIMEOUT: %q", v)
		}
		cfg.CommandTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("TASKMESH_MAX_OUTPUT_TOKENS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid TASKMESH_MAX_OUTPUT_TOKENS: %q", v)
		}
		cfg.MaxOutputTokens = n
	}

	if v := os.Getenv("TASKMESH_RETRY_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid TASKMESH_RETRY_BUDGET: %q", v)
		}
		cfg.RetryBudget = n
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}

// Validate checks provider coherence.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}

	return nil
}
