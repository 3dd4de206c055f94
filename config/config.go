package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the agents.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Debate    DebateConfig    `yaml:"debate"`
	Act       ActConfig       `yaml:"act"`
	Sorter    SorterConfig    `yaml:"sorter"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig points at an OpenAI-compatible chat server such as LM Studio.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	APIKeyEnv   string        `yaml:"api_key_env"` // read the API key from this variable when set
	Model       string        `yaml:"model" validate:"required"`
	VisionModel string        `yaml:"vision_model"`
	Temperature float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Provider    string        `yaml:"provider" validate:"oneof=openai local mock"`
	Model       string        `yaml:"model" validate:"required_unless=Provider mock"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	APIKeyEnv   string        `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int           `yaml:"dimension" validate:"gte=0"` // mock provider only
	Concurrency int           `yaml:"concurrency" validate:"gte=1,lte=64"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// ChunkingConfig sizes the word windows a page is split into.
type ChunkingConfig struct {
	ChunkWords   int `yaml:"chunk_words" validate:"gt=0"`
	OverlapWords int `yaml:"overlap_words" validate:"gte=0,ltfield=ChunkWords"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK              int           `yaml:"top_k" validate:"gt=0"`
	CacheSize         int           `yaml:"cache_size" validate:"gte=0"` // 0 disables the cache
	CacheTTL          time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	MinScoreThreshold float64       `yaml:"min_score_threshold" validate:"gte=-1,lte=1"` // Filter results below this score (0 = disabled)
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	UserAgent string        `yaml:"user_agent"`
	MaxBytes  int64         `yaml:"max_bytes" validate:"gte=0"`
}

// DebateConfig holds the subject and pacing of the three-agent debate.
type DebateConfig struct {
	Subject         string        `yaml:"subject" validate:"required"`
	Topic           string        `yaml:"topic" validate:"required"`
	Focus           string        `yaml:"focus" validate:"required"`
	Rounds          int           `yaml:"rounds" validate:"gt=0"`
	MaxWords        int           `yaml:"max_words" validate:"gt=0"`
	SupervisorWords int           `yaml:"supervisor_words" validate:"gt=0"`
	Pause           time.Duration `yaml:"pause" validate:"gte=0"`
}

// ActConfig bounds tool-calling runs and holds the numbers game puzzle.
type ActConfig struct {
	MaxRounds int   `yaml:"max_rounds" validate:"gt=0"`
	Target    int   `yaml:"target" validate:"gt=0"`
	Numbers   []int `yaml:"numbers" validate:"min=1,dive,gt=0"`
}

type SorterConfig struct {
	SourceDir      string   `yaml:"source_dir" validate:"required"`
	OutputDir      string   `yaml:"output_dir"`
	Categories     []string `yaml:"categories" validate:"min=1,unique,dive,required,excludesall=/\\"`
	Patterns       []string `yaml:"patterns"`
	DescribePrompt string   `yaml:"describe_prompt"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     "http://localhost:1234/v1",
			Model:       "gemma-3-4b-it",
			Temperature: 0.7,
			Timeout:     5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Enabled:     true,
			Provider:    "local",
			Model:       "text-embedding-nomic-embed-text-v1.5",
			BaseURL:     "http://localhost:1234/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   256,
			Concurrency: 4,
			Timeout:     60 * time.Second,
		},
		Chunking: ChunkingConfig{
			ChunkWords:   1000,
			OverlapWords: 200,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 100,
			CacheTTL:  5 * time.Minute,
		},
		Fetch: FetchConfig{
			Timeout:  30 * time.Second,
			MaxBytes: 10 << 20,
		},
		Debate: DebateConfig{
			Subject:         "nuclear energy",
			Topic:           "What is the impact of nuclear energy on radioactive pollution, public health and the environment?",
			Focus:           "radioactive pollution, health impacts and environmental concerns",
			Rounds:          5,
			MaxWords:        20,
			SupervisorWords: 25,
			Pause:           time.Second,
		},
		Act: ActConfig{
			MaxRounds: 50,
			Target:    254,
			Numbers:   []int{25, 100, 1, 7, 5, 2, 8},
		},
		Sorter: SorterConfig{
			SourceDir:      "source",
			OutputDir:      ".",
			Categories:     []string{"holidays", "vehicles", "animals", "other"},
			Patterns:       []string{"*.png", "*.jpg", "*.jpeg", "*.bmp", "*.gif"},
			DescribePrompt: "describe the image in 3 sentences",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for lmagents.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "lmagents.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".lmagents", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv loads dir/.env into the process environment if it exists.
// Variables already set are left alone.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = validationMessage(fe)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required", "required_unless":
		return field + " is required"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	case "ltfield":
		return field + " must be less than " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "url":
		return field + " must be a valid URL"
	case "min":
		return field + " must have at least " + fe.Param() + " entries"
	default:
		return field + " is invalid"
	}
}

// APIKey returns the chat API key from the configured environment variable,
// or an empty string so the client uses its local default.
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
