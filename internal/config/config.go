package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Encoder types accepted in EncoderConfig.Type.
const (
	EncoderNone   = "none"
	EncoderTFIDF  = "tfidf"
	EncoderOpenAI = "openai"
)

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible encoder.
type OpenAIEncoderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
	MaxRetries     int    `yaml:"max_retries"`
	Concurrency    int    `yaml:"concurrency"`
	RetryDelayMsec int    `yaml:"retry_delay_ms"`
}

// EncoderConfig selects the text encoder behind the semantic index.
// "none" disables semantic scoring.
type EncoderConfig struct {
	Type      string               `yaml:"type"`
	CacheSize int                  `yaml:"cache_size"`
	OpenAI    *OpenAIEncoderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how ingested files are split into documents.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LanguageConfig tunes language detection.
type LanguageConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// RetrievalConfig bounds result set sizes.
type RetrievalConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// LogConfig configures structured logging. An empty File logs to stderr in server mode
// and discards output in the TUI.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Encoder    EncoderConfig    `yaml:"encoder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Language   LanguageConfig   `yaml:"language"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/hybridrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/hybridrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown component types.
func (c *AppConfig) Validate() error {
	switch c.Encoder.Type {
	case EncoderNone, EncoderTFIDF, EncoderOpenAI:
	default:
		return fmt.Errorf("unknown encoder %q", c.Encoder.Type)
	}
	switch c.Chunker.Type {
	case "none", "sentence":
	default:
		return fmt.Errorf("unknown chunker %q", c.Chunker.Type)
	}
	if c.Summarizer.Type != "frequency" {
		return fmt.Errorf("unknown summarizer %q", c.Summarizer.Type)
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k %d exceeds max_top_k %d", c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hybridrag", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{
		Encoder:    EncoderConfig{Type: EncoderTFIDF},
		Chunker:    ChunkerConfig{Type: "none"},
		Summarizer: SummarizerConfig{Type: "frequency"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Encoder.Type == "" {
		cfg.Encoder.Type = EncoderNone
	}
	if cfg.Encoder.CacheSize == 0 {
		cfg.Encoder.CacheSize = 1000
	}
	if cfg.Encoder.Type == EncoderOpenAI {
		if cfg.Encoder.OpenAI == nil {
			cfg.Encoder.OpenAI = &OpenAIEncoderConfig{}
		}
		o := cfg.Encoder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 3
		}
		if o.Concurrency == 0 {
			o.Concurrency = 4
		}
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "none"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 5
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 100
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
