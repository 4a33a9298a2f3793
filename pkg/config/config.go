// Package config loads cv-tailor settings from a JSON file, .env and the environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
)

// Environment variables that override the file.
const (
	EnvGatewayURL = "CV_TAILOR_GATEWAY_URL"
	EnvModel      = "CV_TAILOR_MODEL"
	EnvProvider   = "CV_TAILOR_PROVIDER"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// DefaultAddr is the listen address of the HTTP API.
const DefaultAddr = ":8080"

// Config represents the application configuration.
type Config struct {
	Gateway    GatewayConfig    `json:"gateway"`
	Generation GenerationConfig `json:"generation"`
	Scraper    ScraperConfig    `json:"scraper"`
	Defaults   DefaultConfig    `json:"defaults"`
	Server     ServerConfig     `json:"server"`
}

// GatewayConfig selects and addresses the language model backend.
type GatewayConfig struct {
	Provider       string `json:"provider" validate:"omitempty,oneof=ollama openai"`
	BaseURL        string `json:"base_url" validate:"omitempty,url"`
	APIKey         string `json:"api_key,omitempty"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
}

// GenerationConfig holds prompt limits and the retry policy.
type GenerationConfig struct {
	MaxCVChars        int     `json:"max_cv_chars" validate:"gt=0"`
	MaxJobChars       int     `json:"max_job_chars" validate:"gt=0"`
	MinWords          int     `json:"min_words" validate:"gt=0"`
	MaxWords          int     `json:"max_words" validate:"gtefield=MinWords"`
	Paragraphs        int     `json:"paragraphs" validate:"gt=0"`
	MaxRetries        int     `json:"max_retries" validate:"gte=1"`
	BackoffMultiplier float64 `json:"backoff_multiplier" validate:"gt=1"`
	InitialBackoffMS  int     `json:"initial_backoff_ms" validate:"gte=0"`
	Temperature       float64 `json:"temperature" validate:"gte=0,lte=1"`
}

// ScraperConfig holds job page fetching settings.
type ScraperConfig struct {
	UseBrowser     bool   `json:"use_browser"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
	UserAgent      string `json:"user_agent,omitempty"`
}

// DefaultConfig holds default values for commands.
type DefaultConfig struct {
	OutputDir string `json:"output_dir"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() (cfg Config) {
	gen := generator.DefaultConfig()

	cfg = Config{
		Gateway: GatewayConfig{
			Provider:       llm.ProviderOllama,
			BaseURL:        llm.DefaultOllamaURL,
			Model:          llm.DefaultModel,
			TimeoutSeconds: int(llm.DefaultTimeout / time.Second),
		},
		Generation: GenerationConfig{
			MaxCVChars:        gen.MaxCVChars,
			MaxJobChars:       gen.MaxJobChars,
			MinWords:          gen.MinWords,
			MaxWords:          gen.MaxWords,
			Paragraphs:        gen.Paragraphs,
			MaxRetries:        gen.MaxRetries,
			BackoffMultiplier: gen.BackoffMultiplier,
			InitialBackoffMS:  int(gen.InitialBackoff / time.Millisecond),
			Temperature:       gen.Temperature,
		},
		Scraper: ScraperConfig{
			TimeoutSeconds: int(jobsource.DefaultTimeout / time.Second),
		},
		Defaults: DefaultConfig{
			OutputDir: "./applications",
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
	}
	return cfg
}

// DefaultPath returns $HOME/.cv-tailor/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".cv-tailor", "config.json")
	return path, err
}

// Load reads configuration from file with .env and environment variable overrides.
// Fields absent from the file keep their defaults. With an empty configPath a missing
// default file is not an error.
func Load(configPath string) (cfg Config, err error) {
	cfg = Default()

	// A missing .env is normal.
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		err = json.Unmarshal(data, &cfg)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	case os.IsNotExist(err) && configPath == "":
		err = nil
	case os.IsNotExist(err):
		err = errors.Errorf("config file not found: %s (run 'cv-tailor init' to create)", path)
		return cfg, err
	default:
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	cfg.applyEnv()

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvGatewayURL); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Gateway.Model = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		c.Gateway.Provider = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		c.Gateway.APIKey = v
	}
	c.Gateway.Provider = strings.ToLower(strings.TrimSpace(c.Gateway.Provider))
}

// Validate checks the configuration invariants.
func (c *Config) Validate() (err error) {
	err = validator.New().Struct(c)
	if err != nil {
		return err
	}

	if c.Defaults.OutputDir == "" {
		c.Defaults.OutputDir = "./applications"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}

	return err
}

// GenerationConfig converts the generation section for the generator.
func (c *Config) GenerationConfig() (cfg generator.Config) {
	g := c.Generation
	cfg = generator.Config{
		MaxCVChars:        g.MaxCVChars,
		MaxJobChars:       g.MaxJobChars,
		MinWords:          g.MinWords,
		MaxWords:          g.MaxWords,
		Paragraphs:        g.Paragraphs,
		MaxRetries:        g.MaxRetries,
		BackoffMultiplier: g.BackoffMultiplier,
		InitialBackoff:    time.Duration(g.InitialBackoffMS) * time.Millisecond,
		Temperature:       g.Temperature,
		Model:             c.Gateway.Model,
	}
	return cfg
}

// GatewaySettings converts the gateway section for llm.NewGateway.
func (c *Config) GatewaySettings() (settings llm.Settings) {
	settings = llm.Settings{
		Provider: c.Gateway.Provider,
		BaseURL:  c.Gateway.BaseURL,
		APIKey:   c.Gateway.APIKey,
		Model:    c.Gateway.Model,
		Timeout:  time.Duration(c.Gateway.TimeoutSeconds) * time.Second,
	}
	return settings
}

// ScraperTimeout returns the page request timeout.
func (c *Config) ScraperTimeout() (timeout time.Duration) {
	timeout = time.Duration(c.Scraper.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = jobsource.DefaultTimeout
	}
	return timeout
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (path string, err error) {
	path = configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return path, err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return path, err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return path, err
	}

	defaultConfig := Default()

	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	defaultConfig.Defaults.OutputDir = filepath.Join(homeDir, "Documents", "Applications")

	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return path, err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return path, err
	}

	return path, err
}
