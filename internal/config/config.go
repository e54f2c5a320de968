package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Provider    ProviderConfig   `mapstructure:"provider"`
	Generation  GenerationConfig `mapstructure:"generation"`
	CORS        CORSConfig       `mapstructure:"cors"`
	Log         LogConfig        `mapstructure:"log"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Submissions SubmissionConfig `mapstructure:"submissions"`
	Retention   RetentionConfig  `mapstructure:"retention"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// ProviderConfig selects the chat model backend. Name is one of openai, ark or qwen.
type ProviderConfig struct {
	Name   string       `mapstructure:"name"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Doubao DoubaoConfig `mapstructure:"doubao"`
	Qwen   QwenConfig   `mapstructure:"qwen"`
}

// OpenAIConfig covers any OpenAI-compatible endpoint, OpenRouter included.
type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	Referer      string `mapstructure:"referer"`
	Title        string `mapstructure:"title"`
	DebugRequest bool   `mapstructure:"debug_request"`
}

type DoubaoConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type QwenConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	DebugRequest bool   `mapstructure:"debug_request"`
}

type GenerationConfig struct {
	SystemPrompt     string        `mapstructure:"system_prompt"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxTokensCap     int           `mapstructure:"max_tokens_cap"`
	Temperature      float32       `mapstructure:"temperature"`
	TopP             float32       `mapstructure:"top_p"`
	PresencePenalty  float32       `mapstructure:"presence_penalty"`
	FrequencyPenalty float32       `mapstructure:"frequency_penalty"`
	CleanOutput      bool          `mapstructure:"clean_output"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Type           string `mapstructure:"type"`
	DataDir        string `mapstructure:"data_dir"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	CacheSize      int    `mapstructure:"cache_size"`
	BackupSchedule string `mapstructure:"backup_schedule"`
}

type SubmissionConfig struct {
	Workers int           `mapstructure:"workers"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RetentionConfig bounds how long stories are kept. Zero values mean unbounded.
type RetentionConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Schedule   string        `mapstructure:"schedule"`
	MaxAge     time.Duration `mapstructure:"max_age"`
	MaxStories int           `mapstructure:"max_stories"`
}

const DefaultSystemPrompt = "You are a masterful storyteller who creates engaging, well-structured stories. " +
	"Write complete stories with compelling characters, vivid descriptions, and satisfying plot development."

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_upload_bytes", 1<<20)

	v.SetDefault("provider.name", "openai")
	v.SetDefault("provider.openai.api_key", "")
	v.SetDefault("provider.openai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("provider.openai.model", orDefault(firstEnv("DEFAULT_MODEL"), "sarvamai/sarvam-m:free"))
	v.SetDefault("provider.openai.referer", "")
	v.SetDefault("provider.openai.title", "StoryCraft AI Story Generator")
	v.SetDefault("provider.openai.debug_request", false)
	v.SetDefault("provider.doubao.api_key", "")
	v.SetDefault("provider.doubao.model", "")
	v.SetDefault("provider.qwen.api_key", "")
	v.SetDefault("provider.qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("provider.qwen.model", "qwen-plus")
	v.SetDefault("provider.qwen.debug_request", false)

	v.SetDefault("generation.system_prompt", DefaultSystemPrompt)
	v.SetDefault("generation.timeout", 120*time.Second)
	v.SetDefault("generation.max_tokens_cap", 4000)
	v.SetDefault("generation.temperature", 0.8)
	v.SetDefault("generation.top_p", 0.9)
	v.SetDefault("generation.presence_penalty", 0.1)
	v.SetDefault("generation.frequency_penalty", 0.1)
	v.SetDefault("generation.clean_output", true)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.type", "disk")
	v.SetDefault("storage.data_dir", "./generated_stories")
	v.SetDefault("storage.sqlite_path", "./data/storycraft.db")
	v.SetDefault("storage.cache_size", 100)
	v.SetDefault("storage.backup_schedule", "")

	v.SetDefault("submissions.workers", 8)
	v.SetDefault("submissions.ttl", time.Hour)

	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.schedule", "@every 1h")
	v.SetDefault("retention.max_age", time.Duration(0))
	v.SetDefault("retention.max_stories", 0)
}

// Load reads configPath when it exists, then applies STORYCRAFT_* environment overrides.
// A missing config file is not an error: defaults and environment are enough to run.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STORYCRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// the config file wins; well-known provider variables fill the gaps
	if c.Provider.OpenAI.APIKey == "" {
		c.Provider.OpenAI.APIKey = firstEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY")
	}
	if c.Provider.Doubao.APIKey == "" {
		c.Provider.Doubao.APIKey = firstEnv("ARK_API_KEY", "DOUBAO_API_KEY")
	}
	if c.Provider.Qwen.APIKey == "" {
		c.Provider.Qwen.APIKey = firstEnv("DASHSCOPE_API_KEY")
	}

	cfg = c
	return c, nil
}

func Get() *Config {
	return cfg
}

// Validate reports the first setting that would prevent the service from starting.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "openai":
		if c.Provider.OpenAI.APIKey == "" {
			return fmt.Errorf("provider.openai.api_key is required (or set OPENROUTER_API_KEY)")
		}
	case "ark":
		if c.Provider.Doubao.APIKey == "" || c.Provider.Doubao.Model == "" {
			return fmt.Errorf("provider.doubao.api_key and provider.doubao.model are required")
		}
	case "qwen":
		if c.Provider.Qwen.APIKey == "" {
			return fmt.Errorf("provider.qwen.api_key is required (or set DASHSCOPE_API_KEY)")
		}
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider.Name)
	}

	switch c.Storage.Type {
	case "memory", "disk", "sqlite":
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}

	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}
	if c.Submissions.Workers <= 0 {
		return fmt.Errorf("submissions.workers must be positive")
	}
	return nil
}

// ModelName is the provider model id recorded on every story.
func (c *Config) ModelName() string {
	switch c.Provider.Name {
	case "ark":
		return c.Provider.Doubao.Model
	case "qwen":
		return c.Provider.Qwen.Model
	default:
		return c.Provider.OpenAI.Model
	}
}

// Override replaces the active provider's model and API key when they are
// non-empty. Command-line flags use it.
func (c *Config) Override(model, apiKey string) {
	switch c.Provider.Name {
	case "ark":
		c.Provider.Doubao.Model = orDefault(model, c.Provider.Doubao.Model)
		c.Provider.Doubao.APIKey = orDefault(apiKey, c.Provider.Doubao.APIKey)
	case "qwen":
		c.Provider.Qwen.Model = orDefault(model, c.Provider.Qwen.Model)
		c.Provider.Qwen.APIKey = orDefault(apiKey, c.Provider.Qwen.APIKey)
	default:
		c.Provider.OpenAI.Model = orDefault(model, c.Provider.OpenAI.Model)
		c.Provider.OpenAI.APIKey = orDefault(apiKey, c.Provider.OpenAI.APIKey)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			return val
		}
	}
	return ""
}

func orDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
