package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the hypecycle server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	AI         AIConfig
	Collectors CollectorsConfig
	Classifier ClassifierConfig
	Refresh    RefreshConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	LogLevel           string
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Driver returns "sqlite" for sqlite:// and file: URLs, "postgres" otherwise.
func (c DatabaseConfig) Driver() string {
	if strings.HasPrefix(c.URL, "sqlite://") || strings.HasPrefix(c.URL, "file:") {
		return "sqlite"
	}
	return "postgres"
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Temperature      float64
	DeepSeek         OpenAICompatConfig
	OpenAI           OpenAICompatConfig
	VLLM             OpenAICompatConfig
	Ollama           OllamaConfig
	Anthropic        AnthropicConfig
	Gemini           GeminiConfig
}

// OpenAICompatConfig configures any endpoint speaking the OpenAI chat completions API.
type OpenAICompatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type CollectorsConfig struct {
	HTTPTimeout           time.Duration
	SemanticScholarAPIKey string
	PatentsViewAPIKey     string
	HackerNewsBaseURL     string
	SemanticScholarURL    string
	PatentsViewURL        string
	GDELTBaseURL          string
	YahooFinanceURL       string
}

type ClassifierConfig struct {
	CacheTTL         time.Duration
	CollectorTimeout time.Duration
	MinSources       int
}

type RefreshConfig struct {
	Schedule string
	Keywords []string
}

// Enabled reports whether the watchlist refresher should run.
func (c RefreshConfig) Enabled() bool {
	return c.Schedule != "" && len(c.Keywords) > 0
}

var validProviders = map[string]bool{
	"deepseek":  true,
	"openai":    true,
	"vllm":      true,
	"ollama":    true,
	"anthropic": true,
	"gemini":    true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration from an optional YAML file and environment variables
// and returns a validated Config. Environment variables override file values.
// The file is named by HYPECYCLE_CONFIG_FILE and holds a flat map of the same
// keys the environment uses.
func Load() (*Config, error) {
	l, err := newLoader(os.Getenv("HYPECYCLE_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               l.envInt("HYPECYCLE_PORT", 8000),
			Env:                l.envString("HYPECYCLE_ENV", "development"),
			LogLevel:           strings.ToLower(l.envString("LOG_LEVEL", "info")),
			RateLimitPerMinute: l.envInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		Database: DatabaseConfig{
			URL:             l.envString("DATABASE_URL", ""),
			MaxOpenConns:    l.envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    l.envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: l.envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: l.envString("REDIS_URL", ""),
		},
		AI: AIConfig{
			Provider:         strings.ToLower(l.envString("AI_PROVIDER", "deepseek")),
			InferenceTimeout: l.envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			Temperature:      l.envFloat("AI_TEMPERATURE", 0.3),
			DeepSeek: OpenAICompatConfig{
				APIKey:  l.envString("DEEPSEEK_API_KEY", ""),
				BaseURL: l.envString("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
				Model:   l.envString("DEEPSEEK_MODEL", "deepseek-chat"),
			},
			OpenAI: OpenAICompatConfig{
				APIKey:  l.envString("OPENAI_API_KEY", ""),
				BaseURL: l.envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   l.envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			VLLM: OpenAICompatConfig{
				APIKey:  l.envString("VLLM_API_KEY", ""),
				BaseURL: l.envString("VLLM_BASE_URL", "http://localhost:8000/v1"),
				Model:   l.envString("VLLM_MODEL", ""),
			},
			Ollama: OllamaConfig{
				BaseURL: l.envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   l.envString("OLLAMA_MODEL", "llama3"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  l.envString("ANTHROPIC_API_KEY", ""),
				BaseURL: l.envString("ANTHROPIC_BASE_URL", ""),
				Model:   l.envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
			Gemini: GeminiConfig{
				APIKey:  l.envString("GEMINI_API_KEY", ""),
				BaseURL: l.envString("GEMINI_BASE_URL", ""),
				Model:   l.envString("GEMINI_MODEL", "gemini-2.5-flash"),
			},
		},
		Collectors: CollectorsConfig{
			HTTPTimeout:           l.envDuration("COLLECTOR_HTTP_TIMEOUT", 30*time.Second),
			SemanticScholarAPIKey: l.envString("SEMANTIC_SCHOLAR_API_KEY", ""),
			PatentsViewAPIKey:     l.envString("PATENTSVIEW_API_KEY", ""),
			HackerNewsBaseURL:     l.envString("HACKERNEWS_BASE_URL", "https://hn.algolia.com/api/v1"),
			SemanticScholarURL:    l.envString("SEMANTIC_SCHOLAR_BASE_URL", "https://api.semanticscholar.org/graph/v1"),
			PatentsViewURL:        l.envString("PATENTSVIEW_BASE_URL", "https://search.patentsview.org/api/v1"),
			GDELTBaseURL:          l.envString("GDELT_BASE_URL", "https://api.gdeltproject.org/api/v2"),
			YahooFinanceURL:       l.envString("YAHOO_FINANCE_BASE_URL", "https://query1.finance.yahoo.com"),
		},
		Classifier: ClassifierConfig{
			CacheTTL:         time.Duration(l.envInt("CACHE_TTL_HOURS", 24)) * time.Hour,
			CollectorTimeout: l.envDurationSecs("COLLECTOR_TIMEOUT_SECS", 120*time.Second),
			MinSources:       l.envInt("MIN_SOURCES", 3),
		},
		Refresh: RefreshConfig{
			Schedule: l.envString("REFRESH_SCHEDULE", ""),
			Keywords: splitList(l.envString("REFRESH_KEYWORDS", "")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HYPECYCLE_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of deepseek, openai, vllm, ollama, anthropic, gemini; got %q", c.AI.Provider)
	}
	switch c.AI.Provider {
	case "deepseek":
		if c.AI.DeepSeek.APIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required when AI_PROVIDER is deepseek")
		}
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
		}
	case "vllm":
		if c.AI.VLLM.Model == "" {
			return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
		}
	case "anthropic":
		if c.AI.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
		}
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}

	if c.Classifier.MinSources < 1 || c.Classifier.MinSources > 5 {
		return fmt.Errorf("MIN_SOURCES must be between 1 and 5, got %d", c.Classifier.MinSources)
	}
	if c.Classifier.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_HOURS must be positive")
	}
	if c.Classifier.CollectorTimeout <= 0 {
		return fmt.Errorf("COLLECTOR_TIMEOUT_SECS must be positive")
	}

	if c.Refresh.Schedule != "" && len(c.Refresh.Keywords) == 0 {
		return fmt.Errorf("REFRESH_KEYWORDS is required when REFRESH_SCHEDULE is set")
	}

	return nil
}

// loader resolves keys from the environment first, then the config file.
type loader struct {
	file map[string]string
}

func newLoader(path string) (*loader, error) {
	l := &loader{file: map[string]string{}}
	if path == "" {
		return l, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &l.file); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return l, nil
}

func (l *loader) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return l.file[key]
}

func (l *loader) envString(key, defaultVal string) string {
	if v := l.lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func (l *loader) envInt(key string, defaultVal int) int {
	v := l.lookup(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func (l *loader) envFloat(key string, defaultVal float64) float64 {
	v := l.lookup(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func (l *loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	v := l.lookup(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func (l *loader) envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := l.lookup(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
