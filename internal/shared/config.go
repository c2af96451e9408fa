package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"prod"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr    string        `env:"METRICS_ADDR"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"35s"`

	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"openrouter"`
	LLMBaseURL     string `env:"LLM_BASE_URL"`
	LLMModel       string `env:"LLM_MODEL"`
	OpenRouterKey  string `env:"OPEN_ROUTER_API_KEY"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	GeminiKey      string `env:"GEMINI_API_KEY"`
	BreakerEnabled bool   `env:"LLM_BREAKER_ENABLED" envDefault:"false"`

	CacheBackend string `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string `env:"REDIS_PASSWORD"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PromptsFile string   `env:"PROMPTS_FILE"`

	WarmOnStart bool   `env:"WARM_ON_START" envDefault:"false"`
	WarmWorkers int    `env:"WARM_WORKERS" envDefault:"5"`
	RefreshCron string `env:"REFRESH_CRON"`
}

// Load reads .env (if present) and then the process environment. A missing
// model credential is not an error here; callers warn once their logger is
// set up, and requests fail with a config error until one is set.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// WarnMissingCredential logs through the global logger when the selected
// provider has no API key.
func (c Config) WarnMissingCredential() {
	if c.Credential() == "" {
		log.Warn().Str("provider", c.LLMProvider).Msg("no API key configured for the selected LLM provider")
	}
}

// Credential returns the API key of the selected provider.
func (c Config) Credential() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	default:
		return c.OpenRouterKey
	}
}

func (c Config) validate() error {
	switch c.LLMProvider {
	case "openrouter", "anthropic", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openrouter, anthropic or gemini, got %q", c.LLMProvider)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.WarmWorkers <= 0 {
		return fmt.Errorf("WARM_WORKERS must be positive, got %d", c.WarmWorkers)
	}
	return nil
}
