package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	UploadLimit    string        `mapstructure:"UPLOAD_LIMIT"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int64         `mapstructure:"RATE_LIMIT_BURST"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	DBSchema    string `mapstructure:"DB_SCHEMA"`

	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	ReasoningProvider string        `mapstructure:"REASONING_PROVIDER"`
	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string        `mapstructure:"GEMINI_MODEL"`
	CohereAPIKey      string        `mapstructure:"COHERE_API_KEY"`
	CohereModel       string        `mapstructure:"COHERE_MODEL"`
	CohereBaseURL     string        `mapstructure:"COHERE_BASE_URL"`
	LLMTimeout        time.Duration `mapstructure:"LLM_TIMEOUT"`

	OpenFDABaseURL string        `mapstructure:"OPENFDA_BASE_URL"`
	OpenFDAAPIKey  string        `mapstructure:"OPENFDA_API_KEY"`
	OpenFDATimeout time.Duration `mapstructure:"OPENFDA_TIMEOUT"`
	OpenFDARPS     float64       `mapstructure:"OPENFDA_RPS"`

	SentimentEnabled bool `mapstructure:"SENTIMENT_ENABLED"`

	LabelRefreshEnabled bool          `mapstructure:"LABEL_REFRESH_ENABLED"`
	LabelRefreshAt      string        `mapstructure:"LABEL_REFRESH_AT"`
	LabelRefreshMaxAge  time.Duration `mapstructure:"LABEL_REFRESH_MAX_AGE"`
	LabelRefreshBatch   int           `mapstructure:"LABEL_REFRESH_BATCH"`

	ImageArchiveBucket string `mapstructure:"IMAGE_ARCHIVE_BUCKET"`
	S3Endpoint         string `mapstructure:"S3_ENDPOINT"`
	S3Region           string `mapstructure:"S3_REGION"`
	S3AccessKey        string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey        string `mapstructure:"S3_SECRET_KEY"`
}

var envKeys = []string{
	"PORT", "ENV", "CORS_ORIGINS", "REQUEST_TIMEOUT", "BODY_LIMIT", "UPLOAD_LIMIT",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"REASONING_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL",
	"COHERE_API_KEY", "COHERE_MODEL", "COHERE_BASE_URL", "LLM_TIMEOUT",
	"OPENFDA_BASE_URL", "OPENFDA_API_KEY", "OPENFDA_TIMEOUT", "OPENFDA_RPS",
	"SENTIMENT_ENABLED",
	"LABEL_REFRESH_ENABLED", "LABEL_REFRESH_AT", "LABEL_REFRESH_MAX_AGE", "LABEL_REFRESH_BATCH",
	"IMAGE_ARCHIVE_BUCKET", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("UPLOAD_LIMIT", "10M")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("REASONING_PROVIDER", "gemini")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("COHERE_MODEL", "command-a-vision-07-2025")
	v.SetDefault("COHERE_BASE_URL", "https://api.cohere.com")
	v.SetDefault("LLM_TIMEOUT", "20s")
	v.SetDefault("OPENFDA_BASE_URL", "https://api.fda.gov")
	v.SetDefault("OPENFDA_TIMEOUT", "10s")
	v.SetDefault("OPENFDA_RPS", 4)
	v.SetDefault("LABEL_REFRESH_AT", "03:00")
	v.SetDefault("LABEL_REFRESH_MAX_AGE", "720h")
	v.SetDefault("LABEL_REFRESH_BATCH", 50)

	// Bind explicitly so Unmarshal sees env-only keys.
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.ReasoningProvider = strings.ToLower(strings.TrimSpace(cfg.ReasoningProvider))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks settings whose requirements depend on the runtime mode.
func (c *Config) Validate() error {
	switch c.ReasoningProvider {
	case "gemini":
		if c.GeminiAPIKey == "" && !c.IsDev() {
			return fmt.Errorf("GEMINI_API_KEY is required when REASONING_PROVIDER is \"gemini\"")
		}
	case "cohere":
		if c.CohereAPIKey == "" && !c.IsDev() {
			return fmt.Errorf("COHERE_API_KEY is required when REASONING_PROVIDER is \"cohere\"")
		}
	default:
		return fmt.Errorf("REASONING_PROVIDER must be \"gemini\" or \"cohere\", got %q", c.ReasoningProvider)
	}

	if !c.IsDev() && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_SIGNING_KEY must be set outside development (current ENV=%q)", c.Env)
	}

	if c.ImageArchiveBucket != "" && c.S3Region == "" {
		return fmt.Errorf("S3_REGION is required when IMAGE_ARCHIVE_BUCKET is set")
	}

	if c.LabelRefreshEnabled {
		if _, err := time.Parse("15:04", c.LabelRefreshAt); err != nil {
			return fmt.Errorf("LABEL_REFRESH_AT must be HH:MM, got %q", c.LabelRefreshAt)
		}
		if c.LabelRefreshBatch <= 0 {
			return fmt.Errorf("LABEL_REFRESH_BATCH must be positive")
		}
	}

	if c.OpenFDARPS <= 0 {
		return fmt.Errorf("OPENFDA_RPS must be positive")
	}

	return nil
}
