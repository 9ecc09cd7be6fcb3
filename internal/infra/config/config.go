package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/derma-advisor/internal/domain/assessment"
)

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Supported upload backends.
const (
	BackendMemory = "memory"
	BackendR2     = "r2"
	BackendDrive  = "drive"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP   HTTPConfig     `yaml:"http"`
	LLM    LLMConfig      `yaml:"llm"`
	Mole   EndpointConfig `yaml:"mole"`
	Plan   EndpointConfig `yaml:"plan"`
	Upload UploadConfig   `yaml:"upload"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for POST requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig selects and authenticates the completion provider.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"apiKey"`
	BaseURL  string        `yaml:"baseUrl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EndpointConfig holds the completion settings of one assessment endpoint.
type EndpointConfig struct {
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"maxTokens"`
	Temperature  float32 `yaml:"temperature"`
	Mode         string  `yaml:"mode"`
	SystemPrompt string  `yaml:"systemPrompt"`
}

// UploadConfig selects the blob storage backend.
type UploadConfig struct {
	Backend  string      `yaml:"backend"`
	MaxBytes int64       `yaml:"maxBytes"`
	BaseURL  string      `yaml:"baseUrl"`
	R2       R2Config    `yaml:"r2"`
	Drive    DriveConfig `yaml:"drive"`
}

// R2Config contains S3-compatible bucket settings.
type R2Config struct {
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"accessKey"`
	SecretKey     string        `yaml:"secretKey"`
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	PublicBaseURL string        `yaml:"publicBaseUrl"`
	PresignTTL    time.Duration `yaml:"presignTtl"`
}

// DriveConfig contains the Google service account used for Drive uploads.
type DriveConfig struct {
	ClientEmail string `yaml:"clientEmail"`
	PrivateKey  string `yaml:"privateKey"`
	FolderID    string `yaml:"folderId"`
}

// Load reads configuration from a YAML file, an optional .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	// a missing .env is normal outside local development
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("HTTP_ADDRESS") == "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.LLM.Provider == ProviderGemini {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}

	applyEndpointOverrides("MOLE", &cfg.Mole)
	applyEndpointOverrides("PLAN", &cfg.Plan)

	if v := os.Getenv("UPLOAD_BACKEND"); v != "" {
		cfg.Upload.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxBytes = parsed
		}
	}
	if v := os.Getenv("R2_ENDPOINT"); v != "" {
		cfg.Upload.R2.Endpoint = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		cfg.Upload.R2.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		cfg.Upload.R2.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.Upload.R2.Bucket = v
	}
	if v := os.Getenv("R2_PUBLIC_BASE_URL"); v != "" {
		cfg.Upload.R2.PublicBaseURL = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_EMAIL"); v != "" {
		cfg.Upload.Drive.ClientEmail = v
	}
	if v := os.Getenv("GOOGLE_PRIVATE_KEY"); v != "" {
		cfg.Upload.Drive.PrivateKey = strings.ReplaceAll(v, `\n`, "\n")
	}
	if v := os.Getenv("GOOGLE_FOLDER_ID"); v != "" {
		cfg.Upload.Drive.FolderID = v
	}
}

func applyEndpointOverrides(prefix string, ep *EndpointConfig) {
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		ep.Model = v
	}
	if v := os.Getenv(prefix + "_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			ep.MaxTokens = parsed
		}
	}
	if v := os.Getenv(prefix + "_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			ep.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv(prefix + "_MODE"); v != "" {
		ep.Mode = v
	}
	if v := os.Getenv(prefix + "_SYSTEM_PROMPT"); v != "" {
		ep.SystemPrompt = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     false,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/images",
					"/api/uploadImage",
				},
			},
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Timeout:  60 * time.Second,
		},
		Mole: EndpointConfig{
			Model:        "gpt-4",
			MaxTokens:    150,
			Temperature:  0.7,
			Mode:         string(assessment.ModeBlocking),
			SystemPrompt: assessment.DefaultMoleSystemPrompt,
		},
		Plan: EndpointConfig{
			Model:        "gpt-4o-mini",
			MaxTokens:    200,
			Temperature:  0.3,
			Mode:         string(assessment.ModeIncremental),
			SystemPrompt: assessment.DefaultPlanSystemPrompt,
		},
		Upload: UploadConfig{
			Backend:  BackendMemory,
			MaxBytes: 10 << 20,
			R2: R2Config{
				Region:     "auto",
				PresignTTL: 7 * 24 * time.Hour,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if err := c.Mole.validate("mole"); err != nil {
		return err
	}
	if err := c.Plan.validate("plan"); err != nil {
		return err
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.maxBytes must be positive")
	}
	switch c.Upload.Backend {
	case BackendMemory:
	case BackendR2:
		if strings.TrimSpace(c.Upload.R2.Endpoint) == "" || strings.TrimSpace(c.Upload.R2.Bucket) == "" {
			return errors.New("upload.r2.endpoint and upload.r2.bucket are required for the r2 backend")
		}
	case BackendDrive:
		if strings.TrimSpace(c.Upload.Drive.ClientEmail) == "" || strings.TrimSpace(c.Upload.Drive.PrivateKey) == "" {
			return errors.New("upload.drive credentials are required for the drive backend")
		}
		if strings.TrimSpace(c.Upload.Drive.FolderID) == "" {
			return errors.New("upload.drive.folderId is required for the drive backend")
		}
	default:
		return fmt.Errorf("upload.backend %q is not supported", c.Upload.Backend)
	}
	return nil
}

func (e EndpointConfig) validate(section string) error {
	if strings.TrimSpace(e.Model) == "" {
		return fmt.Errorf("%s.model cannot be empty", section)
	}
	if e.MaxTokens <= 0 {
		return fmt.Errorf("%s.maxTokens must be positive", section)
	}
	if e.Temperature < 0 || e.Temperature > 2 {
		return fmt.Errorf("%s.temperature must be within [0, 2]", section)
	}
	if _, err := assessment.ParseMode(e.Mode); err != nil {
		return fmt.Errorf("%s.mode: %w", section, err)
	}
	return nil
}

// Assessment converts the endpoint sections into domain settings.
func (c *Config) Assessment() assessment.Config {
	return assessment.Config{
		Mole: c.Mole.toDomain(),
		Plan: c.Plan.toDomain(),
	}
}

func (e EndpointConfig) toDomain() assessment.EndpointConfig {
	mode, _ := assessment.ParseMode(e.Mode)
	return assessment.EndpointConfig{
		Options: assessment.Options{
			Model:           e.Model,
			MaxOutputTokens: e.MaxTokens,
			Temperature:     e.Temperature,
			Mode:            mode,
		},
		SystemPrompt: e.SystemPrompt,
	}
}
