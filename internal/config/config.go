package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort     string `yaml:"api_port"`
	LogLevel    string `yaml:"log_level"`
	StoragePath string `yaml:"storage_path"`
	MaxUploadMB int    `yaml:"max_upload_mb"`

	LLMProvider         string `yaml:"llm_provider"`
	OllamaURL           string `yaml:"ollama_url"`
	OllamaClassifyModel string `yaml:"ollama_classify_model"`
	OllamaGenModel      string `yaml:"ollama_gen_model"`
	OpenAIBaseURL       string `yaml:"openai_base_url"`
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	OpenAIClassifyModel string `yaml:"openai_classify_model"`
	OpenAIGenModel      string `yaml:"openai_gen_model"`

	GenerationMaxTokens int  `yaml:"generation_max_tokens"`
	LLMTimeoutSeconds   int  `yaml:"llm_timeout_seconds"`
	LLMRetryMaxAttempts int  `yaml:"llm_retry_max_attempts"`
	LLMBreakerEnabled   bool `yaml:"llm_breaker_enabled"`

	ParseMode string `yaml:"parse_mode"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	APIRateLimitRPS       float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst     int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight        int     `yaml:"api_max_in_flight"`
	APIBackpressureWaitMS int     `yaml:"api_backpressure_wait_ms"`

	Prompts Prompts `yaml:"prompts"`
}

// Prompts overrides the model preambles; blank values keep the built-in text.
type Prompts struct {
	Relevance  string `yaml:"relevance"`
	Violations string `yaml:"violations"`
}

func Defaults() Config {
	return Config{
		APIPort:     "3000",
		LogLevel:    "info",
		StoragePath: "./uploads",
		MaxUploadMB: 32,

		LLMProvider:         "ollama",
		OllamaURL:           "http://localhost:11434",
		OllamaClassifyModel: "llama3.1:8b",
		OllamaGenModel:      "llama3.1:8b",
		OpenAIBaseURL:       "",
		OpenAIClassifyModel: "gpt-4o-mini",
		OpenAIGenModel:      "gpt-4o-mini",

		GenerationMaxTokens: 1500,
		LLMTimeoutSeconds:   120,
		LLMRetryMaxAttempts: 1,
		LLMBreakerEnabled:   true,

		ParseMode: "strict",

		NATSSubject: "legal.analysis.completed",

		APIBackpressureWaitMS: 250,
	}
}

// Load applies defaults, then the YAML file named by CONFIG_FILE (if any), then
// environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.StoragePath = mustEnv("STORAGE_PATH", cfg.StoragePath)
	cfg.MaxUploadMB = mustEnvInt("MAX_UPLOAD_MB", cfg.MaxUploadMB)

	cfg.LLMProvider = mustEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.OllamaURL = mustEnv("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaClassifyModel = mustEnv("OLLAMA_CLASSIFY_MODEL", cfg.OllamaClassifyModel)
	cfg.OllamaGenModel = mustEnv("OLLAMA_GEN_MODEL", cfg.OllamaGenModel)
	cfg.OpenAIBaseURL = mustEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIAPIKey = mustEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIClassifyModel = mustEnv("OPENAI_CLASSIFY_MODEL", cfg.OpenAIClassifyModel)
	cfg.OpenAIGenModel = mustEnv("OPENAI_GEN_MODEL", cfg.OpenAIGenModel)

	cfg.GenerationMaxTokens = mustEnvInt("GENERATION_MAX_TOKENS", cfg.GenerationMaxTokens)
	cfg.LLMTimeoutSeconds = mustEnvInt("LLM_TIMEOUT_SECONDS", cfg.LLMTimeoutSeconds)
	cfg.LLMRetryMaxAttempts = mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", cfg.LLMRetryMaxAttempts)
	cfg.LLMBreakerEnabled = mustEnvBool("LLM_BREAKER_ENABLED", cfg.LLMBreakerEnabled)

	cfg.ParseMode = mustEnv("PARSE_MODE", cfg.ParseMode)

	cfg.NATSURL = mustEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = mustEnv("NATS_SUBJECT", cfg.NATSSubject)

	cfg.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS)
	cfg.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst)
	cfg.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", cfg.APIMaxInFlight)
	cfg.APIBackpressureWaitMS = mustEnvInt("API_BACKPRESSURE_WAIT_MS", cfg.APIBackpressureWaitMS)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
