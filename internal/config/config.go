package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const defaultInferenceURL = "https://api-inference.huggingface.co/models/meta-llama/Llama-2-7b-chat-hf"

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port             string
	StorageDriver    string
	DatabaseURL      string
	JWTSecret        string
	JWTIssuer        string
	JWTTTL           time.Duration
	CORSOrigins      []string
	LogLevel         string
	LogDevelopment   bool
	InferenceURL     string
	InferenceAPIKey  string
	InferenceTimeout time.Duration
}

// fileConfig is the optional YAML file named by CONFIG_FILE. Environment
// variables take precedence over anything set here.
type fileConfig struct {
	Port          string   `yaml:"port"`
	StorageDriver string   `yaml:"storage_driver"`
	DatabaseURL   string   `yaml:"database_url"`
	JWTIssuer     string   `yaml:"jwt_issuer"`
	JWTTTLMinutes int      `yaml:"jwt_ttl_minutes"`
	CORSOrigins   []string `yaml:"cors_allowed_origins"`
	Log           struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Inference struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"inference"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	cfg := Config{
		Port:            fallback(os.Getenv("PORT"), fallback(file.Port, "8080")),
		StorageDriver:   strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), fallback(file.StorageDriver, DriverPostgres))),
		DatabaseURL:     fallback(os.Getenv("DATABASE_URL"), file.DatabaseURL),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:       fallback(os.Getenv("JWT_ISSUER"), fallback(file.JWTIssuer, "fintrack-backend")),
		CORSOrigins:     parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), strings.Join(file.CORSOrigins, ","))),
		LogLevel:        strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), fallback(file.Log.Level, "info"))),
		LogDevelopment:  parseBool(os.Getenv("LOG_DEVELOPMENT"), file.Log.Development),
		InferenceURL:    fallback(os.Getenv("INFERENCE_URL"), fallback(file.Inference.URL, defaultInferenceURL)),
		InferenceAPIKey: strings.TrimSpace(os.Getenv("INFERENCE_API_KEY")),
	}

	cfg.JWTTTL = positiveOr(os.Getenv("JWT_TTL_MINUTES"), file.JWTTTLMinutes, 60) * time.Minute
	cfg.InferenceTimeout = positiveOr(os.Getenv("INFERENCE_TIMEOUT_SECONDS"), file.Inference.TimeoutSeconds, 30) * time.Second

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

// positiveOr picks the first positive integer from env, the file value, then def.
func positiveOr(env string, file, def int) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(env)); err == nil && n > 0 {
		return time.Duration(n)
	}
	if file > 0 {
		return time.Duration(file)
	}
	return time.Duration(def)
}

func parseBool(env string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
		return b
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
