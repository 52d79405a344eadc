package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	GinMode  string `yaml:"gin_mode" toml:"gin_mode"`
	Port     string `yaml:"port" toml:"port"`
	LogLevel string `yaml:"log_level" toml:"log_level"`

	DBDriver   string `yaml:"db_driver" toml:"db_driver"`
	DBHost     string `yaml:"db_host" toml:"db_host"`
	DBPort     string `yaml:"db_port" toml:"db_port"`
	DBUser     string `yaml:"db_user" toml:"db_user"`
	DBPassword string `yaml:"db_password" toml:"db_password"`
	DBName     string `yaml:"db_name" toml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode" toml:"db_sslmode"`
	DBPath     string `yaml:"db_path" toml:"db_path"`

	IdentityProvider string        `yaml:"identity_provider" toml:"identity_provider"`
	AuthURL          string        `yaml:"auth_url" toml:"auth_url"`
	AuthAPIKey       string        `yaml:"auth_api_key" toml:"auth_api_key"`
	GoogleClientID   string        `yaml:"google_client_id" toml:"google_client_id"`
	IdentityCacheTTL time.Duration `yaml:"-" toml:"-"`

	LabelSuggestionsEnabled bool          `yaml:"label_suggestions_enabled" toml:"label_suggestions_enabled"`
	LabelProvider           string        `yaml:"label_provider" toml:"label_provider"`
	OpenAIAPIKey            string        `yaml:"openai_api_key" toml:"openai_api_key"`
	OpenAIBaseURL           string        `yaml:"openai_base_url" toml:"openai_base_url"`
	GeminiAPIKey            string        `yaml:"gemini_api_key" toml:"gemini_api_key"`
	LabelModel              string        `yaml:"label_model" toml:"label_model"`
	LabelTemperature        float32       `yaml:"label_temperature" toml:"label_temperature"`
	LabelMaxTokens          int           `yaml:"label_max_tokens" toml:"label_max_tokens"`
	LabelTimeout            time.Duration `yaml:"-" toml:"-"`
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	IdentityRemote = "remote"
	IdentityGoogle = "google"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults returns the configuration used when nothing is overridden
func Defaults() *Config {
	return &Config{
		GinMode:  "debug",
		Port:     "8080",
		LogLevel: "info",

		DBDriver:   DriverMySQL,
		DBHost:     "localhost",
		DBPort:     "3306",
		DBUser:     "taskuser",
		DBPassword: "taskpassword",
		DBName:     "task_management",
		DBSSLMode:  "disable",
		DBPath:     "tasks.db",

		IdentityProvider: IdentityRemote,
		AuthURL:          "http://localhost:54321/auth/v1",
		IdentityCacheTTL: 30 * time.Second,

		LabelSuggestionsEnabled: true,
		LabelProvider:           ProviderOpenAI,
		LabelTemperature:        0.2,
		LabelMaxTokens:          5,
		LabelTimeout:            10 * time.Second,
	}
}

// Load builds the configuration from defaults, then the optional file at
// path (.yaml, .yml or .toml), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors Config with durations as strings ("10s", "1m")
type fileConfig struct {
	Config           `yaml:",inline"`
	IdentityCacheTTL string `yaml:"identity_cache_ttl" toml:"identity_cache_ttl"`
	LabelTimeout     string `yaml:"label_timeout" toml:"label_timeout"`
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	fc := fileConfig{Config: *cfg}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	*cfg = fc.Config

	if fc.IdentityCacheTTL != "" {
		if cfg.IdentityCacheTTL, err = time.ParseDuration(fc.IdentityCacheTTL); err != nil {
			return fmt.Errorf("invalid identity_cache_ttl: %w", err)
		}
	}
	if fc.LabelTimeout != "" {
		if cfg.LabelTimeout, err = time.ParseDuration(fc.LabelTimeout); err != nil {
			return fmt.Errorf("invalid label_timeout: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)

	cfg.IdentityProvider = getEnv("IDENTITY_PROVIDER", cfg.IdentityProvider)
	cfg.AuthURL = getEnv("AUTH_URL", cfg.AuthURL)
	cfg.AuthAPIKey = getEnv("AUTH_API_KEY", cfg.AuthAPIKey)
	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", cfg.GoogleClientID)

	cfg.LabelProvider = getEnv("LABEL_PROVIDER", cfg.LabelProvider)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.LabelModel = getEnv("LABEL_MODEL", cfg.LabelModel)

	var err error
	if cfg.IdentityCacheTTL, err = getEnvDuration("IDENTITY_CACHE_TTL", cfg.IdentityCacheTTL); err != nil {
		return err
	}
	if cfg.LabelSuggestionsEnabled, err = getEnvBool("LABEL_SUGGESTIONS_ENABLED", cfg.LabelSuggestionsEnabled); err != nil {
		return err
	}
	if cfg.LabelTemperature, err = getEnvFloat32("LABEL_TEMPERATURE", cfg.LabelTemperature); err != nil {
		return err
	}
	if cfg.LabelMaxTokens, err = getEnvInt("LABEL_MAX_TOKENS", cfg.LabelMaxTokens); err != nil {
		return err
	}
	if cfg.LabelTimeout, err = getEnvDuration("LABEL_TIMEOUT", cfg.LabelTimeout); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}

	switch c.IdentityProvider {
	case IdentityRemote:
		if c.AuthURL == "" {
			return fmt.Errorf("auth url is required for the remote identity provider")
		}
	case IdentityGoogle:
		if c.GoogleClientID == "" {
			return fmt.Errorf("google client id is required for the google identity provider")
		}
	default:
		return fmt.Errorf("unsupported identity provider %q", c.IdentityProvider)
	}

	switch c.LabelProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported label provider %q", c.LabelProvider)
	}

	if c.LabelMaxTokens <= 0 {
		return fmt.Errorf("label max tokens must be positive")
	}
	if c.LabelTemperature < 0 || c.LabelTemperature > 2 {
		return fmt.Errorf("label temperature must be between 0 and 2")
	}
	return nil
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat32(key string, defaultValue float32) (float32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return float32(f), nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
