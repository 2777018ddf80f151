package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  SourceConfig   `mapstructure:"catalog"`
	Queries  SourceConfig   `mapstructure:"queries"`
	Output   OutputConfig   `mapstructure:"output"`
	Matching MatchingConfig `mapstructure:"matching"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required"`
	Environment    string   `mapstructure:"environment" validate:"oneof=development test production"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SourceConfig describes a tabular input file
type SourceConfig struct {
	Path       string            `mapstructure:"path"`
	NameColumn string            `mapstructure:"name_column" validate:"required"`
	SkipRows   int               `mapstructure:"skip_rows" validate:"gte=0"`
	Encoding   string            `mapstructure:"encoding" validate:"oneof=utf-8 cp949"`
	Aliases    map[string]string `mapstructure:"aliases"` // source label -> canonical attribute
}

// OutputConfig holds output sink paths
type OutputConfig struct {
	Path    string `mapstructure:"path"`
	LogPath string `mapstructure:"log_path"`
}

// MatchingConfig holds retrieval and gating parameters
type MatchingConfig struct {
	TopK     int     `mapstructure:"top_k" validate:"gte=1"`
	MinScore float64 `mapstructure:"min_score" validate:"gte=0,lte=1"`
	Workers  int     `mapstructure:"workers" validate:"gte=1"`
}

// OracleConfig holds adjudication oracle configuration
type OracleConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=none openai http"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=1"`
	BatchSize   int           `mapstructure:"batch_size" validate:"gte=1"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1"`
	BackoffBase time.Duration `mapstructure:"backoff_base" validate:"gte=0"`
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
	MinInterval time.Duration `mapstructure:"min_interval" validate:"gte=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
}

// CacheConfig holds decision cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type" validate:"oneof=none memory redis"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AuditConfig holds the run audit store configuration
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the default search paths when path is empty
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutricurator/")
	}

	v.SetEnvPrefix("NUTRICURATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional when searching default paths
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present; existing variables win
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.name_column", "식품명")
	v.SetDefault("catalog.skip_rows", 0)
	v.SetDefault("catalog.encoding", "utf-8")
	v.SetDefault("queries.path", "")
	v.SetDefault("queries.name_column", "제품명")
	v.SetDefault("queries.skip_rows", 1) // raw-materials export repeats its header
	v.SetDefault("queries.encoding", "utf-8")
	v.SetDefault("output.path", "식품원재료_영양성분추가.csv")
	v.SetDefault("output.log_path", "matching_log.csv")

	v.SetDefault("matching.top_k", 5)
	v.SetDefault("matching.min_score", 0.15)
	v.SetDefault("matching.workers", 4)

	v.SetDefault("oracle.provider", "none")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.model", "gpt-4.1")
	v.SetDefault("oracle.max_tokens", 2048)
	v.SetDefault("oracle.batch_size", 20)
	v.SetDefault("oracle.max_attempts", 3)
	v.SetDefault("oracle.backoff_base", "1s")
	v.SetDefault("oracle.call_timeout", "60s")
	v.SetDefault("oracle.min_interval", "300ms")
	v.SetDefault("oracle.concurrency", 1)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "720h") // 30 days

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.db_path", "matching_audit.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration again, e.g. after command-line overrides
func (c *Config) Validate() error {
	return validate(c)
}

// validate validates the configuration
func validate(config *Config) error {
	if err := structValidator.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	switch config.Oracle.Provider {
	case "openai":
		if config.Oracle.APIKey == "" {
			return fmt.Errorf("oracle API key is required for provider openai (set NUTRICURATOR_ORACLE_API_KEY)")
		}
	case "http":
		if config.Oracle.BaseURL == "" {
			return fmt.Errorf("oracle base URL is required for provider http (set NUTRICURATOR_ORACLE_BASE_URL)")
		}
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Audit.Enabled && config.Audit.DBPath == "" {
		return fmt.Errorf("audit DB path is required when audit is enabled")
	}

	return nil
}
