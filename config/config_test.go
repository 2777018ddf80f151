package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("NUTRICURATOR_SERVER_PORT")
		os.Unsetenv("NUTRICURATOR_SERVER_ENVIRONMENT")
		os.Unsetenv("NUTRICURATOR_MATCHING_TOP_K")
		os.Unsetenv("NUTRICURATOR_MATCHING_MIN_SCORE")
		os.Unsetenv("NUTRICURATOR_ORACLE_PROVIDER")
		os.Unsetenv("NUTRICURATOR_ORACLE_API_KEY")
		os.Unsetenv("NUTRICURATOR_ORACLE_BASE_URL")
		os.Unsetenv("NUTRICURATOR_ORACLE_BATCH_SIZE")
		os.Unsetenv("NUTRICURATOR_ORACLE_CALL_TIMEOUT")
		os.Unsetenv("NUTRICURATOR_CACHE_TYPE")
		os.Unsetenv("NUTRICURATOR_CACHE_REDIS_URL")
		os.Unsetenv("NUTRICURATOR_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Matching.TopK != 5 {
			t.Errorf("Matching.TopK = %d, want 5", cfg.Matching.TopK)
		}
		if cfg.Matching.MinScore != 0.15 {
			t.Errorf("Matching.MinScore = %v, want 0.15", cfg.Matching.MinScore)
		}
		if cfg.Oracle.Provider != "none" {
			t.Errorf("Oracle.Provider = %s, want none", cfg.Oracle.Provider)
		}
		if cfg.Oracle.BatchSize != 20 {
			t.Errorf("Oracle.BatchSize = %d, want 20", cfg.Oracle.BatchSize)
		}
		if cfg.Oracle.MaxAttempts != 3 {
			t.Errorf("Oracle.MaxAttempts = %d, want 3", cfg.Oracle.MaxAttempts)
		}
		if cfg.Oracle.BackoffBase != time.Second {
			t.Errorf("Oracle.BackoffBase = %v, want 1s", cfg.Oracle.BackoffBase)
		}
		if cfg.Oracle.MinInterval != 300*time.Millisecond {
			t.Errorf("Oracle.MinInterval = %v, want 300ms", cfg.Oracle.MinInterval)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 720*time.Hour {
			t.Errorf("Cache.TTL = %v, want 720h", cfg.Cache.TTL)
		}
		if cfg.Catalog.NameColumn != "식품명" {
			t.Errorf("Catalog.NameColumn = %s, want 식품명", cfg.Catalog.NameColumn)
		}
		if cfg.Queries.SkipRows != 1 {
			t.Errorf("Queries.SkipRows = %d, want 1", cfg.Queries.SkipRows)
		}
		if cfg.Catalog.Encoding != "utf-8" {
			t.Errorf("Catalog.Encoding = %s, want utf-8", cfg.Catalog.Encoding)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRICURATOR_SERVER_PORT", "9090")
		os.Setenv("NUTRICURATOR_SERVER_ENVIRONMENT", "production")
		os.Setenv("NUTRICURATOR_MATCHING_TOP_K", "8")
		os.Setenv("NUTRICURATOR_MATCHING_MIN_SCORE", "0.3")
		os.Setenv("NUTRICURATOR_ORACLE_PROVIDER", "openai")
		os.Setenv("NUTRICURATOR_ORACLE_API_KEY", "custom-api-key")
		os.Setenv("NUTRICURATOR_ORACLE_BATCH_SIZE", "10")
		os.Setenv("NUTRICURATOR_ORACLE_CALL_TIMEOUT", "15s")
		os.Setenv("NUTRICURATOR_CACHE_TYPE", "redis")
		os.Setenv("NUTRICURATOR_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("NUTRICURATOR_CACHE_TTL", "24h")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Matching.TopK != 8 {
			t.Errorf("Matching.TopK = %d, want 8", cfg.Matching.TopK)
		}
		if cfg.Matching.MinScore != 0.3 {
			t.Errorf("Matching.MinScore = %v, want 0.3", cfg.Matching.MinScore)
		}
		if cfg.Oracle.APIKey != "custom-api-key" {
			t.Errorf("Oracle.APIKey = %s, want custom-api-key", cfg.Oracle.APIKey)
		}
		if cfg.Oracle.BatchSize != 10 {
			t.Errorf("Oracle.BatchSize = %d, want 10", cfg.Oracle.BatchSize)
		}
		if cfg.Oracle.CallTimeout != 15*time.Second {
			t.Errorf("Oracle.CallTimeout = %v, want 15s", cfg.Oracle.CallTimeout)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
	})

	t.Run("fails validation when API key is missing for openai", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRICURATOR_ORACLE_PROVIDER", "openai")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing API key")
		}
		if !strings.Contains(err.Error(), "oracle API key is required") {
			t.Errorf("Load() error = %v, want 'oracle API key is required'", err)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRICURATOR_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRICURATOR_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
matching:
  top_k: 3
  min_score: 0.2
catalog:
  path: db.csv
  aliases:
    열량(kcal): energy_kcal
oracle:
  provider: http
  base_url: http://localhost:9000/decide
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Matching.TopK != 3 {
			t.Errorf("Matching.TopK = %d, want 3", cfg.Matching.TopK)
		}
		if cfg.Catalog.Path != "db.csv" {
			t.Errorf("Catalog.Path = %s, want db.csv", cfg.Catalog.Path)
		}
		if cfg.Catalog.Aliases["열량(kcal)"] != "energy_kcal" {
			t.Errorf("Catalog.Aliases = %v, want 열량(kcal) alias", cfg.Catalog.Aliases)
		}
		if cfg.Oracle.Provider != "http" {
			t.Errorf("Oracle.Provider = %s, want http", cfg.Oracle.Provider)
		}
	})

	t.Run("fails when explicit file is missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil {
			t.Error("LoadFile() error = nil, want error for missing file")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		defer os.Unsetenv("TEST_VAR_1")
		defer os.Unsetenv("TEST_VAR_2")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080", Environment: "test"},
			Catalog:  SourceConfig{NameColumn: "식품명", Encoding: "utf-8"},
			Queries:  SourceConfig{NameColumn: "제품명", Encoding: "cp949"},
			Matching: MatchingConfig{TopK: 5, MinScore: 0.15, Workers: 1},
			Oracle: OracleConfig{
				Provider:    "none",
				MaxTokens:   1024,
				BatchSize:   20,
				MaxAttempts: 3,
				CallTimeout: time.Second,
				Concurrency: 1,
			},
			Cache: CacheConfig{Type: "memory"},
			Log:   LogConfig{Format: "console"},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for zero top k", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.TopK = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for top_k 0")
		}
	})

	t.Run("fails for min score above one", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.MinScore = 1.5
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for min_score 1.5")
		}
	})

	t.Run("fails for unknown provider", func(t *testing.T) {
		cfg := valid()
		cfg.Oracle.Provider = "anthropic-direct"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for unknown provider")
		}
	})

	t.Run("fails for http provider without URL", func(t *testing.T) {
		cfg := valid()
		cfg.Oracle.Provider = "http"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for http without URL")
		}
	})

	t.Run("validates redis cache type with URL", func(t *testing.T) {
		cfg := valid()
		cfg.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"}
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for valid redis config", err)
		}
	})

	t.Run("fails for audit without db path", func(t *testing.T) {
		cfg := valid()
		cfg.Audit = AuditConfig{Enabled: true}
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for audit without path")
		}
	})

	t.Run("Validate catches an override applied after loading", func(t *testing.T) {
		cfg := valid()
		cfg.Oracle.Provider = "openai"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for openai without API key")
		}
		cfg.Oracle.APIKey = "sk-test"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})
}
