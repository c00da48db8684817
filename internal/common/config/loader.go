// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROFILE_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries the usual .env locations so binaries and tests can run
// from any directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "refcheck"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "verification-reports"
	}

	if cfg.Pipeline.DefaultTimeoutMs == 0 {
		cfg.Pipeline.DefaultTimeoutMs = 30000
	}

	if cfg.Profile.BaseURL == "" {
		cfg.Profile.BaseURL = "https://api.github.com"
	}
	if cfg.Profile.MaxReposScanned == 0 {
		cfg.Profile.MaxReposScanned = 30
	}
	if cfg.Profile.MaxReposSampled == 0 {
		cfg.Profile.MaxReposSampled = 10
	}
	if cfg.Profile.MaxCommitsPerRepo == 0 {
		cfg.Profile.MaxCommitsPerRepo = 100
	}

	if cfg.Narrative.MaxTokens == 0 {
		cfg.Narrative.MaxTokens = 500
	}
	if cfg.Narrative.Temperature == 0 {
		cfg.Narrative.Temperature = 0.7
	}

	if cfg.References.ResponseRate == 0 {
		cfg.References.ResponseRate = 0.20
	}
	if cfg.References.MinPerEmployer == 0 {
		cfg.References.MinPerEmployer = 15
	}
	if cfg.References.MaxPerEmployer == 0 {
		cfg.References.MaxPerEmployer = 25
	}

	if cfg.Notifications.AWSRegion == "" {
		cfg.Notifications.AWSRegion = "us-east-1"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.References.ResponseRate < 0 || cfg.References.ResponseRate > 1 {
		return fmt.Errorf("references.response_rate must be in [0,1], got %f", cfg.References.ResponseRate)
	}
	if cfg.References.MinPerEmployer > cfg.References.MaxPerEmployer {
		return fmt.Errorf("references.min_per_employer %d exceeds max_per_employer %d",
			cfg.References.MinPerEmployer, cfg.References.MaxPerEmployer)
	}
	if cfg.Profile.MaxReposScanned < cfg.Profile.MaxReposSampled {
		return fmt.Errorf("profile.max_repos_scanned %d is below max_repos_sampled %d",
			cfg.Profile.MaxReposScanned, cfg.Profile.MaxReposSampled)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SenderEmail == "" {
		return fmt.Errorf("notifications.sender_email is required when notifications are enabled")
	}
	return nil
}
