// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct. It is built once at
// startup and passed into constructors; nothing mutates it afterwards.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Profile       ProfileConfig       `mapstructure:"profile"`
	Narrative     NarrativeConfig     `mapstructure:"narrative"`
	References    ReferencesConfig    `mapstructure:"references"`
	Fraud         FraudConfig         `mapstructure:"fraud"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Search        SearchConfig        `mapstructure:"search"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// --- Pipeline Configuration ---

// PipelineConfig carries per-stage timeouts in milliseconds. Every external
// call inside a stage is bounded by its stage timeout.
type PipelineConfig struct {
	StageTimeoutMs   map[string]int `mapstructure:"stage_timeouts"`
	DefaultTimeoutMs int            `mapstructure:"default_timeout"`
}

// StageTimeout returns the bounded timeout for a stage, falling back to the
// pipeline default and finally to 30s.
func (p PipelineConfig) StageTimeout(stage string) time.Duration {
	if ms, ok := p.StageTimeoutMs[stage]; ok && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if p.DefaultTimeoutMs > 0 {
		return time.Duration(p.DefaultTimeoutMs) * time.Millisecond
	}
	return 30 * time.Second
}

// ProfileConfig bounds the developer-profile analysis. The repo and commit
// caps keep latency predictable: commit counting is sampled, not exhaustive.
type ProfileConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	Token             string `mapstructure:"token"` // optional bearer credential, raises rate limits
	MaxReposScanned   int    `mapstructure:"max_repos_scanned"`
	MaxReposSampled   int    `mapstructure:"max_repos_sampled"`
	MaxCommitsPerRepo int    `mapstructure:"max_commits_per_repo"`
	TimeoutMs         int    `mapstructure:"timeout"`
	CacheTTLMs        int    `mapstructure:"cache_ttl"`
}

func (p ProfileConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

func (p ProfileConfig) CacheTTL() time.Duration {
	if p.CacheTTLMs <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(p.CacheTTLMs) * time.Millisecond
}

type NarrativeConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	TimeoutMs   int     `mapstructure:"timeout"`
	MaxRetries  int     `mapstructure:"max_retries"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

func (n NarrativeConfig) Timeout() time.Duration {
	if n.TimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(n.TimeoutMs) * time.Millisecond
}

type ReferencesConfig struct {
	ResponseRate   float64 `mapstructure:"response_rate"`
	MinPerEmployer int     `mapstructure:"min_per_employer"`
	MaxPerEmployer int     `mapstructure:"max_per_employer"`
}

// FraudConfig holds rule-engine toggles. StrictMode tightens the
// employment-gap threshold from 6 months to 3.
type FraudConfig struct {
	StrictMode bool `mapstructure:"strict_mode"`
}

type NotificationConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AWSRegion     string `mapstructure:"aws_region"`
	SenderEmail   string `mapstructure:"sender_email"`
	SMSEnabled    bool   `mapstructure:"sms_enabled"`
	AlertTopicARN string `mapstructure:"alert_topic_arn"` // red-risk SMS fanout
}

type SearchConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ObservabilityConfig points tracing at a Jaeger collector. An empty
// endpoint disables span export without disabling span creation.
type ObservabilityConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
