// Package config loads application configuration and initializes logging.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Network   NetworkConfig   `yaml:"network" mapstructure:"network"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Sponsor   SponsorConfig   `yaml:"sponsor" mapstructure:"sponsor"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// NetworkConfig holds professional-network OAuth settings and the allow list
// of verified team profiles. The allow list is external configuration, not an
// embedded literal, so the team roster can change without a redeploy.
type NetworkConfig struct {
	ClientID        string   `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret    string   `yaml:"client_secret" mapstructure:"client_secret"`
	TokenURL        string   `yaml:"token_url" mapstructure:"token_url"`
	ProfileURL      string   `yaml:"profile_url" mapstructure:"profile_url"`
	AllowedProfiles []string `yaml:"allowed_profiles" mapstructure:"allowed_profiles"`
}

// NotionConfig holds Notion export settings.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	PipelineDB string `yaml:"pipeline_db" mapstructure:"pipeline_db"`
}

// SponsorConfig configures historical-sponsor tagging.
type SponsorConfig struct {
	RosterPath string `yaml:"roster_path" mapstructure:"roster_path"`
}

// BatchConfig configures batch admin operations.
type BatchConfig struct {
	// WriteDelay is the pause between consecutive per-company writes or
	// upstream API calls inside a batch, to respect third-party rate limits.
	WriteDelay time.Duration `yaml:"write_delay" mapstructure:"write_delay"`
}

// AuthConfig lists API tokens accepted by the server.
type AuthConfig struct {
	Tokens []TokenConfig `yaml:"tokens" mapstructure:"tokens"`
}

// TokenConfig is one bearer token and the identity it authenticates.
type TokenConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
	User  string `yaml:"user" mapstructure:"user"`
	Role  string `yaml:"role" mapstructure:"role"`
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SPONSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sponsor-pipeline.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("network.token_url", "https://www.linkedin.com/oauth/v2/accessToken")
	v.SetDefault("network.profile_url", "https://api.linkedin.com/v2/userinfo")
	v.SetDefault("sponsor.roster_path", "roster.yaml")
	v.SetDefault("batch.write_delay", 500*time.Millisecond)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// LookupToken returns the identity for a bearer token, if configured.
func (c *Config) LookupToken(token string) (TokenConfig, bool) {
	if token == "" {
		return TokenConfig{}, false
	}
	for _, t := range c.Auth.Tokens {
		if t.Token == token {
			return t, true
		}
	}
	return TokenConfig{}, false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
