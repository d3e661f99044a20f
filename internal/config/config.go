package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort          int    `mapstructure:"APP_PORT"`
	DatabasePath     string `mapstructure:"DATABASE_PATH"`
	StorageBackend   string `mapstructure:"STORAGE_BACKEND"` // sqlite, redis or memory
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	AnthropicAPIKey  string `mapstructure:"ANTHROPIC_API_KEY"` // server-side default credential
	AnthropicBaseURL string `mapstructure:"ANTHROPIC_BASE_URL"`
	DefaultModel     string `mapstructure:"DEFAULT_MODEL"`
	MaxTokens        int    `mapstructure:"MAX_TOKENS"`
	RelayURL         string `mapstructure:"RELAY_URL"` // empty means the app's own /api/chat
	PersonasPath     string `mapstructure:"PERSONAS_PATH"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/berean.db")
	viper.SetDefault("STORAGE_BACKEND", "sqlite")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("ANTHROPIC_API_KEY", "")
	viper.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	viper.SetDefault("DEFAULT_MODEL", "claude-sonnet-4-5-20250514")
	viper.SetDefault("MAX_TOKENS", 4096)
	viper.SetDefault("RELAY_URL", "")
	viper.SetDefault("PERSONAS_PATH", "")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
