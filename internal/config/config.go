package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                  = "SHOWROOM"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultUpstreamBaseURL     = "https://www.showroom-live.com"
	defaultPollIntervalSeconds = 3
	defaultLogLevel            = "info"
)

// AppConfig captures runtime configuration for the relay server.
type AppConfig struct {
	HTTPAddress     string
	UpstreamBaseURL string
	PollInterval    time.Duration
	LogLevel        string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("upstream.base_url", defaultUpstreamBaseURL)
	configViper.SetDefault("poll.interval_seconds", defaultPollIntervalSeconds)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		UpstreamBaseURL: configViper.GetString("upstream.base_url"),
		PollInterval:    time.Duration(configViper.GetInt("poll.interval_seconds")) * time.Second,
		LogLevel:        configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.UpstreamBaseURL) == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll.interval_seconds must be positive")
	}
	return nil
}
