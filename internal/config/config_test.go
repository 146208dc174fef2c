package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("expected defaults to load, got error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address: %q", cfg.HTTPAddress)
	}
	if cfg.UpstreamBaseURL != "https://www.showroom-live.com" {
		t.Fatalf("unexpected upstream base url: %q", cfg.UpstreamBaseURL)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "blank http address", key: "http.address", value: "  "},
		{name: "blank upstream base url", key: "upstream.base_url", value: ""},
		{name: "zero poll interval", key: "poll.interval_seconds", value: 0},
		{name: "negative poll interval", key: "poll.interval_seconds", value: -3},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(testCase.key, testCase.value)
			if _, err := Load(configViper); err == nil {
				t.Fatalf("expected validation error for %s", testCase.name)
			}
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SHOWROOM_POLL_INTERVAL_SECONDS", "10")
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("expected env override to 10s, got %s", cfg.PollInterval)
	}
}
