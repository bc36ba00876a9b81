package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{"--timezone", "UTC"})
	if err != nil {
		t.Fatalf("LoadArgs() failed: %v", err)
	}

	if cfg.DiscoverySchedule != "@every 24h" {
		t.Errorf("Expected discovery schedule '@every 24h', got '%s'", cfg.DiscoverySchedule)
	}
	if cfg.JitterMax != 60*time.Second {
		t.Errorf("Expected jitter max 60s, got %s", cfg.JitterMax)
	}
	if cfg.CancelGrace != time.Second {
		t.Errorf("Expected cancel grace 1s, got %s", cfg.CancelGrace)
	}
	if cfg.MaxBodyBytes != 4096 {
		t.Errorf("Expected max body bytes 4096, got %d", cfg.MaxBodyBytes)
	}
	if cfg.APIBaseUrl != "https://inschrijven.schaatsen.nl/api" {
		t.Errorf("Expected default API base URL, got '%s'", cfg.APIBaseUrl)
	}
	if Get() != cfg {
		t.Error("Get should return the loaded configuration")
	}
}

func TestLoadArgsOverrides(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--timezone", "UTC",
		"--db-path", "/tmp/x.db",
		"--jitter-max", "5",
		"--cancel-grace", "250",
		"--minify-html",
	})
	if err != nil {
		t.Fatalf("LoadArgs() failed: %v", err)
	}

	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("Expected db path '/tmp/x.db', got '%s'", cfg.DBPath)
	}
	if cfg.JitterMax != 5*time.Second {
		t.Errorf("Expected jitter max 5s, got %s", cfg.JitterMax)
	}
	if cfg.CancelGrace != 250*time.Millisecond {
		t.Errorf("Expected cancel grace 250ms, got %s", cfg.CancelGrace)
	}
	if !cfg.MinifyHTML {
		t.Error("Expected minify to be enabled")
	}
}

func TestLoadArgsRejectsInvalidValues(t *testing.T) {
	if _, err := LoadArgs([]string{"--timezone", "UTC", "--jitter-max", "0"}); err == nil {
		t.Error("Expected error for zero jitter window")
	}
	if _, err := LoadArgs([]string{"--timezone", "UTC", "--max-body-bytes=-1"}); err == nil {
		t.Error("Expected error for negative body limit")
	}
}
