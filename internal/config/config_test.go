package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moorebrett0/gremlin/internal/clock"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("missing.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Time.Timezone != "US/Central" || cfg.Time.Location == nil {
		t.Fatalf("expected US/Central resolved, got %q (%v)", cfg.Time.Timezone, cfg.Time.Location)
	}
	if cfg.Time.RiskWindow != (clock.RiskWindow{StartHour: 0, EndHour: 6}) {
		t.Fatalf("expected midnight to 6am window, got %v", cfg.Time.RiskWindow)
	}
	if cfg.Time.TransformationDuration != 24*time.Hour {
		t.Fatalf("expected 24h transformation, got %s", cfg.Time.TransformationDuration)
	}
	if cfg.Store.Backend != "file" {
		t.Fatalf("expected file backend, got %q", cfg.Store.Backend)
	}
	for cmd, d := range cfg.Cooldowns {
		if d != 0 {
			t.Fatalf("expected cooldowns off by default, got %s=%s", cmd, d)
		}
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "gremlin.yaml", `
store:
  backend: bolt
  path: pets.db
time:
  timezone: Europe/Berlin
  update_interval: 10m
  risk_window:
    start_hour: 22
    end_hour: 4
probability:
  prank_chance: 0.25
cooldowns:
  feed: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "bolt" || cfg.Store.Path != "pets.db" {
		t.Fatalf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Time.Location.String() != "Europe/Berlin" {
		t.Fatalf("expected Europe/Berlin, got %s", cfg.Time.Location)
	}
	if cfg.Time.UpdateInterval != 10*time.Minute {
		t.Fatalf("expected 10m interval, got %s", cfg.Time.UpdateInterval)
	}
	if cfg.Time.RiskWindow.StartHour != 22 || cfg.Time.RiskWindow.EndHour != 4 {
		t.Fatalf("unexpected risk window %v", cfg.Time.RiskWindow)
	}
	if cfg.Probability.PrankChance != 0.25 {
		t.Fatalf("expected prank chance 0.25, got %g", cfg.Probability.PrankChance)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Probability.RevertSuccessChance != 0.5 {
		t.Fatalf("expected default revert chance, got %g", cfg.Probability.RevertSuccessChance)
	}
	if cfg.Cooldowns["feed"] != 2*time.Second {
		t.Fatalf("expected feed cooldown 2s, got %s", cfg.Cooldowns["feed"])
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "gremlin.yaml", "time:\n  timezone: Europe/Berlin\n")
	t.Setenv("GREMLIN_TIME_TIMEZONE", "Asia/Tokyo")
	t.Setenv("GREMLIN_BALANCE_FEED_HUNGER_DECREASE", "7")
	t.Setenv("GREMLIN_TIME_RISK_WINDOW_END_HOUR", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Time.Timezone != "Asia/Tokyo" {
		t.Fatalf("expected env timezone, got %q", cfg.Time.Timezone)
	}
	if cfg.Balance.FeedHungerDecrease != 7 {
		t.Fatalf("expected feed decrease 7, got %d", cfg.Balance.FeedHungerDecrease)
	}
	if cfg.Time.RiskWindow.EndHour != 5 {
		t.Fatalf("expected end hour 5, got %d", cfg.Time.RiskWindow.EndHour)
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "GREMLIN_LOG_LEVEL=debug\nGREMLIN_LOG_FORMAT='json'\n# comment\n")
	t.Setenv("GREMLIN_LOG_LEVEL", "warn")
	t.Setenv("GREMLIN_LOG_FORMAT", "")

	cfg, err := Load("missing.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected environment to win, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected .env value for unset variable, got %q", cfg.Log.Format)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"probability above one", func(c *Config) { c.Probability.PrankChance = 1.5 }, "prank_chance"},
		{"negative probability", func(c *Config) { c.Probability.RevertSuccessChance = -0.1 }, "revert_success_chance"},
		{"unknown timezone", func(c *Config) { c.Time.Timezone = "Mars/Olympus" }, "timezone"},
		{"zero interval", func(c *Config) { c.Time.UpdateInterval = 0 }, "update_interval"},
		{"zero transformation", func(c *Config) { c.Time.TransformationDuration = 0 }, "transformation_duration"},
		{"bad risk hour", func(c *Config) { c.Time.RiskWindow.EndHour = 25 }, "risk_window"},
		{"negative balance", func(c *Config) { c.Balance.PlayEnergyDecrease = -1 }, "play_energy_decrease"},
		{"catalog mismatch", func(c *Config) { c.Catalog.Transformed = c.Catalog.Transformed[:1] }, "parallel"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"missing path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"negative cooldown", func(c *Config) { c.Cooldowns["feed"] = -time.Second }, "cooldowns.feed"},
		{"status cooldown", func(c *Config) { c.Cooldowns["status"] = time.Second }, "cooldowns.status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultsAreValid(t *testing.T) {
	if err := validate(defaults()); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
