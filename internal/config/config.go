package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/moorebrett0/gremlin/internal/catalog"
	"github.com/moorebrett0/gremlin/internal/clock"
	"github.com/moorebrett0/gremlin/internal/pet"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "GREMLIN_"

type Config struct {
	Log         LogConfig         `yaml:"log" envPrefix:"LOG_"`
	Store       StoreConfig       `yaml:"store" envPrefix:"STORE_"`
	Time        TimeConfig        `yaml:"time" envPrefix:"TIME_"`
	Balance     pet.Balance       `yaml:"balance" envPrefix:"BALANCE_"`
	Probability ProbabilityConfig `yaml:"probability" envPrefix:"PROBABILITY_"`
	Catalog     catalog.Catalog   `yaml:"catalog"`
	Metrics     MetricsConfig     `yaml:"metrics" envPrefix:"METRICS_"`

	// Cooldowns maps a command (adopt, feed, play, sleep, revert) to the
	// minimum time between two uses by the same owner. Off unless set.
	Cooldowns map[string]time.Duration `yaml:"cooldowns"`

	// Seed fixes the random source; 0 seeds from the clock.
	Seed uint64 `yaml:"seed" env:"SEED"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // text or json
}

type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"` // "file" or "bolt"
	Path    string `yaml:"path" env:"PATH"`
}

type TimeConfig struct {
	Timezone               string           `yaml:"timezone" env:"TIMEZONE"`
	UpdateInterval         time.Duration    `yaml:"update_interval" env:"UPDATE_INTERVAL"`
	TransformationDuration time.Duration    `yaml:"transformation_duration" env:"TRANSFORMATION_DURATION"`
	RiskWindow             clock.RiskWindow `yaml:"risk_window" envPrefix:"RISK_WINDOW_"`

	// Location is resolved from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
}

type ProbabilityConfig struct {
	RevertSuccessChance       float64 `yaml:"revert_success_chance" env:"REVERT_SUCCESS_CHANCE"`
	PrankChance               float64 `yaml:"prank_chance" env:"PRANK_CHANCE"`
	TransformationPrankChance float64 `yaml:"transformation_prank_chance" env:"TRANSFORMATION_PRANK_CHANCE"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9090".
	Addr string `yaml:"addr" env:"ADDR"`
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load .env file first (from the working dir)
	loadDotEnv(".env")

	// Load YAML config if it exists
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// File doesn't exist, use defaults + env vars
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Env vars override the config file
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv reads a .env file and sets env vars that aren't already set.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // no .env, that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		// Strip surrounding quotes
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') ||
				(val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		// Only set if not already in environment
		if os.Getenv(key) == "" && val != "" {
			os.Setenv(key, val)
		}
	}
}

func defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "gremlins.json",
		},
		Time: TimeConfig{
			Timezone:               "US/Central",
			UpdateInterval:         30 * time.Minute,
			TransformationDuration: 24 * time.Hour,
			RiskWindow:             clock.RiskWindow{StartHour: 0, EndHour: 6},
		},
		Balance: pet.Balance{
			FeedHungerDecrease:    20,
			FeedHappinessIncrease: 10,
			PlayHappinessIncrease: 15,
			PlayEnergyDecrease:    10,
			SleepEnergyIncrease:   30,
			SleepHungerIncrease:   10,
			HungerIncreaseRate:    5,
			HappinessDecreaseRate: 3,
			EnergyDecreaseRate:    2,
		},
		Probability: ProbabilityConfig{
			RevertSuccessChance:       0.5,
			PrankChance:               0.1,
			TransformationPrankChance: 0.3,
		},
		Catalog: catalog.Catalog{
			Normal:      []string{"images/gremlin_normal_1.png", "images/gremlin_normal_2.png", "images/gremlin_normal_3.png"},
			Transformed: []string{"images/gremlin_transformed_1.png", "images/gremlin_transformed_2.png", "images/gremlin_transformed_3.png"},
			Backgrounds: []string{"images/room_1.png", "images/room_2.png"},
		},
		Cooldowns: map[string]time.Duration{},
	}
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn or error", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format %q must be text or json", cfg.Log.Format)
	}

	if cfg.Store.Backend != "file" && cfg.Store.Backend != "bolt" {
		return fmt.Errorf("store.backend %q must be file or bolt", cfg.Store.Backend)
	}
	if cfg.Store.Path == "" {
		return errors.New("store.path is required")
	}

	if cfg.Time.Timezone == "" {
		cfg.Time.Timezone = "US/Central"
	}
	loc, err := clock.LoadLocation(cfg.Time.Timezone)
	if err != nil {
		return fmt.Errorf("time.timezone: %w", err)
	}
	cfg.Time.Location = loc
	if cfg.Time.UpdateInterval <= 0 {
		return fmt.Errorf("time.update_interval must be positive, got %s", cfg.Time.UpdateInterval)
	}
	if cfg.Time.TransformationDuration <= 0 {
		return fmt.Errorf("time.transformation_duration must be positive, got %s", cfg.Time.TransformationDuration)
	}
	if err := cfg.Time.RiskWindow.Validate(); err != nil {
		return fmt.Errorf("time.risk_window: %w", err)
	}

	b := cfg.Balance
	for name, v := range map[string]int{
		"feed_hunger_decrease":    b.FeedHungerDecrease,
		"feed_happiness_increase": b.FeedHappinessIncrease,
		"play_happiness_increase": b.PlayHappinessIncrease,
		"play_energy_decrease":    b.PlayEnergyDecrease,
		"sleep_energy_increase":   b.SleepEnergyIncrease,
		"sleep_hunger_increase":   b.SleepHungerIncrease,
		"hunger_increase_rate":    b.HungerIncreaseRate,
		"happiness_decrease_rate": b.HappinessDecreaseRate,
		"energy_decrease_rate":    b.EnergyDecreaseRate,
	} {
		if v < 0 {
			return fmt.Errorf("balance.%s must not be negative, got %d", name, v)
		}
	}

	p := cfg.Probability
	for name, v := range map[string]float64{
		"revert_success_chance":       p.RevertSuccessChance,
		"prank_chance":                p.PrankChance,
		"transformation_prank_chance": p.TransformationPrankChance,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("probability.%s must be within [0, 1], got %g", name, v)
		}
	}

	if err := cfg.Catalog.Validate(); err != nil {
		return err
	}

	for cmd, d := range cfg.Cooldowns {
		switch cmd {
		case "adopt", "feed", "play", "sleep", "revert":
		default:
			return fmt.Errorf("cooldowns.%s: unknown command, expected adopt, feed, play, sleep or revert", cmd)
		}
		if d < 0 {
			return fmt.Errorf("cooldowns.%s must not be negative, got %s", cmd, d)
		}
	}
	return nil
}
