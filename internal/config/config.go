package config

import (
	"errors"
	"fmt"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	_ "github.com/joho/godotenv/autoload"

	"bridgeguard/internal/game"
)

var ErrMissingSecret = errors.New("SEED_SECRET is required")

// ServerConfig holds the process-level settings.
type ServerConfig struct {
	Port       int    `config:"PORT"`
	SeedSecret string `config:"SEED_SECRET"`

	DailyChallengeID          string `config:"DAILY_CHALLENGE_ID"`
	DailyChallengeDescription string `config:"DAILY_CHALLENGE_DESCRIPTION"`
	// DailyChallengeRule is metric:op:value, e.g. blocks_passed:ge:25.
	DailyChallengeRule string `config:"DAILY_CHALLENGE_RULE"`

	ValidationWorkers   int `config:"VALIDATION_WORKERS"`
	ValidationQueueSize int `config:"VALIDATION_QUEUE_SIZE"`
	ValidationTimeoutMs int `config:"VALIDATION_TIMEOUT_MS"`

	DebugTraceTTLSeconds int `config:"DEBUG_TRACE_TTL_SECONDS"`
	SeedTTLSeconds       int `config:"SEED_TTL_SECONDS"`
}

// Config is everything the API process reads from the environment. Engine
// tunables in Game share the same flat key space.
type Config struct {
	ServerConfig
	Game game.Config
}

// Defaults returns the values used for any key missing from the environment.
func Defaults() Config {
	return Config{
		ServerConfig: ServerConfig{
			Port:                 8080,
			ValidationWorkers:    game.DEFAULT_VALIDATION_WORKERS,
			ValidationQueueSize:  game.DEFAULT_VALIDATION_QUEUE_SIZE,
			ValidationTimeoutMs:  int(game.DEFAULT_VALIDATION_TIMEOUT / time.Millisecond),
			DebugTraceTTLSeconds: 3600,
			SeedTTLSeconds:       86400,
		},
		Game: game.DefaultConfig(),
	}
}

// Load reads .env and the process environment over the defaults and
// validates the result.
func Load() (Config, error) {
	cfg := Defaults()

	if err := jlconfig.FromEnv().To(&cfg.ServerConfig); err != nil {
		return Config{}, fmt.Errorf("load server config: %w", err)
	}
	if err := jlconfig.FromEnv().To(&cfg.Game); err != nil {
		return Config{}, fmt.Errorf("load game config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadGame reads only the engine tunables, for tools that never serve
// traffic and so have no secret or port.
func LoadGame() (game.Config, error) {
	cfg := game.DefaultConfig()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return game.Config{}, fmt.Errorf("load game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return game.Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SeedSecret == "" {
		return ErrMissingSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.DebugTraceTTLSeconds < 0 || c.SeedTTLSeconds < 0 {
		return errors.New("ttl settings must not be negative")
	}
	if _, err := c.Challenge(); err != nil {
		return err
	}
	return c.Game.Validate()
}

// Challenge builds today's challenge, or nil when none is configured.
func (c Config) Challenge() (*game.DailyStreakChallenge, error) {
	if c.DailyChallengeRule == "" {
		return nil, nil
	}
	predicate, err := game.ParseChallengeRule(c.DailyChallengeRule)
	if err != nil {
		return nil, fmt.Errorf("DAILY_CHALLENGE_RULE: %w", err)
	}
	id := c.DailyChallengeID
	if id == "" {
		id = c.DailyChallengeRule
	}
	return &game.DailyStreakChallenge{
		ID:          id,
		Description: c.DailyChallengeDescription,
		Predicate:   predicate,
	}, nil
}

func (c ServerConfig) ManagerOptions() game.ManagerOptions {
	return game.ManagerOptions{
		Workers:   c.ValidationWorkers,
		QueueSize: c.ValidationQueueSize,
		Timeout:   time.Duration(c.ValidationTimeoutMs) * time.Millisecond,
	}
}

func (c ServerConfig) DebugTraceTTL() time.Duration {
	return time.Duration(c.DebugTraceTTLSeconds) * time.Second
}

func (c ServerConfig) SeedTTL() time.Duration {
	return time.Duration(c.SeedTTLSeconds) * time.Second
}
