// Package config loads engine tuning from defaults, an optional YAML
// file, and environment variables, using viper the way niceyeti-tabular
// wires it: defaults first, file/env layered on top.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"racetrack-engine/internal/physics"
)

// Config holds every tunable the engine, bot manager, sandbox, lobby
// manager, and transport layer read at startup.
type Config struct {
	TickRate      int     // physics ticks per second
	BotTickRate   int     // bot on_tick cadence; must divide TickRate evenly
	BroadcastRate int     // snapshot broadcasts per second
	VisibilityRadius float64 // fog-of-war radius for bot opponent sensing
	RaycastMaxRange  float64

	DefaultGracePeriodSeconds float64
	DefaultMaxPlayers         int
	DefaultCountdownSeconds   float64

	PingIntervalSeconds float64
	PongTimeoutSeconds  float64

	OffTrackSampleCount int

	SandboxMaxCodeBytes int
	SandboxTimeoutMS    int
	SandboxMemoryMB     int

	Points []int

	Physics physics.Params
}

// Default returns the engine's stock configuration, equal to the
// teacher's hardcoded const block translated into a struct.
func Default() *Config {
	return &Config{
		TickRate:                  60,
		BotTickRate:               20, // K = 3
		BroadcastRate:             60,
		VisibilityRadius:          400.0,
		RaycastMaxRange:           500.0,
		DefaultGracePeriodSeconds: 30.0,
		DefaultMaxPlayers:         8,
		DefaultCountdownSeconds:   3.0,
		PingIntervalSeconds:       10.0,
		PongTimeoutSeconds:        15.0,
		OffTrackSampleCount:       20,
		SandboxMaxCodeBytes:       64 * 1024,
		SandboxTimeoutMS:          50,
		SandboxMemoryMB:           32,
		Points:                    []int{25, 18, 15, 12, 10, 8, 6, 4},
		Physics:                   physics.DefaultParams(),
	}
}

// Load overlays an optional YAML config file and RACE_ prefixed
// environment variables on top of Default(). path may be empty, in
// which case only defaults and environment are consulted.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("RACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("tick_rate", cfg.TickRate)
	v.SetDefault("bot_tick_rate", cfg.BotTickRate)
	v.SetDefault("broadcast_rate", cfg.BroadcastRate)
	v.SetDefault("visibility_radius", cfg.VisibilityRadius)
	v.SetDefault("grace_period_seconds", cfg.DefaultGracePeriodSeconds)
	v.SetDefault("max_players", cfg.DefaultMaxPlayers)
	v.SetDefault("ping_interval_seconds", cfg.PingIntervalSeconds)
	v.SetDefault("pong_timeout_seconds", cfg.PongTimeoutSeconds)
	v.SetDefault("sandbox_timeout_ms", cfg.SandboxTimeoutMS)
	v.SetDefault("sandbox_memory_mb", cfg.SandboxMemoryMB)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.TickRate = v.GetInt("tick_rate")
	cfg.BotTickRate = v.GetInt("bot_tick_rate")
	cfg.BroadcastRate = v.GetInt("broadcast_rate")
	cfg.VisibilityRadius = v.GetFloat64("visibility_radius")
	cfg.DefaultGracePeriodSeconds = v.GetFloat64("grace_period_seconds")
	cfg.DefaultMaxPlayers = v.GetInt("max_players")
	cfg.PingIntervalSeconds = v.GetFloat64("ping_interval_seconds")
	cfg.PongTimeoutSeconds = v.GetFloat64("pong_timeout_seconds")
	cfg.SandboxTimeoutMS = v.GetInt("sandbox_timeout_ms")
	cfg.SandboxMemoryMB = v.GetInt("sandbox_memory_mb")

	if cfg.TickRate%cfg.BotTickRate != 0 {
		return nil, fmt.Errorf("config: tick_rate %d must divide evenly by bot_tick_rate %d", cfg.TickRate, cfg.BotTickRate)
	}

	return cfg, nil
}

// BotCadenceDivisor returns K = TICK_RATE / BOT_TICK_RATE (spec §4.4).
func (c *Config) BotCadenceDivisor() int {
	return c.TickRate / c.BotTickRate
}

// PointsFor returns the points awarded for a 1-indexed finishing
// position, or 0 beyond the configured table.
func (c *Config) PointsFor(position int) int {
	if position < 1 || position > len(c.Points) {
		return 0
	}
	return c.Points[position-1]
}
