// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all daemon settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// EngineConfig holds the splat engine runtime settings. Per-emission
// behavior (sizes, speeds, tweens) lives in splat.Settings; this covers
// only what the daemon wires at startup.
type EngineConfig struct {
	TickRate  int   // Engine steps per second
	PoolLimit int   // Hard cap on pooled objects (DoS protection)
	Seed      int64 // RNG seed; 0 means time-based
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TickRate:  60,
		PoolLimit: 200,
		Seed:      0,
	}
}

// EngineFromEnv returns engine configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if t := getEnvInt("SPLAT_TICK_RATE", 0); t > 0 {
		cfg.TickRate = t
	}
	if l := getEnvInt("SPLAT_POOL_LIMIT", 0); l > 0 {
		cfg.PoolLimit = l
	}
	if s := getEnvInt("SPLAT_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}

	return cfg
}

// AudioConfig holds sound playback settings.
type AudioConfig struct {
	Enabled   bool    // Whether impact sounds are enabled
	Volume    float64 // Master volume (0.0 to 1.0)
	SampleDir string  // Directory holding the WAV samples
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		Enabled:   true,
		Volume:    0.4,
		SampleDir: "assets/sounds",
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("SPLAT_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("SPLAT_SOUND") == "false" {
		cfg.Enabled = false
	}
	if d := os.Getenv("SPLAT_SOUND_DIR"); d != "" {
		cfg.SampleDir = d
	}

	return cfg
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	DebugServer bool // pprof + metrics on localhost:6060
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        3000,
		DebugServer: true,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if os.Getenv("DEBUG_SERVER") == "false" {
		cfg.DebugServer = false
	}

	return cfg
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine EngineConfig
	Audio  AudioConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Engine: EngineFromEnv(),
		Audio:  AudioFromEnv(),
		Server: ServerFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
