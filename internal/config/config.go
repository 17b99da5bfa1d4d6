package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Sandbox SandboxConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	MinPlayers       int
	MinTimeLimit     int // seconds
	MaxTimeLimit     int
	DefaultTimeLimit int
	MaxRounds        int
	BreakDuration    time.Duration
	TickInterval     time.Duration
	ProblemsDir      string

	// Garbage collection of abandoned rooms
	SweepInterval     time.Duration
	FinishedRetention time.Duration // how long finished games linger
	MaxRoomAge        time.Duration // catch-all for abandoned lobbies
}

// SandboxConfig holds code-execution sandbox configuration
type SandboxConfig struct {
	PythonBin      string
	TimeoutSeconds int
	MaxConcurrent  int
	CPUSeconds     int
	MemoryMB       int64
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from a .env file (if present) and environment
// variables, with defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Game: GameConfig{
			MinPlayers:        getEnvInt("MIN_PLAYERS", 2),
			MinTimeLimit:      getEnvInt("MIN_TIME_LIMIT_SECONDS", 60),
			MaxTimeLimit:      getEnvInt("MAX_TIME_LIMIT_SECONDS", 600),
			DefaultTimeLimit:  getEnvInt("DEFAULT_TIME_LIMIT_SECONDS", 300),
			MaxRounds:         getEnvInt("MAX_ROUNDS", 10),
			BreakDuration:     time.Duration(getEnvInt("BREAK_SECONDS", 30)) * time.Second,
			TickInterval:      time.Duration(getEnvInt("TICK_SECONDS", 5)) * time.Second,
			ProblemsDir:       getEnv("PROBLEMS_DIR", "problems"),
			SweepInterval:     time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
			FinishedRetention: time.Duration(getEnvInt("FINISHED_RETENTION_SECONDS", 3600)) * time.Second,
			MaxRoomAge:        time.Duration(getEnvInt("MAX_ROOM_AGE_SECONDS", 7200)) * time.Second,
		},
		Sandbox: SandboxConfig{
			PythonBin:      getEnv("SANDBOX_PYTHON", "python3"),
			TimeoutSeconds: getEnvInt("SANDBOX_TIMEOUT_SECONDS", 10),
			MaxConcurrent:  getEnvInt("SANDBOX_MAX_CONCURRENT", 4),
			CPUSeconds:     getEnvInt("SANDBOX_CPU_SECONDS", 5),
			MemoryMB:       int64(getEnvInt("SANDBOX_MEMORY_MB", 256)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// ClampTimeLimit clamps a requested round duration to the configured range
func (c *Config) ClampTimeLimit(seconds int) int {
	if seconds < c.Game.MinTimeLimit {
		return c.Game.MinTimeLimit
	}
	if seconds > c.Game.MaxTimeLimit {
		return c.Game.MaxTimeLimit
	}
	return seconds
}

// ClampRounds clamps a requested round count to [1, MaxRounds]
func (c *Config) ClampRounds(rounds int) int {
	if rounds < 1 {
		return 1
	}
	if rounds > c.Game.MaxRounds {
		return c.Game.MaxRounds
	}
	return rounds
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
