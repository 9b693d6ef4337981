package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Auth
	JWTSecret  string
	AdminEmail string

	// Cache
	CacheTTL       time.Duration
	LeaderboardTTL time.Duration

	// Code execution
	ExecTimeout       time.Duration
	TerminalTimeout   time.Duration
	ExecMaxConcurrent int
	ExecWorkDir       string
	ExecWorkers       int

	// Gemini code review (optional)
	GeminiAPIKey string
	GeminiModel  string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	v := newViper()

	return &Config{
		Port:              v.GetString("PORT"),
		Env:               v.GetString("ENV"),
		FrontendURL:       v.GetString("FRONTEND_URL"),
		DatabaseURL:       mustGet(v, "DATABASE_URL"),
		RedisURL:          mustGet(v, "REDIS_URL"),
		JWTSecret:         mustGet(v, "JWT_SECRET"),
		AdminEmail:        strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		CacheTTL:          durationOr(v.GetDuration("CACHE_TTL"), 5*time.Minute),
		LeaderboardTTL:    durationOr(v.GetDuration("LEADERBOARD_TTL"), 60*time.Second),
		ExecTimeout:       durationOr(v.GetDuration("EXEC_TIMEOUT"), 10*time.Second),
		TerminalTimeout:   durationOr(v.GetDuration("TERMINAL_TIMEOUT"), 5*time.Second),
		ExecMaxConcurrent: positiveOr(v.GetInt("EXEC_MAX_CONCURRENT"), 8),
		ExecWorkDir:       v.GetString("EXEC_WORK_DIR"),
		ExecWorkers:       positiveOr(v.GetInt("EXEC_WORKERS"), 4),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
		GeminiModel:       v.GetString("GEMINI_MODEL"),
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("LEADERBOARD_TTL", 60*time.Second)
	v.SetDefault("EXEC_TIMEOUT", 10*time.Second)
	v.SetDefault("TERMINAL_TIMEOUT", 5*time.Second)
	v.SetDefault("EXEC_MAX_CONCURRENT", 8)
	v.SetDefault("EXEC_WORK_DIR", os.TempDir())
	v.SetDefault("EXEC_WORKERS", 4)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")

	v.AutomaticEnv()
	return v
}

func mustGet(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func positiveOr(n, defaultVal int) int {
	if n <= 0 {
		return defaultVal
	}
	return n
}

func durationOr(d, defaultVal time.Duration) time.Duration {
	if d <= 0 {
		return defaultVal
	}
	return d
}
