package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultPattern matches the script sources picked up by a build.
const DefaultPattern = "**/*.{md,html,txt,markdown}"

type Config struct {
	SourceDir       string
	OutputDir       string
	SourcePattern   string
	Filter          string
	Force           bool
	WorkerCount     int
	ManifestDSN     string
	LogLevel        string
	LogFile         string
	WatchDebounceMS int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		SourceDir:       getEnv("SOURCE_DIR", ""),
		OutputDir:       getEnv("OUTPUT_DIR", "out"),
		SourcePattern:   getEnv("SOURCE_PATTERN", DefaultPattern),
		Filter:          getEnv("FILTER", ""),
		Force:           getEnvBool("FORCE", false),
		WorkerCount:     getEnvInt("WORKER_COUNT", 8),
		ManifestDSN:     getEnv("MANIFEST_DSN", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		WatchDebounceMS: getEnvInt("WATCH_DEBOUNCE_MS", 300),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
