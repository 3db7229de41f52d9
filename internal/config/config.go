// Package config loads the environment variables recognised across the
// ingest, egress and query-api binaries.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment variable named in the specification's
// external-interfaces section. Fields are typed and defaulted; callers
// should not read os.Getenv directly.
type Config struct {
	BotToken string
	RedisURL string
	MongoURL string
	Domain   string

	MaxAvatarSize int64
	Dev           bool

	InternalMasterToken string
	Admins              []uint64

	PatreonSecret string
	InfoBotToken  string
}

// Load reads a .env file if present (ignored if missing) and then builds a
// Config from the process environment, applying defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BotToken:            os.Getenv("BOT_TOKEN"),
		RedisURL:            getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		MongoURL:            os.Getenv("MONGO_URL"),
		Domain:              os.Getenv("DOMAIN"),
		MaxAvatarSize:       getEnvInt64("MAX_AVATAR_SIZE", 4194304),
		Dev:                 getEnvBool("DEV", true),
		InternalMasterToken: os.Getenv("INTERNAL_MASTER_TOKEN"),
		Admins:              parseAdmins(os.Getenv("ADMINS")),
		PatreonSecret:       os.Getenv("PATREON_SECRET"),
		InfoBotToken:        os.Getenv("INFO_BOT_TOKEN"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseAdmins(raw string) []uint64 {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	admins := make([]uint64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}

		admins = append(admins, id)
	}

	return admins
}
