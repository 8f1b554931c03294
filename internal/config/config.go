// Package config loads runtime configuration from environment
// variables. Required values fail fast at startup; optional subsystems
// (Redis cache, rate limiting) carry their own defaults.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime value the server needs. Token TTLs are
// configuration, not behavior: nothing else in the codebase hardcodes
// them.
type Config struct {
	Env        string // dev / test / prod
	Port       string // HTTP port to bind
	DBUser     string
	DBPass     string // optional
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string        // HS256 signing secret
	AccessTTL  time.Duration // access token lifetime (ACCESS_TOKEN_TTL_MIN)
	RefreshTTL time.Duration // refresh token lifetime (REFRESH_TOKEN_TTL_DAYS)
	BcryptCost int
}

// Load reads the environment and returns a Config. Missing required
// variables abort the process with a fatal log.
func Load() Config {
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		JWTSecret:  must("JWT_SECRET"),
		AccessTTL:  time.Duration(mustInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
		RefreshTTL: time.Duration(mustInt("REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		BcryptCost: mustInt("BCRYPT_COST"),
	}
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
