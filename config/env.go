package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env when present; the process environment always wins.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not loaded, using process environment: %v", err)
	}
}

func GetEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func GetEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}
