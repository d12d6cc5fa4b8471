package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault returns the value of key or fallback when unset/empty.
func GetEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvFloat parses key as a float, returning fallback on absence or parse error.
func GetEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// GetEnvInt parses key as an int64, returning fallback on absence or parse error.
func GetEnvInt(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// GetEnvBool parses key as a boolean flag ("1", "true", "on").
func GetEnvBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "on", "yes":
		return true
	}
	return false
}
