package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret string

	// Optional list cache
	RedisAddr string

	// Generation backend
	OpenAIBaseURL     string
	StreamIdleTimeout time.Duration
}

func Load() *Config {
	idleSecs, _ := strconv.Atoi(getEnv("STREAM_IDLE_TIMEOUT", "120"))
	return &Config{
		Port:              getEnv("PORT", "8090"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "loomchat_db"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		StreamIdleTimeout: time.Duration(idleSecs) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
