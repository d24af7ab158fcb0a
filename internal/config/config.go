package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	JWTSecret string
	JWTTTL    time.Duration

	// Store is "postgres" or "memory". Memory is used when no DB_HOST is set.
	Store    string
	SeedDemo bool
	DB       DBConfig

	DuplicateRadius     float64
	DefaultSearchRadius float64
	// AuthRateLimit is requests per minute per client IP on /api/auth. 0 disables it.
	AuthRateLimit int

	LogFile   string
	LogLevel  string
	LogStdout bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	_, hasDBHost := os.LookupEnv("DB_HOST")
	defaultStore := StoreMemory
	if hasDBHost {
		defaultStore = StorePostgres
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		CORSOrigins: getEnvList("CORS_ORIGINS"),

		JWTSecret: getEnv("JWT_SECRET", "supersecret"),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		Store:    strings.ToLower(getEnv("STORE", defaultStore)),
		SeedDemo: getEnvBool("SEED_DEMO", false),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "toilet_finder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},

		DuplicateRadius:     getEnvFloat("DUPLICATE_RADIUS_M", 20),
		DefaultSearchRadius: getEnvFloat("DEFAULT_SEARCH_RADIUS_M", 500),
		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 30),

		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogStdout: getEnvBool("LOG_STDOUT", false),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
