package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// ErrInsecureSecret is returned by Validate when production runs with the development secret.
var ErrInsecureSecret = errors.New("JWT_SECRET must be set in production environment")

// Storage backends selectable with STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Federated identity providers selectable with FEDERATED_PROVIDER.
const (
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
	ProviderNone     = "none"
)

type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	DatabaseDSN     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	FederatedProvider       string
	GoogleClientID          string
	FirebaseCredentialsFile string
	AllowFederatedLink      bool

	AllowedOrigins     []string
	RequestTimeout     time.Duration
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// Load reads the configuration from the environment. Values that do not
// parse fall back to their defaults with a warning.
func Load() Config {
	return Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getLevel("LOG_LEVEL", slog.LevelInfo),

		StoreDriver:     getChoice("STORE_DRIVER", DriverMongo, DriverMongo, DriverMySQL, DriverMemory),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "nexus"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/nexus?parseTime=true"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		ProfileCacheTTL: getDuration("PROFILE_CACHE_TTL", 5*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry: getDuration("JWT_EXPIRY", 7*24*time.Hour),

		FederatedProvider:       getChoice("FEDERATED_PROVIDER", ProviderGoogle, ProviderGoogle, ProviderFirebase, ProviderNone),
		GoogleClientID:          getEnv("GOOGLE_CLIENT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		AllowFederatedLink:      getBool("ALLOW_FEDERATED_LINK", true),

		AllowedOrigins:     getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 15*time.Second),
		AuthRateLimitRPS:   getFloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateLimitBurst: getInt("AUTH_RATE_LIMIT_BURST", 10),
	}
}

// Validate rejects configurations that must not start.
func (c Config) Validate() error {
	if c.Env == "production" && c.JWTSecret == defaultJWTSecret {
		return ErrInsecureSecret
	}
	return nil
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid number, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level, using default", "key", key, "value", v)
		return fallback
	}
	return level
}

func getChoice(key, fallback string, allowed ...string) string {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return fallback
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	slog.Warn("unsupported value, using default", "key", key, "value", v, "default", fallback)
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
