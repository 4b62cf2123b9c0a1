package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "JWT_EXPIRY", "FEDERATED_PROVIDER", "LOG_LEVEL", "ALLOW_FEDERATED_LINK"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverMongo)
	}
	if cfg.JWTExpiry != 7*24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 168h", cfg.JWTExpiry)
	}
	if cfg.FederatedProvider != ProviderGoogle {
		t.Errorf("FederatedProvider = %q, want %q", cfg.FederatedProvider, ProviderGoogle)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if !cfg.AllowFederatedLink {
		t.Error("AllowFederatedLink should default to true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "0.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOW_FEDERATED_LINK", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	if cfg.StoreDriver != DriverMySQL {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverMySQL)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("JWTExpiry = %v, want 2h", cfg.JWTExpiry)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
	if cfg.AuthRateLimitRPS != 0.5 {
		t.Errorf("AuthRateLimitRPS = %v, want 0.5", cfg.AuthRateLimitRPS)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.AllowFederatedLink {
		t.Error("AllowFederatedLink should be false")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("JWT_EXPIRY", "forever")
	t.Setenv("REDIS_DB", "two")
	t.Setenv("AUTH_RATE_LIMIT_BURST", "-")

	cfg := Load()

	if cfg.StoreDriver != DriverMongo {
		t.Errorf("StoreDriver = %q, want fallback %q", cfg.StoreDriver, DriverMongo)
	}
	if cfg.JWTExpiry != 7*24*time.Hour {
		t.Errorf("JWTExpiry = %v, want fallback", cfg.JWTExpiry)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want 0", cfg.RedisDB)
	}
	if cfg.AuthRateLimitBurst != 10 {
		t.Errorf("AuthRateLimitBurst = %d, want 10", cfg.AuthRateLimitBurst)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Env: "production", JWTSecret: defaultJWTSecret}
	if err := cfg.Validate(); err != ErrInsecureSecret {
		t.Errorf("Validate() = %v, want ErrInsecureSecret", err)
	}

	cfg.JWTSecret = "a-real-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	cfg = Config{Env: "development", JWTSecret: defaultJWTSecret}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil in development", err)
	}
}
