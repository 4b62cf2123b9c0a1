package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nexusnotes/nexus-notes/internal/cache"
	"github.com/nexusnotes/nexus-notes/internal/config"
	"github.com/nexusnotes/nexus-notes/internal/crypto"
	"github.com/nexusnotes/nexus-notes/internal/handler"
	"github.com/nexusnotes/nexus-notes/internal/identity"
	"github.com/nexusnotes/nexus-notes/internal/repository/memory"
	"github.com/nexusnotes/nexus-notes/internal/repository/mongo"
	"github.com/nexusnotes/nexus-notes/internal/repository/mysql"
	"github.com/nexusnotes/nexus-notes/internal/service"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	users, notes, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hasher, err := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	if err != nil {
		return err
	}
	tokens, err := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(users, hasher, tokens, verifier).
		WithFederatedLinking(cfg.AllowFederatedLink)

	if cfg.RedisAddr != "" {
		profiles := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.ProfileCacheTTL,
		})
		defer profiles.Close()

		if err := profiles.Ping(ctx); err != nil {
			slog.Warn("profile cache unavailable, continuing without it", "error", err)
		} else {
			authService.WithProfileCache(profiles)
			slog.Info("profile cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProfileCacheTTL)
		}
	}

	router := handler.NewRouter(ctx, handler.RouterConfig{
		Auth:           authService,
		Notes:          service.NewNoteService(notes),
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.AuthRateLimitRPS,
		RateLimitBurst: cfg.AuthRateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (service.UserStore, service.NoteStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := mysql.NewDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := mysql.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		closeFn := func() { db.Close() }
		return mysql.NewUserRepository(db), mysql.NewNoteRepository(db), closeFn, nil

	case config.DriverMemory:
		slog.Warn("using in-memory store, data will not survive a restart")
		store := memory.NewStore()
		return store.Users(), store.Notes(), func() {}, nil

	default:
		client, db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("disconnecting mongodb", "error", err)
			}
		}
		return mongo.NewUserRepository(db), mongo.NewNoteRepository(db), closeFn, nil
	}
}

func newVerifier(ctx context.Context, cfg config.Config) (identity.Verifier, error) {
	switch cfg.FederatedProvider {
	case config.ProviderFirebase:
		return identity.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsFile)
	case config.ProviderNone:
		return identity.Disabled{}, nil
	default:
		if cfg.GoogleClientID == "" {
			slog.Warn("GOOGLE_CLIENT_ID not set, google login disabled")
			return identity.Disabled{}, nil
		}
		return identity.NewGoogleVerifier(cfg.GoogleClientID), nil
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
