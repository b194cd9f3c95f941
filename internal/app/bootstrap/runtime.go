package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-booking/internal/clinic"
	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL and verifies the connection.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("postgres connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

// ClinicDefaults builds the settings served until an admin saves new ones.
func ClinicDefaults(cfg *appconfig.Config) clinic.Settings {
	defaults := clinic.DefaultSettings()
	if cfg == nil {
		return defaults
	}
	if name := strings.TrimSpace(cfg.ClinicName); name != "" {
		defaults.Name = name
	}
	if tz := strings.TrimSpace(cfg.ClinicTimezone); tz != "" {
		defaults.Timezone = tz
	}
	if cfg.BookingWindowDays > 0 {
		defaults.BookingWindowDays = cfg.BookingWindowDays
	}
	if cfg.SlotMinutes > 0 {
		defaults.SlotMinutes = cfg.SlotMinutes
	}
	defaults.ExcludePartialSlots = cfg.ExcludePartialSlots
	defaults.NotifyEmails = cfg.ClinicNotifyEmails
	return defaults
}

// SettingsProvider serves the current clinic settings.
type SettingsProvider interface {
	Get(ctx context.Context) (*clinic.Settings, error)
}

// BuildSettings returns the settings provider and, when Redis is available,
// the writable store behind it. Without Redis the defaults are static.
func BuildSettings(redisClient *redis.Client, cfg *appconfig.Config) (SettingsProvider, *clinic.Store) {
	defaults := ClinicDefaults(cfg)
	if redisClient == nil {
		return clinic.StaticSettings{Settings: defaults}, nil
	}
	store := clinic.NewStore(redisClient, defaults)
	return store, store
}
