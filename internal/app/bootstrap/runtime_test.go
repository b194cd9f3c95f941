package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/clinic-booking/internal/clinic"
	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientVerify(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	addr := mr.Addr()

	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.New("error"), true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	client.Close()

	mr.Close()
	if client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestBuildPostgresPoolRequiresURL(t *testing.T) {
	if _, err := BuildPostgresPool(context.Background(), &appconfig.Config{}, logging.New("error")); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
	if _, err := BuildPostgresPool(context.Background(), &appconfig.Config{DatabaseURL: "postgres://clinic@localhost:notaport/clinic"}, logging.New("error")); err == nil {
		t.Fatalf("expected error for malformed DATABASE_URL")
	}
}

func TestClinicDefaultsFromConfig(t *testing.T) {
	cfg := &appconfig.Config{
		ClinicName:          "Northside Clinic",
		ClinicTimezone:      "Europe/Moscow",
		BookingWindowDays:   14,
		SlotMinutes:         20,
		ExcludePartialSlots: true,
		ClinicNotifyEmails:  []string{"front-desk@example.com"},
	}
	got := ClinicDefaults(cfg)
	if got.Name != "Northside Clinic" || got.Timezone != "Europe/Moscow" || got.BookingWindowDays != 14 || got.SlotMinutes != 20 {
		t.Fatalf("unexpected defaults %+v", got)
	}
	if !got.ExcludePartialSlots || len(got.NotifyEmails) != 1 {
		t.Fatalf("expected partial slot policy and notify emails carried, got %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	if d := ClinicDefaults(&appconfig.Config{}); d.SlotMinutes != clinic.DefaultSettings().SlotMinutes {
		t.Fatalf("expected built-in slot minutes, got %d", d.SlotMinutes)
	}
}

func TestBuildSettingsWithoutRedis(t *testing.T) {
	provider, store := BuildSettings(nil, &appconfig.Config{ClinicName: "Solo"})
	if store != nil {
		t.Fatalf("expected no writable store without redis")
	}
	got, err := provider.Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.Name != "Solo" {
		t.Fatalf("expected static defaults, got %+v", got)
	}
}
