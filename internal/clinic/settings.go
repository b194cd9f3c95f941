// Package clinic holds clinic-wide booking settings and their Redis store.
package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

const settingsKey = "clinic:settings"

var ErrInvalidSettings = errors.New("clinic: invalid settings")

// Settings controls how availability is offered to patients.
type Settings struct {
	Name                string   `json:"name"`
	Timezone            string   `json:"timezone"` // e.g., "Europe/Moscow"
	BookingWindowDays   int      `json:"booking_window_days"`
	SlotMinutes         int      `json:"slot_minutes"`
	ExcludePartialSlots bool     `json:"exclude_partial_slots"`
	NotifyEmails        []string `json:"notify_emails,omitempty"`
}

// DefaultSettings returns the built-in settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Name:              "Clinic",
		Timezone:          "UTC",
		BookingWindowDays: scheduling.DefaultBookingWindowDays,
		SlotMinutes:       int(scheduling.DefaultSlotDuration / time.Minute),
	}
}

// Validate rejects settings that would make availability meaningless.
func (s *Settings) Validate() error {
	if s.BookingWindowDays < 1 || s.BookingWindowDays > 365 {
		return fmt.Errorf("%w: booking_window_days must be between 1 and 365", ErrInvalidSettings)
	}
	if s.SlotMinutes < 5 || s.SlotMinutes > 240 {
		return fmt.Errorf("%w: slot_minutes must be between 5 and 240", ErrInvalidSettings)
	}
	if _, err := time.LoadLocation(strings.TrimSpace(s.Timezone)); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidSettings, s.Timezone)
	}
	return nil
}

// Location resolves the clinic timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(s.Timezone)); err == nil {
		return loc
	}
	return time.UTC
}

// Today is the clinic's current calendar date at instant now.
func (s *Settings) Today(now time.Time) time.Time {
	return scheduling.DateOf(now.In(s.Location()))
}

// SlotDuration is the configured slot length.
func (s *Settings) SlotDuration() time.Duration {
	if s.SlotMinutes <= 0 {
		return scheduling.DefaultSlotDuration
	}
	return time.Duration(s.SlotMinutes) * time.Minute
}

// SlotPolicy maps ExcludePartialSlots onto the scheduling policy.
func (s *Settings) SlotPolicy() scheduling.SlotPolicy {
	if s.ExcludePartialSlots {
		return scheduling.WholeSlotsOnly
	}
	return scheduling.IncludePartialSlot
}

// WindowDays is the booking window, defaulting when unset.
func (s *Settings) WindowDays() int {
	if s.BookingWindowDays <= 0 {
		return scheduling.DefaultBookingWindowDays
	}
	return s.BookingWindowDays
}

// Store persists settings in Redis.
type Store struct {
	redis    *redis.Client
	defaults Settings
}

// NewStore creates a settings store. defaults are returned until settings
// are saved.
func NewStore(redisClient *redis.Client, defaults Settings) *Store {
	if redisClient == nil {
		panic("clinic: redis client required")
	}
	return &Store{redis: redisClient, defaults: defaults}
}

// Get retrieves settings, returning the defaults if none are stored.
func (s *Store) Get(ctx context.Context) (*Settings, error) {
	data, err := s.redis.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		cfg := s.defaults
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var cfg Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	return &cfg, nil
}

// Set validates and saves settings.
func (s *Store) Set(ctx context.Context, cfg *Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}

// StaticSettings serves fixed settings, used when Redis is not configured.
type StaticSettings struct {
	Settings Settings
}

func (s StaticSettings) Get(context.Context) (*Settings, error) {
	cfg := s.Settings
	return &cfg, nil
}
