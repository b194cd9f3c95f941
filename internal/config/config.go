package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Scheduling defaults, overridable per clinic through the settings store
	ClinicName          string
	ClinicTimezone      string
	BookingWindowDays   int
	SlotMinutes         int
	ExcludePartialSlots bool

	AuthJWTSecret       string
	AdminJWTSecret      string
	AccessTokenTTL      time.Duration
	AppointmentTokenTTL time.Duration
	OTPTTL              time.Duration
	OTPMaxAttempts      int
	SecureCookies       bool

	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string

	// Email
	EmailProvider      string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	SESFromEmail       string
	ClinicNotifyEmails []string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ClinicName:          getEnv("CLINIC_NAME", "Clinic"),
		ClinicTimezone:      getEnv("CLINIC_TIMEZONE", "UTC"),
		BookingWindowDays:   getEnvAsInt("BOOKING_WINDOW_DAYS", 30),
		SlotMinutes:         getEnvAsInt("SLOT_MINUTES", 30),
		ExcludePartialSlots: getEnvAsBool("EXCLUDE_PARTIAL_SLOTS", false),

		AuthJWTSecret:       getEnv("AUTH_JWT_SECRET", ""),
		AdminJWTSecret:      getEnv("ADMIN_JWT_SECRET", ""),
		AccessTokenTTL:      getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		AppointmentTokenTTL: getEnvAsDuration("APPOINTMENT_TOKEN_TTL", 72*time.Hour),
		OTPTTL:              getEnvAsDuration("OTP_TTL", 180*time.Second),
		OTPMaxAttempts:      getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
		SecureCookies:       getEnvAsBool("SECURE_COOKIES", true),

		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		EmailProvider:      strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "Clinic Booking"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		ClinicNotifyEmails: getEnvAsList("CLINIC_NOTIFY_EMAILS"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
