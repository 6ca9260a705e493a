package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAppName          = "BrandBridge"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultJWTIssuer        = "brandbridge"
	defaultTokenTTL         = 12 * time.Hour
	defaultSessionCookie    = "bb_session"
	defaultSignOutOrigin    = "https://brandbridge.example"
	defaultStreamHeartbeat  = 15 * time.Second
	defaultProfileTimeout   = 3 * time.Second
	defaultDispatchPerMin   = 30
	developmentJWTSecret    = "development-only-secret"
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	heartbeatDurationEnvVar = "STREAM_HEARTBEAT"
	profileTimeoutEnvVar    = "PROFILE_READ_TIMEOUT"
	tokenTTLEnvVar          = "JWT_TTL"
)

// Config captures application runtime configuration.
type Config struct {
	AppName            string
	AppEnv             string
	Port               string
	LogLevel           string
	DatabaseURL        string
	RedisURL           string
	ShutdownPeriod     time.Duration
	IdempotencyTTL     time.Duration
	JWTSecret          string
	JWTIssuer          string
	TokenTTL           time.Duration
	SessionCookie      string
	SignOutOrigin      string
	StreamHeartbeat    time.Duration
	ProfileReadTimeout time.Duration
	DispatchPerMinute  int
}

// Load reads configuration from the environment, with an optional .env file
// in the working directory as a lower-priority source.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read .env: %w", err)
		}
	}
	v.AutomaticEnv()
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("JWT_ISSUER", defaultJWTIssuer)
	v.SetDefault("SESSION_COOKIE", defaultSessionCookie)
	v.SetDefault("SIGN_OUT_ORIGIN", defaultSignOutOrigin)
	v.SetDefault("DISPATCH_RATE_LIMIT", defaultDispatchPerMin)

	cfg := Config{
		AppName:       v.GetString("APP_NAME"),
		AppEnv:        strings.ToLower(v.GetString("APP_ENV")),
		Port:          v.GetString("PORT"),
		LogLevel:      strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisURL:      v.GetString("REDIS_URL"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTIssuer:     v.GetString("JWT_ISSUER"),
		SessionCookie: v.GetString("SESSION_COOKIE"),
		SignOutOrigin: strings.TrimRight(v.GetString("SIGN_OUT_ORIGIN"), "/"),
	}

	var err error
	if cfg.ShutdownPeriod, err = duration(v, shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration(v, idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.StreamHeartbeat, err = duration(v, "", heartbeatDurationEnvVar, defaultStreamHeartbeat); err != nil {
		return Config{}, err
	}
	if cfg.ProfileReadTimeout, err = duration(v, "", profileTimeoutEnvVar, defaultProfileTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = duration(v, "", tokenTTLEnvVar, defaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.DispatchPerMinute, err = strconv.Atoi(v.GetString("DISPATCH_RATE_LIMIT")); err != nil {
		return Config{}, fmt.Errorf("invalid DISPATCH_RATE_LIMIT: %w", err)
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = developmentJWTSecret
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

// IsDevelopment reports whether in-memory fallbacks are allowed.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == defaultAppEnv
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// duration reads a whole-seconds variable first and a Go duration second.
// Either key may be empty.
func duration(v *viper.Viper, secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if raw := v.GetString(secondsKey); raw != "" {
			seconds, err := strconv.Atoi(raw)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if durationKey != "" {
		if raw := v.GetString(durationKey); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
			}
			return d, nil
		}
	}
	return fallback, nil
}
