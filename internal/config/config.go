package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultModelPath is resolved against BaseDir when MODEL_PATH is unset.
const DefaultModelPath = "models/fraud_detection_pipeline.json"

// Config holds runtime configuration sourced from env vars and an optional file.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string

	// TrustedProxies are addresses or CIDRs whose forwarding headers are believed.
	TrustedProxies []string

	BaseDir   string
	ModelPath string
	LogLevel  slog.Level

	RedisURL     string
	KafkaBroker  string
	KafkaTopic   string
	OTelEndpoint string
	OTelInsecure bool

	BootstrapAdminUsername string
	BootstrapAdminPassword string
	LoginRatePerMinute     int
}

// Load reads configuration from the environment, layered over CONFIG_FILE
// (YAML, JSON or TOML) when set, layered over defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "sqlite://fraudpulse_data.db")
	v.SetDefault("jwt_issuer", "fraudpulse-backend")
	v.SetDefault("jwt_ttl_minutes", 60)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("model_path", DefaultModelPath)
	v.SetDefault("log_level", "info")
	v.SetDefault("kafka_predictions_topic", "fraudpulse.predictions")
	v.SetDefault("bootstrap_admin_username", "admin")
	v.SetDefault("bootstrap_admin_password", "admin123")
	v.SetDefault("login_rate_per_minute", 10)

	for _, key := range []string{
		"jwt_secret", "app_base_dir", "redis_url", "kafka_broker",
		"otel_exporter_otlp_endpoint", "otel_insecure", "trusted_proxies",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:                   fallback(v.GetString("port"), "8080"),
		DatabaseURL:            strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:              strings.TrimSpace(v.GetString("jwt_secret")),
		JWTIssuer:              fallback(v.GetString("jwt_issuer"), "fraudpulse-backend"),
		CORSOrigins:            parseCSV(v.GetString("cors_allowed_origins")),
		TrustedProxies:         splitCSV(v.GetString("trusted_proxies")),
		ModelPath:              fallback(v.GetString("model_path"), DefaultModelPath),
		RedisURL:               strings.TrimSpace(v.GetString("redis_url")),
		KafkaBroker:            strings.TrimSpace(v.GetString("kafka_broker")),
		KafkaTopic:             strings.TrimSpace(v.GetString("kafka_predictions_topic")),
		OTelEndpoint:           strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint")),
		OTelInsecure:           v.GetBool("otel_insecure"),
		BootstrapAdminUsername: fallback(v.GetString("bootstrap_admin_username"), "admin"),
		BootstrapAdminPassword: fallback(v.GetString("bootstrap_admin_password"), "admin123"),
		LoginRatePerMinute:     v.GetInt("login_rate_per_minute"),
	}

	if ttlMinutes := v.GetInt("jwt_ttl_minutes"); ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}
	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = 10
	}

	level, err := parseLevel(v.GetString("log_level"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	cfg.BaseDir = strings.TrimSpace(v.GetString("app_base_dir"))
	if cfg.BaseDir == "" {
		cfg.BaseDir = executableDir()
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

// Validate checks the settings only the HTTP server needs.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(fallback(raw, "info"))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exe)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	out := splitCSV(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func splitCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
