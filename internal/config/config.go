package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kasirlokal/backend/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	StoreBackend          string
	SQLitePath            string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RedisKeyPrefix        string
	KafkaBrokers          []string
	KafkaTopicPrefix      string
	AuthSecret            string
	AccessTokenTTLMinutes int
	ManagerPIN            string
	AdminPassword         string
	CashierPassword       string
	AllowOversell         bool
	EnforceUniqueCodes    bool
	LowStockThreshold     int
	TopSellingLimit       int
	ReportCacheTTLSeconds int
	SeedSampleData        bool
	SettingsDefaultsFile  string
	LogLevel              string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	threshold, err := strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "10"))
	if err != nil || threshold < 0 {
		threshold = 10
	}
	topLimit, err := strconv.Atoi(getEnv("TOP_SELLING_LIMIT", "5"))
	if err != nil || topLimit < 1 {
		topLimit = 5
	}
	cacheTTL, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL_SECONDS", "30"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 30
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		StoreBackend:          strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		SQLitePath:            getEnv("SQLITE_PATH", "kasirlokal.db"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		RedisKeyPrefix:        getEnv("REDIS_KEY_PREFIX", "kasirlokal:"),
		KafkaBrokers:          splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix:      getEnv("KAFKA_TOPIC_PREFIX", "pos"),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ManagerPIN:            strings.TrimSpace(os.Getenv("MANAGER_PIN")),
		AdminPassword:         os.Getenv("ADMIN_PASSWORD"),
		CashierPassword:       os.Getenv("CASHIER_PASSWORD"),
		AllowOversell:         getBool("ALLOW_OVERSELL", true),
		EnforceUniqueCodes:    getBool("ENFORCE_UNIQUE_CODES", false),
		LowStockThreshold:     threshold,
		TopSellingLimit:       topLimit,
		ReportCacheTTLSeconds: cacheTTL,
		SeedSampleData:        getBool("SEED_SAMPLE_DATA", false),
		SettingsDefaultsFile:  strings.TrimSpace(os.Getenv("SETTINGS_DEFAULTS_FILE")),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

// DefaultSettings returns the built-in settings, overlaid with the YAML file
// named by SETTINGS_DEFAULTS_FILE when one is set. Keys missing from the file
// keep their built-in values.
func (c Config) DefaultSettings() (domain.Settings, error) {
	settings := domain.DefaultSettings()
	if c.SettingsDefaultsFile == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(c.SettingsDefaultsFile)
	if err != nil {
		return settings, fmt.Errorf("read settings defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("parse settings defaults %s: %w", c.SettingsDefaultsFile, err)
	}
	if settings.TaxRate < 0 || settings.TaxRate > 100 {
		return settings, fmt.Errorf("settings defaults: taxRate %.2f out of range", settings.TaxRate)
	}
	return settings, nil
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
