package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ManagerPIN != "" {
		t.Fatalf("expected empty MANAGER_PIN when unset, got %q", cfg.ManagerPIN)
	}
	if cfg.AdminPassword != "" {
		t.Fatalf("expected empty ADMIN_PASSWORD when unset, got %q", cfg.AdminPassword)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "ALLOW_OVERSELL", "ENFORCE_UNIQUE_CODES", "LOW_STOCK_THRESHOLD", "TOP_SELLING_LIMIT", "KAFKA_BROKERS", "REPORT_CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.StoreBackend != BackendSQLite {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.StoreBackend)
	}
	if !cfg.AllowOversell || cfg.EnforceUniqueCodes {
		t.Fatalf("unexpected policy defaults: oversell=%v unique=%v", cfg.AllowOversell, cfg.EnforceUniqueCodes)
	}
	if cfg.LowStockThreshold != 10 || cfg.TopSellingLimit != 5 {
		t.Fatalf("unexpected reporting defaults: %d %d", cfg.LowStockThreshold, cfg.TopSellingLimit)
	}
	if cfg.KafkaBrokers != nil {
		t.Fatalf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.ReportCacheTTL() != 30*time.Second {
		t.Fatalf("expected 30s report cache ttl, got %s", cfg.ReportCacheTTL())
	}
	if cfg.Address() != ":"+cfg.Port {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("ALLOW_OVERSELL", "false")
	t.Setenv("ENFORCE_UNIQUE_CODES", "1")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("TOP_SELLING_LIMIT", "-2")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, ,broker-2:9092 ")

	cfg := Load()
	if cfg.StoreBackend != BackendPostgres {
		t.Fatalf("expected postgres backend, got %q", cfg.StoreBackend)
	}
	if cfg.AllowOversell || !cfg.EnforceUniqueCodes {
		t.Fatalf("expected overridden policies, got oversell=%v unique=%v", cfg.AllowOversell, cfg.EnforceUniqueCodes)
	}
	if cfg.LowStockThreshold != 3 {
		t.Fatalf("expected threshold 3, got %d", cfg.LowStockThreshold)
	}
	if cfg.TopSellingLimit != 5 {
		t.Fatalf("expected invalid limit to fall back to 5, got %d", cfg.TopSellingLimit)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestDefaultSettingsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "businessName: Warung Bu Sri\ntaxRate: 11\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	settings, err := Config{SettingsDefaultsFile: path}.DefaultSettings()
	if err != nil {
		t.Fatalf("load settings defaults: %v", err)
	}
	if settings.BusinessName != "Warung Bu Sri" || settings.TaxRate != 11 {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if settings.Currency != "IDR" {
		t.Fatalf("expected built-in currency to survive, got %q", settings.Currency)
	}
}

func TestDefaultSettingsRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("taxRate: 150\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := (Config{SettingsDefaultsFile: path}).DefaultSettings(); err == nil {
		t.Fatalf("expected out-of-range tax rate to fail")
	}
	if _, err := (Config{SettingsDefaultsFile: filepath.Join(t.TempDir(), "missing.yaml")}).DefaultSettings(); err == nil {
		t.Fatalf("expected missing file to fail")
	}
}
