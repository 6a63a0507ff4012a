package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.MapsEnabled {
		t.Fatalf("maps provider should be disabled by default")
	}
	if cfg.HTTPTimeout().Seconds() != 10 {
		t.Fatalf("expected default http timeout of 10s")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("MAPS_ENABLED", "true")
	t.Setenv("MAPS_API_KEY", "key-123")
	t.Setenv("SHIPMENTS_URL", "http://shipments:8081")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if !cfg.MapsEnabled {
		t.Fatalf("expected maps enabled")
	}
	if cfg.MapsAPIKey != "key-123" {
		t.Fatalf("expected override maps api key")
	}
	if cfg.ShipmentsURL != "http://shipments:8081" {
		t.Fatalf("expected override shipments url")
	}
}
