package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Social.FeedRetention != 200 {
		t.Errorf("expected default feed retention 200, got %d", cfg.Social.FeedRetention)
	}
	if cfg.Social.ProfileCacheTTL != 5*time.Minute {
		t.Errorf("expected default cache TTL 5m, got %s", cfg.Social.ProfileCacheTTL)
	}
	if cfg.Social.SearchLimit != 20 {
		t.Errorf("expected default search limit 20, got %d", cfg.Social.SearchLimit)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SOCIAL_FEED_RETENTION", "500")
	t.Setenv("SOCIAL_PROFILE_CACHE_TTL", "30s")
	t.Setenv("SYNC_BASE_URL", "https://sync.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Social.FeedRetention != 500 {
		t.Errorf("expected feed retention 500, got %d", cfg.Social.FeedRetention)
	}
	if cfg.Social.ProfileCacheTTL != 30*time.Second {
		t.Errorf("expected cache TTL 30s, got %s", cfg.Social.ProfileCacheTTL)
	}
	if cfg.Sync.BaseURL != "https://sync.example.com" {
		t.Errorf("unexpected sync base url: %s", cfg.Sync.BaseURL)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoad_RejectsNonPositiveRetention(t *testing.T) {
	t.Setenv("SOCIAL_FEED_RETENTION", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_RejectsNonPositiveSearchLimit(t *testing.T) {
	t.Setenv("SOCIAL_SEARCH_LIMIT", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "social", Password: "secret",
		DBName: "socialgraph", SSLMode: "disable",
	}
	want := "postgres://social:secret@db:5432/socialgraph?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6379}
	if got := r.Addr(); got != "cache:6379" {
		t.Errorf("expected cache:6379, got %q", got)
	}
}
