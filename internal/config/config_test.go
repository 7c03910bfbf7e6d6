package config

import (
	"testing"
	"time"
)

func TestLoadPoolSettings(t *testing.T) {
	t.Setenv("DATABASE_MAX_IDLE_CONN", "3")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "12")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "1800")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "300")

	cfg := Load()
	if cfg.DBMaxIdleConn != 3 {
		t.Fatalf("DBMaxIdleConn = %d, want 3", cfg.DBMaxIdleConn)
	}
	if cfg.DBMaxOpenConn != 12 {
		t.Fatalf("DBMaxOpenConn = %d, want 12", cfg.DBMaxOpenConn)
	}
	if cfg.DBConnMaxLifetime != 1800 {
		t.Fatalf("DBConnMaxLifetime = %d, want 1800", cfg.DBConnMaxLifetime)
	}
	if cfg.DBConnMaxIdleTime != 300 {
		t.Fatalf("DBConnMaxIdleTime = %d, want 300", cfg.DBConnMaxIdleTime)
	}
}

func TestLoadPoolSettingsDefaultOff(t *testing.T) {
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "")

	cfg := Load()
	if cfg.DBConnMaxLifetime != 0 || cfg.DBConnMaxIdleTime != 0 {
		t.Fatalf("expected lifetime settings off by default, got %d/%d",
			cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	}
	if cfg.AuthTokenTTL != 24*time.Hour {
		t.Fatalf("AuthTokenTTL = %v, want 24h", cfg.AuthTokenTTL)
	}
}
