package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("expected default addr, got %q", env.AppAddr)
	}
	if env.JWTTTL != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %v", env.JWTTTL)
	}
	if len(env.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no origins, got %v", env.CORSAllowedOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SETTINGS_REFRESH", "5s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_AUTO_MIGRATE", "off")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	env := LoadEnv()
	if env.SettingsRefresh != 5*time.Second || env.RedisDB != 3 || env.AutoMigrate {
		t.Fatalf("overrides not applied: %+v", env)
	}
	if len(env.CORSAllowedOrigins) != 2 || env.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", env.CORSAllowedOrigins)
	}
}

func TestDSN(t *testing.T) {
	env := Env{DBUser: "u", DBPass: "p", DBHost: "db", DBPort: "3307", DBName: "studio"}
	want := "u:p@tcp(db:3307)/studio?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
	if got := env.DSN(); got != want {
		t.Fatalf("unexpected dsn %q", got)
	}
	env.DBDSN = "explicit"
	if env.DSN() != "explicit" {
		t.Fatalf("DB_DSN should win")
	}
}
