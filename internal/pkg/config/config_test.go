package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.BcryptCost != 12 {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Mongo.Database != "task_system" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected store defaults: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if cfg.Activity.Workers != 4 {
		t.Fatalf("workers = %d", cfg.Activity.Workers)
	}
	if cfg.SeedAdmin() {
		t.Fatalf("admin seeding must be off without credentials")
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"PORT":             "9000",
		"ENV":              "production",
		"TOKEN_TTL":        "1h30m",
		"BCRYPT_COST":      "10",
		"ACTIVITY_WORKERS": "8",
		"ADMIN_EMAIL":      "root@x.com",
		"ADMIN_PASSWORD":   "rootpass",
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Port != "9000" || cfg.IsDevelopment() {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 90*time.Minute || cfg.Auth.BcryptCost != 10 {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Activity.Workers != 8 {
		t.Fatalf("workers = %d", cfg.Activity.Workers)
	}
	if !cfg.SeedAdmin() || cfg.Admin.Name != "Administrator" {
		t.Fatalf("unexpected admin config: %+v", cfg.Admin)
	}
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected missing JWT_SECRET error, got %v", err)
	}
}

func TestLoadFrom_InvalidTTL(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
		"TOKEN_TTL":  "-1h",
	}))
	if err == nil {
		t.Fatalf("expected error for negative TTL")
	}
}
