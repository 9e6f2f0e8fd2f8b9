package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNKeepsExplicitValue(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://app@db:5432/shoplight"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	if cfg.DSN != "postgres://app@db:5432/shoplight" {
		t.Errorf("DSN rewritten to %q", cfg.DSN)
	}
}

func TestEnsureDSNAssemblesFromParts(t *testing.T) {
	cfg := DBConfig{
		LegacyHost:     "localhost",
		LegacyPort:     5432,
		LegacyUser:     "app",
		LegacyPassword: "s3cret",
		LegacyName:     "shoplight",
		LegacySSLMode:  "disable",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	for _, want := range []string{"postgres://", "app:s3cret@", "localhost:5432", "/shoplight", "sslmode=disable"} {
		if !strings.Contains(cfg.DSN, want) {
			t.Errorf("DSN %q missing %q", cfg.DSN, want)
		}
	}
}

func TestEnsureDSNReportsMissingParts(t *testing.T) {
	cfg := DBConfig{LegacyHost: "localhost"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatal("expected error for missing user/name")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Errorf("error %q should name the missing variables", err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "Dev"}).IsDev() {
		t.Error("IsDev should be case-insensitive")
	}
	if !(AppConfig{Env: "PROD"}).IsProd() {
		t.Error("IsProd should be case-insensitive")
	}
}
