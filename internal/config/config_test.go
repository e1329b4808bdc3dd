package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("default port = %q", cfg.Port)
	}
	if cfg.SenderQual != "ZZ" || cfg.ReceiverQual != "ZZ" {
		t.Errorf("default qualifiers = %q %q", cfg.SenderQual, cfg.ReceiverQual)
	}
	if cfg.UsageIndicator != "T" {
		t.Errorf("default usage indicator = %q", cfg.UsageIndicator)
	}
	if !cfg.CR1Locations {
		t.Error("CR1 locations should default on")
	}
	if !cfg.IsDev() {
		t.Error("default env should be development")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	setEnv(t, "KZN_SENDER_ID", "ACME01")
	setEnv(t, "KZN_PAYER_PRESET", "UHC_CS")
	setEnv(t, "KZN_USAGE_INDICATOR", "P")
	setEnv(t, "ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SenderID != "ACME01" || cfg.PayerPreset != "UHC_CS" || cfg.UsageIndicator != "P" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.IsDev() {
		t.Error("production env should not be dev")
	}
}

func TestLoad_RejectsBadUsageIndicator(t *testing.T) {
	setEnv(t, "KZN_USAGE_INDICATOR", "X")
	if _, err := Load(); err == nil {
		t.Error("expected error for bad usage indicator")
	}
}

func TestPipeline_Mapping(t *testing.T) {
	setEnv(t, "KZN_SENDER_ID", "ACME01")
	setEnv(t, "KZN_CR1_LOCATIONS", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pc := cfg.Pipeline()
	if pc.InterchangeSenderID != "ACME01" {
		t.Errorf("sender id not mapped: %q", pc.InterchangeSenderID)
	}
	if pc.UseCR1Locations == nil || *pc.UseCR1Locations {
		t.Error("CR1 mode not mapped")
	}
}
