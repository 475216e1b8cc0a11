package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ManagerPIN != "" {
		t.Fatalf("expected empty MANAGER_PIN when unset, got %q", cfg.ManagerPIN)
	}
}

func TestLoadServiceChargeRateBounds(t *testing.T) {
	t.Setenv("SERVICE_CHARGE_RATE", "0.9")
	if cfg := Load(); cfg.ServiceChargeRate != 0.05 {
		t.Fatalf("out-of-range rate must fall back to 0.05, got %v", cfg.ServiceChargeRate)
	}

	t.Setenv("SERVICE_CHARGE_RATE", "0.10")
	if cfg := Load(); cfg.ServiceChargeRate != 0.10 {
		t.Fatalf("rate = %v, want 0.10", cfg.ServiceChargeRate)
	}
}

func TestLoadTimezoneDefault(t *testing.T) {
	t.Setenv("RESTAURANT_TIMEZONE", "")
	if cfg := Load(); cfg.Timezone != "Asia/Dhaka" {
		t.Fatalf("timezone default = %q, want Asia/Dhaka", cfg.Timezone)
	}
}
