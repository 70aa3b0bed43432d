package resconfig

import (
	"testing"
	"time"
)

func TestLoad_Defaults_AppliedWithoutFileOrEnv(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got: %s", err)
	}
	if cfg.NATSURL != defaults.NATSURL {
		t.Errorf("expected NATSURL %q, got %q", defaults.NATSURL, cfg.NATSURL)
	}
	if cfg.ServiceName != defaults.ServiceName {
		t.Errorf("expected ServiceName %q, got %q", defaults.ServiceName, cfg.ServiceName)
	}
	if cfg.QueryEventDuration != 3*time.Second {
		t.Errorf("expected QueryEventDuration 3s, got %s", cfg.QueryEventDuration)
	}
}

func TestLoad_EnvOverride_TakesPrecedenceOverDefault(t *testing.T) {
	t.Setenv("RES_SERVICE_NAME", "fromenv")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got: %s", err)
	}
	if cfg.ServiceName != "fromenv" {
		t.Errorf("expected ServiceName %q, got %q", "fromenv", cfg.ServiceName)
	}
}

func TestLoad_InvalidNATSURL_ReturnsValidationError(t *testing.T) {
	t.Setenv("RES_NATS_URL", "not a url")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for malformed NATSURL, got none")
	}
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/res-config-test.toml"); err == nil {
		t.Error("expected error for missing config file, got none")
	}
}
