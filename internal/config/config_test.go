package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EnvFileOverrides(t *testing.T) {
	tmp := t.TempDir()
	xdgConfig := filepath.Join(tmp, "config")
	if err := os.MkdirAll(filepath.Join(xdgConfig, "deckcal"), 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}

	configFile := filepath.Join(xdgConfig, "deckcal", "deckcal.env")
	content := "CALENDAR_URL=https://calendar.example.com/feed.ics\n" +
		"VIEWER_EMAIL=viewer@example.com\n" +
		"STALENESS_MINUTES=5\n" +
		"POLL_SECONDS=30\n"
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	t.Setenv("HOME", tmp)
	t.Setenv("DECKCAL_CONFIG_FILE", configFile)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.CalendarURL != "https://calendar.example.com/feed.ics" {
		t.Fatalf("calendar url mismatch: %q", cfg.CalendarURL)
	}
	if cfg.ViewerEmail != "viewer@example.com" {
		t.Fatalf("viewer email mismatch: %q", cfg.ViewerEmail)
	}
	if cfg.Staleness != 5*time.Minute {
		t.Fatalf("staleness mismatch: %v", cfg.Staleness)
	}
	if cfg.Poll != 30*time.Second {
		t.Fatalf("poll mismatch: %v", cfg.Poll)
	}

	expectedAssets := filepath.Join(xdgConfig, "deckcal", "assets.ini")
	if cfg.AssetsFile != expectedAssets {
		t.Fatalf("assets file mismatch: %q", cfg.AssetsFile)
	}
}

func TestLoad_MissingCalendarURL(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("HOME", tmp)
	t.Setenv("DECKCAL_CONFIG_FILE", filepath.Join(tmp, "missing.env"))
	t.Setenv("DECKCAL_VIEWER_EMAIL", "viewer@example.com")
	// A prior test's env file may have exported this into the process.
	t.Setenv("CALENDAR_URL", "")

	_, err := Load()
	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if configErr.Option != "calendar_url" {
		t.Fatalf("unexpected option: %q", configErr.Option)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		option string
	}{
		{
			name: "relative_url",
			env: map[string]string{
				"DECKCAL_CALENDAR_URL": "feed.ics",
				"DECKCAL_VIEWER_EMAIL": "viewer@example.com",
			},
			option: "calendar_url",
		},
		{
			name: "identity_without_at",
			env: map[string]string{
				"DECKCAL_CALENDAR_URL": "https://calendar.example.com/feed.ics",
				"DECKCAL_VIEWER_EMAIL": "viewer",
			},
			option: "viewer_email",
		},
		{
			name: "unknown_timezone",
			env: map[string]string{
				"DECKCAL_CALENDAR_URL": "https://calendar.example.com/feed.ics",
				"DECKCAL_VIEWER_EMAIL": "viewer@example.com",
				"DECKCAL_TIMEZONE":     "Mars/Olympus",
			},
			option: "timezone",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmp := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
			t.Setenv("HOME", tmp)
			t.Setenv("DECKCAL_CONFIG_FILE", filepath.Join(tmp, "missing.env"))
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if configErr.Option != tc.option {
				t.Fatalf("unexpected option: %q", configErr.Option)
			}
		})
	}
}

func TestLoad_ClampsSmallPoll(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("HOME", tmp)
	t.Setenv("DECKCAL_CONFIG_FILE", filepath.Join(tmp, "missing.env"))
	t.Setenv("DECKCAL_CALENDAR_URL", "https://calendar.example.com/feed.ics")
	t.Setenv("DECKCAL_VIEWER_EMAIL", "viewer@example.com")
	t.Setenv("DECKCAL_POLL_SECONDS", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Poll != 5*time.Second {
		t.Fatalf("expected clamped poll, got %v", cfg.Poll)
	}
}
