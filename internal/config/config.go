package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigError is a missing or invalid option. Terminal for an indicator:
// polling must not start until configuration is corrected.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config option %s: %s", e.Option, e.Reason)
}

type Runtime struct {
	ConfigFile string

	CalendarURL string
	ViewerEmail string

	Staleness   time.Duration
	Poll        time.Duration
	HTTPTimeout time.Duration
	Location    *time.Location

	AssetsFile string
	LogLevel   string

	// Notify mirrors run-mode indicators to desktop notifications.
	Notify bool
}

func Load() (Runtime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
	}

	xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	defaultConfig := filepath.Join(xdgConfig, "deckcal", "deckcal.env")
	configFile := strings.TrimSpace(os.Getenv("DECKCAL_CONFIG_FILE"))
	if configFile == "" {
		configFile = defaultConfig
	}

	_ = loadEnvFile(configFile)

	v := viper.New()
	v.SetEnvPrefix("DECKCAL")
	v.AutomaticEnv()

	_ = v.BindEnv("calendar_url", "DECKCAL_CALENDAR_URL", "CALENDAR_URL")
	_ = v.BindEnv("viewer_email", "DECKCAL_VIEWER_EMAIL", "VIEWER_EMAIL")
	_ = v.BindEnv("staleness_minutes", "DECKCAL_STALENESS_MINUTES", "STALENESS_MINUTES")
	_ = v.BindEnv("poll_seconds", "DECKCAL_POLL_SECONDS", "POLL_SECONDS")
	_ = v.BindEnv("http_timeout_seconds", "DECKCAL_HTTP_TIMEOUT_SECONDS")
	_ = v.BindEnv("timezone", "DECKCAL_TIMEZONE", "TIMEZONE")
	_ = v.BindEnv("assets_file", "DECKCAL_ASSETS_FILE")
	_ = v.BindEnv("log_level", "DECKCAL_LOG_LEVEL")
	_ = v.BindEnv("notify", "DECKCAL_NOTIFY")

	v.SetDefault("staleness_minutes", 10)
	v.SetDefault("poll_seconds", 60)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("assets_file", filepath.Join(xdgConfig, "deckcal", "assets.ini"))
	v.SetDefault("log_level", "info")

	calendarURL := strings.TrimSpace(v.GetString("calendar_url"))
	if calendarURL == "" {
		return Runtime{}, &ConfigError{Option: "calendar_url", Reason: "missing feed source URL"}
	}
	if parsed, parseErr := url.Parse(calendarURL); parseErr != nil || parsed.Host == "" {
		return Runtime{}, &ConfigError{Option: "calendar_url", Reason: "not an absolute URL"}
	}

	viewerEmail := strings.TrimSpace(v.GetString("viewer_email"))
	if viewerEmail == "" {
		return Runtime{}, &ConfigError{Option: "viewer_email", Reason: "missing viewer identity"}
	}
	if !strings.Contains(viewerEmail, "@") {
		return Runtime{}, &ConfigError{Option: "viewer_email", Reason: "not an email-like identity"}
	}

	stalenessMinutes := v.GetInt("staleness_minutes")
	if stalenessMinutes <= 0 {
		stalenessMinutes = 10
	}

	pollSeconds := v.GetInt("poll_seconds")
	if pollSeconds < 5 {
		pollSeconds = 5
	}

	timeoutSeconds := v.GetInt("http_timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}

	location := time.Local
	if name := strings.TrimSpace(v.GetString("timezone")); name != "" {
		loaded, locErr := time.LoadLocation(name)
		if locErr != nil {
			return Runtime{}, &ConfigError{Option: "timezone", Reason: fmt.Sprintf("unknown zone %q", name)}
		}
		location = loaded
	}

	return Runtime{
		ConfigFile:  configFile,
		CalendarURL: calendarURL,
		ViewerEmail: viewerEmail,
		Staleness:   time.Duration(stalenessMinutes) * time.Minute,
		Poll:        time.Duration(pollSeconds) * time.Second,
		HTTPTimeout: time.Duration(timeoutSeconds) * time.Second,
		Location:    location,
		AssetsFile:  strings.TrimSpace(v.GetString("assets_file")),
		LogLevel:    strings.TrimSpace(v.GetString("log_level")),
		Notify:      v.GetBool("notify"),
	}, nil
}

func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '\'' && value[len(value)-1] == '\'') ||
				(value[0] == '"' && value[len(value)-1] == '"') {
				value = value[1 : len(value)-1]
			}
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan env file %s: %w", path, err)
	}
	return nil
}
