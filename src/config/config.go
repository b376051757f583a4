package config

import (
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Documented defaults. Malformed configuration values fall back to these with
// a logged diagnostic; configuration never fails startup.
const (
	DefaultFillColor    = "#0000FF"
	DefaultBorderColor  = "#000000"
	DefaultOpacity      = 0.3
	DefaultTriggerKey   = "space"
	DefaultPollInterval = 40 * time.Millisecond

	EnvFileVar = "QUICKCAP_ENV"
)

type Config struct {
	// FillColor and BorderColor style the selection preview overlay.
	FillColor   color.RGBA
	BorderColor color.RGBA
	// Opacity is the overlay translucency as a fraction in [0.0, 1.0].
	Opacity float64
	// TriggerKey is the global key that advances the selection cycle.
	// Confirm and Cancel are fixed to Enter and Escape.
	TriggerKey string
	// PollInterval is the pointer sampling period.
	PollInterval      time.Duration
	EnableFileLogging bool
}

// Default returns the built-in configuration, before any environment input.
func Default() Config {
	fill, _ := decodeHexColor(DefaultFillColor)
	border, _ := decodeHexColor(DefaultBorderColor)
	return Config{
		FillColor:    fill,
		BorderColor:  border,
		Opacity:      DefaultOpacity,
		TriggerKey:   DefaultTriggerKey,
		PollInterval: DefaultPollInterval,
	}
}

// Load reads configuration from sources in priority order:
// 1) .env in the application (executable) directory
// 2) if not found, QUICKCAP_ENV as a path to an env file
// 3) process environment
func Load() (*Config, error) {
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		FillColor:         parseHexColor("QUICKCAP_COLOR", getEnvWithDefault("QUICKCAP_COLOR", DefaultFillColor), DefaultFillColor),
		BorderColor:       parseHexColor("QUICKCAP_BORDER", getEnvWithDefault("QUICKCAP_BORDER", DefaultBorderColor), DefaultBorderColor),
		Opacity:           parseOpacity(os.Getenv("QUICKCAP_OPACITY")),
		TriggerKey:        strings.ToLower(getEnvWithDefault("QUICKCAP_TRIGGER_KEY", DefaultTriggerKey)),
		PollInterval:      parsePollInterval(os.Getenv("QUICKCAP_POLL_INTERVAL_MS")),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseHexColor parses "#RRGGBB" (case-insensitive, leading '#' optional).
// Malformed input falls back to fallback with a diagnostic.
func parseHexColor(name, value, fallback string) color.RGBA {
	c, ok := decodeHexColor(value)
	if !ok {
		log.Printf("config: invalid color %q for %s, using %s", value, name, fallback)
		c, _ = decodeHexColor(fallback)
	}
	return c
}

func decodeHexColor(value string) (color.RGBA, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
		A: 0xFF,
	}, true
}

func parseOpacity(value string) float64 {
	if value == "" {
		return DefaultOpacity
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0.0 || f > 1.0 {
		log.Printf("config: invalid opacity %q, using %v", value, DefaultOpacity)
		return DefaultOpacity
	}
	return f
}

func parsePollInterval(value string) time.Duration {
	if value == "" {
		return DefaultPollInterval
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		log.Printf("config: invalid poll interval %q, using %v", value, DefaultPollInterval)
		return DefaultPollInterval
	}
	return time.Duration(n) * time.Millisecond
}
