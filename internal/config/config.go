package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings tally needs to reach the backend and run its
// screens.
type Config struct {
	APIURL       string
	PageSize     int
	SearchQuiet  time.Duration
	SuggestLimit int
	LogFile      string
	SessionPath  string
}

const (
	defaultConfigPath   = "~/.config/tally/config.toml"
	defaultAPIURL       = "http://127.0.0.1:8000/api/v1"
	defaultPageSize     = 10
	defaultSearchQuiet  = 400 * time.Millisecond
	defaultSuggestLimit = 10
	defaultLogFile      = "~/.local/state/tally/tally.log"
	defaultSessionPath  = "~/.config/tally/session.toml"

	// EnvAPIURL overrides api_url.
	EnvAPIURL = "TALLY_API_URL"
	// EnvLogFile overrides log_file.
	EnvLogFile = "TALLY_LOG_FILE"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the built-in settings with paths expanded.
func Default() Config {
	return Config{
		APIURL:       defaultAPIURL,
		PageSize:     defaultPageSize,
		SearchQuiet:  defaultSearchQuiet,
		SuggestLimit: defaultSuggestLimit,
		LogFile:      mustExpand(defaultLogFile),
		SessionPath:  mustExpand(defaultSessionPath),
	}
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies a .env file in the working directory and the TALLY_*
// environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.merge(bytes); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

func (c *Config) merge(bytes []byte) error {
	var raw struct {
		APIURL        string `toml:"api_url"`
		PageSize      int    `toml:"page_size"`
		SearchQuietMS int    `toml:"search_quiet_ms"`
		SuggestLimit  int    `toml:"suggest_limit"`
		LogFile       string `toml:"log_file"`
		SessionPath   string `toml:"session_path"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if raw.PageSize > 0 {
		c.PageSize = raw.PageSize
	}
	if raw.SearchQuietMS > 0 {
		c.SearchQuiet = time.Duration(raw.SearchQuietMS) * time.Millisecond
	}
	if raw.SuggestLimit > 0 {
		c.SuggestLimit = min(raw.SuggestLimit, 10)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		c.SessionPath = mustExpand(v)
	}
	return nil
}

// loadDotEnv sets variables from path that are not already in the
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// String renders the effective settings for the log.
func (c Config) String() string {
	return "api_url=" + c.APIURL +
		" page_size=" + strconv.Itoa(c.PageSize) +
		" search_quiet=" + c.SearchQuiet.String() +
		" suggest_limit=" + strconv.Itoa(c.SuggestLimit)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
