package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogFile, "")
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PageSize != defaultPageSize {
		t.Fatalf("PageSize = %d, want %d", cfg.PageSize, defaultPageSize)
	}
	if cfg.SearchQuiet != defaultSearchQuiet {
		t.Fatalf("SearchQuiet = %v, want %v", cfg.SearchQuiet, defaultSearchQuiet)
	}

	wantLog, err := ExpandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("ExpandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if !strings.HasPrefix(cfg.SessionPath, home) {
		t.Fatalf("SessionPath = %q, want it under HOME %q", cfg.SessionPath, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogFile, "")
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://pos.example.com/api/v1  "
page_size = 25
search_quiet_ms = 650
suggest_limit = 40
log_file = "  ~/logs/tally.log  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://pos.example.com/api/v1" {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, "https://pos.example.com/api/v1")
	}
	if cfg.PageSize != 25 {
		t.Fatalf("PageSize = %d, want 25", cfg.PageSize)
	}
	if cfg.SearchQuiet != 650*time.Millisecond {
		t.Fatalf("SearchQuiet = %v, want 650ms", cfg.SearchQuiet)
	}
	if cfg.SuggestLimit != 10 {
		t.Fatalf("SuggestLimit = %d, want it capped at 10", cfg.SuggestLimit)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "tally.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogFile, "")
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "   "
page_size = 0
search_quiet_ms = -5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PageSize != defaultPageSize {
		t.Fatalf("PageSize = %d, want %d", cfg.PageSize, defaultPageSize)
	}
	if cfg.SearchQuiet != defaultSearchQuiet {
		t.Fatalf("SearchQuiet = %v, want %v", cfg.SearchQuiet, defaultSearchQuiet)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "http://10.0.0.5:8000/api/v1")
	t.Setenv(EnvLogFile, "")
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://file.example"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:8000/api/v1" {
		t.Fatalf("APIURL = %q, want the environment value", cfg.APIURL)
	}
}

func TestLoad_DotEnvFillsUnsetVariables(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")
	os.Unsetenv(EnvAPIURL)
	t.Setenv(EnvLogFile, "/already/set.log")

	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"TALLY_API_URL=http://dotenv.example/api/v1\nTALLY_LOG_FILE=/from/dotenv.log\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(filepath.Join(home, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://dotenv.example/api/v1" {
		t.Fatalf("APIURL = %q, want the .env value", cfg.APIURL)
	}
	if cfg.LogFile != "/already/set.log" {
		t.Fatalf("LogFile = %q, want the existing environment to win over .env", cfg.LogFile)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}

func TestConfigString(t *testing.T) {
	cfg := Config{APIURL: "http://x", PageSize: 10, SearchQuiet: 400 * time.Millisecond, SuggestLimit: 10}
	want := "api_url=http://x page_size=10 search_quiet=400ms suggest_limit=10"
	if got := cfg.String(); got != want {
		t.Fatalf("String = %q, want %q", got, want)
	}
}
