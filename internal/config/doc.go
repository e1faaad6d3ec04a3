// Package config loads tally's configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tally/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. Variables from a .env file in the working directory are exported
//     unless already set
//  6. TALLY_API_URL and TALLY_LOG_FILE override the file
//
// # Default Values
//
//   - Config file: ~/.config/tally/config.toml
//   - API URL: http://127.0.0.1:8000/api/v1
//   - Page size: 10
//   - Search quiet period: 400ms
//   - Suggest limit: 10 (the backend caps it at 10)
//   - Log file: ~/.local/state/tally/tally.log
//   - Session file: ~/.config/tally/session.toml
//
// # TOML Format
//
//	api_url = "https://pos.example.com/api/v1"
//	page_size = 20
//	search_quiet_ms = 500
//	suggest_limit = 10
//	log_file = "~/.local/state/tally/tally.log"
//	session_path = "~/.config/tally/session.toml"
//
// Every field is optional. Tilde expansion is performed for paths.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, TOML
// parse errors and malformed .env files. A missing config or .env file is not
// an error, so tally works against a local backend without any setup.
package config
