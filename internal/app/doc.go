// Package app provides the orchestration layer for the tally application.
//
// # Overview
//
// This package wires together configuration, the backend client, the
// session and the UI. It is the composition root: every long-lived object
// is created here and handed to the packages that use it.
//
// # Architecture
//
//  1. Load settings from ~/.config/tally/config.toml, .env and TALLY_* variables
//  2. Load user preferences (theme, payment method)
//  3. Open the JSON log file
//  4. Create the session manager and the API client that reads its token
//  5. Restore a saved session if the backend still accepts it
//  6. Start the TUI and block until the user exits or the context cancels
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read settings
//	       ├─────> obs.NewLogger()        JSON log file
//	       ├─────> session.NewManager()   Token and user
//	       ├─────> posapi.NewClient()     HTTP client (bearer from session)
//	       ├─────> restoreSession()       Validate saved token
//	       └─────> ui.Run()               Start TUI (blocks)
//
//	After each sign-in the UI calls the workspace opener:
//	┌─────────────────────────────────────────┐
//	│ workspaceOpener()                       │
//	│  ├─> resources.NewSet()   list screens  │
//	│  ├─> productsearch.New()  search box    │
//	│  ├─> cart.New()                         │
//	│  ├─> checkout.New()       submission    │
//	│  └─> session.OnLogout()   teardown      │
//	└─────────────────────────────────────────┘
//
// Controllers and the searcher report changes through ui.Events; the UI
// re-renders from their snapshots.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Unreadable or invalid configuration
//   - Invalid API URL
//   - Log file that cannot be created
//
// Recoverable errors (logged, the UI starts signed out):
//   - No saved session
//   - Saved token rejected or backend unreachable at startup
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		log.Fatalf("tally failed: %v", err)
//	}
package app
