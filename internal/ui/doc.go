// Package ui provides the terminal user interface for tally.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model. It owns presentation only: every
// list, the cart, the product search and order submission live in the core
// packages, and the model reads their snapshots when it renders.
//
// # Package Structure
//
//   - app.go: Model, Options, message routing and the Run function
//   - events.go: bridge from core callbacks to Bubble Tea messages
//   - login.go: sign-in form
//   - lists.go, listview.go: paginated list screens and their actions
//   - order.go: new order screen (search, cart, checkout)
//   - activity.go: tail of the application log
//   - header.go, help.go, modal.go: chrome and dialogs
//   - theme.go, style_helpers.go, strings.go: styling and formatting
//
// # Screens
//
//   - Products: search, category and active filters, stock in/adjust, delete
//   - Orders: status filter and status changes (non-admins see only their own)
//   - Categories, Users: create and delete
//   - Stock log: inventory history for one product
//   - Activity: recent entries from tally's own log file
//   - New order: debounced product search, cart with stock-bounded
//     quantities, payment method and notes, submission
//
// # Event Flow
//
//  1. Run starts the program with the Options built by the app package
//  2. Key handlers start core operations inside tea.Cmd functions
//  3. Controllers and the searcher report changes through Events
//  4. The model re-renders from fresh snapshots; stale responses never
//     reach it because the controllers discard them
//
// # Key Bindings
//
//   - 1/2/3/4/5: Products, Orders, Categories, Users, Activity
//   - n: New order
//   - [ and ]: Previous/next page; < and >: page size
//   - /: Search products; f: cycle category or status filter; c: clear
//   - r: Refresh (also retries a failed load)
//   - ctrl+s: Submit the order
//   - T: Cycle theme; L: Log out; ?: Help; q or ctrl+c: Quit
package ui
