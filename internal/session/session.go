// Package session owns the signed-in user's token for the lifetime of the
// program. It is initialised once at start-up, updated by Login and torn
// down by Logout; nothing else holds credentials.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"github.com/five82/tally/internal/posapi"
)

// ErrNotSignedIn is returned by Init when there is no usable saved token.
var ErrNotSignedIn = errors.New("not signed in")

// API is the subset of the backend the session needs.
type API interface {
	Login(ctx context.Context, username, password string) (posapi.Token, error)
	CurrentUser(ctx context.Context) (*posapi.User, error)
}

type tokenFile struct {
	AccessToken string    `toml:"access_token"`
	TokenType   string    `toml:"token_type"`
	Username    string    `toml:"username"`
	SavedAt     time.Time `toml:"saved_at"`
}

// Manager holds the current token and user. It implements
// posapi.TokenSource.
type Manager struct {
	path   string
	logger logr.Logger
	now    func() time.Time

	mu       sync.RWMutex
	token    string
	user     *posapi.User
	teardown []func() error
}

// NewManager returns a signed-out manager persisting to path. An empty path
// keeps the token in memory only.
func NewManager(path string, logger logr.Logger) *Manager {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Manager{path: path, logger: logger, now: time.Now}
}

// Token returns the bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the signed-in user.
func (m *Manager) User() *posapi.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// SignedIn reports whether a validated user is present.
func (m *Manager) SignedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// Init restores a saved token and validates it with the backend. A rejected
// token is discarded along with its file. Other failures keep the file so
// the next start can retry.
func (m *Manager) Init(ctx context.Context, api API) (*posapi.User, error) {
	saved, err := m.load()
	if err != nil {
		return nil, err
	}
	if saved.AccessToken == "" {
		return nil, ErrNotSignedIn
	}

	m.mu.Lock()
	m.token = saved.AccessToken
	m.mu.Unlock()

	user, err := api.CurrentUser(ctx)
	if err != nil {
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()

		var apiErr *posapi.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			m.logger.Info("saved session rejected", "username", saved.Username)
			if rmErr := m.remove(); rmErr != nil {
				return nil, multierr.Append(ErrNotSignedIn, rmErr)
			}
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	m.logger.Info("session restored", "username", user.Username, "role", user.Role)
	return user, nil
}

// Login exchanges credentials for a token, loads the user and saves the
// token.
func (m *Manager) Login(ctx context.Context, api API, username, password string) (*posapi.User, error) {
	token, err := api.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.token = token.AccessToken
	m.user = nil
	m.mu.Unlock()

	user, err := api.CurrentUser(ctx)
	if err != nil {
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()
		return nil, fmt.Errorf("load current user: %w", err)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if err := m.save(tokenFile{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Username:    user.Username,
		SavedAt:     m.now().UTC(),
	}); err != nil {
		m.logger.Error(err, "persist session")
	}
	m.logger.Info("signed in", "username", user.Username, "role", user.Role)
	return user, nil
}

// OnLogout registers fn to run during Logout, most recent first.
func (m *Manager) OnLogout(fn func() error) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardown = append(m.teardown, fn)
}

// Logout runs the teardown hooks, forgets the token and user and removes the
// saved file. Every step runs even if an earlier one fails.
func (m *Manager) Logout() error {
	m.mu.Lock()
	hooks := m.teardown
	m.teardown = nil
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	errs := runHooks(hooks)
	errs = multierr.Append(errs, m.remove())
	m.logger.Info("signed out")
	return errs
}

// Close runs the teardown hooks but keeps the token, the user and the saved
// file, so the next start restores the session.
func (m *Manager) Close() error {
	m.mu.Lock()
	hooks := m.teardown
	m.teardown = nil
	m.mu.Unlock()
	return runHooks(hooks)
}

func runHooks(hooks []func() error) error {
	var errs error
	for i := len(hooks) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, hooks[i]())
	}
	return errs
}

func (m *Manager) load() (tokenFile, error) {
	var saved tokenFile
	if m.path == "" {
		return saved, nil
	}
	bytes, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return saved, nil
		}
		return saved, fmt.Errorf("read session: %w", err)
	}
	if err := toml.Unmarshal(bytes, &saved); err != nil {
		m.logger.Info("ignoring unreadable session file", "path", m.path, "error", err.Error())
		return tokenFile{}, nil
	}
	saved.AccessToken = strings.TrimSpace(saved.AccessToken)
	return saved, nil
}

func (m *Manager) save(saved tokenFile) error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	bytes, err := toml.Marshal(saved)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(m.path, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (m *Manager) remove() error {
	if m.path == "" {
		return nil
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
