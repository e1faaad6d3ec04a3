package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/five82/tally/internal/posapi"
)

var _ posapi.TokenSource = (*Manager)(nil)

// fakeAPI validates tokens against a fixed value, reading the bearer token
// through the manager the way the real client does.
type fakeAPI struct {
	tokens    posapi.TokenSource
	valid     string
	userErr   error
	loginErr  error
	lastLogin string
}

func (f *fakeAPI) Login(_ context.Context, username, _ string) (posapi.Token, error) {
	f.lastLogin = username
	if f.loginErr != nil {
		return posapi.Token{}, f.loginErr
	}
	return posapi.Token{AccessToken: f.valid, TokenType: "bearer"}, nil
}

func (f *fakeAPI) CurrentUser(context.Context) (*posapi.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	if f.tokens.Token() != f.valid {
		return nil, &posapi.APIError{Status: http.StatusUnauthorized, Detail: "Could not validate credentials"}
	}
	return &posapi.User{ID: 3, Username: "kasir", Role: "cashier"}, nil
}

func newManager(t *testing.T) (*Manager, *fakeAPI, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally", "session.toml")
	m := NewManager(path, logr.Discard())
	m.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	return m, &fakeAPI{tokens: m, valid: "tok-123"}, path
}

func TestLoginPersistsAndInitRestores(t *testing.T) {
	m, api, path := newManager(t)
	ctx := context.Background()

	user, err := m.Login(ctx, api, "  kasir ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "kasir", user.Username)
	assert.Equal(t, "kasir", api.lastLogin)
	assert.Equal(t, "tok-123", m.Token())
	assert.True(t, m.SignedIn())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := NewManager(path, logr.Discard())
	api.tokens = restored
	user, err = restored.Init(ctx, api)
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "tok-123", restored.Token())
	assert.False(t, restored.User().IsAdmin())
}

func TestInit_NoSavedToken(t *testing.T) {
	m, api, _ := newManager(t)
	_, err := m.Init(context.Background(), api)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.False(t, m.SignedIn())
}

func TestInit_RejectedTokenIsDiscarded(t *testing.T) {
	m, api, path := newManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(`access_token = "expired"`), 0o600))

	_, err := m.Init(context.Background(), api)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, m.Token())
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "rejected session file should be removed")
}

func TestInit_TransportFailureKeepsFile(t *testing.T) {
	m, api, path := newManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(`access_token = "tok-123"`), 0o600))
	api.userErr = errors.New("connection refused")

	_, err := m.Init(context.Background(), api)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, m.Token())
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestLogin_Failure(t *testing.T) {
	m, api, path := newManager(t)
	api.loginErr = &posapi.APIError{Status: http.StatusUnauthorized, Detail: "Incorrect username or password"}

	_, err := m.Login(context.Background(), api, "kasir", "wrong")
	var apiErr *posapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Incorrect username or password", apiErr.Detail)
	assert.False(t, m.SignedIn())
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestLogout_RunsTeardownAndCombinesErrors(t *testing.T) {
	m, api, path := newManager(t)
	_, err := m.Login(context.Background(), api, "kasir", "secret")
	require.NoError(t, err)

	var order []string
	m.OnLogout(func() error { order = append(order, "first"); return errors.New("close lists") })
	m.OnLogout(func() error { order = append(order, "second"); return nil })
	m.OnLogout(func() error { order = append(order, "third"); return errors.New("close search") })

	err = m.Logout()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Empty(t, m.Token())
	assert.Nil(t, m.User())
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	// Hooks run once.
	require.NoError(t, m.Logout())
	assert.Len(t, order, 3)
}

func TestClose_KeepsSavedSession(t *testing.T) {
	m, api, path := newManager(t)
	_, err := m.Login(context.Background(), api, "kasir", "secret")
	require.NoError(t, err)

	closed := 0
	m.OnLogout(func() error { closed++; return nil })

	require.NoError(t, m.Close())
	assert.Equal(t, 1, closed)
	assert.True(t, m.SignedIn())
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	require.NoError(t, m.Logout())
	assert.Equal(t, 1, closed, "hooks already ran on Close")
}
