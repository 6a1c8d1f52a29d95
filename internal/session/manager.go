package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/internal/transport"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// Auth endpoint paths, relative to the API base.
const (
	loginPath       = "/auth/login/"
	logoutPath      = "/auth/logout/"
	currentUserPath = "/auth/current-user/"
)

// ErrBadCredentials is returned by Login when the server rejects the
// username/password pair.
var ErrBadCredentials = errors.New("invalid username or password")

// Manager drives the backend's auth endpoints and keeps the gate in
// step with the server-side session.
type Manager struct {
	api    *transport.Client
	gate   *Gate
	logger *zap.Logger
}

// NewManager creates a manager bound to the given transport and gate.
func NewManager(api *transport.Client, gate *Gate, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{api: api, gate: gate, logger: logger}
}

// Login authenticates with the backend. On success the server sets the
// session cookie on the transport's jar and the gate moves to a new
// authenticated epoch.
func (m *Manager) Login(ctx context.Context, username, password string) (*ledger.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	payload := map[string]string{"username": username, "password": password}
	var user ledger.User
	err := m.api.Post(ctx, loginPath, payload, &user)
	if err != nil {
		// A 401 here is a credentials failure, not an expired
		// session; the gate ignores it because no session was
		// established under the sampled epoch.
		if errors.Is(err, ledger.ErrUnauthorized) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	m.gate.establish(&user)
	m.logger.Info("logged in", zap.String("username", user.Username))
	return &user, nil
}

// Logout ends the server-side session and clears the gate. The gate is
// cleared even if the request fails; the local session is gone either
// way.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.api.Post(ctx, logoutPath, nil, nil)
	m.gate.reset()
	if err != nil && !errors.Is(err, ledger.ErrUnauthorized) {
		return fmt.Errorf("logout failed: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Current probes /auth/current-user/ and establishes the gate state
// from the answer. This is the app-start probe: a valid cookie yields
// the user, an expired one yields ledger.ErrUnauthorized.
func (m *Manager) Current(ctx context.Context) (*ledger.User, error) {
	var user ledger.User
	if err := m.api.Get(ctx, currentUserPath, nil, &user); err != nil {
		return nil, err
	}
	m.gate.establish(&user)
	return &user, nil
}
