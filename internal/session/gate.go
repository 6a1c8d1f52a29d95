// Package session owns the process-wide session state: the gate that
// reacts to unauthorized-session signals and the manager that drives
// the backend's auth endpoints.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// Gate is the single choke point for authentication-failure signals.
// It tracks whether the session is authenticated, who the current user
// is, and which handler to invoke when the session expires.
//
// Every established session gets a new epoch. A 401 carries the epoch
// its request was issued under; signals for an epoch that is no longer
// current are dropped, so a slow response from before a re-login cannot
// log the fresh session out.
type Gate struct {
	mu            sync.Mutex
	epoch         uint64
	authenticated bool
	user          *ledger.User
	handler       func()
	logger        *zap.Logger
}

// NewGate creates a gate in the unauthenticated state.
func NewGate(logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{logger: logger}
}

// Epoch returns the current session epoch.
func (g *Gate) Epoch() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch
}

// NotifyUnauthorized reports a 401 observed by a request issued under
// the given epoch. The registered handler fires at most once per
// session: the first matching signal clears the state and advances the
// epoch, so duplicates and stale signals are no-ops.
func (g *Gate) NotifyUnauthorized(epoch uint64) {
	g.mu.Lock()
	if epoch != g.epoch || !g.authenticated {
		g.mu.Unlock()
		return
	}
	g.authenticated = false
	g.user = nil
	g.epoch++
	handler := g.handler
	g.mu.Unlock()

	g.logger.Info("session expired", zap.Uint64("epoch", epoch))
	if handler != nil {
		handler()
	}
}

// SetHandler registers the single expired-session handler, replacing
// any previous one. The handler runs outside the gate's lock.
func (g *Gate) SetHandler(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = fn
}

// ClearHandler deregisters the expired-session handler.
func (g *Gate) ClearHandler() {
	g.SetHandler(nil)
}

// Authenticated reports whether a session is currently established.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (g *Gate) CurrentUser() *ledger.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// establish records a freshly authenticated session under a new epoch.
func (g *Gate) establish(user *ledger.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authenticated = true
	g.user = user
	g.epoch++
}

// reset clears the session state after an explicit logout.
func (g *Gate) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authenticated = false
	g.user = nil
	g.epoch++
}
