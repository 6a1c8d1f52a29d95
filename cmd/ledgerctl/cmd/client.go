package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/internal/cookies"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/refdata"
	"github.com/ledgerdesk/ledgerdesk/pkg/client"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// requestTimeout bounds every API call issued by the CLI.
const requestTimeout = 30 * time.Second

// sessionNotified records that the expired-session handler already
// told the user, so Execute can drop the redundant inline error.
var sessionNotified bool

// app bundles everything a command needs: the assembled client, the
// persistent cookie jar, and the collaborators that must be torn down
// when the command finishes.
type app struct {
	client  *client.Client
	jar     *cookies.Jar
	backend refdata.Backend
	tracing *observability.Tracing
	logger  *zap.Logger
}

// newApp builds the client from viper config. Callers must invoke
// close() when done.
func newApp() (*app, error) {
	logger := zap.NewNop()
	if viper.GetBool("verbose") {
		production, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = production
	}

	server := viper.GetString("server")
	if server == "" {
		return nil, fmt.Errorf("server base URL is required")
	}

	jar, err := cookies.Open(cookiePath(), cookiePassphrase(), server)
	if err != nil {
		return nil, err
	}

	tracing, err := observability.Setup(observability.Config{
		ServiceName: "ledgerctl",
		Enabled:     viper.GetBool("trace"),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	var backend refdata.Backend
	if dir := viper.GetString("cache-dir"); dir != "" {
		b, err := refdata.OpenBadger(dir)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	c, err := client.New(client.Config{
		BaseURL:        server,
		PageSize:       viper.GetInt("page-size"),
		HTTPClient:     &http.Client{Jar: jar, Timeout: requestTimeout},
		Logger:         logger,
		Tracer:         tracing.Tracer(),
		RefdataBackend: backend,
	})
	if err != nil {
		return nil, err
	}

	// The CLI's "redirect to login": one message, regardless of how
	// many in-flight requests saw the expired session.
	c.Gate().SetHandler(func() {
		sessionNotified = true
		fmt.Fprintln(os.Stderr, "Session expired. Run 'ledgerctl login' to sign in again.")
	})

	// A persisted cookie re-establishes the session before the command
	// runs, so a later 401 is an expiry the gate announces rather than
	// a process that never signed in.
	if jarHasCookie(jar, server) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		_, restoreErr := c.Auth().Current(ctx)
		cancel()
		if restoreErr != nil && !errors.Is(restoreErr, ledger.ErrUnauthorized) {
			logger.Warn("session restore failed", zap.Error(restoreErr))
		}
	}

	return &app{client: c, jar: jar, backend: backend, tracing: tracing, logger: logger}, nil
}

// jarHasCookie reports whether a session cookie survived from a
// previous invocation.
func jarHasCookie(jar *cookies.Jar, baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return len(jar.Cookies(u)) > 0
}

func (a *app) close() {
	a.client.Close()
	if err := a.jar.Save(); err != nil {
		a.logger.Warn("failed to persist session cookie", zap.Error(err))
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("failed to close refdata cache", zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	a.tracing.Shutdown(ctx)
	a.logger.Sync()
}

// cookiePath is where the encrypted session cookie lives.
func cookiePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ledgerctl", "session")
}

// cookiePassphrase returns the cookie-file passphrase from the
// environment, with a development fallback.
func cookiePassphrase() string {
	if p := os.Getenv("LEDGERCTL_COOKIE_PASSPHRASE"); p != "" {
		return p
	}
	return "ledgerctl-local-session"
}

// commandContext returns the context commands run under.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout+5*time.Second)
}
