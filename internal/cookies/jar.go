// Package cookies provides a cookie jar that persists the backend
// session cookie between CLI invocations, encrypted at rest. Only the
// cookie survives locally; session state itself always comes from the
// server.
package cookies

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Jar wraps net/http/cookiejar with encrypted file persistence for one
// base URL. It implements http.CookieJar.
type Jar struct {
	mu         sync.Mutex
	inner      http.CookieJar
	path       string
	passphrase string
	base       *url.URL
}

// persistedCookie is the stored form of one cookie. The jar only hands
// back name/value pairs, which is all a session cookie needs.
type persistedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Open creates a jar persisted at path, scoped to the root of baseURL.
// An existing cookie file is decrypted and loaded; a missing one is
// fine.
func Open(path, passphrase, baseURL string) (*Jar, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	// Cookies are scoped to the host root so they apply to every API
	// path.
	root := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/"}

	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	j := &Jar{
		inner:      inner,
		path:       path,
		passphrase: passphrase,
		base:       root,
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Save encrypts and writes the cookies for the jar's base URL.
func (j *Jar) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var stored []persistedCookie
	for _, c := range j.inner.Cookies(j.base) {
		stored = append(stored, persistedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	sealed, err := encrypt(data, j.passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("failed to create cookie dir: %w", err)
	}
	if err := os.WriteFile(j.path, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	return nil
}

// Clear drops all cookies and removes the persisted file.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to reset cookie jar: %w", err)
	}
	j.inner = inner

	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cookie file: %w", err)
	}
	return nil
}

func (j *Jar) load() error {
	sealed, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	data, err := decrypt(sealed, j.passphrase)
	if err != nil {
		// A stale or foreign cookie file is not fatal; the user just
		// has to log in again.
		return nil
	}

	var stored []persistedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	j.inner.SetCookies(j.base, cookies)
	return nil
}
