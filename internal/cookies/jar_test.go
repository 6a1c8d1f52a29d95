package cookies

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`[{"name":"sessionid","value":"abc123"}]`)

	sealed, err := encrypt(plaintext, "passphrase")
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := decrypt(sealed, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	sealed, err := encrypt([]byte("secret"), "right")
	require.NoError(t, err)

	_, err = decrypt(sealed, "wrong")
	require.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	_, err := decrypt([]byte("not base64 at all!!"), "pass")
	require.Error(t, err)

	_, err = decrypt([]byte("dG9vc2hvcnQ="), "pass")
	require.Error(t, err)
}

func TestJarPersistsSessionCookie(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	base := "http://ledger.example.test/api/v1"

	jar, err := Open(path, "pass", base)
	require.NoError(t, err)

	u, _ := url.Parse("http://ledger.example.test/")
	jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "abc123", Path: "/"}})
	require.NoError(t, jar.Save())

	// File mode keeps the cookie private to the user.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A fresh jar opened against the same file sees the cookie.
	reopened, err := Open(path, "pass", base)
	require.NoError(t, err)

	apiURL, _ := url.Parse("http://ledger.example.test/api/v1/currencies/")
	cookies := reopened.Cookies(apiURL)
	require.Len(t, cookies, 1)
	assert.Equal(t, "sessionid", cookies[0].Name)
	assert.Equal(t, "abc123", cookies[0].Value)
}

func TestJarIgnoresForeignCookieFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.WriteFile(path, []byte("corrupt"), 0o600))

	jar, err := Open(path, "pass", "http://ledger.example.test/api/v1")
	require.NoError(t, err)

	u, _ := url.Parse("http://ledger.example.test/")
	assert.Empty(t, jar.Cookies(u))
}

func TestJarWrongPassphraseStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	base := "http://ledger.example.test/api/v1"

	jar, err := Open(path, "first", base)
	require.NoError(t, err)
	u, _ := url.Parse("http://ledger.example.test/")
	jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "abc", Path: "/"}})
	require.NoError(t, jar.Save())

	reopened, err := Open(path, "second", base)
	require.NoError(t, err)
	assert.Empty(t, reopened.Cookies(u))
}

func TestJarClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	base := "http://ledger.example.test/api/v1"

	jar, err := Open(path, "pass", base)
	require.NoError(t, err)
	u, _ := url.Parse("http://ledger.example.test/")
	jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "abc", Path: "/"}})
	require.NoError(t, jar.Save())

	require.NoError(t, jar.Clear())
	assert.Empty(t, jar.Cookies(u))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing again with no file present is fine.
	require.NoError(t, jar.Clear())
}

func TestOpenRejectsBadBaseURL(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "s"), "pass", "not a url")
	require.Error(t, err)
}
