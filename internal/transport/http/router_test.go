package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/application/session"
	"github.com/KenzoYff/evently-ux-platform-94/internal/config"
	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	jwtinfra "github.com/KenzoYff/evently-ux-platform-94/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessions only answers the idle guard; other methods panic if reached.
type stubSessions struct {
	session.Service
	activeErr error
}

func (s *stubSessions) CheckActive(context.Context, string) error { return s.activeErr }

func testProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(priv, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pub, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	p, err := jwtinfra.NewProvider(&config.Config{JWTPrivateKeyPath: priv, JWTPublicKeyPath: pub, JWTExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func newTestRouter(t *testing.T, activeErr error) (http.Handler, *jwtinfra.Provider) {
	p := testProvider(t)
	cfg := &config.Config{AllowedOrigins: []string{"*"}, MaxDocumentBytes: 1 << 20}
	return NewRouter(cfg, &Deps{Sessions: &stubSessions{activeErr: activeErr}, JWTProvider: p}), p
}

func get(t *testing.T, h http.Handler, target, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestRouter_HealthCheck(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusOK, get(t, h, "/v1/health-check/ping", "").Code)
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	h, p := newTestRouter(t, nil)
	pending, err := p.Sign("u1", domain.RoleUser, "s1", true)
	require.NoError(t, err)
	full, err := p.Sign("u1", domain.RoleUser, "s1", false)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/v1/roles", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/v1/roles", pending).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/v1/roles", full).Code)
	assert.Equal(t, http.StatusForbidden, get(t, h, "/v1/users", full).Code)
}

func TestRouter_IdledSessionRejected(t *testing.T) {
	h, p := newTestRouter(t, domain.ErrSessionExpired)
	full, err := p.Sign("u1", domain.RoleUser, "s1", false)
	require.NoError(t, err)

	rr := get(t, h, "/v1/statuses", full)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "session expired")
}

func TestRouter_PendingRoutesCheckSession(t *testing.T) {
	h, p := newTestRouter(t, domain.ErrSessionExpired)
	pending, err := p.Sign("u1", domain.RoleUser, "s1", true)
	require.NoError(t, err)

	rr := get(t, h, "/v1/sessions", pending)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "session expired")
}
