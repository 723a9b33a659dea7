package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/title-scrutiny/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticator_Authenticate(t *testing.T) {
	key, publicPEM := newKeyPair(t)
	otherKey, _ := newKeyPair(t)
	cfg := AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"secret", ""}}

	valid := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "admin@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "admin@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	foreign := signToken(t, otherKey, jwt.RegisteredClaims{Subject: "intruder"})

	tests := []struct {
		name      string
		header    string
		cfg       AuthConfig
		principal Principal
		wantErr   error
	}{
		{name: "api key", header: "ApiKey secret", cfg: cfg, principal: Principal{Method: MethodAPIKey}},
		{name: "wrong api key", header: "ApiKey nope", cfg: cfg, wantErr: ErrInvalidAPIKey},
		{name: "no api keys configured", header: "ApiKey secret", cfg: AuthConfig{}, wantErr: ErrAPIKeysDisabled},
		{name: "jwt", header: "Bearer " + valid, cfg: cfg, principal: Principal{Method: MethodJWT, Subject: "admin@example.com"}},
		{name: "expired jwt", header: "Bearer " + expired, cfg: cfg, wantErr: jwt.ErrTokenExpired},
		{name: "jwt from another key", header: "Bearer " + foreign, cfg: cfg, wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "jwt without public key", header: "Bearer " + valid, cfg: AuthConfig{APIKeys: []string{"secret"}}, wantErr: ErrJWTDisabled},
		{name: "missing header", header: "", cfg: cfg, wantErr: ErrMissingCredentials},
		{name: "malformed header", header: "secret", cfg: cfg, wantErr: ErrMalformedHeader},
		{name: "unsupported scheme", header: "Basic secret", cfg: cfg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAuthenticator(tt.cfg)
			require.NoError(t, err)

			principal, err := a.Authenticate(tt.header)
			if tt.principal.Method == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.principal, principal)
		})
	}
}

func TestNewAuthenticator_InvalidKey(t *testing.T) {
	_, err := NewAuthenticator(AuthConfig{JWTPublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestPrincipal_Name(t *testing.T) {
	assert.Equal(t, "admin@example.com", Principal{Method: MethodJWT, Subject: "admin@example.com"}.Name())
	assert.Equal(t, MethodAPIKey, Principal{Method: MethodAPIKey}.Name())
}

func TestAuth_Middleware(t *testing.T) {
	router := gin.New()
	router.PUT("/admin", Auth(AuthConfig{APIKeys: []string{"secret"}}), func(c *gin.Context) {
		c.String(http.StatusOK, AuthSubject(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/admin", nil)
	req.Header.Set("Authorization", "ApiKey secret")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "apikey", w.Body.String())
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}
