package middleware

import (
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/title-scrutiny/internal/api/shared/errors"
	"github.com/feral-file/title-scrutiny/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const PRINCIPAL_KEY contextKey = "principal"

// Authentication methods
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "apikey"
)

var (
	ErrMissingCredentials = errors.New("missing Authorization header")
	ErrMalformedHeader    = errors.New("invalid Authorization header format")
	ErrJWTDisabled        = errors.New("JWT public key not configured")
	ErrAPIKeysDisabled    = errors.New("no API keys configured")
	ErrInvalidAPIKey      = errors.New("invalid API key")
)

// AuthConfig holds authentication configuration of the catalog admin routes
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
	APIKeys      []string
}

// Principal is the caller of an authenticated request
type Principal struct {
	Method  string
	Subject string
}

// Name returns the subject, or the method when the credential carries none
func (p Principal) Name() string {
	if p.Subject != "" {
		return p.Subject
	}
	return p.Method
}

// Authenticator checks Authorization headers against the configured public key and API keys
type Authenticator struct {
	publicKey *rsa.PublicKey
	apiKeys   [][]byte
	parser    *jwt.Parser
}

// NewAuthenticator parses the configured credentials once
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	a := &Authenticator{
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"})),
	}
	if cfg.JWTPublicKey != "" {
		key, err := parseRSAPublicKey(cfg.JWTPublicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		a.publicKey = key
	}
	for _, key := range cfg.APIKeys {
		if key != "" {
			a.apiKeys = append(a.apiKeys, []byte(key))
		}
	}
	return a, nil
}

// Authenticate resolves the principal of an Authorization header
func (a *Authenticator) Authenticate(header string) (Principal, error) {
	if header == "" {
		return Principal{}, ErrMissingCredentials
	}
	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || credentials == "" {
		return Principal{}, ErrMalformedHeader
	}

	switch strings.ToLower(scheme) {
	case "bearer":
		claims, err := a.verifyJWT(credentials)
		if err != nil {
			return Principal{}, err
		}
		return Principal{Method: MethodJWT, Subject: claims.Subject}, nil
	case "apikey":
		if err := a.verifyAPIKey(credentials); err != nil {
			return Principal{}, err
		}
		return Principal{Method: MethodAPIKey}, nil
	default:
		return Principal{}, fmt.Errorf("unsupported authorization type: %s", scheme)
	}
}

func (a *Authenticator) verifyJWT(token string) (*jwt.RegisteredClaims, error) {
	if a.publicKey == nil {
		return nil, ErrJWTDisabled
	}
	claims := &jwt.RegisteredClaims{}
	// exp and nbf are checked by the parser
	if _, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.publicKey, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

func (a *Authenticator) verifyAPIKey(key string) error {
	if len(a.apiKeys) == 0 {
		return ErrAPIKeysDisabled
	}
	for _, valid := range a.apiKeys {
		if subtle.ConstantTimeCompare(valid, []byte(key)) == 1 {
			return nil
		}
	}
	return ErrInvalidAPIKey
}

// parseRSAPublicKey parses an RSA public key in PKIX or PKCS1 PEM form
func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}
	return rsaKey, nil
}

// Auth returns a gin middleware guarding the catalog admin routes with a JWT (Bearer) or an API key.
// An unparsable public key disables JWT authentication.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	authenticator, err := NewAuthenticator(cfg)
	if err != nil {
		logger.Error(err, zap.String("component", "auth"))
		authenticator, _ = NewAuthenticator(AuthConfig{APIKeys: cfg.APIKeys})
	}

	return func(c *gin.Context) {
		principal, err := authenticator.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Authentication failed", err.Error()))
			return
		}

		logger.Debug("Authenticated",
			zap.String("method", principal.Method),
			zap.String("subject", principal.Subject),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(PRINCIPAL_KEY, principal)
		c.Next()
	}
}

// AuthSubject returns the name of the authenticated caller, or "" for anonymous requests
func AuthSubject(c *gin.Context) string {
	v, ok := c.Get(PRINCIPAL_KEY)
	if !ok {
		return ""
	}
	principal, _ := v.(Principal)
	return principal.Name()
}
