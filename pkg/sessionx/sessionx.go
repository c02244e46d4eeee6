// Package sessionx implements the session/identity gate: signed HS256
// session tokens carried in an HttpOnly cookie (or a bearer header for
// API callers).
package sessionx

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie the service issues on sign-in.
const CookieName = "backdesk_session"

// DefaultTTL is how long a session stays valid without re-auth.
const DefaultTTL = 12 * time.Hour

var (
	ErrNoToken      = errors.New("sessionx: no session token")
	ErrInvalidToken = errors.New("sessionx: invalid session token")
)

// Claims are the verified contents of a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and verifies session tokens with a single HMAC secret
// persisted next to the database, loaded or generated on first use.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	secure bool
}

// NewManager loads the signing secret from secretFile, generating one
// when absent. secure controls the cookie Secure flag (off in dev).
func NewManager(secretFile, issuer string, ttl time.Duration, secure bool) (*Manager, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	secret, err := loadOrGenerateSecret(secretFile)
	if err != nil {
		return nil, fmt.Errorf("load session secret: %w", err)
	}

	return &Manager{secret: secret, issuer: issuer, ttl: ttl, secure: secure}, nil
}

func loadOrGenerateSecret(file string) ([]byte, error) {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, err
	}

	if _, err := os.Stat(file); os.IsNotExist(err) {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		if err := os.WriteFile(file, secret, 0600); err != nil {
			return nil, err
		}
		return secret, nil
	}

	return os.ReadFile(file)
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a session token for the given account and role.
func (m *Manager) Issue(accountID string, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a session token, returning its claims.
func (m *Manager) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie attaches the session token to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts the session token from the cookie or, for
// API callers, from an Authorization: Bearer header.
func TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")), nil
	}
	return "", ErrNoToken
}
