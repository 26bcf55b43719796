// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authgate implements the app-wide password gate described in spec §4.8.

Unlike the per-user identity systems common in multi-tenant services, this
application has a single operator-chosen password (Config.AppPassword). When
set, every request other than a small set of exempt paths (health checks,
the login endpoint itself) must carry a valid signed session cookie.

The cookie is a compact HS256 JWT (golang-jwt/v5) so that an instance can be
restarted or scaled to multiple processes without invalidating existing
sessions, as long as they share SecretKey. There is no per-user claim to
carry: the token merely attests that the bearer presented the correct
password before its expiry.
*/
package authgate

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/qisumi/inkvault/internal/platform/constants"
)

// Session represents a verified auth-gate token. It carries no user
// identity, only the fact and expiry of authentication.
type Session struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// claims is the JWT payload signed by [Gate.Issue] and verified by [Gate.Verify].
type claims struct {
	jwt.RegisteredClaims
}

// ErrInvalidCredentials is returned by [Gate.CheckPassword] on a mismatch.
var ErrInvalidCredentials = errors.New("authgate: invalid password")

// Gate issues and verifies the app-wide auth-gate cookie.
type Gate struct {
	secret        []byte
	password      string
	sessionExpiry time.Duration
}

// New constructs a [Gate]. appPassword may be empty, in which case the gate
// is disabled (see [Gate.Enabled]) and every request is treated as authenticated.
func New(secretKey, appPassword string, sessionExpireHours int) *Gate {
	if sessionExpireHours <= 0 {
		sessionExpireHours = 168
	}
	return &Gate{
		secret:        []byte(secretKey),
		password:      appPassword,
		sessionExpiry: time.Duration(sessionExpireHours) * time.Hour,
	}
}

// Enabled reports whether a password gate is configured. When false, every
// request is implicitly authenticated and [Middleware] is a no-op passthrough.
func (g *Gate) Enabled() bool {
	return g.password != ""
}

// CheckPassword compares candidate to the configured app password using a
// constant-time comparison, independent of candidate's length.
func (g *Gate) CheckPassword(candidate string) error {
	// Hash both sides to a common length so the comparison time does not
	// leak the length of the configured password via an early
	// subtle.ConstantTimeCompare length mismatch.
	expected := sha256.Sum256([]byte(g.password))
	got := sha256.Sum256([]byte(candidate))
	if subtle.ConstantTimeCompare(expected[:], got[:]) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// Issue mints a signed session token valid for the configured expiry.
func (g *Gate) Issue() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(g.sessionExpiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.AuthIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a session token, returning the decoded [Session].
func (g *Gate) Verify(raw string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(constants.AuthIssuer))
	if err != nil {
		return nil, err
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("authgate: invalid token")
	}

	return &Session{
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// SetCookie attaches the session cookie to the response.
func (g *Gate) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie, used on logout.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
