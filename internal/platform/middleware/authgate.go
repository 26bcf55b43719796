// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/qisumi/inkvault/internal/platform/authgate"
	"github.com/qisumi/inkvault/internal/platform/constants"
	"github.com/qisumi/inkvault/internal/platform/ctxutil"
)

// exemptPrefixes lists path prefixes reachable without a session cookie:
// health checks (needed by load balancers before login) and the
// auth endpoints themselves (login must be reachable to obtain a cookie).
var exemptPrefixes = []string{
	"/health",
	"/ready",
	"/api/auth/login",
	"/api/auth/status",
}

func isExemptPath(path string) bool {
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthGate enforces the app-wide password gate described in spec §4.8. When
// gate.Enabled() is false, every request is treated as authenticated, so
// handlers never need to branch on whether a password was configured.
func AuthGate(gate *authgate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Enabled() || isExemptPath(r.URL.Path) {
				ctx := ctxutil.WithSession(r.Context(), &authgate.Session{})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			cookie, err := r.Cookie(constants.AuthCookieName)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			session, err := gate.Verify(cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
				return
			}

			ctx := ctxutil.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
