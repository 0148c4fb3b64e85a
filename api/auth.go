/*
auth.go - JWT bearer authentication middleware

PURPOSE:
  Authenticates every /api request from an HS256-signed bearer token and
  places the caller's Identity on the request context. Handlers never
  parse tokens; they read the identity the middleware resolved.

CLAIMS:
  user_id    the employee ID (also the token subject)
  role       employee | manager | admin
  manager_id the employee's assigned manager, empty when none

TOKEN ISSUANCE:
  This service only verifies tokens. SignToken exists for tests and
  local tooling; production tokens come from the identity provider
  sharing the same secret.

SEE ALSO:
  - tracker/identity.go: The Identity type
  - server.go: Middleware wiring
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/warp/attendance-engine/tracker"
)

type contextKey string

const identityKey contextKey = "identity"

// Claims is the JWT payload this service understands.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ManagerID string `json:"manager_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer tokens and injects the caller identity
// into the request context.
func Authenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing or malformed Authorization header", nil)
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}
			if claims.UserID == "" {
				writeError(w, http.StatusUnauthorized, "Token has no user_id claim", nil)
				return
			}

			identity := tracker.Identity{
				UserID:    claims.UserID,
				Role:      tracker.Role(claims.Role),
				ManagerID: claims.ManagerID,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

// identityFrom returns the authenticated identity placed on the context
// by Authenticator.
func identityFrom(ctx context.Context) (tracker.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(tracker.Identity)
	return identity, ok
}

// SignToken issues an HS256 token for the given identity. Used by tests
// and local tooling.
func SignToken(secret []byte, identity tracker.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    identity.UserID,
		Role:      string(identity.Role),
		ManagerID: identity.ManagerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
