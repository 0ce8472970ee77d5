// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwell-app/inkwell/internal/platform/apperr"
	"github.com/inkwell-app/inkwell/internal/platform/ctxutil"
	"github.com/inkwell-app/inkwell/internal/platform/respond"
	"github.com/inkwell-app/inkwell/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec`
// implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// # Route Registration Table

// Route is one endpoint entry in the explicit access table.
//
// # Design
//
// Instead of reflecting over handler metadata at request time, every route
// declares its access level at registration time. Public is a tri-state:
// nil inherits the enclosing group's default, an explicit value wins over
// the group (most specific wins).
type Route struct {
	Method  string
	Pattern string
	Public  *bool
	Handler http.HandlerFunc
}

// Group is a set of routes mounted under a shared pattern with a shared
// access default.
type Group struct {
	Pattern string
	Public  bool
	Routes  []Route
}

// MarkPublic returns the route-level marker exempting an endpoint from
// authentication, regardless of the group default.
func MarkPublic() *bool {
	public := true
	return &public
}

// MarkProtected returns the route-level marker forcing authentication,
// regardless of the group default.
func MarkProtected() *bool {
	public := false
	return &public
}

// IsPublic resolves the effective access level of a route inside a group.
func IsPublic(group Group, route Route) bool {
	if route.Public != nil {
		return *route.Public
	}
	return group.Public
}

// # Access Decision Gate

// Authenticate extracts and verifies the JWT from the Authorization header,
// then attaches the resolved identity to the request context.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds anonymously; [RequireAuth] decides.
//  3. If present, verify the JWT via [TokenVerifier].
//  4. Any failure (malformed header, bad signature, expired) is rejected
//     with ONE uniform message so the response cannot be used as an oracle
//     for why verification failed. Logs keep the expired/invalid split.
//  5. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired access token"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				// The client sees one uniform message; the reason stays in
				// the logs for observability.
				reason := "invalid"
				if errors.Is(err, sec.ErrTokenExpired) {
					reason = "expired"
				}
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"auth_token_rejected",
					slog.String("reason", reason),
				)
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired access token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered AFTER [Authenticate]. A request that carried no token
// at all ends here with a distinct "Authentication required" message; a
// request whose token failed verification never reaches this point.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// # Usage
//
// Must be registered AFTER [Authenticate]. It automatically implies
// [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
