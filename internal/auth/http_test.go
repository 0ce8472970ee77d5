// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/platform/middleware"
	"github.com/inkwell-app/inkwell/internal/platform/sec"
)

// fakeVerifier accepts exactly one token string, the way the server's real
// verifier accepts correctly signed tokens.
type fakeVerifier struct {
	validToken string
	claims     *sec.AuthClaims
}

func (verifier *fakeVerifier) VerifyToken(tokenStr string) (*sec.AuthClaims, error) {
	if tokenStr == verifier.validToken {
		return verifier.claims, nil
	}
	return nil, errors.New("fake: bad token")
}

// newAuthRouter mounts the handler's routes the same way the API server
// does: a protected group in which only marked routes skip the gate.
func newAuthRouter(t *testing.T, fixture *serviceFixture, verifier middleware.TokenVerifier) http.Handler {
	t.Helper()

	handler := auth.NewHandler(fixture.service)
	group := middleware.Group{Pattern: "/", Public: false, Routes: handler.Routes()}

	router := chi.NewRouter()
	for _, route := range group.Routes {
		endpoint := http.Handler(route.Handler)
		if !middleware.IsPublic(group, route) {
			endpoint = middleware.Authenticate(verifier)(middleware.RequireAuth(endpoint))
		}
		router.Method(route.Method, route.Pattern, endpoint)
	}
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// decodeEnvelope unwraps either the data or the error envelope into a map.
func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

/*
TestHandler_Register verifies the HTTP surface of enrollment: 201 with only
the id, 400 with field details, 409 for duplicates.
*/
func TestHandler_Register(t *testing.T) {
	fixture := newServiceFixture(t)
	router := newAuthRouter(t, fixture, &fakeVerifier{})

	t.Run("created", func(t *testing.T) {
		recorder := postJSON(t, router, "/register", map[string]string{
			"username":         "alice",
			"email":            "alice@example.com",
			"password":         "s3cret-password",
			"confirm_password": "s3cret-password",
		})

		require.Equal(t, http.StatusCreated, recorder.Code)

		data := decodeEnvelope(t, recorder)["data"].(map[string]any)
		assert.NotEmpty(t, data["id"])
		assert.Len(t, data, 1, "only the id leaves the server")
	})

	t.Run("shape_violations", func(t *testing.T) {
		recorder := postJSON(t, router, "/register", map[string]string{
			"username":         "al",
			"email":            "not-an-email",
			"password":         "short",
			"confirm_password": "",
		})

		require.Equal(t, http.StatusBadRequest, recorder.Code)

		envelope := decodeEnvelope(t, recorder)
		assert.Equal(t, "VALIDATION_ERROR", envelope["code"])
		assert.NotEmpty(t, envelope["details"])
	})

	t.Run("duplicate_email", func(t *testing.T) {
		recorder := postJSON(t, router, "/register", map[string]string{
			"username":         "alice2",
			"email":            "alice@example.com",
			"password":         "s3cret-password",
			"confirm_password": "s3cret-password",
		})

		require.Equal(t, http.StatusConflict, recorder.Code)
		assert.Equal(t, "CONFLICT", decodeEnvelope(t, recorder)["code"])
	})

	t.Run("malformed_json", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{broken"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

/*
TestHandler_Login verifies the session endpoint: pending accounts and bad
credentials both yield 401 but with distinct machine codes.
*/
func TestHandler_Login(t *testing.T) {
	fixture := newServiceFixture(t)
	router := newAuthRouter(t, fixture, &fakeVerifier{})
	accountID, code := fixture.register(t)

	t.Run("pending_account", func(t *testing.T) {
		recorder := postJSON(t, router, "/login", map[string]string{
			"username": "alice",
			"password": "s3cret-password",
		})

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "ACCOUNT_NOT_ACTIVATED", decodeEnvelope(t, recorder)["code"])
	})

	require.NoError(t, fixture.service.Verify(context.Background(), accountID, code))

	t.Run("success", func(t *testing.T) {
		recorder := postJSON(t, router, "/login", map[string]string{
			"username": "alice",
			"password": "s3cret-password",
		})

		require.Equal(t, http.StatusOK, recorder.Code)

		data := decodeEnvelope(t, recorder)["data"].(map[string]any)
		assert.Equal(t, "token-for-"+accountID, data["access_token"])

		user := data["user"].(map[string]any)
		assert.Equal(t, "alice", user["username"])
		assert.NotContains(t, user, "password_hash", "digest never serializes")
	})

	t.Run("wrong_password", func(t *testing.T) {
		recorder := postJSON(t, router, "/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		})

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, recorder)["code"])
	})

	t.Run("missing_fields", func(t *testing.T) {
		recorder := postJSON(t, router, "/login", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

/*
TestHandler_VerifyAndResend verifies the activation endpoints end to end
over HTTP, including the distinct error codes a client steers on.
*/
func TestHandler_VerifyAndResend(t *testing.T) {
	fixture := newServiceFixture(t)
	router := newAuthRouter(t, fixture, &fakeVerifier{})
	accountID, code := fixture.register(t)

	t.Run("wrong_code", func(t *testing.T) {
		recorder := postJSON(t, router, "/verify", map[string]string{
			"identifier": accountID,
			"code":       "wrong",
		})

		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "INVALID_CODE", decodeEnvelope(t, recorder)["code"])
	})

	t.Run("resend_rotates", func(t *testing.T) {
		recorder := postJSON(t, router, "/resend", map[string]string{
			"identifier": "alice@example.com",
		})

		require.Equal(t, http.StatusOK, recorder.Code)
		require.NotEqual(t, code, fixture.mailer.lastCode)
	})

	t.Run("activate_with_rotated_code", func(t *testing.T) {
		recorder := postJSON(t, router, "/verify", map[string]string{
			"identifier": accountID,
			"code":       fixture.mailer.lastCode,
		})

		require.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("repeat_activation", func(t *testing.T) {
		recorder := postJSON(t, router, "/verify", map[string]string{
			"identifier": accountID,
			"code":       fixture.mailer.lastCode,
		})

		require.Equal(t, http.StatusConflict, recorder.Code)
		assert.Equal(t, "ALREADY_ACTIVATED", decodeEnvelope(t, recorder)["code"])
	})

	t.Run("unknown_identifier", func(t *testing.T) {
		recorder := postJSON(t, router, "/resend", map[string]string{
			"identifier": "ghost@example.com",
		})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

/*
TestHandler_Profile verifies the gate wiring on the one protected route:
anonymous and bad-token requests never reach the handler.
*/
func TestHandler_Profile(t *testing.T) {
	fixture := newServiceFixture(t)
	verifier := &fakeVerifier{
		validToken: "good-token",
		claims: &sec.AuthClaims{
			UserID:   "user-1",
			Username: "alice",
			Role:     "user",
		},
	}
	router := newAuthRouter(t, fixture, verifier)

	get := func(authorization string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		if authorization != "" {
			request.Header.Set("Authorization", authorization)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("no_token", func(t *testing.T) {
		recorder := get("")

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "Authentication required", decodeEnvelope(t, recorder)["error"])
	})

	t.Run("bad_token", func(t *testing.T) {
		recorder := get("Bearer forged-token")

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "Invalid or expired access token", decodeEnvelope(t, recorder)["error"])
	})

	t.Run("authenticated", func(t *testing.T) {
		recorder := get("Bearer good-token")

		require.Equal(t, http.StatusOK, recorder.Code)

		data := decodeEnvelope(t, recorder)["data"].(map[string]any)
		assert.Equal(t, "user-1", data["id"])
		assert.Equal(t, "alice", data["username"])
		assert.Equal(t, "user", data["role"])
	})
}
