// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth

import (
	"net/http"

	"github.com/inkwell-app/inkwell/internal/platform/middleware"
	requestutil "github.com/inkwell-app/inkwell/internal/platform/request"
	"github.com/inkwell-app/inkwell/internal/platform/respond"
	"github.com/inkwell-app/inkwell/internal/platform/validate"
)

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the account lifecycle entry points: registration,
// activation (verify/resend), login, and the authenticated profile echo.
// It parses requests, runs boundary validation, and delegates every
// decision to [Service]. It contains NO business logic.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns the auth domain's entries for the access table.
//
// # Access Markers
//
// The lifecycle entry points carry an explicit public marker because a user
// cannot hold a token before logging in. The group they are mounted under
// defaults to protected, so /profile needs no marker of its own.
//
// # Endpoints
//   - POST /register : Creates a new (inactive) account and mails a code.
//   - POST /login    : Authenticates and returns a JWT.
//   - POST /verify   : Consumes an activation code.
//   - POST /resend   : Rotates and resends the activation code.
//   - GET  /profile  : Echoes the authenticated identity from token claims.
func (handler *Handler) Routes() []middleware.Route {
	return []middleware.Route{
		{Method: http.MethodPost, Pattern: "/register", Public: middleware.MarkPublic(), Handler: handler.register},
		{Method: http.MethodPost, Pattern: "/login", Public: middleware.MarkPublic(), Handler: handler.login},
		{Method: http.MethodPost, Pattern: "/verify", Public: middleware.MarkPublic(), Handler: handler.verify},
		{Method: http.MethodPost, Pattern: "/resend", Public: middleware.MarkPublic(), Handler: handler.resend},
		{Method: http.MethodGet, Pattern: "/profile", Handler: handler.profile},
	}
}

// registerRequest represents the JSON payload expected for account creation.
type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// register handles POST /api/v1/auth/register requests.
//
// # Returns
//   - Writes HTTP 201 Created on success with the new account id.
//   - Writes HTTP 400 Bad Request if validation rules fail.
//   - Writes HTTP 409 Conflict if email/username is taken.
//   - Writes HTTP 502 Bad Gateway if the activation mail could not be sent.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	// Shape checks only. Password confirmation and uniqueness are decided
	// by the service so the rules live in exactly one place.
	validator := &validate.Validator{}
	err := validator.
		Required("username", input.Username).
		MinLen("username", input.Username, 3).
		Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password).
		MinLen("password", input.Password, 8).
		Required("confirm_password", input.ConfirmPassword).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	accountID, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	// Only the id is returned. The digest and the activation code are
	// secrets; the code travels exclusively over email.
	respond.Created(writer, map[string]string{"id": accountID})
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK on success with AccessToken and User profile.
//   - Writes HTTP 401 Unauthorized for bad credentials or an account that
//     has not been activated yet (distinct code in the envelope).
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Username == "" || input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("username/password", "are required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		// 401 without revealing whether the username or the password was
		// wrong. ACCOUNT_NOT_ACTIVATED keeps its own code deliberately.
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{
		"access_token": session.AccessToken,
		"user":         session.User,
	})
}

// verifyRequest represents the JSON payload for account activation.
//
// Identifier accepts either the account id or the registered email; both
// caller variants are deployed.
type verifyRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

// verify handles POST /api/v1/auth/verify requests.
//
// # Returns
//   - Writes HTTP 200 OK with a confirmation message on activation.
//   - Writes HTTP 400 for an invalid or expired code (distinct codes).
//   - Writes HTTP 404 for an unknown identifier.
//   - Writes HTTP 409 if the account is already active.
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("identifier", input.Identifier).
		Required("code", input.Code).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Verify(request.Context(), input.Identifier, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Account activated successfully"})
}

// resendRequest represents the JSON payload for requesting a fresh code.
type resendRequest struct {
	Identifier string `json:"identifier"`
}

// resend handles POST /api/v1/auth/resend requests.
//
// # Returns
//   - Writes HTTP 200 OK once the new code has been sent.
//   - Writes HTTP 404 for an unknown identifier.
//   - Writes HTTP 409 if the account is already active.
//   - Writes HTTP 429 while the resend cooldown window is in place.
func (handler *Handler) resend(writer http.ResponseWriter, request *http.Request) {
	var input resendRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Identifier == "" {
		respond.Error(writer, request, validate.RequiredError("identifier", "is required"))
		return
	}

	if err := handler.authService.Resend(request.Context(), input.Identifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "A new activation code has been sent to your email"})
}

// profile handles GET /api/v1/auth/profile requests.
//
// The identity comes straight from the verified token claims; no database
// round-trip is involved.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"id":       claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}
