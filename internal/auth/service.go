// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/platform/apperr"
	"github.com/inkwell-app/inkwell/internal/platform/constants"
	"github.com/inkwell-app/inkwell/internal/platform/ctxutil"
	"github.com/inkwell-app/inkwell/internal/platform/mail"
	"github.com/inkwell-app/inkwell/internal/platform/sec"
	"github.com/inkwell-app/inkwell/pkg/uuidv7"
)

// TokenProvider defines the contract for minting session tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given account.
	// The token lifetime is fixed by the provider's configuration.
	GenerateAccessToken(userID, username, role string) (string, error)
}

// CodeTTLs groups the two activation-code windows.
//
// Registration grants a long window (the user may read the email hours
// later); Resend grants a short one (the user is actively waiting). Both are
// deliberate, configurable policies rather than a single shared constant.
type CodeTTLs struct {
	Registration time.Duration
	Resend       time.Duration
}

// Service implements the account authentication and activation use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// issuance, or the activation state machine must be reviewed by the
// security team.
//
// # Ordering
//
// Every flow here is a strict sequence: validate input, hash, check
// duplicates, persist, then deliver mail. Later steps depend on earlier
// results, so nothing is reordered or parallelized.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
	hasher         *sec.Hasher
	mailer         mail.Mailer
	cooldown       CooldownStore
	codeTTL        CodeTTLs
}

// NewService constructs a new [Service] with its dependencies.
//
// cooldown may be nil, in which case resends are not throttled.
func NewService(
	userRepo UserRepository,
	tokenProv TokenProvider,
	hasher *sec.Hasher,
	mailer mail.Mailer,
	cooldown CooldownStore,
	codeTTL CodeTTLs,
) *Service {
	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
		hasher:         hasher,
		mailer:         mailer,
		cooldown:       cooldown,
		codeTTL:        codeTTL,
	}
}

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates a new account in PendingActivation state and emails the
// activation code.
//
// # Returns
//   - The new account's ID. The password digest and the code never leave
//     the service.
//   - [apperr.ValidationError] when the password confirmation mismatches.
//   - [apperr.Conflict] when the email (checked first) or username is taken.
//   - [apperr.DeliveryFailed] when the account was created but the
//     activation mail could not be sent. The account is NOT rolled back;
//     the user can recover through the resend flow.
func (service *Service) Register(ctx context.Context, input RegisterInput) (string, error) {
	// ── 1. Input Coherence ────────────────────────────────────────────────

	if input.Password != input.ConfirmPassword {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   "confirm_password",
			Message: "Passwords do not match",
		})
	}

	// ── 2. Uniqueness Checks (email first, then username) ─────────────────

	// The order is fixed so duplicate-email and duplicate-username attempts
	// produce deterministic error messages. The unique constraints in the
	// store remain the final arbiter under concurrency.
	emailTaken, err := service.userRepository.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return "", err
	}
	if emailTaken {
		return "", apperr.Conflict("Email is already registered")
	}

	usernameTaken, err := service.userRepository.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return "", err
	}
	if usernameTaken {
		return "", apperr.Conflict("Username is already taken")
	}

	// ── 3. Security ───────────────────────────────────────────────────────

	passwordHash, err := service.hasher.HashPassword(input.Password)
	if err != nil {
		// A hashing failure is an internal fault: log everything, tell the
		// client nothing specific.
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_password_hashing_failed",
			slog.String("username", input.Username),
			slog.Any("error", err),
		)
		return "", apperr.Internal(err)
	}

	code, expiresAt, err := IssueCode(service.codeTTL.Registration)
	if err != nil {
		return "", apperr.Internal(err)
	}

	// ── 4. Persistence (inactive, code attached) ──────────────────────────

	user := &User{
		ID:                 uuidv7.New(), // Time-sortable ID to prevent PG index fragmentation.
		Username:           input.Username,
		Email:              input.Email,
		PasswordHash:       passwordHash,
		Role:               sec.RoleUser, // Rule: new accounts always start as standard users.
		IsActive:           false,
		VerificationCode:   &code,
		VerificationExpiry: &expiresAt,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		return "", err
	}

	// ── 5. Delivery ───────────────────────────────────────────────────────

	// The account already exists at this point. A failed send leaves it in
	// PendingActivation: an accepted inconsistency, recovered via resend.
	if err := service.mailer.SendActivationCode(ctx, user.Email, user.Username, code, expiresAt); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_activation_mail_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return "", apperr.DeliveryFailed(err)
	}

	return user.ID, nil
}

// ValidateCredentials confirms a username/password pair.
//
// # Anti-Enumeration
//
// Unknown usernames and wrong passwords collapse into the same generic
// Unauthorized result, so the endpoint cannot be used to probe which
// usernames exist.
//
// # Scope
//
// This primitive deliberately does NOT reject inactive accounts; that is
// the login flow's decision, which keeps credential checking reusable.
func (service *Service) ValidateCredentials(ctx context.Context, username, password string) (*User, error) {
	user, err := service.userRepository.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, apperr.Unauthorized("Invalid username or password")
		}
		return nil, err
	}

	if !service.hasher.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	return user, nil
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
}

// LoginSession represents a successfully established session.
type LoginSession struct {
	AccessToken string
	User        *User
}

// Login validates credentials and mints a session token.
//
// # Flow
//  1. Validate the username/password pair.
//  2. Reject accounts that have not completed activation, with a condition
//     distinct from bad credentials (ACCOUNT_NOT_ACTIVATED).
//  3. Mint the fixed-lifetime access token.
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.ValidateCredentials(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, apperr.AccountNotActivated()
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_token_mint_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil, apperr.Internal(err)
	}

	return &LoginSession{AccessToken: accessToken, User: user}, nil
}

// Verify consumes an activation code and flips the account to Active.
//
// The identifier may be the account ID or the account email; both caller
// variants exist in the wild.
//
// # Check Order
//
// Expiry is checked before the code match, so an expired-but-correct code
// yields CODE_EXPIRED (steering the user to resend) rather than the less
// actionable INVALID_CODE.
func (service *Service) Verify(ctx context.Context, identifier, presentedCode string) error {
	user, err := service.findByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}

	// Re-verifying an activated account is rejected, never silently
	// reported as success. The previous code is already cleared.
	if user.IsActive {
		return apperr.AlreadyActivated()
	}

	if CodeExpired(user.VerificationExpiry) {
		return apperr.CodeExpired()
	}

	if !CodeValid(presentedCode, user.VerificationCode, user.VerificationExpiry) {
		return apperr.InvalidCode()
	}

	// Activation and code clearing happen in one atomic store update.
	if err := service.userRepository.Activate(ctx, user.ID); err != nil {
		return err
	}

	return nil
}

// Resend rotates the activation code and emails the new one.
//
// The previous code stops being valid as soon as the new one is persisted,
// even when its own window has not passed yet.
func (service *Service) Resend(ctx context.Context, identifier string) error {
	user, err := service.findByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}

	if user.IsActive {
		return apperr.AlreadyActivated()
	}

	// ── Cooldown (best effort) ────────────────────────────────────────────

	if service.cooldown != nil {
		acquired, cooldownErr := service.cooldown.Acquire(ctx, user.ID, constants.ResendCooldown)
		if cooldownErr != nil {
			// Fail open: a broken cooldown store must not block activation.
			ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_resend_cooldown_unavailable",
				slog.String("user_id", user.ID),
				slog.Any("error", cooldownErr),
			)
		} else if !acquired {
			return apperr.RateLimited(int(constants.ResendCooldown.Seconds()))
		}
	}

	// ── Rotate Code ───────────────────────────────────────────────────────

	code, expiresAt, err := IssueCode(service.codeTTL.Resend)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.userRepository.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	// ── Delivery ──────────────────────────────────────────────────────────

	// Same accepted inconsistency as registration: the rotated code is
	// already persisted even if the mail never leaves.
	if err := service.mailer.SendActivationCode(ctx, user.Email, user.Username, code, expiresAt); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_activation_mail_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return apperr.DeliveryFailed(err)
	}

	return nil
}

// findByIdentifier resolves an account by ID when the identifier parses as
// a UUID, otherwise by email.
func (service *Service) findByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if _, err := uuid.Parse(identifier); err == nil {
		return service.userRepository.FindByID(ctx, identifier)
	}
	return service.userRepository.FindByEmail(ctx, identifier)
}
