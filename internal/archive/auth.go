package archive

import (
	"context"
	"fmt"
	"strings"

	"archview/internal/secret"
)

// AuthState is the position of an Authenticator in the login flow.
type AuthState int

const (
	AuthIdle AuthState = iota
	AuthValidating
	AuthAuthenticated
	AuthRejected
	AuthLockedOut
)

func (s AuthState) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthValidating:
		return "validating"
	case AuthAuthenticated:
		return "authenticated"
	case AuthRejected:
		return "rejected"
	case AuthLockedOut:
		return "locked out"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

// DefaultAttemptLimit is the number of failed logins tolerated per process.
const DefaultAttemptLimit = 3

// Identity is the authenticated user.
type Identity struct {
	Login                  string
	UserID                 int
	Role                   string
	FullName               string
	PasswordChangeRequired bool
}

// AuthResult is the outcome of one login attempt.
type AuthResult struct {
	State        AuthState
	Identity     *Identity // only set when State is AuthAuthenticated
	AttemptsLeft int
}

// Authenticator runs the attempt-limited login against a CredentialStore.
// Once locked out it never contacts the store again.
type Authenticator struct {
	store  CredentialStore
	logger Logger

	state        AuthState
	attemptsLeft int
	identity     *Identity
}

// NewAuthenticator creates an Authenticator allowing attemptLimit failed
// validations. A non-positive limit falls back to DefaultAttemptLimit.
func NewAuthenticator(store CredentialStore, attemptLimit int, logger Logger) *Authenticator {
	if attemptLimit <= 0 {
		attemptLimit = DefaultAttemptLimit
	}
	return &Authenticator{
		store:        store,
		logger:       logger,
		state:        AuthIdle,
		attemptsLeft: attemptLimit,
	}
}

// Authenticate encodes secret and validates it for username. A nil error
// means the result is AuthAuthenticated. Rejections return a *RejectedError;
// exhausting the attempts returns an error wrapping ErrLockedOut, after which
// every call fails the same way.
func (a *Authenticator) Authenticate(ctx context.Context, username, secretText string) (*AuthResult, error) {
	if a.state == AuthLockedOut {
		return a.result(), ErrLockedOut
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(secretText) == "" {
		return a.reject("username and secret are required", nil)
	}
	if secret.EncodedLengthOverflows(secretText) {
		a.logger.Warn("secret too long for its length prefix", "user", strings.TrimSpace(username))
	}
	if secret.Lossy(secretText) {
		a.logger.Warn("secret not representable in the legacy encoding", "user", strings.TrimSpace(username))
	}
	return a.validate(ctx, username, secret.Encode(secretText))
}

// AuthenticateEncoded is Authenticate for a secret that is already encoded,
// as passed by non-interactive logins.
func (a *Authenticator) AuthenticateEncoded(ctx context.Context, username, encodedSecret string) (*AuthResult, error) {
	if a.state == AuthLockedOut {
		return a.result(), ErrLockedOut
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(encodedSecret) == "" {
		return a.reject("username and secret are required", nil)
	}
	return a.validate(ctx, username, strings.TrimSpace(encodedSecret))
}

func (a *Authenticator) validate(ctx context.Context, username, encodedSecret string) (*AuthResult, error) {
	login := strings.TrimSpace(username)

	if !a.store.Connected(ctx) {
		return a.reject("credential store is not connected", ErrStoreNotConnected)
	}

	a.state = AuthValidating
	v, err := a.store.Validate(ctx, login, encodedSecret)
	if err != nil {
		a.state = AuthIdle
		a.logger.Error("credential validation failed", "user", login, "error", err)
		return a.result(), fmt.Errorf("validating credentials: %w", err)
	}

	if !v.Valid {
		a.attemptsLeft--
		if a.attemptsLeft <= 0 {
			a.attemptsLeft = 0
			a.state = AuthLockedOut
			a.logger.Error("login locked out", "user", login)
			return a.result(), fmt.Errorf("user %s: %w", login, ErrLockedOut)
		}
		a.state = AuthRejected
		a.logger.Warn("login rejected", "user", login, "attempts_left", a.attemptsLeft)
		return a.result(), &RejectedError{Reason: "invalid username or secret", AttemptsLeft: a.attemptsLeft}
	}

	a.identity = &Identity{
		Login:                  login,
		UserID:                 v.UserID,
		Role:                   v.Role,
		FullName:               v.FullName,
		PasswordChangeRequired: v.PasswordChangeRequired,
	}
	a.state = AuthAuthenticated
	a.logger.Info("login accepted", "user", login, "user_id", v.UserID, "role", v.Role)
	return a.result(), nil
}

// reject refuses the attempt without counting it.
func (a *Authenticator) reject(reason string, cause error) (*AuthResult, error) {
	a.state = AuthRejected
	a.logger.Warn("login refused", "reason", reason)
	return a.result(), &RejectedError{Reason: reason, AttemptsLeft: -1, Err: cause}
}

func (a *Authenticator) result() *AuthResult {
	r := &AuthResult{State: a.state, AttemptsLeft: a.attemptsLeft}
	if a.state == AuthAuthenticated {
		r.Identity = a.identity
	}
	return r
}

// State returns the current state.
func (a *Authenticator) State() AuthState { return a.state }

// AttemptsLeft returns how many failed validations remain before lockout.
func (a *Authenticator) AttemptsLeft() int { return a.attemptsLeft }

// Identity returns the authenticated user, or nil.
func (a *Authenticator) Identity() *Identity {
	if a.state != AuthAuthenticated {
		return nil
	}
	return a.identity
}
