package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authgate-server/internal/crypto"
	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/metrics"
	"github.com/dtroode/authgate-server/internal/model"
)

const minPasswordLength = 8

const recoveryCodeAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"
const recoveryCodeLength = 10

// Auth handles password signup, login and password changes. Second-factor
// ceremonies are owned by the TOTP and Passkey services; Auth only decides
// the initial twoFactorVerified state of a new session.
type Auth struct {
	userStore     model.UserStore
	sessions      *Session
	encryptor     *crypto.Encryptor
	breachChecker BreachChecker
	rateLimiter   *RateLimiter
	logger        *logger.Logger
}

// NewAuth creates a new Auth service.
func NewAuth(
	userStore model.UserStore,
	sessions *Session,
	encryptor *crypto.Encryptor,
	breachChecker BreachChecker,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:     userStore,
		sessions:      sessions,
		encryptor:     encryptor,
		breachChecker: breachChecker,
		rateLimiter:   NewRateLimiter(10, time.Minute),
		logger:        logger,
	}
}

// LoginResult carries the created session and its secret token for
// cookie storage.
type LoginResult struct {
	User    model.User
	Session model.Session
	Token   string
}

// Signup registers a new user and logs them in. The password is checked
// for length and against the breach corpus before hashing; a recovery
// code is generated and stored encrypted.
func (a *Auth) Signup(ctx context.Context, email, name, password string) (LoginResult, error) {
	a.logger.Debug("Auth service: starting signup", "email", email)

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		return LoginResult{}, model.NewErrBadRequest("email already exists")
	}

	if err := a.checkPasswordStrength(ctx, password); err != nil {
		return LoginResult{}, err
	}

	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	recoveryCode, err := generateRecoveryCode()
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to generate recovery code: %w", err)
	}
	encryptedRecoveryCode, err := a.encryptor.Encrypt([]byte(recoveryCode))
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to encrypt recovery code: %w", err)
	}

	now := time.Now()
	user, err := a.userStore.Create(ctx, model.User{
		ID:                    uuid.New(),
		Email:                 email,
		Name:                  name,
		PasswordHash:          passwordHash,
		EncryptedRecoveryCode: encryptedRecoveryCode,
		CreatedAt:             now,
		UpdatedAt:             now,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	session, token, err := a.sessions.Create(ctx, user.ID, model.SessionFlags{
		TwoFactorVerified: !user.Registered2FA,
	})
	if err != nil {
		return LoginResult{}, err
	}
	metrics.SessionsCreatedTotal.Inc()

	a.logger.Info("Auth service: signup completed", "email", email, "user_id", user.ID)
	return LoginResult{User: user, Session: session, Token: token}, nil
}

// Login verifies the password and creates a session. The session starts
// two-factor-verified only when the user has no registered second factor.
func (a *Auth) Login(ctx context.Context, email, password string) (LoginResult, error) {
	a.logger.Debug("Auth service: starting login", "email", email)

	if ok, retryAfter := a.rateLimiter.Allow(email); !ok {
		return LoginResult{}, model.NewErrRateLimited("too many login attempts", int(retryAfter.Seconds())+1)
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, model.NewErrBadRequest("invalid email or password")
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		a.logger.Debug("Auth service: password rejected", "email", email)
		return LoginResult{}, model.NewErrBadRequest("invalid email or password")
	}

	session, token, err := a.sessions.Create(ctx, user.ID, model.SessionFlags{
		TwoFactorVerified: !user.Registered2FA,
	})
	if err != nil {
		return LoginResult{}, err
	}
	metrics.SessionsCreatedTotal.Inc()

	a.logger.Info("Auth service: login completed", "email", email, "user_id", user.ID)
	return LoginResult{User: user, Session: session, Token: token}, nil
}

// ChangePassword verifies the current password, stores a new hash and
// invalidates every session of the user, then issues a fresh session so
// the caller stays logged in.
func (a *Auth) ChangePassword(ctx context.Context, identity model.Identity, currentPassword, newPassword string) (LoginResult, error) {
	if !crypto.VerifyPassword(identity.User.PasswordHash, currentPassword) {
		return LoginResult{}, model.NewErrBadRequest("current password is incorrect")
	}

	if err := a.checkPasswordStrength(ctx, newPassword); err != nil {
		return LoginResult{}, err
	}

	passwordHash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.userStore.UpdatePasswordHash(ctx, identity.User.ID, passwordHash); err != nil {
		return LoginResult{}, fmt.Errorf("failed to update password hash: %w", err)
	}

	if err := a.sessions.InvalidateAllForUser(ctx, identity.User.ID); err != nil {
		return LoginResult{}, err
	}

	session, token, err := a.sessions.Create(ctx, identity.User.ID, model.SessionFlags{
		TwoFactorVerified: identity.Session.TwoFactorVerified,
	})
	if err != nil {
		return LoginResult{}, err
	}
	metrics.SessionsCreatedTotal.Inc()

	a.logger.Info("Auth service: password changed", "user_id", identity.User.ID)
	return LoginResult{User: identity.User, Session: session, Token: token}, nil
}

func (a *Auth) checkPasswordStrength(ctx context.Context, password string) error {
	if len(password) < minPasswordLength {
		return model.NewErrBadRequest("password is too short")
	}

	breached, err := a.breachChecker.IsBreached(ctx, password)
	if err != nil {
		// The breach corpus is an external collaborator; its outage must
		// not block signups.
		a.logger.Error("Auth service: breach lookup failed", "error", err.Error())
		return nil
	}
	if breached {
		return model.NewErrBadRequest("password has been compromised, choose a stronger password")
	}
	return nil
}

func generateRecoveryCode() (string, error) {
	code := make([]byte, recoveryCodeLength)
	max := big.NewInt(int64(len(recoveryCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = recoveryCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
