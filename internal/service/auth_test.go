package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authgate-server/internal/crypto"
	"github.com/dtroode/authgate-server/internal/logger"
	servermocks "github.com/dtroode/authgate-server/internal/mocks"
	"github.com/dtroode/authgate-server/internal/model"
)

type stubBreachChecker struct {
	breached bool
	err      error
}

func (s *stubBreachChecker) IsBreached(_ context.Context, _ string) (bool, error) {
	return s.breached, s.err
}

func TestAuth_Signup(t *testing.T) {
	ctx := context.Background()
	userStore := &servermocks.UserStore{}
	sessionStore := &servermocks.SessionStore{}

	userStore.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{}, model.ErrNotFound)

	var created model.User
	userStore.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		created = u
		return u.Email == "a@b.c" && u.Name == "Alice"
	})).Return(func(_ context.Context, u model.User) (model.User, error) {
		return u, nil
	})
	sessionStore.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, sess model.Session) (model.Session, error) {
		return sess, nil
	})

	sessions := NewSession(sessionStore, userStore, logger.New(0))
	a := NewAuth(userStore, sessions, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	result, err := a.Signup(ctx, "a@b.c", "Alice", "long enough password")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	// no second factor registered yet, so the session starts verified
	assert.True(t, result.Session.TwoFactorVerified)
	assert.True(t, crypto.VerifyPassword(created.PasswordHash, "long enough password"))
	assert.NotEmpty(t, created.EncryptedRecoveryCode)

	recoveryCode, err := makeEncryptor(t).Decrypt(created.EncryptedRecoveryCode)
	require.NoError(t, err)
	assert.Len(t, recoveryCode, recoveryCodeLength)
}

func TestAuth_Signup_ExistingEmail(t *testing.T) {
	userStore := &servermocks.UserStore{}
	userStore.On("GetByEmail", mock.Anything, "existing@user.com").Return(model.User{ID: uuid.New()}, nil)

	a := NewAuth(userStore, nil, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	_, err := a.Signup(context.Background(), "existing@user.com", "Bob", "long enough password")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.KindBadRequest, authErr.Kind)
}

func TestAuth_Signup_ShortPassword(t *testing.T) {
	userStore := &servermocks.UserStore{}
	userStore.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound)

	a := NewAuth(userStore, nil, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	_, err := a.Signup(context.Background(), "a@b.c", "Alice", "short")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.KindBadRequest, authErr.Kind)
}

func TestAuth_Signup_BreachedPassword(t *testing.T) {
	userStore := &servermocks.UserStore{}
	userStore.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound)

	a := NewAuth(userStore, nil, makeEncryptor(t), &stubBreachChecker{breached: true}, logger.New(0))

	_, err := a.Signup(context.Background(), "a@b.c", "Alice", "password123456")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.KindBadRequest, authErr.Kind)
}

func TestAuth_Signup_BreachLookupOutage(t *testing.T) {
	userStore := &servermocks.UserStore{}
	sessionStore := &servermocks.SessionStore{}

	userStore.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound)
	userStore.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, u model.User) (model.User, error) {
		return u, nil
	})
	sessionStore.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, sess model.Session) (model.Session, error) {
		return sess, nil
	})

	sessions := NewSession(sessionStore, userStore, logger.New(0))
	a := NewAuth(userStore, sessions, makeEncryptor(t), &stubBreachChecker{err: errors.New("range api down")}, logger.New(0))

	// an unavailable breach corpus must not block signup
	_, err := a.Signup(context.Background(), "a@b.c", "Alice", "long enough password")
	require.NoError(t, err)
}

func TestAuth_Login(t *testing.T) {
	userStore := &servermocks.UserStore{}
	sessionStore := &servermocks.SessionStore{}

	passwordHash, err := crypto.HashPassword("correct password")
	require.NoError(t, err)
	user := model.User{ID: uuid.New(), Email: "a@b.c", PasswordHash: passwordHash, RegisteredTOTP: true, Registered2FA: true}

	userStore.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)
	sessionStore.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, sess model.Session) (model.Session, error) {
		return sess, nil
	})

	sessions := NewSession(sessionStore, userStore, logger.New(0))
	a := NewAuth(userStore, sessions, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	result, err := a.Login(context.Background(), "a@b.c", "correct password")
	require.NoError(t, err)

	assert.Equal(t, user.ID, result.User.ID)
	// a registered second factor keeps the fresh session unverified
	assert.False(t, result.Session.TwoFactorVerified)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	userStore := &servermocks.UserStore{}

	passwordHash, err := crypto.HashPassword("correct password")
	require.NoError(t, err)
	userStore.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{ID: uuid.New(), PasswordHash: passwordHash}, nil)

	a := NewAuth(userStore, nil, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	_, err = a.Login(context.Background(), "a@b.c", "wrong password")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.KindBadRequest, authErr.Kind)
	assert.Equal(t, "invalid email or password", authErr.Message)
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	userStore := &servermocks.UserStore{}
	userStore.On("GetByEmail", mock.Anything, "nobody@b.c").Return(model.User{}, model.ErrNotFound)

	a := NewAuth(userStore, nil, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	_, err := a.Login(context.Background(), "nobody@b.c", "whatever password")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	// same message as a wrong password, so emails cannot be probed
	assert.Equal(t, "invalid email or password", authErr.Message)
}

func TestAuth_Login_RateLimited(t *testing.T) {
	userStore := &servermocks.UserStore{}
	userStore.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound)

	a := NewAuth(userStore, nil, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	for i := 0; i < 10; i++ {
		_, _ = a.Login(context.Background(), "a@b.c", "guess")
	}

	_, err := a.Login(context.Background(), "a@b.c", "guess")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.KindRateLimited, authErr.Kind)
}

func TestAuth_ChangePassword(t *testing.T) {
	userStore := &servermocks.UserStore{}
	sessionStore := &servermocks.SessionStore{}

	passwordHash, err := crypto.HashPassword("old password")
	require.NoError(t, err)
	identity := model.Identity{
		User:    model.User{ID: uuid.New(), PasswordHash: passwordHash},
		Session: model.Session{ID: "sid", TwoFactorVerified: true},
	}

	userStore.On("UpdatePasswordHash", mock.Anything, identity.User.ID, mock.MatchedBy(func(hash []byte) bool {
		return crypto.VerifyPassword(hash, "new long password")
	})).Return(nil)
	sessionStore.On("DeleteByUserID", mock.Anything, identity.User.ID).Return(nil)
	sessionStore.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, sess model.Session) (model.Session, error) {
		return sess, nil
	})

	sessions := NewSession(sessionStore, userStore, logger.New(0))
	a := NewAuth(userStore, sessions, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	result, err := a.ChangePassword(context.Background(), identity, "old password", "new long password")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	// elevation carries over to the replacement session
	assert.True(t, result.Session.TwoFactorVerified)
	sessionStore.AssertCalled(t, "DeleteByUserID", mock.Anything, identity.User.ID)
}

func TestAuth_ChangePassword_WrongCurrent(t *testing.T) {
	passwordHash, err := crypto.HashPassword("old password")
	require.NoError(t, err)
	identity := model.Identity{User: model.User{ID: uuid.New(), PasswordHash: passwordHash}}

	a := NewAuth(&servermocks.UserStore{}, nil, makeEncryptor(t), &stubBreachChecker{}, logger.New(0))

	_, err = a.ChangePassword(context.Background(), identity, "not the password", "new long password")

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.KindBadRequest, authErr.Kind)
}
