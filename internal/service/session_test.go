package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authgate-server/internal/logger"
	servermocks "github.com/dtroode/authgate-server/internal/mocks"
	"github.com/dtroode/authgate-server/internal/model"
)

func TestSession_GenerateToken(t *testing.T) {
	s := NewSession(&servermocks.SessionStore{}, &servermocks.UserStore{}, logger.New(0))

	token, err := s.GenerateToken()
	require.NoError(t, err)

	// 20 bytes base32 without padding
	assert.Len(t, token, 32)
	assert.Equal(t, strings.ToLower(token), token)

	other, err := s.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestSession_IDFromToken_Deterministic(t *testing.T) {
	s := NewSession(&servermocks.SessionStore{}, &servermocks.UserStore{}, logger.New(0))

	id := s.IDFromToken("some-token")
	assert.Len(t, id, 64)
	assert.Equal(t, id, s.IDFromToken("some-token"))
	assert.NotEqual(t, id, s.IDFromToken("other-token"))
}

func TestSession_Create(t *testing.T) {
	ctx := context.Background()
	sessionStore := &servermocks.SessionStore{}
	userID := uuid.New()

	var stored model.Session
	sessionStore.On("Create", mock.Anything, mock.MatchedBy(func(sess model.Session) bool {
		stored = sess
		return sess.UserID == userID && sess.TwoFactorVerified
	})).Return(func(_ context.Context, sess model.Session) (model.Session, error) {
		return sess, nil
	})

	s := NewSession(sessionStore, &servermocks.UserStore{}, logger.New(0))

	session, token, err := s.Create(ctx, userID, model.SessionFlags{TwoFactorVerified: true})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, s.IDFromToken(token), session.ID)
	assert.WithinDuration(t, time.Now().Add(model.SessionDuration), session.ExpiresAt, time.Minute)
	assert.Equal(t, stored.ID, session.ID)
}

func TestSession_Validate(t *testing.T) {
	ctx := context.Background()
	sessionStore := &servermocks.SessionStore{}
	userStore := &servermocks.UserStore{}
	s := NewSession(sessionStore, userStore, logger.New(0))

	user := model.User{ID: uuid.New(), Email: "a@b.c"}
	token := "valid-token"
	session := model.Session{
		ID:        s.IDFromToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(model.SessionDuration),
	}

	sessionStore.On("GetByID", mock.Anything, session.ID).Return(session, nil)
	userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	identity, err := s.Validate(ctx, token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, identity.User.ID)
	assert.Equal(t, session.ID, identity.Session.ID)
	sessionStore.AssertNotCalled(t, "UpdateExpiresAt", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_Validate_UnknownToken(t *testing.T) {
	sessionStore := &servermocks.SessionStore{}
	s := NewSession(sessionStore, &servermocks.UserStore{}, logger.New(0))

	sessionStore.On("GetByID", mock.Anything, mock.Anything).Return(model.Session{}, model.ErrNotFound)

	_, err := s.Validate(context.Background(), "unknown-token")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSession_Validate_Expired(t *testing.T) {
	sessionStore := &servermocks.SessionStore{}
	userStore := &servermocks.UserStore{}
	s := NewSession(sessionStore, userStore, logger.New(0))

	user := model.User{ID: uuid.New()}
	token := "expired-token"
	session := model.Session{
		ID:        s.IDFromToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	sessionStore.On("GetByID", mock.Anything, session.ID).Return(session, nil)
	userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	sessionStore.On("Delete", mock.Anything, session.ID).Return(nil)

	_, err := s.Validate(context.Background(), token)
	require.ErrorIs(t, err, model.ErrNotFound)

	sessionStore.AssertCalled(t, "Delete", mock.Anything, session.ID)
}

func TestSession_Validate_Renewal(t *testing.T) {
	sessionStore := &servermocks.SessionStore{}
	userStore := &servermocks.UserStore{}
	s := NewSession(sessionStore, userStore, logger.New(0))

	user := model.User{ID: uuid.New()}
	token := "renewable-token"
	session := model.Session{
		ID:        s.IDFromToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(model.SessionRenewalWindow - time.Hour),
	}

	sessionStore.On("GetByID", mock.Anything, session.ID).Return(session, nil)
	userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	sessionStore.On("UpdateExpiresAt", mock.Anything, session.ID, mock.MatchedBy(func(expiresAt time.Time) bool {
		return expiresAt.After(time.Now().Add(model.SessionDuration - time.Minute))
	})).Return(nil)

	identity, err := s.Validate(context.Background(), token)
	require.NoError(t, err)

	assert.True(t, identity.Session.ExpiresAt.After(session.ExpiresAt))
	sessionStore.AssertExpectations(t)
}

func TestSession_Invalidate(t *testing.T) {
	sessionStore := &servermocks.SessionStore{}
	s := NewSession(sessionStore, &servermocks.UserStore{}, logger.New(0))

	sessionStore.On("Delete", mock.Anything, "sid").Return(nil)
	require.NoError(t, s.Invalidate(context.Background(), "sid"))
}

func TestSession_InvalidateAllForUser(t *testing.T) {
	sessionStore := &servermocks.SessionStore{}
	s := NewSession(sessionStore, &servermocks.UserStore{}, logger.New(0))

	userID := uuid.New()
	sessionStore.On("DeleteByUserID", mock.Anything, userID).Return(nil)
	require.NoError(t, s.InvalidateAllForUser(context.Background(), userID))
}
