package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/authgate-server/internal/api/http/context"
	"github.com/dtroode/authgate-server/internal/api/http/middleware"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/service"
	"github.com/dtroode/authgate-server/internal/testutil"
)

type stubAuthService struct {
	result service.LoginResult
	err    error

	signupEmail    string
	loginEmail     string
	loginPassword  string
	changedCurrent string
}

func (s *stubAuthService) Signup(_ context.Context, email, _, _ string) (service.LoginResult, error) {
	s.signupEmail = email
	return s.result, s.err
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (service.LoginResult, error) {
	s.loginEmail = email
	s.loginPassword = password
	return s.result, s.err
}

func (s *stubAuthService) ChangePassword(_ context.Context, _ model.Identity, currentPassword, _ string) (service.LoginResult, error) {
	s.changedCurrent = currentPassword
	return s.result, s.err
}

func makeLoginResult() service.LoginResult {
	return service.LoginResult{
		User:    model.User{ID: uuid.New(), Email: "a@b.c", Name: "Alice"},
		Session: model.Session{ID: "sid", ExpiresAt: time.Now().Add(time.Hour), TwoFactorVerified: true},
		Token:   "secret-token",
	}
}

func TestAuth_Signup(t *testing.T) {
	svc := &stubAuthService{result: makeLoginResult()}
	h := NewAuth(svc, httpctx.NewManager(), CookieConfig{}, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup",
		strings.NewReader(`{"email":"a@b.c","name":"Alice","password":"long enough password"}`))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a@b.c", svc.signupEmail)
	assert.Contains(t, rec.Body.String(), `"twoFactorVerified":true`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "secret-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestAuth_Signup_InvalidBody(t *testing.T) {
	h := NewAuth(&stubAuthService{}, httpctx.NewManager(), CookieConfig{}, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Login(t *testing.T) {
	svc := &stubAuthService{result: makeLoginResult()}
	h := NewAuth(svc, httpctx.NewManager(), CookieConfig{Secure: true}, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"long enough password"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.c", svc.loginEmail)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestAuth_Login_ServiceError(t *testing.T) {
	svc := &stubAuthService{err: model.NewErrBadRequest("invalid email or password")}
	h := NewAuth(svc, httpctx.NewManager(), CookieConfig{}, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid email or password"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuth_ChangePassword(t *testing.T) {
	svc := &stubAuthService{result: makeLoginResult()}
	ctxMgr := httpctx.NewManager()
	h := NewAuth(svc, ctxMgr, CookieConfig{}, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPut, "/v1/auth/password",
		strings.NewReader(`{"currentPassword":"old password","newPassword":"new long password"}`))
	req = req.WithContext(ctxMgr.SetIdentityToContext(req.Context(), model.Identity{
		User:    model.User{ID: uuid.New()},
		Session: model.Session{ID: "sid"},
	}))
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "old password", svc.changedCurrent)
}

func TestAuth_ChangePassword_NoIdentity(t *testing.T) {
	h := NewAuth(&stubAuthService{}, httpctx.NewManager(), CookieConfig{}, testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodPut, "/v1/auth/password",
		strings.NewReader(`{"currentPassword":"a","newPassword":"b"}`))
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
