package router

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
	"github.com/dtroode/authgate-server/internal/api/http/handler"
	"github.com/dtroode/authgate-server/internal/api/http/middleware"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/service"
	"github.com/dtroode/authgate-server/internal/testutil"
)

type stubAuth struct{}

func (stubAuth) Signup(context.Context, string, string, string) (service.LoginResult, error) {
	return stubResult(), nil
}

func (stubAuth) Login(context.Context, string, string) (service.LoginResult, error) {
	return stubResult(), nil
}

func (stubAuth) ChangePassword(context.Context, model.Identity, string, string) (service.LoginResult, error) {
	return stubResult(), nil
}

type stubSessions struct {
	identity model.Identity
	err      error
}

func (s *stubSessions) Create(_ context.Context, userID uuid.UUID, flags model.SessionFlags) (model.Session, string, error) {
	return model.Session{ID: "sid", UserID: userID, ExpiresAt: time.Now().Add(time.Hour), TwoFactorVerified: flags.TwoFactorVerified}, "token", nil
}

func (s *stubSessions) Validate(context.Context, string) (model.Identity, error) {
	return s.identity, s.err
}

func (s *stubSessions) Invalidate(context.Context, string) error { return nil }

func (s *stubSessions) InvalidateAllForUser(context.Context, uuid.UUID) error { return nil }

type stubTOTP struct{}

func (stubTOTP) GenerateSecret(context.Context, model.Identity) (service.GeneratedSecret, error) {
	return service.GeneratedSecret{ProvisioningURI: "otpauth://totp/x"}, nil
}
func (stubTOTP) VerifySetup(context.Context, model.Identity, string) error { return nil }
func (stubTOTP) VerifyLogin(context.Context, model.Identity, string) error { return nil }

type stubPasskeys struct{}

func (stubPasskeys) StartRegistration(context.Context, model.Identity) (service.RegistrationOptions, error) {
	return service.RegistrationOptions{}, nil
}

func (stubPasskeys) VerifyRegistration(context.Context, model.Identity, string, string, string) error {
	return nil
}

func (stubPasskeys) StartAuthentication(context.Context, model.Identity) (service.AuthenticationOptions, error) {
	return service.AuthenticationOptions{}, nil
}

func (stubPasskeys) VerifyAuthentication(context.Context, model.Identity, string, string, string, string) error {
	return nil
}

func (stubPasskeys) List(context.Context, model.Identity) ([]model.PasskeyCredential, error) {
	return nil, nil
}
func (stubPasskeys) Delete(context.Context, model.Identity, string) error { return nil }

func stubResult() service.LoginResult {
	return service.LoginResult{
		User:    model.User{ID: uuid.New()},
		Session: model.Session{ID: "sid", ExpiresAt: time.Now().Add(time.Hour)},
		Token:   "token",
	}
}

func makeMux(sessions *stubSessions) http.Handler {
	log := testutil.MakeNoopLogger()
	ctxMgr := httpctx.NewManager()
	cookies := handler.CookieConfig{}

	handlers := Handlers{
		Auth:    handler.NewAuth(stubAuth{}, ctxMgr, cookies, log),
		Session: handler.NewSession(sessions, ctxMgr, cookies, log),
		TOTP:    handler.NewTOTP(stubTOTP{}, ctxMgr, log),
		Passkey: handler.NewPasskey(stubPasskeys{}, ctxMgr, log),
	}
	authenticate := middleware.NewAuthenticate(sessions, ctxMgr, log)
	return New(handlers, authenticate, log)
}

func TestRouter_Healthz(t *testing.T) {
	mux := makeMux(&stubSessions{err: model.ErrNotFound})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	mux := makeMux(&stubSessions{err: model.ErrNotFound})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_PublicRoutes(t *testing.T) {
	mux := makeMux(&stubSessions{err: model.ErrNotFound})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"pw"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	mux := makeMux(&stubSessions{err: model.ErrNotFound})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/session"},
		{http.MethodPost, "/v1/2fa/totp/generate"},
		{http.MethodPost, "/v1/2fa/passkey/register/options"},
		{http.MethodGet, "/v1/2fa/passkeys"},
	}

	for _, tt := range paths {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouter_ProtectedRouteWithSession(t *testing.T) {
	sessions := &stubSessions{identity: model.Identity{
		User:    model.User{ID: uuid.New()},
		Session: model.Session{ID: "sid", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	mux := makeMux(sessions)

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "token"})
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"sid"`)
}
