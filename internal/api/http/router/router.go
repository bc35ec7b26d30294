// Package router wires the HTTP surface: public account endpoints,
// session-protected two-factor ceremony endpoints and operational
// endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/authgate-server/internal/api/http/handler"
	"github.com/dtroode/authgate-server/internal/api/http/middleware"
	"github.com/dtroode/authgate-server/internal/logger"
)

// Handlers groups the request handlers the router mounts.
type Handlers struct {
	Auth    *handler.Auth
	Session *handler.Session
	TOTP    *handler.TOTP
	Passkey *handler.Passkey
}

// New builds the chi mux. Everything under /v1 except signup and login
// requires a valid session cookie.
func New(h Handlers, authenticate *middleware.Authenticate, l *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewLogging(l).Handle)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.Auth.Signup)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate.Handle)

			r.Put("/auth/password", h.Auth.ChangePassword)

			r.Post("/session", h.Session.Create)
			r.Get("/session", h.Session.Get)
			r.Delete("/session", h.Session.Delete)
			r.Post("/session/invalidate-all", h.Session.DeleteAll)

			r.Post("/2fa/totp/generate", h.TOTP.Generate)
			r.Post("/2fa/totp/verify-setup", h.TOTP.VerifySetup)
			r.Post("/2fa/totp/verify-login", h.TOTP.VerifyLogin)

			r.Post("/2fa/passkey/register/options", h.Passkey.RegistrationOptions)
			r.Post("/2fa/passkey/register/verify", h.Passkey.VerifyRegistration)
			r.Post("/2fa/passkey/authenticate/options", h.Passkey.AuthenticationOptions)
			r.Post("/2fa/passkey/authenticate/verify", h.Passkey.VerifyAuthentication)

			r.Get("/2fa/passkeys", h.Passkey.List)
			r.Delete("/2fa/passkeys/{credentialID}", h.Passkey.Delete)
		})
	})

	return r
}
