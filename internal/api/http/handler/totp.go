package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/service"
)

// TOTPService covers authenticator-app enrollment and verification.
type TOTPService interface {
	GenerateSecret(ctx context.Context, identity model.Identity) (service.GeneratedSecret, error)
	VerifySetup(ctx context.Context, identity model.Identity, code string) error
	VerifyLogin(ctx context.Context, identity model.Identity, code string) error
}

// TOTP handles authenticator-app enrollment and code verification
// requests.
type TOTP struct {
	service        TOTPService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewTOTP creates a new TOTP handler instance.
func NewTOTP(service TOTPService, contextManager model.ContextManager, logger *logger.Logger) *TOTP {
	return &TOTP{service: service, contextManager: contextManager, logger: logger}
}

type totpSecretResponse struct {
	ProvisioningURI string `json:"provisioningURI"`
	Secret          string `json:"secret"`
}

type totpCodeRequest struct {
	Code string `json:"code"`
}

// Generate creates and stores a fresh TOTP secret for the acting user
// and returns the provisioning URI for the authenticator app.
func (h *TOTP) Generate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	secret, err := h.service.GenerateSecret(r.Context(), identity)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, totpSecretResponse{
		ProvisioningURI: secret.ProvisioningURI,
		Secret:          secret.EncodedSecret,
	})
}

// VerifySetup confirms the freshly provisioned secret with a first code
// and marks the authenticator app as a registered second factor.
func (h *TOTP) VerifySetup(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.service.VerifySetup)
}

// VerifyLogin elevates the current session with a code from an already
// registered authenticator app.
func (h *TOTP) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.service.VerifyLogin)
}

func (h *TOTP) verify(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, identity model.Identity, code string) error) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req totpCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := fn(r.Context(), identity, req.Code); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
