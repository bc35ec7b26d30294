package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/service"
)

// PasskeyService covers the WebAuthn registration and authentication
// ceremonies plus credential management.
type PasskeyService interface {
	StartRegistration(ctx context.Context, identity model.Identity) (service.RegistrationOptions, error)
	VerifyRegistration(ctx context.Context, identity model.Identity, name, attestationObjectB64, clientDataJSONB64 string) error
	StartAuthentication(ctx context.Context, identity model.Identity) (service.AuthenticationOptions, error)
	VerifyAuthentication(ctx context.Context, identity model.Identity, credentialID, signatureB64, authenticatorDataB64, clientDataJSONB64 string) error
	List(ctx context.Context, identity model.Identity) ([]model.PasskeyCredential, error)
	Delete(ctx context.Context, identity model.Identity, credentialID string) error
}

// Passkey handles the WebAuthn ceremony endpoints.
type Passkey struct {
	service        PasskeyService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewPasskey creates a new Passkey handler instance.
func NewPasskey(service PasskeyService, contextManager model.ContextManager, logger *logger.Logger) *Passkey {
	return &Passkey{service: service, contextManager: contextManager, logger: logger}
}

type verifyRegistrationRequest struct {
	Name              string `json:"name"`
	AttestationObject string `json:"attestationObject"`
	ClientDataJSON    string `json:"clientDataJSON"`
}

type verifyAuthenticationRequest struct {
	CredentialID      string `json:"credentialId"`
	Signature         string `json:"signature"`
	AuthenticatorData string `json:"authenticatorData"`
	ClientDataJSON    string `json:"clientDataJSON"`
}

type credentialResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Algorithm int32  `json:"algorithm"`
	CreatedAt string `json:"createdAt"`
}

// RegistrationOptions issues a challenge and returns creation options
// for navigator.credentials.create.
func (h *Passkey) RegistrationOptions(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	options, err := h.service.StartRegistration(r.Context(), identity)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// VerifyRegistration validates an attestation response and registers the
// new credential.
func (h *Passkey) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req verifyRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	err := h.service.VerifyRegistration(r.Context(), identity, req.Name, req.AttestationObject, req.ClientDataJSON)
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthenticationOptions issues a challenge and returns request options
// for navigator.credentials.get.
func (h *Passkey) AuthenticationOptions(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	options, err := h.service.StartAuthentication(r.Context(), identity)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// VerifyAuthentication validates an assertion response and elevates the
// current session.
func (h *Passkey) VerifyAuthentication(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req verifyAuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	err := h.service.VerifyAuthentication(r.Context(), identity, req.CredentialID, req.Signature, req.AuthenticatorData, req.ClientDataJSON)
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List returns the acting user's registered passkeys.
func (h *Passkey) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	credentials, err := h.service.List(r.Context(), identity)
	if err != nil {
		handleError(w, err)
		return
	}

	response := make([]credentialResponse, 0, len(credentials))
	for _, credential := range credentials {
		response = append(response, credentialResponse{
			ID:        credential.ID,
			Name:      credential.Name,
			Algorithm: credential.Algorithm,
			CreatedAt: credential.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// Delete removes one of the acting user's passkeys.
func (h *Passkey) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	credentialID := chi.URLParam(r, "credentialID")
	if credentialID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "credential id is required"})
		return
	}

	if err := h.service.Delete(r.Context(), identity, credentialID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
