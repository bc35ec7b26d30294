package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/authgate-server/internal/crypto"
	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/metrics"
	"github.com/dtroode/authgate-server/internal/model"
	"github.com/dtroode/authgate-server/internal/webauthn"
)

const ceremonyTimeoutMillis = 60000

// RelyingParty identifies this service to authenticators: the display
// name, the domain credentials are bound to and the exact origin ceremony
// responses must carry.
type RelyingParty struct {
	Name   string
	ID     string
	Origin string
}

// Passkey runs the WebAuthn registration and authentication ceremonies.
// Both pipelines fail hard on the first invalid step: a rejected
// registration never writes a credential row, a rejected authentication
// never elevates the session.
type Passkey struct {
	credentialStore model.PasskeyCredentialStore
	userStore       model.UserStore
	challenges      *Challenge
	sessions        *Session
	relyingParty    RelyingParty
	logger          *logger.Logger
}

// NewPasskey creates a new Passkey ceremony service.
func NewPasskey(
	credentialStore model.PasskeyCredentialStore,
	userStore model.UserStore,
	challenges *Challenge,
	sessions *Session,
	relyingParty RelyingParty,
	logger *logger.Logger,
) *Passkey {
	return &Passkey{
		credentialStore: credentialStore,
		userStore:       userStore,
		challenges:      challenges,
		sessions:        sessions,
		relyingParty:    relyingParty,
		logger:          logger,
	}
}

// RegistrationOptions is the JSON payload a client feeds to
// navigator.credentials.create. Binary fields are base64url text.
type RegistrationOptions struct {
	Challenge              string                 `json:"challenge"`
	RelyingParty           RelyingPartyOptions    `json:"rp"`
	User                   UserOptions            `json:"user"`
	PubKeyCredParams       []CredentialParameter  `json:"pubKeyCredParams"`
	Attestation            string                 `json:"attestation"`
	AuthenticatorSelection AuthenticatorSelection `json:"authenticatorSelection"`
	Timeout                int                    `json:"timeout"`
}

type RelyingPartyOptions struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type UserOptions struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type CredentialParameter struct {
	Alg  int32  `json:"alg"`
	Type string `json:"type"`
}

type AuthenticatorSelection struct {
	UserVerification string `json:"userVerification"`
	ResidentKey      string `json:"residentKey"`
}

// AuthenticationOptions is the JSON payload a client feeds to
// navigator.credentials.get.
type AuthenticationOptions struct {
	Challenge        string              `json:"challenge"`
	AllowCredentials []AllowedCredential `json:"allowCredentials"`
	UserVerification string              `json:"userVerification"`
	Timeout          int                 `json:"timeout"`
}

type AllowedCredential struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// StartRegistration issues a challenge and builds creation options for
// the acting user.
func (p *Passkey) StartRegistration(ctx context.Context, identity model.Identity) (RegistrationOptions, error) {
	challenge, err := p.challenges.Issue(ctx, identity.User.ID)
	if err != nil {
		return RegistrationOptions{}, err
	}

	return RegistrationOptions{
		Challenge: challenge,
		RelyingParty: RelyingPartyOptions{
			Name: p.relyingParty.Name,
			ID:   p.relyingParty.ID,
		},
		User: UserOptions{
			ID:          base64.RawURLEncoding.EncodeToString([]byte(identity.User.ID.String())),
			Name:        identity.User.Email,
			DisplayName: identity.User.Name,
		},
		PubKeyCredParams: []CredentialParameter{
			{Alg: webauthn.AlgorithmES256, Type: "public-key"},
			{Alg: webauthn.AlgorithmRS256, Type: "public-key"},
		},
		Attestation: webauthn.AttestationFormatNone,
		AuthenticatorSelection: AuthenticatorSelection{
			UserVerification: "required",
			ResidentKey:      "required",
		},
		Timeout: ceremonyTimeoutMillis,
	}, nil
}

// VerifyRegistration validates an attestation response and, on success,
// persists the credential, marks the user passkey-registered and elevates
// the current session.
func (p *Passkey) VerifyRegistration(ctx context.Context, identity model.Identity, name, attestationObjectB64, clientDataJSONB64 string) error {
	p.logger.Debug("Passkey service: verifying registration", "user_id", identity.User.ID)

	attestationObjectBytes, err := base64.StdEncoding.DecodeString(attestationObjectB64)
	if err != nil {
		return p.rejectRegistration("invalid attestation object encoding")
	}
	clientDataJSON, err := base64.StdEncoding.DecodeString(clientDataJSONB64)
	if err != nil {
		return p.rejectRegistration("invalid client data encoding")
	}

	attestation, err := webauthn.ParseAttestationObject(attestationObjectBytes)
	if err != nil {
		return p.rejectRegistration("malformed attestation object")
	}

	if attestation.Format != webauthn.AttestationFormatNone {
		return p.rejectRegistration("unsupported attestation statement format")
	}

	authData := attestation.AuthenticatorData
	if err := p.validateAuthenticatorData(authData, true); err != nil {
		metrics.CeremoniesTotal.WithLabelValues("registration", "rejected").Inc()
		return err
	}

	if err := p.validateClientData(ctx, clientDataJSON, webauthn.ClientDataTypeCreate, identity); err != nil {
		metrics.CeremoniesTotal.WithLabelValues("registration", "rejected").Inc()
		return err
	}

	extracted, err := webauthn.ExtractPublicKey(authData.Credential.PublicKey)
	if err != nil {
		return p.rejectRegistration("unsupported credential public key")
	}

	credential := model.PasskeyCredential{
		ID:        base64.RawURLEncoding.EncodeToString(authData.Credential.ID),
		UserID:    identity.User.ID,
		Name:      name,
		Algorithm: extracted.Algorithm,
		PublicKey: extracted.PublicKey,
		CreatedAt: time.Now(),
	}
	if _, err := p.credentialStore.Create(ctx, credential); err != nil {
		return fmt.Errorf("failed to create passkey credential: %w", err)
	}

	flags := identity.User.Flags()
	flags.RegisteredPasskey = true
	flags.Registered2FA = true
	if err := p.userStore.SetSecondFactorFlags(ctx, identity.User.ID, flags); err != nil {
		return fmt.Errorf("failed to update user flags: %w", err)
	}

	if err := p.sessions.SetTwoFactorVerified(ctx, identity.Session.ID); err != nil {
		return err
	}

	metrics.CeremoniesTotal.WithLabelValues("registration", "success").Inc()
	p.logger.Info("Passkey service: registration completed",
		"user_id", identity.User.ID,
		"algorithm", extracted.Algorithm)
	return nil
}

// StartAuthentication issues a challenge and lists the user's credential
// ids. Fails with not-found when the user has no registered passkey.
func (p *Passkey) StartAuthentication(ctx context.Context, identity model.Identity) (AuthenticationOptions, error) {
	credentials, err := p.credentialStore.GetByUserID(ctx, identity.User.ID)
	if err != nil {
		return AuthenticationOptions{}, fmt.Errorf("failed to get passkey credentials: %w", err)
	}
	if len(credentials) == 0 {
		return AuthenticationOptions{}, model.NewErrNotFound("no passkeys found for this user")
	}

	challenge, err := p.challenges.Issue(ctx, identity.User.ID)
	if err != nil {
		return AuthenticationOptions{}, err
	}

	allowed := make([]AllowedCredential, 0, len(credentials))
	for _, credential := range credentials {
		allowed = append(allowed, AllowedCredential{Type: "public-key", ID: credential.ID})
	}

	return AuthenticationOptions{
		Challenge:        challenge,
		AllowCredentials: allowed,
		UserVerification: "required",
		Timeout:          ceremonyTimeoutMillis,
	}, nil
}

// VerifyAuthentication validates an assertion response against a stored
// credential and elevates the session on success.
func (p *Passkey) VerifyAuthentication(ctx context.Context, identity model.Identity, credentialID, signatureB64, authenticatorDataB64, clientDataJSONB64 string) error {
	p.logger.Debug("Passkey service: verifying authentication", "user_id", identity.User.ID)

	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return p.rejectAuthentication("invalid signature encoding")
	}
	authenticatorDataBytes, err := base64.StdEncoding.DecodeString(authenticatorDataB64)
	if err != nil {
		return p.rejectAuthentication("invalid authenticator data encoding")
	}
	clientDataJSON, err := base64.StdEncoding.DecodeString(clientDataJSONB64)
	if err != nil {
		return p.rejectAuthentication("invalid client data encoding")
	}

	authData, err := webauthn.ParseAuthenticatorData(authenticatorDataBytes)
	if err != nil {
		return p.rejectAuthentication("malformed authenticator data")
	}

	if err := p.validateAuthenticatorData(authData, false); err != nil {
		metrics.CeremoniesTotal.WithLabelValues("authentication", "rejected").Inc()
		return err
	}

	if err := p.validateClientData(ctx, clientDataJSON, webauthn.ClientDataTypeGet, identity); err != nil {
		metrics.CeremoniesTotal.WithLabelValues("authentication", "rejected").Inc()
		return err
	}

	credential, err := p.credentialStore.GetByID(ctx, credentialID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewErrNotFound("credential not found or does not belong to user")
	}
	if err != nil {
		return fmt.Errorf("failed to get passkey credential: %w", err)
	}
	if credential.UserID != identity.User.ID {
		return model.NewErrNotFound("credential not found or does not belong to user")
	}

	messageHash := webauthn.AssertionSignatureMessageHash(authenticatorDataBytes, clientDataJSON)

	var valid bool
	switch credential.Algorithm {
	case webauthn.AlgorithmES256:
		valid = crypto.VerifyECDSAP256(credential.PublicKey, messageHash, signature)
	case webauthn.AlgorithmRS256:
		valid = crypto.VerifyRSAPKCS1v15SHA256(credential.PublicKey, messageHash, signature)
	default:
		return p.rejectAuthentication("unsupported algorithm for stored credential")
	}
	if !valid {
		return p.rejectAuthentication("invalid signature")
	}

	if err := p.sessions.SetTwoFactorVerified(ctx, identity.Session.ID); err != nil {
		return err
	}

	metrics.CeremoniesTotal.WithLabelValues("authentication", "success").Inc()
	p.logger.Info("Passkey service: authentication completed", "user_id", identity.User.ID)
	return nil
}

// List returns the user's registered passkeys.
func (p *Passkey) List(ctx context.Context, identity model.Identity) ([]model.PasskeyCredential, error) {
	credentials, err := p.credentialStore.GetByUserID(ctx, identity.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get passkey credentials: %w", err)
	}
	return credentials, nil
}

// Delete removes a passkey owned by the acting user. Second-factor flags
// are recomputed from post-deletion state: the passkey flag clears when
// the last credential is gone, and the derived 2FA flag clears only when
// no other factor remains.
func (p *Passkey) Delete(ctx context.Context, identity model.Identity, credentialID string) error {
	credential, err := p.credentialStore.GetByID(ctx, credentialID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewErrNotFound("passkey not found or does not belong to you")
	}
	if err != nil {
		return fmt.Errorf("failed to get passkey credential: %w", err)
	}
	if credential.UserID != identity.User.ID {
		return model.NewErrNotFound("passkey not found or does not belong to you")
	}

	if err := p.credentialStore.Delete(ctx, credentialID); err != nil {
		return fmt.Errorf("failed to delete passkey credential: %w", err)
	}

	remaining, err := p.credentialStore.CountByUserID(ctx, identity.User.ID)
	if err != nil {
		return fmt.Errorf("failed to count passkey credentials: %w", err)
	}
	if remaining > 0 {
		return nil
	}

	// Read fresh flags rather than the pre-deletion snapshot so a factor
	// registered concurrently is not clobbered.
	user, err := p.userStore.GetByID(ctx, identity.User.ID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	flags := user.Flags()
	flags.RegisteredPasskey = false
	flags.Registered2FA = flags.RegisteredTOTP || flags.RegisteredSecurityKey
	if err := p.userStore.SetSecondFactorFlags(ctx, identity.User.ID, flags); err != nil {
		return fmt.Errorf("failed to update user flags: %w", err)
	}

	p.logger.Info("Passkey service: last passkey deleted, flags recomputed", "user_id", identity.User.ID)
	return nil
}

func (p *Passkey) validateAuthenticatorData(authData webauthn.AuthenticatorData, requireCredential bool) error {
	if !authData.VerifyRelyingPartyIDHash(p.relyingParty.ID) {
		return model.NewErrBadRequest("invalid relying party id hash")
	}
	if !authData.UserPresent || !authData.UserVerified {
		return model.NewErrBadRequest("user must be present and verified")
	}
	if requireCredential && authData.Credential == nil {
		return model.NewErrBadRequest("missing credential in authenticator data")
	}
	return nil
}

func (p *Passkey) validateClientData(ctx context.Context, clientDataJSON []byte, expectedType string, identity model.Identity) error {
	clientData, err := webauthn.ParseClientData(clientDataJSON)
	if err != nil {
		return model.NewErrBadRequest("malformed client data")
	}

	if clientData.Type != expectedType {
		return model.NewErrBadRequest("invalid client data type")
	}

	challenge := base64.RawURLEncoding.EncodeToString(clientData.Challenge)
	consumed, err := p.challenges.Consume(ctx, challenge, identity.User.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return model.NewErrBadRequest("invalid or expired challenge")
	}

	if clientData.Origin != p.relyingParty.Origin {
		return model.NewErrBadRequest("invalid origin")
	}
	if clientData.CrossOrigin {
		return model.NewErrBadRequest("cross-origin requests not allowed")
	}
	return nil
}

func (p *Passkey) rejectRegistration(message string) error {
	metrics.CeremoniesTotal.WithLabelValues("registration", "rejected").Inc()
	return model.NewErrBadRequest(message)
}

func (p *Passkey) rejectAuthentication(message string) error {
	metrics.CeremoniesTotal.WithLabelValues("authentication", "rejected").Inc()
	return model.NewErrBadRequest(message)
}
