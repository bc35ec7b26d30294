package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/dtroode/authgate-server/internal/crypto"
	"github.com/dtroode/authgate-server/internal/logger"
	"github.com/dtroode/authgate-server/internal/model"
)

const (
	totpSecretLength = 20
	totpPeriod       = 30
	// totpSkew accepts codes from one adjacent time step in either
	// direction to absorb clock drift.
	totpSkew = 1
)

var totpSecretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTP enrolls and verifies time-based one-time passwords. Secrets are
// AEAD-encrypted at rest and decrypted only transiently during
// verification.
type TOTP struct {
	credentialStore model.TOTPCredentialStore
	userStore       model.UserStore
	sessions        *Session
	encryptor       *crypto.Encryptor
	issuer          string
	rateLimiter     *RateLimiter
	logger          *logger.Logger
}

// NewTOTP creates a new TOTP service. issuer names this relying party in
// provisioning URIs.
func NewTOTP(
	credentialStore model.TOTPCredentialStore,
	userStore model.UserStore,
	sessions *Session,
	encryptor *crypto.Encryptor,
	issuer string,
	logger *logger.Logger,
) *TOTP {
	return &TOTP{
		credentialStore: credentialStore,
		userStore:       userStore,
		sessions:        sessions,
		encryptor:       encryptor,
		issuer:          issuer,
		rateLimiter:     NewRateLimiter(5, time.Minute),
		logger:          logger,
	}
}

// GeneratedSecret is the result of a TOTP enrollment start: a
// provisioning URI for authenticator apps and the base64 raw secret for
// manual entry.
type GeneratedSecret struct {
	ProvisioningURI string
	EncodedSecret   string
}

// GenerateSecret creates a fresh 20-byte secret, stores it encrypted
// (replacing any prior secret and invalidating its codes) and returns the
// provisioning URI. The raw secret leaves the server only here.
func (s *TOTP) GenerateSecret(ctx context.Context, identity model.Identity) (GeneratedSecret, error) {
	secret := make([]byte, totpSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return GeneratedSecret{}, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(secret)
	if err != nil {
		return GeneratedSecret{}, fmt.Errorf("failed to encrypt totp secret: %w", err)
	}

	now := time.Now()
	err = s.credentialStore.Upsert(ctx, model.TOTPCredential{
		UserID:          identity.User.ID,
		EncryptedSecret: encrypted,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return GeneratedSecret{}, fmt.Errorf("failed to store totp credential: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: identity.User.Email,
		Period:      totpPeriod,
		Secret:      secret,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return GeneratedSecret{}, fmt.Errorf("failed to build provisioning uri: %w", err)
	}

	s.logger.Info("TOTP service: secret generated", "user_id", identity.User.ID)

	return GeneratedSecret{
		ProvisioningURI: key.URL(),
		EncodedSecret:   base64.StdEncoding.EncodeToString(secret),
	}, nil
}

// VerifySetup confirms enrollment: on a valid code it marks the user as
// TOTP-registered and elevates the current session.
func (s *TOTP) VerifySetup(ctx context.Context, identity model.Identity, code string) error {
	if err := s.verifyCode(ctx, identity, code); err != nil {
		return err
	}

	flags := identity.User.Flags()
	flags.RegisteredTOTP = true
	flags.Registered2FA = true
	if err := s.userStore.SetSecondFactorFlags(ctx, identity.User.ID, flags); err != nil {
		return fmt.Errorf("failed to update user flags: %w", err)
	}

	if err := s.sessions.SetTwoFactorVerified(ctx, identity.Session.ID); err != nil {
		return err
	}

	s.logger.Info("TOTP service: enrollment completed", "user_id", identity.User.ID)
	return nil
}

// VerifyLogin completes the second factor for a login: on a valid code
// the session becomes two-factor-verified.
func (s *TOTP) VerifyLogin(ctx context.Context, identity model.Identity, code string) error {
	if identity.Session.TwoFactorVerified {
		return model.NewErrBadRequest("session is already verified")
	}

	if err := s.verifyCode(ctx, identity, code); err != nil {
		return err
	}

	if err := s.sessions.SetTwoFactorVerified(ctx, identity.Session.ID); err != nil {
		return err
	}

	s.logger.Info("TOTP service: login verification completed", "user_id", identity.User.ID)
	return nil
}

func (s *TOTP) verifyCode(ctx context.Context, identity model.Identity, code string) error {
	if ok, retryAfter := s.rateLimiter.Allow(identity.User.ID.String()); !ok {
		return model.NewErrRateLimited("too many verification attempts", int(retryAfter.Seconds())+1)
	}

	credential, err := s.credentialStore.GetByUserID(ctx, identity.User.ID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewErrNotFound("totp credentials not found for this user")
	}
	if err != nil {
		return fmt.Errorf("failed to get totp credential: %w", err)
	}

	secret, err := s.encryptor.Decrypt(credential.EncryptedSecret)
	if err != nil {
		return fmt.Errorf("failed to decrypt totp secret: %w", err)
	}

	valid, err := totp.ValidateCustom(code, totpSecretEncoding.EncodeToString(secret), time.Now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return model.NewErrBadRequest("invalid totp code")
	}
	if !valid {
		s.logger.Debug("TOTP service: code rejected", "user_id", identity.User.ID)
		return model.NewErrBadRequest("invalid totp code")
	}
	return nil
}
