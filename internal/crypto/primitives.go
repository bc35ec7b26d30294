// Package crypto wraps the hashing, signature-verification and symmetric
// encryption primitives used by the verification engines. All verification
// functions fail closed: malformed keys or signatures report failure, they
// never panic or skip the check.
package crypto

import (
	stdcrypto "crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
)

// gcmNonceSize is the nonce length prepended to every ciphertext.
const gcmNonceSize = 12

// ErrDecryptionFailed is returned when AEAD decryption cannot authenticate
// the input.
var ErrDecryptionFailed = errors.New("failed to decrypt: invalid data")

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SHA1 returns the SHA-1 digest of data. Used only for the external
// password-breach range lookup, never on a security-critical path.
func SHA1(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// VerifyECDSAP256 verifies an ASN.1 DER-encoded ECDSA signature over
// messageHash with a SEC1 uncompressed P-256 public key.
func VerifyECDSAP256(sec1PublicKey, messageHash, signature []byte) bool {
	x, y := elliptic.Unmarshal(elliptic.P256(), sec1PublicKey)
	if x == nil {
		return false
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	return ecdsa.VerifyASN1(pub, messageHash, signature)
}

// VerifyRSAPKCS1v15SHA256 verifies a PKCS#1 v1.5 signature over a SHA-256
// messageHash with a PKCS#1 DER-encoded RSA public key.
func VerifyRSAPKCS1v15SHA256(pkcs1PublicKey, messageHash, signature []byte) bool {
	pub, err := x509.ParsePKCS1PublicKey(pkcs1PublicKey)
	if err != nil {
		return false
	}
	return rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, messageHash, signature) == nil
}

// Encryptor performs AES-128-GCM encryption with a fixed key. Output
// layout is nonce ‖ ciphertext ‖ tag; a fresh random nonce is drawn per
// call.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an Encryptor from a 16-byte AES key.
func NewEncryptor(key []byte) (*Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext and prepends the nonce.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a nonce-prefixed ciphertext. Returns ErrDecryptionFailed
// on truncated input or authentication failure.
func (e *Encryptor) Decrypt(encrypted []byte) ([]byte, error) {
	if len(encrypted) < gcmNonceSize+e.aead.Overhead() {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := e.aead.Open(nil, encrypted[:gcmNonceSize], encrypted[gcmNonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
