// Package webauthn implements the wire-level parsing of WebAuthn ceremony
// artifacts: CBOR attestation objects, the authenticator-data binary
// structure, client-data JSON and COSE-encoded public keys. Parsers reject
// truncated or structurally invalid input with ErrInvalidData instead of
// returning partial structures.
package webauthn

import (
	"bytes"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// COSE algorithm identifiers accepted by the ceremony engine.
const (
	AlgorithmES256 int32 = -7
	AlgorithmRS256 int32 = -257
)

// COSE key types and curves.
const (
	coseKeyTypeEC2 int64 = 2
	coseKeyTypeRSA int64 = 3

	coseCurveP256 int64 = 1
)

// Attestation statement formats. Only "none" is accepted: this system
// does not verify vendor attestation chains.
const (
	AttestationFormatNone = "none"
)

// Client data ceremony types.
const (
	ClientDataTypeCreate = "webauthn.create"
	ClientDataTypeGet    = "webauthn.get"
)

// Authenticator data flag bits.
const (
	flagUserPresent        byte = 1 << 0
	flagUserVerified       byte = 1 << 2
	flagAttestedCredential byte = 1 << 6
)

// ErrInvalidData is returned for truncated or structurally invalid
// ceremony artifacts.
var ErrInvalidData = errors.New("invalid webauthn data")

// AttestationObject is the decoded registration response body.
type AttestationObject struct {
	Format            string
	AuthenticatorData AuthenticatorData
}

// AuthenticatorData is the parsed fixed-layout authenticator structure.
// Credential is non-nil only when the attested-credential flag is set.
type AuthenticatorData struct {
	RelyingPartyIDHash []byte
	UserPresent        bool
	UserVerified       bool
	SignCount          uint32
	Credential         *AttestedCredential
}

// AttestedCredential is the credential descriptor embedded in
// authenticator data during registration.
type AttestedCredential struct {
	AAGUID    []byte
	ID        []byte
	PublicKey COSEPublicKey
}

// ClientData is the parsed client-data JSON payload.
type ClientData struct {
	Type        string
	Challenge   []byte
	Origin      string
	CrossOrigin bool
}

// COSEPublicKey is a tagged union over the two accepted key families.
// Exactly one of EC2 and RSA is non-nil.
type COSEPublicKey struct {
	KeyType   int64
	Algorithm int64
	EC2       *COSEEC2PublicKey
	RSA       *COSERSAPublicKey
}

// COSEEC2PublicKey holds an EC2 key's curve and coordinates.
type COSEEC2PublicKey struct {
	Curve int64
	X     []byte
	Y     []byte
}

// COSERSAPublicKey holds an RSA key's modulus and exponent.
type COSERSAPublicKey struct {
	N []byte
	E []byte
}

type rawAttestationObject struct {
	Format   string          `cbor:"fmt"`
	AttStmt  cbor.RawMessage `cbor:"attStmt"`
	AuthData []byte          `cbor:"authData"`
}

type rawCOSEKey struct {
	KeyType   int64           `cbor:"1,keyasint"`
	Algorithm int64           `cbor:"3,keyasint"`
	Field1    cbor.RawMessage `cbor:"-1,keyasint,omitempty"`
	Field2    cbor.RawMessage `cbor:"-2,keyasint,omitempty"`
	Field3    cbor.RawMessage `cbor:"-3,keyasint,omitempty"`
}

// ParseAttestationObject decodes the CBOR attestation object and the
// authenticator data it carries.
func ParseAttestationObject(data []byte) (AttestationObject, error) {
	var raw rawAttestationObject
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return AttestationObject{}, fmt.Errorf("%w: failed to decode attestation object: %w", ErrInvalidData, err)
	}
	if raw.Format == "" || raw.AuthData == nil {
		return AttestationObject{}, fmt.Errorf("%w: attestation object missing required fields", ErrInvalidData)
	}

	authData, err := ParseAuthenticatorData(raw.AuthData)
	if err != nil {
		return AttestationObject{}, err
	}

	return AttestationObject{
		Format:            raw.Format,
		AuthenticatorData: authData,
	}, nil
}

// ParseAuthenticatorData decodes the 37-byte authenticator data header
// and, when the attested-credential flag is set, the credential
// descriptor that follows it.
func ParseAuthenticatorData(data []byte) (AuthenticatorData, error) {
	if len(data) < 37 {
		return AuthenticatorData{}, fmt.Errorf("%w: authenticator data too short", ErrInvalidData)
	}

	flags := data[32]
	authData := AuthenticatorData{
		RelyingPartyIDHash: data[0:32],
		UserPresent:        flags&flagUserPresent != 0,
		UserVerified:       flags&flagUserVerified != 0,
		SignCount:          binary.BigEndian.Uint32(data[33:37]),
	}

	if flags&flagAttestedCredential == 0 {
		return authData, nil
	}

	rest := data[37:]
	if len(rest) < 18 {
		return AuthenticatorData{}, fmt.Errorf("%w: attested credential data too short", ErrInvalidData)
	}
	aaguid := rest[0:16]
	credentialIDLength := int(binary.BigEndian.Uint16(rest[16:18]))
	if len(rest) < 18+credentialIDLength {
		return AuthenticatorData{}, fmt.Errorf("%w: truncated credential id", ErrInvalidData)
	}
	credentialID := rest[18 : 18+credentialIDLength]

	// Extension data may follow the key, so decode exactly one CBOR item.
	var rawKey rawCOSEKey
	if err := cbor.NewDecoder(bytes.NewReader(rest[18+credentialIDLength:])).Decode(&rawKey); err != nil {
		return AuthenticatorData{}, fmt.Errorf("%w: failed to decode COSE public key: %w", ErrInvalidData, err)
	}
	publicKey, err := decodeCOSEKey(rawKey)
	if err != nil {
		return AuthenticatorData{}, err
	}

	authData.Credential = &AttestedCredential{
		AAGUID:    aaguid,
		ID:        credentialID,
		PublicKey: publicKey,
	}
	return authData, nil
}

func decodeCOSEKey(raw rawCOSEKey) (COSEPublicKey, error) {
	key := COSEPublicKey{KeyType: raw.KeyType, Algorithm: raw.Algorithm}

	switch raw.KeyType {
	case coseKeyTypeEC2:
		ec2 := &COSEEC2PublicKey{}
		if err := cbor.Unmarshal(raw.Field1, &ec2.Curve); err != nil {
			return COSEPublicKey{}, fmt.Errorf("%w: invalid EC2 curve: %w", ErrInvalidData, err)
		}
		if err := cbor.Unmarshal(raw.Field2, &ec2.X); err != nil {
			return COSEPublicKey{}, fmt.Errorf("%w: invalid EC2 x coordinate: %w", ErrInvalidData, err)
		}
		if err := cbor.Unmarshal(raw.Field3, &ec2.Y); err != nil {
			return COSEPublicKey{}, fmt.Errorf("%w: invalid EC2 y coordinate: %w", ErrInvalidData, err)
		}
		key.EC2 = ec2
	case coseKeyTypeRSA:
		rsaKey := &COSERSAPublicKey{}
		if err := cbor.Unmarshal(raw.Field1, &rsaKey.N); err != nil {
			return COSEPublicKey{}, fmt.Errorf("%w: invalid RSA modulus: %w", ErrInvalidData, err)
		}
		if err := cbor.Unmarshal(raw.Field2, &rsaKey.E); err != nil {
			return COSEPublicKey{}, fmt.Errorf("%w: invalid RSA exponent: %w", ErrInvalidData, err)
		}
		key.RSA = rsaKey
	default:
		// Unknown tags are carried through and rejected at extraction.
	}

	return key, nil
}

// VerifyRelyingPartyIDHash reports whether the authenticator data is bound
// to the given relying-party id.
func (a AuthenticatorData) VerifyRelyingPartyIDHash(relyingPartyID string) bool {
	expected := sha256.Sum256([]byte(relyingPartyID))
	return bytes.Equal(a.RelyingPartyIDHash, expected[:])
}

type rawClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin *bool  `json:"crossOrigin"`
}

// ParseClientData decodes the client-data JSON payload embedded in a
// ceremony response.
func ParseClientData(data []byte) (ClientData, error) {
	var raw rawClientData
	if err := json.Unmarshal(data, &raw); err != nil {
		return ClientData{}, fmt.Errorf("%w: failed to decode client data: %w", ErrInvalidData, err)
	}
	if raw.Type == "" || raw.Challenge == "" || raw.Origin == "" {
		return ClientData{}, fmt.Errorf("%w: client data missing required fields", ErrInvalidData)
	}

	challenge, err := base64.RawURLEncoding.DecodeString(raw.Challenge)
	if err != nil {
		return ClientData{}, fmt.Errorf("%w: invalid client data challenge encoding: %w", ErrInvalidData, err)
	}

	clientData := ClientData{
		Type:      raw.Type,
		Challenge: challenge,
		Origin:    raw.Origin,
	}
	if raw.CrossOrigin != nil {
		clientData.CrossOrigin = *raw.CrossOrigin
	}
	return clientData, nil
}

// ExtractedPublicKey is a COSE key re-encoded into stored credential form.
type ExtractedPublicKey struct {
	Algorithm int32
	PublicKey []byte
}

// ExtractPublicKey validates the COSE key's type/algorithm/curve and
// re-encodes it: EC2 keys become SEC1 uncompressed points, RSA keys
// become PKCS#1 DER. Any other combination is rejected.
func ExtractPublicKey(key COSEPublicKey) (ExtractedPublicKey, error) {
	switch key.KeyType {
	case coseKeyTypeEC2:
		if int32(key.Algorithm) != AlgorithmES256 {
			return ExtractedPublicKey{}, fmt.Errorf("%w: unsupported EC2 algorithm %d", ErrInvalidData, key.Algorithm)
		}
		if key.EC2 == nil || key.EC2.Curve != coseCurveP256 {
			return ExtractedPublicKey{}, fmt.Errorf("%w: unsupported elliptic curve", ErrInvalidData)
		}
		if len(key.EC2.X) == 0 || len(key.EC2.X) > 32 || len(key.EC2.Y) == 0 || len(key.EC2.Y) > 32 {
			return ExtractedPublicKey{}, fmt.Errorf("%w: invalid EC2 coordinate length", ErrInvalidData)
		}
		return ExtractedPublicKey{
			Algorithm: AlgorithmES256,
			PublicKey: encodeSEC1Uncompressed(key.EC2.X, key.EC2.Y),
		}, nil
	case coseKeyTypeRSA:
		if int32(key.Algorithm) != AlgorithmRS256 {
			return ExtractedPublicKey{}, fmt.Errorf("%w: unsupported RSA algorithm %d", ErrInvalidData, key.Algorithm)
		}
		if key.RSA == nil || len(key.RSA.N) == 0 || len(key.RSA.E) == 0 {
			return ExtractedPublicKey{}, fmt.Errorf("%w: invalid RSA key parameters", ErrInvalidData)
		}
		e := new(big.Int).SetBytes(key.RSA.E)
		if !e.IsInt64() || e.Int64() <= 0 || e.Int64() > int64(1<<31-1) {
			return ExtractedPublicKey{}, fmt.Errorf("%w: invalid RSA exponent", ErrInvalidData)
		}
		pub := &rsa.PublicKey{N: new(big.Int).SetBytes(key.RSA.N), E: int(e.Int64())}
		return ExtractedPublicKey{
			Algorithm: AlgorithmRS256,
			PublicKey: x509.MarshalPKCS1PublicKey(pub),
		}, nil
	default:
		return ExtractedPublicKey{}, fmt.Errorf("%w: unsupported public key type %d", ErrInvalidData, key.KeyType)
	}
}

func encodeSEC1Uncompressed(x, y []byte) []byte {
	out := make([]byte, 65)
	out[0] = 0x04
	copy(out[1+32-len(x):33], x)
	copy(out[33+32-len(y):65], y)
	return out
}

// AssertionSignatureMessageHash reconstructs the message signed during an
// authentication ceremony, sha256(authenticatorData ‖ sha256(clientDataJSON)),
// and returns its digest for signature verification.
func AssertionSignatureMessageHash(authenticatorData, clientDataJSON []byte) []byte {
	clientDataHash := sha256.Sum256(clientDataJSON)
	message := make([]byte, 0, len(authenticatorData)+len(clientDataHash))
	message = append(message, authenticatorData...)
	message = append(message, clientDataHash[:]...)
	sum := sha256.Sum256(message)
	return sum[:]
}
