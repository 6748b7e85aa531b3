package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
)

// MinCredentialLength is the shortest credential accepted on join.
const MinCredentialLength = 8

// Fingerprint hashes a credential for storage. Credentials are never
// persisted in the clear.
func Fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// FingerprintMatches compares a presented credential against a stored
// fingerprint in constant time.
func FingerprintMatches(credential, fingerprint string) bool {
	fp := Fingerprint(credential)
	return subtle.ConstantTimeCompare([]byte(fp), []byte(fingerprint)) == 1
}

// NewSessionToken mints an opaque session token.
func NewSessionToken() string {
	return uuid.NewString()
}
