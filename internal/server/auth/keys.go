// Package auth issues and verifies the credentials of the identity flow:
// signed access tokens and stateless confirmation codes.
package auth

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each one yields an independent subkey of the signing secret.
const (
	PurposeAccessToken      = "access-token"
	PurposeConfirmationCode = "confirmation-code"
)

const derivedKeyLen = 32

// DeriveKey expands secret into a purpose-bound subkey so that access tokens
// and confirmation codes never share HMAC keys.
func DeriveKey(secret []byte, purpose string) []byte {
	r := hkdf.New(sha256.New, secret, nil, []byte("yamdb/"+purpose))
	key := make([]byte, derivedKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails after 255*32 bytes
		panic(err)
	}
	return key
}
