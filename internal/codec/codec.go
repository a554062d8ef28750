// Package codec provides the base58/base64 framing used by the message
// envelope and chain layers. Every decoder collapses to a single
// DecryptionError on malformed input so that callers cannot distinguish
// a bad base alphabet from a bad key length from a wrong key type —
// distinguishing them would give an attacker an oracle over which
// session slots decode at all.
package codec

import (
	"encoding/base64"
	"errors"

	"github.com/mr-tron/base58"
)

// PublicKeySize, SecretKeySize and SeedSize are the X25519 key sizes
// used throughout the envelope layer.
const (
	PublicKeySize = 32
	SecretKeySize = 32
	SeedSize      = 32
	NonceSize     = 24
)

// ErrDecryption is the single collapsed failure for every codec error.
// See the package doc comment for why these are not distinguished.
var ErrDecryption = errors.New("decryption error")

// Base58ToPublic decodes a base58 string into a 32-byte X25519 public key.
func Base58ToPublic(s string) ([PublicKeySize]byte, error) {
	return base58ToFixed(s, PublicKeySize)
}

// Base58ToSecret decodes a base58 string into a 32-byte X25519 secret key.
func Base58ToSecret(s string) ([SecretKeySize]byte, error) {
	return base58ToFixed(s, SecretKeySize)
}

// Base58ToSeed decodes a base58 string into a 32-byte key-derivation seed.
func Base58ToSeed(s string) ([SeedSize]byte, error) {
	return base58ToFixed(s, SeedSize)
}

func base58ToFixed(s string, size int) ([32]byte, error) {
	var out [32]byte
	b, err := base58.Decode(s)
	if err != nil {
		return out, ErrDecryption
	}
	if len(b) != size {
		return out, ErrDecryption
	}
	copy(out[:], b)
	return out, nil
}

// PublicToBase58 encodes a public key as base58.
func PublicToBase58(pk [PublicKeySize]byte) string {
	return base58.Encode(pk[:])
}

// SecretToBase58 encodes a secret key as base58.
func SecretToBase58(sk [SecretKeySize]byte) string {
	return base58.Encode(sk[:])
}

// SeedToBase58 encodes a key-derivation seed as base58.
func SeedToBase58(seed [SeedSize]byte) string {
	return base58.Encode(seed[:])
}

// NonceToBase58 encodes a 24-byte nonce as base58, the form the index
// store persists a decrypted message's nonce in.
func NonceToBase58(n [NonceSize]byte) string {
	return base58.Encode(n[:])
}

// Base64ToVec decodes an arbitrary-length base64 ciphertext.
func Base64ToVec(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrDecryption
	}
	return b, nil
}

// Base64ToNonce decodes a base64 string into a 24-byte nonce.
func Base64ToNonce(s string) ([NonceSize]byte, error) {
	var out [NonceSize]byte
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return out, ErrDecryption
	}
	if len(b) != NonceSize {
		return out, ErrDecryption
	}
	copy(out[:], b)
	return out, nil
}

// Base64ToPublic decodes a base64 string into a 32-byte public key.
func Base64ToPublic(s string) ([PublicKeySize]byte, error) {
	var out [PublicKeySize]byte
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return out, ErrDecryption
	}
	if len(b) != PublicKeySize {
		return out, ErrDecryption
	}
	copy(out[:], b)
	return out, nil
}

// VecToBase64 encodes an arbitrary byte slice as base64.
func VecToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// NonceToBase64 encodes a 24-byte nonce as base64.
func NonceToBase64(n [NonceSize]byte) string {
	return base64.StdEncoding.EncodeToString(n[:])
}

// PublicToBase64 encodes a 32-byte public key as base64.
func PublicToBase64(pk [PublicKeySize]byte) string {
	return base64.StdEncoding.EncodeToString(pk[:])
}
