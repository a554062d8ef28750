// Package sealedbox provides the authenticated encryption and salted
// hashing primitives the envelope layer builds on: a Curve25519 box
// between a known peer public key and a known local secret key, and a
// Blake2s-256 hash used for content fingerprints and routing tags.
//
// Every failure — bad nonce, truncated ciphertext, MAC mismatch —
// collapses to codec.ErrDecryption. The caller (internal/envelope) must
// never branch differently on the distinct underlying causes.
package sealedbox

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/nolik/nolik-cli/internal/codec"
)

// NonceSize and key sizes mirror codec's, kept local so this package has
// no import-cycle dependency on envelope.
const (
	PublicKeySize = codec.PublicKeySize
	SecretKeySize = codec.SecretKeySize
	NonceSize     = codec.NonceSize
)

// NewNonce draws a fresh 24-byte nonce uniformly at random.
func NewNonce() ([NonceSize]byte, error) {
	var n [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return n, err
	}
	return n, nil
}

// NewKeypair draws a fresh ephemeral X25519 keypair.
func NewKeypair() (pub [PublicKeySize]byte, sec [SecretKeySize]byte, err error) {
	p, s, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return pub, sec, err
	}
	return *p, *s, nil
}

// KeypairFromSeed derives the long-term identity X25519 keypair
// deterministically from a 32-byte seed (spec §3): the seed is used
// directly as the scalar (nacl/box performs the same clamping
// internally as curve25519.X25519), so the same seed always yields the
// same keypair.
func KeypairFromSeed(seed [SecretKeySize]byte) (pub [PublicKeySize]byte, sec [SecretKeySize]byte, err error) {
	sec = seed
	pubSlice, err := curve25519.X25519(sec[:], curve25519.Basepoint)
	if err != nil {
		return pub, sec, err
	}
	copy(pub[:], pubSlice)
	return pub, sec, nil
}

// Encrypt seals plaintext for peerPK, authenticated under mySK, using the
// given nonce. This is the sole encryption primitive used by the
// envelope layer: every session nonce, group slot, entry and blob goes
// through this call.
func Encrypt(plaintext []byte, nonce [NonceSize]byte, peerPK [PublicKeySize]byte, mySK [SecretKeySize]byte) []byte {
	return box.Seal(nil, plaintext, &nonce, &peerPK, &mySK)
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure — wrong
// key, wrong nonce, truncated or tampered ciphertext — returns
// codec.ErrDecryption and nothing else.
func Decrypt(ciphertext []byte, nonce [NonceSize]byte, peerPK [PublicKeySize]byte, mySK [SecretKeySize]byte) ([]byte, error) {
	plaintext, ok := box.Open(nil, ciphertext, &nonce, &peerPK, &mySK)
	if !ok {
		return nil, codec.ErrDecryption
	}
	return plaintext, nil
}

// Hash computes base64(blake2s-256(data || nonce)). It is a salted
// equality probe, not an authentication tag: it never gates decryption.
// The envelope layer uses it for each session's nonce hash; content
// fingerprints and the "parties" tag use HashBytes.
func Hash(data []byte, nonce [NonceSize]byte) string {
	h, err := blake2s.New256(nil)
	if err != nil {
		// blake2s.New256 only fails for an over-long key, and we never pass one.
		panic(err)
	}
	h.Write(data)
	h.Write(nonce[:])
	sum := h.Sum(nil)
	return codec.VecToBase64(sum)
}

// HashBytes computes base64(blake2s-256(data)) with no nonce salt. Used
// for the per-directed-edge "parties" routing tag, which has no natural
// nonce of its own (sender_pk || recipient_pk).
func HashBytes(data []byte) string {
	sum := blake2s.Sum256(data)
	return codec.VecToBase64(sum[:])
}
