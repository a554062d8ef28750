package chain

import (
	"crypto/rand"
	"fmt"

	"github.com/ChainSafe/go-schnorrkel"
)

// signingContext is the domain separation label Substrate-family chains
// use for sr25519 extrinsic signatures.
var signingContext = []byte("substrate")

// WalletKeypair holds an SR25519 keypair used only for signing chain
// transactions (spec §3) — distinct from the long-term X25519 identity
// keypair used by the message envelope.
type WalletKeypair struct {
	secret *schnorrkel.SecretKey
	public [32]byte
}

// NewWalletKeypair derives an SR25519 keypair from a 32-byte seed,
// matching the expansion Substrate-family chains use for from_seed.
func NewWalletKeypair(seed [32]byte) (*WalletKeypair, error) {
	mini, err := schnorrkel.NewMiniSecretKeyFromRaw(seed)
	if err != nil {
		return nil, fmt.Errorf("derive mini secret key: %w", err)
	}
	secret := mini.ExpandEd25519()
	pub, err := secret.Public()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	return &WalletKeypair{secret: secret, public: pub.Encode()}, nil
}

// GenerateWalletKeypair draws a fresh random wallet keypair.
func GenerateWalletKeypair() (*WalletKeypair, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	return NewWalletKeypair(seed)
}

// Public returns the raw 32-byte SR25519 public key.
func (w *WalletKeypair) Public() [32]byte {
	return w.public
}

// Sign produces an SR25519 signature over message under the Substrate
// signing context.
func (w *WalletKeypair) Sign(message []byte) ([64]byte, error) {
	transcript := schnorrkel.NewSigningContext(signingContext, message)
	sig, err := w.secret.Sign(transcript)
	if err != nil {
		return [64]byte{}, fmt.Errorf("sign: %w", err)
	}
	return sig.Encode(), nil
}

// Verify checks an SR25519 signature against a raw public key. Exposed
// for tests and for verifying events that echo back a signer's address.
func Verify(public [32]byte, message []byte, signature [64]byte) bool {
	pub := schnorrkel.NewPublicKey(public)
	sig := new(schnorrkel.Signature)
	if err := sig.Decode(signature); err != nil {
		return false
	}
	transcript := schnorrkel.NewSigningContext(signingContext, message)
	ok, err := pub.Verify(sig, transcript)
	return err == nil && ok
}
