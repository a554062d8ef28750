package main

import (
	"fmt"
	"strings"

	"github.com/nolik/nolik-cli/internal/chain"
	"github.com/nolik/nolik-cli/internal/codec"
)

// resolveSender resolves a sender argument to its account keypair:
// either an alias registered earlier in this invocation via `account
// generate --alias`, or a literal "public:secret" base58 pair.
func resolveSender(a *app, spec string) (pub, sec [32]byte, err error) {
	if pub, ok := a.accounts.PublicKey(spec); ok {
		sec, _ = a.accounts.SecretKey(spec)
		return pub, sec, nil
	}
	pubStr, secStr, ok := strings.Cut(spec, ":")
	if !ok {
		return pub, sec, fmt.Errorf("unknown account alias %q and not a \"public:secret\" pair", spec)
	}
	if pub, err = codec.Base58ToPublic(pubStr); err != nil {
		return pub, sec, fmt.Errorf("invalid sender public key: %w", err)
	}
	if sec, err = codec.Base58ToSecret(secStr); err != nil {
		return pub, sec, fmt.Errorf("invalid sender secret key: %w", err)
	}
	return pub, sec, nil
}

// resolveRecipient resolves a recipient argument to a public key:
// either a registered alias, or a literal base58 public key.
func resolveRecipient(a *app, spec string) ([32]byte, error) {
	if pub, ok := a.accounts.PublicKey(spec); ok {
		return pub, nil
	}
	pub, err := codec.Base58ToPublic(spec)
	if err != nil {
		return pub, fmt.Errorf("unknown account alias and not a valid base58 public key: %q", spec)
	}
	return pub, nil
}

// resolveWallet resolves a wallet argument to a signing keypair: either
// a registered alias, or a literal base58 seed to derive from.
func resolveWallet(a *app, spec string) (*chain.WalletKeypair, error) {
	if kp, ok := a.wallets.keypair(spec); ok {
		return kp, nil
	}
	seed, err := codec.Base58ToSeed(spec)
	if err != nil {
		return nil, fmt.Errorf("unknown wallet alias and not a valid base58 seed: %q", spec)
	}
	return chain.NewWalletKeypair(seed)
}
