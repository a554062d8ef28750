// Package envelope implements the multi-recipient, sender-anonymous
// sealed-box message format: building a Batch from a MessageInput
// (encrypt pipeline) and recovering a Message from a Batch for any
// Group member (decrypt pipeline).
package envelope

import "github.com/nolik/nolik-cli/internal/codec"

// PublicKey is a long-term X25519 identity public key.
type PublicKey = [codec.PublicKeySize]byte

// SecretKey is a long-term X25519 identity secret key.
type SecretKey = [codec.SecretKeySize]byte

// Nonce is the 24-byte value used throughout one batch: the public
// nonce sealing sessions, and the secret nonce sealing everything else.
type Nonce = [codec.NonceSize]byte

// Entry is a single key/value pair of semantic content.
type Entry struct {
	Key   string
	Value string
}

// Blob is an attached file: its original basename and binary content.
type Blob struct {
	Name   string
	Binary []byte
}

// Party is a participant's public key as visible on the wire, plus —
// once decrypted — the set of other participants' public keys visible
// to this party.
type Party struct {
	PublicKey PublicKey
	Others    []PublicKey
}

// Group is the ordered list of parties for one batch. Element 0 is
// always the sender; elements 1..n are recipients.
type Group []PublicKey

// Sender returns the sender's public key (Group[0]).
func (g Group) Sender() PublicKey {
	return g[0]
}

// Recipients returns every party after the sender.
func (g Group) Recipients() []PublicKey {
	return g[1:]
}

// IndexOf returns the position of pk in the group, or -1 if absent.
func (g Group) IndexOf(pk PublicKey) int {
	for i, p := range g {
		if p == pk {
			return i
		}
	}
	return -1
}

// Session is a per-recipient view recovered during decryption: the
// secret nonce for this batch, and the reconstructed Group.
type Session struct {
	SecretNonce Nonce
	Group       Group
}

// OneTimeUse bundles the ephemeral material minted once per batch: the
// public/secret nonce pair and the broker keypair used to seal each
// party's session slot. All three must be discarded after Encrypt
// returns; they are never reused across batches.
type OneTimeUse struct {
	PublicNonce  Nonce
	SecretNonce  Nonce
	BrokerPublic PublicKey
	BrokerSecret SecretKey
}

// Zero overwrites the one-time secret material. Call this once the
// Batch has been assembled and published.
func (o *OneTimeUse) Zero() {
	for i := range o.SecretNonce {
		o.SecretNonce[i] = 0
	}
	for i := range o.BrokerSecret {
		o.BrokerSecret[i] = 0
	}
}

// MessageInput is the sender-side, transient request to build a Batch.
type MessageInput struct {
	SenderPublic PublicKey
	SenderSecret SecretKey
	Recipients   []PublicKey
	Entries      []Entry
	Blobs        []Blob
}

// Message is the receiver-side decrypted result.
type Message struct {
	Nonce   Nonce
	From    PublicKey
	To      []PublicKey
	Entries []Entry
	Blobs   []Blob
	Hash    string
}
