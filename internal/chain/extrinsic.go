package chain

import "encoding/hex"

// eraImmortal is the SCALE encoding of Era::Immortal: a bare zero byte,
// meaning the extrinsic never expires (spec §4.7 step 4).
var eraImmortal = []byte{0x00}

// multiSignatureSr25519Tag is the enum discriminant for
// MultiSignature::Sr25519 (Ed25519=0, Sr25519=1, Ecdsa=2).
const multiSignatureSr25519Tag = 0x01

// multiAddressIdTag is the enum discriminant for MultiAddress::Id.
const multiAddressIdTag = 0x00

// signedExtrinsicVersion is the version-and-signed-bit prefix byte for
// a signed, protocol version 4 extrinsic (0b1000_0000 | 4).
const signedExtrinsicVersion = 0x84

// NodeMeta carries the per-signer chain state an extrinsic needs
// before it can be assembled: the signer's current account nonce, the
// chain's genesis hash, and its runtime/transaction version pair
// (spec §4.7 step 1). FetchMeta populates this from three JSON-RPC
// calls made over one short-lived connection.
type NodeMeta struct {
	Nonce              uint32
	GenesisHash        [32]byte
	SpecVersion        uint32
	TransactionVersion uint32
}

// BuildSignedExtrinsic assembles a signed, hex-encoded v4 extrinsic
// from already-SCALE-encoded call bytes (spec §4.7 steps 3-6). The
// tip is always zero; there is no fee-market concept in this client.
func BuildSignedExtrinsic(signer *WalletKeypair, callBytes []byte, meta NodeMeta) (string, error) {
	extra := Concat(eraImmortal, CompactUint(uint64(meta.Nonce)), CompactUint(0))
	additional := Concat(
		Uint32LE(meta.SpecVersion),
		Uint32LE(meta.TransactionVersion),
		meta.GenesisHash[:],
		meta.GenesisHash[:],
	)

	payload := Concat(callBytes, extra, additional)
	signature, err := signer.Sign(payload)
	if err != nil {
		return "", err
	}

	public := signer.Public()
	multiAddress := Concat([]byte{multiAddressIdTag}, public[:])
	multiSignature := Concat([]byte{multiSignatureSr25519Tag}, signature[:])

	body := Concat([]byte{signedExtrinsicVersion}, multiAddress, multiSignature, extra, callBytes)
	framed := Concat(CompactUint(uint64(len(body))), body)

	return "0x" + hex.EncodeToString(framed), nil
}
