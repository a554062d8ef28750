package chain

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// ss58GenericPrefix is the network identifier byte for the generic
// Substrate SS58 address format (as opposed to a chain-specific one).
const ss58GenericPrefix = 42

// AddressSize is the size of a pre-hashed Nolik pallet address: 16
// bytes (spec §4.7).
const AddressSize = 16

// HashAddress computes the pre-hashed client-side identifier submitted
// to the Nolik pallet: blake2_128(blake2_512(pk)), as raw bytes
// (AddressHex renders the hex form the pallet calls carry). It is
// deterministic and independent of the key's own encoding (base58 vs
// base64 vs raw bytes) since it operates on the raw 32-byte key.
func HashAddress(pk [32]byte) [AddressSize]byte {
	inner := blake2b.Sum512(pk[:])

	outerHash, err := blake2b.New(AddressSize, nil)
	if err != nil {
		// blake2b.New only errors for an invalid size/key combination;
		// AddressSize=16 with no key is always valid.
		panic(err)
	}
	outerHash.Write(inner[:])
	sum := outerHash.Sum(nil)

	var out [AddressSize]byte
	copy(out[:], sum)
	return out
}

// AddressHex renders a hashed address as the lowercase hex string the
// Nolik pallet's extrinsics take as their String-typed address
// arguments (spec §4.7).
func AddressHex(pk [32]byte) string {
	addr := HashAddress(pk)
	return hex.EncodeToString(addr[:])
}

// SS58Address renders a raw sr25519 public key as a generic Substrate
// SS58 address: base58(prefix || pubkey || checksum[:2]), where
// checksum = blake2b_512("SS58PRE" || prefix || pubkey). This is the
// string form the chain's JSON-RPC methods (system_accountNextIndex)
// expect for an account, distinct from AddressHex which names an
// address inside a Nolik pallet call.
func SS58Address(pk [32]byte) string {
	payload := make([]byte, 0, 1+32)
	payload = append(payload, ss58GenericPrefix)
	payload = append(payload, pk[:]...)

	preimage := append([]byte("SS58PRE"), payload...)
	checksum := blake2b.Sum512(preimage)

	full := append(payload, checksum[:2]...)
	return base58.Encode(full)
}
