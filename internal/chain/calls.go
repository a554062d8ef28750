package chain

import (
	"encoding/hex"
	"fmt"
)

// Pallet and call indices (spec §4.7 step 2, §6). A full client would
// resolve these from the runtime's metadata in a node.GetMetadata()
// round trip; this module pins them to the indices documented for the
// Nolik/Balances pallets and returns ErrCouldNotGetCallIndex for any
// other (pallet, call) pair, keeping the lookup itself as the place a
// metadata-backed implementation would plug in.
var callIndex = map[string]map[string][2]byte{
	"Nolik": {
		"add_owner":        {10, 0},
		"add_to_whitelist": {10, 1},
		"add_to_blacklist": {10, 2},
		"send_message":     {10, 3},
	},
	"Balances": {
		"transfer": {6, 0},
	},
}

// CallIndex looks up the (pallet_index, call_index) pair for a
// (pallet, call) name.
func CallIndex(pallet, call string) ([2]byte, error) {
	calls, ok := callIndex[pallet]
	if !ok {
		return [2]byte{}, fmt.Errorf("%w: unknown pallet %q", ErrCouldNotGetCallIndex, pallet)
	}
	idx, ok := calls[call]
	if !ok {
		return [2]byte{}, fmt.Errorf("%w: unknown call %q.%q", ErrCouldNotGetCallIndex, pallet, call)
	}
	return idx, nil
}

// Role distinguishes an owner's access level on the Nolik pallet,
// carried over from the original CLI's add_owner role byte
// (original_source/src/owner.rs): an address can be registered as a
// full Owner or a delegated, more restricted Delegate.
type Role byte

const (
	RoleOwner    Role = 0
	RoleDelegate Role = 1
)

// BuildAddOwner encodes the Nolik::add_owner call: (address: String, role: [u8;1]).
// address is the hex-encoded hashed address (see AddressHex), matching
// the hash_address-then-hex convention the original client uses for
// every address argument submitted to this pallet.
func BuildAddOwner(addressHex string, role Role) ([]byte, error) {
	idx, err := CallIndex("Nolik", "add_owner")
	if err != nil {
		return nil, err
	}
	if _, err := hex.DecodeString(addressHex); err != nil {
		return nil, fmt.Errorf("add_owner: address is not valid hex: %w", err)
	}
	return Concat(idx[:], String(addressHex), []byte{byte(role)}), nil
}

// BuildAddToWhitelist encodes the Nolik::add_to_whitelist call: (add_to: String, new_address: String).
func BuildAddToWhitelist(addToHex, newAddressHex string) ([]byte, error) {
	idx, err := CallIndex("Nolik", "add_to_whitelist")
	if err != nil {
		return nil, err
	}
	return Concat(idx[:], String(addToHex), String(newAddressHex)), nil
}

// BuildAddToBlacklist encodes the Nolik::add_to_blacklist call: (add_to: String, new_address: String).
func BuildAddToBlacklist(addToHex, newAddressHex string) ([]byte, error) {
	idx, err := CallIndex("Nolik", "add_to_blacklist")
	if err != nil {
		return nil, err
	}
	return Concat(idx[:], String(addToHex), String(newAddressHex)), nil
}

// BuildSendMessage encodes the Nolik::send_message call:
// (sender: String, recipients: Vec<String>, cid: String), each address
// hex-encoded per AddressHex.
func BuildSendMessage(senderHex string, recipientHexes []string, cid string) ([]byte, error) {
	idx, err := CallIndex("Nolik", "send_message")
	if err != nil {
		return nil, err
	}
	recipients := make([]byte, 0, 8)
	recipients = append(recipients, CompactUint(uint64(len(recipientHexes)))...)
	for _, r := range recipientHexes {
		recipients = append(recipients, String(r)...)
	}
	return Concat(idx[:], String(senderHex), recipients, String(cid)), nil
}

// BuildTransfer encodes the Balances::transfer call: (dest: MultiAddress, value: Compact<Balance>).
// dest is encoded as MultiAddress::Id(AccountId32): enum tag 0x00 followed by the 32-byte account id.
func BuildTransfer(dest [32]byte, valuePlanck uint64) ([]byte, error) {
	idx, err := CallIndex("Balances", "transfer")
	if err != nil {
		return nil, err
	}
	multiAddress := Concat([]byte{0x00}, dest[:])
	return Concat(idx[:], multiAddress, CompactUint(valuePlanck)), nil
}
