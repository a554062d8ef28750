package chain

import "errors"

// NodeError sentinels (spec §7). Transport, RPC and submission errors
// are distinct sentinels; pallet-decoded dispatch failures map through
// PalletErrorFor below rather than being individually exported, since
// the set is data-driven from the runtime's error table.
var (
	ErrCouldNotConnectToNode       = errors.New("could not connect to node")
	ErrCouldNotSendMessageToNode   = errors.New("could not send message to node")
	ErrCouldNotReadMessageFromNode = errors.New("could not read message from node")

	ErrCouldNotGetAccountNonce   = errors.New("could not get account nonce")
	ErrCouldNotGetGenesisHash    = errors.New("could not get genesis hash")
	ErrCouldNotGetRuntimeVersion = errors.New("could not get runtime version")
	ErrCouldNotGetMetadata       = errors.New("could not get metadata")
	ErrCouldNotGetCallIndex      = errors.New("could not get call index")

	ErrCouldNotCallExtrinsic = errors.New("could not call extrinsic")
	ErrCouldNotSubmitEvent   = errors.New("could not submit event")

	ErrPalletUnknownError = errors.New("pallet: unknown error")
)

// palletErrors maps a pallet error name, as found in the runtime
// metadata's dispatch error table, to a core sentinel (spec §6).
var palletErrors = map[string]error{
	"AccountInOwners":       errors.New("pallet: account already in owners"),
	"AddressNotOwned":       errors.New("pallet: address not owned by signer"),
	"AlreadyInWhitelist":    errors.New("pallet: already in whitelist"),
	"AlreadyInBlacklist":    errors.New("pallet: already in blacklist"),
	"SameAddress":           errors.New("pallet: same address"),
	"AddressInBlacklist":    errors.New("pallet: address in blacklist"),
	"AddressNotInWhitelist": errors.New("pallet: address not in whitelist"),
}

// PalletErrorFor looks up the core NodeError for a decoded pallet error
// name. Unknown names map to ErrPalletUnknownError rather than failing
// to decode the event at all (spec §6, "other" row).
func PalletErrorFor(name string) error {
	if err, ok := palletErrors[name]; ok {
		return err
	}
	return ErrPalletUnknownError
}

// nolikErrorIndex mirrors the Nolik pallet's error enum order. A full
// client resolves a ModuleError's numeric index against metadata
// fetched from the node (state_getMetadata); this client pins the
// indices to the pallet's declared order instead, for the same reason
// it pins call indices in calls.go rather than decoding metadata.
var nolikErrorIndex = []string{
	"AccountInOwners",
	"AddressNotOwned",
	"AlreadyInWhitelist",
	"AlreadyInBlacklist",
	"SameAddress",
	"AddressInBlacklist",
	"AddressNotInWhitelist",
}

// PalletErrorForModule resolves a decoded ModuleError from the Nolik
// pallet to a core sentinel by its declared position.
func PalletErrorForModule(modErr ModuleError) error {
	idx := int(modErr.ErrorIndex)
	if idx < 0 || idx >= len(nolikErrorIndex) {
		return ErrPalletUnknownError
	}
	return PalletErrorFor(nolikErrorIndex[idx])
}
