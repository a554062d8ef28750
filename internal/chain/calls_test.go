package chain

import (
	"bytes"
	"testing"
)

func TestCallIndex(t *testing.T) {
	idx, err := CallIndex("Nolik", "send_message")
	if err != nil {
		t.Fatal(err)
	}
	if idx != [2]byte{10, 3} {
		t.Errorf("send_message index = %v, want {10,3}", idx)
	}

	if _, err := CallIndex("Nolik", "nonexistent"); err == nil {
		t.Error("expected error for unknown call")
	}
	if _, err := CallIndex("Nope", "whatever"); err == nil {
		t.Error("expected error for unknown pallet")
	}
}

func TestBuildAddOwner(t *testing.T) {
	var pk [32]byte
	copy(pk[:], bytes.Repeat([]byte{0x11}, 32))
	addr := AddressHex(pk)

	call, err := BuildAddOwner(addr, RoleOwner)
	if err != nil {
		t.Fatal(err)
	}
	if call[0] != 10 || call[1] != 0 {
		t.Fatalf("call header = %v, want [10 0 ...]", call[:2])
	}
	if call[len(call)-1] != byte(RoleOwner) {
		t.Errorf("trailing role byte = %d, want %d", call[len(call)-1], RoleOwner)
	}

	addrBytes, err := CallIndex("Nolik", "add_owner")
	if err != nil {
		t.Fatal(err)
	}
	_ = addrBytes
}

func TestBuildAddOwner_RejectsBadHex(t *testing.T) {
	if _, err := BuildAddOwner("not-hex!!", RoleOwner); err == nil {
		t.Error("expected error for non-hex address")
	}
}

func TestBuildAddToWhitelistAndBlacklist(t *testing.T) {
	var a, b [32]byte
	copy(a[:], bytes.Repeat([]byte{0x01}, 32))
	copy(b[:], bytes.Repeat([]byte{0x02}, 32))

	wl, err := BuildAddToWhitelist(AddressHex(a), AddressHex(b))
	if err != nil {
		t.Fatal(err)
	}
	if wl[0] != 10 || wl[1] != 1 {
		t.Fatalf("whitelist header = %v", wl[:2])
	}

	bl, err := BuildAddToBlacklist(AddressHex(a), AddressHex(b))
	if err != nil {
		t.Fatal(err)
	}
	if bl[0] != 10 || bl[1] != 2 {
		t.Fatalf("blacklist header = %v", bl[:2])
	}
	if bytes.Equal(wl, bl) {
		t.Error("whitelist and blacklist calls should differ by call index")
	}
}

func TestBuildSendMessage(t *testing.T) {
	var sender, r1, r2 [32]byte
	copy(sender[:], bytes.Repeat([]byte{0x03}, 32))
	copy(r1[:], bytes.Repeat([]byte{0x04}, 32))
	copy(r2[:], bytes.Repeat([]byte{0x05}, 32))

	call, err := BuildSendMessage(AddressHex(sender), []string{AddressHex(r1), AddressHex(r2)}, "QmSomeCID")
	if err != nil {
		t.Fatal(err)
	}
	if call[0] != 10 || call[1] != 3 {
		t.Fatalf("send_message header = %v", call[:2])
	}

	// sender address is 32 hex chars (16 bytes), compact-length-prefixed as a single byte (<64).
	wantSenderLen := byte(32 << 2)
	if call[2] != wantSenderLen {
		t.Errorf("sender length prefix = %d, want %d", call[2], wantSenderLen)
	}
}

func TestBuildTransfer(t *testing.T) {
	var dest [32]byte
	copy(dest[:], bytes.Repeat([]byte{0x09}, 32))

	call, err := BuildTransfer(dest, 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if call[0] != 6 || call[1] != 0 {
		t.Fatalf("transfer header = %v, want [6 0]", call[:2])
	}
	if call[2] != 0x00 {
		t.Errorf("MultiAddress tag = %#x, want 0x00 (Id)", call[2])
	}
	if !bytes.Equal(call[3:35], dest[:]) {
		t.Error("account id bytes not carried through unchanged")
	}
}
