package sealedbox

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	recipientPub, recipientSec, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	senderPub, senderSec, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	nonce, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}

	plaintext := []byte("hello, nolik")
	ciphertext := Encrypt(plaintext, nonce, recipientPub, senderSec)

	decrypted, err := Decrypt(ciphertext, nonce, senderPub, recipientSec)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round-trip mismatch: got %q, want %q", decrypted, plaintext)
	}
}

func TestDecrypt_TamperedCiphertextFails(t *testing.T) {
	peerPub, peerSec, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	myPub, mySec, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	nonce, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}

	ciphertext := Encrypt([]byte("payload"), nonce, peerPub, mySec)
	ciphertext[0] ^= 0xFF

	if _, err := Decrypt(ciphertext, nonce, myPub, peerSec); err == nil {
		t.Error("expected decryption failure on tampered ciphertext")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	peerPub, _, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	_, mySec, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	wrongPub, wrongSec, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	nonce, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}

	ciphertext := Encrypt([]byte("payload"), nonce, peerPub, mySec)
	if _, err := Decrypt(ciphertext, nonce, wrongPub, wrongSec); err == nil {
		t.Error("expected decryption failure with mismatched keypair")
	}
}

func TestHash_Deterministic(t *testing.T) {
	nonce, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("some content")

	h1 := Hash(data, nonce)
	h2 := Hash(data, nonce)
	if h1 != h2 {
		t.Errorf("Hash() not deterministic: %s != %s", h1, h2)
	}
}

func TestHashBytes_Deterministic(t *testing.T) {
	data := []byte("sender||recipient")
	if HashBytes(data) != HashBytes(data) {
		t.Error("HashBytes() not deterministic")
	}
}

func TestKeypairFromSeed_Deterministic(t *testing.T) {
	var seed [SecretKeySize]byte
	copy(seed[:], []byte("this is a fixed 32 byte seed!!!!"))

	pub1, sec1, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	pub2, sec2, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	if pub1 != pub2 || sec1 != sec2 {
		t.Error("KeypairFromSeed() not deterministic for the same seed")
	}

	var other [SecretKeySize]byte
	copy(other[:], []byte("a completely different 32B seed"))
	pub3, _, err := KeypairFromSeed(other)
	if err != nil {
		t.Fatal(err)
	}
	if pub1 == pub3 {
		t.Error("KeypairFromSeed() produced the same public key for different seeds")
	}
}
