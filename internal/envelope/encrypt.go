package envelope

import "github.com/nolik/nolik-cli/internal/sealedbox"

// Encrypt builds a Batch from a MessageInput (spec §4.4). It mints a
// fresh broker keypair and public/secret nonce pair for this batch,
// produces one EncryptedSession per Group member, and one
// EncryptedMessage per directed (sender, recipient) edge.
//
// The returned OneTimeUse holds the ephemeral material that must be
// zeroed by the caller once the Batch has been published.
func Encrypt(mi MessageInput) (*Batch, *OneTimeUse, error) {
	if len(mi.Recipients) == 0 {
		return nil, nil, ErrNoRecipients
	}

	group, err := buildGroup(mi.SenderPublic, mi.Recipients)
	if err != nil {
		return nil, nil, err
	}

	publicNonce, err := sealedbox.NewNonce()
	if err != nil {
		return nil, nil, err
	}
	secretNonce, err := sealedbox.NewNonce()
	if err != nil {
		return nil, nil, err
	}
	brokerPublic, brokerSecret, err := sealedbox.NewKeypair()
	if err != nil {
		return nil, nil, err
	}

	otu := &OneTimeUse{
		PublicNonce:  publicNonce,
		SecretNonce:  secretNonce,
		BrokerPublic: brokerPublic,
		BrokerSecret: brokerSecret,
	}

	batch := &Batch{
		PublicNonce:  publicNonce,
		BrokerPublic: brokerPublic,
	}

	for i, party := range group {
		session := encryptSession(party, group, i, publicNonce, secretNonce, brokerSecret)
		batch.Sessions = append(batch.Sessions, session)
	}

	for _, recipient := range group.Recipients() {
		msg := encryptMessage(mi, recipient, secretNonce, publicNonce, brokerPublic)
		batch.Messages = append(batch.Messages, msg)
	}

	return batch, otu, nil
}

// buildGroup assembles [sender, recipients...], rejecting duplicates.
func buildGroup(sender PublicKey, recipients []PublicKey) (Group, error) {
	seen := map[PublicKey]bool{sender: true}
	group := Group{sender}
	for _, r := range recipients {
		if seen[r] {
			return nil, ErrDuplicateRecipient
		}
		seen[r] = true
		group = append(group, r)
	}
	return group, nil
}

// encryptSession produces EncryptedSession_i for party Group[i]: the
// secret nonce sealed for this party, and every other party's public
// key, sealed under the secret nonce, in Group order with Group[i]
// removed.
func encryptSession(party PublicKey, group Group, index int, publicNonce, secretNonce Nonce, brokerSecret SecretKey) EncryptedSession {
	s := EncryptedSession{
		NonceCiphertext: sealedbox.Encrypt(secretNonce[:], publicNonce, party, brokerSecret),
		NonceHash:       sealedbox.Hash(secretNonce[:], publicNonce),
	}
	for j, other := range group {
		if j == index {
			continue
		}
		ciphertext := sealedbox.Encrypt(other[:], secretNonce, party, brokerSecret)
		s.Group = append(s.Group, ciphertext)
	}
	return s
}

// encryptMessage produces the EncryptedMessage for the directed edge
// (sender, recipient): the routing tag, the payload ciphertexts, and
// the content fingerprint hash.
func encryptMessage(mi MessageInput, recipient PublicKey, secretNonce, publicNonce Nonce, brokerPublic PublicKey) EncryptedMessage {
	tag := partiesTag(mi.SenderPublic, recipient)

	msg := EncryptedMessage{
		Parties: tag,
	}

	for _, e := range mi.Entries {
		msg.Entries = append(msg.Entries, EncryptedEntry{
			Key:   sealedbox.Encrypt([]byte(e.Key), secretNonce, recipient, mi.SenderSecret),
			Value: sealedbox.Encrypt([]byte(e.Value), secretNonce, recipient, mi.SenderSecret),
		})
	}

	for _, b := range mi.Blobs {
		msg.Blobs = append(msg.Blobs, EncryptedBlob{
			Name: sealedbox.Encrypt([]byte(b.Name), secretNonce, recipient, mi.SenderSecret),
			File: sealedbox.Encrypt(b.Binary, secretNonce, recipient, mi.SenderSecret),
		})
	}

	msg.Hash = contentHash(publicNonce, secretNonce, brokerPublic, mi.SenderPublic, recipient, mi.Entries, mi.Blobs)

	return msg
}

// partiesTag computes base64(blake2s(sender_pk || recipient_pk)).
func partiesTag(sender, recipient PublicKey) string {
	buf := make([]byte, 0, len(sender)+len(recipient))
	buf = append(buf, sender[:]...)
	buf = append(buf, recipient[:]...)
	return sealedbox.HashBytes(buf)
}

// contentHash computes the per-message content fingerprint: blake2s
// over the concatenation, in order, of public_nonce, secret_nonce,
// broker_pk, sender_pk, recipient_pk, every entry key, every entry
// value, every blob binary, every blob name.
func contentHash(publicNonce, secretNonce Nonce, brokerPublic, sender, recipient PublicKey, entries []Entry, blobs []Blob) string {
	var buf []byte
	buf = append(buf, publicNonce[:]...)
	buf = append(buf, secretNonce[:]...)
	buf = append(buf, brokerPublic[:]...)
	buf = append(buf, sender[:]...)
	buf = append(buf, recipient[:]...)
	for _, e := range entries {
		buf = append(buf, []byte(e.Key)...)
	}
	for _, e := range entries {
		buf = append(buf, []byte(e.Value)...)
	}
	for _, b := range blobs {
		buf = append(buf, b.Binary...)
	}
	for _, b := range blobs {
		buf = append(buf, []byte(b.Name)...)
	}
	return sealedbox.HashBytes(buf)
}
