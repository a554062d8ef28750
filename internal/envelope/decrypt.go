package envelope

import (
	"unicode/utf8"

	"github.com/nolik/nolik-cli/internal/sealedbox"
)

// Decrypt recovers a Message from a Batch for any Group member —
// sender or recipient — given only that member's long-term keypair
// (spec §4.5).
//
// Probing failures in session recovery are intentionally
// indistinguishable from one another (see package sealedbox) so that a
// batch observer cannot learn which sessions were addressed to a
// guessed key. Session ordering in the Batch carries no meaning: every
// session is tried regardless of position (spec §9, "session ordering
// in TOML" — chosen: unordered, probe-all).
func Decrypt(batch *Batch, accountPK PublicKey, accountSK SecretKey) (*Message, error) {
	others, secretNonce, err := recoverSession(batch, accountPK, accountSK)
	if err != nil {
		return nil, err
	}

	edge, em, err := resolveEdge(batch, accountPK, others)
	if err != nil {
		return nil, err
	}

	return decodeMessage(em, edge, secretNonce, accountSK)
}

// DecryptAsSenderFor is the sender-side variant that decrypts the edge
// to a specific recipient index, rather than always the conventional
// first recipient (spec §9, "Ordering bug risk"). recipientIndex is
// 0-based into the recipient order recovered from the sender's own
// session slot.
func DecryptAsSenderFor(batch *Batch, senderPK PublicKey, senderSK SecretKey, recipientIndex int) (*Message, error) {
	others, secretNonce, err := recoverSession(batch, senderPK, senderSK)
	if err != nil {
		return nil, err
	}
	if recipientIndex < 0 || recipientIndex >= len(others) {
		return nil, ErrDecryption
	}
	recipient := others[recipientIndex]

	em, err := findMessage(batch, senderPK, recipient)
	if err != nil {
		return nil, err
	}

	edge := directedEdge{
		sender:     senderPK,
		recipient:  recipient,
		self:       senderPK,
		peer:       recipient,
		recipients: others,
	}
	return decodeMessage(em, edge, secretNonce, senderSK)
}

// recoverSession iterates every session in the batch, returning the
// first that decrypts with accountSK: the recovered secret_nonce, and
// the decrypted "others" list — every other Group member's public key,
// in original relative order with accountPK's own slot removed.
func recoverSession(batch *Batch, accountPK PublicKey, accountSK SecretKey) ([]PublicKey, Nonce, error) {
	for _, es := range batch.Sessions {
		secretNonceBytes, err := sealedbox.Decrypt(es.NonceCiphertext, batch.PublicNonce, batch.BrokerPublic, accountSK)
		if err != nil || len(secretNonceBytes) != len(Nonce{}) {
			continue
		}
		var secretNonce Nonce
		copy(secretNonce[:], secretNonceBytes)

		others, ok := decryptGroupSlots(es, batch.BrokerPublic, accountSK, secretNonce)
		if !ok {
			continue
		}

		return others, secretNonce, nil
	}
	return nil, Nonce{}, ErrDecryption
}

// decryptGroupSlots decrypts every ciphertext in the session's group
// slot. Each was sealed for accountPK under the broker's secret key, so
// it opens with (broker's public key, accountPK's secret key).
func decryptGroupSlots(es EncryptedSession, brokerPK PublicKey, accountSK SecretKey, secretNonce Nonce) ([]PublicKey, bool) {
	others := make([]PublicKey, 0, len(es.Group))
	for _, ciphertext := range es.Group {
		plaintext, err := sealedbox.Decrypt(ciphertext, secretNonce, brokerPK, accountSK)
		if err != nil || len(plaintext) != len(PublicKey{}) {
			return nil, false
		}
		var pk PublicKey
		copy(pk[:], plaintext)
		others = append(others, pk)
	}
	return others, true
}

// directedEdge identifies which EncryptedMessage payload to decrypt and
// with which peer key, plus enough Group context to build Message.To.
type directedEdge struct {
	sender     PublicKey
	recipient  PublicKey
	self       PublicKey // the account performing the decrypt
	peer       PublicKey // the other endpoint of the directed edge
	recipients []PublicKey
}

// resolveEdge determines whether accountPK is the sender or a recipient
// by trying both hypotheses against the batch's EncryptedMessages and
// keeping whichever produces a unique tag match (spec §4.5 steps 3-4,
// invariant 3). Because a session's group slot omits only the owning
// party's own key, "others" starts with the true sender whenever
// accountPK is itself a recipient (the sender's slot at Group index 0
// is never the one removed), and equals the recipient list in order
// whenever accountPK is the sender.
func resolveEdge(batch *Batch, accountPK PublicKey, others []PublicKey) (directedEdge, *EncryptedMessage, error) {
	if len(others) == 0 {
		return directedEdge{}, nil, ErrDecryption
	}

	// Hypothesis: accountPK is the sender; conventional counter-party is
	// the first recovered recipient.
	if em, err := findMessage(batch, accountPK, others[0]); err == nil {
		return directedEdge{
			sender:     accountPK,
			recipient:  others[0],
			self:       accountPK,
			peer:       others[0],
			recipients: others,
		}, em, nil
	}

	// Hypothesis: accountPK is a recipient; the true sender is the first
	// recovered party (its own slot was never removed from "others").
	sender := others[0]
	if em, err := findMessage(batch, sender, accountPK); err == nil {
		recipients := append([]PublicKey{accountPK}, others[1:]...)
		return directedEdge{
			sender:     sender,
			recipient:  accountPK,
			self:       accountPK,
			peer:       sender,
			recipients: recipients,
		}, em, nil
	}

	return directedEdge{}, nil, ErrDecryption
}

// findMessage locates the unique EncryptedMessage addressed to the
// directed edge (sender, recipient). Zero or multiple matches is a
// structural failure.
func findMessage(batch *Batch, sender, recipient PublicKey) (*EncryptedMessage, error) {
	tag := partiesTag(sender, recipient)
	var found *EncryptedMessage
	for i := range batch.Messages {
		if batch.Messages[i].Parties == tag {
			if found != nil {
				return nil, ErrDecryption
			}
			found = &batch.Messages[i]
		}
	}
	if found == nil {
		return nil, ErrDecryption
	}
	return found, nil
}

// decodeMessage decrypts the payload of the selected EncryptedMessage
// and assembles the final Message.
func decodeMessage(em *EncryptedMessage, edge directedEdge, secretNonce Nonce, accountSK SecretKey) (*Message, error) {
	msg := &Message{
		Nonce: secretNonce,
		From:  edge.sender,
		To:    edge.recipients,
		Hash:  em.Hash,
	}

	for _, ee := range em.Entries {
		key, err := decryptUTF8(ee.Key, secretNonce, edge.peer, accountSK)
		if err != nil {
			return nil, err
		}
		value, err := decryptUTF8(ee.Value, secretNonce, edge.peer, accountSK)
		if err != nil {
			return nil, err
		}
		msg.Entries = append(msg.Entries, Entry{Key: key, Value: value})
	}

	for _, eb := range em.Blobs {
		name, err := decryptUTF8(eb.Name, secretNonce, edge.peer, accountSK)
		if err != nil {
			return nil, err
		}
		binary, err := sealedbox.Decrypt(eb.File, secretNonce, edge.peer, accountSK)
		if err != nil {
			return nil, err
		}
		msg.Blobs = append(msg.Blobs, Blob{Name: name, Binary: binary})
	}

	return msg, nil
}

func decryptUTF8(ciphertext []byte, nonce Nonce, peer PublicKey, sk SecretKey) (string, error) {
	plaintext, err := sealedbox.Decrypt(ciphertext, nonce, peer, sk)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}
