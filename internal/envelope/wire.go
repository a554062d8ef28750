package envelope

import (
	"bytes"

	"github.com/BurntSushi/toml"

	"github.com/nolik/nolik-cli/internal/codec"
)

// wireEncryptedNonce is the on-wire EncryptedSession.nonce table.
type wireEncryptedNonce struct {
	Ciphertext string `toml:"ciphertext"`
	Hash       string `toml:"hash"`
}

// wireEncryptedSession is the on-wire EncryptedSession table.
type wireEncryptedSession struct {
	Nonce wireEncryptedNonce `toml:"nonce"`
	Group []string           `toml:"group,omitempty"`
}

// wireEntry is the on-wire encrypted Entry table.
type wireEntry struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// wireBlob is the on-wire encrypted Blob table.
type wireBlob struct {
	Name string `toml:"name"`
	File string `toml:"file"`
}

// wireEncryptedMessage is the on-wire EncryptedMessage table.
type wireEncryptedMessage struct {
	Parties string      `toml:"parties"`
	Hash    string      `toml:"hash"`
	Entries []wireEntry `toml:"entries,omitempty"`
	Blobs   []wireBlob  `toml:"blobs,omitempty"`
}

// wireBatch is the top-level on-wire Batch document.
type wireBatch struct {
	Nonce    string                 `toml:"nonce"`
	Broker   string                 `toml:"broker"`
	Sessions []wireEncryptedSession `toml:"sessions,omitempty"`
	Messages []wireEncryptedMessage `toml:"messages,omitempty"`
}

// Batch is the immutable, content-addressed result of one encrypt
// operation: one EncryptedSession per Group member, and one
// EncryptedMessage per directed (sender, recipient) edge.
type Batch struct {
	PublicNonce  Nonce
	BrokerPublic PublicKey
	Sessions     []EncryptedSession
	Messages     []EncryptedMessage
}

// EncryptedSession carries the secret nonce, sealed for one party, and
// that party's view of every other party's public key, sealed under the
// secret nonce.
type EncryptedSession struct {
	NonceCiphertext []byte
	NonceHash       string
	Group           [][]byte
}

// EncryptedMessage is one directed edge's ciphertext payload.
type EncryptedMessage struct {
	Parties string
	Hash    string
	Entries []EncryptedEntry
	Blobs   []EncryptedBlob
}

// EncryptedEntry is one Entry with both fields sealed.
type EncryptedEntry struct {
	Key   []byte
	Value []byte
}

// EncryptedBlob is one Blob with both fields sealed.
type EncryptedBlob struct {
	Name []byte
	File []byte
}

// MarshalTOML serializes the Batch to its wire TOML representation.
func (b *Batch) MarshalTOML() ([]byte, error) {
	w := wireBatch{
		Nonce:  codec.NonceToBase64(b.PublicNonce),
		Broker: codec.PublicToBase64(b.BrokerPublic),
	}

	for _, s := range b.Sessions {
		ws := wireEncryptedSession{
			Nonce: wireEncryptedNonce{
				Ciphertext: codec.VecToBase64(s.NonceCiphertext),
				Hash:       s.NonceHash,
			},
		}
		for _, g := range s.Group {
			ws.Group = append(ws.Group, codec.VecToBase64(g))
		}
		w.Sessions = append(w.Sessions, ws)
	}

	for _, m := range b.Messages {
		wm := wireEncryptedMessage{
			Parties: m.Parties,
			Hash:    m.Hash,
		}
		for _, e := range m.Entries {
			wm.Entries = append(wm.Entries, wireEntry{
				Key:   codec.VecToBase64(e.Key),
				Value: codec.VecToBase64(e.Value),
			})
		}
		for _, bl := range m.Blobs {
			wm.Blobs = append(wm.Blobs, wireBlob{
				Name: codec.VecToBase64(bl.Name),
				File: codec.VecToBase64(bl.File),
			})
		}
		w.Messages = append(w.Messages, wm)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBatch parses a Batch from its wire TOML representation.
// Any structural or base64 failure collapses to codec.ErrDecryption per
// the "CouldNotReadContentStoreData" boundary in the caller.
func UnmarshalBatch(data []byte) (*Batch, error) {
	var w wireBatch
	if err := toml.Unmarshal(data, &w); err != nil {
		return nil, codec.ErrDecryption
	}

	b := &Batch{}

	nonce, err := codec.Base64ToNonce(w.Nonce)
	if err != nil {
		return nil, err
	}
	b.PublicNonce = nonce

	broker, err := codec.Base64ToPublic(w.Broker)
	if err != nil {
		return nil, err
	}
	b.BrokerPublic = broker

	for _, ws := range w.Sessions {
		ciphertext, err := codec.Base64ToVec(ws.Nonce.Ciphertext)
		if err != nil {
			return nil, err
		}
		s := EncryptedSession{
			NonceCiphertext: ciphertext,
			NonceHash:       ws.Nonce.Hash,
		}
		for _, g := range ws.Group {
			gv, err := codec.Base64ToVec(g)
			if err != nil {
				return nil, err
			}
			s.Group = append(s.Group, gv)
		}
		b.Sessions = append(b.Sessions, s)
	}

	for _, wm := range w.Messages {
		m := EncryptedMessage{
			Parties: wm.Parties,
			Hash:    wm.Hash,
		}
		for _, we := range wm.Entries {
			key, err := codec.Base64ToVec(we.Key)
			if err != nil {
				return nil, err
			}
			value, err := codec.Base64ToVec(we.Value)
			if err != nil {
				return nil, err
			}
			m.Entries = append(m.Entries, EncryptedEntry{Key: key, Value: value})
		}
		for _, wb := range wm.Blobs {
			name, err := codec.Base64ToVec(wb.Name)
			if err != nil {
				return nil, err
			}
			file, err := codec.Base64ToVec(wb.File)
			if err != nil {
				return nil, err
			}
			m.Blobs = append(m.Blobs, EncryptedBlob{Name: name, File: file})
		}
		b.Messages = append(b.Messages, m)
	}

	return b, nil
}
