// Package index implements the append-only per-account log of decoded
// messages (spec.md §4.9): a single TOML document per account,
// rewritten atomically on every append, plus materialization of a
// decrypted message's attachments to disk.
package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nolik/nolik-cli/internal/codec"
	"github.com/nolik/nolik-cli/internal/envelope"
	"github.com/nolik/nolik-cli/internal/nodeconfig"
)

// IndexMessage records one decoded message's position, parties,
// entries, and the relative paths its attachments were saved to.
type IndexMessage struct {
	Index     uint32   `toml:"index"`
	Public    string   `toml:"public"`
	Hash      string   `toml:"hash"`
	Nonce     string   `toml:"nonce"`
	From      string   `toml:"from"`
	To        []string `toml:"to"`
	Entries   []Entry  `toml:"entries,omitempty"`
	FileLinks []string `toml:"file_links,omitempty"`
}

// Entry mirrors envelope.Entry for the TOML wire representation.
type Entry struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

type indexDocument struct {
	Messages []IndexMessage `toml:"messages,omitempty"`
}

// Store is an append-only, per-account TOML log rooted at dataDir.
type Store struct {
	dataDir string
	hook    nodeconfig.Hook
}

// NewStore builds a Store rooted at dataDir, using hook to obtain each
// appended message's index counter.
func NewStore(dataDir string, hook nodeconfig.Hook) *Store {
	return &Store{dataDir: dataDir, hook: hook}
}

func (s *Store) accountDir(accountPublic string) string {
	return filepath.Join(s.dataDir, accountPublic)
}

func (s *Store) indexPath(accountPublic string) string {
	return filepath.Join(s.accountDir(accountPublic), "index.toml")
}

// Load reads the full message log for an account. A missing log file
// is not an error: it is an empty account with no messages yet.
func (s *Store) Load(accountPublic string) ([]IndexMessage, error) {
	path := s.indexPath(accountPublic)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var doc indexDocument
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parse index file: %w", err)
	}
	return doc.Messages, nil
}

// Append decodes msg into an IndexMessage, materializes its
// attachments to disk, and rewrites the account's log with the new
// entry appended. The index field comes from the config hook's
// counter, not from len(existing)+1, since two Stores pointed at the
// same hook must not race to reuse a value.
func (s *Store) Append(accountPublic string, msg *envelope.Message, hash string) (IndexMessage, error) {
	next, err := s.hook.NextIndex(accountPublic)
	if err != nil {
		return IndexMessage{}, fmt.Errorf("advance index counter: %w", err)
	}

	links, err := s.saveBlobs(accountPublic, hash, msg.Blobs)
	if err != nil {
		return IndexMessage{}, err
	}

	im := IndexMessage{
		Index:     next,
		Public:    accountPublic,
		Hash:      hash,
		Nonce:     codec.NonceToBase58(msg.Nonce),
		From:      codec.PublicToBase58(msg.From),
		To:        encodeRecipients(msg.To),
		Entries:   encodeEntries(msg.Entries),
		FileLinks: links,
	}

	existing, err := s.Load(accountPublic)
	if err != nil {
		return IndexMessage{}, err
	}
	existing = append(existing, im)

	if err := s.rewrite(accountPublic, existing); err != nil {
		return IndexMessage{}, err
	}
	return im, nil
}

// saveBlobs writes each attachment to
// <data-dir>/<account>/files/<hash-prefix>-<name> and returns the
// paths relative to the account directory.
func (s *Store) saveBlobs(accountPublic, hash string, blobs []envelope.Blob) ([]string, error) {
	if len(blobs) == 0 {
		return nil, nil
	}

	filesDir := filepath.Join(s.accountDir(accountPublic), "files")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}

	prefix := hash
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}

	links := make([]string, 0, len(blobs))
	for _, b := range blobs {
		// b.Name is decrypted, sender-controlled content (spec.md §3: a
		// Blob's name travels as ciphertext like any other entry), so it
		// must not be trusted as a path component as-is.
		filename := fmt.Sprintf("%s-%s", prefix, filepath.Base(b.Name))
		fullPath := filepath.Join(filesDir, filename)
		if err := os.WriteFile(fullPath, b.Binary, 0o600); err != nil {
			return nil, fmt.Errorf("save attachment %q: %w", b.Name, err)
		}
		links = append(links, filepath.Join("files", filename))
	}
	return links, nil
}

// rewrite performs the atomic log rewrite: encode to a temp file in
// the same directory, then rename over the real path.
func (s *Store) rewrite(accountPublic string, messages []IndexMessage) error {
	dir := s.accountDir(accountPublic)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create account dir: %w", err)
	}

	doc := indexDocument{Messages: messages}
	tmp, err := os.CreateTemp(dir, "index-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}

	if err := os.Rename(tmpPath, s.indexPath(accountPublic)); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func encodeRecipients(pks []envelope.PublicKey) []string {
	out := make([]string, len(pks))
	for i, pk := range pks {
		out[i] = codec.PublicToBase58(pk)
	}
	return out
}

func encodeEntries(entries []envelope.Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Key: e.Key, Value: e.Value}
	}
	return out
}
