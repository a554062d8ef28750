package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nolik/nolik-cli/internal/chain"
	"github.com/nolik/nolik-cli/internal/sealedbox"
)

// sessionAccountStore is the ephemeral, in-memory store the CLI
// resolves account aliases through; it satisfies
// nodeconfig.AccountStore. A real deployment would back this with an
// encrypted on-disk store; that persistence layer is explicitly out of
// scope here (spec.md §1, Non-goals).
type sessionAccountStore struct {
	mu       sync.Mutex
	accounts map[string][2][32]byte // alias -> [public, secret]
}

func newSessionAccountStore() *sessionAccountStore {
	return &sessionAccountStore{accounts: make(map[string][2][32]byte)}
}

func (s *sessionAccountStore) add(alias string) ([32]byte, [32]byte, error) {
	pub, sec, err := sealedbox.NewKeypair()
	if err != nil {
		return [32]byte{}, [32]byte{}, fmt.Errorf("generate account keypair: %w", err)
	}
	s.set(alias, pub, sec)
	return pub, sec, nil
}

// set registers an already-generated or seed-derived keypair under alias.
func (s *sessionAccountStore) set(alias string, pub, sec [32]byte) {
	s.mu.Lock()
	s.accounts[alias] = [2][32]byte{pub, sec}
	s.mu.Unlock()
}

func (s *sessionAccountStore) PublicKey(alias string) ([32]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, ok := s.accounts[alias]
	return kp[0], ok
}

func (s *sessionAccountStore) SecretKey(alias string) ([32]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, ok := s.accounts[alias]
	return kp[1], ok
}

func (s *sessionAccountStore) aliases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.accounts))
	for alias := range s.accounts {
		out = append(out, alias)
	}
	return out
}

// sessionWalletStore is the ephemeral, in-memory keypair store backing
// wallet aliases for one CLI invocation. It deliberately does not claim
// to implement nodeconfig.WalletStore's Seed-shaped interface: an
// sr25519 WalletKeypair does not expose the seed it was expanded from,
// so the store keeps the live keypair instead of pretending to recover
// one. Wallets added this way round-trip only within the same process,
// consistent with account/wallet persistence being out of scope.
type sessionWalletStore struct {
	mu      sync.Mutex
	wallets map[string]*chain.WalletKeypair
}

func newSessionWalletStore() *sessionWalletStore {
	return &sessionWalletStore{wallets: make(map[string]*chain.WalletKeypair)}
}

func (s *sessionWalletStore) add(alias string) (*chain.WalletKeypair, error) {
	kp, err := chain.GenerateWalletKeypair()
	if err != nil {
		return nil, fmt.Errorf("generate wallet keypair: %w", err)
	}
	s.mu.Lock()
	s.wallets[alias] = kp
	s.mu.Unlock()
	return kp, nil
}

// setKeypair registers an already-generated keypair under alias.
func (s *sessionWalletStore) setKeypair(alias string, kp *chain.WalletKeypair) {
	s.mu.Lock()
	s.wallets[alias] = kp
	s.mu.Unlock()
}

func (s *sessionWalletStore) keypair(alias string) (*chain.WalletKeypair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, ok := s.wallets[alias]
	return kp, ok
}

func (s *sessionWalletStore) aliases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.wallets))
	for alias := range s.wallets {
		out = append(out, alias)
	}
	return out
}

// fileIndexHook is a small JSON-file-backed nodeconfig.Hook: one
// monotonic counter per account, persisted under dataDir so the index
// counter survives across invocations even though accounts/wallets
// themselves do not.
type fileIndexHook struct {
	mu   sync.Mutex
	path string
}

func newFileIndexHook(dataDir string) *fileIndexHook {
	return &fileIndexHook{path: filepath.Join(dataDir, "index-counters.json")}
}

func (h *fileIndexHook) NextIndex(accountPublic string) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	counters := make(map[string]uint32)
	if data, err := os.ReadFile(h.path); err == nil {
		if err := json.Unmarshal(data, &counters); err != nil {
			return 0, fmt.Errorf("parse index counters: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("read index counters: %w", err)
	}

	counters[accountPublic]++
	next := counters[accountPublic]

	if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err != nil {
		return 0, fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(counters, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode index counters: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o600); err != nil {
		return 0, fmt.Errorf("write index counters: %w", err)
	}
	return next, nil
}
